package employee

import "errors"

var (
	ErrInvalidID           = errors.New("employee: invalid id")
	ErrInvalidUserID       = errors.New("employee: invalid user id")
	ErrInvalidName         = errors.New("employee: invalid name")
	ErrInvalidEmail        = errors.New("employee: invalid email")
	ErrInvalidRole         = errors.New("employee: invalid role")
	ErrInvalidPageSize     = errors.New("employee: invalid page size")
	ErrInvalidPageToken    = errors.New("employee: invalid page token")
	ErrEmployeeNotFound    = errors.New("employee: not found")
	ErrUserIDAlreadyExists = errors.New("employee: user id already exists")
	ErrEmailAlreadyExists  = errors.New("employee: email already exists")
)
