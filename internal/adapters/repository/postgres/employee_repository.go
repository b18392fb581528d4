package postgres

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/ogurasousui/projectledger/internal/core/employee"
	pgdb "github.com/ogurasousui/projectledger/internal/platform/db/postgres"
)

const (
	uniqueViolationCode = "23505"
	checkViolationCode  = "23514"
)

const employeeColumns = `id, user_id, name, email, role, tags, badges, balance, active_projects, completed_projects, created_at, updated_at`

// EmployeeRepository は PostgreSQL を利用した従業員永続化の実装です。
// 参照集合は text[] カラムで保持し、集合操作は単一の UPDATE 文で冪等に
// 適用します。
type EmployeeRepository struct {
	pool pgdb.Queryer
}

// NewEmployeeRepository は EmployeeRepository を生成します。
func NewEmployeeRepository(pool pgdb.Queryer) *EmployeeRepository {
	return &EmployeeRepository{pool: pool}
}

// Create は従業員を新規作成します。
func (r *EmployeeRepository) Create(ctx context.Context, e *employee.Employee) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `
        INSERT INTO employees (id, user_id, name, email, role, tags, badges, balance, active_projects, completed_projects, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, 0, '{}', '{}', $8, $9)
        RETURNING `+employeeColumns,
		e.ID,
		e.UserID,
		e.Name,
		e.Email,
		e.Role,
		textArray(e.Tags),
		textArray(e.Badges),
		e.CreatedAt,
		e.UpdatedAt,
	)

	created, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return created, nil
}

// FindByID は内部 ID で従業員を取得します。
func (r *EmployeeRepository) FindByID(ctx context.Context, id string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1 LIMIT 1`, id)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByUserID は外部 ID で従業員を取得します。
func (r *EmployeeRepository) FindByUserID(ctx context.Context, userID string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE user_id = $1 LIMIT 1`, userID)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// FindByEmail はメールアドレスで従業員を取得します。
func (r *EmployeeRepository) FindByEmail(ctx context.Context, email string) (*employee.Employee, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	row := exec.QueryRow(ctx, `SELECT `+employeeColumns+` FROM employees WHERE email = $1 LIMIT 1`, email)

	found, err := scanEmployee(row)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	return found, nil
}

// ResolveUserIDs は外部 ID から内部 ID への対応表を返します。
// 見つからなかった外部 ID は結果に含まれません。
func (r *EmployeeRepository) ResolveUserIDs(ctx context.Context, userIDs []string) (map[string]string, error) {
	if len(userIDs) == 0 {
		return map[string]string{}, nil
	}

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, `SELECT user_id, id FROM employees WHERE user_id = ANY($1)`, userIDs)
	if err != nil {
		return nil, translateEmployeePgError(err)
	}
	defer rows.Close()

	resolved := make(map[string]string, len(userIDs))
	for rows.Next() {
		var userID, id string
		if err := rows.Scan(&userID, &id); err != nil {
			return nil, translateEmployeePgError(err)
		}
		resolved[userID] = id
	}

	if err := rows.Err(); err != nil {
		return nil, translateEmployeePgError(err)
	}

	return resolved, nil
}

// List は従業員の一覧を取得します。
func (r *EmployeeRepository) List(ctx context.Context, filter employee.ListEmployeesFilter) ([]*employee.Employee, string, error) {
	if filter.Limit <= 0 {
		return nil, "", employee.ErrInvalidPageSize
	}
	if filter.Offset < 0 {
		return nil, "", employee.ErrInvalidPageToken
	}

	limitWithBuffer := filter.Limit + 1

	args := make([]any, 0, 3)
	whereClause := ""
	if filter.Role != nil {
		args = append(args, *filter.Role)
		whereClause = " WHERE role = $1"
	}

	limitPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, limitWithBuffer)
	offsetPlaceholder := "$" + strconv.Itoa(len(args)+1)
	args = append(args, filter.Offset)

	query := `SELECT ` + employeeColumns + ` FROM employees` + whereClause + `
         ORDER BY created_at DESC, id DESC
         LIMIT ` + limitPlaceholder + `
        OFFSET ` + offsetPlaceholder

	exec := pgdb.QueryerFromContext(ctx, r.pool)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, "", translateEmployeePgError(err)
	}
	defer rows.Close()

	employees := make([]*employee.Employee, 0, filter.Limit)
	for rows.Next() {
		emp, err := scanEmployee(rows)
		if err != nil {
			return nil, "", translateEmployeePgError(err)
		}
		employees = append(employees, emp)
	}

	if err := rows.Err(); err != nil {
		return nil, "", translateEmployeePgError(err)
	}

	var nextToken string
	if len(employees) == limitWithBuffer {
		employees = employees[:filter.Limit]
		nextToken = strconv.Itoa(filter.Offset + filter.Limit)
	}

	return employees, nextToken, nil
}

// AddActiveProject は projectID を進行中集合へ集合挿入します。既に含まれる
// 場合は何も変わりません。
func (r *EmployeeRepository) AddActiveProject(ctx context.Context, employeeID, projectID string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE employees
           SET active_projects = CASE
                   WHEN $2 = ANY(active_projects) THEN active_projects
                   ELSE array_append(active_projects, $2)
               END,
               updated_at = now()
         WHERE id = $1
    `, employeeID, projectID)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// RemoveActiveProject は projectID を進行中集合から除去します。含まれて
// いなくてもエラーにはなりません。
func (r *EmployeeRepository) RemoveActiveProject(ctx context.Context, employeeID, projectID string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE employees
           SET active_projects = array_remove(active_projects, $2),
               updated_at = now()
         WHERE id = $1
    `, employeeID, projectID)
	if err != nil {
		return translateEmployeePgError(err)
	}
	if tag.RowsAffected() == 0 {
		return employee.ErrEmployeeNotFound
	}
	return nil
}

// CreditCompletion は projectID を進行中集合から完了済み集合へ移し、balance に
// amount を加算します。完了済み集合に既に含まれる従業員は飛ばして false を
// 返すため、再試行で二重加算されることはありません。
func (r *EmployeeRepository) CreditCompletion(ctx context.Context, employeeID, projectID string, amount int64) (bool, error) {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	tag, err := exec.Exec(ctx, `
        UPDATE employees
           SET active_projects = array_remove(active_projects, $2),
               completed_projects = array_append(completed_projects, $2),
               balance = balance + $3,
               updated_at = now()
         WHERE id = $1
           AND NOT ($2 = ANY(completed_projects))
    `, employeeID, projectID, amount)
	if err != nil {
		return false, translateEmployeePgError(err)
	}

	if tag.RowsAffected() > 0 {
		return true, nil
	}

	var exists bool
	if err := exec.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM employees WHERE id = $1)`, employeeID).Scan(&exists); err != nil {
		return false, translateEmployeePgError(err)
	}
	if !exists {
		return false, employee.ErrEmployeeNotFound
	}
	return false, nil
}

// PurgeProjectRefs は全従業員の両参照集合から projectID を除去します。
func (r *EmployeeRepository) PurgeProjectRefs(ctx context.Context, projectID string) error {
	exec := pgdb.QueryerFromContext(ctx, r.pool)
	if _, err := exec.Exec(ctx, `
        UPDATE employees
           SET active_projects = array_remove(active_projects, $1),
               completed_projects = array_remove(completed_projects, $1),
               updated_at = now()
         WHERE $1 = ANY(active_projects) OR $1 = ANY(completed_projects)
    `, projectID); err != nil {
		return translateEmployeePgError(err)
	}
	return nil
}

func scanEmployee(row pgx.Row) (*employee.Employee, error) {
	var (
		id                string
		userID            string
		name              string
		email             string
		role              string
		tags              []string
		badges            []string
		balance           int64
		activeProjects    []string
		completedProjects []string
		createdAt         time.Time
		updatedAt         time.Time
	)

	if err := row.Scan(
		&id,
		&userID,
		&name,
		&email,
		&role,
		&tags,
		&badges,
		&balance,
		&activeProjects,
		&completedProjects,
		&createdAt,
		&updatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, employee.ErrEmployeeNotFound
		}
		return nil, err
	}

	return &employee.Employee{
		ID:                id,
		UserID:            userID,
		Name:              name,
		Email:             email,
		Role:              role,
		Tags:              tags,
		Badges:            badges,
		Balance:           balance,
		ActiveProjects:    activeProjects,
		CompletedProjects: completedProjects,
		CreatedAt:         createdAt,
		UpdatedAt:         updatedAt,
	}, nil
}

func translateEmployeePgError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return employee.ErrEmployeeNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolationCode:
			if strings.Contains(pgErr.ConstraintName, "email") {
				return employee.ErrEmailAlreadyExists
			}
			return employee.ErrUserIDAlreadyExists
		}
	}

	return err
}

func textArray(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
