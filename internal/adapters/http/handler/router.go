package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/ogurasousui/projectledger/internal/core/employee"
	"github.com/ogurasousui/projectledger/internal/core/project"
)

// NewRouter は全リソースのルートを登録したルーターを返します。
// 認証は外部コラボレーターの責務のためここでは扱いません。
func NewRouter(projects project.UseCase, employees employee.UseCase) *mux.Router {
	r := mux.NewRouter()

	projectHandler := NewProjectHandler(projects)
	employeeHandler := NewEmployeeHandler(employees)

	api := r.PathPrefix("/api").Subrouter()

	pr := api.PathPrefix("/projects").Subrouter()
	pr.HandleFunc("", projectHandler.List).Methods(http.MethodGet)
	pr.HandleFunc("", projectHandler.Create).Methods(http.MethodPost)
	pr.HandleFunc("/upcoming", projectHandler.ListUpcoming).Methods(http.MethodGet)
	pr.HandleFunc("/myprojects", projectHandler.ListMine).Methods(http.MethodGet)
	pr.HandleFunc("/{id}", projectHandler.Get).Methods(http.MethodGet)
	pr.HandleFunc("/{id}", projectHandler.Edit).Methods(http.MethodPut)
	pr.HandleFunc("/{id}", projectHandler.Delete).Methods(http.MethodDelete)
	pr.HandleFunc("/{id}/complete", projectHandler.Complete).Methods(http.MethodPost)

	er := api.PathPrefix("/employees").Subrouter()
	er.HandleFunc("", employeeHandler.List).Methods(http.MethodGet)
	er.HandleFunc("/register", employeeHandler.Register).Methods(http.MethodPost)
	er.HandleFunc("/by-user/{userId}", employeeHandler.GetByUserID).Methods(http.MethodGet)
	er.HandleFunc("/{id}", employeeHandler.Get).Methods(http.MethodGet)

	return r
}
