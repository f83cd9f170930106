package handlers

import (
	"net/http"

	"task-manager/middleware"
	"task-manager/utils"

	"github.com/gorilla/mux"
)

type Router struct {
	Auth    *AuthHandler
	Users   *UserHandler
	Tasks   *TaskHandler
	Reports *ReportHandler
	// Authenticator validates bearer tokens for every route except register, login and health.
	Authenticator middleware.Authenticator
}

func (rt Router) Build() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	r.HandleFunc("/api/auth/register", rt.Auth.Register).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/login", rt.Auth.Login).Methods(http.MethodPost)

	protected := r.PathPrefix("/api").Subrouter()
	protected.Use(middleware.JWTAuthMiddleware(rt.Authenticator))

	admin := func(h http.HandlerFunc) http.Handler {
		return middleware.AdminOnly(h)
	}

	protected.HandleFunc("/auth/profile", rt.Auth.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/auth/profile", rt.Auth.UpdateProfile).Methods(http.MethodPut)

	protected.Handle("/users", admin(rt.Users.GetUsers)).Methods(http.MethodGet)
	protected.HandleFunc("/users/{id}", rt.Users.GetUserByID).Methods(http.MethodGet)
	protected.Handle("/users/{id}", admin(rt.Users.DeleteUser)).Methods(http.MethodDelete)

	protected.Handle("/tasks/dashboard-data", admin(rt.Tasks.GetDashboardData)).Methods(http.MethodGet)
	protected.HandleFunc("/tasks/user-dashboard-data", rt.Tasks.GetUserDashboardData).Methods(http.MethodGet)
	protected.HandleFunc("/tasks", rt.Tasks.GetTasks).Methods(http.MethodGet)
	protected.Handle("/tasks", admin(rt.Tasks.CreateTask)).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}", rt.Tasks.GetTaskByID).Methods(http.MethodGet)
	protected.Handle("/tasks/{id}", admin(rt.Tasks.UpdateTask)).Methods(http.MethodPut)
	protected.Handle("/tasks/{id}", admin(rt.Tasks.DeleteTask)).Methods(http.MethodDelete)
	protected.HandleFunc("/tasks/{id}/status", rt.Tasks.UpdateTaskStatus).Methods(http.MethodPut)
	protected.HandleFunc("/tasks/{id}/todo", rt.Tasks.UpdateTaskChecklist).Methods(http.MethodPut)

	protected.Handle("/reports/export/tasks", admin(rt.Reports.ExportTasks)).Methods(http.MethodGet)
	protected.Handle("/reports/export/users", admin(rt.Reports.ExportUsers)).Methods(http.MethodGet)

	return r
}
