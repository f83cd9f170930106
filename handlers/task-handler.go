package handlers

import (
	"net/http"

	"task-manager/middleware"
	"task-manager/models"
	"task-manager/services"
	"task-manager/utils"

	"github.com/gorilla/mux"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

// callerOrFail returns the authenticated caller or writes 401.
func callerOrFail(w http.ResponseWriter, r *http.Request) (models.Caller, bool) {
	caller, ok := middleware.CallerFrom(r.Context())
	if !ok {
		utils.WriteError(w, r, &services.AppError{Kind: services.ErrUnauthenticated, Msg: "Not authorized, no token"})
	}
	return caller, ok
}

func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	status := models.TaskStatus(r.URL.Query().Get("status"))

	list, err := h.service.ListTasks(r.Context(), caller, status)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, list)
}

func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	task, err := h.service.GetTask(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	var in services.CreateTaskInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	task, err := h.service.CreateTask(r.Context(), caller, in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Task created successfully",
		"task":    task,
	})
}

func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var in services.UpdateTaskInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	task, err := h.service.UpdateTask(r.Context(), mux.Vars(r)["id"], in)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Task updated successfully",
		"task":    task,
	})
}

func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteTask(r.Context(), mux.Vars(r)["id"]); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	var in struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	task, err := h.service.UpdateStatus(r.Context(), caller, mux.Vars(r)["id"], in.Status)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Task status updated",
		"task":    task,
	})
}

func (h *TaskHandler) UpdateTaskChecklist(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	var in struct {
		TodoChecklist []models.ChecklistItem `json:"todoChecklist"`
	}
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.WriteError(w, r, err)
		return
	}

	task, err := h.service.UpdateChecklist(r.Context(), caller, mux.Vars(r)["id"], in.TodoChecklist)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Task checklist updated",
		"task":    task,
	})
}

func (h *TaskHandler) GetDashboardData(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.AdminDashboard(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, dashboard)
}

func (h *TaskHandler) GetUserDashboardData(w http.ResponseWriter, r *http.Request) {
	caller, ok := callerOrFail(w, r)
	if !ok {
		return
	}
	dashboard, err := h.service.UserDashboard(r.Context(), caller)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, dashboard)
}
