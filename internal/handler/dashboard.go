package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/leadflow/leadflow/internal/ctxkeys"
	"github.com/leadflow/leadflow/internal/model"
	"github.com/leadflow/leadflow/internal/service"
	"github.com/leadflow/leadflow/internal/ui"
	"github.com/leadflow/leadflow/internal/ui/pages"
)

type DashboardHandler struct {
	taskService *service.TaskService
}

func NewDashboardHandler(taskService *service.TaskService) *DashboardHandler {
	return &DashboardHandler{
		taskService: taskService,
	}
}

func (h *DashboardHandler) DashboardPage(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	dashboard, err := h.taskService.Today(r.Context(), user.ID, ctxkeys.Now(r.Context()))
	if err != nil {
		slog.Error("failed to load dashboard", "error", err, "user_id", user.ID)
		http.Error(w, "Falha ao carregar o dashboard", http.StatusInternalServerError)
		return
	}

	renderPage(w, r, pages.Dashboard(dashboard), pages.DashboardContent(dashboard))
}

func (h *DashboardHandler) NewTaskDialog(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, pages.TaskDialog(nil, ""))
}

func (h *DashboardHandler) EditTaskDialog(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	taskID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	task, err := h.taskService.Task(r.Context(), user.ID, taskID)
	if err != nil {
		logFailure(r, "failed to load task", err, "user_id", user.ID, "task_id", taskID)
		toastError(w, r, "Erro", userMessage(err))
		return
	}

	ui.Render(w, r, pages.TaskDialog(task, ""))
}

func (h *DashboardHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	title := strings.TrimSpace(r.FormValue("title"))
	details := strings.TrimSpace(r.FormValue("details"))

	_, err := h.taskService.Create(r.Context(), user.ID, title, details)
	if err != nil {
		logFailure(r, "failed to create task", err, "user_id", user.ID)
		ui.Render(w, r, pages.TaskDialog(nil, userMessage(err)))
		return
	}

	changed(w, r, "Tarefa criada")
}

func (h *DashboardHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	taskID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	details := strings.TrimSpace(r.FormValue("details"))

	_, err := h.taskService.Update(r.Context(), user.ID, taskID, title, details)
	if err != nil {
		logFailure(r, "failed to update task", err, "user_id", user.ID, "task_id", taskID)
		task := &model.UserTask{ID: taskID, Title: title, Details: details}
		ui.Render(w, r, pages.TaskDialog(task, userMessage(err)))
		return
	}

	changed(w, r, "Tarefa atualizada")
}

func (h *DashboardHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	taskID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	err := h.taskService.Complete(r.Context(), user.ID, taskID)
	if err != nil {
		logFailure(r, "failed to complete task", err, "user_id", user.ID, "task_id", taskID)
		toastError(w, r, "Erro ao concluir tarefa", userMessage(err))
		return
	}

	changed(w, r, "Tarefa concluída")
}

func (h *DashboardHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	taskID, ok := pathID(r)
	if !ok {
		notFound(w, r)
		return
	}

	err := h.taskService.Delete(r.Context(), user.ID, taskID)
	if err != nil {
		logFailure(r, "failed to delete task", err, "user_id", user.ID, "task_id", taskID)
		toastError(w, r, "Erro ao excluir tarefa", userMessage(err))
		return
	}

	changed(w, r, "Tarefa excluída")
}
