package server

import (
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/taskforge/taskforge/internal/service"
	"github.com/taskforge/taskforge/internal/telemetry"
)

// TaskHandler serves task CRUD endpoints.
type TaskHandler struct {
	tasks    *service.TaskService
	validate *validator.Validate
}

func NewTaskHandler(tasks *service.TaskService, validate *validator.Validate) *TaskHandler {
	return &TaskHandler{tasks: tasks, validate: validate}
}

func taskIDFromPath(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req taskRequest
	if details := decodeAndValidate(h.validate, r, &req); details != nil {
		writeError(w, r, http.StatusBadRequest, "invalid task request", details...)
		return
	}

	task, err := h.tasks.Create(r.Context(), req.Title, req.Description)
	if err != nil {
		renderError(w, r, err)
		return
	}

	telemetry.GetMetrics().TasksCreatedTotal.Add(r.Context(), 1)
	writeJSON(w, http.StatusCreated, newTaskResponse(task))
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	page := pageFromQuery(r)

	tasks, total, err := h.tasks.List(r.Context(), page)
	if err != nil {
		renderError(w, r, err)
		return
	}

	content := make([]taskResponse, 0, len(tasks))
	for _, task := range tasks {
		content = append(content, newTaskResponse(task))
	}

	writeJSON(w, http.StatusOK, newPagedResponse(content, page, total))
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDFromPath(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.tasks.Get(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDFromPath(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	var req taskRequest
	if details := decodeAndValidate(h.validate, r, &req); details != nil {
		writeError(w, r, http.StatusBadRequest, "invalid task request", details...)
		return
	}

	task, err := h.tasks.Update(r.Context(), id, service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
	})
	if err != nil {
		renderError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

func (h *TaskHandler) Conclude(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDFromPath(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	task, err := h.tasks.Conclude(r.Context(), id)
	if err != nil {
		renderError(w, r, err)
		return
	}

	telemetry.GetMetrics().TasksConcludedTotal.Add(r.Context(), 1)
	writeJSON(w, http.StatusOK, newTaskResponse(task))
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := taskIDFromPath(r)
	if !ok {
		writeError(w, r, http.StatusBadRequest, "invalid task id")
		return
	}

	if err := h.tasks.Delete(r.Context(), id); err != nil {
		renderError(w, r, err)
		return
	}

	telemetry.GetMetrics().TasksDeletedTotal.Add(r.Context(), 1)
	w.WriteHeader(http.StatusNoContent)
}
