package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/geoquest/routequest/internal/routequest"
)

type CreateTaskRequest struct {
	TaskType    string `json:"taskType"`
	Description string `json:"description"`
}

type CreateTaskResponse struct {
	Success bool            `json:"success"`
	TaskID  string          `json:"taskId"`
	Task    routequest.Task `json:"task"`
}

// handleCreateTask inserts a new pending task row. The worker (or an
// external executor) is responsible for advancing it.
func handleCreateTask(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateTaskRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Description = strings.TrimSpace(req.Description)
		if req.TaskType == "" {
			req.TaskType = "question_generation"
		}

		task, err := store.CreateTask(r.Context(), req.TaskType, req.Description)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, CreateTaskResponse{
			Success: true,
			TaskID:  task.ID,
			Task:    task,
		})
	}
}

type TaskListResponse struct {
	Success bool              `json:"success"`
	Tasks   []routequest.Task `json:"tasks"`
	Count   int               `json:"count"`
}

func handleListTasks(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 100
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 1 {
				writeError(w, http.StatusBadRequest, "invalid limit")
				return
			}
			limit = n
		}

		tasks, err := store.ListTasks(r.Context(), limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if tasks == nil {
			tasks = []routequest.Task{}
		}

		writeJSON(w, http.StatusOK, TaskListResponse{
			Success: true,
			Tasks:   tasks,
			Count:   len(tasks),
		})
	}
}

type StopTaskRequest struct {
	TaskID string `json:"taskId"`
}

type StopTaskResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TaskID  string `json:"taskId"`
}

func handleStopTask(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req StopTaskRequest
		if err := readJSON(r, &req); err != nil || req.TaskID == "" {
			writeError(w, http.StatusBadRequest, "taskId is required")
			return
		}

		err := store.CancelTask(r.Context(), req.TaskID)
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "Task not found")
			return
		case errors.Is(err, ErrInvalidTransition):
			writeError(w, http.StatusBadRequest, transitionMessage(err))
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, StopTaskResponse{
			Success: true,
			Message: "Task cancelled successfully",
			TaskID:  req.TaskID,
		})
	}
}

// transitionMessage strips the sentinel prefix so clients see
// "Cannot stop task with status: completed".
func transitionMessage(err error) string {
	msg := strings.TrimPrefix(err.Error(), ErrInvalidTransition.Error()+": ")
	if msg == "" {
		return "invalid transition"
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

type BulkStopRequest struct {
	TaskIDs []string `json:"taskIds"`
}

type BulkStopResponse struct {
	Success bool     `json:"success"`
	Stopped int      `json:"stopped"`
	Total   int      `json:"total"`
	Errors  []string `json:"errors,omitempty"`
}

// handleBulkStopTasks cancels each task independently. One failure never
// aborts the batch; partial success is the normal outcome.
func handleBulkStopTasks(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BulkStopRequest
		if err := readJSON(r, &req); err != nil || len(req.TaskIDs) == 0 {
			writeError(w, http.StatusBadRequest, "taskIds array is required")
			return
		}

		resp := BulkStopResponse{Success: true, Total: len(req.TaskIDs)}
		for _, id := range req.TaskIDs {
			err := store.CancelTask(r.Context(), id)
			switch {
			case errors.Is(err, ErrNotFound):
				resp.Errors = append(resp.Errors, fmt.Sprintf("Task %s not found", id))
			case errors.Is(err, ErrInvalidTransition):
				resp.Errors = append(resp.Errors, fmt.Sprintf("Task %s: %s", id, transitionMessage(err)))
			case err != nil:
				resp.Errors = append(resp.Errors, fmt.Sprintf("Failed to stop task %s: %v", id, err))
			default:
				resp.Stopped++
			}
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type DeleteTaskRequest struct {
	TaskID string `json:"taskId"`
}

type DeleteTaskResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	TaskID  string `json:"taskId"`
}

// handleDeleteTask removes the row unconditionally — terminal or not.
func handleDeleteTask(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req DeleteTaskRequest
		if err := readJSON(r, &req); err != nil || req.TaskID == "" {
			writeError(w, http.StatusBadRequest, "taskId is required")
			return
		}

		err := store.DeleteTask(r.Context(), req.TaskID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Task not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, DeleteTaskResponse{
			Success: true,
			Message: "Task deleted successfully",
			TaskID:  req.TaskID,
		})
	}
}

type BulkDeleteRequest struct {
	TaskIDs []string `json:"taskIds"`
}

type BulkDeleteResponse struct {
	Success bool `json:"success"`
	Deleted int  `json:"deleted"`
	Total   int  `json:"total"`
}

// handleBulkDeleteTasks removes all named tasks in one batched statement.
// Deleted may be less than total when some ids did not exist.
func handleBulkDeleteTasks(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req BulkDeleteRequest
		if err := readJSON(r, &req); err != nil || len(req.TaskIDs) == 0 {
			writeError(w, http.StatusBadRequest, "taskIds array is required")
			return
		}

		deleted, err := store.DeleteTasks(r.Context(), req.TaskIDs)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, BulkDeleteResponse{
			Success: true,
			Deleted: deleted,
			Total:   len(req.TaskIDs),
		})
	}
}
