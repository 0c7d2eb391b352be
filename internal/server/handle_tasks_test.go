package server

import (
	"net/http"
	"strings"
	"testing"

	"github.com/geoquest/routequest/internal/routequest"
)

func createTask(t *testing.T, env *testEnv, taskType, description string) routequest.Task {
	t.Helper()
	var resp CreateTaskResponse
	rec := env.do(t, http.MethodPost, "/api/createTask",
		CreateTaskRequest{TaskType: taskType, Description: description}, &resp)
	wantStatus(t, rec, http.StatusOK)
	if !resp.Success || resp.TaskID == "" {
		t.Fatalf("create task response: %+v", resp)
	}
	return resp.Task
}

func TestCreateAndListTasks(t *testing.T) {
	env := newTestEnv(t)

	task := createTask(t, env, "", "generate a batch")
	if task.TaskType != "question_generation" {
		t.Errorf("taskType = %q, want default question_generation", task.TaskType)
	}
	if task.Status != routequest.TaskPending {
		t.Errorf("status = %q, want pending", task.Status)
	}
	if task.Progress != 0 {
		t.Errorf("progress = %d, want 0", task.Progress)
	}

	var list TaskListResponse
	rec := env.do(t, http.MethodGet, "/api/getBackgroundTasks", nil, &list)
	wantStatus(t, rec, http.StatusOK)
	if list.Count != 1 || len(list.Tasks) != 1 {
		t.Fatalf("list = %+v, want 1 task", list)
	}
	if list.Tasks[0].ID != task.ID {
		t.Errorf("listed id = %q, want %q", list.Tasks[0].ID, task.ID)
	}
}

func TestListTasksEmpty(t *testing.T) {
	env := newTestEnv(t)

	var list TaskListResponse
	rec := env.do(t, http.MethodGet, "/api/getBackgroundTasks", nil, &list)
	wantStatus(t, rec, http.StatusOK)
	if !list.Success || list.Count != 0 || list.Tasks == nil {
		t.Errorf("empty list = %+v, want success with empty tasks array", list)
	}
}

func TestListTasksInvalidLimit(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/getBackgroundTasks?limit=zero", nil, nil)
	wantStatus(t, rec, http.StatusBadRequest)
}

func TestStopTask(t *testing.T) {
	env := newTestEnv(t)
	task := createTask(t, env, "question_generation", "")

	var resp StopTaskResponse
	rec := env.do(t, http.MethodPost, "/api/stopTask", StopTaskRequest{TaskID: task.ID}, &resp)
	wantStatus(t, rec, http.StatusOK)
	if !resp.Success || resp.TaskID != task.ID {
		t.Fatalf("stop response: %+v", resp)
	}

	got, err := env.store.GetTask(t.Context(), task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != routequest.TaskCancelled {
		t.Errorf("status = %q, want cancelled", got.Status)
	}
	if got.FinishedAt == nil {
		t.Error("finishedAt not set")
	}
}

func TestStopTaskAlreadyTerminal(t *testing.T) {
	env := newTestEnv(t)
	task := createTask(t, env, "question_generation", "")
	env.exec(t, "UPDATE background_tasks SET status = 'completed' WHERE id = ?", task.ID)

	var resp errorBody
	rec := env.do(t, http.MethodPost, "/api/stopTask", StopTaskRequest{TaskID: task.ID}, &resp)
	wantStatus(t, rec, http.StatusBadRequest)
	if resp.Success {
		t.Error("success = true on error response")
	}
	if resp.Error != "Cannot stop task with status: completed" {
		t.Errorf("error = %q", resp.Error)
	}

	// The terminal state is untouched.
	got, err := env.store.GetTask(t.Context(), task.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != routequest.TaskCompleted {
		t.Errorf("status = %q, want completed", got.Status)
	}
}

func TestStopTaskNotFound(t *testing.T) {
	env := newTestEnv(t)

	var resp errorBody
	rec := env.do(t, http.MethodPost, "/api/stopTask", StopTaskRequest{TaskID: "nope"}, &resp)
	wantStatus(t, rec, http.StatusNotFound)
	if resp.Error != "Task not found" {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestBulkStopTasksPartialSuccess(t *testing.T) {
	env := newTestEnv(t)
	a := createTask(t, env, "question_generation", "")
	b := createTask(t, env, "question_generation", "")
	c := createTask(t, env, "question_generation", "")
	env.exec(t, "UPDATE background_tasks SET status = 'failed' WHERE id = ?", c.ID)

	var resp BulkStopResponse
	rec := env.do(t, http.MethodPost, "/api/bulkStopTasks",
		BulkStopRequest{TaskIDs: []string{a.ID, b.ID, c.ID, "missing"}}, &resp)
	wantStatus(t, rec, http.StatusOK)

	if !resp.Success {
		t.Error("success = false; bulk partial failure must not fail the request")
	}
	if resp.Stopped != 2 || resp.Total != 4 {
		t.Errorf("stopped/total = %d/%d, want 2/4", resp.Stopped, resp.Total)
	}
	if len(resp.Errors) != 2 {
		t.Fatalf("errors = %v, want 2", resp.Errors)
	}
	if !strings.Contains(resp.Errors[0], "Cannot stop task with status: failed") {
		t.Errorf("errors[0] = %q", resp.Errors[0])
	}
	if resp.Errors[1] != "Task missing not found" {
		t.Errorf("errors[1] = %q", resp.Errors[1])
	}
}

func TestDeleteTask(t *testing.T) {
	env := newTestEnv(t)
	task := createTask(t, env, "question_generation", "")
	// Delete ignores state; even a running task row goes away.
	env.exec(t, "UPDATE background_tasks SET status = 'running' WHERE id = ?", task.ID)

	var resp DeleteTaskResponse
	rec := env.do(t, http.MethodPost, "/api/deleteTask", DeleteTaskRequest{TaskID: task.ID}, &resp)
	wantStatus(t, rec, http.StatusOK)
	if !resp.Success {
		t.Fatalf("delete response: %+v", resp)
	}

	if _, err := env.store.GetTask(t.Context(), task.ID); err != ErrNotFound {
		t.Errorf("GetTask after delete = %v, want ErrNotFound", err)
	}
}

func TestDeleteTaskNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodPost, "/api/deleteTask", DeleteTaskRequest{TaskID: "nope"}, nil)
	wantStatus(t, rec, http.StatusNotFound)
}

func TestBulkDeleteTasks(t *testing.T) {
	env := newTestEnv(t)
	a := createTask(t, env, "question_generation", "")
	b := createTask(t, env, "question_generation", "")

	var resp BulkDeleteResponse
	rec := env.do(t, http.MethodPost, "/api/bulkDeleteTasks",
		BulkDeleteRequest{TaskIDs: []string{a.ID, b.ID, "missing"}}, &resp)
	wantStatus(t, rec, http.StatusOK)

	if !resp.Success || resp.Deleted != 2 || resp.Total != 3 {
		t.Errorf("bulk delete = %+v, want deleted 2 of 3", resp)
	}

	var list TaskListResponse
	env.do(t, http.MethodGet, "/api/getBackgroundTasks", nil, &list)
	if list.Count != 0 {
		t.Errorf("count after bulk delete = %d, want 0", list.Count)
	}
}

func TestTaskRequestValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/stopTask", StopTaskRequest{}, nil)
	wantStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodPost, "/api/bulkStopTasks", BulkStopRequest{}, nil)
	wantStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodPost, "/api/deleteTask", DeleteTaskRequest{}, nil)
	wantStatus(t, rec, http.StatusBadRequest)

	rec = env.do(t, http.MethodPost, "/api/bulkDeleteTasks", BulkDeleteRequest{}, nil)
	wantStatus(t, rec, http.StatusBadRequest)
}
