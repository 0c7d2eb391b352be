package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/geoquest/routequest/internal/routequest"
)

const (
	// subscribePollInterval is how often the stream re-reads task state.
	subscribePollInterval = 2 * time.Second
	// subscribeMaxAttempts bounds the stream to 5 minutes of wall clock.
	subscribeMaxAttempts = 150
)

// taskEvent is one SSE frame on the subscription stream.
type taskEvent struct {
	Type  string           `json:"type"` // update | complete | error | timeout
	Task  *routequest.Task `json:"task,omitempty"`
	Error string           `json:"error,omitempty"`
}

// handleSubscribeTask streams task state changes as Server-Sent Events.
//
// The stream polls the task row on a fixed interval and forwards a frame
// only when (status, progress) changed since the last forwarded frame.
// It closes on: task not found (error), terminal status (complete/error),
// or after maxAttempts polls (timeout). Since SSE headers are committed
// up front, failures are reported as error events, never HTTP statuses.
func handleSubscribeTask(store Store, interval time.Duration, maxAttempts int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		taskID := r.URL.Query().Get("taskId")
		if taskID == "" {
			writeError(w, http.StatusBadRequest, "taskId parameter required")
			return
		}

		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		send := func(ev taskEvent) {
			data, _ := json.Marshal(ev)
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}

		var lastStatus string

		// check re-reads the task and forwards at most one frame.
		// It returns true when the stream should close. Transient read
		// failures are swallowed; the next tick retries.
		check := func() bool {
			task, err := store.GetTask(r.Context(), taskID)
			if errors.Is(err, ErrNotFound) {
				send(taskEvent{Type: "error", Error: "Task not found"})
				return true
			}
			if err != nil {
				return false
			}

			// Terminal states close with their final frame only — a task
			// that is already done never gets a preceding update.
			switch task.Status {
			case routequest.TaskCompleted:
				send(taskEvent{Type: "complete", Task: &task})
				return true
			case routequest.TaskFailed, routequest.TaskCancelled:
				send(taskEvent{Type: "error", Task: &task, Error: task.Error})
				return true
			}

			current := fmt.Sprintf("%s-%d", task.Status, task.Progress)
			if current != lastStatus {
				lastStatus = current
				send(taskEvent{Type: "update", Task: &task})
			}
			return false
		}

		if check() {
			return
		}

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for attempts := 0; ; {
			select {
			case <-r.Context().Done():
				return
			case <-ticker.C:
				attempts++
				if attempts >= maxAttempts {
					send(taskEvent{Type: "timeout", Error: "Task monitoring timeout"})
					return
				}
				if check() {
					return
				}
			}
		}
	}
}
