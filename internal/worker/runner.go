// Package worker runs background tasks against the shared task table.
//
// The runner polls for pending rows on a fixed interval, claims the
// oldest one, and executes it through a registered handler. Cancellation
// is cooperative: an admin writes status=cancelled to the row and the
// executor observes it at its next progress checkpoint.
package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// ErrCancelled is returned by progress reporting when the task row has
// been cancelled underneath the executor.
var ErrCancelled = errors.New("task cancelled")

// Progress reports completion (0..100) and checks for cancellation.
// Handlers should call it at every natural checkpoint.
type Progress func(pct int) error

// Handler executes one task type. It returns the result payload to store
// on completion.
type Handler func(ctx context.Context, description string, progress Progress) (json.RawMessage, error)

type Runner struct {
	db       *sql.DB
	logger   *slog.Logger
	interval time.Duration
	handlers map[string]Handler
}

func NewRunner(db *sql.DB, logger *slog.Logger, interval time.Duration) *Runner {
	return &Runner{
		db:       db,
		logger:   logger,
		interval: interval,
		handlers: make(map[string]Handler),
	}
}

// Register binds a handler to a task type. Not safe to call after Run.
func (r *Runner) Register(taskType string, h Handler) {
	r.handlers[taskType] = h
}

// Run polls until ctx is cancelled. One task executes at a time; there is
// no retry — a failed task stays failed.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.logger.Info("task runner started", "poll_interval", r.interval)

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("task runner stopping")
			return nil
		case <-ticker.C:
			if err := r.runNext(ctx); err != nil {
				r.logger.Error("task poll failed", "error", err)
			}
		}
	}
}

const nowExpr = `strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

// claimNext atomically flips the oldest pending row to running. The
// status guard in the WHERE clause keeps two runners (or a runner racing
// an admin cancel) from both claiming the same row.
func (r *Runner) claimNext(ctx context.Context) (id, taskType, description string, ok bool, err error) {
	row := r.db.QueryRowContext(ctx, `
		UPDATE background_tasks
		SET status = 'running', updated_at = `+nowExpr+`
		WHERE id = (
			SELECT id FROM background_tasks
			WHERE status = 'pending'
			ORDER BY created_at
			LIMIT 1
		) AND status = 'pending'
		RETURNING id, task_type, description
	`)
	err = row.Scan(&id, &taskType, &description)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", "", false, nil
	}
	if err != nil {
		return "", "", "", false, err
	}
	return id, taskType, description, true, nil
}

func (r *Runner) runNext(ctx context.Context) error {
	id, taskType, description, ok, err := r.claimNext(ctx)
	if err != nil || !ok {
		return err
	}

	logger := r.logger.With("task_id", id, "task_type", taskType)
	logger.Info("task started")

	handler, ok := r.handlers[taskType]
	if !ok {
		logger.Error("no handler for task type")
		return r.fail(ctx, id, fmt.Sprintf("unknown task type: %s", taskType))
	}

	progress := func(pct int) error {
		return r.reportProgress(ctx, id, pct)
	}

	result, err := handler(ctx, description, progress)
	switch {
	case errors.Is(err, ErrCancelled):
		// The cancelled terminal state is already on the row.
		logger.Info("task cancelled")
		return nil
	case err != nil:
		logger.Error("task failed", "error", err)
		return r.fail(ctx, id, err.Error())
	}

	logger.Info("task completed")
	return r.complete(ctx, id, result)
}

// reportProgress writes pct and returns ErrCancelled if the row has left
// the running state (cooperative cancellation checkpoint).
func (r *Runner) reportProgress(ctx context.Context, id string, pct int) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE background_tasks
		SET progress = ?, updated_at = `+nowExpr+`
		WHERE id = ? AND status = 'running'
	`, pct, id)
	if err != nil {
		// A transient write failure is not a cancellation; the executor
		// keeps going and the next checkpoint retries.
		r.logger.Warn("progress update failed", "task_id", id, "error", err)
		return nil
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrCancelled
	}
	return nil
}

// complete writes the completed terminal state. The status guard keeps a
// concurrent cancel from being overwritten.
func (r *Runner) complete(ctx context.Context, id string, result json.RawMessage) error {
	var resultArg any
	if len(result) > 0 {
		resultArg = string(result)
	}
	_, err := r.db.ExecContext(ctx, `
		UPDATE background_tasks
		SET status = 'completed', progress = 100, result = ?,
		    finished_at = `+nowExpr+`, updated_at = `+nowExpr+`
		WHERE id = ? AND status = 'running'
	`, resultArg, id)
	return err
}

func (r *Runner) fail(ctx context.Context, id, msg string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE background_tasks
		SET status = 'failed', error = ?,
		    finished_at = `+nowExpr+`, updated_at = `+nowExpr+`
		WHERE id = ? AND status = 'running'
	`, msg, id)
	return err
}
