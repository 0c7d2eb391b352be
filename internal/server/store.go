package server

import (
	"context"
	"errors"

	"github.com/geoquest/routequest/internal/routequest"
)

var (
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when cancelling a task that is
	// already in a terminal state. Task status is monotonic.
	ErrInvalidTransition = errors.New("invalid transition")
)

// GameDoc is the raw game row used by the /api/json composition.
type GameDoc struct {
	ID         string  `json:"id"`
	CourseID   string  `json:"courseId"`
	TeamID     string  `json:"teamId"`
	Status     string  `json:"status"`
	StartedAt  *string `json:"startedAt"`
	FinishedAt *string `json:"finishedAt"`
	CreatedAt  string  `json:"createdAt"`
}

// Store is the data access surface of the HTTP handlers. All shared state
// lives behind it; handlers keep no in-process state between requests.
type Store interface {
	// Background tasks.
	CreateTask(ctx context.Context, taskType, description string) (routequest.Task, error)
	GetTask(ctx context.Context, id string) (routequest.Task, error)
	ListTasks(ctx context.Context, limit int) ([]routequest.Task, error)
	CancelTask(ctx context.Context, id string) error
	DeleteTask(ctx context.Context, id string) error
	DeleteTasks(ctx context.Context, ids []string) (int, error)

	// Question bank.
	ListQuestions(ctx context.Context) ([]routequest.Question, error)
	InsertQuestion(ctx context.Context, q routequest.Question) error
	DeleteQuestions(ctx context.Context, ids []string) (int, error)

	// Game data. Reads are sequential and independent; a concurrent edit
	// mid-join can produce a mixed-version view (accepted best effort).
	GetGame(ctx context.Context, id string) (GameDoc, error)
	GetTeam(ctx context.Context, id string) (routequest.Team, error)
	GetCourse(ctx context.Context, id string) (routequest.Course, error)
	GetRiddle(ctx context.Context, obstacleID string) (routequest.Riddle, error)

	// Run state machine.
	GetRun(ctx context.Context, gameID string) (routequest.Run, error)
	StartRun(ctx context.Context, gameID string) error
	SolveObstacle(ctx context.Context, gameID, obstacleID string) error
	AddFinisher(ctx context.Context, gameID, playerID string) error
	FinishRun(ctx context.Context, gameID string) error
}
