// Package routequest defines the core domain types and rules.
// It has zero external dependencies — everything here is pure Go.
package routequest

import (
	"encoding/json"
	"time"

	"github.com/geoquest/routequest/internal/geo"
)

// DefaultRadiusM is the proximity radius used when neither the course nor
// the obstacle specifies one. Tunable; the field value is not derived.
const DefaultRadiusM = 25

type Obstacle struct {
	ID       string
	Position geo.Point
	RadiusM  float64 // 0 means inherit the course radius
}

type Course struct {
	ID        string
	Name      string
	Start     geo.Point
	Finish    geo.Point
	RadiusM   float64 // 0 means DefaultRadiusM
	Obstacles []Obstacle
	CreatedAt time.Time
}

func (c Course) radius(o Obstacle) float64 {
	if o.RadiusM > 0 {
		return o.RadiusM
	}
	if c.RadiusM > 0 {
		return c.RadiusM
	}
	return DefaultRadiusM
}

// Riddle is an obstacle's multiple-choice question, stored as a separate
// detail document keyed by obstacle ID.
type Riddle struct {
	ID            string   `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	RadiusM       float64  `json:"radiusM,omitempty"`
}

type GameStatus string

const (
	GameStatusPending  GameStatus = "pending"
	GameStatusActive   GameStatus = "active"
	GameStatusFinished GameStatus = "finished"
)

// Run is one team's attempt at a course. SolvedBy and PlayersAtFinish are
// append-only sets; the run is immutable once finished.
type Run struct {
	ID              string
	CourseID        string
	TeamID          string
	Status          GameStatus
	SolvedBy        map[string]bool
	PlayersAtFinish map[string]bool
	StartedAt       *time.Time
	FinishedAt      *time.Time
}

func (r Run) Solved(obstacleID string) bool {
	return r.SolvedBy[obstacleID]
}

type Team struct {
	ID        string
	Name      string
	LeaderID  string
	MemberIDs []string
	JoinToken string
	CreatedAt time.Time
}

type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// Terminal reports whether s admits no further transitions.
func (s TaskStatus) Terminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// Task is an asynchronous server-side job tracked by a persisted row.
// Status is monotonic: once terminal it never changes, and only the
// terminal write sets FinishedAt.
type Task struct {
	ID          string          `json:"id"`
	TaskType    string          `json:"taskType"`
	Status      TaskStatus      `json:"status"`
	Progress    int             `json:"progress"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   string          `json:"createdAt"`
	UpdatedAt   string          `json:"updatedAt"`
	FinishedAt  *string         `json:"finishedAt,omitempty"`
}

// Question is a bilingual quiz-bank entry. At least the Swedish text is
// always present; CorrectOption indexes into that language's options.
type Question struct {
	ID              string               `json:"id"`
	Languages       map[string]Localized `json:"languages"`
	CorrectOption   int                  `json:"correctOptionIndex"`
	Categories      []string             `json:"categories"`
	Difficulty      string               `json:"difficulty"`
	IllustrationSVG string               `json:"illustrationSvg,omitempty"`
	AIGenerated     bool                 `json:"aiGenerated"`
	Validated       bool                 `json:"validated"`
	CreatedAt       string               `json:"createdAt,omitempty"`
	UpdatedAt       string               `json:"updatedAt,omitempty"`
}

type Localized struct {
	Text        string   `json:"text"`
	Options     []string `json:"options"`
	Explanation string   `json:"explanation,omitempty"`
}
