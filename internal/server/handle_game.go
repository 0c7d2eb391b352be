package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/geoquest/routequest/internal/geo"
	"github.com/geoquest/routequest/internal/routequest"
)

// ObstacleDetail pairs a course obstacle's position with its riddle
// document. Details is either a Riddle or {error: "..."} when the detail
// document is missing — never a failed request.
type ObstacleDetail struct {
	Position geo.Point `json:"position"`
	Details  any       `json:"details"`
}

type CourseDetails struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Start     geo.Point        `json:"start"`
	Finish    geo.Point        `json:"finish"`
	RadiusM   float64          `json:"radiusM"`
	Obstacles []ObstacleDetail `json:"obstacles"`
}

type TeamDetails struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	LeaderID  string   `json:"leaderId"`
	MemberIDs []string `json:"memberIds"`
}

type GameJSONResponse struct {
	GameDetails   GameDoc       `json:"gameDetails"`
	TeamDetails   TeamDetails   `json:"teamDetails"`
	CourseDetails CourseDetails `json:"courseDetails"`
}

// handleGameJSON composes the full game document by joining game → team →
// course → each obstacle's detail document. The reads are sequential and
// independent; a concurrent edit mid-join can yield a mixed-version view.
func handleGameJSON(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		game, err := store.GetGame(r.Context(), gameID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Game not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		team, err := store.GetTeam(r.Context(), game.TeamID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		course, err := store.GetCourse(r.Context(), game.CourseID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Course not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		obstacles := make([]ObstacleDetail, 0, len(course.Obstacles))
		for _, o := range course.Obstacles {
			detail := ObstacleDetail{Position: o.Position}
			riddle, err := store.GetRiddle(r.Context(), o.ID)
			if err != nil {
				detail.Details = map[string]string{"error": "Obstacle detail not found"}
			} else {
				detail.Details = riddle
			}
			obstacles = append(obstacles, detail)
		}

		writeJSON(w, http.StatusOK, GameJSONResponse{
			GameDetails: game,
			TeamDetails: TeamDetails{
				ID:        team.ID,
				Name:      team.Name,
				LeaderID:  team.LeaderID,
				MemberIDs: team.MemberIDs,
			},
			CourseDetails: CourseDetails{
				ID:        course.ID,
				Name:      course.Name,
				Start:     course.Start,
				Finish:    course.Finish,
				RadiusM:   course.RadiusM,
				Obstacles: obstacles,
			},
		})
	}
}

type PositionRequest struct {
	PlayerID string  `json:"playerId"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// RiddleView is a riddle as shown to players: no correct answer index.
type RiddleView struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type PositionResponse struct {
	Success bool        `json:"success"`
	Event   string      `json:"event,omitempty"`
	Riddle  *RiddleView `json:"riddle,omitempty"`
}

// handlePosition evaluates a live GPS reading against the course and
// applies the resulting run transition. No event outside all radii: the
// device location stream just posts again on the next update.
func handlePosition(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		var req PositionRequest
		if err := readJSON(r, &req); err != nil || req.PlayerID == "" {
			writeError(w, http.StatusBadRequest, "playerId, lat and lng are required")
			return
		}

		run, err := store.GetRun(r.Context(), gameID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Game not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if run.Status == routequest.GameStatusFinished {
			writeError(w, http.StatusConflict, "Game is already finished")
			return
		}

		course, err := store.GetCourse(r.Context(), run.CourseID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		pos := geo.Point{Lat: req.Lat, Lng: req.Lng}
		event, ok := routequest.EvaluatePosition(course, run, pos)
		if !ok {
			writeJSON(w, http.StatusOK, PositionResponse{Success: true})
			return
		}

		resp := PositionResponse{Success: true, Event: string(event.Type)}

		switch event.Type {
		case routequest.EventRunStarted:
			if err := store.StartRun(r.Context(), gameID); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			broker.Publish(gameID, GameEvent{Type: "run_started", PlayerID: req.PlayerID})

		case routequest.EventRiddleTriggered:
			riddle, err := store.GetRiddle(r.Context(), event.ObstacleID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			resp.Riddle = &RiddleView{
				ID:       riddle.ID,
				Question: riddle.Question,
				Options:  riddle.Options,
			}
			broker.Publish(gameID, GameEvent{Type: "riddle_triggered", ObstacleID: event.ObstacleID})

		case routequest.EventFinishReached:
			if err := store.AddFinisher(r.Context(), gameID, req.PlayerID); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if err := store.FinishRun(r.Context(), gameID); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			broker.Publish(gameID, GameEvent{Type: "finish_reached", PlayerID: req.PlayerID})
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type AnswerRequest struct {
	PlayerID    string `json:"playerId"`
	ObstacleID  string `json:"obstacleId"`
	AnswerIndex int    `json:"answerIndex"`
}

type AnswerResponse struct {
	Success    bool   `json:"success"`
	IsCorrect  bool   `json:"isCorrect"`
	ObstacleID string `json:"obstacleId"`
}

// handleAnswer checks a riddle answer. A correct answer adds the obstacle
// to the run's solved set (idempotent union); a wrong answer mutates
// nothing and the obstacle stays open for retry.
func handleAnswer(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		gameID := chi.URLParam(r, "gameID")

		var req AnswerRequest
		if err := readJSON(r, &req); err != nil || req.ObstacleID == "" {
			writeError(w, http.StatusBadRequest, "obstacleId and answerIndex are required")
			return
		}

		run, err := store.GetRun(r.Context(), gameID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Game not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if run.Status != routequest.GameStatusActive {
			writeError(w, http.StatusConflict, "Game is not active")
			return
		}

		riddle, err := store.GetRiddle(r.Context(), req.ObstacleID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Obstacle not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		isCorrect := req.AnswerIndex == riddle.CorrectOption
		if isCorrect {
			if err := store.SolveObstacle(r.Context(), gameID, req.ObstacleID); err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			broker.Publish(gameID, GameEvent{
				Type:       "obstacle_solved",
				ObstacleID: req.ObstacleID,
				PlayerID:   req.PlayerID,
				IsCorrect:  true,
			})
		} else {
			broker.Publish(gameID, GameEvent{
				Type:       "wrong_answer",
				ObstacleID: req.ObstacleID,
				PlayerID:   req.PlayerID,
			})
		}

		writeJSON(w, http.StatusOK, AnswerResponse{
			Success:    true,
			IsCorrect:  isCorrect,
			ObstacleID: req.ObstacleID,
		})
	}
}
