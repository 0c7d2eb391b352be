package server

import (
	"database/sql"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/geoquest/routequest/internal/ai"
)

// Deps carries everything the route table needs.
type Deps struct {
	Store          Store
	DB             *sql.DB
	Superuser      string
	BaseURL        string
	ProviderStatus *ai.StatusCache
}

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	broker := NewBroker()
	hub := newPositionHub()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("RouteQuest API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, deps.DB))
	r.Get("/ws/positions", handleWSPositions(logger, hub))

	r.Route("/api", func(r chi.Router) {
		r.Use(corsMiddleware)

		// Background tasks (admin surface).
		r.Post("/createTask", handleCreateTask(deps.Store))
		r.Get("/getBackgroundTasks", handleListTasks(deps.Store))
		r.Post("/stopTask", handleStopTask(deps.Store))
		r.Post("/bulkStopTasks", handleBulkStopTasks(deps.Store))
		r.Post("/deleteTask", handleDeleteTask(deps.Store))
		r.Post("/bulkDeleteTasks", handleBulkDeleteTasks(deps.Store))
		r.Get("/subscribeToTask", handleSubscribeTask(deps.Store, subscribePollInterval, subscribeMaxAttempts))

		// Question bank.
		r.Get("/listQuestions", handleListQuestions(deps.Store))
		r.Post("/questions/batch", handleQuestionsBatch(deps.Store))
		r.Delete("/questions/batch-delete", handleQuestionsBatchDelete(deps.Store))

		// Game data and progression.
		r.Get("/json/{gameID}", handleGameJSON(deps.Store))
		r.Post("/games/{gameID}/position", handlePosition(deps.Store, broker))
		r.Post("/games/{gameID}/answer", handleAnswer(deps.Store, broker))
		r.Get("/games/{gameID}/events", handleGameEvents(deps.Store, broker))
		r.Get("/teams/{teamID}/qr", handleTeamQR(deps.Store, deps.BaseURL))

		// Admin helpers.
		r.Get("/isSuperuser", handleIsSuperuser(deps.Superuser))
		r.Get("/getProviderStatus", handleProviderStatus(deps.ProviderStatus))
	})
}
