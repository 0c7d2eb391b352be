package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "RouteQuest API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the RouteQuest outdoor quiz game.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/createTask
	postCreate, _ := r.NewOperationContext(http.MethodPost, "/api/createTask")
	postCreate.SetSummary("Submit background task")
	postCreate.SetDescription("Creates a pending background task; the job executor advances it.")
	postCreate.AddReqStructure(CreateTaskRequest{})
	postCreate.AddRespStructure(CreateTaskResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postCreate)

	// GET /api/getBackgroundTasks
	getTasks, _ := r.NewOperationContext(http.MethodGet, "/api/getBackgroundTasks")
	getTasks.SetSummary("List background tasks")
	getTasks.AddRespStructure(TaskListResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getTasks)

	// POST /api/stopTask
	postStop, _ := r.NewOperationContext(http.MethodPost, "/api/stopTask")
	postStop.SetSummary("Cancel background task")
	postStop.SetDescription("Writes the cancelled terminal state. Fails on terminal tasks.")
	postStop.AddReqStructure(StopTaskRequest{})
	postStop.AddRespStructure(StopTaskResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postStop.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postStop.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postStop)

	// POST /api/bulkStopTasks
	postBulkStop, _ := r.NewOperationContext(http.MethodPost, "/api/bulkStopTasks")
	postBulkStop.SetSummary("Cancel multiple background tasks")
	postBulkStop.SetDescription("Cancels per id; failures go into errors[], the batch never aborts.")
	postBulkStop.AddReqStructure(BulkStopRequest{})
	postBulkStop.AddRespStructure(BulkStopResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postBulkStop)

	// POST /api/deleteTask
	postDelete, _ := r.NewOperationContext(http.MethodPost, "/api/deleteTask")
	postDelete.SetSummary("Delete background task")
	postDelete.AddReqStructure(DeleteTaskRequest{})
	postDelete.AddRespStructure(DeleteTaskResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postDelete.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(postDelete)

	// POST /api/bulkDeleteTasks
	postBulkDelete, _ := r.NewOperationContext(http.MethodPost, "/api/bulkDeleteTasks")
	postBulkDelete.SetSummary("Delete multiple background tasks")
	postBulkDelete.AddReqStructure(BulkDeleteRequest{})
	postBulkDelete.AddRespStructure(BulkDeleteResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postBulkDelete)

	// GET /api/subscribeToTask
	getSubscribe, _ := r.NewOperationContext(http.MethodGet, "/api/subscribeToTask")
	getSubscribe.SetSummary("Subscribe to task updates")
	getSubscribe.SetDescription("SSE stream of task state changes; closes on terminal status or after 5 minutes.")
	getSubscribe.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getSubscribe)

	// GET /api/listQuestions
	getQuestions, _ := r.NewOperationContext(http.MethodGet, "/api/listQuestions")
	getQuestions.SetSummary("List quiz questions")
	getQuestions.AddRespStructure(QuestionListResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getQuestions)

	// POST /api/questions/batch
	postQuestions, _ := r.NewOperationContext(http.MethodPost, "/api/questions/batch")
	postQuestions.SetSummary("Bulk insert questions")
	postQuestions.AddReqStructure(QuestionBatchRequest{})
	postQuestions.AddRespStructure(QuestionBatchResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postQuestions)

	// DELETE /api/questions/batch-delete
	deleteQuestions, _ := r.NewOperationContext(http.MethodDelete, "/api/questions/batch-delete")
	deleteQuestions.SetSummary("Bulk delete questions")
	deleteQuestions.AddReqStructure(QuestionBatchDeleteRequest{})
	deleteQuestions.AddRespStructure(QuestionBatchDeleteResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(deleteQuestions)

	// GET /api/json/{gameID}
	getGameJSON, _ := r.NewOperationContext(http.MethodGet, "/api/json/{gameID}")
	getGameJSON.SetSummary("Full game document")
	getGameJSON.SetDescription("Joins game, team, course and obstacle details into one document.")
	getGameJSON.AddRespStructure(GameJSONResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getGameJSON.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getGameJSON)

	// POST /api/games/{gameID}/position
	postPosition, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/position")
	postPosition.SetSummary("Report player position")
	postPosition.SetDescription("Evaluates the position against the course and applies any run transition.")
	postPosition.AddReqStructure(PositionRequest{})
	postPosition.AddRespStructure(PositionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postPosition.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postPosition)

	// POST /api/games/{gameID}/answer
	postAnswer, _ := r.NewOperationContext(http.MethodPost, "/api/games/{gameID}/answer")
	postAnswer.SetSummary("Answer riddle")
	postAnswer.SetDescription("A correct answer adds the obstacle to the solved set; wrong answers mutate nothing.")
	postAnswer.AddReqStructure(AnswerRequest{})
	postAnswer.AddRespStructure(AnswerResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	postAnswer.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postAnswer)

	// GET /api/games/{gameID}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/games/{gameID}/events")
	getEvents.SetSummary("Game event stream")
	getEvents.SetDescription("Server-Sent Events stream of live game updates for the team.")
	getEvents.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getEvents)

	// GET /api/teams/{teamID}/qr
	getQR, _ := r.NewOperationContext(http.MethodGet, "/api/teams/{teamID}/qr")
	getQR.SetSummary("Team join QR code")
	getQR.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("image/png"))
	_ = r.AddOperation(getQR)

	// GET /api/isSuperuser
	getSuperuser, _ := r.NewOperationContext(http.MethodGet, "/api/isSuperuser")
	getSuperuser.SetSummary("Superuser check")
	getSuperuser.SetDescription("Compares the x-user-email header against the configured superuser email.")
	getSuperuser.AddRespStructure(SuperuserResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getSuperuser)

	// GET /api/getProviderStatus
	getProviders, _ := r.NewOperationContext(http.MethodGet, "/api/getProviderStatus")
	getProviders.SetSummary("AI provider status")
	getProviders.AddRespStructure(ProviderStatusResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(getProviders)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		json.NewEncoder(w).Encode(spec)
	}
}
