package server

import (
	"fmt"
	"net/http"

	"github.com/geoquest/routequest/internal/routequest"
)

type QuestionListResponse struct {
	Success   bool                  `json:"success"`
	Questions []routequest.Question `json:"questions"`
	Count     int                   `json:"count"`
}

func handleListQuestions(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questions, err := store.ListQuestions(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if questions == nil {
			questions = []routequest.Question{}
		}

		writeJSON(w, http.StatusOK, QuestionListResponse{
			Success:   true,
			Questions: questions,
			Count:     len(questions),
		})
	}
}

type QuestionBatchRequest struct {
	Questions []routequest.Question `json:"questions"`
}

type QuestionBatchResponse struct {
	Success  bool     `json:"success"`
	Inserted int      `json:"inserted"`
	Total    int      `json:"total"`
	IDs      []string `json:"ids"`
	Errors   []string `json:"errors,omitempty"`
}

// validateQuestion enforces the bank invariants: at least a Swedish entry,
// and a correct-option index that points into that entry's options.
func validateQuestion(q routequest.Question) error {
	sv, ok := q.Languages["sv"]
	if !ok || sv.Text == "" {
		return fmt.Errorf("swedish language entry is required")
	}
	if len(sv.Options) == 0 {
		return fmt.Errorf("options are required")
	}
	if q.CorrectOption < 0 || q.CorrectOption >= len(sv.Options) {
		return fmt.Errorf("correctOptionIndex %d out of range", q.CorrectOption)
	}
	if en, ok := q.Languages["en"]; ok && en.Text != "" {
		if q.CorrectOption >= len(en.Options) {
			return fmt.Errorf("correctOptionIndex %d out of range for en options", q.CorrectOption)
		}
	}
	return nil
}

// handleQuestionsBatch inserts each question independently: items without
// an id are assigned one, invalid items are collected into errors and the
// batch continues.
func handleQuestionsBatch(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuestionBatchRequest
		if err := readJSON(r, &req); err != nil || len(req.Questions) == 0 {
			writeError(w, http.StatusBadRequest, "questions array is required")
			return
		}

		resp := QuestionBatchResponse{Success: true, Total: len(req.Questions), IDs: []string{}}
		for i, q := range req.Questions {
			if err := validateQuestion(q); err != nil {
				resp.Errors = append(resp.Errors, fmt.Sprintf("question %d: %v", i, err))
				continue
			}
			if q.ID == "" {
				q.ID = newID()
			}
			if q.Difficulty == "" {
				q.Difficulty = "medium"
			}
			if err := store.InsertQuestion(r.Context(), q); err != nil {
				resp.Errors = append(resp.Errors, fmt.Sprintf("question %d: %v", i, err))
				continue
			}
			resp.Inserted++
			resp.IDs = append(resp.IDs, q.ID)
		}

		writeJSON(w, http.StatusOK, resp)
	}
}

type QuestionBatchDeleteRequest struct {
	IDs []string `json:"ids"`
}

type QuestionBatchDeleteResponse struct {
	Success bool `json:"success"`
	Count   int  `json:"count"`
}

func handleQuestionsBatchDelete(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req QuestionBatchDeleteRequest
		if err := readJSON(r, &req); err != nil || len(req.IDs) == 0 {
			writeError(w, http.StatusBadRequest, "ids array is required")
			return
		}

		count, err := store.DeleteQuestions(r.Context(), req.IDs)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, QuestionBatchDeleteResponse{
			Success: true,
			Count:   count,
		})
	}
}
