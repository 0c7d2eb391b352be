package worker

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/geoquest/routequest/internal/ai"
	"github.com/geoquest/routequest/internal/routequest"
)

// QuestionInserter stores generated questions. Satisfied by the server's
// SQLite store.
type QuestionInserter interface {
	InsertQuestion(ctx context.Context, q routequest.Question) error
}

// generationResult is the payload written to the task row on completion.
type generationResult struct {
	Generated int      `json:"generated"`
	IDs       []string `json:"ids"`
	Provider  string   `json:"provider"`
}

const generationBatchSize = 5

func newID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// NewQuestionGenerationHandler builds the handler for question_generation
// tasks. The task description carries a JSON GenerateRequest; a plain
// text description falls back to a default batch.
func NewQuestionGenerationHandler(provider ai.Provider, store QuestionInserter) Handler {
	return func(ctx context.Context, description string, progress Progress) (json.RawMessage, error) {
		req := ai.GenerateRequest{Count: generationBatchSize}
		if len(description) > 0 && description[0] == '{' {
			if err := json.Unmarshal([]byte(description), &req); err != nil {
				return nil, fmt.Errorf("parse generation request: %w", err)
			}
		}
		if req.Count <= 0 {
			req.Count = generationBatchSize
		}

		if err := progress(5); err != nil {
			return nil, err
		}

		questions, err := provider.GenerateQuestions(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("generate questions: %w", err)
		}

		if err := progress(60); err != nil {
			return nil, err
		}

		result := generationResult{Provider: provider.Name()}
		for i, q := range questions {
			if q.ID == "" {
				q.ID = newID()
			}
			if err := store.InsertQuestion(ctx, q); err != nil {
				return nil, fmt.Errorf("store question: %w", err)
			}
			result.Generated++
			result.IDs = append(result.IDs, q.ID)

			pct := 60 + (i+1)*40/len(questions)
			if err := progress(pct); err != nil {
				return nil, err
			}
		}

		payload, err := json.Marshal(result)
		if err != nil {
			return nil, err
		}
		return payload, nil
	}
}
