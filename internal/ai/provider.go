// Package ai integrates external question-generation providers.
package ai

import (
	"context"

	"github.com/geoquest/routequest/internal/routequest"
)

// GenerateRequest describes one generation batch.
type GenerateRequest struct {
	Count      int      `json:"count"`
	Categories []string `json:"categories,omitempty"`
	Difficulty string   `json:"difficulty,omitempty"`
	Language   string   `json:"language,omitempty"` // "sv" (default) or "en"
}

// Provider generates quiz questions. Implementations call out to an AI
// service; every method is an asynchronous boundary and must honor ctx.
type Provider interface {
	Name() string
	Model() string
	// Available reports whether the provider is configured well enough to
	// accept requests. It must be cheap — no generation calls.
	Available(ctx context.Context) error
	GenerateQuestions(ctx context.Context, req GenerateRequest) ([]routequest.Question, error)
}

// ProviderStatus is the serialized health of one provider.
type ProviderStatus struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Status    string `json:"status"`
	Model     string `json:"model,omitempty"`
	Error     string `json:"error,omitempty"`
}

// StatusSummary aggregates provider statuses for the admin dashboard.
type StatusSummary struct {
	Providers []ProviderStatus `json:"providers"`
	Total     int              `json:"total"`
	Active    int              `json:"active"`
	Inactive  int              `json:"inactive"`
}

// CheckProviders probes each provider and aggregates the result.
func CheckProviders(ctx context.Context, providers []Provider) StatusSummary {
	sum := StatusSummary{Total: len(providers)}
	for _, p := range providers {
		st := ProviderStatus{Name: p.Name(), Model: p.Model()}
		if err := p.Available(ctx); err != nil {
			st.Status = "error"
			st.Error = err.Error()
			sum.Inactive++
		} else {
			st.Available = true
			st.Status = "active"
			sum.Active++
		}
		sum.Providers = append(sum.Providers, st)
	}
	return sum
}
