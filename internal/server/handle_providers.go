package server

import (
	"net/http"

	"github.com/geoquest/routequest/internal/ai"
)

type ProviderStatusResponse struct {
	Success   bool                `json:"success"`
	Providers []ai.ProviderStatus `json:"providers"`
	Summary   struct {
		Total    int `json:"total"`
		Active   int `json:"active"`
		Inactive int `json:"inactive"`
	} `json:"summary"`
}

// handleProviderStatus serves the provider health summary through the
// injected status cache; a stale value is refreshed on demand.
func handleProviderStatus(cache *ai.StatusCache) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum := cache.Get(r.Context())

		resp := ProviderStatusResponse{Success: true, Providers: sum.Providers}
		if resp.Providers == nil {
			resp.Providers = []ai.ProviderStatus{}
		}
		resp.Summary.Total = sum.Total
		resp.Summary.Active = sum.Active
		resp.Summary.Inactive = sum.Inactive

		writeJSON(w, http.StatusOK, resp)
	}
}
