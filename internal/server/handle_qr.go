package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/skip2/go-qrcode"
)

// handleTeamQR renders a PNG QR code pointing at the team's join URL,
// for printing or showing on the organizer's screen.
func handleTeamQR(store Store, baseURL string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		teamID := chi.URLParam(r, "teamID")

		team, err := store.GetTeam(r.Context(), teamID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Team not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		size := 256
		if raw := r.URL.Query().Get("size"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n < 64 || n > 1024 {
				writeError(w, http.StatusBadRequest, "size must be between 64 and 1024")
				return
			}
			size = n
		}

		joinURL := fmt.Sprintf("%s/join/%s", baseURL, team.JoinToken)
		png, err := qrcode.Encode(joinURL, qrcode.Medium, size)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "generating qr code failed")
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-cache")
		w.Write(png)
	}
}
