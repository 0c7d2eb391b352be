package server

import (
	"net/http"
	"strings"
)

type SuperuserResponse struct {
	IsSuperuser bool `json:"isSuperuser"`
}

// handleIsSuperuser compares the x-user-email header against the
// configured superuser email, case-insensitively.
func handleIsSuperuser(superuserEmail string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userEmail := r.Header.Get("x-user-email")

		is := userEmail != "" && superuserEmail != "" &&
			strings.EqualFold(userEmail, superuserEmail)

		writeJSON(w, http.StatusOK, SuperuserResponse{IsSuperuser: is})
	}
}
