package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
)

type formatsRequest struct {
	URL string `json:"url"`
}

// FormatsQuery probes a URL and returns its title with the ranked,
// user-choosable quality list.
func (a *App) FormatsQuery(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req formatsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "no URL provided")
		return
	}

	title, opts, err := a.Downloads.Formats(r.Context(), req.URL)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"title":   title,
		"formats": opts,
	})
}
