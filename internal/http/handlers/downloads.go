package handlers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Singh-Codes/youtube-downloader/internal/domain"
)

type downloadRequest struct {
	URL      string `json:"url"`
	FormatID string `json:"format_id"`
}

// DownloadsCreate accepts a download submission and answers with the new
// download id without waiting for the fetch to finish.
func (a *App) DownloadsCreate(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	var req downloadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.FormatID) == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "url and format_id are required")
		return
	}

	id, err := a.Downloads.Submit(r.Context(), userID, req.URL, req.FormatID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	a.json(w, http.StatusAccepted, map[string]string{
		"download_id": id,
		"status":      string(domain.DownloadStatusPending),
	})
}

// DownloadProgress reports the live snapshot for a download, falling back to
// the stored terminal status once no snapshot exists.
func (a *App) DownloadProgress(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "download id required")
		return
	}

	view, err := a.Downloads.Status(r.Context(), userID, id)
	if err != nil {
		a.domainError(w, err)
		return
	}
	if view.Live != nil {
		a.json(w, http.StatusOK, view.Live)
		return
	}
	body := map[string]any{"status": view.Stored.Status}
	if view.Stored.Status == domain.DownloadStatusFailed {
		body["error"] = view.Stored.ErrorMessage
	}
	if view.Stored.Status == domain.DownloadStatusCompleted {
		body["filename"] = filepath.Base(view.Stored.FilePath)
	}
	a.json(w, http.StatusOK, body)
}

// DownloadsList returns the caller's download history, newest first.
func (a *App) DownloadsList(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	list, err := a.Downloads.List(r.Context(), userID)
	if err != nil {
		a.domainError(w, err)
		return
	}
	items := make([]map[string]any, 0, len(list))
	for _, d := range list {
		item := map[string]any{
			"id":           d.ID,
			"url":          d.URL,
			"title":        d.Title,
			"format_id":    d.FormatID,
			"status":       d.Status,
			"requested_at": d.RequestedAt,
		}
		if d.ErrorMessage != "" {
			item["error"] = d.ErrorMessage
		}
		items = append(items, item)
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// DownloadFile serves the completed file as an attachment, owner-checked.
func (a *App) DownloadFile(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing user context")
		return
	}
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "download id required")
		return
	}

	d, err := a.Downloads.Get(r.Context(), userID, id)
	if err != nil {
		a.domainError(w, err)
		return
	}
	if d.Status != domain.DownloadStatusCompleted || d.FilePath == "" {
		a.error(w, http.StatusConflict, "not_ready", "download is not completed")
		return
	}
	if _, err := os.Stat(d.FilePath); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "file no longer exists")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="`+filepath.Base(d.FilePath)+`"`)
	http.ServeFile(w, r, d.FilePath)
}
