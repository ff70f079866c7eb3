package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"unifm/core/library"
	"unifm/logger"
)

// SyncAllHandler runs a full bulk sync: playlist set, every playlist's
// tracks, one catalog projection. Returns the batch summary.
func (h *APIHandler) SyncAllHandler(w http.ResponseWriter, r *http.Request) {
	summary, err := h.syncer.SyncAll(r.Context())
	if err != nil {
		if errors.Is(err, library.ErrNotAuthenticated) {
			respondError(w, http.StatusUnauthorized, "provider session not authenticated")
			return
		}
		logger.Error("Bulk sync failed", logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "sync failed")
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

// SyncPlaylistsHandler refreshes only the mirrored playlist set.
func (h *APIHandler) SyncPlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.syncer.SyncPlaylists(r.Context()); err != nil {
		if errors.Is(err, library.ErrNotAuthenticated) {
			respondError(w, http.StatusUnauthorized, "provider session not authenticated")
			return
		}
		logger.Error("Playlist set sync failed", logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "sync failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SyncPlaylistTracksHandler refreshes one playlist's tracks. With
// ?project=true the unified catalog is rebuilt afterwards.
func (h *APIHandler) SyncPlaylistTracksHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}
	project := r.URL.Query().Get("project") == "true"

	songs, err := h.syncer.SyncPlaylistTracks(r.Context(), id, project)
	if err != nil {
		if errors.Is(err, library.ErrNotAuthenticated) {
			respondError(w, http.StatusUnauthorized, "provider session not authenticated")
			return
		}
		logger.Error("Playlist track sync failed", logger.Int64("playlistId", id), logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "sync failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"playlistId": id, "songs": songs})
}

// DeleteRemotePlaylistHandler removes one mirrored playlist locally and
// reprojects the catalog. The provider copy is untouched.
func (h *APIHandler) DeleteRemotePlaylistHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	if err := h.syncer.DeletePlaylist(r.Context(), id); err != nil {
		logger.Error("Playlist delete failed", logger.Int64("playlistId", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to delete playlist")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// SessionStatusHandler reports the provider session state.
func (h *APIHandler) SessionStatusHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]bool{"loggedIn": h.session.LoggedIn()})
}

// SessionLoginHandler stores provider cookies obtained through an external
// login flow (QR code, app capture). The cookie map is persisted so the
// session survives restarts.
func (h *APIHandler) SessionLoginHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Cookies map[string]string `json:"cookies"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.Cookies) == 0 {
		respondError(w, http.StatusBadRequest, "cookie map required")
		return
	}

	if err := h.session.SetCookies(r.Context(), req.Cookies); err != nil {
		logger.Error("Failed to store provider session", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to store session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"loggedIn": h.session.LoggedIn()})
}

// SessionLogoutHandler drops the provider session.
func (h *APIHandler) SessionLogoutHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Logout(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "failed to clear session")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"loggedIn": false})
}
