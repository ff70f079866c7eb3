package server

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"unifm/cache"
	"unifm/config"
	"unifm/core/library"
	"unifm/core/netease"
	"unifm/core/session"
	"unifm/core/stream"
	"unifm/logger"
	"unifm/model"
	"unifm/repository"
)

// APIHandler carries the wired application services for all HTTP handlers.
type APIHandler struct {
	catalog  repository.CatalogRepository
	mirror   *repository.MirrorRepository
	userRepo repository.UserRepository
	provider *netease.Client
	syncer   *library.Syncer
	proxy    *stream.Proxy
	session  *session.Store
	cfg      *config.Config
}

// NewAPIHandler creates the API handler set.
func NewAPIHandler(
	catalog repository.CatalogRepository,
	mirror *repository.MirrorRepository,
	userRepo repository.UserRepository,
	provider *netease.Client,
	syncer *library.Syncer,
	proxy *stream.Proxy,
	sess *session.Store,
	cfg *config.Config,
) *APIHandler {
	return &APIHandler{
		catalog:  catalog,
		mirror:   mirror,
		userRepo: userRepo,
		provider: provider,
		syncer:   syncer,
		proxy:    proxy,
		session:  sess,
		cfg:      cfg,
	}
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			logger.Error("Failed to encode response", logger.ErrorField(err))
		}
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// GetSongsHandler lists catalog songs, optionally filtered by ?source=.
func (h *APIHandler) GetSongsHandler(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")

	var (
		songs []*model.Song
		err   error
	)
	if source != "" {
		songs, err = h.catalog.GetSongsBySource(r.Context(), source)
	} else {
		songs, err = h.catalog.GetAllSongs(r.Context())
	}
	if err != nil {
		logger.Error("Failed to list songs", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to list songs")
		return
	}
	respondJSON(w, http.StatusOK, songs)
}

// GetSongHandler returns one catalog song.
func (h *APIHandler) GetSongHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	song, err := h.catalog.GetSongByID(r.Context(), id)
	if err != nil {
		logger.Error("Failed to load song", logger.Int64("id", id), logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to load song")
		return
	}
	if song == nil {
		respondError(w, http.StatusNotFound, "song not found")
		return
	}
	respondJSON(w, http.StatusOK, song)
}

// PlaybackURLHandler maps a catalog song to the URL the player should open:
// local files pass through, remote songs get their loopback proxy URL. 503
// while the proxy is not ready.
func (h *APIHandler) PlaybackURLHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	song, err := h.catalog.GetSongByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load song")
		return
	}
	if song == nil {
		respondError(w, http.StatusNotFound, "song not found")
		return
	}

	url := h.proxy.ResolvePlaybackURI(song.FilePath)
	if url == "" {
		respondError(w, http.StatusServiceUnavailable, "streaming proxy not ready")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// GetAlbumsHandler lists catalog albums, optionally filtered by ?source=.
func (h *APIHandler) GetAlbumsHandler(w http.ResponseWriter, r *http.Request) {
	source := r.URL.Query().Get("source")
	if source == "" {
		source = model.SourceNetease
	}
	albums, err := h.catalog.GetAlbumsBySource(r.Context(), source)
	if err != nil {
		logger.Error("Failed to list albums", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to list albums")
		return
	}
	respondJSON(w, http.StatusOK, albums)
}

// GetAlbumHandler returns one album with its songs.
func (h *APIHandler) GetAlbumHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid album id")
		return
	}

	album, err := h.catalog.GetAlbumByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load album")
		return
	}
	if album == nil {
		respondError(w, http.StatusNotFound, "album not found")
		return
	}

	songs, err := h.catalog.GetAlbumSongs(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load album songs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"album": album,
		"songs": songs,
	})
}

// GetArtistHandler returns one artist with every song crediting them.
func (h *APIHandler) GetArtistHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid artist id")
		return
	}

	artist, err := h.catalog.GetArtistByID(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load artist")
		return
	}
	if artist == nil {
		respondError(w, http.StatusNotFound, "artist not found")
		return
	}

	songs, err := h.catalog.GetArtistSongs(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load artist songs")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"artist": artist,
		"songs":  songs,
	})
}

// SearchHandler searches the unified catalog.
func (h *APIHandler) SearchHandler(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		respondError(w, http.StatusBadRequest, "missing query")
		return
	}
	limit := 50
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 200 {
		limit = v
	}

	songs, err := h.catalog.SearchSongs(r.Context(), keyword, limit)
	if err != nil {
		logger.Error("Catalog search failed", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "search failed")
		return
	}
	respondJSON(w, http.StatusOK, songs)
}

// NeteaseSearchHandler searches the provider directly, for tracks not yet in
// any mirrored playlist.
func (h *APIHandler) NeteaseSearchHandler(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("q")
	if keyword == "" {
		respondError(w, http.StatusBadRequest, "missing query")
		return
	}
	limit := 30
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v >= 0 {
		offset = v
	}

	result, err := h.provider.Search(r.Context(), keyword, limit, offset)
	if err != nil {
		logger.Error("Provider search failed", logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "provider search failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// LyricHandler returns lyrics for a provider song, cached in Redis.
func (h *APIHandler) LyricHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok || id <= 0 {
		respondError(w, http.StatusBadRequest, "invalid song id")
		return
	}

	if lyric, err := cache.GetLyric(r.Context(), id); err == nil && lyric != nil {
		respondJSON(w, http.StatusOK, lyric)
		return
	}

	lyric, err := h.provider.Lyric(r.Context(), id)
	if err != nil {
		logger.Error("Lyric fetch failed", logger.Int64("songId", id), logger.ErrorField(err))
		respondError(w, http.StatusBadGateway, "failed to fetch lyric")
		return
	}
	if err := cache.SetLyric(r.Context(), lyric); err != nil {
		logger.Warn("Lyric cache write failed", logger.ErrorField(err))
	}
	respondJSON(w, http.StatusOK, lyric)
}

// GetRemotePlaylistsHandler lists the mirrored provider playlists.
func (h *APIHandler) GetRemotePlaylistsHandler(w http.ResponseWriter, r *http.Request) {
	playlists, err := h.mirror.Playlists()
	if err != nil {
		logger.Error("Failed to list mirrored playlists", logger.ErrorField(err))
		respondError(w, http.StatusInternalServerError, "failed to list playlists")
		return
	}
	respondJSON(w, http.StatusOK, playlists)
}

// GetRemotePlaylistTracksHandler lists the mirrored tracks of one playlist.
func (h *APIHandler) GetRemotePlaylistTracksHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		respondError(w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	tracks, err := h.mirror.PlaylistTracks(id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list tracks")
		return
	}
	respondJSON(w, http.StatusOK, tracks)
}
