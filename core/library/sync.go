package library

import (
	"context"
	"fmt"
	"strings"
	"time"

	"unifm/logger"
	"unifm/model"

	"github.com/google/uuid"
)

// Syncer is the reconciliation engine for one provider account. Sync
// operations are blocking network+storage workflows and are not designed
// for concurrent self-invocation on the same account; callers serialize.
type Syncer struct {
	api     ProviderAPI
	mirror  MirrorStore
	catalog CatalogStore
	session Session
	uid     string

	events  Notifier
	artwork ArtworkMirror
}

// NewSyncer creates a reconciliation engine for the given provider account.
func NewSyncer(api ProviderAPI, mirror MirrorStore, catalog CatalogStore, session Session, uid string) *Syncer {
	return &Syncer{
		api:     api,
		mirror:  mirror,
		catalog: catalog,
		session: session,
		uid:     uid,
		events:  noopNotifier{},
	}
}

// SetNotifier installs a sync progress notifier.
func (s *Syncer) SetNotifier(n Notifier) {
	if n != nil {
		s.events = n
	}
}

// SetArtworkMirror installs an optional album cover mirror.
func (s *Syncer) SetArtworkMirror(a ArtworkMirror) {
	s.artwork = a
}

// SyncPlaylists refreshes the mirrored playlist set from the provider
// listing, deleting playlists (and their tracks) that the provider no
// longer reports. The unified catalog is rebuilt only when something was
// removed; otherwise per-playlist track syncs are responsible.
func (s *Syncer) SyncPlaylists(ctx context.Context) error {
	stale, err := s.syncPlaylistSet(ctx)
	if err != nil {
		return err
	}
	if stale > 0 {
		return s.RebuildCatalog(ctx)
	}
	return nil
}

// syncPlaylistSet does the listing sync without touching the catalog and
// reports how many stale playlists were dropped.
func (s *Syncer) syncPlaylistSet(ctx context.Context) (int, error) {
	if !s.session.LoggedIn() {
		return 0, ErrNotAuthenticated
	}

	remote, err := s.api.UserPlaylists(ctx, s.uid)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch playlist listing: %w", err)
	}

	local, err := s.mirror.Playlists()
	if err != nil {
		return 0, fmt.Errorf("failed to read mirrored playlists: %w", err)
	}

	remoteIDs := make(map[int64]bool, len(remote))
	for _, pl := range remote {
		remoteIDs[pl.ID] = true
	}

	stale := 0
	for _, pl := range local {
		if remoteIDs[pl.ID] {
			continue
		}
		if err := s.mirror.DeletePlaylist(pl.ID); err != nil {
			return stale, fmt.Errorf("failed to delete stale playlist %d: %w", pl.ID, err)
		}
		logger.Info("[SyncPlaylists] dropped stale playlist",
			logger.Int64("playlistId", pl.ID),
			logger.String("name", pl.Name))
		stale++
	}

	now := time.Now()
	rows := make([]model.RemotePlaylist, len(remote))
	for i, pl := range remote {
		rows[i] = model.RemotePlaylist{
			ID:         pl.ID,
			Name:       pl.Name,
			CoverURL:   pl.CoverURL,
			TrackCount: pl.TrackCount,
			SyncedAt:   now,
		}
	}
	if len(rows) > 0 {
		if err := s.mirror.UpsertPlaylists(rows); err != nil {
			return stale, fmt.Errorf("failed to upsert playlists: %w", err)
		}
	}

	logger.Info("[SyncPlaylists] playlist set synced",
		logger.Int("remote", len(remote)),
		logger.Int("stale", stale))
	return stale, nil
}

// SyncPlaylistTracks replaces the mirrored track set of one playlist with
// the provider's current listing. The replace is atomic: either the full
// parsed response lands, or the mirror keeps its previous rows. With
// project set, the unified catalog is rebuilt afterwards.
func (s *Syncer) SyncPlaylistTracks(ctx context.Context, playlistID int64, project bool) (int, error) {
	if !s.session.LoggedIn() {
		return 0, ErrNotAuthenticated
	}

	songs, err := s.api.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch tracks for playlist %d: %w", playlistID, err)
	}

	now := time.Now()
	rows := make([]model.RemoteTrack, len(songs))
	for i, song := range songs {
		rows[i] = model.RemoteTrack{
			PlaylistID: playlistID,
			SongID:     song.ID,
			Title:      song.Name,
			Artist:     joinArtistNames(song.Artists),
			Album:      song.Album.Name,
			AlbumID:    song.Album.ID,
			DurationMS: song.Duration,
			CoverURL:   song.Album.PicURL,
			MIMEType:   "audio/mpeg",
			AddedAt:    now,
		}
	}

	if err := s.mirror.ReplaceTracks(playlistID, rows); err != nil {
		return 0, fmt.Errorf("failed to replace tracks for playlist %d: %w", playlistID, err)
	}

	if project {
		if err := s.RebuildCatalog(ctx); err != nil {
			return len(rows), err
		}
	}
	return len(rows), nil
}

// RebuildCatalog projects the current mirror into the unified catalog: one
// incremental upsert writing every current row and deleting exactly the
// song IDs that vanished. An empty mirror clears the source's projection
// entirely.
func (s *Syncer) RebuildCatalog(ctx context.Context) error {
	tracks, err := s.mirror.AllTracks()
	if err != nil {
		return fmt.Errorf("failed to load mirrored tracks: %w", err)
	}

	if len(tracks) == 0 {
		if err := s.catalog.ClearRemote(model.SourceNetease); err != nil {
			return fmt.Errorf("failed to clear remote catalog: %w", err)
		}
		logger.Info("[RebuildCatalog] mirror empty, remote projection cleared")
		return nil
	}

	previous, err := s.catalog.RemoteSongIDs(model.SourceNetease)
	if err != nil {
		return fmt.Errorf("failed to read current catalog IDs: %w", err)
	}

	p := BuildProjection(tracks)
	current := p.SongIDs()
	for _, id := range previous {
		if !current[id] {
			p.DeletedSongIDs = append(p.DeletedSongIDs, id)
		}
	}

	if err := s.catalog.ApplyProjection(p); err != nil {
		return fmt.Errorf("failed to apply projection: %w", err)
	}

	logger.Info("[RebuildCatalog] projection applied",
		logger.Int("songs", len(p.Songs)),
		logger.Int("albums", len(p.Albums)),
		logger.Int("artists", len(p.Artists)),
		logger.Int("deleted", len(p.DeletedSongIDs)))

	if s.artwork != nil {
		s.artwork.MirrorAlbumCovers(ctx, p.Albums)
	}
	return nil
}

// SyncAll refreshes everything: the playlist set, then every playlist's
// tracks, then exactly one catalog projection. A single playlist failing is
// counted and skipped, never fatal to the batch.
func (s *Syncer) SyncAll(ctx context.Context) (*model.SyncSummary, error) {
	summary := &model.SyncSummary{
		BatchID:   uuid.NewString(),
		StartedAt: time.Now(),
	}
	s.events.Notify(model.SyncEvent{
		Type:      model.SyncEventStart,
		BatchID:   summary.BatchID,
		Timestamp: time.Now().Unix(),
	})

	if _, err := s.syncPlaylistSet(ctx); err != nil {
		return summary, err
	}

	playlists, err := s.mirror.Playlists()
	if err != nil {
		return summary, fmt.Errorf("failed to read mirrored playlists: %w", err)
	}

	if len(playlists) == 0 {
		// Nothing remote; still project so orphaned catalog rows get flushed.
		if err := s.RebuildCatalog(ctx); err != nil {
			return summary, err
		}
		summary.Duration = time.Since(summary.StartedAt)
		s.events.Notify(model.SyncEvent{
			Type:      model.SyncEventDone,
			BatchID:   summary.BatchID,
			Timestamp: time.Now().Unix(),
		})
		return summary, nil
	}

	for _, pl := range playlists {
		songs, err := s.SyncPlaylistTracks(ctx, pl.ID, false)
		if err != nil {
			logger.Warn("[SyncAll] playlist sync failed",
				logger.Int64("playlistId", pl.ID),
				logger.String("name", pl.Name),
				logger.ErrorField(err))
			summary.Failed++
			s.events.Notify(model.SyncEvent{
				Type:       model.SyncEventFailed,
				BatchID:    summary.BatchID,
				PlaylistID: pl.ID,
				Name:       pl.Name,
				Error:      err.Error(),
				Timestamp:  time.Now().Unix(),
			})
			continue
		}
		summary.Playlists++
		summary.Songs += songs
		s.events.Notify(model.SyncEvent{
			Type:       model.SyncEventPlaylist,
			BatchID:    summary.BatchID,
			PlaylistID: pl.ID,
			Name:       pl.Name,
			Songs:      songs,
			Timestamp:  time.Now().Unix(),
		})
	}

	if err := s.RebuildCatalog(ctx); err != nil {
		return summary, err
	}

	summary.Duration = time.Since(summary.StartedAt)
	s.events.Notify(model.SyncEvent{
		Type:      model.SyncEventDone,
		BatchID:   summary.BatchID,
		Songs:     summary.Songs,
		Timestamp: time.Now().Unix(),
	})

	logger.Info("[SyncAll] bulk sync finished",
		logger.String("batchId", summary.BatchID),
		logger.Int("playlists", summary.Playlists),
		logger.Int("songs", summary.Songs),
		logger.Int("failed", summary.Failed),
		logger.Duration("took", summary.Duration))
	return summary, nil
}

// DeletePlaylist removes one mirrored playlist and reprojects the catalog.
func (s *Syncer) DeletePlaylist(ctx context.Context, playlistID int64) error {
	if err := s.mirror.DeletePlaylist(playlistID); err != nil {
		return fmt.Errorf("failed to delete playlist %d: %w", playlistID, err)
	}
	return s.RebuildCatalog(ctx)
}

func joinArtistNames(artists []model.NeteaseArtist) string {
	names := make([]string, 0, len(artists))
	for _, a := range artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, " / ")
}
