// Package library reconciles the remote mirror with the unified catalog.
//
// The mirror is the faithful per-source copy of what the provider last told
// us; the unified catalog is the app-wide song/album/artist schema shared
// with device-local media. Reconciliation keeps the catalog a pure
// projection of the mirror: after a sync, the set of remote song IDs in the
// catalog equals the allocator's image over the current mirror rows.
package library

import (
	"context"
	"errors"

	"unifm/model"
)

// ErrNotAuthenticated is returned when a sync is requested without a valid
// provider session. No network call is attempted in that case.
var ErrNotAuthenticated = errors.New("library: provider session not authenticated")

// ProviderAPI is the slice of the provider client the engine needs.
type ProviderAPI interface {
	UserPlaylists(ctx context.Context, uid string) ([]model.NeteasePlaylist, error)
	PlaylistTracks(ctx context.Context, playlistID int64) ([]model.NeteaseSong, error)
}

// MirrorStore is the durable per-source mirror of remote playlists/tracks.
// Only the engine writes to it.
type MirrorStore interface {
	Playlists() ([]model.RemotePlaylist, error)
	UpsertPlaylists(playlists []model.RemotePlaylist) error
	// DeletePlaylist removes a playlist row and all its tracks in one
	// transaction.
	DeletePlaylist(id int64) error
	// ReplaceTracks atomically swaps the full track set of one playlist.
	ReplaceTracks(playlistID int64, tracks []model.RemoteTrack) error
	AllTracks() ([]model.RemoteTrack, error)
}

// CatalogStore is the unified catalog as seen by the engine.
type CatalogStore interface {
	// RemoteSongIDs returns the IDs of all catalog songs owned by source.
	RemoteSongIDs(source string) ([]int64, error)
	// ApplyProjection writes all current rows and removes exactly the
	// projection's deleted song IDs, in a single transaction.
	ApplyProjection(p *Projection) error
	// ClearRemote drops every catalog row owned by source.
	ClearRemote(source string) error
}

// Session exposes the provider login state.
type Session interface {
	LoggedIn() bool
}

// Notifier receives sync progress events. The zero value of the engine uses
// a no-op notifier.
type Notifier interface {
	Notify(event model.SyncEvent)
}

// ArtworkMirror copies album covers into local object storage, best effort.
type ArtworkMirror interface {
	MirrorAlbumCovers(ctx context.Context, albums []model.Album)
}

type noopNotifier struct{}

func (noopNotifier) Notify(model.SyncEvent) {}
