package repository

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"unifm/model"
)

// MirrorRepository persists the remote mirror: the faithful copy of what the
// provider last reported. Backed by GORM since the mirror tables are plain
// row sets with no cross-source queries.
type MirrorRepository struct {
	db *gorm.DB
}

// NewMirrorRepository creates a MirrorRepository over the given GORM handle.
func NewMirrorRepository(db *gorm.DB) *MirrorRepository {
	return &MirrorRepository{db: db}
}

// Playlists returns every mirrored playlist.
func (r *MirrorRepository) Playlists() ([]model.RemotePlaylist, error) {
	var playlists []model.RemotePlaylist
	if err := r.db.Order("id").Find(&playlists).Error; err != nil {
		return nil, fmt.Errorf("failed to load mirrored playlists: %w", err)
	}
	return playlists, nil
}

// UpsertPlaylists writes the given playlist rows, updating existing IDs in
// place.
func (r *MirrorRepository) UpsertPlaylists(playlists []model.RemotePlaylist) error {
	if len(playlists) == 0 {
		return nil
	}
	err := r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&playlists).Error
	if err != nil {
		return fmt.Errorf("failed to upsert playlists: %w", err)
	}
	return nil
}

// DeletePlaylist removes one playlist and all its tracks in a single
// transaction.
func (r *MirrorRepository) DeletePlaylist(id int64) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", id).Delete(&model.RemoteTrack{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.RemotePlaylist{}, id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete mirrored playlist %d: %w", id, err)
	}
	return nil
}

// ReplaceTracks swaps the full track set of one playlist atomically: the old
// rows are gone and the new rows present only if the transaction commits.
func (r *MirrorRepository) ReplaceTracks(playlistID int64, tracks []model.RemoteTrack) error {
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("playlist_id = ?", playlistID).Delete(&model.RemoteTrack{}).Error; err != nil {
			return err
		}
		if len(tracks) == 0 {
			return nil
		}
		return tx.CreateInBatches(&tracks, 200).Error
	})
	if err != nil {
		return fmt.Errorf("failed to replace tracks for playlist %d: %w", playlistID, err)
	}
	return nil
}

// AllTracks returns every mirrored track across all playlists.
func (r *MirrorRepository) AllTracks() ([]model.RemoteTrack, error) {
	var tracks []model.RemoteTrack
	if err := r.db.Order("playlist_id, song_id").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to load mirrored tracks: %w", err)
	}
	return tracks, nil
}

// PlaylistTracks returns the mirrored tracks of one playlist.
func (r *MirrorRepository) PlaylistTracks(playlistID int64) ([]model.RemoteTrack, error) {
	var tracks []model.RemoteTrack
	if err := r.db.Where("playlist_id = ?", playlistID).Order("song_id").Find(&tracks).Error; err != nil {
		return nil, fmt.Errorf("failed to load tracks for playlist %d: %w", playlistID, err)
	}
	return tracks, nil
}
