package model

import "time"

// RemotePlaylist is the mirrored copy of a provider playlist. It records what
// the provider told us on the last successful listing, nothing more.
type RemotePlaylist struct {
	ID         int64     `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name       string    `gorm:"size:255" json:"name"`
	CoverURL   string    `gorm:"size:1024" json:"coverUrl"`
	TrackCount int       `json:"trackCount"`
	SyncedAt   time.Time `json:"syncedAt"`
}

// TableName maps RemotePlaylist to its table.
func (RemotePlaylist) TableName() string {
	return "remote_playlists"
}

// RemoteTrack is one mirrored playlist entry. The same provider song appearing
// in two playlists yields two rows; the composite (playlist_id, song_id) key
// keeps them from colliding. Rows are replaced wholesale on every playlist sync.
type RemoteTrack struct {
	PlaylistID int64     `gorm:"primaryKey;autoIncrement:false" json:"playlistId"`
	SongID     int64     `gorm:"primaryKey;autoIncrement:false" json:"songId"`
	Title      string    `gorm:"size:255" json:"title"`
	Artist     string    `gorm:"size:512" json:"artist"` // raw, possibly delimiter-separated
	Album      string    `gorm:"size:255" json:"album"`
	AlbumID    int64     `json:"albumId"`
	DurationMS int       `json:"durationMs"`
	CoverURL   string    `gorm:"size:1024" json:"coverUrl"`
	MIMEType   string    `gorm:"size:64" json:"mimeType"`
	Bitrate    int       `json:"bitrate"`
	AddedAt    time.Time `json:"addedAt"`
}

// TableName maps RemoteTrack to its table.
func (RemoteTrack) TableName() string {
	return "remote_tracks"
}
