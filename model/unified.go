package model

import "time"

// Catalog source identifiers. Device-local media uses non-negative IDs; every
// remote source gets its own negative ID band (see core/idspace).
const (
	SourceLocal   = "local"
	SourceNetease = "netease"
)

// Song is a unified catalog song, shared between locally stored media and
// mirrored remote tracks. For remote songs FilePath carries the opaque
// playback URI (netease://<id>) that the streaming proxy resolves.
type Song struct {
	ID           int64     `json:"id"`
	Source       string    `json:"source"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"` // display string, may name several artists
	ArtistID     int64     `json:"artistId"`
	Album        string    `json:"album"`
	AlbumID      int64     `json:"albumId"`
	FilePath     string    `json:"filePath"`
	CoverArtPath string    `json:"coverArtPath"`
	DurationMS   int       `json:"durationMs"`
	Bitrate      int       `json:"bitrate"`
	MIMEType     string    `json:"mimeType"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Album is a unified catalog album.
type Album struct {
	ID           int64     `json:"id"`
	Source       string    `json:"source"`
	Name         string    `json:"name"`
	Artist       string    `json:"artist"`
	ArtistID     int64     `json:"artistId"`
	CoverArtPath string    `json:"coverArtPath"`
	SongCount    int       `json:"songCount"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Artist is a unified catalog artist.
type Artist struct {
	ID           int64     `json:"id"`
	Source       string    `json:"source"`
	Name         string    `json:"name"`
	CoverArtPath string    `json:"coverArtPath"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SongArtist credits one artist on one song. IsPrimary marks the first
// credited artist, used for album-artist attribution.
type SongArtist struct {
	SongID    int64 `json:"songId"`
	ArtistID  int64 `json:"artistId"`
	IsPrimary bool  `json:"isPrimary"`
}
