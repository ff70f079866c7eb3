package model

import "time"

// NeteaseAlbum is the provider's album payload.
type NeteaseAlbum struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	PicURL string `json:"picUrl"`
}

// NeteaseArtist is the provider's artist payload.
type NeteaseArtist struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// NeteaseSong is the provider's song payload.
type NeteaseSong struct {
	ID       int64           `json:"id"`
	Name     string          `json:"name"`
	Artists  []NeteaseArtist `json:"artists"`
	Album    NeteaseAlbum    `json:"album"`
	Duration int             `json:"duration"` // milliseconds
}

// NeteaseSearchResult is a page of provider search hits.
type NeteaseSearchResult struct {
	Songs []NeteaseSong `json:"songs"`
	Total int           `json:"total"`
}

// NeteaseLyric holds the raw and translated lyrics for a song.
type NeteaseLyric struct {
	SongID     int64     `json:"songId"`
	Lyric      string    `json:"lyric"`
	TransLyric string    `json:"transLyric"`
	FetchedAt  time.Time `json:"fetchedAt"`
}

// NeteasePlaylist is the provider's playlist payload.
type NeteasePlaylist struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	CoverURL   string `json:"coverImgUrl"`
	TrackCount int    `json:"trackCount"`
}
