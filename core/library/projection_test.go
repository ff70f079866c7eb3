package library

import (
	"testing"

	"unifm/core/idspace"
	"unifm/model"
)

func remoteTrack(playlistID, songID int64, title, artist, album string, albumID int64) model.RemoteTrack {
	return model.RemoteTrack{
		PlaylistID: playlistID,
		SongID:     songID,
		Title:      title,
		Artist:     artist,
		Album:      album,
		AlbumID:    albumID,
		DurationMS: 180000,
		MIMEType:   "audio/mpeg",
	}
}

func TestBuildProjectionMultiArtistCredits(t *testing.T) {
	p := BuildProjection([]model.RemoteTrack{
		remoteTrack(1, 1001, "Song", "A, B & C", "Alb", 70),
	})

	if len(p.Songs) != 1 {
		t.Fatalf("expected 1 song, got %d", len(p.Songs))
	}
	if len(p.Artists) != 3 {
		t.Fatalf("expected 3 artists, got %d", len(p.Artists))
	}
	if len(p.Relations) != 3 {
		t.Fatalf("expected 3 song-artist rows, got %d", len(p.Relations))
	}

	primaries := 0
	for _, rel := range p.Relations {
		if rel.IsPrimary {
			primaries++
			if rel.ArtistID != idspace.ArtistID("A") {
				t.Fatalf("primary credit must be the first parsed artist")
			}
		}
	}
	if primaries != 1 {
		t.Fatalf("expected exactly one primary credit, got %d", primaries)
	}

	if p.Songs[0].ArtistID != idspace.ArtistID("A") {
		t.Fatal("song must carry the primary artist ID")
	}
	if p.Albums[0].Artist != "A" {
		t.Fatal("album artist must be the primary credit of its first track")
	}
}

func TestBuildProjectionDedupesAcrossPlaylists(t *testing.T) {
	p := BuildProjection([]model.RemoteTrack{
		remoteTrack(1, 1001, "Song", "A", "Alb", 70),
		remoteTrack(2, 1001, "Song", "A", "Alb", 70),
	})

	if len(p.Songs) != 1 {
		t.Fatalf("a track mirrored twice must project once, got %d songs", len(p.Songs))
	}
	if p.Albums[0].SongCount != 1 {
		t.Fatalf("album count must ignore duplicates, got %d", p.Albums[0].SongCount)
	}
}

func TestBuildProjectionAlbumAggregate(t *testing.T) {
	p := BuildProjection([]model.RemoteTrack{
		remoteTrack(1, 1001, "One", "A", "Alb", 70),
		remoteTrack(1, 1002, "Two", "A", "Alb", 70),
		remoteTrack(1, 1003, "Other", "B", "Other Album", 71),
	})

	if len(p.Albums) != 2 {
		t.Fatalf("expected 2 albums, got %d", len(p.Albums))
	}
	counts := make(map[int64]int)
	for _, a := range p.Albums {
		counts[a.ID] = a.SongCount
	}
	if counts[idspace.AlbumID(70, "Alb")] != 2 {
		t.Fatalf("expected album 70 count 2, got %d", counts[idspace.AlbumID(70, "Alb")])
	}
	if counts[idspace.AlbumID(71, "Other Album")] != 1 {
		t.Fatalf("expected album 71 count 1")
	}
}

func TestBuildProjectionPlaybackURI(t *testing.T) {
	p := BuildProjection([]model.RemoteTrack{
		remoteTrack(1, 1001, "Song", "A", "Alb", 70),
	})

	if p.Songs[0].FilePath != "netease://1001" {
		t.Fatalf("song path must be the opaque playback URI, got %q", p.Songs[0].FilePath)
	}
	if p.Songs[0].ID != idspace.SongID(1001) {
		t.Fatalf("unexpected song ID %d", p.Songs[0].ID)
	}
}

func TestBuildProjectionSentinels(t *testing.T) {
	p := BuildProjection([]model.RemoteTrack{
		remoteTrack(1, 1001, "Song", "", "", 0),
	})

	if p.Artists[0].Name != idspace.UnknownArtist {
		t.Fatalf("empty artist must degrade to sentinel, got %q", p.Artists[0].Name)
	}
	if p.Albums[0].Name != idspace.UnknownAlbum {
		t.Fatalf("empty album must degrade to sentinel, got %q", p.Albums[0].Name)
	}
}
