package idspace

import (
	"reflect"
	"testing"
)

func TestSongIDDeterministic(t *testing.T) {
	first := SongID(1855519)
	for i := 0; i < 100; i++ {
		if got := SongID(1855519); got != first {
			t.Fatalf("SongID not stable: %d != %d", got, first)
		}
	}
	if first != -(1_000_000_000_000 + 1855519) {
		t.Fatalf("unexpected song ID: %d", first)
	}
}

func TestBandsDisjoint(t *testing.T) {
	inputs := []struct {
		song   int64
		album  int64
		artist string
	}{
		{1, 1, "a"},
		{999_999_999_999, 999_999_999_999, "Taylor Swift"},
		{42, 0, ""},
		{7, -3, "周杰伦"},
	}

	for _, in := range inputs {
		song := SongID(in.song)
		album := AlbumID(in.album, "Album")
		artist := ArtistID(in.artist)

		for _, id := range []int64{song, album, artist} {
			if id >= 0 {
				t.Fatalf("remote ID must be negative, got %d", id)
			}
		}
		if !(song > -2_000_000_000_000 && song <= -1_000_000_000_000) {
			t.Fatalf("song ID %d outside its band", song)
		}
		if !(album > -3_000_000_000_000 && album <= -2_000_000_000_000) {
			t.Fatalf("album ID %d outside its band", album)
		}
		if !(artist > -4_000_000_000_000 && artist <= -3_000_000_000_000) {
			t.Fatalf("artist ID %d outside its band", artist)
		}
	}
}

func TestAlbumIDFallsBackToNameHash(t *testing.T) {
	withID := AlbumID(5050, "Fearless")
	if withID != -(2_000_000_000_000 + 5050) {
		t.Fatalf("expected source album ID to win, got %d", withID)
	}

	hashed := AlbumID(0, "Fearless")
	if hashed == withID {
		t.Fatalf("fallback should not collide with source-ID derivation")
	}
	if hashed != AlbumID(0, "fearless") {
		t.Fatalf("album name hash must be case-insensitive")
	}
	if hashed != AlbumID(-1, "Fearless") {
		t.Fatalf("non-positive source album IDs must use the name hash")
	}
}

func TestArtistIDNormalizes(t *testing.T) {
	if ArtistID("Radiohead") != ArtistID("  radiohead ") {
		t.Fatal("artist ID must ignore case and surrounding whitespace")
	}
	if ArtistID("Radiohead") == ArtistID("Portishead") {
		t.Fatal("distinct artists should not collide")
	}
}

func TestSplitArtists(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"A, B & C", []string{"A", "B", "C"}},
		{"Simon & Garfunkel; Dylan", []string{"Simon", "Garfunkel", "Dylan"}},
		{"陈奕迅、林俊杰", []string{"陈奕迅", "林俊杰"}},
		{"Solo", []string{"Solo"}},
		{"dup / Dup / DUP", []string{"dup"}},
		{"", []string{UnknownArtist}},
		{" ,; ", []string{UnknownArtist}},
	}

	for _, tt := range tests {
		got := SplitArtists(tt.raw)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitArtists(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}

func TestSplitArtistsPrimaryFirst(t *testing.T) {
	got := SplitArtists("A, B & C")
	if got[0] != "A" {
		t.Fatalf("first parsed name must be primary, got %q", got[0])
	}
}
