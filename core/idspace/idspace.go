// Package idspace allocates unified catalog IDs for remote media.
//
// Device-local media owns the non-negative ID space. Every remote source is
// assigned a disjoint triple of negative bands, one per entity type, each
// 10^12 wide. Netease occupies the first triple. Derivation is a pure
// function of stable source fields, so re-running reconciliation over
// unchanged remote data reproduces identical IDs.
package idspace

import (
	"hash/fnv"
	"strings"
)

// Band offsets for the Netease source. A further source would take
// 4..6 * 10^12 and so on.
const (
	songOffset   int64 = 1_000_000_000_000
	albumOffset  int64 = 2_000_000_000_000
	artistOffset int64 = 3_000_000_000_000
)

// UnknownArtist is credited when the provider hands us an empty or
// unparseable artist string.
const UnknownArtist = "Unknown Artist"

// UnknownAlbum is used when the provider omits the album name.
const UnknownAlbum = "Unknown Album"

// SongID derives the unified song ID for a provider track ID.
func SongID(sourceTrackID int64) int64 {
	return -(songOffset + abs(sourceTrackID))
}

// AlbumID derives the unified album ID. The provider's own album ID is
// preferred when present; some responses omit it, in which case a hash of
// the normalized album name keeps the ID stable across syncs.
func AlbumID(sourceAlbumID int64, albumName string) int64 {
	if sourceAlbumID > 0 {
		return -(albumOffset + sourceAlbumID)
	}
	return -(albumOffset + nameHash(albumName))
}

// ArtistID derives the unified artist ID. The provider carries no durable
// per-track artist ID, so the normalized name is all we have.
func ArtistID(artistName string) int64 {
	return -(artistOffset + nameHash(artistName))
}

// IsRemoteSongID reports whether id falls in the Netease song band.
func IsRemoteSongID(id int64) bool {
	return id <= -songOffset && id > -(songOffset+songOffset)
}

// nameHash maps a name onto [0, 2^31]. A 32-bit hash can never reach the
// 10^12 band width, so no input can cross into a neighbouring band.
func nameHash(name string) int64 {
	h := fnv.New32a()
	h.Write([]byte(strings.ToLower(strings.TrimSpace(name))))
	return abs(int64(int32(h.Sum32())))
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func isArtistDelimiter(r rune) bool {
	switch r {
	case ',', '/', '&', ';', '+', '、':
		return true
	}
	return false
}

// SplitArtists splits a raw multi-artist credit string into individual
// names: trimmed, case-insensitively deduplicated, never empty. The first
// name returned is the primary credit.
func SplitArtists(raw string) []string {
	parts := strings.FieldsFunc(raw, isArtistDelimiter)

	names := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		name := strings.TrimSpace(p)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}

	if len(names) == 0 {
		return []string{UnknownArtist}
	}
	return names
}
