package library

import (
	"fmt"
	"strings"
	"time"

	"unifm/core/idspace"
	"unifm/model"
)

// Projection is the full unified-catalog image of the current mirror rows,
// plus the song IDs that disappeared since the previous projection.
type Projection struct {
	Source         string
	Songs          []model.Song
	Albums         []model.Album
	Artists        []model.Artist
	Relations      []model.SongArtist
	DeletedSongIDs []int64
}

// SongIDs returns the set of song IDs the projection writes.
func (p *Projection) SongIDs() map[int64]bool {
	ids := make(map[int64]bool, len(p.Songs))
	for _, s := range p.Songs {
		ids[s.ID] = true
	}
	return ids
}

// BuildProjection derives unified songs, albums, artists and song-artist
// credits from mirror rows. Pure: no storage, no provider. Album song counts
// are aggregated here, never read from the provider. A track mirrored in
// several playlists projects to a single song.
func BuildProjection(tracks []model.RemoteTrack) *Projection {
	now := time.Now()
	p := &Projection{Source: model.SourceNetease}

	seenSongs := make(map[int64]bool)
	albums := make(map[int64]*model.Album)
	albumOrder := make([]int64, 0)
	artists := make(map[int64]bool)
	relations := make(map[int64]map[int64]bool)

	for _, track := range tracks {
		songID := idspace.SongID(track.SongID)
		if seenSongs[songID] {
			continue
		}
		seenSongs[songID] = true

		names := idspace.SplitArtists(track.Artist)
		primary := names[0]
		primaryID := idspace.ArtistID(primary)

		albumName := strings.TrimSpace(track.Album)
		if albumName == "" {
			albumName = idspace.UnknownAlbum
		}
		albumID := idspace.AlbumID(track.AlbumID, albumName)

		p.Songs = append(p.Songs, model.Song{
			ID:           songID,
			Source:       model.SourceNetease,
			Title:        track.Title,
			Artist:       strings.Join(names, " / "),
			ArtistID:     primaryID,
			Album:        albumName,
			AlbumID:      albumID,
			FilePath:     fmt.Sprintf("%s://%d", model.SourceNetease, track.SongID),
			CoverArtPath: track.CoverURL,
			DurationMS:   track.DurationMS,
			Bitrate:      track.Bitrate,
			MIMEType:     track.MIMEType,
			CreatedAt:    now,
			UpdatedAt:    now,
		})

		album, ok := albums[albumID]
		if !ok {
			album = &model.Album{
				ID:           albumID,
				Source:       model.SourceNetease,
				Name:         albumName,
				Artist:       primary,
				ArtistID:     primaryID,
				CoverArtPath: track.CoverURL,
				CreatedAt:    now,
				UpdatedAt:    now,
			}
			albums[albumID] = album
			albumOrder = append(albumOrder, albumID)
		}
		album.SongCount++

		for i, name := range names {
			artistID := idspace.ArtistID(name)
			if !artists[artistID] {
				artists[artistID] = true
				p.Artists = append(p.Artists, model.Artist{
					ID:        artistID,
					Source:    model.SourceNetease,
					Name:      name,
					CreatedAt: now,
					UpdatedAt: now,
				})
			}

			if relations[songID] == nil {
				relations[songID] = make(map[int64]bool)
			}
			if relations[songID][artistID] {
				continue
			}
			relations[songID][artistID] = true
			p.Relations = append(p.Relations, model.SongArtist{
				SongID:    songID,
				ArtistID:  artistID,
				IsPrimary: i == 0,
			})
		}
	}

	for _, id := range albumOrder {
		p.Albums = append(p.Albums, *albums[id])
	}
	return p
}
