package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"unifm/core/library"
	"unifm/model"
)

// CatalogRepository defines the unified catalog data operations: the
// projection writes the sync engine needs plus the read queries the API
// serves. Songs, albums and artists from every source share these tables.
type CatalogRepository interface {
	library.CatalogStore

	GetSongByID(ctx context.Context, id int64) (*model.Song, error)
	GetSongsBySource(ctx context.Context, source string) ([]*model.Song, error)
	GetAllSongs(ctx context.Context) ([]*model.Song, error)
	GetAlbumByID(ctx context.Context, id int64) (*model.Album, error)
	GetAlbumsBySource(ctx context.Context, source string) ([]*model.Album, error)
	GetAlbumSongs(ctx context.Context, albumID int64) ([]*model.Song, error)
	GetArtistByID(ctx context.Context, id int64) (*model.Artist, error)
	GetArtistSongs(ctx context.Context, artistID int64) ([]*model.Song, error)
	SearchSongs(ctx context.Context, keyword string, limit int) ([]*model.Song, error)
}

// mysqlCatalogRepository implements CatalogRepository for MySQL.
type mysqlCatalogRepository struct {
	db *sql.DB
}

// NewMySQLCatalogRepository creates a new mysqlCatalogRepository.
func NewMySQLCatalogRepository(db *sql.DB) CatalogRepository {
	return &mysqlCatalogRepository{db: db}
}

const songColumns = "id, source, title, artist, artist_id, album, album_id, file_path, cover_art_path, duration_ms, bitrate, mime_type, created_at, updated_at"

func scanSong(row interface{ Scan(dest ...any) error }) (*model.Song, error) {
	song := &model.Song{}
	err := row.Scan(&song.ID, &song.Source, &song.Title, &song.Artist, &song.ArtistID,
		&song.Album, &song.AlbumID, &song.FilePath, &song.CoverArtPath,
		&song.DurationMS, &song.Bitrate, &song.MIMEType, &song.CreatedAt, &song.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return song, nil
}

// RemoteSongIDs returns the IDs of all catalog songs owned by source.
func (r *mysqlCatalogRepository) RemoteSongIDs(source string) ([]int64, error) {
	rows, err := r.db.Query("SELECT id FROM songs WHERE source = ?", source)
	if err != nil {
		return nil, fmt.Errorf("failed to query song IDs for source %s: %w", source, err)
	}
	defer rows.Close()

	ids := make([]int64, 0)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan song ID: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating song IDs: %w", err)
	}
	return ids, nil
}

// ApplyProjection writes one catalog projection in a single transaction:
// upserts for every current song, album, artist and credit row, then deletes
// of exactly the song IDs the projection marks removed. Either the whole
// image lands or the catalog keeps its previous state.
func (r *mysqlCatalogRepository) ApplyProjection(p *library.Projection) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin projection transaction: %w", err)
	}
	defer tx.Rollback()

	songStmt, err := tx.Prepare(`
		INSERT INTO songs (id, source, title, artist, artist_id, album, album_id, file_path, cover_art_path, duration_ms, bitrate, mime_type, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			title = VALUES(title), artist = VALUES(artist), artist_id = VALUES(artist_id),
			album = VALUES(album), album_id = VALUES(album_id), file_path = VALUES(file_path),
			cover_art_path = VALUES(cover_art_path), duration_ms = VALUES(duration_ms),
			bitrate = VALUES(bitrate), mime_type = VALUES(mime_type), updated_at = VALUES(updated_at)`)
	if err != nil {
		return fmt.Errorf("failed to prepare song upsert: %w", err)
	}
	defer songStmt.Close()

	for _, s := range p.Songs {
		if _, err := songStmt.Exec(s.ID, s.Source, s.Title, s.Artist, s.ArtistID, s.Album, s.AlbumID,
			s.FilePath, s.CoverArtPath, s.DurationMS, s.Bitrate, s.MIMEType, s.CreatedAt, s.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert song %d: %w", s.ID, err)
		}
	}

	albumStmt, err := tx.Prepare(`
		INSERT INTO albums (id, source, name, artist, artist_id, cover_art_path, song_count, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name), artist = VALUES(artist), artist_id = VALUES(artist_id),
			cover_art_path = VALUES(cover_art_path), song_count = VALUES(song_count), updated_at = VALUES(updated_at)`)
	if err != nil {
		return fmt.Errorf("failed to prepare album upsert: %w", err)
	}
	defer albumStmt.Close()

	for _, a := range p.Albums {
		if _, err := albumStmt.Exec(a.ID, a.Source, a.Name, a.Artist, a.ArtistID,
			a.CoverArtPath, a.SongCount, a.CreatedAt, a.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert album %d: %w", a.ID, err)
		}
	}

	artistStmt, err := tx.Prepare(`
		INSERT INTO artists (id, source, name, cover_art_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			name = VALUES(name), cover_art_path = VALUES(cover_art_path), updated_at = VALUES(updated_at)`)
	if err != nil {
		return fmt.Errorf("failed to prepare artist upsert: %w", err)
	}
	defer artistStmt.Close()

	for _, a := range p.Artists {
		if _, err := artistStmt.Exec(a.ID, a.Source, a.Name, a.CoverArtPath, a.CreatedAt, a.UpdatedAt); err != nil {
			return fmt.Errorf("failed to upsert artist %d: %w", a.ID, err)
		}
	}

	// Credits are replaced per song rather than diffed: the row set is small
	// and the projection already carries the full image.
	creditDel, err := tx.Prepare("DELETE FROM song_artists WHERE song_id = ?")
	if err != nil {
		return fmt.Errorf("failed to prepare credit delete: %w", err)
	}
	defer creditDel.Close()

	creditIns, err := tx.Prepare("INSERT INTO song_artists (song_id, artist_id, is_primary) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare credit insert: %w", err)
	}
	defer creditIns.Close()

	cleared := make(map[int64]bool, len(p.Songs))
	for _, rel := range p.Relations {
		if !cleared[rel.SongID] {
			if _, err := creditDel.Exec(rel.SongID); err != nil {
				return fmt.Errorf("failed to clear credits for song %d: %w", rel.SongID, err)
			}
			cleared[rel.SongID] = true
		}
		if _, err := creditIns.Exec(rel.SongID, rel.ArtistID, rel.IsPrimary); err != nil {
			return fmt.Errorf("failed to insert credit %d/%d: %w", rel.SongID, rel.ArtistID, err)
		}
	}

	if len(p.DeletedSongIDs) > 0 {
		placeholders := strings.TrimSuffix(strings.Repeat("?,", len(p.DeletedSongIDs)), ",")
		args := make([]any, len(p.DeletedSongIDs))
		for i, id := range p.DeletedSongIDs {
			args[i] = id
		}
		if _, err := tx.Exec("DELETE FROM song_artists WHERE song_id IN ("+placeholders+")", args...); err != nil {
			return fmt.Errorf("failed to delete credits of removed songs: %w", err)
		}
		if _, err := tx.Exec("DELETE FROM songs WHERE id IN ("+placeholders+")", args...); err != nil {
			return fmt.Errorf("failed to delete removed songs: %w", err)
		}
	}

	// Albums and artists no song references anymore are garbage-collected so
	// browsing views never show empty shells.
	if _, err := tx.Exec(`DELETE FROM albums WHERE source = ? AND id NOT IN (SELECT DISTINCT album_id FROM songs WHERE source = ?)`,
		p.Source, p.Source); err != nil {
		return fmt.Errorf("failed to prune orphaned albums: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM artists WHERE source = ? AND id NOT IN (SELECT DISTINCT artist_id FROM song_artists JOIN songs ON songs.id = song_artists.song_id WHERE songs.source = ?)`,
		p.Source, p.Source); err != nil {
		return fmt.Errorf("failed to prune orphaned artists: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit projection: %w", err)
	}
	return nil
}

// ClearRemote drops every catalog row owned by source.
func (r *mysqlCatalogRepository) ClearRemote(source string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin clear transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM song_artists WHERE song_id IN (SELECT id FROM songs WHERE source = ?)", source); err != nil {
		return fmt.Errorf("failed to clear credits for source %s: %w", source, err)
	}
	for _, table := range []string{"songs", "albums", "artists"} {
		if _, err := tx.Exec("DELETE FROM "+table+" WHERE source = ?", source); err != nil {
			return fmt.Errorf("failed to clear %s for source %s: %w", table, source, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear for source %s: %w", source, err)
	}
	return nil
}

// GetSongByID retrieves one song, nil when absent.
func (r *mysqlCatalogRepository) GetSongByID(ctx context.Context, id int64) (*model.Song, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+songColumns+" FROM songs WHERE id = ?", id)
	song, err := scanSong(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan song %d: %w", id, err)
	}
	return song, nil
}

// GetSongsBySource retrieves all songs owned by one source.
func (r *mysqlCatalogRepository) GetSongsBySource(ctx context.Context, source string) ([]*model.Song, error) {
	return r.querySongs(ctx, "SELECT "+songColumns+" FROM songs WHERE source = ? ORDER BY title", source)
}

// GetAllSongs retrieves the whole unified catalog.
func (r *mysqlCatalogRepository) GetAllSongs(ctx context.Context) ([]*model.Song, error) {
	return r.querySongs(ctx, "SELECT "+songColumns+" FROM songs ORDER BY title")
}

// GetAlbumByID retrieves one album, nil when absent.
func (r *mysqlCatalogRepository) GetAlbumByID(ctx context.Context, id int64) (*model.Album, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, source, name, artist, artist_id, cover_art_path, song_count, created_at, updated_at FROM albums WHERE id = ?", id)
	album := &model.Album{}
	err := row.Scan(&album.ID, &album.Source, &album.Name, &album.Artist, &album.ArtistID,
		&album.CoverArtPath, &album.SongCount, &album.CreatedAt, &album.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan album %d: %w", id, err)
	}
	return album, nil
}

// GetAlbumsBySource retrieves all albums owned by one source.
func (r *mysqlCatalogRepository) GetAlbumsBySource(ctx context.Context, source string) ([]*model.Album, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, source, name, artist, artist_id, cover_art_path, song_count, created_at, updated_at FROM albums WHERE source = ? ORDER BY name", source)
	if err != nil {
		return nil, fmt.Errorf("failed to query albums for source %s: %w", source, err)
	}
	defer rows.Close()

	albums := make([]*model.Album, 0)
	for rows.Next() {
		album := &model.Album{}
		if err := rows.Scan(&album.ID, &album.Source, &album.Name, &album.Artist, &album.ArtistID,
			&album.CoverArtPath, &album.SongCount, &album.CreatedAt, &album.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan album row: %w", err)
		}
		albums = append(albums, album)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating albums: %w", err)
	}
	return albums, nil
}

// GetAlbumSongs retrieves the songs of one album.
func (r *mysqlCatalogRepository) GetAlbumSongs(ctx context.Context, albumID int64) ([]*model.Song, error) {
	return r.querySongs(ctx, "SELECT "+songColumns+" FROM songs WHERE album_id = ? ORDER BY title", albumID)
}

// GetArtistByID retrieves one artist, nil when absent.
func (r *mysqlCatalogRepository) GetArtistByID(ctx context.Context, id int64) (*model.Artist, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, source, name, cover_art_path, created_at, updated_at FROM artists WHERE id = ?", id)
	artist := &model.Artist{}
	err := row.Scan(&artist.ID, &artist.Source, &artist.Name, &artist.CoverArtPath, &artist.CreatedAt, &artist.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan artist %d: %w", id, err)
	}
	return artist, nil
}

// GetArtistSongs retrieves every song crediting the artist, primary or not.
func (r *mysqlCatalogRepository) GetArtistSongs(ctx context.Context, artistID int64) ([]*model.Song, error) {
	return r.querySongs(ctx, `
		SELECT `+songColumns+` FROM songs
		WHERE id IN (SELECT song_id FROM song_artists WHERE artist_id = ?)
		ORDER BY title`, artistID)
}

// SearchSongs does a LIKE match over title, artist and album.
func (r *mysqlCatalogRepository) SearchSongs(ctx context.Context, keyword string, limit int) ([]*model.Song, error) {
	pattern := "%" + keyword + "%"
	return r.querySongs(ctx, `
		SELECT `+songColumns+` FROM songs
		WHERE title LIKE ? OR artist LIKE ? OR album LIKE ?
		ORDER BY title LIMIT ?`, pattern, pattern, pattern, limit)
}

func (r *mysqlCatalogRepository) querySongs(ctx context.Context, query string, args ...any) ([]*model.Song, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query songs: %w", err)
	}
	defer rows.Close()

	songs := make([]*model.Song, 0)
	for rows.Next() {
		song, err := scanSong(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan song row: %w", err)
		}
		songs = append(songs, song)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating songs: %w", err)
	}
	return songs, nil
}
