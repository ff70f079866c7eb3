package db

import (
	"database/sql"
	"fmt"

	"unifm/config"
	"unifm/logger"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Connected to the database")
	return nil
}

// InitDB creates the unified catalog and account tables if they do not
// exist. Mirror tables are migrated separately through GORM (see gorm.go).
func InitDB() error {
	statements := []struct {
		name  string
		query string
	}{
		{"users", `
		CREATE TABLE IF NOT EXISTS users (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			username VARCHAR(100) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			preferences TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
		);`},
		{"songs", `
		CREATE TABLE IF NOT EXISTS songs (
			id BIGINT PRIMARY KEY,
			source VARCHAR(16) NOT NULL,
			title VARCHAR(255) NOT NULL,
			artist VARCHAR(512),
			artist_id BIGINT,
			album VARCHAR(255),
			album_id BIGINT,
			file_path VARCHAR(767) NOT NULL,
			cover_art_path VARCHAR(1024),
			duration_ms INT,
			bitrate INT,
			mime_type VARCHAR(64),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_songs_source (source),
			INDEX idx_songs_album (album_id)
		);`},
		{"albums", `
		CREATE TABLE IF NOT EXISTS albums (
			id BIGINT PRIMARY KEY,
			source VARCHAR(16) NOT NULL,
			name VARCHAR(255) NOT NULL,
			artist VARCHAR(255),
			artist_id BIGINT,
			cover_art_path VARCHAR(1024),
			song_count INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_albums_source (source)
		);`},
		{"artists", `
		CREATE TABLE IF NOT EXISTS artists (
			id BIGINT PRIMARY KEY,
			source VARCHAR(16) NOT NULL,
			name VARCHAR(255) NOT NULL,
			cover_art_path VARCHAR(1024),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			INDEX idx_artists_source (source)
		);`},
		{"song_artists", `
		CREATE TABLE IF NOT EXISTS song_artists (
			song_id BIGINT NOT NULL,
			artist_id BIGINT NOT NULL,
			is_primary BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (song_id, artist_id)
		);`},
	}

	for _, s := range statements {
		if _, err := DB.Exec(s.query); err != nil {
			return fmt.Errorf("failed to create %s table: %w", s.name, err)
		}
	}

	logger.Info("Database schema initialized")
	return nil
}

// CloseDB closes the database connection.
func CloseDB() error {
	if DB != nil {
		return DB.Close()
	}
	return nil
}
