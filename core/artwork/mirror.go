// Package artwork mirrors remote album covers into local object storage so
// the client keeps artwork when the provider CDN rotates or expires URLs.
package artwork

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"unifm/logger"
	"unifm/model"
	"unifm/storage"
)

// Mirror copies album cover images into a MinIO bucket. Everything is best
// effort: a missing cover never fails a sync.
type Mirror struct {
	bucket string
	client *http.Client
}

// NewMirror creates a cover mirror writing into bucket.
func NewMirror(bucket string) *Mirror {
	return &Mirror{
		bucket: bucket,
		client: &http.Client{Timeout: 15 * time.Second},
	}
}

// MirrorAlbumCovers downloads and stores the cover of every album that does
// not already have one mirrored. Errors are logged and skipped.
func (m *Mirror) MirrorAlbumCovers(ctx context.Context, albums []model.Album) {
	mirrored := 0
	for _, album := range albums {
		if album.CoverArtPath == "" {
			continue
		}
		name := objectName(album.ID)
		if storage.ObjectExists(ctx, m.bucket, name) {
			continue
		}
		if err := m.mirrorOne(ctx, name, album.CoverArtPath); err != nil {
			logger.Warn("[Artwork] cover mirror failed",
				logger.Int64("albumId", album.ID),
				logger.ErrorField(err))
			continue
		}
		mirrored++
	}
	if mirrored > 0 {
		logger.Info("[Artwork] covers mirrored", logger.Int("count", mirrored))
	}
}

func (m *Mirror) mirrorOne(ctx context.Context, name, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("bad cover url: %w", err)
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch cover: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cover fetch returned status %d", resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}
	return storage.PutObject(ctx, m.bucket, name, resp.Body, resp.ContentLength, contentType)
}

func objectName(albumID int64) string {
	// Album IDs in the remote band are negative; keep object keys readable.
	return fmt.Sprintf("covers/album_%d.jpg", -albumID)
}
