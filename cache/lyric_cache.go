package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"unifm/model"

	"github.com/redis/go-redis/v9"
)

// lyricTTL bounds how long a fetched lyric is reused before asking the
// provider again. Lyrics change rarely; a day is plenty.
const lyricTTL = 24 * time.Hour

func lyricKey(songID int64) string {
	return fmt.Sprintf("lyric:netease:%d", songID)
}

// GetLyric returns the cached lyric for a song, or (nil, nil) on a miss.
func GetLyric(ctx context.Context, songID int64) (*model.NeteaseLyric, error) {
	if RedisClient == nil {
		return nil, nil
	}

	raw, err := RedisClient.Get(ctx, lyricKey(songID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read cached lyric: %w", err)
	}

	var lyric model.NeteaseLyric
	if err := json.Unmarshal([]byte(raw), &lyric); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached lyric: %w", err)
	}
	return &lyric, nil
}

// SetLyric stores a lyric with the cache TTL. Best effort; a nil client is a no-op.
func SetLyric(ctx context.Context, lyric *model.NeteaseLyric) error {
	if RedisClient == nil || lyric == nil {
		return nil
	}

	raw, err := json.Marshal(lyric)
	if err != nil {
		return fmt.Errorf("failed to marshal lyric: %w", err)
	}

	if err := RedisClient.Set(ctx, lyricKey(lyric.SongID), raw, lyricTTL).Err(); err != nil {
		return fmt.Errorf("failed to cache lyric: %w", err)
	}
	return nil
}
