package netease

import (
	"context"
	"fmt"
	"time"

	"unifm/logger"
	"unifm/model"
)

// Lyric fetches the raw and translated lyrics for a track.
func (c *Client) Lyric(ctx context.Context, songID int64) (*model.NeteaseLyric, error) {
	endpoint := fmt.Sprintf("%s/lyric?id=%d", c.baseURL, songID)

	var result struct {
		Lrc struct {
			Lyric string `json:"lyric"`
		} `json:"lrc"`
		Tlyric struct {
			Lyric string `json:"lyric"`
		} `json:"tlyric"`
		Code int `json:"code"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		logger.Error("[Lyric] request failed", logger.Int64("songId", songID), logger.ErrorField(err))
		return nil, err
	}
	if result.Code != 200 {
		return nil, fmt.Errorf("gateway error code %d", result.Code)
	}

	lyric := &model.NeteaseLyric{
		SongID:     songID,
		Lyric:      result.Lrc.Lyric,
		TransLyric: result.Tlyric.Lyric,
		FetchedAt:  time.Now(),
	}
	logger.Debug("[Lyric] fetched lyric",
		logger.Int64("songId", songID),
		logger.Int("length", len(lyric.Lyric)))
	return lyric, nil
}
