package netease

import (
	"context"
	"fmt"
	"net/url"

	"unifm/logger"
	"unifm/model"
)

// UserPlaylists fetches the playlist listing for a provider account.
func (c *Client) UserPlaylists(ctx context.Context, uid string) ([]model.NeteasePlaylist, error) {
	endpoint := fmt.Sprintf("%s/user/playlist?uid=%s", c.baseURL, url.QueryEscape(uid))

	var result struct {
		Playlist []model.NeteasePlaylist `json:"playlist"`
		Code     int                     `json:"code"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		logger.Error("[UserPlaylists] request failed", logger.String("uid", uid), logger.ErrorField(err))
		return nil, err
	}
	if result.Code != 200 {
		return nil, fmt.Errorf("gateway error code %d", result.Code)
	}

	logger.Info("[UserPlaylists] fetched playlist listing",
		logger.String("uid", uid),
		logger.Int("count", len(result.Playlist)))
	return result.Playlist, nil
}

// PlaylistTracks fetches every track of one playlist.
func (c *Client) PlaylistTracks(ctx context.Context, playlistID int64) ([]model.NeteaseSong, error) {
	endpoint := fmt.Sprintf("%s/playlist/track/all?id=%d", c.baseURL, playlistID)

	var result struct {
		Songs []model.NeteaseSong `json:"songs"`
		Code  int                 `json:"code"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		logger.Error("[PlaylistTracks] request failed", logger.Int64("playlistId", playlistID), logger.ErrorField(err))
		return nil, err
	}
	if result.Code != 200 {
		return nil, fmt.Errorf("gateway error code %d", result.Code)
	}

	logger.Info("[PlaylistTracks] fetched playlist tracks",
		logger.Int64("playlistId", playlistID),
		logger.Int("songs", len(result.Songs)))
	return result.Songs, nil
}
