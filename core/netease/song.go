package netease

import (
	"context"
	"fmt"
	"net/url"

	"unifm/logger"
	"unifm/model"
)

// SongURL asks the provider to issue a short-lived playback URL for a track.
// Returns ErrSongUnavailable when the provider declines, which is a distinct
// condition from transport or parse failures.
func (c *Client) SongURL(ctx context.Context, songID int64) (string, error) {
	endpoint := fmt.Sprintf("%s/song/url/v1?id=%d&level=%s", c.baseURL, songID, url.QueryEscape(c.quality))

	var result struct {
		Data []struct {
			ID      int64  `json:"id"`
			URL     string `json:"url"`
			Bitrate int    `json:"br"`
		} `json:"data"`
		Code int    `json:"code"`
		Msg  string `json:"msg,omitempty"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		logger.Error("[SongURL] request failed", logger.Int64("songId", songID), logger.ErrorField(err))
		return "", err
	}
	if result.Code != 200 {
		return "", fmt.Errorf("gateway error: %s (code %d)", result.Msg, result.Code)
	}
	if len(result.Data) == 0 || result.Data[0].URL == "" {
		logger.Warn("[SongURL] provider issued no url, likely region or license restricted",
			logger.Int64("songId", songID))
		return "", ErrSongUnavailable
	}

	logger.Debug("[SongURL] issued playback url",
		logger.Int64("songId", songID),
		logger.Int("bitrate", result.Data[0].Bitrate))
	return result.Data[0].URL, nil
}

// SongDetail fetches the metadata of a single track.
func (c *Client) SongDetail(ctx context.Context, songID int64) (*model.NeteaseSong, error) {
	endpoint := fmt.Sprintf("%s/song/detail?ids=%d", c.baseURL, songID)

	var result struct {
		Songs []model.NeteaseSong `json:"songs"`
		Code  int                 `json:"code"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		logger.Error("[SongDetail] request failed", logger.Int64("songId", songID), logger.ErrorField(err))
		return nil, err
	}
	if result.Code != 200 {
		return nil, fmt.Errorf("gateway error code %d", result.Code)
	}
	if len(result.Songs) == 0 {
		return nil, fmt.Errorf("song %d not found", songID)
	}
	return &result.Songs[0], nil
}

// Search queries the provider's track search.
func (c *Client) Search(ctx context.Context, keyword string, limit, offset int) (*model.NeteaseSearchResult, error) {
	params := url.Values{}
	params.Set("keywords", keyword)
	params.Set("limit", fmt.Sprintf("%d", limit))
	params.Set("offset", fmt.Sprintf("%d", offset))
	endpoint := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())

	var result struct {
		Result struct {
			Songs []struct {
				ID      int64  `json:"id"`
				Name    string `json:"name"`
				Artists []struct {
					ID        int64  `json:"id"`
					Name      string `json:"name"`
					Img1v1URL string `json:"img1v1Url"`
				} `json:"artists"`
				Album struct {
					ID     int64  `json:"id"`
					Name   string `json:"name"`
					PicURL string `json:"picUrl"`
				} `json:"album"`
				Duration int `json:"duration"`
			} `json:"songs"`
			Total int `json:"songCount"`
		} `json:"result"`
		Code int `json:"code"`
	}
	if err := c.getJSON(ctx, endpoint, &result); err != nil {
		logger.Error("[Search] request failed", logger.String("keyword", keyword), logger.ErrorField(err))
		return nil, err
	}
	if result.Code != 200 {
		return nil, fmt.Errorf("gateway error code %d", result.Code)
	}

	searchResult := &model.NeteaseSearchResult{
		Total: result.Result.Total,
		Songs: make([]model.NeteaseSong, len(result.Result.Songs)),
	}
	for i, song := range result.Result.Songs {
		// Search results often lack the album cover; fall back to the first
		// artist portrait.
		picURL := song.Album.PicURL
		if picURL == "" && len(song.Artists) > 0 {
			picURL = song.Artists[0].Img1v1URL
		}

		artists := make([]model.NeteaseArtist, len(song.Artists))
		for j, artist := range song.Artists {
			artists[j] = model.NeteaseArtist{ID: artist.ID, Name: artist.Name}
		}

		searchResult.Songs[i] = model.NeteaseSong{
			ID:      song.ID,
			Name:    song.Name,
			Artists: artists,
			Album: model.NeteaseAlbum{
				ID:     song.Album.ID,
				Name:   song.Album.Name,
				PicURL: picURL,
			},
			Duration: song.Duration,
		}
	}

	logger.Info("[Search] search completed",
		logger.String("keyword", keyword),
		logger.Int("found", len(searchResult.Songs)))
	return searchResult, nil
}
