// Package netease is the client for the community Netease Cloud Music API
// gateway. The wire protocol is treated as opaque HTTP/JSON: each call
// checks the gateway's `code` field and surfaces anything unexpected as a
// wrapped error.
package netease

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"unifm/core/session"

	"golang.org/x/time/rate"
)

// ErrSongUnavailable is returned when the provider reports a song but will
// not issue a playback URL for it (region locks, missing licenses). Distinct
// from transport failures so callers can map it to "not found".
var ErrSongUnavailable = errors.New("netease: song has no playable url")

// Client talks to the Netease API gateway.
type Client struct {
	baseURL    string
	quality    string
	httpClient *http.Client
	limiter    *rate.Limiter
	session    *session.Store
}

// NewClient creates a provider client. session may be nil, in which case no
// cookies are attached (anonymous access, mostly useful in tests).
func NewClient(baseURL, quality string, ratePerSec int, sess *session.Store) *Client {
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	return &Client{
		baseURL: baseURL,
		quality: quality,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec),
		session: sess,
	}
}

// createRequest builds a GET request carrying the stored session cookies.
// The os=pc cookie makes the gateway return full-bitrate URLs.
func (c *Client) createRequest(ctx context.Context, url string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.AddCookie(&http.Cookie{Name: "os", Value: "pc"})
	if c.session != nil {
		for name, value := range c.session.Cookies() {
			req.AddCookie(&http.Cookie{Name: name, Value: value})
		}
	}
	return req, nil
}

// getJSON performs a rate-limited GET and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	req, err := c.createRequest(ctx, url)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("gateway returned status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
