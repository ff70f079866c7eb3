package stream

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func startTestProxy(t *testing.T, issuer URLIssuer) *Proxy {
	t.Helper()
	p := NewProxy()
	p.Register("netease", NewResolver(issuer, 10*time.Minute))
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { p.Stop(context.Background()) })
	return p
}

func audioUpstream(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/mpeg")
		http.ServeContent(w, r, "track.mp3", time.Now(), strings.NewReader(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestProxyStreamsUpstream(t *testing.T) {
	body := strings.Repeat("abcdefgh", 8192)
	upstream := audioUpstream(t, body)
	p := startTestProxy(t, IssuerFunc(func(ctx context.Context, trackID int64) (string, error) {
		return upstream.URL + "/track.mp3", nil
	}))

	resp, err := http.Get(p.StreamURL("netease", 42))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); got != "audio/mpeg" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := resp.Header.Get("Accept-Ranges"); got != "bytes" {
		t.Fatalf("expected Accept-Ranges bytes, got %q", got)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != body {
		t.Fatalf("body mismatch: got %d bytes, want %d", len(data), len(body))
	}
}

func TestProxyForwardsRange(t *testing.T) {
	body := strings.Repeat("0123456789", 100)
	upstream := audioUpstream(t, body)
	p := startTestProxy(t, IssuerFunc(func(ctx context.Context, trackID int64) (string, error) {
		return upstream.URL + "/track.mp3", nil
	}))

	req, _ := http.NewRequest(http.MethodGet, p.StreamURL("netease", 42), nil)
	req.Header.Set("Range", "bytes=100-199")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Range"); got != "bytes 100-199/1000" {
		t.Fatalf("unexpected Content-Range %q", got)
	}
	if got := resp.Header.Get("Content-Length"); got != "100" {
		t.Fatalf("unexpected Content-Length %q", got)
	}
	data, _ := io.ReadAll(resp.Body)
	if string(data) != body[100:200] {
		t.Fatalf("wrong byte range served")
	}
}

func TestProxyRejectsBadTrackID(t *testing.T) {
	p := startTestProxy(t, IssuerFunc(func(ctx context.Context, trackID int64) (string, error) {
		t.Fatal("issuer must not be called for invalid IDs")
		return "", nil
	}))

	base := p.StreamURL("netease", 1)
	base = base[:strings.LastIndex(base, "/")+1]
	for _, id := range []string{"abc", "-5", "0"} {
		resp, err := http.Get(base + id)
		if err != nil {
			t.Fatalf("GET %s: %v", id, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("id %q: expected 400, got %d", id, resp.StatusCode)
		}
	}
}

func TestProxyNotFound(t *testing.T) {
	p := startTestProxy(t, IssuerFunc(func(ctx context.Context, trackID int64) (string, error) {
		return "", ErrNotFound
	}))

	resp, err := http.Get(p.StreamURL("netease", 42))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestProxyUpstreamFailure(t *testing.T) {
	p := startTestProxy(t, IssuerFunc(func(ctx context.Context, trackID int64) (string, error) {
		return "", errors.New("gateway down")
	}))

	resp, err := http.Get(p.StreamURL("netease", 42))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", resp.StatusCode)
	}
}

func TestProxyUpstreamRejection(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(upstream.Close)
	p := startTestProxy(t, IssuerFunc(func(ctx context.Context, trackID int64) (string, error) {
		return upstream.URL, nil
	}))

	resp, err := http.Get(p.StreamURL("netease", 42))
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 on upstream 403, got %d", resp.StatusCode)
	}
}

func TestProxyLifecycle(t *testing.T) {
	p := NewProxy()
	p.Register("netease", NewResolver(IssuerFunc(func(ctx context.Context, trackID int64) (string, error) {
		return "http://cdn/x.mp3", nil
	}), time.Minute))

	if p.Port() != 0 {
		t.Fatal("stopped proxy must report port 0")
	}
	if got := p.ResolvePlaybackURI("netease://42"); got != "" {
		t.Fatalf("stopped proxy must resolve to empty, got %q", got)
	}

	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("second Start must be a no-op: %v", err)
	}
	if p.Port() == 0 {
		t.Fatal("running proxy must report its port")
	}

	uri := p.ResolvePlaybackURI("netease://42")
	if !strings.HasPrefix(uri, "http://127.0.0.1:") || !strings.HasSuffix(uri, "/netease/42") {
		t.Fatalf("unexpected playback URI %q", uri)
	}

	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if p.Port() != 0 {
		t.Fatal("stopped proxy must report port 0 again")
	}
}

func TestProxyStopClearsResolverCache(t *testing.T) {
	calls := 0
	upstream := audioUpstream(t, "audio")
	issuer := IssuerFunc(func(ctx context.Context, trackID int64) (string, error) {
		calls++
		return upstream.URL + "/track.mp3", nil
	})

	p := NewProxy()
	p.Register("netease", NewResolver(issuer, 10*time.Minute))
	if err := p.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 2; i++ {
		resp, err := http.Get(p.StreamURL("netease", 42))
		if err != nil {
			t.Fatalf("GET: %v", err)
		}
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}
	if calls != 1 {
		t.Fatalf("expected cached URL on second request, got %d issues", calls)
	}

	if err := p.Stop(context.Background()); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if err := p.Start(); err != nil {
		t.Fatalf("restart: %v", err)
	}
	t.Cleanup(func() { p.Stop(context.Background()) })

	resp, err := http.Get(p.StreamURL("netease", 42))
	if err != nil {
		t.Fatalf("GET after restart: %v", err)
	}
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	if calls != 2 {
		t.Fatalf("restart must start with a cold cache, got %d issues", calls)
	}
}

func TestResolvePlaybackURIPassthrough(t *testing.T) {
	p := NewProxy()
	if got := p.ResolvePlaybackURI("/music/local/song.mp3"); got != "/music/local/song.mp3" {
		t.Fatalf("local paths must pass through, got %q", got)
	}
	if got := p.ResolvePlaybackURI("spotify://42"); got != "spotify://42" {
		t.Fatalf("unregistered schemes must pass through, got %q", got)
	}
}
