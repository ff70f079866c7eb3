package stream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"unifm/logger"
)

// Proxy lifecycle states.
const (
	StateStopped int32 = iota
	StateStarting
	StateReady
)

// copyChunkSize is the buffer used when piping upstream audio to the player.
const copyChunkSize = 32 * 1024

// Proxy is the loopback streaming proxy. The player never sees provider
// URLs; it plays http://127.0.0.1:<port>/<source>/<trackId> and the proxy
// resolves and pipes the upstream stream, forwarding Range requests so
// seeking works.
type Proxy struct {
	resolvers map[string]*Resolver
	upstream  *http.Client

	mu       sync.Mutex
	state    int32
	port     int
	server   *http.Server
	listener net.Listener
}

// NewProxy creates a stopped proxy. Resolvers are registered per source
// scheme before Start.
func NewProxy() *Proxy {
	return &Proxy{
		resolvers: make(map[string]*Resolver),
		// No overall timeout: audio streams stay open for minutes. Dial and
		// header deadlines still bound a dead upstream.
		upstream: &http.Client{
			Transport: &http.Transport{
				ResponseHeaderTimeout: 30 * time.Second,
				IdleConnTimeout:       90 * time.Second,
			},
		},
	}
}

// Register binds a source scheme ("netease") to its URL resolver. Must be
// called before Start.
func (p *Proxy) Register(source string, resolver *Resolver) {
	p.resolvers[source] = resolver
}

// Start binds a loopback listener on an ephemeral port and begins serving.
// Idempotent: starting a running proxy is a no-op.
func (p *Proxy) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateStopped {
		return nil
	}
	p.state = StateStarting

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		p.state = StateStopped
		return fmt.Errorf("failed to bind proxy listener: %w", err)
	}

	router := mux.NewRouter()
	router.HandleFunc("/{source}/{trackId}", p.handleStream).Methods(http.MethodGet)

	server := &http.Server{Handler: router}
	p.listener = ln
	p.port = ln.Addr().(*net.TCPAddr).Port
	p.server = server
	p.state = StateReady

	go func() {
		if err := server.Serve(ln); err != nil && err != http.ErrServerClosed {
			logger.Error("[Proxy] serve failed", logger.ErrorField(err))
		}
	}()

	logger.Info("[Proxy] listening", logger.Int("port", p.port))
	return nil
}

// Stop shuts the listener down and drops every cached streaming URL, so a
// later Start begins with a cold cache.
func (p *Proxy) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.state == StateStopped {
		p.mu.Unlock()
		return nil
	}
	server := p.server
	p.server = nil
	p.listener = nil
	p.port = 0
	p.state = StateStopped
	p.mu.Unlock()

	for _, r := range p.resolvers {
		r.Clear()
	}

	if server != nil {
		return server.Shutdown(ctx)
	}
	return nil
}

// Port returns the bound port, 0 when not running.
func (p *Proxy) Port() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReady {
		return 0
	}
	return p.port
}

// StreamURL returns the local playback URL for a track, or "" while the
// proxy is not ready.
func (p *Proxy) StreamURL(source string, trackID int64) string {
	port := p.Port()
	if port == 0 {
		return ""
	}
	return fmt.Sprintf("http://127.0.0.1:%d/%s/%d", port, source, trackID)
}

// ResolvePlaybackURI maps an opaque catalog URI like "netease://1855519" to
// its local proxy URL. Non-proxy URIs (plain file paths) pass through
// unchanged; proxy URIs return "" while the proxy is not ready.
func (p *Proxy) ResolvePlaybackURI(uri string) string {
	scheme, rest, found := strings.Cut(uri, "://")
	if !found {
		return uri
	}
	if _, ok := p.resolvers[scheme]; !ok {
		return uri
	}
	trackID, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || trackID <= 0 {
		return ""
	}
	return p.StreamURL(scheme, trackID)
}

func (p *Proxy) handleStream(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	source := vars["source"]

	resolver, ok := p.resolvers[source]
	if !ok {
		http.Error(w, "unknown source", http.StatusNotFound)
		return
	}

	trackID, err := strconv.ParseInt(vars["trackId"], 10, 64)
	if err != nil || trackID <= 0 {
		http.Error(w, "invalid track id", http.StatusBadRequest)
		return
	}

	upstreamURL, err := resolver.Resolve(r.Context(), trackID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			http.Error(w, "track not available", http.StatusNotFound)
			return
		}
		logger.Error("[Proxy] resolve failed",
			logger.String("source", source),
			logger.Int64("trackId", trackID),
			logger.ErrorField(err))
		http.Error(w, "upstream resolve failed", http.StatusBadGateway)
		return
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, upstreamURL, nil)
	if err != nil {
		http.Error(w, "bad upstream url", http.StatusBadGateway)
		return
	}
	if rangeHeader := r.Header.Get("Range"); rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}

	resp, err := p.upstream.Do(req)
	if err != nil {
		if isClientDisconnect(err) {
			return
		}
		logger.Error("[Proxy] upstream request failed",
			logger.Int64("trackId", trackID),
			logger.ErrorField(err))
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusPartialContent {
		logger.Warn("[Proxy] upstream rejected request",
			logger.Int64("trackId", trackID),
			logger.Int("status", resp.StatusCode))
		http.Error(w, "upstream fetch failed", http.StatusBadGateway)
		return
	}

	copyHeader(w, resp, "Content-Type", "audio/mpeg")
	copyHeader(w, resp, "Content-Length", "")
	copyHeader(w, resp, "Content-Range", "")
	copyHeader(w, resp, "Accept-Ranges", "bytes")
	w.WriteHeader(resp.StatusCode)

	buf := make([]byte, copyChunkSize)
	if _, err := io.CopyBuffer(w, resp.Body, buf); err != nil {
		// Seeks and track skips abort the transfer; only log real faults.
		if !isClientDisconnect(err) {
			logger.Warn("[Proxy] stream copy interrupted",
				logger.Int64("trackId", trackID),
				logger.ErrorField(err))
		}
	}
}

func copyHeader(w http.ResponseWriter, resp *http.Response, name, fallback string) {
	if v := resp.Header.Get(name); v != "" {
		w.Header().Set(name, v)
	} else if fallback != "" {
		w.Header().Set(name, fallback)
	}
}

func isClientDisconnect(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) ||
		errors.Is(err, syscall.EPIPE) ||
		errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "broken pipe") ||
		strings.Contains(msg, "connection reset by peer") ||
		strings.Contains(msg, "client disconnected")
}
