// Package headless provides a webview.Renderer that backs panes with plain
// HTTP fetches instead of an embedded browser engine. panehost uses it so
// the pane lifecycle can run on machines without a desktop shell; the
// events it emits follow the same vocabulary a native webview layer
// produces, including Chromium-style negative error codes.
package headless

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/paperbark/paperbark/internal/platform/timeouts"
	"github.com/paperbark/paperbark/internal/webview"
)

const (
	// DefaultMaxBodyBytes caps how much of a fetched document is read.
	DefaultMaxBodyBytes = 2 << 20
	// DefaultMaxRedirects caps redirect hops for a single load.
	DefaultMaxRedirects = 10
	// DefaultUserAgent identifies pane fetches to origin servers.
	DefaultUserAgent = "paperbark-panehost/1.0"
)

var errTooManyRedirects = errors.New("too many redirects")

// redirectObserverKey carries a per-load redirect callback through the
// request context, since profile clients are shared between panes.
type redirectObserverKey struct{}

// Config tunes fetch behavior for every pane the renderer allocates.
type Config struct {
	// FetchTimeout bounds one load, redirects included.
	FetchTimeout time.Duration
	// MaxBodyBytes caps how much of a response body is read.
	MaxBodyBytes int64
	// MaxRedirects caps redirect hops before a load fails.
	MaxRedirects int
	// UserAgent is sent with every fetch.
	UserAgent string
}

// Renderer allocates HTTP-backed panes. Panes sharing a profile share one
// client and therefore one cookie jar; distinct profiles stay isolated.
type Renderer struct {
	config Config

	mu      sync.Mutex
	clients map[string]*http.Client
	panes   map[string]*pane
}

// New builds a renderer, filling zero config fields with defaults.
func New(config Config) *Renderer {
	if config.FetchTimeout <= 0 {
		config.FetchTimeout = timeouts.PaneFetch
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if config.MaxRedirects <= 0 {
		config.MaxRedirects = DefaultMaxRedirects
	}
	if strings.TrimSpace(config.UserAgent) == "" {
		config.UserAgent = DefaultUserAgent
	}
	return &Renderer{
		config:  config,
		clients: make(map[string]*http.Client),
		panes:   make(map[string]*pane),
	}
}

// Allocate builds a pane for the allocation and starts loading its URL.
func (r *Renderer) Allocate(ctx context.Context, alloc webview.Allocation) (webview.Handle, error) {
	if r == nil {
		return nil, fmt.Errorf("renderer is not configured")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	viewID := strings.TrimSpace(alloc.ViewID)
	if viewID == "" {
		return nil, fmt.Errorf("view id is required")
	}
	rawURL := strings.TrimSpace(alloc.URL)
	if rawURL == "" {
		return nil, fmt.Errorf("url is required")
	}

	client, err := r.clientFor(strings.TrimSpace(alloc.Profile))
	if err != nil {
		return nil, fmt.Errorf("build profile client: %w", err)
	}

	p := newPane(viewID, client, r.config, func() { r.forget(viewID) })
	r.mu.Lock()
	r.panes[viewID] = p
	r.mu.Unlock()

	p.SetBounds(alloc.Bounds)
	p.Load(rawURL)
	return p, nil
}

// Title returns the document title the pane last extracted. The second
// return is false once the pane is gone.
func (r *Renderer) Title(viewID string) (string, bool) {
	if r == nil {
		return "", false
	}
	r.mu.Lock()
	p, ok := r.panes[viewID]
	r.mu.Unlock()
	if !ok {
		return "", false
	}
	return p.title(), true
}

func (r *Renderer) clientFor(profile string) (*http.Client, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[profile]; ok {
		return client, nil
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("build cookie jar: %w", err)
	}
	client := &http.Client{
		Jar:           jar,
		CheckRedirect: r.checkRedirect,
	}
	r.clients[profile] = client
	return client, nil
}

func (r *Renderer) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= r.config.MaxRedirects {
		return errTooManyRedirects
	}
	if observe, ok := req.Context().Value(redirectObserverKey{}).(func(*url.URL)); ok {
		observe(req.URL)
	}
	return nil
}

func (r *Renderer) forget(viewID string) {
	r.mu.Lock()
	delete(r.panes, viewID)
	r.mu.Unlock()
}
