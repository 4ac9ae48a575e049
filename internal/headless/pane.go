package headless

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"syscall"

	"github.com/paperbark/paperbark/internal/webview"
)

// Net error codes as a native webview layer reports them.
const (
	codeFailed            = -2
	codeAborted           = -3
	codeConnectionRefused = -6
	codeTimedOut          = -7
	codeNameNotResolved   = -105
	codeInvalidURL        = -300
	codeTooManyRedirects  = -310
)

// fetchState tracks one in-flight load so a later load or Destroy can
// abort it.
type fetchState struct {
	seq    uint64
	url    string
	cancel context.CancelFunc
}

// pane implements webview.Handle on top of plain HTTP fetches. Every event
// send is guarded by the closed channel and covered by wg, so Destroy can
// close the events channel without racing an emit.
type pane struct {
	viewID string
	client *http.Client
	config Config
	detach func()

	events chan webview.PageEvent
	closed chan struct{}
	wg     sync.WaitGroup

	mu         sync.Mutex
	destroyed  bool
	visible    bool
	bounds     webview.Bounds
	loadSeq    uint64
	inflight   *fetchState
	pendingURL string
	currentURL string
	history    []string
	docTitle   string
}

func newPane(viewID string, client *http.Client, config Config, detach func()) *pane {
	return &pane{
		viewID: viewID,
		client: client,
		config: config,
		detach: detach,
		events: make(chan webview.PageEvent, 32),
		closed: make(chan struct{}),
	}
}

// Load starts fetching a URL. A load already in flight is aborted first and
// surfaces as a main-frame fail-load with the aborted code, in that order,
// so consumers see abort-then-start exactly like a navigation interrupted
// inside a browser engine.
func (p *pane) Load(rawURL string) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return
	}

	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	superseded := p.inflight
	p.loadSeq++
	seq := p.loadSeq
	ctx, cancel := context.WithTimeout(context.Background(), p.config.FetchTimeout)
	p.inflight = &fetchState{seq: seq, url: rawURL, cancel: cancel}
	p.pendingURL = rawURL
	p.wg.Add(1)
	p.mu.Unlock()

	if superseded != nil {
		superseded.cancel()
		p.emit(failEvent(superseded.url, codeAborted, "ERR_ABORTED"))
	}
	p.emit(webview.PageEvent{Kind: webview.EventStartNavigation, MainFrame: true, URL: rawURL})

	go p.run(ctx, cancel, seq, rawURL)
}

func (p *pane) run(ctx context.Context, cancel context.CancelFunc, seq uint64, rawURL string) {
	defer p.wg.Done()
	defer cancel()

	if !p.isCurrent(seq) {
		return
	}
	p.fetch(ctx, seq, rawURL)
}

func (p *pane) fetch(ctx context.Context, seq uint64, rawURL string) {
	observe := func(next *url.URL) {
		p.emitIfCurrent(seq, webview.PageEvent{Kind: webview.EventRedirect, MainFrame: true, URL: next.String()})
	}
	reqCtx := context.WithValue(ctx, redirectObserverKey{}, observe)

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		p.settle(seq)
		p.emitIfCurrent(seq, failEvent(rawURL, codeInvalidURL, "ERR_INVALID_URL"))
		return
	}
	req.Header.Set("User-Agent", p.config.UserAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		p.settle(seq)
		code, description := classifyFetchError(err)
		p.emitIfCurrent(seq, failEvent(rawURL, code, description))
		return
	}
	defer func() { _ = resp.Body.Close() }()

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	// An error status is still a page; only transport failures fail the load.
	body, err := io.ReadAll(io.LimitReader(resp.Body, p.config.MaxBodyBytes))
	// Nothing is left to abort once the body read returns, so settle before
	// emitting; a Load racing in here starts clean instead of reporting an
	// abort for work that already finished.
	p.settle(seq)
	if err != nil {
		code, description := classifyFetchError(err)
		p.emitIfCurrent(seq, failEvent(finalURL, code, description))
		return
	}

	title := ""
	if isHTMLContent(resp.Header.Get("Content-Type")) {
		title = documentTitle(body)
	}
	if !p.commit(seq, finalURL, title) {
		return
	}
	p.emit(webview.PageEvent{Kind: webview.EventNavigate, MainFrame: true, URL: finalURL})
	p.emit(webview.PageEvent{Kind: webview.EventFinishLoad, MainFrame: true, URL: finalURL})
}

// commit records a completed navigation. It reports false when the load was
// superseded or the pane destroyed while the fetch ran.
func (p *pane) commit(seq uint64, finalURL, title string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.destroyed || p.loadSeq != seq {
		return false
	}
	p.currentURL = finalURL
	p.docTitle = title
	if len(p.history) == 0 || p.history[len(p.history)-1] != finalURL {
		p.history = append(p.history, finalURL)
	}
	return true
}

func (p *pane) settle(seq uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.inflight != nil && p.inflight.seq == seq {
		p.inflight = nil
	}
}

func (p *pane) isCurrent(seq uint64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.destroyed && p.loadSeq == seq
}

func (p *pane) emitIfCurrent(seq uint64, event webview.PageEvent) {
	if p.isCurrent(seq) {
		p.emit(event)
	}
}

func (p *pane) emit(event webview.PageEvent) {
	select {
	case <-p.closed:
	case p.events <- event:
	}
}

// SetBounds records the surface position a native layer would apply.
func (p *pane) SetBounds(bounds webview.Bounds) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	p.bounds = bounds
}

// Show marks the pane attached to the visible surface.
func (p *pane) Show() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	p.visible = true
}

// Hide detaches the pane from the visible surface without releasing it.
func (p *pane) Hide() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.destroyed {
		return
	}
	p.visible = false
}

// Reload refetches the last requested URL. After a failed load that is the
// URL that failed, which is what a retry needs.
func (p *pane) Reload() {
	p.mu.Lock()
	target := p.pendingURL
	if target == "" {
		target = p.currentURL
	}
	destroyed := p.destroyed
	p.mu.Unlock()

	if destroyed || target == "" {
		return
	}
	p.Load(target)
}

// CanGoBack reports whether the pane has somewhere to navigate back to.
func (p *pane) CanGoBack() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.destroyed && len(p.history) > 1
}

// Events streams the pane's raw lifecycle signals until Destroy closes it.
func (p *pane) Events() <-chan webview.PageEvent {
	return p.events
}

// Destroy aborts in-flight work, closes the event channel, and turns every
// later method call into a no-op.
func (p *pane) Destroy() {
	p.mu.Lock()
	if p.destroyed {
		p.mu.Unlock()
		return
	}
	p.destroyed = true
	inflight := p.inflight
	p.inflight = nil
	p.mu.Unlock()

	close(p.closed)
	if inflight != nil {
		inflight.cancel()
	}
	p.wg.Wait()
	close(p.events)
	if p.detach != nil {
		p.detach()
	}
}

func (p *pane) title() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.docTitle
}

func failEvent(rawURL string, code int, description string) webview.PageEvent {
	return webview.PageEvent{
		Kind:        webview.EventFailLoad,
		MainFrame:   true,
		URL:         rawURL,
		Code:        code,
		Description: description,
	}
}

func classifyFetchError(err error) (int, string) {
	var dnsErr *net.DNSError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return codeTimedOut, "ERR_TIMED_OUT"
	case errors.Is(err, context.Canceled):
		return codeAborted, "ERR_ABORTED"
	case errors.Is(err, errTooManyRedirects):
		return codeTooManyRedirects, "ERR_TOO_MANY_REDIRECTS"
	case errors.As(err, &dnsErr):
		return codeNameNotResolved, "ERR_NAME_NOT_RESOLVED"
	case errors.Is(err, syscall.ECONNREFUSED):
		return codeConnectionRefused, "ERR_CONNECTION_REFUSED"
	}
	return codeFailed, "ERR_FAILED"
}
