// Package gateway exposes the pane engine and block store to editor
// processes over a WebSocket JSON protocol. Each inbound frame is one
// editor intent; outbound frames are per-request acks or errors plus
// broadcast pane lifecycle notices.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/websocket"

	"github.com/paperbark/paperbark/internal/blockstore"
	"github.com/paperbark/paperbark/internal/platform/id"
	"github.com/paperbark/paperbark/internal/platform/timeouts"
	"github.com/paperbark/paperbark/internal/webview"
)

const (
	maxFramePayloadBytes   = 16 * 1024
	maxFramesPerSecond     = 40
	maxDecodeErrorsPerConn = 3

	tracerName = "github.com/paperbark/paperbark/internal/gateway"
)

// Config defines the inputs for the gateway transport boundary.
type Config struct {
	HTTPAddr          string
	ReadHeaderTimeout time.Duration
	ShutdownTimeout   time.Duration
}

// TitleSource looks up the current document title for a live pane. The
// headless renderer satisfies it; a native shell may not, so it is
// optional.
type TitleSource interface {
	Title(viewID string) (string, bool)
}

// Server hosts the gateway HTTP/WebSocket process.
type Server struct {
	httpAddr        string
	shutdownTimeout time.Duration
	httpServer      *http.Server
}

type wsFrame struct {
	Type      string          `json:"type"`
	RequestID string          `json:"request_id,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type wsErrorEnvelope struct {
	Error wsError `json:"error"`
}

type wsError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type ackEnvelope struct {
	Result ackResult `json:"result"`
}

type ackResult struct {
	Status  string         `json:"status"`
	ViewID  string         `json:"view_id,omitempty"`
	BlockID string         `json:"block_id,omitempty"`
	Count   int            `json:"count,omitempty"`
	Panes   []paneSummary  `json:"panes,omitempty"`
	Blocks  []blockSummary `json:"blocks,omitempty"`
}

type boundsPayload struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

func (b boundsPayload) toBounds() webview.Bounds {
	return webview.Bounds{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func fromBounds(b webview.Bounds) boundsPayload {
	return boundsPayload{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

type paneCreatePayload struct {
	ViewID  string        `json:"view_id,omitempty"`
	URL     string        `json:"url"`
	Profile string        `json:"profile,omitempty"`
	Layout  string        `json:"layout,omitempty"`
	Bounds  boundsPayload `json:"bounds"`
}

type paneBoundsPayload struct {
	ViewID string        `json:"view_id"`
	Layout string        `json:"layout,omitempty"`
	Bounds boundsPayload `json:"bounds"`
}

type paneURLPayload struct {
	ViewID string `json:"view_id"`
	URL    string `json:"url"`
}

type paneIDPayload struct {
	ViewID string `json:"view_id"`
}

type paneSummary struct {
	ViewID       string        `json:"view_id"`
	URL          string        `json:"url"`
	Profile      string        `json:"profile,omitempty"`
	Layout       string        `json:"layout"`
	Phase        string        `json:"phase"`
	CanGoBack    bool          `json:"can_go_back,omitempty"`
	ErrorCode    int           `json:"error_code,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	RefCount     int           `json:"ref_count"`
	GCCandidate  bool          `json:"gc_candidate,omitempty"`
	LastAccess   string        `json:"last_access"`
	Bounds       boundsPayload `json:"bounds"`
	Title        string        `json:"title,omitempty"`
}

type blockCreatePayload struct {
	BlockID  string        `json:"block_id,omitempty"`
	DocID    string        `json:"doc_id"`
	URL      string        `json:"url"`
	Profile  string        `json:"profile,omitempty"`
	Layout   string        `json:"layout,omitempty"`
	Position int           `json:"position,omitempty"`
	Bounds   boundsPayload `json:"bounds"`
}

type blockDeletePayload struct {
	BlockID string `json:"block_id"`
}

type blockListPayload struct {
	DocID string `json:"doc_id"`
}

type blockSummary struct {
	BlockID   string `json:"block_id"`
	DocID     string `json:"doc_id"`
	URL       string `json:"url"`
	Profile   string `json:"profile,omitempty"`
	Layout    string `json:"layout"`
	Position  int    `json:"position"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type wsPeer struct {
	mu      sync.Mutex
	encoder *json.Encoder
}

func newWSPeer(encoder *json.Encoder) *wsPeer {
	return &wsPeer{encoder: encoder}
}

func (p *wsPeer) writeFrame(frame wsFrame) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.encoder.Encode(frame)
}

// core bundles the collaborators every frame handler needs.
type core struct {
	engine *webview.Engine
	blocks blockstore.Store
	titles TitleSource
	hub    *Hub
	tracer trace.Tracer
}

// New builds a configured gateway server. The hub may be shared with the
// engine's sink; pass nil to have the server make its own.
func New(config Config, engine *webview.Engine, blocks blockstore.Store, titles TitleSource, hub *Hub) (*Server, error) {
	httpAddr := strings.TrimSpace(config.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	if engine == nil {
		return nil, errors.New("engine is required")
	}
	if config.ReadHeaderTimeout <= 0 {
		config.ReadHeaderTimeout = timeouts.ReadHeader
	}
	if config.ShutdownTimeout <= 0 {
		config.ShutdownTimeout = timeouts.Shutdown
	}

	httpServer := &http.Server{
		Addr:              httpAddr,
		Handler:           NewHandler(engine, blocks, titles, hub),
		ReadHeaderTimeout: config.ReadHeaderTimeout,
	}

	return &Server{
		httpAddr:        httpAddr,
		shutdownTimeout: config.ShutdownTimeout,
		httpServer:      httpServer,
	}, nil
}

// NewHandler builds the gateway routes without the server wrapper, for
// tests and embedding hosts.
func NewHandler(engine *webview.Engine, blocks blockstore.Store, titles TitleSource, hub *Hub) http.Handler {
	if hub == nil {
		hub = NewHub()
	}
	c := &core{
		engine: engine,
		blocks: blocks,
		titles: titles,
		hub:    hub,
		tracer: otel.Tracer(tracerName),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	wsHandler := websocket.Handler(func(conn *websocket.Conn) {
		c.handleWSConn(conn)
	})
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		wsHandler.ServeHTTP(w, r)
	})

	return mux
}

// ListenAndServe runs the HTTP server until the context ends.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("gateway server is nil")
	}
	if ctx == nil {
		return errors.New("context is required")
	}

	serveErr := make(chan error, 1)
	log.Printf("gateway listening on %s", s.httpAddr)
	go func() {
		serveErr <- s.httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
		err := s.httpServer.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("shutdown http server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve http: %w", err)
	}
}

func (c *core) handleWSConn(conn *websocket.Conn) {
	defer func() {
		_ = conn.Close()
	}()

	ctx := context.Background()
	if request := conn.Request(); request != nil {
		ctx = request.Context()
	}

	decoder := json.NewDecoder(conn)
	peer := newWSPeer(json.NewEncoder(conn))
	c.hub.subscribe(peer)
	defer c.hub.unsubscribe(peer)

	windowStart := time.Now()
	framesInWindow := 0
	decodeErrors := 0

	for {
		var frame wsFrame
		if err := decoder.Decode(&frame); err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			decodeErrors++
			_ = writeWSError(peer, "", "INVALID_ARGUMENT", "invalid frame payload")
			if decodeErrors >= maxDecodeErrorsPerConn {
				return
			}
			continue
		}
		decodeErrors = 0

		if len(frame.Payload) > maxFramePayloadBytes {
			_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "payload too large")
			continue
		}

		now := time.Now()
		if now.Sub(windowStart) >= time.Second {
			windowStart = now
			framesInWindow = 0
		}
		framesInWindow++
		if framesInWindow > maxFramesPerSecond {
			_ = writeWSError(peer, frame.RequestID, "RESOURCE_EXHAUSTED", "rate limit exceeded")
			return
		}

		c.dispatchFrame(ctx, peer, frame)
	}
}

func (c *core) dispatchFrame(ctx context.Context, peer *wsPeer, frame wsFrame) {
	ctx, span := c.tracer.Start(ctx, frame.Type)
	defer span.End()
	if frame.RequestID != "" {
		span.SetAttributes(attribute.String("ws.request_id", frame.RequestID))
	}

	switch frame.Type {
	case "pane.create":
		c.handlePaneCreate(ctx, peer, frame)
	case "pane.bounds":
		c.handlePaneBounds(ctx, peer, frame)
	case "pane.url":
		c.handlePaneURL(ctx, peer, frame)
	case "pane.retry":
		c.handlePaneOp(ctx, peer, frame, webview.OpRetry)
	case "pane.remove":
		c.handlePaneOp(ctx, peer, frame, webview.OpRemove)
	case "pane.acquire":
		c.handlePaneAcquire(ctx, peer, frame)
	case "pane.release":
		c.handlePaneOp(ctx, peer, frame, webview.OpRelease)
	case "pane.list":
		c.handlePaneList(peer, frame)
	case "block.create":
		c.handleBlockCreate(ctx, peer, frame)
	case "block.delete":
		c.handleBlockDelete(ctx, peer, frame)
	case "block.list":
		c.handleBlockList(ctx, peer, frame)
	default:
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "unsupported frame type")
	}
}

func (c *core) handlePaneCreate(ctx context.Context, peer *wsPeer, frame wsFrame) {
	var payload paneCreatePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "invalid pane.create payload")
		return
	}

	viewID := strings.TrimSpace(payload.ViewID)
	if viewID == "" {
		minted, err := id.NewID()
		if err != nil {
			log.Printf("gateway: mint view id failed err=%v", err)
			_ = writeWSError(peer, frame.RequestID, "INTERNAL", "could not mint view id")
			return
		}
		viewID = minted
	}
	rawURL := strings.TrimSpace(payload.URL)
	if rawURL == "" {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "url is required")
		return
	}
	layout, err := webview.ParseLayout(payload.Layout)
	if err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "layout must be inline or full")
		return
	}
	bounds := payload.Bounds.toBounds()
	if !bounds.Valid() {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "bounds must have non-negative dimensions")
		return
	}

	c.engine.Dispatch(ctx, webview.Command{
		Op:      webview.OpCreate,
		ViewID:  viewID,
		URL:     rawURL,
		Profile: strings.TrimSpace(payload.Profile),
		Layout:  layout,
		Bounds:  bounds,
	})
	_ = writeAck(peer, frame.RequestID, ackResult{Status: "ok", ViewID: viewID})
}

func (c *core) handlePaneBounds(ctx context.Context, peer *wsPeer, frame wsFrame) {
	var payload paneBoundsPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "invalid pane.bounds payload")
		return
	}

	viewID := strings.TrimSpace(payload.ViewID)
	if viewID == "" {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "view_id is required")
		return
	}
	// Empty layout means "leave as is", so it skips ParseLayout's default.
	var layout webview.Layout
	if strings.TrimSpace(payload.Layout) != "" {
		parsed, err := webview.ParseLayout(payload.Layout)
		if err != nil {
			_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "layout must be inline or full")
			return
		}
		layout = parsed
	}
	bounds := payload.Bounds.toBounds()
	if !bounds.Valid() {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "bounds must have non-negative dimensions")
		return
	}

	c.engine.Dispatch(ctx, webview.Command{
		Op:     webview.OpUpdateBounds,
		ViewID: viewID,
		Bounds: bounds,
		Layout: layout,
	})
	_ = writeAck(peer, frame.RequestID, ackResult{Status: "ok", ViewID: viewID})
}

func (c *core) handlePaneURL(ctx context.Context, peer *wsPeer, frame wsFrame) {
	var payload paneURLPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "invalid pane.url payload")
		return
	}

	viewID := strings.TrimSpace(payload.ViewID)
	if viewID == "" {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "view_id is required")
		return
	}
	rawURL := strings.TrimSpace(payload.URL)
	if rawURL == "" {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "url is required")
		return
	}

	c.engine.Dispatch(ctx, webview.Command{Op: webview.OpUpdateURL, ViewID: viewID, URL: rawURL})
	_ = writeAck(peer, frame.RequestID, ackResult{Status: "ok", ViewID: viewID})
}

// handlePaneOp covers the intents that carry nothing but a view id. Unknown
// ids are deliberately acked: the engine treats them as silent no-ops.
func (c *core) handlePaneOp(ctx context.Context, peer *wsPeer, frame wsFrame, op webview.Op) {
	var payload paneIDPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "invalid payload")
		return
	}

	viewID := strings.TrimSpace(payload.ViewID)
	if viewID == "" {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "view_id is required")
		return
	}

	c.engine.Dispatch(ctx, webview.Command{Op: op, ViewID: viewID})
	_ = writeAck(peer, frame.RequestID, ackResult{Status: "ok", ViewID: viewID})
}

// handlePaneAcquire adds a reference to a pane. When the pane is unknown but
// a block record exists under the same id, the pane is recreated from the
// record first; that is the mount-after-restart path.
func (c *core) handlePaneAcquire(ctx context.Context, peer *wsPeer, frame wsFrame) {
	var payload paneIDPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "invalid pane.acquire payload")
		return
	}

	viewID := strings.TrimSpace(payload.ViewID)
	if viewID == "" {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "view_id is required")
		return
	}

	if _, tracked := c.engine.View(viewID); !tracked {
		if c.blocks == nil {
			_ = writeWSError(peer, frame.RequestID, "NOT_FOUND", "no pane with that id")
			return
		}
		storeCtx, cancel := context.WithTimeout(ctx, timeouts.StoreOp)
		block, err := c.blocks.GetBlock(storeCtx, viewID)
		cancel()
		if errors.Is(err, blockstore.ErrNotFound) {
			_ = writeWSError(peer, frame.RequestID, "NOT_FOUND", "no pane or block with that id")
			return
		}
		if err != nil {
			log.Printf("gateway: block lookup failed block=%s err=%v", viewID, err)
			_ = writeWSError(peer, frame.RequestID, "INTERNAL", "block lookup failed")
			return
		}
		c.engine.Dispatch(ctx, webview.Command{
			Op:      webview.OpCreate,
			ViewID:  block.ID,
			URL:     block.URL,
			Profile: block.Profile,
			Layout:  webview.Layout(block.Layout),
		})
	}

	c.engine.Dispatch(ctx, webview.Command{Op: webview.OpAcquire, ViewID: viewID})
	_ = writeAck(peer, frame.RequestID, ackResult{Status: "ok", ViewID: viewID})
}

func (c *core) handlePaneList(peer *wsPeer, frame wsFrame) {
	entries := c.engine.World().Entries()
	summaries := make([]paneSummary, 0, len(entries))
	for _, entry := range entries {
		summary := paneSummary{
			ViewID:       entry.ID,
			URL:          entry.URL,
			Profile:      entry.Profile,
			Layout:       string(entry.Layout),
			Phase:        string(entry.Status.Phase),
			CanGoBack:    entry.Status.CanGoBack,
			ErrorCode:    entry.Status.ErrorCode,
			ErrorMessage: entry.Status.ErrorMessage,
			RefCount:     entry.RefCount,
			GCCandidate:  entry.GCCandidate,
			LastAccess:   entry.LastAccess.UTC().Format(time.RFC3339),
			Bounds:       fromBounds(entry.Bounds),
		}
		if c.titles != nil {
			if title, ok := c.titles.Title(entry.ID); ok {
				summary.Title = title
			}
		}
		summaries = append(summaries, summary)
	}

	_ = writeAck(peer, frame.RequestID, ackResult{
		Status: "ok",
		Count:  len(summaries),
		Panes:  summaries,
	})
}

func (c *core) handleBlockCreate(ctx context.Context, peer *wsPeer, frame wsFrame) {
	if c.blocks == nil {
		_ = writeWSError(peer, frame.RequestID, "INTERNAL", "block store is not configured")
		return
	}
	var payload blockCreatePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "invalid block.create payload")
		return
	}

	blockID := strings.TrimSpace(payload.BlockID)
	if blockID == "" {
		minted, err := id.NewID()
		if err != nil {
			log.Printf("gateway: mint block id failed err=%v", err)
			_ = writeWSError(peer, frame.RequestID, "INTERNAL", "could not mint block id")
			return
		}
		blockID = minted
	}
	docID := strings.TrimSpace(payload.DocID)
	if docID == "" {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "doc_id is required")
		return
	}
	rawURL := strings.TrimSpace(payload.URL)
	if rawURL == "" {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "url is required")
		return
	}
	layout, err := webview.ParseLayout(payload.Layout)
	if err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "layout must be inline or full")
		return
	}
	if payload.Position < 0 {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "position must not be negative")
		return
	}
	bounds := payload.Bounds.toBounds()
	if !bounds.Valid() {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "bounds must have non-negative dimensions")
		return
	}

	now := time.Now().UTC()
	block := blockstore.Block{
		ID:        blockID,
		DocID:     docID,
		URL:       rawURL,
		Profile:   strings.TrimSpace(payload.Profile),
		Layout:    string(layout),
		Position:  payload.Position,
		CreatedAt: now,
		UpdatedAt: now,
	}
	storeCtx, cancel := context.WithTimeout(ctx, timeouts.StoreOp)
	err = c.blocks.PutBlock(storeCtx, block)
	cancel()
	if err != nil {
		log.Printf("gateway: persist block failed block=%s err=%v", blockID, err)
		_ = writeWSError(peer, frame.RequestID, "INTERNAL", "persist block failed")
		return
	}

	// The block id doubles as the pane's view id.
	c.engine.Dispatch(ctx, webview.Command{
		Op:      webview.OpCreate,
		ViewID:  blockID,
		URL:     rawURL,
		Profile: block.Profile,
		Layout:  layout,
		Bounds:  bounds,
	})
	_ = writeAck(peer, frame.RequestID, ackResult{Status: "ok", BlockID: blockID, ViewID: blockID})
}

func (c *core) handleBlockDelete(ctx context.Context, peer *wsPeer, frame wsFrame) {
	if c.blocks == nil {
		_ = writeWSError(peer, frame.RequestID, "INTERNAL", "block store is not configured")
		return
	}
	var payload blockDeletePayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "invalid block.delete payload")
		return
	}

	blockID := strings.TrimSpace(payload.BlockID)
	if blockID == "" {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "block_id is required")
		return
	}

	storeCtx, cancel := context.WithTimeout(ctx, timeouts.StoreOp)
	err := c.blocks.DeleteBlock(storeCtx, blockID)
	cancel()
	if errors.Is(err, blockstore.ErrNotFound) {
		_ = writeWSError(peer, frame.RequestID, "NOT_FOUND", "no block with that id")
		return
	}
	if err != nil {
		log.Printf("gateway: delete block failed block=%s err=%v", blockID, err)
		_ = writeWSError(peer, frame.RequestID, "INTERNAL", "delete block failed")
		return
	}

	c.engine.Dispatch(ctx, webview.Command{Op: webview.OpRemove, ViewID: blockID})
	_ = writeAck(peer, frame.RequestID, ackResult{Status: "ok", BlockID: blockID})
}

func (c *core) handleBlockList(ctx context.Context, peer *wsPeer, frame wsFrame) {
	if c.blocks == nil {
		_ = writeWSError(peer, frame.RequestID, "INTERNAL", "block store is not configured")
		return
	}
	var payload blockListPayload
	if err := json.Unmarshal(frame.Payload, &payload); err != nil {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "invalid block.list payload")
		return
	}

	docID := strings.TrimSpace(payload.DocID)
	if docID == "" {
		_ = writeWSError(peer, frame.RequestID, "INVALID_ARGUMENT", "doc_id is required")
		return
	}

	storeCtx, cancel := context.WithTimeout(ctx, timeouts.StoreOp)
	blocks, err := c.blocks.ListBlocks(storeCtx, docID)
	cancel()
	if err != nil {
		log.Printf("gateway: list blocks failed doc=%s err=%v", docID, err)
		_ = writeWSError(peer, frame.RequestID, "INTERNAL", "list blocks failed")
		return
	}

	summaries := make([]blockSummary, 0, len(blocks))
	for _, block := range blocks {
		summaries = append(summaries, blockSummary{
			BlockID:   block.ID,
			DocID:     block.DocID,
			URL:       block.URL,
			Profile:   block.Profile,
			Layout:    block.Layout,
			Position:  block.Position,
			CreatedAt: block.CreatedAt.UTC().Format(time.RFC3339),
			UpdatedAt: block.UpdatedAt.UTC().Format(time.RFC3339),
		})
	}

	_ = writeAck(peer, frame.RequestID, ackResult{
		Status: "ok",
		Count:  len(summaries),
		Blocks: summaries,
	})
}

func writeAck(peer *wsPeer, requestID string, result ackResult) error {
	return peer.writeFrame(wsFrame{
		Type:      "ack",
		RequestID: requestID,
		Payload:   mustJSON(ackEnvelope{Result: result}),
	})
}

func writeWSError(peer *wsPeer, requestID string, code string, message string) error {
	return peer.writeFrame(wsFrame{
		Type:      "error",
		RequestID: requestID,
		Payload: mustJSON(wsErrorEnvelope{
			Error: wsError{
				Code:      code,
				Message:   message,
				Retryable: false,
			},
		}),
	})
}

func mustJSON(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		log.Printf("failed to marshal websocket frame payload: %v", err)
		return nil
	}
	return b
}
