package gateway

import (
	"sync"

	"github.com/paperbark/paperbark/internal/webview"
)

// Hub fans pane lifecycle notices out to every connected editor peer. It
// implements webview.Sink, so panehost can hand it to the engine before the
// gateway server exists. Notice callbacks only write frames; they never
// dispatch back into the engine.
type Hub struct {
	mu    sync.Mutex
	peers map[*wsPeer]struct{}
}

// NewHub returns an empty hub.
func NewHub() *Hub {
	return &Hub{peers: make(map[*wsPeer]struct{})}
}

func (h *Hub) subscribe(peer *wsPeer) {
	h.mu.Lock()
	h.peers[peer] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) unsubscribe(peer *wsPeer) {
	h.mu.Lock()
	delete(h.peers, peer)
	h.mu.Unlock()
}

func (h *Hub) broadcast(frame wsFrame) {
	h.mu.Lock()
	peers := make([]*wsPeer, 0, len(h.peers))
	for peer := range h.peers {
		peers = append(peers, peer)
	}
	h.mu.Unlock()

	for _, peer := range peers {
		_ = peer.writeFrame(frame)
	}
}

type paneNoticePayload struct {
	ViewID string `json:"view_id"`
}

type paneNavStatePayload struct {
	ViewID    string `json:"view_id"`
	URL       string `json:"url"`
	CanGoBack bool   `json:"can_go_back"`
}

type paneFailedPayload struct {
	ViewID  string `json:"view_id"`
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type paneLinkPayload struct {
	ViewID      string `json:"view_id"`
	URL         string `json:"url"`
	Disposition string `json:"disposition"`
}

// ViewLoading broadcasts that a pane entered the loading phase.
func (h *Hub) ViewLoading(viewID string) {
	h.broadcast(wsFrame{
		Type:    "pane.loading",
		Payload: mustJSON(paneNoticePayload{ViewID: viewID}),
	})
}

// ViewLoaded broadcasts that a pane finished a load.
func (h *Hub) ViewLoaded(viewID string) {
	h.broadcast(wsFrame{
		Type:    "pane.loaded",
		Payload: mustJSON(paneNoticePayload{ViewID: viewID}),
	})
}

// ViewNavigated broadcasts a loaded pane's location and history state.
func (h *Hub) ViewNavigated(viewID, url string, canGoBack bool) {
	h.broadcast(wsFrame{
		Type:    "pane.nav_state",
		Payload: mustJSON(paneNavStatePayload{ViewID: viewID, URL: url, CanGoBack: canGoBack}),
	})
}

// ViewFailed broadcasts a pane's load failure.
func (h *Hub) ViewFailed(viewID string, code int, message string) {
	h.broadcast(wsFrame{
		Type:    "pane.failed",
		Payload: mustJSON(paneFailedPayload{ViewID: viewID, Code: code, Message: message}),
	})
}

// LinkCaptured broadcasts a captured open-target request so the editor can
// turn it into a new block.
func (h *Hub) LinkCaptured(viewID, url string, disposition webview.Disposition) {
	h.broadcast(wsFrame{
		Type:    "pane.link",
		Payload: mustJSON(paneLinkPayload{ViewID: viewID, URL: url, Disposition: string(disposition)}),
	})
}
