package webview

import "context"

// EventKind names a raw lifecycle signal emitted by a rendering resource.
// These names appear only here and in renderer implementations; everything
// else in the engine speaks Commands.
type EventKind string

const (
	// EventStartLoading signals that the resource became busy.
	EventStartLoading EventKind = "start-loading"
	// EventStartNavigation signals the start of a navigation.
	EventStartNavigation EventKind = "start-navigation"
	// EventDOMReady signals that the document is parsed.
	EventDOMReady EventKind = "dom-ready"
	// EventFinishLoad signals a completed load.
	EventFinishLoad EventKind = "finish-load"
	// EventFailLoad signals a failed load.
	EventFailLoad EventKind = "fail-load"
	// EventNavigate signals a committed navigation.
	EventNavigate EventKind = "navigate"
	// EventRedirect signals a server-side redirect hop.
	EventRedirect EventKind = "redirect"
	// EventOpenTarget signals a request to open a URL in a new target.
	EventOpenTarget EventKind = "open-target"
)

// Disposition describes how an open-target request wants its target opened.
type Disposition string

const (
	// DispositionCurrentTab asks to navigate the pane itself.
	DispositionCurrentTab Disposition = "current-tab"
	// DispositionForegroundTab asks for a new focused tab.
	DispositionForegroundTab Disposition = "foreground-tab"
	// DispositionBackgroundTab asks for a new unfocused tab.
	DispositionBackgroundTab Disposition = "background-tab"
	// DispositionNewWindow asks for a separate window.
	DispositionNewWindow Disposition = "new-window"
)

// CapturesLink reports whether the disposition comes from a modifier-click
// style gesture, which the editor captures as a link instead of letting the
// pane spawn a target.
func (d Disposition) CapturesLink() bool {
	switch d {
	case DispositionForegroundTab, DispositionBackgroundTab, DispositionNewWindow:
		return true
	}
	return false
}

// PageEvent is one raw lifecycle signal from a rendering resource.
type PageEvent struct {
	Kind EventKind
	// MainFrame is false for signals raised by subframes.
	MainFrame bool
	// InPlace marks same-document navigations (fragment or history API).
	InPlace bool
	// URL carries the navigation or open-target location.
	URL string
	// Code and Description carry failure details for EventFailLoad.
	Code        int
	Description string
	// Disposition is set for EventOpenTarget.
	Disposition Disposition
}

// Allocation describes the rendering resource a pane needs.
type Allocation struct {
	ViewID  string
	URL     string
	Profile string
	Bounds  Bounds
}

// Renderer allocates external rendering resources. The engine holds exactly
// one renderer and owns every handle it returns.
type Renderer interface {
	Allocate(ctx context.Context, alloc Allocation) (Handle, error)
}

// Handle controls one allocated rendering resource. Implementations must
// turn every method into a no-op once Destroy has been called, and must
// close the Events channel on Destroy; the engine relies on both to stay
// crash-free through platform teardown races.
type Handle interface {
	// Load starts loading a URL, superseding any load in flight.
	Load(url string)
	// SetBounds repositions the resource's surface.
	SetBounds(bounds Bounds)
	// Show attaches the resource to the visible surface.
	Show()
	// Hide detaches the resource from the visible surface but keeps it
	// alive for a later retry.
	Hide()
	// Reload restarts the current load.
	Reload()
	// Destroy releases the resource.
	Destroy()
	// CanGoBack reports whether the resource has navigation history.
	CanGoBack() bool
	// Events streams the resource's raw lifecycle signals.
	Events() <-chan PageEvent
}
