package webview

import (
	"errors"
	"sort"
	"time"
)

// Layout controls how a pane participates in document flow.
type Layout string

const (
	// LayoutInline renders the pane within the block column.
	LayoutInline Layout = "inline"
	// LayoutFull renders the pane across the full editor width.
	LayoutFull Layout = "full"
)

// ErrInvalidLayout indicates a layout value outside the known set.
var ErrInvalidLayout = errors.New("layout must be inline or full")

// ParseLayout validates a wire-level layout value. Empty input defaults to
// LayoutInline.
func ParseLayout(value string) (Layout, error) {
	switch Layout(value) {
	case LayoutInline, LayoutFull:
		return Layout(value), nil
	case "":
		return LayoutInline, nil
	}
	return "", ErrInvalidLayout
}

// Bounds is a pane's viewport rectangle in editor coordinates.
type Bounds struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// Valid reports whether the rectangle has non-negative dimensions.
func (b Bounds) Valid() bool {
	return b.Width >= 0 && b.Height >= 0
}

// Phase discriminates the lifecycle status of a pane.
type Phase string

const (
	// PhaseIdle marks a pane with no resource yet.
	PhaseIdle Phase = "idle"
	// PhaseCreating marks a pane whose resource allocation is in flight.
	PhaseCreating Phase = "creating"
	// PhaseLoading marks a pane whose content load is in flight.
	PhaseLoading Phase = "loading"
	// PhaseReady marks a pane whose content loaded successfully.
	PhaseReady Phase = "ready"
	// PhaseError marks a pane whose load failed. The phase is terminal
	// until an explicit retry command.
	PhaseError Phase = "error"
)

// Status is the lifecycle status of a pane: a phase discriminant plus the
// payload fields that phase carries. Status values are comparable, so
// transitions can be detected with ==.
type Status struct {
	Phase Phase
	// CanGoBack is set for PhaseReady.
	CanGoBack bool
	// ErrorCode and ErrorMessage are set for PhaseError.
	ErrorCode    int
	ErrorMessage string
}

// StatusIdle returns the status of a pane with no resource.
func StatusIdle() Status {
	return Status{Phase: PhaseIdle}
}

// StatusCreating returns the status of a pane waiting on resource allocation.
func StatusCreating() Status {
	return Status{Phase: PhaseCreating}
}

// StatusLoading returns the status of a pane with a load in flight.
func StatusLoading() Status {
	return Status{Phase: PhaseLoading}
}

// StatusReady returns the status of a loaded pane.
func StatusReady(canGoBack bool) Status {
	return Status{Phase: PhaseReady, CanGoBack: canGoBack}
}

// StatusError returns the status of a failed pane.
func StatusError(code int, message string) Status {
	return Status{Phase: PhaseError, ErrorCode: code, ErrorMessage: message}
}

// Entry is the tracked state of one pane.
type Entry struct {
	ID          string
	URL         string
	Bounds      Bounds
	Profile     string
	Layout      Layout
	Status      Status
	RefCount    int
	LastAccess  time.Time
	GCCandidate bool
}

// World is an immutable snapshot of every tracked pane, keyed by view id.
// Mutations produce a new World; an unchanged World is returned as the same
// pointer so callers can detect "nothing changed" by identity.
type World struct {
	entries map[string]Entry
}

// NewWorld returns an empty snapshot.
func NewWorld() *World {
	return &World{entries: make(map[string]Entry)}
}

// Get returns the entry for a view id.
func (w *World) Get(id string) (Entry, bool) {
	if w == nil {
		return Entry{}, false
	}
	entry, ok := w.entries[id]
	return entry, ok
}

// Len returns the number of tracked panes.
func (w *World) Len() int {
	if w == nil {
		return 0
	}
	return len(w.entries)
}

// Entries returns every entry ordered by view id.
func (w *World) Entries() []Entry {
	if w == nil {
		return nil
	}
	entries := make([]Entry, 0, len(w.entries))
	for _, entry := range w.entries {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })
	return entries
}

// with returns a copy of the world with one entry set.
func (w *World) with(entry Entry) *World {
	next := make(map[string]Entry, len(w.entries)+1)
	for id, e := range w.entries {
		next[id] = e
	}
	next[entry.ID] = entry
	return &World{entries: next}
}

// without returns a copy of the world with the listed ids dropped.
func (w *World) without(ids ...string) *World {
	next := make(map[string]Entry, len(w.entries))
	for id, e := range w.entries {
		next[id] = e
	}
	for _, id := range ids {
		delete(next, id)
	}
	return &World{entries: next}
}
