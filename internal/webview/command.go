package webview

// Op identifies one of the closed set of intents that can change the world.
// All pane mutations flow through these; renderer event names never leak
// past the translator.
type Op string

const (
	// OpCreate tracks a new pane and allocates its resource.
	OpCreate Op = "create"
	// OpUpdateBounds repositions or resizes a pane.
	OpUpdateBounds Op = "update_bounds"
	// OpUpdateURL records a pane's current location.
	OpUpdateURL Op = "update_url"
	// OpMarkLoading records that a pane started loading.
	OpMarkLoading Op = "mark_loading"
	// OpMarkReady records that a pane finished loading.
	OpMarkReady Op = "mark_ready"
	// OpMarkError records that a pane failed to load.
	OpMarkError Op = "mark_error"
	// OpRetry restarts a failed pane.
	OpRetry Op = "retry"
	// OpRemove drops a pane unconditionally, regardless of references.
	OpRemove Op = "remove"
	// OpAcquire adds a reference to a pane.
	OpAcquire Op = "acquire"
	// OpRelease drops a reference from a pane.
	OpRelease Op = "release"
	// OpGC sweeps panes that have sat unreferenced past the grace period.
	OpGC Op = "gc"
)

// Command is a single intent against the world. Only the fields relevant to
// its Op are read; the rest stay zero.
type Command struct {
	Op     Op
	ViewID string

	// Create and UpdateURL.
	URL string
	// Create and UpdateBounds.
	Bounds Bounds
	// Create only.
	Profile string
	// Create and UpdateBounds; empty means "leave as is" (Create defaults
	// to inline).
	Layout Layout
	// MarkReady only.
	CanGoBack bool
	// MarkError only.
	ErrorCode    int
	ErrorMessage string
}
