package webview

// Sink receives editor-facing pane notifications. Implementations must not
// dispatch commands back into the engine from within a callback; status
// callbacks arrive while a dispatch is in progress. LinkCaptured may be
// called from a pane's event pump goroutine at any time.
type Sink interface {
	// ViewLoading reports a pane entering the loading phase.
	ViewLoading(viewID string)
	// ViewLoaded reports a pane finishing a load.
	ViewLoaded(viewID string)
	// ViewNavigated reports a loaded pane's location and history state.
	ViewNavigated(viewID, url string, canGoBack bool)
	// ViewFailed reports a pane's load failure.
	ViewFailed(viewID string, code int, message string)
	// LinkCaptured reports a modifier-click open-target request the editor
	// should turn into a new block instead of a spawned window.
	LinkCaptured(viewID, url string, disposition Disposition)
}

// notifyTransitions tells the sink about a pane's status change between two
// consecutive worlds. Only the status discriminant matters: bounds, URL, and
// refcount churn emit nothing, and neither does removal, since callers
// detect removal by absence.
func notifyTransitions(sink Sink, cmd Command, prev, next *World) {
	if sink == nil || prev == next {
		return
	}
	entry, ok := next.Get(cmd.ViewID)
	if !ok {
		return
	}
	if before, existed := prev.Get(cmd.ViewID); existed && before.Status.Phase == entry.Status.Phase {
		return
	}

	switch entry.Status.Phase {
	case PhaseLoading:
		sink.ViewLoading(entry.ID)
	case PhaseReady:
		sink.ViewLoaded(entry.ID)
		sink.ViewNavigated(entry.ID, entry.URL, entry.Status.CanGoBack)
	case PhaseError:
		sink.ViewFailed(entry.ID, entry.Status.ErrorCode, entry.Status.ErrorMessage)
	}
}
