package webview

// codeLoadAborted is the failure code a renderer reports when an in-flight
// load is superseded by a newer navigation. It is expected noise, not a
// genuine failure.
const codeLoadAborted = -3

// translator converts one pane's raw renderer signals into commands. It is
// the only component that reads renderer event vocabulary. Each pane gets
// its own translator, driven by that pane's event pump goroutine, so the
// hasErrored latch needs no locking.
type translator struct {
	viewID   string
	handle   Handle
	dispatch func(Command)
	capture  func(viewID, url string, disposition Disposition)

	// hasErrored latches after a main-frame failure, including aborted
	// ones, so a straggling finish-load cannot mark the pane ready. A
	// fresh navigation start clears it.
	hasErrored bool
}

func (t *translator) handleEvent(evt PageEvent) {
	switch evt.Kind {
	case EventStartNavigation:
		if !evt.MainFrame || evt.InPlace {
			return
		}
		t.hasErrored = false
		t.dispatch(Command{Op: OpMarkLoading, ViewID: t.viewID})
	case EventFailLoad:
		if !evt.MainFrame {
			return
		}
		t.hasErrored = true
		if evt.Code == codeLoadAborted {
			return
		}
		t.dispatch(Command{
			Op:           OpMarkError,
			ViewID:       t.viewID,
			ErrorCode:    evt.Code,
			ErrorMessage: evt.Description,
		})
	case EventFinishLoad:
		if t.hasErrored {
			return
		}
		t.dispatch(Command{
			Op:        OpMarkReady,
			ViewID:    t.viewID,
			CanGoBack: t.canGoBack(),
		})
	case EventNavigate, EventRedirect:
		if !evt.MainFrame {
			return
		}
		t.dispatch(Command{Op: OpUpdateURL, ViewID: t.viewID, URL: evt.URL})
	case EventOpenTarget:
		if evt.Disposition.CapturesLink() {
			if t.capture != nil {
				t.capture(t.viewID, evt.URL, evt.Disposition)
			}
			return
		}
		// Ordinary dispositions proceed in place.
		if t.handle != nil {
			t.handle.Load(evt.URL)
		}
	}
	// EventStartLoading and EventDOMReady are resource-level noise.
}

func (t *translator) canGoBack() bool {
	if t.handle == nil {
		return false
	}
	return t.handle.CanGoBack()
}
