package webview

import (
	"context"
	"log"
)

// paneBinding pairs a live resource handle with its event pump.
type paneBinding struct {
	handle Handle
	done   chan struct{}
}

// interpret turns a dispatched command plus the resulting world diff into
// resource effects. An unknown id, a missing renderer, or an
// already-destroyed handle degrades to a logged no-op, never a fault. Runs
// inside the dispatch lock; it fires effects and returns without waiting on
// their outcomes.
func (e *Engine) interpret(ctx context.Context, cmd Command, prev, next *World) {
	if prev == next {
		return
	}

	switch cmd.Op {
	case OpCreate:
		e.allocate(ctx, cmd.ViewID, next)
	case OpUpdateBounds:
		entry, ok := next.Get(cmd.ViewID)
		if !ok {
			return
		}
		if binding, ok := e.handles[cmd.ViewID]; ok {
			binding.handle.SetBounds(entry.Bounds)
		}
	case OpMarkError:
		before, existed := prev.Get(cmd.ViewID)
		if existed && before.Status.Phase == PhaseError {
			return
		}
		// Hide but keep the handle so a retry can reload it.
		if binding, ok := e.handles[cmd.ViewID]; ok {
			binding.handle.Hide()
		}
	case OpRetry:
		if binding, ok := e.handles[cmd.ViewID]; ok {
			binding.handle.Show()
			binding.handle.Reload()
		}
	case OpRemove:
		e.destroy(cmd.ViewID)
	case OpGC:
		for id := range prev.entries {
			if _, ok := next.Get(id); !ok {
				e.destroy(id)
			}
		}
	}
}

// allocate creates the rendering resource for a newly tracked pane and
// starts its event pump.
func (e *Engine) allocate(ctx context.Context, viewID string, next *World) {
	entry, ok := next.Get(viewID)
	if !ok {
		return
	}
	if _, exists := e.handles[viewID]; exists {
		return
	}
	if e.renderer == nil {
		log.Printf("skip allocate view=%s err=no renderer", viewID)
		return
	}

	handle, err := e.renderer.Allocate(ctx, Allocation{
		ViewID:  viewID,
		URL:     entry.URL,
		Profile: entry.Profile,
		Bounds:  entry.Bounds,
	})
	if err != nil {
		log.Printf("allocate view=%s err=%v", viewID, err)
		return
	}

	tr := &translator{
		viewID:   viewID,
		handle:   handle,
		dispatch: func(cmd Command) { e.Dispatch(context.Background(), cmd) },
		capture:  e.captureLink,
	}
	binding := &paneBinding{handle: handle, done: make(chan struct{})}
	e.handles[viewID] = binding
	go pumpEvents(tr, handle, binding.done)
}

// pumpEvents feeds a pane's raw signals through its translator until the
// handle closes its event channel.
func pumpEvents(tr *translator, handle Handle, done chan struct{}) {
	defer close(done)
	for evt := range handle.Events() {
		tr.handleEvent(evt)
	}
}

// destroy tears down a pane's resource and forgets its handle. The pump
// drains on its own once the handle closes its event channel.
func (e *Engine) destroy(viewID string) {
	binding, ok := e.handles[viewID]
	if !ok {
		return
	}
	delete(e.handles, viewID)
	binding.handle.Destroy()
}

func (e *Engine) captureLink(viewID, url string, disposition Disposition) {
	if e.sink == nil {
		return
	}
	e.sink.LinkCaptured(viewID, url, disposition)
}
