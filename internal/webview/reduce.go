package webview

import "time"

// Reducer applies commands to world snapshots. Reduce is pure and total:
// it never errors, never touches a resource, and returns the same *World it
// was given whenever a command changes nothing.
type Reducer struct {
	// GCGrace is how long a zero-reference pane must sit untouched before
	// a sweep may remove it.
	GCGrace time.Duration
}

// Reduce returns the world after applying one command at the given time.
// Commands naming an unknown view id are no-ops, not errors.
func (r Reducer) Reduce(world *World, cmd Command, now time.Time) *World {
	if world == nil {
		world = NewWorld()
	}

	if cmd.Op == OpGC {
		return r.sweep(world, now)
	}
	if cmd.Op == OpCreate {
		return createEntry(world, cmd, now)
	}

	entry, ok := world.Get(cmd.ViewID)
	if !ok {
		return world
	}
	next := entry

	switch cmd.Op {
	case OpUpdateBounds:
		next.Bounds = cmd.Bounds
		if cmd.Layout != "" {
			next.Layout = cmd.Layout
		}
		next.LastAccess = now
	case OpUpdateURL:
		next.URL = cmd.URL
		next.LastAccess = now
	case OpMarkLoading:
		// Sticky error: a failed pane stays failed until an explicit
		// retry, no matter what late signals claim.
		if entry.Status.Phase == PhaseError {
			return world
		}
		next.Status = StatusLoading()
	case OpMarkReady:
		if entry.Status.Phase == PhaseError {
			return world
		}
		next.Status = StatusReady(cmd.CanGoBack)
	case OpMarkError:
		next.Status = StatusError(cmd.ErrorCode, cmd.ErrorMessage)
	case OpRetry:
		if entry.Status.Phase != PhaseError {
			return world
		}
		next.Status = StatusLoading()
	case OpRemove:
		return world.without(cmd.ViewID)
	case OpAcquire:
		next.RefCount++
		next.GCCandidate = false
		next.LastAccess = now
	case OpRelease:
		if next.RefCount > 0 {
			next.RefCount--
		}
		if next.RefCount == 0 {
			next.GCCandidate = true
		}
	default:
		return world
	}

	if next == entry {
		return world
	}
	return world.with(next)
}

// createEntry tracks a new pane. An id that is already tracked is left
// untouched.
func createEntry(world *World, cmd Command, now time.Time) *World {
	if _, ok := world.Get(cmd.ViewID); ok {
		return world
	}
	layout := cmd.Layout
	if layout == "" {
		layout = LayoutInline
	}
	return world.with(Entry{
		ID:         cmd.ViewID,
		URL:        cmd.URL,
		Bounds:     cmd.Bounds,
		Profile:    cmd.Profile,
		Layout:     layout,
		Status:     StatusLoading(),
		RefCount:   1,
		LastAccess: now,
	})
}

// sweep removes every pane that is a collection candidate, has no
// references, and has sat untouched strictly longer than the grace period.
func (r Reducer) sweep(world *World, now time.Time) *World {
	var expired []string
	for id, entry := range world.entries {
		if entry.GCCandidate && entry.RefCount == 0 && now.Sub(entry.LastAccess) > r.GCGrace {
			expired = append(expired, id)
		}
	}
	if len(expired) == 0 {
		return world
	}
	return world.without(expired...)
}
