package webview

import (
	"context"
	"sync"
	"time"
)

// Default reclamation policy. Both values are tunable configuration; the
// engine's invariants hold for any positive settings.
const (
	// DefaultGCGrace is how long an unreferenced pane survives before a
	// sweep may collect it.
	DefaultGCGrace = 45 * time.Second
	// DefaultGCSweepDelay is how long after the last reference drops the
	// deferred sweep fires.
	DefaultGCSweepDelay = time.Minute
)

// Config assembles an engine's collaborators and reclamation policy.
type Config struct {
	// Renderer allocates pane resources. Optional; without one the engine
	// still tracks state and skips resource effects.
	Renderer Renderer
	// Sink receives editor-facing notifications. Optional.
	Sink Sink
	// Scheduler defers collection sweeps. Defaults to TimerScheduler.
	Scheduler Scheduler
	// Clock supplies the current time. Defaults to time.Now.
	Clock func() time.Time
	// GCGrace and GCSweepDelay override the default reclamation policy.
	GCGrace      time.Duration
	GCSweepDelay time.Duration
}

// Engine owns the pane world and serializes every command through one
// dispatch point: reduce, then interpret, then notify, to completion,
// before the next command runs. Editor intents, renderer callbacks, and
// sweep timers all funnel through Dispatch from their own goroutines.
type Engine struct {
	mu       sync.Mutex
	world    *World
	reducer  Reducer
	renderer Renderer
	sink     Sink
	clock    func() time.Time
	handles  map[string]*paneBinding
	gc       *gcDriver
}

// NewEngine builds an engine from config, applying defaults for any
// collaborator left unset.
func NewEngine(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = TimerScheduler{}
	}
	if cfg.GCGrace <= 0 {
		cfg.GCGrace = DefaultGCGrace
	}
	if cfg.GCSweepDelay <= 0 {
		cfg.GCSweepDelay = DefaultGCSweepDelay
	}

	e := &Engine{
		world:    NewWorld(),
		reducer:  Reducer{GCGrace: cfg.GCGrace},
		renderer: cfg.Renderer,
		sink:     cfg.Sink,
		clock:    cfg.Clock,
		handles:  make(map[string]*paneBinding),
	}
	e.gc = &gcDriver{
		delay:     cfg.GCSweepDelay,
		scheduler: cfg.Scheduler,
		sweep: func() {
			e.Dispatch(context.Background(), Command{Op: OpGC})
		},
	}
	return e
}

// Dispatch runs one command to completion. Safe for concurrent use;
// commands are applied in arrival order at the lock.
func (e *Engine) Dispatch(ctx context.Context, cmd Command) {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.world
	next := e.reducer.Reduce(prev, cmd, e.clock())
	e.world = next

	e.interpret(ctx, cmd, prev, next)
	notifyTransitions(e.sink, cmd, prev, next)
	e.scheduleSweep(cmd, next)
}

// scheduleSweep arms the deferred sweep when a release drops the last
// reference, and re-arms it when a sweep leaves candidates that were still
// inside their grace period.
func (e *Engine) scheduleSweep(cmd Command, next *World) {
	switch cmd.Op {
	case OpRelease:
		entry, ok := next.Get(cmd.ViewID)
		if ok && entry.GCCandidate && entry.RefCount == 0 {
			e.gc.schedule()
		}
	case OpGC:
		for _, entry := range next.entries {
			if entry.GCCandidate && entry.RefCount == 0 {
				e.gc.schedule()
				return
			}
		}
	}
}

// World returns the current snapshot. The snapshot is immutable and safe to
// read without coordination.
func (e *Engine) World() *World {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.world
}

// View returns the tracked entry for one pane.
func (e *Engine) View(viewID string) (Entry, bool) {
	return e.World().Get(viewID)
}

// Close destroys every live resource handle. The world is left intact; the
// engine does not persist across restarts anyway.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	for id := range e.handles {
		e.destroy(id)
	}
}
