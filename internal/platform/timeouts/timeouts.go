// Package timeouts defines shared timeout constants used across the pane
// host. Centralizing these values prevents drift between components and
// makes the durations discoverable.
package timeouts

import "time"

// ReadHeader limits how long the gateway waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long the gateway waits for in-flight requests during
// graceful shutdown.
const Shutdown = 5 * time.Second

// PaneFetch caps a single headless page fetch, redirects included.
const PaneFetch = 30 * time.Second

// StoreOp caps a single block-store read or write.
const StoreOp = 2 * time.Second
