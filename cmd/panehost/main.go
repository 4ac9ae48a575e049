// Package main starts the pane host service and handles termination.
//
// The process owns every external pane on behalf of the editor: it tracks
// pane state, fetches pages headlessly, persists document blocks, and
// reclaims panes nothing references anymore. Editors talk to it over the
// gateway's WebSocket protocol.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	panehostcmd "github.com/paperbark/paperbark/internal/cmd/panehost"
)

func main() {
	cfg, err := panehostcmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		log.Fatalf("parse flags: %v", err)
	}
	log.SetPrefix("[PANEHOST] ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := panehostcmd.Run(ctx, cfg); err != nil {
		log.Fatalf("failed to serve: %v", err)
	}
}
