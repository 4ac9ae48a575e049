// Package blockstore persists the document blocks that embed external
// panes. It is deliberately thin: the pane engine never reads it, and no
// pane state is stored here; blocks are what survive an editor restart.
package blockstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates a requested block record is missing.
var ErrNotFound = errors.New("block not found")

// Block layout values. The stored layout feeds pane creation, so the set
// matches the pane layouts.
const (
	// LayoutInline renders the block's pane within the column.
	LayoutInline = "inline"
	// LayoutFull renders the block's pane across the full width.
	LayoutFull = "full"
)

// Block records one document block that embeds an external pane. The block
// id doubles as the pane's view id.
type Block struct {
	ID        string
	DocID     string
	URL       string
	Profile   string
	Layout    string
	Position  int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Store persists block records.
type Store interface {
	// PutBlock inserts or updates one block.
	PutBlock(ctx context.Context, block Block) error
	// GetBlock returns one block by id, or ErrNotFound.
	GetBlock(ctx context.Context, id string) (Block, error)
	// DeleteBlock removes one block by id, or returns ErrNotFound.
	DeleteBlock(ctx context.Context, id string) error
	// ListBlocks returns a document's blocks ordered by position.
	ListBlocks(ctx context.Context, docID string) ([]Block, error)
}
