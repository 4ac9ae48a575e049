package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/paperbark/paperbark/internal/blockstore"
	"github.com/paperbark/paperbark/internal/blockstore/sqlite/migrations"
	sqlitemigrate "github.com/paperbark/paperbark/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

// Store provides SQLite-backed persistence for block records.
type Store struct {
	sqlDB *sql.DB
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Open opens a block store at the provided path and applies migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// PutBlock inserts or updates one block row.
func (s *Store) PutBlock(ctx context.Context, block blockstore.Block) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	normalized, err := normalizeBlock(block)
	if err != nil {
		return err
	}

	_, err = s.sqlDB.ExecContext(ctx, `
INSERT INTO blocks (id, doc_id, url, profile, layout, position, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
    doc_id = excluded.doc_id,
    url = excluded.url,
    profile = excluded.profile,
    layout = excluded.layout,
    position = excluded.position,
    updated_at = excluded.updated_at
`,
		normalized.ID,
		normalized.DocID,
		normalized.URL,
		normalized.Profile,
		normalized.Layout,
		normalized.Position,
		toMillis(normalized.CreatedAt),
		toMillis(normalized.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("put block: %w", err)
	}
	return nil
}

// GetBlock returns one block row by id.
func (s *Store) GetBlock(ctx context.Context, id string) (blockstore.Block, error) {
	if err := ctx.Err(); err != nil {
		return blockstore.Block{}, err
	}
	if s == nil || s.sqlDB == nil {
		return blockstore.Block{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return blockstore.Block{}, blockstore.ErrNotFound
	}

	row := s.sqlDB.QueryRowContext(ctx, `
SELECT id, doc_id, url, profile, layout, position, created_at, updated_at
FROM blocks
WHERE id = ?
`, id)
	block, err := scanBlock(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return blockstore.Block{}, blockstore.ErrNotFound
		}
		return blockstore.Block{}, fmt.Errorf("get block: %w", err)
	}
	return block, nil
}

// DeleteBlock removes one block row by id.
func (s *Store) DeleteBlock(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return blockstore.ErrNotFound
	}

	result, err := s.sqlDB.ExecContext(ctx, "DELETE FROM blocks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete block rows affected: %w", err)
	}
	if affected == 0 {
		return blockstore.ErrNotFound
	}
	return nil
}

// ListBlocks returns a document's block rows ordered by position, then id.
func (s *Store) ListBlocks(ctx context.Context, docID string) ([]blockstore.Block, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, fmt.Errorf("doc id is required")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `
SELECT id, doc_id, url, profile, layout, position, created_at, updated_at
FROM blocks
WHERE doc_id = ?
ORDER BY position ASC, id ASC
`, docID)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var blocks []blockstore.Block
	for rows.Next() {
		block, err := scanBlock(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, block)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate blocks: %w", err)
	}
	return blocks, nil
}

func normalizeBlock(block blockstore.Block) (blockstore.Block, error) {
	block.ID = strings.TrimSpace(block.ID)
	block.DocID = strings.TrimSpace(block.DocID)
	block.URL = strings.TrimSpace(block.URL)
	block.Profile = strings.TrimSpace(block.Profile)
	block.Layout = strings.TrimSpace(block.Layout)

	if block.ID == "" {
		return blockstore.Block{}, fmt.Errorf("block id is required")
	}
	if block.DocID == "" {
		return blockstore.Block{}, fmt.Errorf("block doc id is required")
	}
	if block.URL == "" {
		return blockstore.Block{}, fmt.Errorf("block url is required")
	}
	switch block.Layout {
	case "":
		block.Layout = blockstore.LayoutInline
	case blockstore.LayoutInline, blockstore.LayoutFull:
	default:
		return blockstore.Block{}, fmt.Errorf("block layout %q is invalid", block.Layout)
	}
	if block.Position < 0 {
		return blockstore.Block{}, fmt.Errorf("block position must not be negative")
	}
	if block.CreatedAt.IsZero() {
		return blockstore.Block{}, fmt.Errorf("block created at is required")
	}
	if block.UpdatedAt.IsZero() {
		block.UpdatedAt = block.CreatedAt
	}
	return block, nil
}

func scanBlock(scan func(dest ...any) error) (blockstore.Block, error) {
	var (
		block     blockstore.Block
		createdAt int64
		updatedAt int64
	)
	if err := scan(
		&block.ID,
		&block.DocID,
		&block.URL,
		&block.Profile,
		&block.Layout,
		&block.Position,
		&createdAt,
		&updatedAt,
	); err != nil {
		return blockstore.Block{}, err
	}
	block.CreatedAt = fromMillis(createdAt)
	block.UpdatedAt = fromMillis(updatedAt)
	return block, nil
}
