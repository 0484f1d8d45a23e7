package io

import (
	"context"
	"fmt"
)

// BlockSink commits a complete set of zone blocks. Implementations either
// commit every block or none: a failed WriteBlocks leaves previously
// committed blocks in place.
type BlockSink interface {
	WriteBlocks(ctx context.Context, blocks []*Block) (WriteStats, error)
}

// BlockSource reads back every block a sink committed
type BlockSource interface {
	ReadBlocks(ctx context.Context) ([]*Block, error)
}

// WriteStats describes one committed write
type WriteStats struct {
	Blocks    int
	Bytes     int
	BackedUp  int
	BackupDir string
}

// ExportError reports the block and step at which a write was aborted
type ExportError struct {
	Block string
	Op    string
	Err   error
}

func (e *ExportError) Error() string {
	if e.Block == "" {
		return fmt.Sprintf("export %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("export %s %s: %v", e.Op, e.Block, e.Err)
}

func (e *ExportError) Unwrap() error { return e.Err }
