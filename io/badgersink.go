package io

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v3"

	"zone-editor/internal/logging"
)

const blockKeyPrefix = "block:"

// BadgerSink stores encoded blocks in a Badger database, one key per block.
// A write is a single transaction, so a failed export commits nothing.
type BadgerSink struct {
	db    *badger.DB
	log   logging.Logger
	mutex sync.RWMutex
	open  bool
}

// OpenBadgerSink opens (or creates) the store at path. An empty path opens
// an in-memory store.
func OpenBadgerSink(path string, log logging.Logger) (*BadgerSink, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open block store %q: %w", path, err)
	}
	return &BadgerSink{db: db, log: logging.OrNop(log), open: true}, nil
}

func (s *BadgerSink) Close() error {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	if !s.open {
		return nil
	}
	s.open = false
	return s.db.Close()
}

func blockKey(x, y uint32) []byte {
	return []byte(fmt.Sprintf("%s%d:%d", blockKeyPrefix, x, y))
}

func (s *BadgerSink) WriteBlocks(ctx context.Context, blocks []*Block) (WriteStats, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var stats WriteStats
	if !s.open {
		return stats, &ExportError{Op: "prepare", Err: fmt.Errorf("block store is closed")}
	}

	encoded := make([][]byte, len(blocks))
	for i, b := range blocks {
		data, err := Marshal(b)
		if err != nil {
			return stats, &ExportError{Block: b.FileName(), Op: "stage", Err: err}
		}
		encoded[i] = data
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		for i, b := range blocks {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := txn.Set(blockKey(b.X, b.Y), encoded[i]); err != nil {
				return fmt.Errorf("%s: %w", b.FileName(), err)
			}
		}
		return nil
	})
	if err != nil {
		return stats, &ExportError{Op: "commit", Err: err}
	}

	for _, data := range encoded {
		stats.Blocks++
		stats.Bytes += len(data)
	}
	s.log.Debugf("committed %d blocks (%d bytes)", stats.Blocks, stats.Bytes)
	return stats, nil
}

// ReadBlocks decodes every stored block, ordered by (Y, X)
func (s *BadgerSink) ReadBlocks(ctx context.Context) ([]*Block, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if !s.open {
		return nil, fmt.Errorf("block store is closed")
	}

	var blocks []*Block
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(blockKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			err := item.Value(func(val []byte) error {
				b, err := Unmarshal(val)
				if err != nil {
					return fmt.Errorf("%s: %w", item.Key(), err)
				}
				blocks = append(blocks, b)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read block store: %w", err)
	}
	SortBlocks(blocks)
	return blocks, nil
}
