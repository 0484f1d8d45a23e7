package io

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"zone-editor/internal/logging"
)

// DirSink writes each block to <Dir>/<x>_<y>.IFO. All blocks are staged to
// temporary files first; existing files are only replaced once every block
// has been staged. With Backup set, replaced files are zstd-compressed into
// <Dir>/backup/<timestamp>/ before the rename. Replaced files are kept
// aside until every rename succeeded, so a failed commit puts the previous
// set back.
type DirSink struct {
	Dir    string
	Backup bool
	Log    logging.Logger

	now    func() time.Time
	rename func(oldpath, newpath string) error
}

func NewDirSink(dir string, backup bool, log logging.Logger) *DirSink {
	return &DirSink{Dir: dir, Backup: backup, Log: logging.OrNop(log), now: time.Now, rename: os.Rename}
}

// backupStamp names backup directories; sub-second so quick successive
// exports do not share one
const backupStamp = "20060102_150405.000000"

type stagedBlock struct {
	name string
	tmp  string
	size int
	prev string // previous file moved aside during commit
}

func (s *DirSink) WriteBlocks(ctx context.Context, blocks []*Block) (WriteStats, error) {
	var stats WriteStats
	log := logging.OrNop(s.Log)

	if err := os.MkdirAll(s.Dir, 0755); err != nil {
		return stats, &ExportError{Op: "prepare", Err: err}
	}

	staged := make([]stagedBlock, 0, len(blocks))
	cleanup := func() {
		for _, st := range staged {
			if st.tmp != "" {
				_ = os.Remove(st.tmp)
			}
		}
	}

	// ── 1. Stage ──────────────────────────────────────────────────────────────
	for _, b := range blocks {
		if err := ctx.Err(); err != nil {
			cleanup()
			return stats, &ExportError{Op: "stage", Err: err}
		}
		st, err := s.stage(b)
		if err != nil {
			cleanup()
			return stats, &ExportError{Block: b.FileName(), Op: "stage", Err: err}
		}
		staged = append(staged, st)
	}

	// ── 2. Back up files about to be replaced ────────────────────────────────
	if s.Backup {
		backupDir := s.backupDir()
		for _, st := range staged {
			target := filepath.Join(s.Dir, st.name)
			if _, err := os.Stat(target); err != nil {
				continue
			}
			if err := compressFile(target, filepath.Join(backupDir, st.name+BackupExt)); err != nil {
				cleanup()
				return stats, &ExportError{Block: st.name, Op: "backup", Err: err}
			}
			stats.BackedUp++
		}
		if stats.BackedUp > 0 {
			stats.BackupDir = backupDir
			log.Infof("backed up %d block files to %s", stats.BackedUp, backupDir)
		}
	}

	// ── 3. Commit ─────────────────────────────────────────────────────────────
	for _, st := range staged {
		if info, err := os.Stat(filepath.Join(s.Dir, st.name)); err == nil && !info.Mode().IsRegular() {
			cleanup()
			return stats, &ExportError{Block: st.name, Op: "commit", Err: fmt.Errorf("%s is not a regular file", st.name)}
		}
	}
	for i := range staged {
		if err := s.commit(&staged[i]); err != nil {
			s.rollback(staged[:i+1])
			cleanup()
			return stats, &ExportError{Block: staged[i].name, Op: "commit", Err: err}
		}
	}
	for _, st := range staged {
		if st.prev != "" {
			if err := os.Remove(st.prev); err != nil {
				log.Warnf("remove %s: %v", st.prev, err)
			}
		}
		stats.Blocks++
		stats.Bytes += st.size
		log.Debugf("wrote %s (%d bytes)", st.name, st.size)
	}

	return stats, nil
}

// commit moves the current file aside, then the staged file into place
func (s *DirSink) commit(st *stagedBlock) error {
	target := filepath.Join(s.Dir, st.name)
	if _, err := os.Stat(target); err == nil {
		prev := filepath.Join(s.Dir, "."+st.name+".prev")
		if err := s.move(target, prev); err != nil {
			return err
		}
		st.prev = prev
	}
	if err := s.move(st.tmp, target); err != nil {
		return err
	}
	st.tmp = ""
	return nil
}

// rollback undoes commit for every block in reverse order
func (s *DirSink) rollback(done []stagedBlock) {
	log := logging.OrNop(s.Log)
	for i := len(done) - 1; i >= 0; i-- {
		st := done[i]
		target := filepath.Join(s.Dir, st.name)
		if st.tmp == "" {
			if err := os.Remove(target); err != nil {
				log.Errorf("rollback %s: %v", st.name, err)
			}
		}
		if st.prev != "" {
			if err := s.move(st.prev, target); err != nil {
				log.Errorf("rollback %s: restore previous file: %v", st.name, err)
			}
		}
	}
}

func (s *DirSink) move(oldpath, newpath string) error {
	if s.rename == nil {
		return os.Rename(oldpath, newpath)
	}
	return s.rename(oldpath, newpath)
}

func (s *DirSink) backupDir() string {
	base := filepath.Join(s.Dir, "backup", s.clock().Format(backupStamp))
	dir := base
	for n := 2; ; n++ {
		if _, err := os.Stat(dir); err != nil {
			return dir
		}
		dir = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *DirSink) stage(b *Block) (stagedBlock, error) {
	data, err := Marshal(b)
	if err != nil {
		return stagedBlock{}, err
	}
	f, err := os.CreateTemp(s.Dir, "."+b.FileName()+".tmp-*")
	if err != nil {
		return stagedBlock{}, err
	}
	st := stagedBlock{name: b.FileName(), tmp: f.Name(), size: len(data)}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(st.tmp)
		return stagedBlock{}, err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(st.tmp)
		return stagedBlock{}, err
	}
	if err := f.Close(); err != nil {
		os.Remove(st.tmp)
		return stagedBlock{}, err
	}
	return st, nil
}

func (s *DirSink) clock() time.Time {
	if s.now == nil {
		return time.Now()
	}
	return s.now()
}

// ReadBlocks decodes every block file in Dir, ordered by block (y, x)
func (s *DirSink) ReadBlocks(ctx context.Context) ([]*Block, error) {
	matches, err := filepath.Glob(filepath.Join(s.Dir, "*.IFO"))
	if err != nil {
		return nil, err
	}
	blocks := make([]*Block, 0, len(matches))
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(m)
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", m, err)
		}
		b, err := Decode(f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(m), err)
		}
		blocks = append(blocks, b)
	}
	SortBlocks(blocks)
	return blocks, nil
}

// SortBlocks orders blocks by (Y, X)
func SortBlocks(blocks []*Block) {
	sort.Slice(blocks, func(i, j int) bool {
		if blocks[i].Y != blocks[j].Y {
			return blocks[i].Y < blocks[j].Y
		}
		return blocks[i].X < blocks[j].X
	})
}
