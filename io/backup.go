package io

import (
	"fmt"
	stdio "io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zstd"
)

// BackupExt is appended to the names of compressed backup files
const BackupExt = ".zst"

// compressFile writes a zstd-compressed copy of src to dst
func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		return err
	}

	enc, err := zstd.NewWriter(out, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		out.Close()
		return err
	}
	if _, err := stdio.Copy(enc, in); err != nil {
		enc.Close()
		out.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		out.Close()
		return err
	}
	if err := out.Sync(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// ReadBackup decompresses a backup file written before a block was replaced
func ReadBackup(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open backup %q: %w", path, err)
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("backup %q: %w", path, err)
	}
	defer dec.Close()

	data, err := stdio.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decompress backup %q: %w", path, err)
	}
	return data, nil
}

// RestoreBackup decompresses every backup in backupDir over the matching
// block files in dir.
func RestoreBackup(backupDir, dir string) (int, error) {
	matches, err := filepath.Glob(filepath.Join(backupDir, "*.IFO"+BackupExt))
	if err != nil {
		return 0, err
	}
	for _, m := range matches {
		data, err := ReadBackup(m)
		if err != nil {
			return 0, err
		}
		name := filepath.Base(m)
		name = name[:len(name)-len(BackupExt)]
		if err := os.WriteFile(filepath.Join(dir, name), data, 0644); err != nil {
			return 0, fmt.Errorf("restore %s: %w", name, err)
		}
	}
	return len(matches), nil
}
