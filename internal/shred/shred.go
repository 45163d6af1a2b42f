// Package shred removes files by overwriting their contents with random
// bytes before unlinking them.
//
// On journaling filesystems and wear-leveled media (SSDs) overwritten
// sectors are not guaranteed to be physically erased, so this is a
// best-effort mitigation against casual recovery, not a cryptographic
// erasure guarantee.
package shred

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Passes is the number of full-length random overwrites applied before a
// file is unlinked.
const Passes = 3

// Erase overwrites the file at path with random data Passes times, syncing
// after each pass, then removes it. A missing target is treated as success
// so the call is idempotent. Any other filesystem error is propagated.
func Erase(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("erase %s: is a directory", path)
	}

	if err := overwrite(path, info.Size()); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}

// EraseTree erases every file under dir bottom-up and removes the emptied
// directories, dir included. Idempotent on a missing root.
func EraseTree(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read dir %s: %w", dir, err)
	}

	for _, entry := range entries {
		path := filepath.Join(dir, entry.Name())
		if entry.IsDir() {
			if err := EraseTree(path); err != nil {
				return err
			}
			continue
		}
		if err := Erase(path); err != nil {
			return err
		}
	}

	if err := os.Remove(dir); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", dir, err)
	}
	return nil
}

func overwrite(path string, size int64) error {
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	for pass := 0; pass < Passes; pass++ {
		if _, err := f.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("seek %s: %w", path, err)
		}
		if _, err := io.CopyN(f, rand.Reader, size); err != nil {
			return fmt.Errorf("overwrite %s: %w", path, err)
		}
		if err := f.Sync(); err != nil {
			return fmt.Errorf("sync %s: %w", path, err)
		}
	}
	return nil
}
