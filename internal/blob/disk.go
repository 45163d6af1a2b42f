package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"cloudtab/internal/shred"
	cloudtab_errors "cloudtab/pkg/errors"
)

// DiskStore keeps ciphertext under baseDir/<code>/<id>.enc. Deletion goes
// through the shredder so removed blobs are overwritten before unlinking.
type DiskStore struct {
	baseDir string
}

func NewDiskStore(baseDir string) (*DiskStore, error) {
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{baseDir: baseDir}, nil
}

func (s *DiskStore) Put(ctx context.Context, code, id string, r io.Reader) (int64, error) {
	dir := filepath.Join(s.baseDir, code)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return 0, fmt.Errorf("create session dir: %w", err)
	}
	path := filepath.Join(dir, id+".enc")
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, fmt.Errorf("create blob: %w", err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		os.Remove(path)
		return n, fmt.Errorf("write blob: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return n, fmt.Errorf("sync blob: %w", err)
	}
	return n, f.Close()
}

func (s *DiskStore) Open(ctx context.Context, code, id string) (io.ReadCloser, error) {
	f, err := os.Open(filepath.Join(s.baseDir, code, id+".enc"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, cloudtab_errors.ErrFileNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

func (s *DiskStore) Delete(ctx context.Context, code, id string) error {
	return shred.Erase(filepath.Join(s.baseDir, code, id+".enc"))
}

func (s *DiskStore) DeleteAll(ctx context.Context, code string) error {
	return shred.EraseTree(filepath.Join(s.baseDir, code))
}

func (s *DiskStore) Owners(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list upload dir: %w", err)
	}
	var owners []string
	for _, entry := range entries {
		if entry.IsDir() {
			owners = append(owners, entry.Name())
		}
	}
	return owners, nil
}
