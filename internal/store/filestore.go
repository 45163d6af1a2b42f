package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cloudtab/internal/domain/session"
	cloudtab_errors "cloudtab/pkg/errors"
)

// FileStore keeps one JSON file per session under a directory. It is the
// default backing and the one the tests run against.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) Put(ctx context.Context, sess *session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	// O_EXCL makes creation the collision check.
	f, err := os.OpenFile(s.path(sess.Code), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if os.IsExist(err) {
			return cloudtab_errors.ErrAlreadyExists
		}
		return fmt.Errorf("create session record: %w", err)
	}
	defer f.Close()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("write session record: %w", err)
	}
	return f.Sync()
}

func (s *FileStore) Get(ctx context.Context, code string) (session.Session, error) {
	data, err := os.ReadFile(s.path(code))
	if err != nil {
		if os.IsNotExist(err) {
			return session.Session{}, cloudtab_errors.ErrSessionNotFound
		}
		return session.Session{}, fmt.Errorf("read session record: %w", err)
	}
	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, fmt.Errorf("decode session record: %w", err)
	}
	return sess, nil
}

func (s *FileStore) Save(ctx context.Context, sess session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	// Write-then-rename so readers never see a torn record.
	tmp, err := os.CreateTemp(s.dir, sess.Code+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp record: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp record: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp record: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path(sess.Code)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replace session record: %w", err)
	}
	return nil
}

func (s *FileStore) Delete(ctx context.Context, code string) error {
	if err := os.Remove(s.path(code)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete session record: %w", err)
	}
	return nil
}

func (s *FileStore) ListCodes(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list session records: %w", err)
	}
	codes := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		code := strings.TrimSuffix(name, ".json")
		if ValidCode(code) {
			codes = append(codes, code)
		}
	}
	return codes, nil
}

func (s *FileStore) path(code string) string {
	return filepath.Join(s.dir, code+".json")
}
