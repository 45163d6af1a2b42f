package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"cloudtab/internal/blob"
	"cloudtab/internal/crypto"
	"cloudtab/internal/domain/session"
	"cloudtab/internal/shred"
	cloudtab_errors "cloudtab/pkg/errors"
	"cloudtab/pkg/logger"
)

// RetrieveService decrypts a stored file into a transient location and hands
// back a stream that erases the plaintext on Close. Close runs on every exit
// path of the caller, including client disconnects.
type RetrieveService struct {
	sessions *SessionService
	blobs    blob.Store
	tmpDir   string
	log      *logger.Logger
}

func NewRetrieveService(sessions *SessionService, blobs blob.Store, tmpDir string, l *logger.Logger) *RetrieveService {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &RetrieveService{sessions: sessions, blobs: blobs, tmpDir: tmpDir, log: l}
}

// Open looks up the session and file, decrypts the ciphertext into a temp
// file, and returns the record plus a reader over the plaintext. The caller
// must Close the reader; Close shreds the transient plaintext.
//
// A ciphertext that fails to decrypt is left in place for inspection.
func (s *RetrieveService) Open(ctx context.Context, code, fileID string) (session.FileRecord, io.ReadCloser, error) {
	sess, err := s.sessions.Get(ctx, code)
	if err != nil {
		return session.FileRecord{}, nil, err
	}
	record, ok := sess.File(fileID)
	if !ok {
		return session.FileRecord{}, nil, cloudtab_errors.ErrFileNotFound
	}

	src, err := s.blobs.Open(ctx, sess.Code, fileID)
	if err != nil {
		return session.FileRecord{}, nil, err
	}
	defer src.Close()

	tmp, err := os.CreateTemp(s.tmpDir, "cloudtab-view-*")
	if err != nil {
		return session.FileRecord{}, nil, fmt.Errorf("create transient file: %w", err)
	}

	if _, err := crypto.Decrypt(tmp, src, sess.Key); err != nil {
		tmp.Close()
		if serr := shred.Erase(tmp.Name()); serr != nil && s.log != nil {
			s.log.Errorf("erase transient file %s: %s", tmp.Name(), serr)
		}
		return session.FileRecord{}, nil, err
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		tmp.Close()
		if serr := shred.Erase(tmp.Name()); serr != nil && s.log != nil {
			s.log.Errorf("erase transient file %s: %s", tmp.Name(), serr)
		}
		return session.FileRecord{}, nil, fmt.Errorf("rewind transient file: %w", err)
	}

	return record, &shredOnClose{f: tmp, path: tmp.Name()}, nil
}

// shredOnClose erases the backing file when closed. Close is safe to call
// more than once.
type shredOnClose struct {
	f    *os.File
	path string
	once sync.Once
	err  error
}

func (r *shredOnClose) Read(p []byte) (int, error) {
	return r.f.Read(p)
}

func (r *shredOnClose) Close() error {
	r.once.Do(func() {
		r.f.Close()
		r.err = shred.Erase(r.path)
	})
	return r.err
}
