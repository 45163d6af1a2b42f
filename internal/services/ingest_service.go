package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	"cloudtab/internal/blob"
	"cloudtab/internal/crypto"
	"cloudtab/internal/domain/session"
	"cloudtab/internal/shred"
	cloudtab_errors "cloudtab/pkg/errors"
	"cloudtab/pkg/logger"
)

// Upload is one plaintext input handed over by the HTTP layer, already
// written to a temporary file.
type Upload struct {
	Name     string
	Size     int64
	MimeType string
	TempPath string
}

// IngestService encrypts uploaded files into the blob store and registers
// them on their session.
type IngestService struct {
	sessions  *SessionService
	blobs     blob.Store
	validator *FileValidator
	log       *logger.Logger
}

func NewIngestService(sessions *SessionService, blobs blob.Store, validator *FileValidator, l *logger.Logger) *IngestService {
	return &IngestService{sessions: sessions, blobs: blobs, validator: validator, log: l}
}

// Ingest processes uploads in order: validate, sanitize, encrypt into
// <code>/<id>.enc under the session key, erase the plaintext temp input,
// accumulate the record. The first failure aborts the batch naming the
// offending file; blobs already written by the same batch stay on disk
// without a record and are reclaimed by the sweeper once the session dies.
// On success all records are committed in a single serialized update.
func (s *IngestService) Ingest(ctx context.Context, code string, uploads []Upload) ([]session.FileRecord, error) {
	sess, err := s.sessions.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if sess.Status != session.StatusActive {
		return nil, cloudtab_errors.ErrSessionCompleted
	}

	records := make([]session.FileRecord, 0, len(uploads))
	for _, up := range uploads {
		v := s.validator.Validate(up.Name, up.MimeType, up.Size)
		if !v.Valid {
			return nil, fmt.Errorf("%w: %s: %s", cloudtab_errors.ErrValidationFailed, up.Name, strings.Join(v.Errors, "; "))
		}

		name := SanitizeFileName(up.Name)
		id := newFileID()
		if err := s.encryptUpload(ctx, sess.Code, id, sess.Key, up.TempPath); err != nil {
			return nil, fmt.Errorf("ingest %s: %w", name, err)
		}
		if err := shred.Erase(up.TempPath); err != nil {
			return nil, fmt.Errorf("erase plaintext upload %s: %w", name, err)
		}

		records = append(records, session.FileRecord{
			ID:         id,
			Name:       name,
			Size:       up.Size,
			MimeType:   up.MimeType,
			Category:   Categorize(up.MimeType),
			UploadedAt: time.Now().UTC(),
		})
	}

	if _, err := s.sessions.Update(ctx, code, func(sess *session.Session) error {
		sess.Files = append(sess.Files, records...)
		return nil
	}); err != nil {
		return nil, err
	}
	return records, nil
}

func (s *IngestService) encryptUpload(ctx context.Context, code, id string, key []byte, tempPath string) error {
	src, err := os.Open(tempPath)
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	pr, pw := io.Pipe()
	defer pr.Close()
	go func() {
		_, err := crypto.Encrypt(pw, src, key)
		pw.CloseWithError(err)
	}()

	if _, err := s.blobs.Put(ctx, code, id, pr); err != nil {
		return err
	}
	return nil
}

// newFileID builds a time-ordered id with a random suffix so concurrent
// uploads in the same millisecond cannot collide.
func newFileID() string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("%d_%s", time.Now().UnixMilli(), suffix)
}
