package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloudtab/internal/blob"
	"cloudtab/internal/crypto"
	"cloudtab/internal/domain/session"
	"cloudtab/internal/store"
	cloudtab_errors "cloudtab/pkg/errors"
	"cloudtab/pkg/logger"
)

// codeAttempts bounds the collision retry loop for session codes. At
// 36^6 possible codes a handful of attempts is already generous.
const codeAttempts = 5

// SessionService owns the session lifecycle: creation with a fresh derived
// key, expiry-checked reads that self-heal, serialized updates, and
// completion. Every mutating path holds the per-code lock.
type SessionService struct {
	store  store.Store
	blobs  blob.Store
	locks  *store.KeyMutex
	master []byte
	ttl    time.Duration
	log    *logger.Logger
}

func NewSessionService(st store.Store, blobs blob.Store, master []byte, ttl time.Duration, l *logger.Logger) *SessionService {
	return &SessionService{
		store:  st,
		blobs:  blobs,
		locks:  store.NewKeyMutex(),
		master: master,
		ttl:    ttl,
		log:    l,
	}
}

// Create generates a unique code, derives the session key, and persists an
// empty active session. Fails with ErrExhaustedRetries if every candidate
// code collides.
func (s *SessionService) Create(ctx context.Context) (session.Session, error) {
	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := store.GenerateCode()
		if err != nil {
			return session.Session{}, err
		}
		key, err := crypto.DeriveSessionKey(s.master, code)
		if err != nil {
			return session.Session{}, err
		}

		now := time.Now().UTC()
		sess := session.Session{
			Code:      code,
			Files:     []session.FileRecord{},
			Key:       key,
			CreatedAt: now,
			ExpiresAt: now.Add(s.ttl),
			Status:    session.StatusActive,
		}
		err = s.store.Put(ctx, &sess)
		if errors.Is(err, cloudtab_errors.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return session.Session{}, err
		}
		return sess, nil
	}
	return session.Session{}, fmt.Errorf("%w: session code generation", cloudtab_errors.ErrExhaustedRetries)
}

// Get loads a session, checking expiry on every read. An expired session is
// destroyed on the spot (files erased, record deleted) and reported as not
// found, so cleanup does not depend on the sweeper having run.
func (s *SessionService) Get(ctx context.Context, code string) (session.Session, error) {
	code = store.NormalizeCode(code)
	unlock := s.locks.Lock(code)
	defer unlock()
	return s.getLocked(ctx, code)
}

// Update applies mutator to the session under the per-code lock and
// persists the result. Only active sessions may be mutated.
func (s *SessionService) Update(ctx context.Context, code string, mutator func(*session.Session) error) (session.Session, error) {
	code = store.NormalizeCode(code)
	unlock := s.locks.Lock(code)
	defer unlock()

	sess, err := s.getLocked(ctx, code)
	if err != nil {
		return session.Session{}, err
	}
	if sess.Status != session.StatusActive {
		return session.Session{}, cloudtab_errors.ErrSessionCompleted
	}
	if err := mutator(&sess); err != nil {
		return session.Session{}, err
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return session.Session{}, err
	}
	return sess, nil
}

// Complete erases every file the session owns and removes the record. The
// session is gone afterwards; there is no way back.
func (s *SessionService) Complete(ctx context.Context, code string) error {
	code = store.NormalizeCode(code)
	unlock := s.locks.Lock(code)
	defer unlock()

	if _, err := s.getLocked(ctx, code); err != nil {
		return err
	}
	return s.destroyLocked(ctx, code)
}

func (s *SessionService) getLocked(ctx context.Context, code string) (session.Session, error) {
	sess, err := s.store.Get(ctx, code)
	if err != nil {
		return session.Session{}, err
	}
	if sess.Expired(time.Now()) {
		if derr := s.destroyLocked(ctx, code); derr != nil && s.log != nil {
			s.log.Errorf("expired session %s cleanup: %s", code, derr)
		}
		return session.Session{}, cloudtab_errors.ErrSessionNotFound
	}
	return sess, nil
}

// destroyLocked erases the session's blobs before dropping the record, so a
// crash in between leaves an orphaned directory for the sweeper rather than
// a record pointing at erased files.
func (s *SessionService) destroyLocked(ctx context.Context, code string) error {
	if err := s.blobs.DeleteAll(ctx, code); err != nil {
		return fmt.Errorf("erase session files: %w", err)
	}
	return s.store.Delete(ctx, code)
}
