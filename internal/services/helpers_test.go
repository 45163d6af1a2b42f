package services

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"cloudtab/internal/blob"
	"cloudtab/internal/crypto"
	"cloudtab/internal/store"
)

type fixture struct {
	sessions *SessionService
	ingest   *IngestService
	retrieve *RetrieveService
	store    *store.FileStore
	blobs    *blob.DiskStore
	master   []byte
	blobDir  string
	tmpDir   string
}

func newFixture(t *testing.T, ttl time.Duration) *fixture {
	t.Helper()
	root := t.TempDir()

	st, err := store.NewFileStore(filepath.Join(root, "sessions"))
	require.NoError(t, err)

	blobDir := filepath.Join(root, "uploads")
	blobs, err := blob.NewDiskStore(blobDir)
	require.NoError(t, err)

	master, err := crypto.GenerateKey()
	require.NoError(t, err)

	tmpDir := filepath.Join(root, "tmp")
	require.NoError(t, os.MkdirAll(tmpDir, 0o700))

	sessions := NewSessionService(st, blobs, master, ttl, nil)
	validator := NewFileValidator(50 << 20)
	return &fixture{
		sessions: sessions,
		ingest:   NewIngestService(sessions, blobs, validator, nil),
		retrieve: NewRetrieveService(sessions, blobs, tmpDir, nil),
		store:    st,
		blobs:    blobs,
		master:   master,
		blobDir:  blobDir,
		tmpDir:   tmpDir,
	}
}
