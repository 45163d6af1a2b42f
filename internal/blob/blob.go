// Package blob stores ciphertext blobs, keyed by session code and file id.
// Blobs are laid out as <code>/<id>.enc regardless of backing.
package blob

import (
	"context"
	"io"
)

type Store interface {
	// Put streams a ciphertext blob into <code>/<id>.enc and returns the
	// number of bytes stored.
	Put(ctx context.Context, code, id string, r io.Reader) (int64, error)
	// Open returns a reader over a stored blob. Fails with ErrFileNotFound
	// when the blob is absent.
	Open(ctx context.Context, code, id string) (io.ReadCloser, error)
	// Delete removes a single blob. Absent blobs are not an error.
	Delete(ctx context.Context, code, id string) error
	// DeleteAll removes every blob owned by a session, and the session's
	// directory or prefix with it. Idempotent.
	DeleteAll(ctx context.Context, code string) error
	// Owners lists the session codes that currently own blobs. The sweeper
	// uses it to find orphans with no matching store record.
	Owners(ctx context.Context) ([]string, error)
}
