// Package store persists session records behind a small key-value
// interface. The physical backing (JSON files, Redis, Postgres) is an
// implementation choice; expiry logic lives one layer up in the services.
package store

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"cloudtab/internal/domain/session"
)

type Store interface {
	// Put creates a new record. Fails with ErrAlreadyExists when the code is
	// taken, which drives the collision retry in the session service.
	Put(ctx context.Context, s *session.Session) error
	// Get loads a record. Fails with ErrSessionNotFound when absent; expiry
	// is not checked here.
	Get(ctx context.Context, code string) (session.Session, error)
	// Save overwrites the full record.
	Save(ctx context.Context, s session.Session) error
	// Delete removes a record. Deleting an absent record is not an error.
	Delete(ctx context.Context, code string) error
	// ListCodes returns every stored session code. Used by the sweeper.
	ListCodes(ctx context.Context) ([]string, error)
}

// CodeLength is the session code length; codes are drawn from [0-9A-Z].
const CodeLength = 6

const codeAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

var codePattern = regexp.MustCompile(`^[0-9A-Z]{6}$`)

// GenerateCode returns a random 6-character uppercase alphanumeric code.
func GenerateCode() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(codeAlphabet)))
	for i := 0; i < CodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeCode upper-cases and trims a caller-supplied code. Entry is
// case-insensitive.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether a normalized code has the expected shape.
func ValidCode(code string) bool {
	return codePattern.MatchString(code)
}
