package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	cloudtab_errors "cloudtab/pkg/errors"
)

// GenerateKey returns a fresh 256-bit key.
func GenerateKey() ([]byte, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return key, nil
}

// ParseKey decodes a 64-character hex master secret.
func ParseKey(hexKey string) ([]byte, error) {
	key, err := hex.DecodeString(hexKey)
	if err != nil {
		return nil, fmt.Errorf("%w: not hex encoded", cloudtab_errors.ErrInvalidKey)
	}
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", cloudtab_errors.ErrInvalidKey, len(key), KeySize)
	}
	return key, nil
}

// DeriveSessionKey derives the per-session key from the master secret via
// HKDF-SHA-256, bound to the session code. Each session gets its own key so
// destroying a session never weakens any other.
func DeriveSessionKey(master []byte, code string) ([]byte, error) {
	if len(master) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", cloudtab_errors.ErrInvalidKey, len(master), KeySize)
	}
	reader := hkdf.New(sha256.New, master, nil, []byte("cloudtab session key "+code))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(reader, key); err != nil {
		return nil, fmt.Errorf("derive session key: %w", err)
	}
	return key, nil
}
