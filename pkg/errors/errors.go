package cloudtab_errors

import "errors"

// Common errors
var (
	ErrSessionNotFound   = errors.New("session not found or expired")
	ErrSessionCompleted  = errors.New("session already completed")
	ErrFileNotFound      = errors.New("file not found in session")
	ErrValidationFailed  = errors.New("file validation failed")
	ErrCorruptCiphertext = errors.New("corrupt ciphertext")
	ErrDecryptionFailed  = errors.New("decryption failed")
	ErrInvalidKey        = errors.New("invalid encryption key")
	ErrAlreadyExists     = errors.New("already exists")
	ErrExhaustedRetries  = errors.New("exhausted retries")
	ErrInvalidInput      = errors.New("invalid input")
	ErrTooLarge          = errors.New("file too large")
	ErrTooManyFiles      = errors.New("too many files")
	ErrRateLimited       = errors.New("rate limited")
	ErrStorageFailure    = errors.New("storage failure")
)
