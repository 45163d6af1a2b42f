package session

import (
	"time"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
)

// Session is a time-boxed, code-addressed bundle of encrypted files plus the
// symmetric key they were encrypted under. The code is the only external
// handle; the key never leaves the server.
type Session struct {
	Code      string       `json:"code"`
	Files     []FileRecord `json:"files"`
	Key       []byte       `json:"key"`
	CreatedAt time.Time    `json:"created_at"`
	ExpiresAt time.Time    `json:"expires_at"`
	Status    Status       `json:"status"`
}

// FileRecord describes one uploaded file. Exactly one ciphertext blob exists
// per record, stored as <code>/<id>.enc.
type FileRecord struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	Category   string    `json:"category"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Expired reports whether the session's TTL has elapsed at the given instant.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// File returns the record with the given id, if present.
func (s *Session) File(id string) (FileRecord, bool) {
	for _, f := range s.Files {
		if f.ID == id {
			return f, true
		}
	}
	return FileRecord{}, false
}
