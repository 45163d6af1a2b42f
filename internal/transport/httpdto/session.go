package httpdto

import (
	"time"

	"cloudtab/internal/domain/session"
)

// FileDTO represents one uploaded file in API responses.
type FileDTO struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	Category   string    `json:"category"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// SessionView is the shopkeeper-facing projection of a session. The
// encryption key is deliberately absent; it never crosses the API.
type SessionView struct {
	SessionID string    `json:"session_id"`
	Files     []FileDTO `json:"files"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UploadResponse is returned after a successful upload batch.
type UploadResponse struct {
	SessionID string    `json:"session_id"`
	Files     []FileDTO `json:"files"`
	ExpiresAt time.Time `json:"expires_at"`
	Status    string    `json:"status"`
}

func NewSessionView(sess session.Session) SessionView {
	return SessionView{
		SessionID: sess.Code,
		Files:     newFileDTOs(sess.Files),
		Status:    string(sess.Status),
		CreatedAt: sess.CreatedAt,
		ExpiresAt: sess.ExpiresAt,
	}
}

func NewUploadResponse(sess session.Session, records []session.FileRecord) UploadResponse {
	return UploadResponse{
		SessionID: sess.Code,
		Files:     newFileDTOs(records),
		ExpiresAt: sess.ExpiresAt,
		Status:    string(sess.Status),
	}
}

func newFileDTOs(records []session.FileRecord) []FileDTO {
	files := make([]FileDTO, 0, len(records))
	for _, f := range records {
		files = append(files, FileDTO{
			ID:         f.ID,
			Name:       f.Name,
			Size:       f.Size,
			MimeType:   f.MimeType,
			Category:   f.Category,
			UploadedAt: f.UploadedAt,
		})
	}
	return files
}
