package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFileValidatorValidate(t *testing.T) {
	v := NewFileValidator(50 << 20)

	tests := []struct {
		name     string
		fileName string
		mimeType string
		size     int64
		valid    bool
	}{
		{"pdf ok", "invoice.pdf", "application/pdf", 1024, true},
		{"jpeg ok", "photo.jpg", "image/jpeg", 1024, true},
		{"docx ok", "letter.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document", 1024, true},
		{"plain text ok", "notes.txt", "text/plain", 1, true},
		{"at size limit", "big.pdf", "application/pdf", 50 << 20, true},
		{"over size limit", "huge.pdf", "application/pdf", (50 << 20) + 1, false},
		{"executable", "setup.exe", "application/octet-stream", 1024, false},
		{"mime spoofed extension", "script.sh", "application/pdf", 1024, false},
		{"extension spoofed mime", "doc.pdf", "text/html", 1024, false},
		{"no extension", "README", "text/plain", 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := v.Validate(tt.fileName, tt.mimeType, tt.size)
			assert.Equal(t, tt.valid, got.Valid)
			if !tt.valid {
				assert.NotEmpty(t, got.Errors)
			}
		})
	}
}

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"invoice.pdf", "invoice.pdf"},
		{"../../etc/passwd", "etcpasswd"},
		{"a/b\\c.txt", "abc.txt"},
		{`sp<ace>:"|?*.pdf`, "space.pdf"},
		{"  padded.txt  ", "padded.txt"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFileName(tt.in), tt.in)
	}
}

func TestCategorize(t *testing.T) {
	assert.Equal(t, "image", Categorize("image/png"))
	assert.Equal(t, "image", Categorize("image/jpeg"))
	assert.Equal(t, "pdf", Categorize("application/pdf"))
	assert.Equal(t, "document", Categorize("application/vnd.openxmlformats-officedocument.wordprocessingml.document"))
	assert.Equal(t, "document", Categorize("application/msword"))
	assert.Equal(t, "spreadsheet", Categorize("application/vnd.ms-excel"))
	assert.Equal(t, "spreadsheet", Categorize("application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"))
	assert.Equal(t, "file", Categorize("text/plain"))
}
