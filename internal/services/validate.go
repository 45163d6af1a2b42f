package services

import (
	"fmt"
	"path/filepath"
	"strings"
)

var allowedMimeTypes = map[string]struct{}{
	"application/pdf": {},
	"image/jpeg":      {},
	"image/jpg":       {},
	"image/png":       {},
	"image/tiff":      {},
	"application/msword": {},
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": {},
	"application/vnd.ms-excel": {},
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet": {},
	"text/plain": {},
}

var allowedExtensions = map[string]struct{}{
	".pdf": {}, ".jpg": {}, ".jpeg": {}, ".png": {}, ".doc": {}, ".docx": {},
	".xls": {}, ".xlsx": {}, ".txt": {}, ".tiff": {}, ".tif": {},
}

var fileNameStripper = strings.NewReplacer(
	"..", "", "/", "", "\\", "",
	"<", "", ">", "", ":", "", "\"", "", "|", "", "?", "", "*", "",
)

// FileValidator enforces the upload allow-list and size cap.
type FileValidator struct {
	MaxFileSize int64
}

func NewFileValidator(maxFileSize int64) *FileValidator {
	return &FileValidator{MaxFileSize: maxFileSize}
}

type Validation struct {
	Valid  bool
	Errors []string
}

func (v *FileValidator) Validate(name, mimeType string, size int64) Validation {
	var errs []string

	if size > v.MaxFileSize {
		errs = append(errs, fmt.Sprintf("file exceeds maximum size of %dMB", v.MaxFileSize/(1<<20)))
	}
	if _, ok := allowedMimeTypes[mimeType]; !ok {
		errs = append(errs, fmt.Sprintf("file type %s is not allowed", mimeType))
	}
	ext := strings.ToLower(filepath.Ext(name))
	if _, ok := allowedExtensions[ext]; !ok {
		errs = append(errs, fmt.Sprintf("file extension %s is not allowed", ext))
	}

	return Validation{Valid: len(errs) == 0, Errors: errs}
}

// SanitizeFileName strips path traversal sequences and characters that are
// unsafe in display names or headers.
func SanitizeFileName(name string) string {
	return strings.TrimSpace(fileNameStripper.Replace(name))
}

// Categorize maps a MIME type to the coarse category shown in the viewer.
func Categorize(mimeType string) string {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return "image"
	case mimeType == "application/pdf":
		return "pdf"
	case strings.Contains(mimeType, "word") || strings.Contains(mimeType, "document"):
		return "document"
	case strings.Contains(mimeType, "sheet") || strings.Contains(mimeType, "excel"):
		return "spreadsheet"
	default:
		return "file"
	}
}
