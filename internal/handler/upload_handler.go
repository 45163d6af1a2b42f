package handler

import (
	"fmt"
	"net/http"
	"os"

	"cloudtab/internal/services"
	"cloudtab/internal/shred"
	"cloudtab/internal/transport/httpdto"
	cloudtab_errors "cloudtab/pkg/errors"
	"cloudtab/pkg/logger"

	"github.com/gin-gonic/gin"
)

type UploadHandler struct {
	sessions *services.SessionService
	ingest   *services.IngestService
	maxFiles int
	tmpDir   string
	log      *logger.Logger
}

func NewUploadHandler(sessions *services.SessionService, ingest *services.IngestService, maxFiles int, tmpDir string, l *logger.Logger) *UploadHandler {
	if tmpDir == "" {
		tmpDir = os.TempDir()
	}
	return &UploadHandler{sessions: sessions, ingest: ingest, maxFiles: maxFiles, tmpDir: tmpDir, log: l}
}

// Upload accepts a multipart batch, creates a session, and ingests every
// file. Plaintext spill files are erased whether or not ingestion succeeds.
func (h *UploadHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid multipart request", "INVALID_REQUEST"))
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("no files provided", "NO_FILES"))
		return
	}
	if len(files) > h.maxFiles {
		respondError(c, fmt.Errorf("%w: maximum is %d files per upload", cloudtab_errors.ErrTooManyFiles, h.maxFiles))
		return
	}

	uploads := make([]services.Upload, 0, len(files))
	defer func() {
		// Ingestion erases each spill file it consumed; this pass catches the
		// ones an early failure left behind. Erase is idempotent.
		for _, up := range uploads {
			if err := shred.Erase(up.TempPath); err != nil && h.log != nil {
				h.log.Errorf("erase upload spill %s: %s", up.TempPath, err)
			}
		}
	}()

	for _, fh := range files {
		tmp, err := os.CreateTemp(h.tmpDir, "cloudtab-upload-*")
		if err != nil {
			respondError(c, err)
			return
		}
		tmp.Close()
		if err := c.SaveUploadedFile(fh, tmp.Name()); err != nil {
			uploads = append(uploads, services.Upload{TempPath: tmp.Name()})
			respondError(c, err)
			return
		}
		uploads = append(uploads, services.Upload{
			Name:     fh.Filename,
			Size:     fh.Size,
			MimeType: fh.Header.Get("Content-Type"),
			TempPath: tmp.Name(),
		})
	}

	sess, err := h.sessions.Create(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	records, err := h.ingest.Ingest(c.Request.Context(), sess.Code, uploads)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewUploadResponse(sess, records)))
}
