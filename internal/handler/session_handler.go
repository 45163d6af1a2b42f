package handler

import (
	"net/http"

	"cloudtab/internal/middleware"
	"cloudtab/internal/services"
	"cloudtab/internal/transport/httpdto"
	"cloudtab/pkg/logger"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"
)

type SessionHandler struct {
	sessions      *services.SessionService
	retrieve      *services.RetrieveService
	publicBaseURL string
	log           *logger.Logger
}

func NewSessionHandler(sessions *services.SessionService, retrieve *services.RetrieveService, publicBaseURL string, l *logger.Logger) *SessionHandler {
	return &SessionHandler{sessions: sessions, retrieve: retrieve, publicBaseURL: publicBaseURL, log: l}
}

func (h *SessionHandler) Get(c *gin.Context) {
	sess, err := h.sessions.Get(c.Request.Context(), middleware.SessionCode(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewSessionView(sess)))
}

func (h *SessionHandler) Complete(c *gin.Context) {
	code := middleware.SessionCode(c)
	if err := h.sessions.Complete(c.Request.Context(), code); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(gin.H{"message": "session completed and all files deleted"}))
}

// ViewFile streams the decrypted file inline. The transient plaintext is
// erased when the stream ends, whether it completed, failed, or the client
// went away.
func (h *SessionHandler) ViewFile(c *gin.Context) {
	code := middleware.SessionCode(c)
	record, stream, err := h.retrieve.Open(c.Request.Context(), code, c.Param("fileID"))
	if err != nil {
		respondError(c, err)
		return
	}
	defer stream.Close()

	extraHeaders := map[string]string{
		"Content-Disposition":     "inline",
		"Cache-Control":           "no-store, no-cache, must-revalidate, private",
		"Pragma":                  "no-cache",
		"Expires":                 "0",
		"X-Content-Type-Options":  "nosniff",
		"X-Download-Options":      "noopen",
		"Content-Security-Policy": "default-src 'self'",
		"X-Frame-Options":         "SAMEORIGIN",
		"X-Session-ID":            code,
	}
	c.DataFromReader(http.StatusOK, record.Size, record.MimeType, stream, extraHeaders)
}

// DownloadFile is deliberately disabled: documents must never persist on the
// shopkeeper's disk. Printing goes through the inline viewer.
func (h *SessionHandler) DownloadFile(c *gin.Context) {
	c.JSON(http.StatusForbidden, httpdto.NewErrorResponse(
		"files cannot be downloaded to disk; use the print button instead", "DOWNLOAD_DISABLED"))
}

// QR renders the shopkeeper URL for a session as a PNG QR code.
func (h *SessionHandler) QR(c *gin.Context) {
	code := middleware.SessionCode(c)
	if _, err := h.sessions.Get(c.Request.Context(), code); err != nil {
		respondError(c, err)
		return
	}

	png, err := qrcode.Encode(h.publicBaseURL+"/shopkeeper/"+code, qrcode.Medium, 256)
	if err != nil {
		respondError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}
