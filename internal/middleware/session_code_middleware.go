package middleware

import (
	"net/http"

	"cloudtab/internal/store"
	"cloudtab/internal/transport/httpdto"

	"github.com/gin-gonic/gin"
)

// SessionCodeMiddleware rejects malformed session codes before they reach a
// handler. Entry is case-insensitive; the normalized form is stored on the
// context for handlers to pick up.
func SessionCodeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		code := store.NormalizeCode(c.Param("code"))
		if !store.ValidCode(code) {
			c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse("invalid session code format", "INVALID_CODE"))
			c.Abort()
			return
		}
		c.Set("session_code", code)
		c.Next()
	}
}

// SessionCode returns the normalized code set by SessionCodeMiddleware.
func SessionCode(c *gin.Context) string {
	return c.GetString("session_code")
}
