package middleware

import (
	"net/http"

	"github.com/bookshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// BodyLimit returns a middleware that limits request body size
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(dto.ErrorInfo{
				Code:      dto.ErrCodeBodyTooLarge,
				Message:   "Request body exceeds maximum allowed size",
				RequestID: GetRequestID(c),
			}))
			return
		}

		// Streaming bodies without a Content-Length still get cut off
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
