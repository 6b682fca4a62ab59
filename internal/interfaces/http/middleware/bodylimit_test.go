package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bookshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func bodyLimitRouter(limit int64) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RequestID(), BodyLimit(limit))
	router.POST("/bills", func(c *gin.Context) {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.Status(http.StatusRequestEntityTooLarge)
			return
		}
		c.String(http.StatusOK, string(body))
	})
	return router
}

func TestBodyLimit_WithinLimit(t *testing.T) {
	w := serve(bodyLimitRouter(64), http.MethodPost, "/bills", `{"lines":[]}`)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `{"lines":[]}`, w.Body.String())
}

func TestBodyLimit_ContentLengthTooLarge(t *testing.T) {
	w := serve(bodyLimitRouter(8), http.MethodPost, "/bills", strings.Repeat("a", 64))
	require.Equal(t, http.StatusRequestEntityTooLarge, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeBodyTooLarge, resp.Error.Code)
	assert.NotEmpty(t, resp.Error.RequestID)
}

func TestBodyLimit_StreamingBody(t *testing.T) {
	router := bodyLimitRouter(8)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/bills", io.NopCloser(strings.NewReader(strings.Repeat("b", 64))))
	req.ContentLength = -1
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
