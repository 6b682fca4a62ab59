package handler

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/bookshop/backend/internal/domain/shared"
	"github.com/bookshop/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// readyTimeout bounds the database ping behind /ready
const readyTimeout = 2 * time.Second

// Pinger reports whether a backing store is reachable. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// SystemHandler handles health and system endpoints
type SystemHandler struct {
	BaseHandler
	name      string
	version   string
	db        Pinger
	startTime time.Time
}

// NewSystemHandler creates a new SystemHandler. db may be nil.
func NewSystemHandler(name, version string, db Pinger) *SystemHandler {
	return &SystemHandler{
		name:      name,
		version:   version,
		db:        db,
		startTime: time.Now(),
	}
}

// SystemInfoResponse represents the system information response
type SystemInfoResponse struct {
	Name      string `json:"name"`
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Uptime    string `json:"uptime"`
}

// HealthResponse is the body of /health and /ready
type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Health handles GET /health. It never touches dependencies.
func (h *SystemHandler) Health(c *gin.Context) {
	h.Success(c, HealthResponse{Status: "ok", Timestamp: time.Now().Format(time.RFC3339)})
}

// Ready handles GET /ready and answers 503 while the database is unreachable
func (h *SystemHandler) Ready(c *gin.Context) {
	resp := HealthResponse{Status: "ok", Timestamp: time.Now().Format(time.RFC3339)}
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), readyTimeout)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, dto.NewErrorResponse(dto.ErrorInfo{
				Code:      "NOT_READY",
				Category:  string(shared.CategoryUnexpected),
				Message:   "Database is unavailable",
				Retryable: true,
				RequestID: getRequestID(c),
			}))
			return
		}
		resp.Database = "ok"
	}
	h.Success(c, resp)
}

// Info handles GET /system/info
func (h *SystemHandler) Info(c *gin.Context) {
	h.Success(c, SystemInfoResponse{
		Name:      h.name,
		Version:   h.version,
		GoVersion: runtime.Version(),
		Uptime:    time.Since(h.startTime).Round(time.Second).String(),
	})
}
