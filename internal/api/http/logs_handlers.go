package http

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxClientEntries bounds one log batch.
const maxClientEntries = 100

// ClientLogEntry is one console message from a dashboard page.
type ClientLogEntry struct {
	Level     string         `json:"level"`
	Message   string         `json:"message" binding:"required"`
	Widget    string         `json:"widget"`
	Context   map[string]any `json:"context"`
	Timestamp string         `json:"timestamp"`
}

// ClientLogRequest is the body of POST /api/logs.
type ClientLogRequest struct {
	Dashboard string           `json:"dashboard"`
	Entries   []ClientLogEntry `json:"entries" binding:"required,dive"`
}

// ReportLogs records console output a dashboard page sends back, such as a
// widget whose data request failed in the browser
func (h *Handlers) ReportLogs(c *gin.Context) {
	var req ClientLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if len(req.Entries) == 0 || len(req.Entries) > maxClientEntries {
		fail(c, fmt.Errorf("%w: expected 1 to %d entries", errBadRequest, maxClientEntries))
		return
	}

	logger := h.logger.Named("client").With(zap.String("dashboard", req.Dashboard))
	for _, entry := range req.Entries {
		fields := make([]zap.Field, 0, len(entry.Context)+2)
		fields = append(fields,
			zap.String("widget", entry.Widget),
			zap.String("client_timestamp", entry.Timestamp),
		)
		for key, value := range entry.Context {
			fields = append(fields, zap.Any(key, value))
		}

		switch entry.Level {
		case "error":
			logger.Error(entry.Message, fields...)
		case "warn":
			logger.Warn(entry.Message, fields...)
		case "debug":
			logger.Debug(entry.Message, fields...)
		default:
			logger.Info(entry.Message, fields...)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"entries_received": len(req.Entries),
	})
}
