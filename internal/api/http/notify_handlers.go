package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/widgetkit/internal/notify"
)

// NotifyRequest is the body of POST /api/notify.
type NotifyRequest struct {
	URL     string `json:"url" binding:"required"`
	Method  string `json:"method" binding:"omitempty,oneof=GET POST PUT PATCH DELETE get post put patch delete"`
	Payload any    `json:"payload"`
}

// Notify runs an action request against this service and returns the
// notification that was displayed for it
func (h *Handlers) Notify(c *gin.Context) {
	var req NotifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	// Relative paths only.
	if !strings.HasPrefix(req.URL, "/") || strings.HasPrefix(req.URL, "//") {
		fail(c, fmt.Errorf("%w: url must be a path on this service", errBadRequest))
		return
	}

	note := h.notifier.Call(c.Request.Context(), req.URL, notify.CallOptions{
		Method:  req.Method,
		Payload: req.Payload,
	})
	c.JSON(http.StatusOK, note)
}
