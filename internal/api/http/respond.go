package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/widgetkit/internal/dashboard"
	"github.com/GriffinCanCode/widgetkit/internal/notify"
	"github.com/GriffinCanCode/widgetkit/internal/sandbox"
	"github.com/GriffinCanCode/widgetkit/internal/source"
)

// fail answers with a message envelope whose status follows the error kind.
func fail(c *gin.Context, err error) {
	status := statusFor(err)
	label := notify.TypeWarning
	if status >= http.StatusInternalServerError {
		label = notify.TypeDanger
	}
	c.AbortWithStatusJSON(status, notify.NewMessage(err, false, label))
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, source.ErrUnknownTable),
		errors.Is(err, dashboard.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, source.ErrUnknownField),
		errors.Is(err, source.ErrBadQuery),
		errors.Is(err, source.ErrEmptyRecord),
		errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case errors.Is(err, sandbox.ErrTimeout),
		errors.Is(err, sandbox.ErrPoolClosed):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

var errBadRequest = errors.New("bad request")
