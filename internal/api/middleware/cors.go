package middleware

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/tracing"
)

// corsMaxAge is how long browsers may cache a preflight answer.
const corsMaxAge = 12 * time.Hour

// CORS lets dashboard pages served from origins read the data endpoints and
// post actions and client logs. An empty list or "*" allows any origin.
// Credentials are never allowed; widget requests carry none.
func CORS(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			"Origin", "Accept", "Content-Type", "X-Requested-With",
			tracing.TraceHeader, tracing.SpanHeader,
		},
		ExposeHeaders: []string{
			tracing.TraceHeader, tracing.SpanHeader,
			"X-Widgets-Rendered", "X-Widgets-Failed",
		},
		MaxAge: corsMaxAge,
	}
	if len(origins) == 0 || slices.Contains(origins, "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cors.New(cfg)
}
