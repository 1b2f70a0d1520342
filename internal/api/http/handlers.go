package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/widgetkit/internal/dashboard"
	"github.com/GriffinCanCode/widgetkit/internal/httpclient"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/logging"
	"github.com/GriffinCanCode/widgetkit/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/widgetkit/internal/notify"
	"github.com/GriffinCanCode/widgetkit/internal/sandbox"
	"github.com/GriffinCanCode/widgetkit/internal/source"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	store    *source.Store
	catalog  *dashboard.Catalog
	renderer *dashboard.Renderer
	notifier *notify.Notifier
	sandbox  *sandbox.Pool
	upstream *httpclient.Client
	metrics  *monitoring.Metrics
	logger   *logging.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	store *source.Store,
	catalog *dashboard.Catalog,
	renderer *dashboard.Renderer,
	notifier *notify.Notifier,
	pool *sandbox.Pool,
	upstream *httpclient.Client,
	metrics *monitoring.Metrics,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Handlers{
		store:    store,
		catalog:  catalog,
		renderer: renderer,
		notifier: notifier,
		sandbox:  pool,
		upstream: upstream,
		metrics:  metrics,
		logger:   logger.Named("api"),
	}
}

// Register attaches every route to router.
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	api := router.Group("/api")
	api.GET("/data/:table", h.QueryData)
	api.POST("/data/:table", h.InsertData)
	api.DELETE("/data/:table/:id", h.DeleteData)
	api.GET("/dashboards", h.ListDashboards)
	api.GET("/dashboards/:name/preview", h.PreviewDashboard)
	api.POST("/notify", h.Notify)
	api.POST("/logs", h.ReportLogs)

	router.GET("/dashboards/:name", h.RenderDashboard)
}

// Root describes the service
func (h *Handlers) Root(c *gin.Context) {
	names := []string{}
	for _, d := range h.catalog.List() {
		names = append(names, d.Name)
	}
	c.JSON(http.StatusOK, gin.H{
		"status":     "online",
		"service":    "widgetkit",
		"version":    Version,
		"dashboards": names,
	})
}

// Health reports the store, open upstream breakers and the sandbox pool
func (h *Handlers) Health(c *gin.Context) {
	status := http.StatusOK
	body := gin.H{
		"status":     "healthy",
		"dashboards": len(h.catalog.List()),
		"upstream":   gin.H{"open_breakers": h.upstream.OpenEndpoints()},
		"sandbox":    h.sandbox.Stats(),
	}

	tables, err := h.store.Tables(c.Request.Context())
	if err != nil {
		status = http.StatusServiceUnavailable
		body["status"] = "degraded"
		body["store"] = gin.H{"error": err.Error()}
	} else {
		body["store"] = gin.H{"tables": tables}
	}

	c.JSON(status, body)
}
