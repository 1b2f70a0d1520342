package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/widgetkit/internal/dashboard"
)

// ListDashboards lists the loaded dashboards
func (h *Handlers) ListDashboards(c *gin.Context) {
	list := h.catalog.List()
	c.JSON(http.StatusOK, gin.H{
		"dashboards": list,
		"count":      len(list),
	})
}

// RenderDashboard serves a dashboard as an HTML page
func (h *Handlers) RenderDashboard(c *gin.Context) {
	page, ok := h.render(c)
	if !ok {
		return
	}

	out, err := page.HTML()
	if err != nil {
		fail(c, err)
		return
	}

	c.Header("X-Widgets-Rendered", strconv.Itoa(page.Rendered))
	c.Header("X-Widgets-Failed", strconv.Itoa(len(page.Failures)))
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(out))
}

// PreviewDashboard renders a dashboard and dry-runs its init script
func (h *Handlers) PreviewDashboard(c *gin.Context) {
	page, ok := h.render(c)
	if !ok {
		return
	}

	result, err := h.sandbox.Execute(c.Request.Context(), page.Script, page.Doc)
	if result == nil {
		fail(c, err)
		return
	}

	body := gin.H{
		"dashboard":   page.Dashboard.Name,
		"rendered":    page.Rendered,
		"failures":    page.Failures,
		"widgets":     result.Widgets,
		"console":     result.Console,
		"duration_ms": result.Duration.Milliseconds(),
		"script":      page.Script,
	}
	if err != nil {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handlers) render(c *gin.Context) (*dashboard.Page, bool) {
	d, err := h.catalog.Get(c.Param("name"))
	if err != nil {
		fail(c, err)
		return nil, false
	}

	page, err := h.renderer.Render(c.Request.Context(), d)
	if err != nil {
		fail(c, err)
		return nil, false
	}
	return page, true
}
