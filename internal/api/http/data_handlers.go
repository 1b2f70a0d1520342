package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/widgetkit/internal/notify"
	"github.com/GriffinCanCode/widgetkit/internal/source"
)

// QueryData answers GET /api/data/:table in the envelope the query asks for
func (h *Handlers) QueryData(c *gin.Context) {
	table := c.Param("table")

	q, err := source.ParseQuery(c.Request.URL.Query())
	if err != nil {
		fail(c, err)
		return
	}

	out, err := h.store.Run(c.Request.Context(), table, q)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			h.logger.Error("data query failed", zap.String("table", table), zap.Error(err))
		}
		fail(c, err)
		return
	}

	h.metrics.RecordDataQuery(table, string(q.Format))
	c.JSON(http.StatusOK, out)
}

// InsertData adds the JSON object in the body as a row
func (h *Handlers) InsertData(c *gin.Context) {
	table := c.Param("table")

	var record map[string]any
	if err := c.ShouldBindJSON(&record); err != nil {
		fail(c, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}

	id, err := h.store.Insert(c.Request.Context(), table, record)
	if err != nil {
		if statusFor(err) >= http.StatusInternalServerError {
			h.logger.Error("insert failed", zap.String("table", table), zap.Error(err))
		}
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, notify.NewMessage(fmt.Sprintf("Record %d added to %s", id, table), true, notify.TypeSuccess))
}

// DeleteData removes a row by id
func (h *Handlers) DeleteData(c *gin.Context) {
	table := c.Param("table")

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		fail(c, fmt.Errorf("%w: id must be an integer", errBadRequest))
		return
	}

	deleted, err := h.store.Delete(c.Request.Context(), table, id)
	if err != nil {
		fail(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, notify.NewMessage(fmt.Sprintf("Record %d not found in %s", id, table), false, notify.TypeWarning))
		return
	}

	c.JSON(http.StatusOK, notify.NewMessage(fmt.Sprintf("Record %d deleted from %s", id, table), true, notify.TypeSuccess))
}
