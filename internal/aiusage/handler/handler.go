package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/aiusage"
	"github.com/martpos/inventory-service/internal/aiusage/dto"
	"github.com/martpos/inventory-service/internal/auth"
	"github.com/martpos/inventory-service/internal/httpx"
)

type UsageHandler struct {
	meter  *aiusage.Meter
	logger *zap.Logger
}

func NewUsageHandler(meter *aiusage.Meter, logger *zap.Logger) *UsageHandler {
	return &UsageHandler{meter: meter, logger: logger}
}

func (h *UsageHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/ai-usage", h.list)
}

func (h *UsageHandler) list(c *gin.Context) {
	filters := &dto.UsageFilters{
		TenantID:  auth.GetTenantID(c),
		Provider:  c.Query("provider"),
		Operation: c.Query("operation"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "page_size", 50),
	}
	if t, ok := queryTime(c, "start_date"); ok {
		filters.StartDate = &t
	}
	if t, ok := queryTime(c, "end_date"); ok {
		filters.EndDate = &t
	}

	items, count, err := h.meter.List(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list ai usage", zap.Error(err))
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"items": items, "total": count})
}

func queryTime(c *gin.Context, key string) (time.Time, bool) {
	v := c.Query(key)
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
