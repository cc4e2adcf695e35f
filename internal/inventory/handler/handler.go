package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/auth"
	"github.com/martpos/inventory-service/internal/httpx"
	"github.com/martpos/inventory-service/internal/inventory"
	"github.com/martpos/inventory-service/internal/inventory/dto"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger *zap.Logger
}

func NewInventoryHandler(uc inventory.UseCase, logger *zap.Logger) *InventoryHandler {
	return &InventoryHandler{uc: uc, logger: logger}
}

func (h *InventoryHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/inventory/adjust", h.adjust)
	rg.GET("/inventory", h.list)
	rg.GET("/inventory/products/:id", h.getByProduct)
	rg.GET("/inventory/low-stock", h.lowStock)
	rg.GET("/inventory/movements", h.movements)
}

func (h *InventoryHandler) adjust(c *gin.Context) {
	var input dto.AdjustStockInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err)
		return
	}
	input.TenantID = auth.GetTenantID(c)
	input.UserID = auth.GetUserID(c)

	inv, err := h.uc.AdjustStock(c.Request.Context(), &input)
	if err != nil {
		h.logger.Warn("stock adjustment rejected",
			zap.String("product_id", input.ProductID), zap.Error(err))
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, inv)
}

func (h *InventoryHandler) list(c *gin.Context) {
	filters := &dto.InventoryFilters{
		TenantID:   auth.GetTenantID(c),
		ProductID:  c.Query("product_id"),
		LocationID: optionalQuery(c, "location_id"),
		Page:       queryInt(c, "page", 1),
		PageSize:   queryInt(c, "page_size", 50),
	}
	items, count, err := h.uc.ListInventory(c.Request.Context(), filters)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"items": items, "total": count})
}

func (h *InventoryHandler) getByProduct(c *gin.Context) {
	inv, err := h.uc.GetProductInventory(c.Request.Context(),
		auth.GetTenantID(c), c.Param("id"), optionalQuery(c, "location_id"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, inv)
}

func (h *InventoryHandler) lowStock(c *gin.Context) {
	items, count, err := h.uc.ListLowStock(c.Request.Context(),
		auth.GetTenantID(c), optionalQuery(c, "location_id"),
		queryInt(c, "page", 1), queryInt(c, "page_size", 50))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"items": items, "total": count})
}

func (h *InventoryHandler) movements(c *gin.Context) {
	filters := &dto.MovementFilters{
		TenantID:     auth.GetTenantID(c),
		ProductID:    c.Query("product_id"),
		LocationID:   optionalQuery(c, "location_id"),
		MovementType: c.Query("movement_type"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "page_size", 50),
	}
	items, count, err := h.uc.ListMovements(c.Request.Context(), filters)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"items": items, "total": count})
}

func optionalQuery(c *gin.Context, key string) *string {
	if v := c.Query(key); v != "" {
		return &v
	}
	return nil
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
