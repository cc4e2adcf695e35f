package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/auth"
	"github.com/martpos/inventory-service/internal/httpx"
	"github.com/martpos/inventory-service/internal/product"
	"github.com/martpos/inventory-service/internal/product/dto"
)

type ProductHandler struct {
	uc     product.UseCase
	logger *zap.Logger
}

func NewProductHandler(uc product.UseCase, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{uc: uc, logger: logger}
}

func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/products", h.create)
	rg.GET("/products", h.list)
	rg.GET("/products/:id", h.get)
	rg.PUT("/products/:id", h.update)
	rg.DELETE("/products/:id", h.delete)
}

func (h *ProductHandler) create(c *gin.Context) {
	var input dto.CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err)
		return
	}
	input.TenantID = auth.GetTenantID(c)

	p, err := h.uc.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		h.logger.Error("failed to create product", zap.Error(err))
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, p)
}

func (h *ProductHandler) get(c *gin.Context) {
	p, err := h.uc.GetProduct(c.Request.Context(), auth.GetTenantID(c), c.Param("id"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, p)
}

func (h *ProductHandler) list(c *gin.Context) {
	filters := &dto.ProductFilters{
		TenantID:    auth.GetTenantID(c),
		Category:    c.Query("category"),
		Status:      c.Query("status"),
		SearchQuery: c.Query("q"),
		SortBy:      c.Query("sort_by"),
		SortOrder:   c.Query("sort_order"),
		Page:        queryInt(c, "page", 1),
		PageSize:    queryInt(c, "page_size", 50),
	}

	products, count, err := h.uc.ListProducts(c.Request.Context(), filters)
	if err != nil {
		h.logger.Error("failed to list products", zap.Error(err))
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{
		"items":     products,
		"total":     count,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}

func (h *ProductHandler) update(c *gin.Context) {
	var input dto.UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err)
		return
	}
	input.ID = c.Param("id")
	input.TenantID = auth.GetTenantID(c)

	p, err := h.uc.UpdateProduct(c.Request.Context(), &input)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, p)
}

func (h *ProductHandler) delete(c *gin.Context) {
	if err := h.uc.DeleteProduct(c.Request.Context(), auth.GetTenantID(c), c.Param("id")); err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, gin.H{"deleted": true})
}

func queryInt(c *gin.Context, key string, fallback int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
