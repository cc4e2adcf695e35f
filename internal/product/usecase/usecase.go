package usecase

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/events"
	"github.com/martpos/inventory-service/internal/model"
	"github.com/martpos/inventory-service/internal/platform/cache"
	"github.com/martpos/inventory-service/internal/platform/search"
	"github.com/martpos/inventory-service/internal/product"
	"github.com/martpos/inventory-service/internal/product/dto"
)

const productsIndex = "products"

const productsMapping = `{
	"mappings": {
		"properties": {
			"tenant_id": { "type": "keyword" },
			"name": { "type": "text" },
			"description": { "type": "text" },
			"sku": { "type": "keyword" },
			"barcode": { "type": "keyword" },
			"category": { "type": "keyword" },
			"base_price": { "type": "double" },
			"status": { "type": "keyword" },
			"created_at": { "type": "date" }
		}
	}
}`

type productUseCase struct {
	repo   product.Repository
	cache  *cache.RedisClient
	es     *search.Client
	events events.Publisher
	logger *zap.Logger
}

func NewProductUseCase(repo product.Repository, redis *cache.RedisClient, es *search.Client, pub events.Publisher, logger *zap.Logger) product.UseCase {
	if pub == nil {
		pub = events.Nop{}
	}
	return &productUseCase{
		repo:   repo,
		cache:  redis,
		es:     es,
		events: pub,
		logger: logger,
	}
}

func (uc *productUseCase) CreateProduct(ctx context.Context, input *dto.CreateProductInput) (*model.Product, error) {
	unique, err := uc.repo.IsSKUUnique(ctx, input.TenantID, input.SKU, "")
	if err != nil {
		return nil, err
	}
	if !unique {
		return nil, model.ErrSKUTaken
	}

	if input.Barcode != "" {
		unique, err := uc.repo.IsBarcodeUnique(ctx, input.TenantID, input.Barcode, "")
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, model.ErrBarcodeTaken
		}
	}

	now := time.Now().UTC()
	p := &model.Product{
		BaseModel: model.BaseModel{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now},
		TenantID:  input.TenantID,
		SKU:       input.SKU,
		Name:      input.Name,
		BasePrice: input.BasePrice,
		CostPrice: input.CostPrice,
		TaxRate:   input.TaxRate,
		Status:    model.ProductStatusActive,
	}
	if input.Barcode != "" {
		p.Barcode = &input.Barcode
	}
	if input.Description != "" {
		p.Description = &input.Description
	}
	if input.Category != "" {
		p.Category = &input.Category
	}

	if err := uc.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidateListCache(context.Background(), input.TenantID)
	go uc.syncToElastic(context.Background(), p)
	uc.events.Emit(events.TypeProductCreated, p.TenantID,
		events.ProductPayload{ProductID: p.ID, SKU: p.SKU})

	return p, nil
}

func (uc *productUseCase) GetProduct(ctx context.Context, tenantID, id string) (*model.Product, error) {
	return uc.repo.FindByID(ctx, tenantID, id)
}

func (uc *productUseCase) ListProducts(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	cacheKey := uc.listCacheKey(filters)
	if uc.cache != nil && cacheKey != "" {
		var cached struct {
			Products []model.Product
			Count    int
		}
		if found, err := uc.cache.GetJSON(ctx, cacheKey, &cached); err == nil && found {
			return cached.Products, cached.Count, nil
		}
	}

	// Text queries prefer Elasticsearch; DB is the fallback when the cluster
	// is down or unconfigured.
	if filters.SearchQuery != "" && uc.es != nil {
		products, count, err := uc.searchElastic(ctx, filters)
		if err == nil {
			return products, count, nil
		}
		uc.logger.Error("es search failed, falling back to db", zap.Error(err))
	}

	products, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, err
	}

	if uc.cache != nil && cacheKey != "" {
		payload := struct {
			Products []model.Product
			Count    int
		}{products, count}
		if err := uc.cache.SetJSON(ctx, cacheKey, payload, 5*time.Minute); err != nil {
			uc.logger.Debug("failed to cache product list", zap.Error(err))
		}
	}

	return products, count, nil
}

func (uc *productUseCase) UpdateProduct(ctx context.Context, input *dto.UpdateProductInput) (*model.Product, error) {
	p, err := uc.repo.FindByID(ctx, input.TenantID, input.ID)
	if err != nil {
		return nil, err
	}

	if p.SKU != input.SKU {
		unique, err := uc.repo.IsSKUUnique(ctx, input.TenantID, input.SKU, p.ID)
		if err != nil {
			return nil, err
		}
		if !unique {
			return nil, model.ErrSKUTaken
		}
	}

	p.SKU = input.SKU
	p.Name = input.Name
	p.BasePrice = input.BasePrice
	p.CostPrice = input.CostPrice
	p.TaxRate = input.TaxRate
	p.Barcode = nil
	if input.Barcode != "" {
		p.Barcode = &input.Barcode
	}
	p.Description = nil
	if input.Description != "" {
		p.Description = &input.Description
	}
	p.Category = nil
	if input.Category != "" {
		p.Category = &input.Category
	}
	if input.Status != "" {
		p.Status = model.ProductStatus(input.Status)
	}
	p.UpdatedAt = time.Now().UTC()

	if err := uc.repo.Update(ctx, p); err != nil {
		return nil, err
	}

	go uc.invalidateListCache(context.Background(), p.TenantID)
	go uc.syncToElastic(context.Background(), p)
	uc.events.Emit(events.TypeProductUpdated, p.TenantID,
		events.ProductPayload{ProductID: p.ID, SKU: p.SKU})

	return p, nil
}

func (uc *productUseCase) DeleteProduct(ctx context.Context, tenantID, id string) error {
	if err := uc.repo.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	go uc.invalidateListCache(context.Background(), tenantID)
	if uc.es != nil {
		go func() {
			if err := uc.es.Delete(context.Background(), productsIndex, id); err != nil {
				uc.logger.Error("failed to delete product from es", zap.Error(err))
			}
		}()
	}
	return nil
}

func (uc *productUseCase) searchElastic(ctx context.Context, filters *dto.ProductFilters) ([]model.Product, int, error) {
	must := []map[string]interface{}{
		{
			"query_string": map[string]interface{}{
				"query":  fmt.Sprintf("*%s*", filters.SearchQuery),
				"fields": []string{"name^3", "sku", "barcode", "description"},
			},
		},
		{
			"term": map[string]interface{}{"tenant_id": filters.TenantID},
		},
	}
	if filters.Category != "" {
		must = append(must, map[string]interface{}{
			"term": map[string]interface{}{"category": filters.Category},
		})
	}

	q := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{"must": must},
		},
	}
	if filters.PageSize > 0 {
		q["from"] = (filters.Page - 1) * filters.PageSize
		q["size"] = filters.PageSize
	}

	res, err := uc.es.Search(ctx, productsIndex, q)
	if err != nil {
		return nil, 0, err
	}

	var products []model.Product
	for _, hit := range res.Hits.Hits {
		var p model.Product
		if err := json.Unmarshal(hit.Source, &p); err == nil {
			products = append(products, p)
		}
	}
	return products, res.Hits.Total.Value, nil
}

func (uc *productUseCase) syncToElastic(ctx context.Context, p *model.Product) {
	if uc.es == nil {
		return
	}
	_ = uc.es.CreateIndex(ctx, productsIndex, productsMapping)
	if err := uc.es.Index(ctx, productsIndex, p.ID, p); err != nil {
		uc.logger.Error("failed to index product", zap.String("product_id", p.ID), zap.Error(err))
	}
}

func (uc *productUseCase) listCacheKey(filters *dto.ProductFilters) string {
	data, err := json.Marshal(filters)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("products:list:%s:%x", filters.TenantID, md5.Sum(data))
}

func (uc *productUseCase) invalidateListCache(ctx context.Context, tenantID string) {
	if uc.cache == nil {
		return
	}
	pattern := fmt.Sprintf("products:list:%s:*", tenantID)
	if err := uc.cache.DeleteByPattern(ctx, pattern); err != nil {
		uc.logger.Debug("cache invalidation failed", zap.Error(err))
	}
}
