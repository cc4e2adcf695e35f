package dto

type CreateProductInput struct {
	TenantID    string   `json:"-"`
	SKU         string   `json:"sku" binding:"required"`
	Barcode     string   `json:"barcode"`
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	CostPrice   *float64 `json:"cost_price"`
	BasePrice   float64  `json:"base_price"`
	TaxRate     float64  `json:"tax_rate"`
}

type UpdateProductInput struct {
	ID          string   `json:"-"`
	TenantID    string   `json:"-"`
	SKU         string   `json:"sku" binding:"required"`
	Barcode     string   `json:"barcode"`
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	CostPrice   *float64 `json:"cost_price"`
	BasePrice   float64  `json:"base_price"`
	TaxRate     float64  `json:"tax_rate"`
	Status      string   `json:"status"`
}
