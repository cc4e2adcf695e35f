package model

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

type Product struct {
	BaseModel
	TenantID    string        `db:"tenant_id" json:"tenant_id"`
	SKU         string        `db:"sku" json:"sku"`
	Barcode     *string       `db:"barcode" json:"barcode"` // Nullable
	Name        string        `db:"name" json:"name"`
	Description *string       `db:"description" json:"description"`
	Category    *string       `db:"category" json:"category"`
	CostPrice   *float64      `db:"cost_price" json:"cost_price"`
	BasePrice   float64       `db:"base_price" json:"base_price"`
	TaxRate     float64       `db:"tax_rate" json:"tax_rate"`
	Status      ProductStatus `db:"status" json:"status"`
}
