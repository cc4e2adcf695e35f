package dto

type ProductFilters struct {
	TenantID    string `json:"tenant_id"`
	Category    string `json:"category"`
	Status      string `json:"status"`
	SearchQuery string `json:"q"` // matches name, sku, barcode
	SortBy      string `json:"sort_by"`
	SortOrder   string `json:"sort_order"`
	Page        int    `json:"page"`
	PageSize    int    `json:"page_size"`
}
