package dto

import "time"

type InventoryFilters struct {
	TenantID   string
	LocationID *string
	ProductID  string
	LowStock   bool // quantity - reserved at or under the reorder point
	Page       int
	PageSize   int
}

type MovementFilters struct {
	TenantID     string
	ProductID    string
	LocationID   *string
	MovementType string
	StartDate    *time.Time
	EndDate      *time.Time
	Page         int
	PageSize     int
}
