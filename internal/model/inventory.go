package model

import "time"

type Inventory struct {
	ID               string    `db:"id" json:"id"`
	TenantID         string    `db:"tenant_id" json:"tenant_id"`
	ProductID        string    `db:"product_id" json:"product_id"`
	SKU              string    `db:"sku" json:"sku"`
	LocationID       *string   `db:"location_id" json:"location_id"`
	Quantity         float64   `db:"quantity" json:"quantity"`
	ReservedQuantity float64   `db:"reserved_quantity" json:"reserved_quantity"`
	ReorderPoint     float64   `db:"reorder_point" json:"reorder_point"`
	ReorderQuantity  float64   `db:"reorder_quantity" json:"reorder_quantity"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

// Apply mutates the quantity by change, returning the before/after pair.
// A change that would drive quantity below zero leaves the record untouched
// and returns ErrInsufficientStock.
func (inv *Inventory) Apply(change float64) (before, after float64, err error) {
	before = inv.Quantity
	after = inv.Quantity + change
	if after < 0 {
		return before, before, ErrInsufficientStock
	}
	inv.Quantity = after
	return before, after, nil
}

type MovementType string

const (
	MovementAdjustment MovementType = "adjustment"
	MovementImport     MovementType = "import"
	MovementSale       MovementType = "sale"
	MovementReturn     MovementType = "return"
)

// InventoryMovement is the append-only audit record for one quantity change.
// Rows are never updated or deleted.
type InventoryMovement struct {
	ID             string       `db:"id" json:"id"`
	TenantID       string       `db:"tenant_id" json:"tenant_id"`
	ProductID      string       `db:"product_id" json:"product_id"`
	SKU            string       `db:"sku" json:"sku"`
	LocationID     *string      `db:"location_id" json:"location_id"`
	MovementType   MovementType `db:"movement_type" json:"movement_type"`
	QuantityChange float64      `db:"quantity_change" json:"quantity_change"`
	QuantityBefore float64      `db:"quantity_before" json:"quantity_before"`
	QuantityAfter  float64      `db:"quantity_after" json:"quantity_after"`
	ReferenceType  *string      `db:"reference_type" json:"reference_type"`
	ReferenceID    *string      `db:"reference_id" json:"reference_id"`
	Notes          string       `db:"notes" json:"notes"`
	CreatedBy      *string      `db:"created_by" json:"created_by"`
	CreatedAt      time.Time    `db:"created_at" json:"created_at"`
}
