package commit

import (
	"context"

	"github.com/martpos/inventory-service/internal/model"
)

// Tx is the set of writes a commit performs inside one transaction. SKU
// checks run against the transaction, so they observe rows inserted earlier
// in the same batch.
type Tx interface {
	SKUExists(ctx context.Context, tenantID, sku string) (bool, error)
	FindProductBySKU(ctx context.Context, tenantID, sku string) (*model.Product, error)
	InsertProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, p *model.Product) error
	GetInventoryForUpdate(ctx context.Context, tenantID, productID string, locationID *string) (*model.Inventory, error)
	InsertInventory(ctx context.Context, inv *model.Inventory) error
	UpdateInventoryQuantity(ctx context.Context, inv *model.Inventory) error
	InsertMovement(ctx context.Context, mv *model.InventoryMovement) error
}

// Store opens the transaction a commit runs in. A non-nil error from fn
// rolls everything back; otherwise the transaction commits.
type Store interface {
	WithinTx(ctx context.Context, fn func(tx Tx) error) error
}
