package inventory

import (
	"context"

	"github.com/martpos/inventory-service/internal/inventory/dto"
	"github.com/martpos/inventory-service/internal/model"
)

type Repository interface {
	GetByProduct(ctx context.Context, tenantID, productID string, locationID *string) (*model.Inventory, error)
	FindAll(ctx context.Context, filters *dto.InventoryFilters) ([]model.Inventory, int, error)

	// Ledger reads
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)

	// AdjustWithMovement applies the change and appends the ledger entry in
	// one transaction, locking the inventory row for the duration.
	AdjustWithMovement(ctx context.Context, input *dto.AdjustStockInput) (*model.Inventory, *model.InventoryMovement, error)
}
