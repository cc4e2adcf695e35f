package inventory

import (
	"context"

	"github.com/martpos/inventory-service/internal/inventory/dto"
	"github.com/martpos/inventory-service/internal/model"
)

type UseCase interface {
	GetProductInventory(ctx context.Context, tenantID, productID string, locationID *string) (*model.Inventory, error)
	ListInventory(ctx context.Context, filters *dto.InventoryFilters) ([]model.Inventory, int, error)
	ListLowStock(ctx context.Context, tenantID string, locationID *string, page, pageSize int) ([]model.Inventory, int, error)
	AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.Inventory, error)
	ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error)
}
