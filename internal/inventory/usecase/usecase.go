package usecase

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/events"
	"github.com/martpos/inventory-service/internal/inventory"
	"github.com/martpos/inventory-service/internal/inventory/dto"
	"github.com/martpos/inventory-service/internal/model"
)

type inventoryUseCase struct {
	repo   inventory.Repository
	events events.Publisher
	logger *zap.Logger
}

func NewInventoryUseCase(repo inventory.Repository, pub events.Publisher, logger *zap.Logger) inventory.UseCase {
	if pub == nil {
		pub = events.Nop{}
	}
	return &inventoryUseCase{repo: repo, events: pub, logger: logger}
}

func (uc *inventoryUseCase) GetProductInventory(ctx context.Context, tenantID, productID string, locationID *string) (*model.Inventory, error) {
	inv, err := uc.repo.GetByProduct(ctx, tenantID, productID, locationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		// A product nobody has adjusted yet simply has zero stock.
		return &model.Inventory{
			TenantID:   tenantID,
			ProductID:  productID,
			LocationID: locationID,
		}, nil
	}
	return inv, nil
}

func (uc *inventoryUseCase) ListInventory(ctx context.Context, filters *dto.InventoryFilters) ([]model.Inventory, int, error) {
	return uc.repo.FindAll(ctx, filters)
}

func (uc *inventoryUseCase) ListLowStock(ctx context.Context, tenantID string, locationID *string, page, pageSize int) ([]model.Inventory, int, error) {
	return uc.repo.FindAll(ctx, &dto.InventoryFilters{
		TenantID:   tenantID,
		LocationID: locationID,
		LowStock:   true,
		Page:       page,
		PageSize:   pageSize,
	})
}

func (uc *inventoryUseCase) AdjustStock(ctx context.Context, input *dto.AdjustStockInput) (*model.Inventory, error) {
	if input.QuantityChange == 0 {
		return nil, errors.New("quantity_change must be non-zero")
	}

	inv, mv, err := uc.repo.AdjustWithMovement(ctx, input)
	if err != nil {
		return nil, err
	}

	uc.events.Emit(events.TypeStockAdjusted, input.TenantID, events.StockPayload{
		ProductID:      inv.ProductID,
		MovementID:     mv.ID,
		MovementType:   string(mv.MovementType),
		QuantityChange: mv.QuantityChange,
		QuantityAfter:  mv.QuantityAfter,
	})

	return inv, nil
}

func (uc *inventoryUseCase) ListMovements(ctx context.Context, filters *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return uc.repo.ListMovements(ctx, filters)
}
