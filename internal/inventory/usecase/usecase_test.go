package usecase

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/events"
	"github.com/martpos/inventory-service/internal/inventory/dto"
	"github.com/martpos/inventory-service/internal/model"
)

type fakeRepo struct {
	inv       *model.Inventory
	adjustErr error
	lastInput *dto.AdjustStockInput
}

func (f *fakeRepo) GetByProduct(_ context.Context, _, _ string, _ *string) (*model.Inventory, error) {
	return f.inv, nil
}

func (f *fakeRepo) FindAll(_ context.Context, filters *dto.InventoryFilters) ([]model.Inventory, int, error) {
	if filters.LowStock && f.inv != nil {
		return []model.Inventory{*f.inv}, 1, nil
	}
	return nil, 0, nil
}

func (f *fakeRepo) ListMovements(_ context.Context, _ *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) AdjustWithMovement(_ context.Context, input *dto.AdjustStockInput) (*model.Inventory, *model.InventoryMovement, error) {
	f.lastInput = input
	if f.adjustErr != nil {
		return nil, nil, f.adjustErr
	}
	inv := &model.Inventory{ID: "i1", TenantID: input.TenantID, ProductID: input.ProductID, Quantity: 5 + input.QuantityChange}
	mv := &model.InventoryMovement{
		ID:             "m1",
		MovementType:   model.MovementAdjustment,
		QuantityChange: input.QuantityChange,
		QuantityBefore: 5,
		QuantityAfter:  5 + input.QuantityChange,
	}
	return inv, mv, nil
}

type recordingPublisher struct {
	types []string
}

func (p *recordingPublisher) Emit(eventType, _ string, _ any) {
	p.types = append(p.types, eventType)
}

func TestAdjustStockEmitsEvent(t *testing.T) {
	repo := &fakeRepo{}
	pub := &recordingPublisher{}
	uc := NewInventoryUseCase(repo, pub, zap.NewNop())

	inv, err := uc.AdjustStock(context.Background(), &dto.AdjustStockInput{
		TenantID:       "t1",
		ProductID:      "p1",
		QuantityChange: 3,
	})
	if err != nil {
		t.Fatalf("adjust: %v", err)
	}
	if inv.Quantity != 8 {
		t.Fatalf("quantity: %v", inv.Quantity)
	}
	if len(pub.types) != 1 || pub.types[0] != events.TypeStockAdjusted {
		t.Fatalf("events: %v", pub.types)
	}
}

func TestAdjustStockRejectsZeroChange(t *testing.T) {
	uc := NewInventoryUseCase(&fakeRepo{}, nil, zap.NewNop())
	if _, err := uc.AdjustStock(context.Background(), &dto.AdjustStockInput{ProductID: "p1"}); err == nil {
		t.Fatal("expected an error for zero change")
	}
}

func TestAdjustStockInsufficientPropagatesWithoutEvent(t *testing.T) {
	repo := &fakeRepo{adjustErr: model.ErrInsufficientStock}
	pub := &recordingPublisher{}
	uc := NewInventoryUseCase(repo, pub, zap.NewNop())

	_, err := uc.AdjustStock(context.Background(), &dto.AdjustStockInput{
		TenantID:       "t1",
		ProductID:      "p1",
		QuantityChange: -10,
	})
	if !errors.Is(err, model.ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if len(pub.types) != 0 {
		t.Fatalf("no event expected on failure, got %v", pub.types)
	}
}

func TestGetProductInventoryZeroObject(t *testing.T) {
	uc := NewInventoryUseCase(&fakeRepo{inv: nil}, nil, zap.NewNop())
	inv, err := uc.GetProductInventory(context.Background(), "t1", "p1", nil)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if inv == nil || inv.Quantity != 0 || inv.ProductID != "p1" {
		t.Fatalf("got %+v", inv)
	}
}
