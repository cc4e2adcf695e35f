package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/martpos/inventory-service/internal/inventory/dto"
	"github.com/martpos/inventory-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetByProduct(ctx context.Context, tenantID, productID string, locationID *string) (*model.Inventory, error) {
	var inv model.Inventory
	query := `SELECT * FROM inventory WHERE tenant_id = $1 AND product_id = $2`
	args := []interface{}{tenantID, productID}

	if locationID != nil && *locationID != "" {
		query += ` AND location_id = $3`
		args = append(args, *locationID)
	} else {
		query += ` AND location_id IS NULL`
	}

	err := r.DB.GetContext(ctx, &inv, query, args...)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // caller decides whether a zero row is appropriate
		}
		return nil, err
	}
	return &inv, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.InventoryFilters) ([]model.Inventory, int, error) {
	var items []model.Inventory
	var count int

	conditions := []string{"tenant_id = :tenant_id"}
	args := map[string]interface{}{"tenant_id": f.TenantID}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.LocationID != nil {
		if *f.LocationID == "" {
			conditions = append(conditions, "location_id IS NULL")
		} else {
			conditions = append(conditions, "location_id = :location_id")
			args["location_id"] = *f.LocationID
		}
	}
	if f.LowStock {
		conditions = append(conditions, "quantity - reserved_quantity <= reorder_point AND reorder_point > 0")
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT count(*) FROM inventory" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM inventory" + whereClause + " ORDER BY updated_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.InventoryMovement, int, error) {
	var items []model.InventoryMovement
	var count int

	conditions := []string{"tenant_id = :tenant_id"}
	args := map[string]interface{}{"tenant_id": f.TenantID}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.LocationID != nil && *f.LocationID != "" {
		conditions = append(conditions, "location_id = :location_id")
		args["location_id"] = *f.LocationID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= :start_date")
		args["start_date"] = *f.StartDate
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at <= :end_date")
		args["end_date"] = *f.EndDate
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT count(*) FROM inventory_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM inventory_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}

// AdjustWithMovement locks the inventory row with SELECT ... FOR UPDATE so
// concurrent adjustments serialize at the database; the non-negative check
// therefore always sees the latest committed quantity.
func (r *PGRepository) AdjustWithMovement(ctx context.Context, input *dto.AdjustStockInput) (*model.Inventory, *model.InventoryMovement, error) {
	tx, err := r.DB.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()

	var inv model.Inventory
	err = tx.GetContext(ctx, &inv, `
        SELECT * FROM inventory
        WHERE tenant_id = $1 AND product_id = $2
          AND (location_id = $3 OR ($3::text IS NULL AND location_id IS NULL))
        FOR UPDATE
    `, input.TenantID, input.ProductID, input.LocationID)
	if errors.Is(err, sql.ErrNoRows) {
		// First movement for this product/location: derive the SKU from the
		// product and start from zero.
		var sku string
		err = tx.GetContext(ctx, &sku,
			`SELECT sku FROM products WHERE tenant_id = $1 AND id = $2`,
			input.TenantID, input.ProductID)
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, model.ErrProductNotFound
		}
		if err != nil {
			return nil, nil, err
		}

		inv = model.Inventory{
			ID:         uuid.New().String(),
			TenantID:   input.TenantID,
			ProductID:  input.ProductID,
			SKU:        sku,
			LocationID: input.LocationID,
			UpdatedAt:  now,
		}
		if _, err := tx.NamedExecContext(ctx, `
            INSERT INTO inventory (
                id, tenant_id, product_id, sku, location_id,
                quantity, reserved_quantity, reorder_point, reorder_quantity, updated_at
            )
            VALUES (
                :id, :tenant_id, :product_id, :sku, :location_id,
                :quantity, :reserved_quantity, :reorder_point, :reorder_quantity, :updated_at
            )
        `, &inv); err != nil {
			return nil, nil, err
		}
	} else if err != nil {
		return nil, nil, err
	}

	before, after, err := inv.Apply(input.QuantityChange)
	if err != nil {
		return nil, nil, err
	}
	inv.UpdatedAt = now

	if _, err := tx.NamedExecContext(ctx,
		`UPDATE inventory SET quantity = :quantity, updated_at = :updated_at WHERE id = :id`,
		&inv); err != nil {
		return nil, nil, err
	}

	movementType := input.MovementType
	if movementType == "" {
		movementType = model.MovementAdjustment
	}

	var refID, refType, createdBy *string
	if input.ReferenceID != "" {
		refID = &input.ReferenceID
	}
	if input.ReferenceType != "" {
		refType = &input.ReferenceType
	}
	if input.UserID != "" {
		createdBy = &input.UserID
	}

	mv := &model.InventoryMovement{
		ID:             uuid.New().String(),
		TenantID:       input.TenantID,
		ProductID:      input.ProductID,
		SKU:            inv.SKU,
		LocationID:     input.LocationID,
		MovementType:   movementType,
		QuantityChange: input.QuantityChange,
		QuantityBefore: before,
		QuantityAfter:  after,
		ReferenceType:  refType,
		ReferenceID:    refID,
		Notes:          input.Reason,
		CreatedBy:      createdBy,
		CreatedAt:      now,
	}
	if _, err := tx.NamedExecContext(ctx, `
        INSERT INTO inventory_movements (
            id, tenant_id, product_id, sku, location_id, movement_type,
            quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :tenant_id, :product_id, :sku, :location_id, :movement_type,
            :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `, mv); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, err
	}
	return &inv, mv, nil
}
