package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/martpos/inventory-service/internal/commit"
	"github.com/martpos/inventory-service/internal/model"
)

type PGStore struct {
	DB *sqlx.DB
}

func NewPGStore(db *sqlx.DB) *PGStore {
	return &PGStore{DB: db}
}

func (s *PGStore) WithinTx(ctx context.Context, fn func(tx commit.Tx) error) error {
	tx, err := s.DB.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	if err := fn(&pgTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("%w (rollback: %v)", err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

type pgTx struct {
	tx *sqlx.Tx
}

func (t *pgTx) SKUExists(ctx context.Context, tenantID, sku string) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM products WHERE tenant_id = $1 AND sku = $2)`,
		tenantID, sku)
	return exists, err
}

func (t *pgTx) FindProductBySKU(ctx context.Context, tenantID, sku string) (*model.Product, error) {
	var p model.Product
	err := t.tx.GetContext(ctx, &p,
		`SELECT * FROM products WHERE tenant_id = $1 AND sku = $2`,
		tenantID, sku)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (t *pgTx) InsertProduct(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, tenant_id, sku, barcode, name, description, category,
            cost_price, base_price, tax_rate, status, created_at, updated_at
        )
        VALUES (
            :id, :tenant_id, :sku, :barcode, :name, :description, :category,
            :cost_price, :base_price, :tax_rate, :status, :created_at, :updated_at
        )
    `
	_, err := t.tx.NamedExecContext(ctx, query, p)
	return err
}

func (t *pgTx) UpdateProduct(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products SET
            barcode = :barcode,
            name = :name,
            description = :description,
            category = :category,
            cost_price = :cost_price,
            base_price = :base_price,
            tax_rate = :tax_rate,
            status = :status,
            updated_at = :updated_at
        WHERE id = :id AND tenant_id = :tenant_id
    `
	_, err := t.tx.NamedExecContext(ctx, query, p)
	return err
}

// GetInventoryForUpdate locks the row until the surrounding transaction ends.
// Returns (nil, nil) when the product has no inventory row yet.
func (t *pgTx) GetInventoryForUpdate(ctx context.Context, tenantID, productID string, locationID *string) (*model.Inventory, error) {
	var inv model.Inventory
	err := t.tx.GetContext(ctx, &inv, `
        SELECT * FROM inventory
        WHERE tenant_id = $1 AND product_id = $2
          AND (location_id = $3 OR ($3::text IS NULL AND location_id IS NULL))
        FOR UPDATE
    `, tenantID, productID, locationID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (t *pgTx) InsertInventory(ctx context.Context, inv *model.Inventory) error {
	query := `
        INSERT INTO inventory (
            id, tenant_id, product_id, sku, location_id,
            quantity, reserved_quantity, reorder_point, reorder_quantity, updated_at
        )
        VALUES (
            :id, :tenant_id, :product_id, :sku, :location_id,
            :quantity, :reserved_quantity, :reorder_point, :reorder_quantity, :updated_at
        )
    `
	_, err := t.tx.NamedExecContext(ctx, query, inv)
	return err
}

func (t *pgTx) UpdateInventoryQuantity(ctx context.Context, inv *model.Inventory) error {
	_, err := t.tx.NamedExecContext(ctx,
		`UPDATE inventory SET quantity = :quantity, updated_at = :updated_at WHERE id = :id`,
		inv)
	return err
}

func (t *pgTx) InsertMovement(ctx context.Context, mv *model.InventoryMovement) error {
	query := `
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
    `
	_, err := t.tx.NamedExecContext(ctx, query, mv)
	return err
}
