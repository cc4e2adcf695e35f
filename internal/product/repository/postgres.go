package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/martpos/inventory-service/internal/model"
	"github.com/martpos/inventory-service/internal/product/dto"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
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
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE tenant_id = $1 AND id = $2 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, tenantID, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{"tenant_id = :tenant_id"}
	args := map[string]interface{}{"tenant_id": f.TenantID}

	if f.Category != "" {
		conditions = append(conditions, "category = :category")
		args["category"] = f.Category
	}
	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR sku ILIKE :search OR barcode ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	// Whitelisted sort fields only.
	orderBy := "created_at DESC"
	if f.SortBy != "" {
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "price":
			orderBy = "base_price"
		case "sku":
			orderBy = "sku"
		case "created_at":
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT * FROM products%s ORDER BY %s", whereClause, orderBy)

	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, err
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &products, args)
	if err != nil {
		return nil, 0, err
	}

	return products, count, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET sku = :sku,
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
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, tenantID, id string) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM products WHERE tenant_id = $1 AND id = $2", tenantID, id)
	return err
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, tenantID, sku, excludeID string) (bool, error) {
	var count int
	query := `SELECT count(*) FROM products WHERE tenant_id = $1 AND sku = $2`
	args := []interface{}{tenantID, sku}
	if excludeID != "" {
		query += ` AND id != $3`
		args = append(args, excludeID)
	}

	err := r.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (r *PGRepository) IsBarcodeUnique(ctx context.Context, tenantID, barcode, excludeID string) (bool, error) {
	if barcode == "" {
		return true, nil
	}
	var count int
	query := `SELECT count(*) FROM products WHERE tenant_id = $1 AND barcode = $2`
	args := []interface{}{tenantID, barcode}
	if excludeID != "" {
		query += ` AND id != $3`
		args = append(args, excludeID)
	}

	err := r.DB.GetContext(ctx, &count, query, args...)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
