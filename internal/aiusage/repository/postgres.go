package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/martpos/inventory-service/internal/aiusage/dto"
	"github.com/martpos/inventory-service/internal/model"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Insert(ctx context.Context, rec *model.AIUsageRecord) error {
	query := `
        INSERT INTO ai_usage_records (
            id, tenant_id, provider, operation, model,
            duration_ms, input_tokens, output_tokens, cost_usd,
            success, error, created_at
        )
        VALUES (
            :id, :tenant_id, :provider, :operation, :model,
            :duration_ms, :input_tokens, :output_tokens, :cost_usd,
            :success, :error, :created_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, rec)
	return err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.UsageFilters) ([]model.AIUsageRecord, int, error) {
	var items []model.AIUsageRecord
	var count int

	conditions := []string{"tenant_id = :tenant_id"}
	args := map[string]interface{}{"tenant_id": f.TenantID}

	if f.Provider != "" {
		conditions = append(conditions, "provider = :provider")
		args["provider"] = f.Provider
	}
	if f.Operation != "" {
		conditions = append(conditions, "operation = :operation")
		args["operation"] = f.Operation
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

	countQuery := "SELECT count(*) FROM ai_usage_records" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM ai_usage_records" + whereClause + " ORDER BY created_at DESC"
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
