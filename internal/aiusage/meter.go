package aiusage

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/aiusage/dto"
	"github.com/martpos/inventory-service/internal/model"
)

// Meter records extraction usage. Recording is best-effort: a failed insert
// must never fail the extraction that produced it.
type Meter struct {
	repo   Repository
	logger *zap.Logger
}

func NewMeter(repo Repository, logger *zap.Logger) *Meter {
	return &Meter{repo: repo, logger: logger}
}

func (m *Meter) Record(ctx context.Context, rec *model.AIUsageRecord) {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	if err := m.repo.Insert(ctx, rec); err != nil {
		m.logger.Error("failed to record ai usage",
			zap.String("provider", rec.Provider),
			zap.String("operation", rec.Operation),
			zap.Error(err),
		)
	}
}

func (m *Meter) List(ctx context.Context, filters *dto.UsageFilters) ([]model.AIUsageRecord, int, error) {
	return m.repo.FindAll(ctx, filters)
}
