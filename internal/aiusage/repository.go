package aiusage

import (
	"context"

	"github.com/martpos/inventory-service/internal/aiusage/dto"
	"github.com/martpos/inventory-service/internal/model"
)

type Repository interface {
	Insert(ctx context.Context, rec *model.AIUsageRecord) error
	FindAll(ctx context.Context, filters *dto.UsageFilters) ([]model.AIUsageRecord, int, error)
}
