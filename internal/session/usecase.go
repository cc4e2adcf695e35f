package session

import (
	"context"

	"github.com/martpos/inventory-service/internal/ingest"
	"github.com/martpos/inventory-service/internal/model"
)

type UseCase interface {
	CreateSession(ctx context.Context, tenantID, sourceType string) (*model.ImportSession, error)
	UploadFiles(ctx context.Context, tenantID, sessionID string, files []ingest.File, useAIVision bool) (*model.ImportSession, error)
	GetSession(ctx context.Context, tenantID, sessionID string) (*model.ImportSession, error)
	UpdateRows(ctx context.Context, tenantID, sessionID string, rows []model.CandidateRow) (*model.ImportSession, error)
}
