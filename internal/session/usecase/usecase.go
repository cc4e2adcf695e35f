package usecase

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/martpos/inventory-service/internal/ingest"
	"github.com/martpos/inventory-service/internal/model"
	"github.com/martpos/inventory-service/internal/session"
	"github.com/martpos/inventory-service/internal/storage"
)

type sessionUseCase struct {
	store      *session.Store
	storage    storage.Provider
	dispatcher *ingest.Dispatcher
	logger     *zap.Logger
}

func NewSessionUseCase(store *session.Store, files storage.Provider, dispatcher *ingest.Dispatcher, logger *zap.Logger) session.UseCase {
	return &sessionUseCase{
		store:      store,
		storage:    files,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

func (uc *sessionUseCase) CreateSession(ctx context.Context, tenantID, sourceType string) (*model.ImportSession, error) {
	sess := &model.ImportSession{
		ID:         uuid.New().String(),
		TenantID:   tenantID,
		Status:     model.SessionCreated,
		SourceType: sourceType,
		CreatedAt:  time.Now().UTC(),
	}
	if err := uc.store.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// UploadFiles persists the originals, extracts candidate rows from every file
// in parallel, and appends the results to the session in upload order. One
// unreadable file does not fail the upload; it surfaces as a warning.
func (uc *sessionUseCase) UploadFiles(ctx context.Context, tenantID, sessionID string, files []ingest.File, useAIVision bool) (*model.ImportSession, error) {
	sess, err := uc.store.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.SessionCommitted {
		return nil, model.ErrSessionCommitted
	}

	results := make([]ingest.Result, len(files))
	stored := make([]model.SessionFile, len(files))

	g, gctx := errgroup.WithContext(ctx)
	for i := range files {
		i := i
		f := files[i]
		f.TenantID = tenantID

		g.Go(func() error {
			objectName := fmt.Sprintf("%s/%s/%s", tenantID, sessionID, f.Name)
			path, err := uc.storage.Save(gctx, objectName, f.Mime, bytes.NewReader(f.Data))
			if err != nil {
				// Extraction can still proceed from the in-memory bytes.
				uc.logger.Warn("failed to store upload",
					zap.String("file", f.Name), zap.Error(err))
				path = ""
			}
			stored[i] = model.SessionFile{
				Filename: f.Name,
				Path:     path,
				Mime:     f.Mime,
				Size:     int64(len(f.Data)),
			}

			extractor, err := uc.dispatcher.ForFile(f.Name, useAIVision)
			if err != nil {
				results[i] = ingest.Result{Err: err}
				return nil
			}
			results[i] = extractor.Extract(gctx, f)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, res := range results {
		sess.Files = append(sess.Files, stored[i])
		if res.Err != nil {
			sess.Warnings = append(sess.Warnings,
				fmt.Sprintf("%s: %v", files[i].Name, res.Err))
			continue
		}
		sess.Rows = append(sess.Rows, res.Rows...)
		sess.Warnings = append(sess.Warnings, res.Warnings...)
	}

	sess.Status = model.SessionParsed
	if err := uc.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

func (uc *sessionUseCase) GetSession(ctx context.Context, tenantID, sessionID string) (*model.ImportSession, error) {
	return uc.store.Get(ctx, tenantID, sessionID)
}

// UpdateRows replaces the staged rows wholesale. The client edits the preview
// and sends the full corrected set back.
func (uc *sessionUseCase) UpdateRows(ctx context.Context, tenantID, sessionID string, rows []model.CandidateRow) (*model.ImportSession, error) {
	sess, err := uc.store.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.SessionCommitted {
		return nil, model.ErrSessionCommitted
	}

	sess.Rows = rows
	if err := uc.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}
