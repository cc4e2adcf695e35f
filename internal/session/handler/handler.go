package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/auth"
	"github.com/martpos/inventory-service/internal/commit"
	"github.com/martpos/inventory-service/internal/httpx"
	"github.com/martpos/inventory-service/internal/ingest"
	"github.com/martpos/inventory-service/internal/model"
	"github.com/martpos/inventory-service/internal/session"
)

// BarcodeDefaults fills auto-barcode commit options the client left blank.
type BarcodeDefaults struct {
	Format ingest.BarcodeFormat
	Prefix string
}

type SessionHandler struct {
	uc        session.UseCase
	engine    *commit.Engine
	maxUpload int64
	barcode   BarcodeDefaults
	logger    *zap.Logger
}

func NewSessionHandler(uc session.UseCase, engine *commit.Engine, maxUpload int64, barcode BarcodeDefaults, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{uc: uc, engine: engine, maxUpload: maxUpload, barcode: barcode, logger: logger}
}

func (h *SessionHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/import/sessions", h.create)
	rg.POST("/import/sessions/:id/files", h.upload)
	rg.GET("/import/sessions/:id", h.get)
	rg.PUT("/import/sessions/:id/rows", h.updateRows)
	rg.POST("/import/sessions/:id/commit", h.commit)
}

func (h *SessionHandler) create(c *gin.Context) {
	var input struct {
		SourceType string `json:"source_type"`
	}
	// Body is optional; an empty session gets a generic source type.
	_ = c.ShouldBindJSON(&input)
	if input.SourceType == "" {
		input.SourceType = "upload"
	}

	sess, err := h.uc.CreateSession(c.Request.Context(), auth.GetTenantID(c), input.SourceType)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusCreated, sess)
}

func (h *SessionHandler) upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err)
		return
	}
	uploads := form.File["files"]
	if len(uploads) == 0 {
		httpx.FailStatus(c, http.StatusBadRequest, fmt.Errorf("no files in request"))
		return
	}
	useAIVision, _ := strconv.ParseBool(c.PostForm("use_ai_vision"))

	var files []ingest.File
	var warnings []string
	for _, fh := range uploads {
		if h.maxUpload > 0 && fh.Size > h.maxUpload {
			warnings = append(warnings,
				fmt.Sprintf("%s: exceeds upload limit of %d bytes", fh.Filename, h.maxUpload))
			continue
		}
		src, err := fh.Open()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", fh.Filename, err))
			continue
		}
		files = append(files, ingest.File{
			Name: fh.Filename,
			Mime: fh.Header.Get("Content-Type"),
			Data: data,
		})
	}
	if len(files) == 0 {
		httpx.FailStatus(c, http.StatusBadRequest, fmt.Errorf("no readable files in request"))
		return
	}

	sess, err := h.uc.UploadFiles(c.Request.Context(),
		auth.GetTenantID(c), c.Param("id"), files, useAIVision)
	if err != nil {
		h.logger.Error("upload failed",
			zap.String("session_id", c.Param("id")), zap.Error(err))
		httpx.Fail(c, err)
		return
	}
	httpx.OKWithWarnings(c, http.StatusOK, sess, warnings)
}

func (h *SessionHandler) get(c *gin.Context) {
	sess, err := h.uc.GetSession(c.Request.Context(), auth.GetTenantID(c), c.Param("id"))
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, sess)
}

func (h *SessionHandler) updateRows(c *gin.Context) {
	var input struct {
		Rows []model.CandidateRow `json:"rows" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		httpx.FailStatus(c, http.StatusBadRequest, err)
		return
	}

	sess, err := h.uc.UpdateRows(c.Request.Context(),
		auth.GetTenantID(c), c.Param("id"), input.Rows)
	if err != nil {
		httpx.Fail(c, err)
		return
	}
	httpx.OK(c, http.StatusOK, sess)
}

func (h *SessionHandler) commit(c *gin.Context) {
	var opts commit.Options
	// An empty body commits with defaults.
	_ = c.ShouldBindJSON(&opts)
	opts.Actor = auth.GetUserID(c)
	h.applyBarcodeDefaults(&opts)

	result, err := h.engine.Commit(c.Request.Context(),
		auth.GetTenantID(c), c.Param("id"), opts)
	if err != nil {
		h.logger.Error("commit failed",
			zap.String("session_id", c.Param("id")), zap.Error(err))
		httpx.Fail(c, err)
		return
	}
	httpx.OKWithWarnings(c, http.StatusOK, result, result.Warnings)
}

func (h *SessionHandler) applyBarcodeDefaults(opts *commit.Options) {
	if opts.AutoBarcode == nil {
		return
	}
	if opts.AutoBarcode.Format == "" {
		opts.AutoBarcode.Format = h.barcode.Format
	}
	if opts.AutoBarcode.Prefix == "" {
		opts.AutoBarcode.Prefix = h.barcode.Prefix
	}
}
