package commit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/martpos/inventory-service/internal/events"
	"github.com/martpos/inventory-service/internal/ingest"
	"github.com/martpos/inventory-service/internal/model"
	"github.com/martpos/inventory-service/internal/session"
)

type Strategy string

const (
	// StrategyCreate inserts every row as a new product.
	StrategyCreate Strategy = "create"
	// StrategyUpsert updates an existing product when a row's SKU matches one.
	StrategyUpsert Strategy = "upsert"
)

type AutoSKU struct {
	Prefix string `json:"prefix"`
	Start  int    `json:"start"`
}

type AutoBarcode struct {
	Format ingest.BarcodeFormat `json:"format"`
	Prefix string               `json:"prefix"`
	Start  int64                `json:"start"`
}

// Options shape one commit. Defaults apply only where a row is silent.
type Options struct {
	Strategy        Strategy     `json:"strategy"`
	DefaultTaxRate  *float64     `json:"default_tax_rate,omitempty"`
	DefaultCategory string       `json:"default_category,omitempty"`
	AutoSKU         *AutoSKU     `json:"auto_sku,omitempty"`
	AutoBarcode     *AutoBarcode `json:"auto_barcode,omitempty"`
	LocationID      *string      `json:"location_id,omitempty"`
	Notes           string       `json:"notes,omitempty"`
	Actor           string       `json:"-"`
}

type Result struct {
	Created           int      `json:"created"`
	Updated           int      `json:"updated"`
	StockAdded        float64  `json:"stock_added"`
	SKUsGenerated     int      `json:"skus_generated"`
	BarcodesGenerated int      `json:"barcodes_generated"`
	Warnings          []string `json:"warnings,omitempty"`
}

// rowError marks a failure as belonging to one row. Row failures are
// tolerated: the row is skipped with a warning and the batch continues. Any
// other error aborts and rolls back the whole commit.
type rowError struct {
	index int
	err   error
}

func (e *rowError) Error() string { return fmt.Sprintf("row %d: %v", e.index+1, e.err) }
func (e *rowError) Unwrap() error { return e.err }

func rowErr(index int, format string, args ...any) error {
	return &rowError{index: index, err: fmt.Errorf(format, args...)}
}

// rowLabel identifies a row in user-facing warnings by name, then SKU, then
// its 1-based position.
func rowLabel(index int, row model.CandidateRow) string {
	if name := strings.TrimSpace(row.Name); name != "" {
		return name
	}
	if row.SKU != nil && *row.SKU != "" {
		return *row.SKU
	}
	return fmt.Sprintf("row %d", index+1)
}

type pendingEvent struct {
	eventType string
	payload   any
}

// Locker serializes commits of the same session across service instances.
// cache.RedisClient satisfies it.
type Locker interface {
	AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, value string) error
}

// commitLockTTL bounds how long a crashed commit can hold its session lock.
const commitLockTTL = time.Minute

// Engine turns a parsed import session into products, inventory rows and
// ledger movements inside a single transaction.
type Engine struct {
	store    Store
	sessions *session.Store
	events   events.Publisher
	locker   Locker
	logger   *zap.Logger
}

// NewEngine wires the engine. locker may be nil; then concurrent commits of
// one session are only caught by the committed-status check.
func NewEngine(store Store, sessions *session.Store, pub events.Publisher, locker Locker, logger *zap.Logger) *Engine {
	if pub == nil {
		pub = events.Nop{}
	}
	return &Engine{store: store, sessions: sessions, events: pub, locker: locker, logger: logger}
}

func (e *Engine) Commit(ctx context.Context, tenantID, sessionID string, opts Options) (*Result, error) {
	if e.locker != nil {
		key := fmt.Sprintf("import.commit.%s.%s", tenantID, sessionID)
		token := uuid.New().String()
		ok, err := e.locker.AcquireLock(ctx, key, token, commitLockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire commit lock: %w", err)
		}
		if !ok {
			return nil, model.ErrCommitInProgress
		}
		defer func() {
			if err := e.locker.ReleaseLock(ctx, key, token); err != nil {
				e.logger.Warn("failed to release commit lock",
					zap.String("session_id", sessionID), zap.Error(err))
			}
		}()
	}

	sess, err := e.sessions.Get(ctx, tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	if sess.Status == model.SessionCommitted {
		return nil, model.ErrSessionCommitted
	}
	if len(sess.Rows) == 0 {
		return nil, model.ErrNoRowsToCommit
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyCreate
	}

	result := &Result{}
	var pending []pendingEvent

	err = e.store.WithinTx(ctx, func(tx Tx) error {
		c := &committer{
			tx:        tx,
			tenantID:  tenantID,
			sessionID: sessionID,
			opts:      opts,
			result:    result,
		}
		for i, row := range sess.Rows {
			if err := c.commitRow(ctx, i, row); err != nil {
				var re *rowError
				if errors.As(err, &re) {
					result.Warnings = append(result.Warnings,
						fmt.Sprintf("Row failed: %s -> %v", rowLabel(i, row), re.err))
					e.logger.Warn("skipping import row",
						zap.String("session_id", sessionID),
						zap.Int("row", re.index+1),
						zap.Error(re.err),
					)
					continue
				}
				return err
			}
		}
		pending = c.pending
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("commit session %s: %w", sessionID, err)
	}

	// The data is committed at this point; a failure to flip the session is
	// not worth surfacing as a commit failure.
	if err := e.sessions.MarkCommitted(ctx, sess); err != nil {
		e.logger.Warn("failed to mark session committed",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	for _, p := range pending {
		e.events.Emit(p.eventType, tenantID, p.payload)
	}

	return result, nil
}

// committer carries per-batch state across rows: the auto SKU/barcode
// sequence positions advance only when a value is actually generated.
type committer struct {
	tx        Tx
	tenantID  string
	sessionID string
	opts      Options
	result    *Result
	pending   []pendingEvent

	autoSKUIdx  int
	autoBarcIdx int
}

func (c *committer) commitRow(ctx context.Context, index int, row model.CandidateRow) error {
	qty := 0.0
	if row.Quantity != nil {
		qty = *row.Quantity
	}
	if qty < 0 {
		return rowErr(index, "negative quantity %v", qty)
	}

	if c.opts.Strategy == StrategyUpsert && row.SKU != nil {
		sku := ingest.SanitizeSKU(*row.SKU)
		existing, err := c.tx.FindProductBySKU(ctx, c.tenantID, sku)
		if err != nil && !errors.Is(err, model.ErrProductNotFound) {
			return err
		}
		if existing != nil {
			if err := c.updateProduct(ctx, existing, row); err != nil {
				return err
			}
			return c.addStock(ctx, existing, qty)
		}
	}

	product, err := c.createProduct(ctx, index, row)
	if err != nil {
		return err
	}
	return c.addStock(ctx, product, qty)
}

func (c *committer) createProduct(ctx context.Context, index int, row model.CandidateRow) (*model.Product, error) {
	name := strings.TrimSpace(row.Name)
	if name == "" {
		name = fmt.Sprintf("Imported item %d", index+1)
	}

	var base string
	generated := false
	switch {
	case row.SKU != nil && ingest.SanitizeSKU(*row.SKU) != "":
		base = *row.SKU
	case c.opts.AutoSKU != nil:
		base = fmt.Sprintf("%s%d", c.opts.AutoSKU.Prefix, c.opts.AutoSKU.Start+c.autoSKUIdx)
		c.autoSKUIdx++
		generated = true
	default:
		attrs := ingest.SKUAttributes{Name: name}
		if row.Category != nil {
			attrs.Category = *row.Category
		}
		base = ingest.GenerateSKU(attrs)
		generated = true
	}

	sku, err := ingest.EnsureUniqueSKU(ctx, c.tx, c.tenantID, base)
	if err != nil {
		return nil, err
	}
	if generated {
		c.result.SKUsGenerated++
	}

	barcode := row.Barcode
	if barcode == nil && c.opts.AutoBarcode != nil {
		v := ingest.BarcodeValue(ingest.BarcodeConfig{
			Format: c.opts.AutoBarcode.Format,
			Prefix: c.opts.AutoBarcode.Prefix,
			Start:  c.opts.AutoBarcode.Start,
		}, c.autoBarcIdx)
		c.autoBarcIdx++
		barcode = &v
		c.result.BarcodesGenerated++
	}

	now := time.Now().UTC()
	product := &model.Product{
		BaseModel: model.BaseModel{
			ID:        uuid.New().String(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		TenantID:    c.tenantID,
		SKU:         sku,
		Barcode:     barcode,
		Name:        name,
		Description: row.Description,
		Category:    row.Category,
		CostPrice:   row.CostPrice,
		Status:      model.ProductStatusActive,
	}
	if product.Category == nil && c.opts.DefaultCategory != "" {
		cat := c.opts.DefaultCategory
		product.Category = &cat
	}
	if row.UnitPrice != nil {
		product.BasePrice = *row.UnitPrice
	}
	switch {
	case row.TaxRate != nil:
		product.TaxRate = *row.TaxRate
	case c.opts.DefaultTaxRate != nil:
		product.TaxRate = *c.opts.DefaultTaxRate
	}

	if err := c.tx.InsertProduct(ctx, product); err != nil {
		return nil, err
	}
	c.result.Created++
	c.pending = append(c.pending, pendingEvent{
		eventType: events.TypeProductCreated,
		payload:   events.ProductPayload{ProductID: product.ID, SKU: product.SKU},
	})

	inv := &model.Inventory{
		ID:         uuid.New().String(),
		TenantID:   c.tenantID,
		ProductID:  product.ID,
		SKU:        product.SKU,
		LocationID: c.opts.LocationID,
		UpdatedAt:  now,
	}
	if err := c.tx.InsertInventory(ctx, inv); err != nil {
		return nil, err
	}

	return product, nil
}

func (c *committer) updateProduct(ctx context.Context, p *model.Product, row model.CandidateRow) error {
	if name := strings.TrimSpace(row.Name); name != "" {
		p.Name = name
	}
	if row.Barcode != nil {
		p.Barcode = row.Barcode
	}
	if row.Description != nil {
		p.Description = row.Description
	}
	if row.Category != nil {
		p.Category = row.Category
	}
	if row.CostPrice != nil {
		p.CostPrice = row.CostPrice
	}
	if row.UnitPrice != nil {
		p.BasePrice = *row.UnitPrice
	}
	if row.TaxRate != nil {
		p.TaxRate = *row.TaxRate
	}
	p.UpdatedAt = time.Now().UTC()

	if err := c.tx.UpdateProduct(ctx, p); err != nil {
		return err
	}
	c.result.Updated++
	c.pending = append(c.pending, pendingEvent{
		eventType: events.TypeProductUpdated,
		payload:   events.ProductPayload{ProductID: p.ID, SKU: p.SKU},
	})
	return nil
}

// addStock locks the product's inventory row, applies the imported quantity
// and appends the import movement to the ledger.
func (c *committer) addStock(ctx context.Context, p *model.Product, qty float64) error {
	if qty == 0 {
		return nil
	}

	inv, err := c.tx.GetInventoryForUpdate(ctx, c.tenantID, p.ID, c.opts.LocationID)
	if err != nil {
		return err
	}
	if inv == nil {
		// Upserted products created before inventory tracking may have no row.
		inv = &model.Inventory{
			ID:         uuid.New().String(),
			TenantID:   c.tenantID,
			ProductID:  p.ID,
			SKU:        p.SKU,
			LocationID: c.opts.LocationID,
			UpdatedAt:  time.Now().UTC(),
		}
		if err := c.tx.InsertInventory(ctx, inv); err != nil {
			return err
		}
	}

	before, after, err := inv.Apply(qty)
	if err != nil {
		return err
	}
	inv.UpdatedAt = time.Now().UTC()
	if err := c.tx.UpdateInventoryQuantity(ctx, inv); err != nil {
		return err
	}

	refType := "import_session"
	var createdBy *string
	if c.opts.Actor != "" {
		actor := c.opts.Actor
		createdBy = &actor
	}
	mv := &model.InventoryMovement{
		ID:             uuid.New().String(),
		TenantID:       c.tenantID,
		ProductID:      p.ID,
		SKU:            p.SKU,
		LocationID:     c.opts.LocationID,
		MovementType:   model.MovementImport,
		QuantityChange: qty,
		QuantityBefore: before,
		QuantityAfter:  after,
		ReferenceType:  &refType,
		ReferenceID:    &c.sessionID,
		Notes:          c.opts.Notes,
		CreatedBy:      createdBy,
		CreatedAt:      time.Now().UTC(),
	}
	if err := c.tx.InsertMovement(ctx, mv); err != nil {
		return err
	}

	c.result.StockAdded += qty
	c.pending = append(c.pending, pendingEvent{
		eventType: events.TypeStockAdjusted,
		payload: events.StockPayload{
			ProductID:      p.ID,
			MovementID:     mv.ID,
			MovementType:   string(model.MovementImport),
			QuantityChange: qty,
			QuantityAfter:  after,
		},
	})
	return nil
}
