package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/peacetifal/peacetifal-backend/pkg/logger"
)

const defaultBatchSize = 200

// Summary reports what one reconciliation run did.
type Summary struct {
	Considered int `json:"considered"`
	Updated    int `json:"updated"`
	Skipped    int `json:"skipped"`
	Errors     int `json:"errors"`
}

// Engine walks every purchase that references a product and repairs stored
// quantities that disagree with the quantity derived from the purchase
// amounts. Writes are per-row so one bad record never aborts the batch.
type Engine struct {
	conn      *gorm.DB
	logg      *logger.Logger
	batchSize int
}

// NewEngine builds a reconciliation engine. batchSize <= 0 selects the default.
func NewEngine(conn *gorm.DB, logg *logger.Logger, batchSize int) (*Engine, error) {
	if conn == nil {
		return nil, fmt.Errorf("db connection is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Engine{conn: conn, logg: logg, batchSize: batchSize}, nil
}

// purchaseRow is one scanned row of the batched join. UnitPrice is NULL when
// the product is gone or soft-deleted; VoucherDiscount is NULL when the
// purchase has no voucher.
type purchaseRow struct {
	ID              uuid.UUID           `gorm:"column:id"`
	CreatedAt       time.Time           `gorm:"column:created_at"`
	Quantity        int                 `gorm:"column:quantity"`
	TotalAmount     decimal.Decimal     `gorm:"column:total_amount"`
	OriginalAmount  decimal.NullDecimal `gorm:"column:original_amount"`
	UnitPrice       decimal.NullDecimal `gorm:"column:unit_price"`
	VoucherDiscount decimal.NullDecimal `gorm:"column:voucher_discount"`
}

// Run scans purchases in descending (created_at, id) order and repairs stale
// quantities. It returns the partial summary alongside the error when the
// scan fails or the context is cancelled mid-run.
func (e *Engine) Run(ctx context.Context) (Summary, error) {
	var summary Summary
	var cursor *purchaseRow

	for {
		rows, err := e.fetchBatch(ctx, cursor)
		if err != nil {
			return summary, fmt.Errorf("fetching purchase batch: %w", err)
		}
		if len(rows) == 0 {
			break
		}

		for i := range rows {
			if err := ctx.Err(); err != nil {
				return summary, err
			}
			e.reconcileRow(ctx, &rows[i], &summary)
		}

		cursor = &rows[len(rows)-1]
		if len(rows) < e.batchSize {
			break
		}
	}

	e.logg.Info(e.logg.WithFields(ctx, map[string]any{
		"considered": summary.Considered,
		"updated":    summary.Updated,
		"skipped":    summary.Skipped,
		"errors":     summary.Errors,
	}), "quantity reconciliation finished")

	return summary, nil
}

func (e *Engine) fetchBatch(ctx context.Context, cursor *purchaseRow) ([]purchaseRow, error) {
	q := e.conn.WithContext(ctx).
		Table("purchases").
		Select(`purchases.id, purchases.created_at, purchases.quantity,
			purchases.total_amount, purchases.original_amount,
			p.price AS unit_price, pv.discount_amount AS voucher_discount`).
		Joins("LEFT JOIN products p ON p.id = purchases.product_id AND p.deleted_at IS NULL").
		Joins("LEFT JOIN purchase_vouchers pv ON pv.purchase_id = purchases.id").
		Where("purchases.product_id IS NOT NULL")

	if cursor != nil {
		q = q.Where(
			"purchases.created_at < ? OR (purchases.created_at = ? AND purchases.id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []purchaseRow
	if err := q.
		Order("purchases.created_at DESC, purchases.id DESC").
		Limit(e.batchSize).
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (e *Engine) reconcileRow(ctx context.Context, row *purchaseRow, summary *Summary) {
	summary.Considered++
	rowCtx := e.logg.WithField(ctx, "purchase_id", row.ID.String())

	var discount decimal.Decimal
	if row.VoucherDiscount.Valid {
		discount = row.VoucherDiscount.Decimal
	}

	derived, ok := Derive(DerivationInput{
		TotalAmount:     row.TotalAmount,
		OriginalAmount:  row.OriginalAmount,
		VoucherDiscount: discount,
	}, row.UnitPrice)
	if !ok {
		summary.Skipped++
		e.logg.Warn(rowCtx, "skipping purchase without resolvable unit price")
		return
	}

	if derived.Quantity == row.Quantity {
		summary.Skipped++
		return
	}

	res := e.conn.WithContext(ctx).
		Table("purchases").
		Where("id = ?", row.ID).
		Updates(map[string]any{
			"quantity":   derived.Quantity,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		summary.Errors++
		e.logg.Error(rowCtx, "updating purchase quantity", res.Error)
		return
	}

	summary.Updated++
	e.logg.Info(e.logg.WithFields(rowCtx, map[string]any{
		"old_quantity": row.Quantity,
		"new_quantity": derived.Quantity,
		"source":       string(derived.Source),
	}), "repaired purchase quantity")
}
