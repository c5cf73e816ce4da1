package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peacetifal/peacetifal-backend/pkg/db/models"
	pkgerrors "github.com/peacetifal/peacetifal-backend/pkg/errors"
)

// Ledger is the single writer for stock decrements. All purchase paths go
// through Reserve; nothing else subtracts from products.stock_qty.
type Ledger struct{}

// NewLedger constructs the stock ledger.
func NewLedger() *Ledger {
	return &Ledger{}
}

// Reserve atomically decrements stock for one product inside the caller's
// transaction. The decrement and the availability check are a single
// conditional UPDATE, so two concurrent reservations for the last unit can
// never both succeed. Returns false when the product is missing, soft-deleted,
// or has fewer than qty units; the caller decides whether that is a conflict.
//
// A false return never masks a store fault: connectivity errors propagate.
func (l *Ledger) Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error) {
	if tx == nil {
		return false, pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}
	if productID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "reservation qty must be positive")
	}

	res := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock_qty >= ? AND deleted_at IS NULL", productID, qty).
		Updates(map[string]any{
			"stock_qty":  gorm.Expr("stock_qty - ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "reserving stock")
	}

	return res.RowsAffected == 1, nil
}

// Release returns qty units to a product's stock, used when a purchase is
// cancelled. Soft-deleted products are restocked too so a later restore does
// not lose units.
func (l *Ledger) Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "release qty must be positive")
	}

	res := tx.WithContext(ctx).
		Unscoped().
		Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(map[string]any{
			"stock_qty":  gorm.Expr("stock_qty + ?", qty),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "releasing stock")
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return nil
}
