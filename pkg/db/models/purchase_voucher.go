package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PurchaseVoucher snapshots the discount applied to one purchase. At most one
// row exists per purchase and the row is immutable once created.
type PurchaseVoucher struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseID     uuid.UUID       `gorm:"column:purchase_id;type:uuid;not null;uniqueIndex"`
	VoucherID      uuid.UUID       `gorm:"column:voucher_id;type:uuid;not null;index"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
