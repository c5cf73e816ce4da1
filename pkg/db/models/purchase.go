package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peacetifal/peacetifal-backend/pkg/enums"
)

// Purchase records a single checkout of one product. Quantity is expected to
// be set at creation time; legacy rows may carry a wrong or zero value until
// the reconciliation job repairs them.
type Purchase struct {
	ID             uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      *uuid.UUID           `gorm:"column:product_id;type:uuid;index"`
	CustomerName   string               `gorm:"column:customer_name;not null"`
	CustomerEmail  string               `gorm:"column:customer_email;not null"`
	TotalAmount    decimal.Decimal      `gorm:"column:total_amount;type:numeric(12,2);not null"`
	OriginalAmount decimal.NullDecimal  `gorm:"column:original_amount;type:numeric(12,2)"`
	Quantity       int                  `gorm:"column:quantity;not null;default:0"`
	Status         enums.PurchaseStatus `gorm:"column:status;not null;default:pending"`
	Voucher        *PurchaseVoucher     `gorm:"foreignKey:PurchaseID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
