package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Voucher is a redeemable fixed-amount discount code.
type Voucher struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Code           string          `gorm:"column:code;not null;uniqueIndex"`
	DiscountAmount decimal.Decimal `gorm:"column:discount_amount;type:numeric(12,2);not null"`
	MaxUsage       int             `gorm:"column:max_usage;not null;default:1"`
	UsedCount      int             `gorm:"column:used_count;not null;default:0"`
	IsActive       bool            `gorm:"column:is_active;not null;default:true"`
	ExpiresAt      *time.Time      `gorm:"column:expires_at"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
