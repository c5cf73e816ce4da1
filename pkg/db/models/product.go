package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product represents a catalog listing. StockQty is never written directly by
// purchase flows; decrements go through the stock ledger's conditional update.
type Product struct {
	ID                 uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name               string          `gorm:"column:name;not null"`
	Description        *string         `gorm:"column:description"`
	Price              decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPercentage float64         `gorm:"column:discount_percentage;type:numeric(5,2);not null;default:0"`
	Category           string          `gorm:"column:category;not null"`
	Size               *string         `gorm:"column:size"`
	StockQty           int             `gorm:"column:stock_qty;not null;default:0"`
	Images             pq.StringArray  `gorm:"column:images;type:text"`
	DisplayQty         *int            `gorm:"column:display_qty"`
	DisplayQtyBase     *int            `gorm:"column:display_qty_base"`
	DisplayQtyEditedAt *time.Time      `gorm:"column:display_qty_edited_at"`
	CreatedAt          time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time       `gorm:"column:updated_at;autoUpdateTime"`
	DeletedAt          gorm.DeletedAt  `gorm:"column:deleted_at;index"`
}

// DiscountedPrice applies the listing-level percentage discount.
func (p Product) DiscountedPrice() decimal.Decimal {
	if p.DiscountPercentage > 0 && p.DiscountPercentage <= 100 {
		factor := decimal.NewFromFloat(1 - p.DiscountPercentage/100)
		return p.Price.Mul(factor).Round(2)
	}
	return p.Price
}
