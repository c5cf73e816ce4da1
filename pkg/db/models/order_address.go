package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderAddress is the shipping record for a purchase. Quantity is a
// denormalized copy of Purchase.Quantity kept for fulfillment reads; it is
// eventually consistent and converges after the mirror sync job runs.
type OrderAddress struct {
	ID            uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	PurchaseID    uuid.UUID `gorm:"column:purchase_id;type:uuid;not null;index"`
	RecipientName string    `gorm:"column:recipient_name;not null"`
	Street        string    `gorm:"column:street;not null"`
	City          string    `gorm:"column:city;not null"`
	PostalCode    string    `gorm:"column:postal_code;not null"`
	Phone         string    `gorm:"column:phone;not null"`
	Quantity      *int      `gorm:"column:quantity"`
	CreatedAt     time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
