package purchases

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peacetifal/peacetifal-backend/pkg/db/models"
)

// PurchaseDTO represents the purchase payload returned to clients.
type PurchaseDTO struct {
	ID             uuid.UUID           `json:"id"`
	ProductID      *uuid.UUID          `json:"product_id,omitempty"`
	CustomerName   string              `json:"customer_name"`
	CustomerEmail  string              `json:"customer_email"`
	TotalAmount    decimal.Decimal     `json:"total_amount"`
	OriginalAmount *decimal.Decimal    `json:"original_amount,omitempty"`
	Quantity       int                 `json:"quantity"`
	Status         string              `json:"status"`
	Voucher        *PurchaseVoucherDTO `json:"voucher,omitempty"`
	Address        *OrderAddressDTO    `json:"address,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// PurchaseVoucherDTO surfaces the redeemed voucher snapshot.
type PurchaseVoucherDTO struct {
	VoucherID      uuid.UUID       `json:"voucher_id"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
}

// OrderAddressDTO surfaces the shipping record.
type OrderAddressDTO struct {
	ID            uuid.UUID `json:"id"`
	RecipientName string    `json:"recipient_name"`
	Street        string    `json:"street"`
	City          string    `json:"city"`
	PostalCode    string    `json:"postal_code"`
	Phone         string    `json:"phone"`
	Quantity      *int      `json:"quantity,omitempty"`
}

// NewPurchaseDTO builds a DTO from the persisted model. address may be nil.
func NewPurchaseDTO(purchase *models.Purchase, address *models.OrderAddress) *PurchaseDTO {
	dto := &PurchaseDTO{
		ID:            purchase.ID,
		ProductID:     purchase.ProductID,
		CustomerName:  purchase.CustomerName,
		CustomerEmail: purchase.CustomerEmail,
		TotalAmount:   purchase.TotalAmount,
		Quantity:      purchase.Quantity,
		Status:        string(purchase.Status),
		CreatedAt:     purchase.CreatedAt,
		UpdatedAt:     purchase.UpdatedAt,
	}
	if purchase.OriginalAmount.Valid {
		amount := purchase.OriginalAmount.Decimal
		dto.OriginalAmount = &amount
	}
	if purchase.Voucher != nil {
		dto.Voucher = &PurchaseVoucherDTO{
			VoucherID:      purchase.Voucher.VoucherID,
			DiscountAmount: purchase.Voucher.DiscountAmount,
		}
	}
	if address != nil {
		dto.Address = &OrderAddressDTO{
			ID:            address.ID,
			RecipientName: address.RecipientName,
			Street:        address.Street,
			City:          address.City,
			PostalCode:    address.PostalCode,
			Phone:         address.Phone,
			Quantity:      address.Quantity,
		}
	}
	return dto
}
