package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/peacetifal/peacetifal-backend/pkg/db/models"
)

// ProductDTO represents the catalog payload returned to clients.
type ProductDTO struct {
	ID                 uuid.UUID       `json:"id"`
	Name               string          `json:"name"`
	Description        *string         `json:"description,omitempty"`
	Price              decimal.Decimal `json:"price"`
	DiscountPercentage float64         `json:"discount_percentage"`
	DiscountedPrice    decimal.Decimal `json:"discounted_price"`
	Category           string          `json:"category"`
	Size               *string         `json:"size,omitempty"`
	StockQty           int             `json:"stock_qty"`
	Images             []string        `json:"images"`
	DisplayQty         *int            `json:"display_qty,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// ProductListResult is one keyset page of products.
type ProductListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

// NewProductDTO builds a DTO from the persisted model.
func NewProductDTO(product *models.Product) *ProductDTO {
	return &ProductDTO{
		ID:                 product.ID,
		Name:               product.Name,
		Description:        product.Description,
		Price:              product.Price,
		DiscountPercentage: product.DiscountPercentage,
		DiscountedPrice:    product.DiscountedPrice(),
		Category:           product.Category,
		Size:               product.Size,
		StockQty:           product.StockQty,
		Images:             append([]string{}, product.Images...),
		DisplayQty:         product.DisplayQty,
		CreatedAt:          product.CreatedAt,
		UpdatedAt:          product.UpdatedAt,
	}
}
