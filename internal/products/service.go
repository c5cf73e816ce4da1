package products

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/peacetifal/peacetifal-backend/pkg/db/models"
	pkgerrors "github.com/peacetifal/peacetifal-backend/pkg/errors"
	"github.com/peacetifal/peacetifal-backend/pkg/pagination"
)

// Service exposes catalog management operations. Stock is set here on create
// and restock; it is never decremented here, that path belongs to the ledger.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error)
	SetDisplayQty(ctx context.Context, productID uuid.UUID, qty int) (*ProductDTO, error)
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name               string
	Description        *string
	Price              decimal.Decimal
	DiscountPercentage float64
	Category           string
	Size               *string
	StockQty           int
	Images             []string
}

// UpdateProductInput holds optional mutation values for a product.
type UpdateProductInput struct {
	Name               *string
	Description        *string
	Price              *decimal.Decimal
	DiscountPercentage *float64
	Category           *string
	Size               *string
	StockQty           *int
	Images             *[]string
}

// ListProductsInput filters and paginates the catalog.
type ListProductsInput struct {
	Category string
	Page     pagination.Params
}

type service struct {
	repo *Repository
}

// NewService constructs a product service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*ProductDTO, error) {
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if input.StockQty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_qty cannot be negative")
	}
	if err := validateDiscountPercentage(input.DiscountPercentage); err != nil {
		return nil, err
	}

	product := &models.Product{
		ID:                 uuid.New(),
		Name:               input.Name,
		Description:        input.Description,
		Price:              input.Price,
		DiscountPercentage: input.DiscountPercentage,
		Category:           input.Category,
		Size:               input.Size,
		StockQty:           input.StockQty,
		Images:             pq.StringArray(input.Images),
	}

	created, err := s.repo.Create(ctx, product)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
	}
	return NewProductDTO(created), nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*ProductDTO, error) {
	updates := map[string]any{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		updates["price"] = *input.Price
	}
	if input.DiscountPercentage != nil {
		if err := validateDiscountPercentage(*input.DiscountPercentage); err != nil {
			return nil, err
		}
		updates["discount_percentage"] = *input.DiscountPercentage
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.Size != nil {
		updates["size"] = *input.Size
	}
	if input.StockQty != nil {
		if *input.StockQty < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock_qty cannot be negative")
		}
		updates["stock_qty"] = *input.StockQty
	}
	if input.Images != nil {
		updates["images"] = pq.StringArray(*input.Images)
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}
	updates["updated_at"] = time.Now().UTC()

	updated, err := s.repo.Update(ctx, productID, updates)
	if err != nil {
		return nil, mapRepoError(err, "updating product")
	}
	return NewProductDTO(updated), nil
}

func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if err := s.repo.SoftDelete(ctx, productID); err != nil {
		return mapRepoError(err, "deleting product")
	}
	return nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	product, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, mapRepoError(err, "loading product")
	}
	return NewProductDTO(product), nil
}

func (s *service) ListProducts(ctx context.Context, input ListProductsInput) (*ProductListResult, error) {
	cursor, err := pagination.ParseCursor(input.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Page.Limit)
	rows, err := s.repo.List(ctx, input.Category, cursor, pagination.LimitWithBuffer(input.Page.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}

	result := &ProductListResult{Products: make([]ProductDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Products = append(result.Products, *NewProductDTO(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	return result, nil
}

func (s *service) SetDisplayQty(ctx context.Context, productID uuid.UUID, qty int) (*ProductDTO, error) {
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display_qty cannot be negative")
	}
	if err := s.repo.SetDisplayQty(ctx, productID, qty, time.Now().UTC()); err != nil {
		return nil, mapRepoError(err, "setting display qty")
	}
	return s.GetProduct(ctx, productID)
}

func validateDiscountPercentage(pct float64) error {
	if pct < 0 || pct > 100 {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount_percentage must be between 0 and 100")
	}
	return nil
}

func mapRepoError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
