package purchases

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/peacetifal/peacetifal-backend/internal/vouchers"
	"github.com/peacetifal/peacetifal-backend/pkg/db/models"
	"github.com/peacetifal/peacetifal-backend/pkg/enums"
	pkgerrors "github.com/peacetifal/peacetifal-backend/pkg/errors"
	"github.com/peacetifal/peacetifal-backend/pkg/pagination"
)

// Service exposes the checkout flow plus admin read/update operations.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*PurchaseDTO, error)
	GetPurchase(ctx context.Context, purchaseID uuid.UUID) (*PurchaseDTO, error)
	ListPurchases(ctx context.Context, input ListPurchasesInput) (*PurchaseListResult, error)
	UpdateStatus(ctx context.Context, purchaseID uuid.UUID, status enums.PurchaseStatus) (*PurchaseDTO, error)
}

// CheckoutInput holds the validated payload for a storefront checkout.
type CheckoutInput struct {
	ProductID     uuid.UUID
	Quantity      int
	CustomerName  string
	CustomerEmail string
	VoucherCode   *string
	Address       AddressInput
}

// AddressInput captures the shipping record created with the purchase.
type AddressInput struct {
	RecipientName string
	Street        string
	City          string
	PostalCode    string
	Phone         string
}

// ListPurchasesInput filters and paginates the admin purchase list.
type ListPurchasesInput struct {
	Status enums.PurchaseStatus
	Page   pagination.Params
}

// PurchaseListResult is one keyset page of purchases.
type PurchaseListResult struct {
	Purchases  []PurchaseDTO `json:"purchases"`
	NextCursor *string       `json:"next_cursor,omitempty"`
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
}

type stockLedger interface {
	Reserve(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) (bool, error)
	Release(ctx context.Context, tx *gorm.DB, productID uuid.UUID, qty int) error
}

type voucherResolver interface {
	DiscountForPurchase(ctx context.Context, code string, at time.Time) (*vouchers.VoucherDTO, error)
	Redeem(ctx context.Context, tx *gorm.DB, voucherID uuid.UUID) error
}

type service struct {
	repo     *Repository
	db       txRunner
	products productLoader
	ledger   stockLedger
	vouchers voucherResolver
	now      func() time.Time
}

// NewService constructs a purchase service instance.
func NewService(repo *Repository, db txRunner, products productLoader, ledger stockLedger, voucherSvc voucherResolver) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("purchase repository required")
	}
	if db == nil {
		return nil, fmt.Errorf("db client required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
	if ledger == nil {
		return nil, fmt.Errorf("stock ledger required")
	}
	if voucherSvc == nil {
		return nil, fmt.Errorf("voucher service required")
	}
	return &service{
		repo:     repo,
		db:       db,
		products: products,
		ledger:   ledger,
		vouchers: voucherSvc,
		now:      time.Now,
	}, nil
}

// Checkout runs the whole purchase in one transaction: the stock reservation,
// the voucher redemption, and the three inserts commit or roll back together.
// Losing the stock race surfaces as an insufficient-stock conflict.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*PurchaseDTO, error) {
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product_id is required")
	}

	product, err := s.products.FindByID(ctx, input.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading product")
	}

	now := s.now().UTC()

	var voucher *vouchers.VoucherDTO
	if input.VoucherCode != nil && *input.VoucherCode != "" {
		voucher, err = s.vouchers.DiscountForPurchase(ctx, *input.VoucherCode, now)
		if err != nil {
			return nil, err
		}
	}

	// Amounts are based on the listing price; discount_percentage only shapes
	// the displayed price. Keeps original_amount an exact multiple of the
	// price the reconciliation job derives quantities from.
	unitPrice := product.Price
	original := unitPrice.Mul(decimal.NewFromInt(int64(input.Quantity)))
	total := original
	var discount decimal.Decimal
	if voucher != nil {
		discount = voucher.DiscountAmount
		if discount.GreaterThan(original) {
			discount = original
		}
		total = original.Sub(discount)
	}

	purchase := &models.Purchase{
		ID:             uuid.New(),
		ProductID:      &product.ID,
		CustomerName:   input.CustomerName,
		CustomerEmail:  input.CustomerEmail,
		TotalAmount:    total,
		OriginalAmount: decimal.NullDecimal{Decimal: original, Valid: true},
		Quantity:       input.Quantity,
		Status:         enums.PurchaseStatusPending,
	}

	var address *models.OrderAddress

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		reserved, rerr := s.ledger.Reserve(ctx, tx, product.ID, input.Quantity)
		if rerr != nil {
			return rerr
		}
		if !reserved {
			return pkgerrors.New(pkgerrors.CodeInsufficientStock, "not enough stock for this product")
		}

		txRepo := s.repo.WithTx(tx)
		if _, cerr := txRepo.Create(ctx, purchase); cerr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, cerr, "creating purchase")
		}

		if voucher != nil {
			if verr := s.vouchers.Redeem(ctx, tx, voucher.ID); verr != nil {
				return verr
			}
			link := &models.PurchaseVoucher{
				ID:             uuid.New(),
				PurchaseID:     purchase.ID,
				VoucherID:      voucher.ID,
				DiscountAmount: discount,
			}
			if verr := txRepo.CreateVoucherLink(ctx, link); verr != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, verr, "linking voucher")
			}
			purchase.Voucher = link
		}

		qty := input.Quantity
		address = &models.OrderAddress{
			ID:            uuid.New(),
			PurchaseID:    purchase.ID,
			RecipientName: input.Address.RecipientName,
			Street:        input.Address.Street,
			City:          input.Address.City,
			PostalCode:    input.Address.PostalCode,
			Phone:         input.Address.Phone,
			Quantity:      &qty,
		}
		if aerr := txRepo.CreateAddress(ctx, address); aerr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, aerr, "creating order address")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return NewPurchaseDTO(purchase, address), nil
}

func (s *service) GetPurchase(ctx context.Context, purchaseID uuid.UUID) (*PurchaseDTO, error) {
	purchase, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	address, err := s.repo.FindAddressByPurchase(ctx, purchaseID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading order address")
	}
	return NewPurchaseDTO(purchase, address), nil
}

func (s *service) ListPurchases(ctx context.Context, input ListPurchasesInput) (*PurchaseListResult, error) {
	if input.Status != "" && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase status")
	}
	cursor, err := pagination.ParseCursor(input.Page.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	limit := pagination.NormalizeLimit(input.Page.Limit)
	rows, err := s.repo.List(ctx, input.Status, cursor, pagination.LimitWithBuffer(input.Page.Limit))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing purchases")
	}

	result := &PurchaseListResult{Purchases: make([]PurchaseDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Purchases = append(result.Purchases, *NewPurchaseDTO(&rows[i], nil))
	}
	if hasMore {
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	return result, nil
}

// UpdateStatus moves a purchase to a new status. Cancelling returns the
// reserved units to stock in the same transaction.
func (s *service) UpdateStatus(ctx context.Context, purchaseID uuid.UUID, status enums.PurchaseStatus) (*PurchaseDTO, error) {
	if !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid purchase status")
	}

	purchase, err := s.repo.FindByID(ctx, purchaseID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if purchase.Status == status {
		return s.GetPurchase(ctx, purchaseID)
	}
	if purchase.Status == enums.PurchaseStatusCancelled {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "cancelled purchases cannot change status")
	}

	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if uerr := txRepo.UpdateStatus(ctx, purchaseID, status); uerr != nil {
			return uerr
		}
		if status == enums.PurchaseStatusCancelled && purchase.ProductID != nil && purchase.Quantity > 0 {
			return s.ledger.Release(ctx, tx, *purchase.ProductID, purchase.Quantity)
		}
		return nil
	})
	if err != nil {
		return nil, mapRepoError(err)
	}

	return s.GetPurchase(ctx, purchaseID)
}

func mapRepoError(err error) error {
	if typed := pkgerrors.As(err); typed != nil {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "purchase not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "purchase storage failure")
}
