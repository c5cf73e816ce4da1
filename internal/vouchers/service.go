package vouchers

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/peacetifal/peacetifal-backend/pkg/db"
	"github.com/peacetifal/peacetifal-backend/pkg/db/models"
	pkgerrors "github.com/peacetifal/peacetifal-backend/pkg/errors"
)

// Service exposes voucher management plus the two calls the checkout flow
// needs: resolving a code to a discount and redeeming it transactionally.
type Service interface {
	CreateVoucher(ctx context.Context, input CreateVoucherInput) (*VoucherDTO, error)
	GetVoucher(ctx context.Context, voucherID uuid.UUID) (*VoucherDTO, error)
	ListVouchers(ctx context.Context) ([]VoucherDTO, error)
	SetVoucherActive(ctx context.Context, voucherID uuid.UUID, active bool) error
	DiscountForPurchase(ctx context.Context, code string, at time.Time) (*VoucherDTO, error)
	Redeem(ctx context.Context, tx *gorm.DB, voucherID uuid.UUID) error
}

// CreateVoucherInput holds the validated payload to create a voucher.
type CreateVoucherInput struct {
	Code           string
	DiscountAmount decimal.Decimal
	MaxUsage       int
	ExpiresAt      *time.Time
}

// VoucherDTO is the voucher payload returned to clients.
type VoucherDTO struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	MaxUsage       int             `json:"max_usage"`
	UsedCount      int             `json:"used_count"`
	IsActive       bool            `json:"is_active"`
	ExpiresAt      *time.Time      `json:"expires_at,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

func newVoucherDTO(v *models.Voucher) *VoucherDTO {
	return &VoucherDTO{
		ID:             v.ID,
		Code:           v.Code,
		DiscountAmount: v.DiscountAmount,
		MaxUsage:       v.MaxUsage,
		UsedCount:      v.UsedCount,
		IsActive:       v.IsActive,
		ExpiresAt:      v.ExpiresAt,
		CreatedAt:      v.CreatedAt,
	}
}

type service struct {
	repo *Repository
}

// NewService constructs a voucher service instance.
func NewService(repo *Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("voucher repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateVoucher(ctx context.Context, input CreateVoucherInput) (*VoucherDTO, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "code is required")
	}
	if !input.DiscountAmount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "discount_amount must be positive")
	}
	if input.MaxUsage <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "max_usage must be positive")
	}

	voucher := &models.Voucher{
		ID:             uuid.New(),
		Code:           code,
		DiscountAmount: input.DiscountAmount,
		MaxUsage:       input.MaxUsage,
		IsActive:       true,
		ExpiresAt:      input.ExpiresAt,
	}

	created, err := s.repo.Create(ctx, voucher)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "voucher code already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating voucher")
	}
	return newVoucherDTO(created), nil
}

func (s *service) GetVoucher(ctx context.Context, voucherID uuid.UUID) (*VoucherDTO, error) {
	voucher, err := s.repo.FindByID(ctx, voucherID)
	if err != nil {
		return nil, mapRepoError(err, "loading voucher")
	}
	return newVoucherDTO(voucher), nil
}

func (s *service) ListVouchers(ctx context.Context) ([]VoucherDTO, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing vouchers")
	}
	out := make([]VoucherDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *newVoucherDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) SetVoucherActive(ctx context.Context, voucherID uuid.UUID, active bool) error {
	if err := s.repo.SetActive(ctx, voucherID, active); err != nil {
		return mapRepoError(err, "updating voucher")
	}
	return nil
}

// DiscountForPurchase resolves a code to a usable voucher. Inactive, expired,
// and exhausted vouchers are rejected before checkout ever opens a
// transaction.
func (s *service) DiscountForPurchase(ctx context.Context, code string, at time.Time) (*VoucherDTO, error) {
	voucher, err := s.repo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		return nil, mapRepoError(err, "loading voucher")
	}
	if !voucher.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "voucher is not active")
	}
	if voucher.ExpiresAt != nil && voucher.ExpiresAt.Before(at) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "voucher has expired")
	}
	if voucher.UsedCount >= voucher.MaxUsage {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "voucher usage limit reached")
	}
	return newVoucherDTO(voucher), nil
}

// Redeem consumes one usage inside the caller's transaction. The usage-limit
// re-check happens in the UPDATE itself, so a voucher that ran out between
// the lookup and the redemption rolls the checkout back.
func (s *service) Redeem(ctx context.Context, tx *gorm.DB, voucherID uuid.UUID) error {
	if tx == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "transaction handle is required")
	}
	ok, err := s.repo.WithTx(tx).IncrementUsage(ctx, voucherID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "redeeming voucher")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "voucher can no longer be redeemed")
	}
	return nil
}

func mapRepoError(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "voucher not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, msg)
}
