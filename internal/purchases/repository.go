package purchases

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peacetifal/peacetifal-backend/pkg/db/models"
	"github.com/peacetifal/peacetifal-backend/pkg/enums"
	"github.com/peacetifal/peacetifal-backend/pkg/pagination"
)

// Repository wires together purchase persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists a new purchase.
func (r *Repository) Create(ctx context.Context, purchase *models.Purchase) (*models.Purchase, error) {
	if err := r.db.WithContext(ctx).Create(purchase).Error; err != nil {
		return nil, err
	}
	return purchase, nil
}

// CreateVoucherLink snapshots the redeemed voucher for a purchase.
func (r *Repository) CreateVoucherLink(ctx context.Context, link *models.PurchaseVoucher) error {
	return r.db.WithContext(ctx).Create(link).Error
}

// CreateAddress persists the shipping record for a purchase.
func (r *Repository) CreateAddress(ctx context.Context, address *models.OrderAddress) error {
	return r.db.WithContext(ctx).Create(address).Error
}

// FindByID loads one purchase with its voucher snapshot.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Purchase, error) {
	var purchase models.Purchase
	if err := r.db.WithContext(ctx).
		Preload("Voucher").
		First(&purchase, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &purchase, nil
}

// FindAddressByPurchase loads the shipping record for a purchase.
func (r *Repository) FindAddressByPurchase(ctx context.Context, purchaseID uuid.UUID) (*models.OrderAddress, error) {
	var address models.OrderAddress
	if err := r.db.WithContext(ctx).
		First(&address, "purchase_id = ?", purchaseID).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

// List returns a keyset page of purchases, newest first. A status filter is
// applied when non-empty.
func (r *Repository) List(ctx context.Context, status enums.PurchaseStatus, cursor *pagination.Cursor, limit int) ([]models.Purchase, error) {
	q := r.db.WithContext(ctx).Model(&models.Purchase{}).Preload("Voucher")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if cursor != nil {
		q = q.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Purchase
	if err := q.
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus sets the purchase status.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.PurchaseStatus) error {
	res := r.db.WithContext(ctx).
		Model(&models.Purchase{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
