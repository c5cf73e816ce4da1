package vouchers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/peacetifal/peacetifal-backend/pkg/db/models"
)

// Repository wires together voucher persistence helpers.
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

// Create persists a new voucher.
func (r *Repository) Create(ctx context.Context, voucher *models.Voucher) (*models.Voucher, error) {
	if err := r.db.WithContext(ctx).Create(voucher).Error; err != nil {
		return nil, err
	}
	return voucher, nil
}

// FindByID loads one voucher.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.WithContext(ctx).First(&voucher, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

// FindByCode loads one voucher by its unique code.
func (r *Repository) FindByCode(ctx context.Context, code string) (*models.Voucher, error) {
	var voucher models.Voucher
	if err := r.db.WithContext(ctx).First(&voucher, "code = ?", code).Error; err != nil {
		return nil, err
	}
	return &voucher, nil
}

// List returns all vouchers, newest first.
func (r *Repository) List(ctx context.Context) ([]models.Voucher, error) {
	var rows []models.Voucher
	if err := r.db.WithContext(ctx).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SetActive flips the active flag.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":  active,
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

// IncrementUsage bumps used_count only while usage headroom remains on an
// active voucher. The check and the increment are one conditional UPDATE so
// concurrent redemptions cannot exceed max_usage.
func (r *Repository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Voucher{}).
		Where("id = ? AND is_active = ? AND used_count < max_usage", id, true).
		Updates(map[string]any{
			"used_count": gorm.Expr("used_count + 1"),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
