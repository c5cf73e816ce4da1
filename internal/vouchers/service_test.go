package vouchers

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peacetifal/peacetifal-backend/pkg/db/models"
	pkgerrors "github.com/peacetifal/peacetifal-backend/pkg/errors"
)

func newTestService(t *testing.T) (Service, *gorm.DB) {
	t.Helper()
	dsn := "file:vouchers_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&models.Voucher{}))

	svc, err := NewService(NewRepository(conn))
	require.NoError(t, err)
	return svc, conn
}

func TestCreateVoucherNormalizesCode(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateVoucher(ctx, CreateVoucherInput{
		Code:           "  save2000 ",
		DiscountAmount: decimal.NewFromInt(2000),
		MaxUsage:       5,
	})
	require.NoError(t, err)
	assert.Equal(t, "SAVE2000", created.Code)
	assert.True(t, created.IsActive)
}

func TestCreateVoucherRejectsDuplicateCode(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	input := CreateVoucherInput{
		Code:           "TWICE",
		DiscountAmount: decimal.NewFromInt(1000),
		MaxUsage:       1,
	}
	_, err := svc.CreateVoucher(ctx, input)
	require.NoError(t, err)

	_, err = svc.CreateVoucher(ctx, input)
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestDiscountForPurchaseRules(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	created, err := svc.CreateVoucher(ctx, CreateVoucherInput{
		Code:           "VALID",
		DiscountAmount: decimal.NewFromInt(2000),
		MaxUsage:       2,
	})
	require.NoError(t, err)

	got, err := svc.DiscountForPurchase(ctx, "valid", now)
	require.NoError(t, err)
	assert.True(t, got.DiscountAmount.Equal(decimal.NewFromInt(2000)))

	_, err = svc.DiscountForPurchase(ctx, "MISSING", now)
	requireCode(t, err, pkgerrors.CodeNotFound)

	require.NoError(t, svc.SetVoucherActive(ctx, created.ID, false))
	_, err = svc.DiscountForPurchase(ctx, "VALID", now)
	requireCode(t, err, pkgerrors.CodeConflict)
	require.NoError(t, svc.SetVoucherActive(ctx, created.ID, true))

	expired := now.Add(-time.Hour)
	require.NoError(t, conn.Model(&models.Voucher{}).
		Where("id = ?", created.ID).
		Update("expires_at", expired).Error)
	_, err = svc.DiscountForPurchase(ctx, "VALID", now)
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestRedeemStopsAtUsageLimit(t *testing.T) {
	t.Parallel()

	svc, conn := newTestService(t)
	ctx := context.Background()

	created, err := svc.CreateVoucher(ctx, CreateVoucherInput{
		Code:           "LIMIT2",
		DiscountAmount: decimal.NewFromInt(500),
		MaxUsage:       2,
	})
	require.NoError(t, err)

	require.NoError(t, svc.Redeem(ctx, conn, created.ID))
	require.NoError(t, svc.Redeem(ctx, conn, created.ID))
	requireCode(t, svc.Redeem(ctx, conn, created.ID), pkgerrors.CodeConflict)

	var raw models.Voucher
	require.NoError(t, conn.First(&raw, "id = ?", created.ID).Error)
	assert.Equal(t, 2, raw.UsedCount)

	got, err := svc.GetVoucher(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsedCount)

	_, err = svc.DiscountForPurchase(ctx, "LIMIT2", time.Now().UTC())
	requireCode(t, err, pkgerrors.CodeConflict)
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected coded error, got %v", err)
	assert.Equal(t, code, typed.Code())
}
