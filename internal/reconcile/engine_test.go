package reconcile

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
	"github.com/peacetifal/peacetifal-backend/pkg/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:reconcile_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	err = conn.AutoMigrate(
		&models.Product{},
		&models.Purchase{},
		&models.Voucher{},
		&models.PurchaseVoucher{},
		&models.OrderAddress{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	return logger.New(logger.Options{ServiceName: "test", Output: testWriter{t}})
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func seedProduct(t *testing.T, conn *gorm.DB, price int64) models.Product {
	t.Helper()
	product := models.Product{
		ID:       uuid.New(),
		Name:     "seed product",
		Price:    decimal.NewFromInt(price),
		Category: "apparel",
		StockQty: 100,
	}
	require.NoError(t, conn.Create(&product).Error)
	return product
}

func seedPurchase(t *testing.T, conn *gorm.DB, productID uuid.UUID, qty int, total int64, original *int64, createdAt time.Time) models.Purchase {
	t.Helper()
	purchase := models.Purchase{
		ID:            uuid.New(),
		ProductID:     &productID,
		CustomerName:  "buyer",
		CustomerEmail: "buyer@example.com",
		TotalAmount:   decimal.NewFromInt(total),
		Quantity:      qty,
		Status:        "paid",
		CreatedAt:     createdAt,
	}
	if original != nil {
		purchase.OriginalAmount = decimal.NullDecimal{Decimal: decimal.NewFromInt(*original), Valid: true}
	}
	require.NoError(t, conn.Create(&purchase).Error)
	return purchase
}

func i64(v int64) *int64 { return &v }

func TestEngineRepairsQuantities(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	product := seedProduct(t, conn, 15000)
	discounted := seedProduct(t, conn, 20000)

	// Stored quantity zero; original amount says three units.
	broken := seedPurchase(t, conn, product.ID, 0, 43000, i64(45000), base)

	// No original amount; discount must be added back before dividing.
	withVoucher := seedPurchase(t, conn, discounted.ID, 1, 38000, nil, base.Add(time.Minute))
	voucher := models.Voucher{
		ID:             uuid.New(),
		Code:           "SAVE2000",
		DiscountAmount: decimal.NewFromInt(2000),
		MaxUsage:       10,
		IsActive:       true,
	}
	require.NoError(t, conn.Create(&voucher).Error)
	require.NoError(t, conn.Create(&models.PurchaseVoucher{
		ID:             uuid.New(),
		PurchaseID:     withVoucher.ID,
		VoucherID:      voucher.ID,
		DiscountAmount: decimal.NewFromInt(2000),
	}).Error)

	// Already correct; must not be rewritten.
	correct := seedPurchase(t, conn, product.ID, 2, 30000, nil, base.Add(2*time.Minute))

	engine, err := NewEngine(conn, testLogger(t), 50)
	require.NoError(t, err)

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Considered)
	assert.Equal(t, 2, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 0, summary.Errors)

	assertQuantity(t, conn, broken.ID, 3)
	assertQuantity(t, conn, withVoucher.ID, 2)
	assertQuantity(t, conn, correct.ID, 2)
}

func TestEngineIsIdempotent(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	product := seedProduct(t, conn, 15000)
	seedPurchase(t, conn, product.ID, 0, 45000, i64(45000), time.Now().UTC())

	engine, err := NewEngine(conn, testLogger(t), 50)
	require.NoError(t, err)

	first, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	second, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 1, second.Skipped)
}

func TestEngineSkipsDeletedProduct(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	product := seedProduct(t, conn, 15000)
	seedPurchase(t, conn, product.ID, 0, 45000, i64(45000), time.Now().UTC())
	require.NoError(t, conn.Delete(&models.Product{}, "id = ?", product.ID).Error)

	engine, err := NewEngine(conn, testLogger(t), 50)
	require.NoError(t, err)

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Considered)
	assert.Equal(t, 0, summary.Updated)
	assert.Equal(t, 1, summary.Skipped)

	// Quantity stays untouched when the price cannot be resolved.
	var got models.Purchase
	require.NoError(t, conn.First(&got, "product_id = ?", product.ID).Error)
	assert.Equal(t, 0, got.Quantity)
}

func TestEngineIsolatesRowErrors(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	product := seedProduct(t, conn, 15000)

	blocked := seedPurchase(t, conn, product.ID, 0, 45000, i64(45000), base.Add(time.Minute))
	repairable := seedPurchase(t, conn, product.ID, 0, 30000, i64(30000), base)

	// Simulate a per-row write failure on one purchase only.
	// SQLite does not allow bound parameters inside trigger definitions,
	// so the id has to be inlined as a literal.
	require.NoError(t, conn.Exec(`
		CREATE TRIGGER block_one BEFORE UPDATE ON purchases
		WHEN NEW.id = '`+blocked.ID.String()+`'
		BEGIN SELECT RAISE(ABORT, 'write rejected'); END`).Error)

	engine, err := NewEngine(conn, testLogger(t), 50)
	require.NoError(t, err)

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.Considered)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Errors)

	assertQuantity(t, conn, repairable.ID, 2)
	assertQuantity(t, conn, blocked.ID, 0)
}

func TestEnginePaginatesAcrossBatches(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	product := seedProduct(t, conn, 10000)

	for i := 0; i < 5; i++ {
		seedPurchase(t, conn, product.ID, 0, 20000, i64(20000), base.Add(time.Duration(i)*time.Second))
	}

	engine, err := NewEngine(conn, testLogger(t), 2)
	require.NoError(t, err)

	summary, err := engine.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Considered)
	assert.Equal(t, 5, summary.Updated)
}

func TestEngineStopsOnCancelledContext(t *testing.T) {
	t.Parallel()

	conn := newTestDB(t)
	product := seedProduct(t, conn, 10000)
	seedPurchase(t, conn, product.ID, 0, 20000, i64(20000), time.Now().UTC())

	engine, err := NewEngine(conn, testLogger(t), 50)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.Run(ctx)
	require.Error(t, err)
}

func assertQuantity(t *testing.T, conn *gorm.DB, purchaseID uuid.UUID, want int) {
	t.Helper()
	var got models.Purchase
	require.NoError(t, conn.First(&got, "id = ?", purchaseID).Error)
	assert.Equal(t, want, got.Quantity, "purchase %s", purchaseID)
}
