package stock

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/peacetifal/peacetifal-backend/pkg/db/models"
	pkgerrors "github.com/peacetifal/peacetifal-backend/pkg/errors"
)

func TestReserveDecrementsStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ledger := NewLedger()

	product := seedProduct(t, db, 5)

	err := db.Transaction(func(tx *gorm.DB) error {
		ok, terr := ledger.Reserve(ctx, tx, product.ID, 3)
		if terr != nil {
			return terr
		}
		if !ok {
			t.Fatal("expected reservation to succeed")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("reserve transaction: %v", err)
	}

	var got models.Product
	if err := db.First(&got, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if got.StockQty != 2 {
		t.Fatalf("expected stock 2, got %d", got.StockQty)
	}
}

func TestReserveInsufficientStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ledger := NewLedger()

	product := seedProduct(t, db, 2)

	ok, err := ledger.Reserve(ctx, db, product.ID, 3)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ok {
		t.Fatal("expected reservation to fail")
	}

	var got models.Product
	if err := db.First(&got, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if got.StockQty != 2 {
		t.Fatalf("stock must be untouched on failure, got %d", got.StockQty)
	}
}

func TestReserveSequentialLastUnit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ledger := NewLedger()

	product := seedProduct(t, db, 1)

	first, err := ledger.Reserve(ctx, db, product.ID, 1)
	if err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	second, err := ledger.Reserve(ctx, db, product.ID, 1)
	if err != nil {
		t.Fatalf("second reserve: %v", err)
	}
	if !first || second {
		t.Fatalf("expected exactly one winner, got first=%v second=%v", first, second)
	}

	var got models.Product
	if err := db.First(&got, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if got.StockQty != 0 {
		t.Fatalf("expected stock 0, got %d", got.StockQty)
	}
}

func TestReserveConcurrentLastUnit(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	// One pooled connection so concurrent writers queue on the pool instead
	// of tripping sqlite's shared-cache table lock.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	ctx := context.Background()
	ledger := NewLedger()
	product := seedProduct(t, db, 1)

	const contenders = 8
	var wg sync.WaitGroup
	var wins int32
	errs := make(chan error, contenders)
	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, rerr := ledger.Reserve(ctx, db, product.ID, 1)
			if rerr != nil {
				errs <- rerr
				return
			}
			if ok {
				atomic.AddInt32(&wins, 1)
			}
		}()
	}
	wg.Wait()
	close(errs)
	for rerr := range errs {
		t.Fatalf("reserve: %v", rerr)
	}

	if got := atomic.LoadInt32(&wins); got != 1 {
		t.Fatalf("expected exactly one winner for the last unit, got %d", got)
	}
	var got models.Product
	if err := db.First(&got, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if got.StockQty != 0 {
		t.Fatalf("expected stock 0, got %d", got.StockQty)
	}
}

func TestReserveSkipsSoftDeleted(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ledger := NewLedger()

	product := seedProduct(t, db, 10)
	if err := db.Delete(&models.Product{}, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	ok, err := ledger.Reserve(ctx, db, product.ID, 1)
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if ok {
		t.Fatal("soft-deleted product must not be reservable")
	}
}

func TestReserveInvalidQty(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ledger := NewLedger()

	product := seedProduct(t, db, 5)

	for _, qty := range []int{0, -2} {
		_, err := ledger.Reserve(ctx, db, product.ID, qty)
		if err == nil {
			t.Fatalf("expected validation error for qty %d", qty)
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("unexpected error for qty %d: %v", qty, err)
		}
	}
}

func TestReleaseRestoresStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	ledger := NewLedger()

	product := seedProduct(t, db, 4)

	ok, err := ledger.Reserve(ctx, db, product.ID, 4)
	if err != nil || !ok {
		t.Fatalf("reserve: ok=%v err=%v", ok, err)
	}
	if err := ledger.Release(ctx, db, product.ID, 4); err != nil {
		t.Fatalf("release: %v", err)
	}

	var got models.Product
	if err := db.First(&got, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("load product: %v", err)
	}
	if got.StockQty != 4 {
		t.Fatalf("expected stock 4 after release, got %d", got.StockQty)
	}
}

func TestReleaseUnknownProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ledger := NewLedger()

	err := ledger.Release(context.Background(), db, uuid.New(), 1)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func seedProduct(t *testing.T, db *gorm.DB, qty int) models.Product {
	t.Helper()
	product := models.Product{
		ID:       uuid.New(),
		Name:     "test product",
		Price:    decimal.NewFromInt(15000),
		Category: "apparel",
		StockQty: qty,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}); err != nil {
		t.Fatalf("migrate products: %v", err)
	}
	return db
}
