package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	productsvc "github.com/peacetifal/peacetifal-backend/internal/products"
	purchasesvc "github.com/peacetifal/peacetifal-backend/internal/purchases"
	"github.com/peacetifal/peacetifal-backend/internal/reconcile"
	usersvc "github.com/peacetifal/peacetifal-backend/internal/users"
	vouchersvc "github.com/peacetifal/peacetifal-backend/internal/vouchers"
	pkgAuth "github.com/peacetifal/peacetifal-backend/pkg/auth"
	"github.com/peacetifal/peacetifal-backend/pkg/config"
	"github.com/peacetifal/peacetifal-backend/pkg/enums"
	"github.com/peacetifal/peacetifal-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubUsersService struct{}

func (stubUsersService) CreateUser(ctx context.Context, input usersvc.CreateUserInput) (*usersvc.UserDTO, error) {
	panic("unimplemented")
}

func (stubUsersService) Login(ctx context.Context, email, password string) (*usersvc.LoginResult, error) {
	panic("unimplemented")
}

type stubProductsService struct{}

func (stubProductsService) CreateProduct(ctx context.Context, input productsvc.CreateProductInput) (*productsvc.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductsService) UpdateProduct(ctx context.Context, productID uuid.UUID, input productsvc.UpdateProductInput) (*productsvc.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductsService) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	panic("unimplemented")
}

func (stubProductsService) GetProduct(ctx context.Context, productID uuid.UUID) (*productsvc.ProductDTO, error) {
	panic("unimplemented")
}

func (stubProductsService) ListProducts(ctx context.Context, input productsvc.ListProductsInput) (*productsvc.ProductListResult, error) {
	return &productsvc.ProductListResult{Products: []productsvc.ProductDTO{}}, nil
}

func (stubProductsService) SetDisplayQty(ctx context.Context, productID uuid.UUID, qty int) (*productsvc.ProductDTO, error) {
	panic("unimplemented")
}

type stubVouchersService struct{}

func (stubVouchersService) CreateVoucher(ctx context.Context, input vouchersvc.CreateVoucherInput) (*vouchersvc.VoucherDTO, error) {
	panic("unimplemented")
}

func (stubVouchersService) GetVoucher(ctx context.Context, voucherID uuid.UUID) (*vouchersvc.VoucherDTO, error) {
	panic("unimplemented")
}

func (stubVouchersService) ListVouchers(ctx context.Context) ([]vouchersvc.VoucherDTO, error) {
	return []vouchersvc.VoucherDTO{}, nil
}

func (stubVouchersService) SetVoucherActive(ctx context.Context, voucherID uuid.UUID, active bool) error {
	panic("unimplemented")
}

func (stubVouchersService) DiscountForPurchase(ctx context.Context, code string, at time.Time) (*vouchersvc.VoucherDTO, error) {
	panic("unimplemented")
}

func (stubVouchersService) Redeem(ctx context.Context, tx *gorm.DB, voucherID uuid.UUID) error {
	panic("unimplemented")
}

type stubPurchasesService struct{}

func (stubPurchasesService) Checkout(ctx context.Context, input purchasesvc.CheckoutInput) (*purchasesvc.PurchaseDTO, error) {
	panic("unimplemented")
}

func (stubPurchasesService) GetPurchase(ctx context.Context, purchaseID uuid.UUID) (*purchasesvc.PurchaseDTO, error) {
	panic("unimplemented")
}

func (stubPurchasesService) ListPurchases(ctx context.Context, input purchasesvc.ListPurchasesInput) (*purchasesvc.PurchaseListResult, error) {
	return &purchasesvc.PurchaseListResult{Purchases: []purchasesvc.PurchaseDTO{}}, nil
}

func (stubPurchasesService) UpdateStatus(ctx context.Context, purchaseID uuid.UUID, status enums.PurchaseStatus) (*purchasesvc.PurchaseDTO, error) {
	panic("unimplemented")
}

type stubEngine struct {
	ran bool
}

func (s *stubEngine) Run(ctx context.Context) (reconcile.Summary, error) {
	s.ran = true
	return reconcile.Summary{Considered: 1, Skipped: 1}, nil
}

type stubPropagator struct {
	ran bool
}

func (s *stubPropagator) Sync(ctx context.Context) (int64, error) {
	s.ran = true
	return 0, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config, engine *stubEngine, propagator *stubPropagator) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:     cfg,
		Logger:     logg,
		DB:         stubPinger{},
		Redis:      stubPinger{},
		Users:      stubUsersService{},
		Products:   stubProductsService{},
		Vouchers:   stubVouchersService{},
		Purchases:  stubPurchasesService{},
		Engine:     engine,
		Propagator: propagator,
	})
}

func TestPublicCatalogIsOpen(t *testing.T) {
	router := newTestRouter(testConfig(), &stubEngine{}, &stubPropagator{})
	req := httptest.NewRequest(http.MethodGet, "/api/public/v1/products", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for public catalog got %d", resp.Code)
	}
}

func TestHealthReadyUsesPingers(t *testing.T) {
	router := newTestRouter(testConfig(), &stubEngine{}, &stubPropagator{})
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for ready got %d", resp.Code)
	}
}

func TestAdminGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig(), &stubEngine{}, &stubPropagator{})
	req := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg, &stubEngine{}, &stubPropagator{})

	staff := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	staff.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleStaff))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, staff)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for staff got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/ping", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", resp.Code)
	}
}

func TestRegisterHiddenInProduction(t *testing.T) {
	cfg := testConfig()
	cfg.App.Env = "prod"
	router := newTestRouter(cfg, &stubEngine{}, &stubPropagator{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", strings.NewReader(`{}`))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code == http.StatusOK || resp.Code == http.StatusCreated {
		t.Fatalf("register must not be routable in prod, got %d", resp.Code)
	}
}

func TestCheckoutRejectsBadJSON(t *testing.T) {
	router := newTestRouter(testConfig(), &stubEngine{}, &stubPropagator{})
	req := httptest.NewRequest(http.MethodPost, "/api/public/v1/purchases/checkout", strings.NewReader("{"))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestAdminReconcileRunsBothPhases(t *testing.T) {
	cfg := testConfig()
	engine := &stubEngine{}
	propagator := &stubPropagator{}
	router := newTestRouter(cfg, engine, propagator)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/reconcile/run", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.UserRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for reconcile run got %d", resp.Code)
	}
	if !engine.ran {
		t.Fatal("expected engine to run")
	}
	if !propagator.ran {
		t.Fatal("expected propagator to run")
	}
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}
