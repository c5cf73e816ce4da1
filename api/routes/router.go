package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/peacetifal/peacetifal-backend/api/controllers"
	"github.com/peacetifal/peacetifal-backend/api/middleware"
	productsvc "github.com/peacetifal/peacetifal-backend/internal/products"
	purchasesvc "github.com/peacetifal/peacetifal-backend/internal/purchases"
	"github.com/peacetifal/peacetifal-backend/internal/reconcile"
	usersvc "github.com/peacetifal/peacetifal-backend/internal/users"
	vouchersvc "github.com/peacetifal/peacetifal-backend/internal/vouchers"
	"github.com/peacetifal/peacetifal-backend/pkg/config"
	"github.com/peacetifal/peacetifal-backend/pkg/db"
	"github.com/peacetifal/peacetifal-backend/pkg/logger"
	"github.com/peacetifal/peacetifal-backend/pkg/redis"
)

type quantityReconciler interface {
	Run(ctx context.Context) (reconcile.Summary, error)
}

type addressSyncer interface {
	Sync(ctx context.Context) (int64, error)
}

// RouterParams bundle the wired services the HTTP surface depends on.
type RouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         db.Pinger
	Redis      redis.Pinger
	Users      usersvc.Service
	Products   productsvc.Service
	Vouchers   vouchersvc.Service
	Purchases  purchasesvc.Service
	Engine     quantityReconciler
	Propagator addressSyncer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Route("/v1/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(p.Products, logg))
			r.Get("/{productId}", controllers.GetProduct(p.Products, logg))
		})
		r.Route("/v1/purchases", func(r chi.Router) {
			r.Post("/checkout", controllers.Checkout(p.Purchases, logg))
			r.Get("/{purchaseId}", controllers.GetPurchase(p.Purchases, logg))
		})
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(p.Users, logg))
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AuthRegister(p.Users, logg))
		}
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole("admin", logg))

		r.Get("/ping", controllers.AdminPing())

		r.Route("/v1/products", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateProduct(p.Products, logg))
			r.Patch("/{productId}", controllers.AdminUpdateProduct(p.Products, logg))
			r.Delete("/{productId}", controllers.AdminDeleteProduct(p.Products, logg))
			r.Put("/{productId}/display-qty", controllers.AdminSetDisplayQty(p.Products, logg))
		})

		r.Route("/v1/vouchers", func(r chi.Router) {
			r.Post("/", controllers.AdminCreateVoucher(p.Vouchers, logg))
			r.Get("/", controllers.AdminListVouchers(p.Vouchers, logg))
			r.Get("/{voucherId}", controllers.AdminGetVoucher(p.Vouchers, logg))
			r.Put("/{voucherId}/active", controllers.AdminSetVoucherActive(p.Vouchers, logg))
		})

		r.Route("/v1/purchases", func(r chi.Router) {
			r.Get("/", controllers.AdminListPurchases(p.Purchases, logg))
			r.Get("/{purchaseId}", controllers.GetPurchase(p.Purchases, logg))
			r.Put("/{purchaseId}/status", controllers.AdminUpdatePurchaseStatus(p.Purchases, logg))
		})

		r.Post("/v1/reconcile/run", controllers.AdminRunReconcile(p.Engine, p.Propagator, logg))
	})

	return r
}
