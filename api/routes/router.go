package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/m4ssya/warehouse-backend/api/controllers"
	"github.com/m4ssya/warehouse-backend/api/middleware"
	"github.com/m4ssya/warehouse-backend/internal/catalog"
	"github.com/m4ssya/warehouse-backend/internal/ledger"
	"github.com/m4ssya/warehouse-backend/internal/lowstock"
	"github.com/m4ssya/warehouse-backend/internal/orders"
	"github.com/m4ssya/warehouse-backend/internal/sales"
	"github.com/m4ssya/warehouse-backend/internal/stock"
	"github.com/m4ssya/warehouse-backend/internal/suppliers"
	"github.com/m4ssya/warehouse-backend/internal/users"
	"github.com/m4ssya/warehouse-backend/pkg/auth/session"
	"github.com/m4ssya/warehouse-backend/pkg/config"
	"github.com/m4ssya/warehouse-backend/pkg/db"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
	"github.com/m4ssya/warehouse-backend/pkg/redis"
)

// Services bundles everything the router mounts.
type Services struct {
	Users    users.Service
	Catalog  catalog.Service
	Stock    stock.Service
	Ledger   ledger.Service
	Sales    sales.Service
	Orders   orders.Service
	Supplier suppliers.Service
	LowStock lowstock.Service
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisP redis.Pinger,
	checker session.Checker,
	services Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Post("/login", controllers.AuthLogin(services.Users, logg))
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, checker, logg))
			r.Post("/register", controllers.AuthRegister(services.Users, logg))
			r.Post("/logout", controllers.AuthLogout(services.Users, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, checker, logg))

		r.Route("/products", func(r chi.Router) {
			r.Get("/", controllers.ListProducts(services.Catalog, logg))
			r.Post("/", controllers.CreateProduct(services.Catalog, logg))
			r.Get("/search", controllers.SearchProducts(services.Catalog, logg))
			r.Get("/by-name/{name}", controllers.GetProductByName(services.Catalog, logg))
			r.Patch("/{productId}", controllers.UpdateProduct(services.Catalog, logg))
			r.Delete("/{productId}", controllers.DeleteProduct(services.Catalog, logg))
			r.Post("/{productId}/movements", controllers.ApplyMovement(services.Stock, logg))
		})

		r.Get("/movements", controllers.MovementHistory(services.Ledger, logg))

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", controllers.ListCategories(services.Catalog, logg))
			r.Post("/", controllers.CreateCategory(services.Catalog, logg))
			r.Delete("/{name}", controllers.DeleteCategory(services.Catalog, logg))
			r.Put("/{name}/min-quantity", controllers.SetMinQuantity(services.LowStock, logg))
		})

		r.Get("/low-stock", controllers.LowStock(services.LowStock, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(services.LowStock, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(services.LowStock, logg))
		})

		r.Route("/sales", func(r chi.Router) {
			r.Post("/checkout", controllers.Checkout(services.Sales, logg))
			r.Get("/history", controllers.SalesHistory(services.Sales, logg))
			r.Get("/top-products", controllers.TopProducts(services.Sales, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.ListOrders(services.Orders, logg))
			r.Post("/", controllers.CreateOrder(services.Orders, logg))
			r.Get("/{orderId}", controllers.GetOrder(services.Orders, logg))
			r.Post("/{orderId}/receive", controllers.ReceiveOrder(services.Orders, logg))
		})

		r.Route("/suppliers", func(r chi.Router) {
			r.Get("/", controllers.ListSuppliers(services.Supplier, logg))
			r.Post("/", controllers.CreateSupplier(services.Supplier, logg))
		})

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
			r.Get("/", controllers.ListUsers(services.Users, logg))
			r.Patch("/{userId}/role", controllers.UpdateUserRole(services.Users, logg))
			r.Delete("/{userId}", controllers.DeleteUser(services.Users, logg))
		})
	})

	return r
}
