package routes

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/internal/catalog"
	"github.com/m4ssya/warehouse-backend/internal/ledger"
	"github.com/m4ssya/warehouse-backend/internal/lowstock"
	"github.com/m4ssya/warehouse-backend/internal/orders"
	"github.com/m4ssya/warehouse-backend/internal/sales"
	"github.com/m4ssya/warehouse-backend/internal/stock"
	"github.com/m4ssya/warehouse-backend/internal/suppliers"
	"github.com/m4ssya/warehouse-backend/internal/users"
	pkgauth "github.com/m4ssya/warehouse-backend/pkg/auth"
	"github.com/m4ssya/warehouse-backend/pkg/auth/session"
	"github.com/m4ssya/warehouse-backend/pkg/config"
	"github.com/m4ssya/warehouse-backend/pkg/db"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

type stubSessions struct{}

func (stubSessions) Start(ctx context.Context, sessionID, username string) error {
	return nil
}

func (stubSessions) Revoke(ctx context.Context, sessionID string) error {
	return nil
}

func (stubSessions) HasSession(ctx context.Context, sessionID string) (bool, error) {
	return true, nil
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "test-secret",
			Issuer:            "warehouse-backend",
			ExpirationMinutes: 60,
			SessionTTLMinutes: 60,
		},
		Password: config.PasswordConfig{
			ArgonMemoryKB:    8,
			ArgonTime:        1,
			ArgonParallelism: 1,
			ArgonSaltLen:     16,
			ArgonKeyLen:      32,
		},
	}
}

func newTestRouter(t *testing.T, cfg *config.Config) http.Handler {
	t.Helper()

	dsn := fmt.Sprintf("file:routes_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: zerolog.ErrorLevel, Output: io.Discard})
	dbClient := db.NewWithConn(conn)

	ledgerRepo := ledger.NewRepository(conn)
	productRepo := catalog.NewProductRepository(conn)
	categoryRepo := catalog.NewCategoryRepository(conn)
	salesRepo := sales.NewRepository(conn)
	lowStockRepo := lowstock.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	supplierRepo := suppliers.NewRepository(conn)
	userRepo := users.NewRepository(conn)

	engine, err := stock.NewEngine(ledgerRepo)
	if err != nil {
		t.Fatalf("stock engine: %v", err)
	}
	ledgerSvc, err := ledger.NewService(ledgerRepo)
	if err != nil {
		t.Fatalf("ledger service: %v", err)
	}
	lowStockSvc, err := lowstock.NewService(lowStockRepo, categoryRepo, logg)
	if err != nil {
		t.Fatalf("lowstock service: %v", err)
	}
	catalogSvc, err := catalog.NewService(productRepo, categoryRepo, dbClient, engine, salesRepo)
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	stockSvc, err := stock.NewService(dbClient, engine, lowStockSvc, logg)
	if err != nil {
		t.Fatalf("stock service: %v", err)
	}
	salesSvc, err := sales.NewService(salesRepo, productRepo, dbClient, engine, lowStockSvc, logg)
	if err != nil {
		t.Fatalf("sales service: %v", err)
	}
	orderSvc, err := orders.NewService(orderRepo, productRepo, dbClient, engine, logg)
	if err != nil {
		t.Fatalf("orders service: %v", err)
	}
	supplierSvc, err := suppliers.NewService(supplierRepo)
	if err != nil {
		t.Fatalf("suppliers service: %v", err)
	}
	userSvc, err := users.NewService(userRepo, salesRepo, dbClient, stubSessions{}, nil, cfg.JWT, cfg.Password, logg)
	if err != nil {
		t.Fatalf("users service: %v", err)
	}

	return NewRouter(cfg, logg, stubPinger{}, stubPinger{}, stubSessions{}, Services{
		Users:    userSvc,
		Catalog:  catalogSvc,
		Stock:    stockSvc,
		Ledger:   ledgerSvc,
		Sales:    salesSvc,
		Orders:   orderSvc,
		Supplier: supplierSvc,
		LowStock: lowStockSvc,
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.UserRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID:   uuid.New(),
		Username: "router-test",
		Role:     role,
		JTI:      session.NewSessionID(),
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func doJSON(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestHealthLiveIsPublic(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := doJSON(t, router, http.MethodGet, "/health/live", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestHealthReadyPingsStores(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := doJSON(t, router, http.MethodGet, "/health/ready", "", "")
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestPrivateGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(t, testConfig())
	resp := doJSON(t, router, http.MethodGet, "/api/v1/products", "", "")
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestUsersGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)

	nonAdmin := doJSON(t, router, http.MethodGet, "/api/v1/users", buildToken(t, cfg, enums.UserRoleUser), "")
	if nonAdmin.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin got %d", nonAdmin.Code)
	}

	admin := doJSON(t, router, http.MethodGet, "/api/v1/users", buildToken(t, cfg, enums.UserRoleAdmin), "")
	if admin.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin got %d", admin.Code)
	}
}

func TestProductAndMovementFlow(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	token := buildToken(t, cfg, enums.UserRoleUser)

	create := doJSON(t, router, http.MethodPost, "/api/v1/products", token,
		`{"name":"Drill","quantity":10,"purchase_price":"45.50","sale_price":"79.99"}`)
	if create.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", create.Code, create.Body.String())
	}

	var created struct {
		Data struct {
			ID       string `json:"id"`
			Quantity int    `json:"quantity"`
		} `json:"data"`
	}
	if err := json.Unmarshal(create.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	if created.Data.Quantity != 10 {
		t.Fatalf("expected quantity 10 got %d", created.Data.Quantity)
	}

	move := doJSON(t, router, http.MethodPost, "/api/v1/products/"+created.Data.ID+"/movements", token,
		`{"movement_type":"OUT","quantity":4,"comment":"shelf recount"}`)
	if move.Code != http.StatusCreated {
		t.Fatalf("expected 201 for movement got %d body=%s", move.Code, move.Body.String())
	}
	var moved struct {
		Data struct {
			Comment string `json:"comment"`
		} `json:"data"`
	}
	if err := json.Unmarshal(move.Body.Bytes(), &moved); err != nil {
		t.Fatalf("decode movement response: %v", err)
	}
	if moved.Data.Comment != "shelf recount" {
		t.Fatalf("expected movement comment echoed back, got %q", moved.Data.Comment)
	}

	oversell := doJSON(t, router, http.MethodPost, "/api/v1/products/"+created.Data.ID+"/movements", token,
		`{"movement_type":"OUT","quantity":100}`)
	if oversell.Code != http.StatusConflict {
		t.Fatalf("expected 409 for oversell got %d body=%s", oversell.Code, oversell.Body.String())
	}

	history := doJSON(t, router, http.MethodGet, "/api/v1/movements?product_id="+created.Data.ID, token, "")
	if history.Code != http.StatusOK {
		t.Fatalf("expected 200 for history got %d", history.Code)
	}
	var movements struct {
		Data []struct {
			MovementType string `json:"movement_type"`
			NewQuantity  int    `json:"new_quantity"`
		} `json:"data"`
	}
	if err := json.Unmarshal(history.Body.Bytes(), &movements); err != nil {
		t.Fatalf("decode history: %v", err)
	}
	if len(movements.Data) != 2 {
		t.Fatalf("expected 2 movements got %d", len(movements.Data))
	}
}

func TestCheckoutFlowThroughRouter(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	token := buildToken(t, cfg, enums.UserRoleUser)

	create := doJSON(t, router, http.MethodPost, "/api/v1/products", token,
		`{"name":"Hammer","quantity":5,"purchase_price":"8.00","sale_price":"15.00"}`)
	if create.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", create.Code, create.Body.String())
	}

	checkout := doJSON(t, router, http.MethodPost, "/api/v1/sales/checkout", token,
		`{"lines":[{"product_name":"Hammer","quantity":2}]}`)
	if checkout.Code != http.StatusCreated {
		t.Fatalf("expected 201 for checkout got %d body=%s", checkout.Code, checkout.Body.String())
	}

	history := doJSON(t, router, http.MethodGet, "/api/v1/sales/history", token, "")
	if history.Code != http.StatusOK {
		t.Fatalf("expected 200 for sales history got %d", history.Code)
	}
}

func TestCheckoutRejectsBadJSON(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	token := buildToken(t, cfg, enums.UserRoleUser)

	resp := doJSON(t, router, http.MethodPost, "/api/v1/sales/checkout", token, "{")
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid payload got %d", resp.Code)
	}
}

func TestSupplierRoutes(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(t, cfg)
	token := buildToken(t, cfg, enums.UserRoleUser)

	create := doJSON(t, router, http.MethodPost, "/api/v1/suppliers", token, `{"name":"Acme Tools"}`)
	if create.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d body=%s", create.Code, create.Body.String())
	}

	list := doJSON(t, router, http.MethodGet, "/api/v1/suppliers", token, "")
	if list.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", list.Code)
	}
	var suppliersResp struct {
		Data []struct {
			Name string `json:"name"`
		} `json:"data"`
	}
	if err := json.Unmarshal(list.Body.Bytes(), &suppliersResp); err != nil {
		t.Fatalf("decode suppliers: %v", err)
	}
	if len(suppliersResp.Data) != 1 || suppliersResp.Data[0].Name != "Acme Tools" {
		t.Fatalf("unexpected suppliers list: %+v", suppliersResp.Data)
	}
}
