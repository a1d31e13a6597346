package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/internal/ledger"
	"github.com/m4ssya/warehouse-backend/internal/stock"
	dbclient "github.com/m4ssya/warehouse-backend/pkg/db"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
)

type stubSaleChecker struct {
	counts map[string]int64
}

func (s *stubSaleChecker) CountByProductName(_ context.Context, productName string) (int64, error) {
	return s.counts[productName], nil
}

type testEnv struct {
	conn    *gorm.DB
	service Service
	sales   *stubSaleChecker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:catalog_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	engine, err := stock.NewEngine(ledger.NewRepository(conn))
	require.NoError(t, err)

	sales := &stubSaleChecker{counts: map[string]int64{}}
	svc, err := NewService(
		NewProductRepository(conn),
		NewCategoryRepository(conn),
		dbclient.NewWithConn(conn),
		engine,
		sales,
	)
	require.NoError(t, err)

	return &testEnv{conn: conn, service: svc, sales: sales}
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr, "expected coded error, got %v", err)
	require.Equal(t, code, appErr.Code())
}

func TestCreateProductRecordsOpeningBalance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.service.CreateProduct(ctx, CreateProductInput{
		Name:          "Widget",
		Quantity:      10,
		PurchasePrice: decimal.NewFromInt(5),
		SalePrice:     decimal.NewFromInt(9),
		Actor:         "alice",
	})
	require.NoError(t, err)
	require.Equal(t, 10, product.Quantity)

	var movements []models.ProductMovement
	require.NoError(t, env.conn.Where("product_id = ?", product.ID).Find(&movements).Error)
	require.Len(t, movements, 1)
	require.Equal(t, enums.MovementTypeIn, movements[0].MovementType)
	require.Equal(t, enums.MovementReferenceInitial, movements[0].ReferenceType)
	require.Equal(t, 0, movements[0].PreviousQuantity)
	require.Equal(t, 10, movements[0].NewQuantity)
}

func TestCreateProductWithoutStockSkipsMovement(t *testing.T) {
	env := newTestEnv(t)

	product, err := env.service.CreateProduct(context.Background(), CreateProductInput{
		Name:  "Widget",
		Actor: "alice",
	})
	require.NoError(t, err)
	require.Equal(t, 0, product.Quantity)

	var count int64
	require.NoError(t, env.conn.Model(&models.ProductMovement{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestCreateProductRejectsDuplicateName(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateProduct(ctx, CreateProductInput{Name: "Widget", Actor: "alice"})
	require.NoError(t, err)

	_, err = env.service.CreateProduct(ctx, CreateProductInput{Name: "Widget", Actor: "alice"})
	requireCode(t, err, pkgerrors.CodeConflict)
}

func TestDeleteProductBlockedBySalesHistory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.service.CreateProduct(ctx, CreateProductInput{Name: "Widget", Actor: "alice"})
	require.NoError(t, err)

	env.sales.counts[product.Name] = 3
	err = env.service.DeleteProduct(ctx, product.ID)
	requireCode(t, err, pkgerrors.CodeStateConflict)

	env.sales.counts[product.Name] = 0
	require.NoError(t, env.service.DeleteProduct(ctx, product.ID))

	_, err = env.service.GetProduct(ctx, product.ID)
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestUpdateProductDoesNotTouchQuantity(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product, err := env.service.CreateProduct(ctx, CreateProductInput{
		Name:     "Widget",
		Quantity: 7,
		Actor:    "alice",
	})
	require.NoError(t, err)

	newName := "Widget Mk2"
	price := decimal.NewFromFloat(12.50)
	updated, err := env.service.UpdateProduct(ctx, product.ID, UpdateProductInput{
		Name:      &newName,
		SalePrice: &price,
	})
	require.NoError(t, err)
	require.Equal(t, "Widget Mk2", updated.Name)
	require.True(t, updated.SalePrice.Equal(price))
	require.Equal(t, 7, updated.Quantity)
}

func TestSearchProductsMatchesNameAndCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.service.CreateCategory(ctx, "Electronics")
	require.NoError(t, err)

	electronics := "Electronics"
	_, err = env.service.CreateProduct(ctx, CreateProductInput{Name: "Widget", CategoryName: &electronics, Actor: "alice"})
	require.NoError(t, err)
	_, err = env.service.CreateProduct(ctx, CreateProductInput{Name: "Gadget", Actor: "alice"})
	require.NoError(t, err)

	byName, err := env.service.SearchProducts(ctx, "wid")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	require.Equal(t, "Widget", byName[0].Name)

	byCategory, err := env.service.SearchProducts(ctx, "electro")
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	require.Equal(t, "Widget", byCategory[0].Name)

	everything, err := env.service.SearchProducts(ctx, "")
	require.NoError(t, err)
	require.Len(t, everything, 2)
}

func TestDeleteCategoryUnlinksProductsAndThreshold(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	category, err := env.service.CreateCategory(ctx, "Electronics")
	require.NoError(t, err)
	require.NoError(t, env.conn.Create(&models.CategoryMinQuantity{CategoryID: category.ID, MinQuantity: 5}).Error)

	electronics := "Electronics"
	product, err := env.service.CreateProduct(ctx, CreateProductInput{Name: "Widget", CategoryName: &electronics, Actor: "alice"})
	require.NoError(t, err)

	require.NoError(t, env.service.DeleteCategory(ctx, "Electronics"))

	reloaded, err := env.service.GetProduct(ctx, product.ID)
	require.NoError(t, err)
	require.Nil(t, reloaded.CategoryID)

	var thresholds int64
	require.NoError(t, env.conn.Model(&models.CategoryMinQuantity{}).Count(&thresholds).Error)
	require.EqualValues(t, 0, thresholds)

	_, err = env.service.ListProductsByCategory(ctx, "Electronics")
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestCreateProductRequiresExistingCategory(t *testing.T) {
	env := newTestEnv(t)

	ghost := "Ghost"
	_, err := env.service.CreateProduct(context.Background(), CreateProductInput{
		Name:         "Widget",
		CategoryName: &ghost,
		Actor:        "alice",
	})
	requireCode(t, err, pkgerrors.CodeNotFound)
}
