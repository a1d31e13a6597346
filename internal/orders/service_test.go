package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/internal/catalog"
	"github.com/m4ssya/warehouse-backend/internal/ledger"
	"github.com/m4ssya/warehouse-backend/internal/stock"
	dbclient "github.com/m4ssya/warehouse-backend/pkg/db"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

type testEnv struct {
	conn    *gorm.DB
	service Service
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "test", Level: zerolog.ErrorLevel, Output: io.Discard})
	engine, err := stock.NewEngine(ledger.NewRepository(conn))
	require.NoError(t, err)

	svc, err := NewService(
		NewRepository(conn),
		catalog.NewProductRepository(conn),
		dbclient.NewWithConn(conn),
		engine,
		logg,
	)
	require.NoError(t, err)

	return &testEnv{conn: conn, service: svc}
}

func strPtr(s string) *string { return &s }

func TestCreateOrderPersistsHeaderAndItems(t *testing.T) {
	env := newTestEnv(t)

	order, err := env.service.Create(context.Background(), CreateOrderInput{
		OrderNumber: "PO-1001",
		Actor:       "alice",
		Lines: []CreateOrderLine{
			{ProductName: "Widget", Quantity: 20, UnitPrice: decimal.NewFromInt(3)},
			{ProductName: "Gadget", Barcode: strPtr("4601234567890"), Quantity: 5, UnitPrice: decimal.NewFromInt(8)},
		},
	})
	require.NoError(t, err)
	require.Equal(t, enums.PendingOrderStatusInProgress, order.Status)

	reloaded, err := env.service.Get(context.Background(), order.ID)
	require.NoError(t, err)
	require.Equal(t, "PO-1001", reloaded.OrderNumber)
	require.Len(t, reloaded.Items, 2)
}

func TestCreateOrderRejectsDuplicateNumber(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	input := CreateOrderInput{
		OrderNumber: "PO-1001",
		Actor:       "alice",
		Lines:       []CreateOrderLine{{ProductName: "Widget", Quantity: 1, UnitPrice: decimal.NewFromInt(3)}},
	}
	_, err := env.service.Create(ctx, input)
	require.NoError(t, err)

	_, err = env.service.Create(ctx, input)
	require.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(err).Code())
}

func TestCreateOrderValidatesLines(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreateOrderInput
	}{
		{"missing number", CreateOrderInput{Actor: "alice", Lines: []CreateOrderLine{{ProductName: "Widget", Quantity: 1}}}},
		{"no lines", CreateOrderInput{OrderNumber: "PO-1", Actor: "alice"}},
		{"zero quantity", CreateOrderInput{OrderNumber: "PO-1", Actor: "alice", Lines: []CreateOrderLine{{ProductName: "Widget", Quantity: 0}}}},
		{"blank product", CreateOrderInput{OrderNumber: "PO-1", Actor: "alice", Lines: []CreateOrderLine{{ProductName: "  ", Quantity: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := env.service.Create(ctx, tc.input)
			require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
		})
	}
}

func TestReceiveBooksStockForKnownProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := &models.Product{ID: uuid.New(), Name: "Widget", Quantity: 4}
	require.NoError(t, env.conn.Create(product).Error)

	order, err := env.service.Create(ctx, CreateOrderInput{
		OrderNumber: "PO-1001",
		Actor:       "alice",
		Lines:       []CreateOrderLine{{ProductName: "Widget", Quantity: 20, UnitPrice: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)

	result, err := env.service.Receive(ctx, order.ID, "bob")
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	require.False(t, result.Lines[0].Created)

	var reloaded models.Product
	require.NoError(t, env.conn.First(&reloaded, "id = ?", product.ID).Error)
	require.Equal(t, 24, reloaded.Quantity)

	var movement models.ProductMovement
	require.NoError(t, env.conn.First(&movement, "product_id = ?", product.ID).Error)
	require.Equal(t, enums.MovementTypeIn, movement.MovementType)
	require.Equal(t, enums.MovementReferenceOrder, movement.ReferenceType)
	require.NotNil(t, movement.ReferenceID)
	require.Equal(t, order.ID, *movement.ReferenceID)
	require.Equal(t, 4, movement.PreviousQuantity)
	require.Equal(t, 24, movement.NewQuantity)

	var header models.PendingOrder
	require.NoError(t, env.conn.First(&header, "id = ?", order.ID).Error)
	require.Equal(t, enums.PendingOrderStatusReceived, header.Status)
	require.NotNil(t, header.ReceivedBy)
	require.Equal(t, "bob", *header.ReceivedBy)
	require.NotNil(t, header.ReceivedAt)
}

func TestReceiveAutoCreatesUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	order, err := env.service.Create(ctx, CreateOrderInput{
		OrderNumber: "PO-1002",
		Actor:       "alice",
		Lines:       []CreateOrderLine{{ProductName: "Sprocket", Barcode: strPtr("4600000000001"), Quantity: 12, UnitPrice: decimal.NewFromInt(5)}},
	})
	require.NoError(t, err)

	result, err := env.service.Receive(ctx, order.ID, "bob")
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)
	require.True(t, result.Lines[0].Created)

	var product models.Product
	require.NoError(t, env.conn.First(&product, "name = ?", "Sprocket").Error)
	require.Equal(t, 12, product.Quantity)
	require.NotNil(t, product.Barcode)
	require.Equal(t, "4600000000001", *product.Barcode)
	require.True(t, product.PurchasePrice.Equal(decimal.NewFromInt(5)))

	var movement models.ProductMovement
	require.NoError(t, env.conn.First(&movement, "product_id = ?", product.ID).Error)
	require.Equal(t, enums.MovementReferenceInitial, movement.ReferenceType)
	require.Equal(t, 0, movement.PreviousQuantity)
	require.Equal(t, 12, movement.NewQuantity)
}

func TestReceiveMatchesByBarcodeWhenNameDiffers(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := &models.Product{ID: uuid.New(), Name: "Widget Mk2", Barcode: strPtr("4601234567890"), Quantity: 1}
	require.NoError(t, env.conn.Create(product).Error)

	order, err := env.service.Create(ctx, CreateOrderInput{
		OrderNumber: "PO-1003",
		Actor:       "alice",
		Lines:       []CreateOrderLine{{ProductName: "Widget v2", Barcode: strPtr("4601234567890"), Quantity: 6, UnitPrice: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)

	result, err := env.service.Receive(ctx, order.ID, "bob")
	require.NoError(t, err)
	require.False(t, result.Lines[0].Created)
	require.Equal(t, product.ID, result.Lines[0].ProductID)

	var reloaded models.Product
	require.NoError(t, env.conn.First(&reloaded, "id = ?", product.ID).Error)
	require.Equal(t, 7, reloaded.Quantity)
}

func TestReceiveTwiceIsRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	product := &models.Product{ID: uuid.New(), Name: "Widget", Quantity: 4}
	require.NoError(t, env.conn.Create(product).Error)

	order, err := env.service.Create(ctx, CreateOrderInput{
		OrderNumber: "PO-1004",
		Actor:       "alice",
		Lines:       []CreateOrderLine{{ProductName: "Widget", Quantity: 20, UnitPrice: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)

	_, err = env.service.Receive(ctx, order.ID, "bob")
	require.NoError(t, err)

	_, err = env.service.Receive(ctx, order.ID, "bob")
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())

	// quantity applied exactly once
	var reloaded models.Product
	require.NoError(t, env.conn.First(&reloaded, "id = ?", product.ID).Error)
	require.Equal(t, 24, reloaded.Quantity)

	var movementCount int64
	require.NoError(t, env.conn.Model(&models.ProductMovement{}).Count(&movementCount).Error)
	require.EqualValues(t, 1, movementCount)
}

func TestReceiveUnknownOrder(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.service.Receive(context.Background(), uuid.New(), "bob")
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())
}

func TestListFiltersByStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.service.Create(ctx, CreateOrderInput{
		OrderNumber: "PO-1005",
		Actor:       "alice",
		Lines:       []CreateOrderLine{{ProductName: "Widget", Quantity: 2, UnitPrice: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)
	_, err = env.service.Create(ctx, CreateOrderInput{
		OrderNumber: "PO-1006",
		Actor:       "alice",
		Lines:       []CreateOrderLine{{ProductName: "Gadget", Quantity: 2, UnitPrice: decimal.NewFromInt(3)}},
	})
	require.NoError(t, err)

	_, err = env.service.Receive(ctx, first.ID, "bob")
	require.NoError(t, err)

	open := enums.PendingOrderStatusInProgress
	orders, err := env.service.List(ctx, &open)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	require.Equal(t, "PO-1006", orders[0].OrderNumber)

	all, err := env.service.List(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 2)
}
