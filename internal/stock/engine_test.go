package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/internal/ledger"
	dbclient "github.com/m4ssya/warehouse-backend/pkg/db"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:stock_" + uuid.NewString() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	if err := conn.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}
	return conn
}

func newTestEngine(t *testing.T, conn *gorm.DB) *Engine {
	t.Helper()
	engine, err := NewEngine(ledger.NewRepository(conn))
	require.NoError(t, err)
	return engine
}

func mustCreateProduct(t *testing.T, conn *gorm.DB, name string, quantity int) *models.Product {
	t.Helper()
	product := &models.Product{ID: uuid.New(), Name: name, Quantity: quantity}
	require.NoError(t, conn.Create(product).Error)
	return product
}

func TestApplyRecordsMovementAndUpdatesQuantity(t *testing.T) {
	conn := openTestDB(t)
	client := dbclient.NewWithConn(conn)
	engine := newTestEngine(t, conn)

	product := mustCreateProduct(t, conn, "Widget", 10)
	ctx := context.Background()

	var movement *models.ProductMovement
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		var applyErr error
		movement, applyErr = engine.Apply(ctx, tx, ApplyInput{
			ProductID:     product.ID,
			MovementType:  enums.MovementTypeOut,
			Quantity:      6,
			Username:      "alice",
			ReferenceType: enums.MovementReferenceSale,
		})
		return applyErr
	})
	require.NoError(t, err)

	require.Equal(t, 10, movement.PreviousQuantity)
	require.Equal(t, 4, movement.NewQuantity)

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", product.ID).Error)
	require.Equal(t, 4, reloaded.Quantity)

	var count int64
	require.NoError(t, conn.Model(&models.ProductMovement{}).Where("product_id = ?", product.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestApplyRejectsOversell(t *testing.T) {
	conn := openTestDB(t)
	client := dbclient.NewWithConn(conn)
	engine := newTestEngine(t, conn)

	product := mustCreateProduct(t, conn, "Widget", 3)
	ctx := context.Background()

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		_, applyErr := engine.Apply(ctx, tx, ApplyInput{
			ProductID:     product.ID,
			MovementType:  enums.MovementTypeOut,
			Quantity:      4,
			Username:      "alice",
			ReferenceType: enums.MovementReferenceSale,
		})
		return applyErr
	})
	require.Error(t, err)

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeInsufficientStock, appErr.Code())

	// rolled back: no movement, quantity untouched
	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", product.ID).Error)
	require.Equal(t, 3, reloaded.Quantity)

	var count int64
	require.NoError(t, conn.Model(&models.ProductMovement{}).Count(&count).Error)
	require.EqualValues(t, 0, count)
}

func TestApplyRejectsUnknownProduct(t *testing.T) {
	conn := openTestDB(t)
	client := dbclient.NewWithConn(conn)
	engine := newTestEngine(t, conn)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		_, applyErr := engine.Apply(context.Background(), tx, ApplyInput{
			ProductID:     uuid.New(),
			MovementType:  enums.MovementTypeIn,
			Quantity:      1,
			Username:      "alice",
			ReferenceType: enums.MovementReferenceManual,
		})
		return applyErr
	})

	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	require.Equal(t, pkgerrors.CodeNotFound, appErr.Code())
}

func TestApplyValidatesInput(t *testing.T) {
	conn := openTestDB(t)
	engine := newTestEngine(t, conn)
	product := mustCreateProduct(t, conn, "Widget", 10)

	cases := []struct {
		name  string
		input ApplyInput
	}{
		{"missing product", ApplyInput{MovementType: enums.MovementTypeIn, Quantity: 1, Username: "a"}},
		{"zero quantity", ApplyInput{ProductID: product.ID, MovementType: enums.MovementTypeIn, Quantity: 0, Username: "a"}},
		{"negative quantity", ApplyInput{ProductID: product.ID, MovementType: enums.MovementTypeIn, Quantity: -5, Username: "a"}},
		{"bad type", ApplyInput{ProductID: product.ID, MovementType: enums.MovementType("SIDEWAYS"), Quantity: 1, Username: "a"}},
		{"missing username", ApplyInput{ProductID: product.ID, MovementType: enums.MovementTypeIn, Quantity: 1}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := engine.Apply(context.Background(), conn, tc.input)
			appErr := pkgerrors.As(err)
			require.NotNil(t, appErr)
			require.Equal(t, pkgerrors.CodeValidation, appErr.Code())
		})
	}
}

func TestApplySequenceReplaysToCurrentQuantity(t *testing.T) {
	conn := openTestDB(t)
	client := dbclient.NewWithConn(conn)
	engine := newTestEngine(t, conn)

	product := mustCreateProduct(t, conn, "Widget", 0)
	ctx := context.Background()

	steps := []ApplyInput{
		{ProductID: product.ID, MovementType: enums.MovementTypeIn, Quantity: 10, Username: "alice", ReferenceType: enums.MovementReferenceInitial},
		{ProductID: product.ID, MovementType: enums.MovementTypeOut, Quantity: 6, Username: "alice", ReferenceType: enums.MovementReferenceSale},
		{ProductID: product.ID, MovementType: enums.MovementTypeIn, Quantity: 20, Username: "bob", ReferenceType: enums.MovementReferenceOrder},
	}
	for _, step := range steps {
		require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
			_, err := engine.Apply(ctx, tx, step)
			return err
		}))
	}

	var reloaded models.Product
	require.NoError(t, conn.First(&reloaded, "id = ?", product.ID).Error)
	require.Equal(t, 24, reloaded.Quantity)

	var movements []models.ProductMovement
	require.NoError(t, conn.Where("product_id = ?", product.ID).Order("created_at ASC").Find(&movements).Error)
	require.Len(t, movements, 3)
	require.Equal(t, reloaded.Quantity, movements[len(movements)-1].NewQuantity)
	for i := 1; i < len(movements); i++ {
		require.Equal(t, movements[i-1].NewQuantity, movements[i].PreviousQuantity)
	}
}
