package cron

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/internal/lowstock"
	"github.com/m4ssya/warehouse-backend/internal/sales"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

func openJobTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := "file:cron_" + uuid.NewString() + "?mode=memory&cache=shared"
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

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cron-test", Level: zerolog.ErrorLevel, Output: io.Discard})
}

func TestSalesRetentionJobPurgesOldSales(t *testing.T) {
	conn := openJobTestDB(t)
	now := time.Now().UTC()

	product := &models.Product{ID: uuid.New(), Name: "Widget", Quantity: 10}
	require.NoError(t, conn.Create(product).Error)

	mkSale := func(soldAt time.Time) {
		require.NoError(t, conn.Create(&models.SaleRecord{
			ProductName: "Widget", Quantity: 1,
			UnitPrice: decimal.NewFromInt(9), TotalPrice: decimal.NewFromInt(9),
			Username: "alice", SoldAt: soldAt,
		}).Error)
	}
	mkSale(now.AddDate(-2, 0, 0))
	mkSale(now.AddDate(0, 0, -400))
	mkSale(now.AddDate(0, 0, -10))

	job, err := NewSalesRetentionJob(SalesRetentionJobParams{
		Logger:     testLogger(),
		Repository: sales.NewRepository(conn),
	})
	require.NoError(t, err)
	require.Equal(t, "sales-retention", job.Name())
	require.NoError(t, job.Run(context.Background()))

	var remaining int64
	require.NoError(t, conn.Model(&models.SaleRecord{}).Count(&remaining).Error)
	require.EqualValues(t, 1, remaining)
}

func TestSalesRetentionJobHonorsCustomRetention(t *testing.T) {
	conn := openJobTestDB(t)
	now := time.Now().UTC()

	product := &models.Product{ID: uuid.New(), Name: "Widget", Quantity: 10}
	require.NoError(t, conn.Create(product).Error)
	require.NoError(t, conn.Create(&models.SaleRecord{
		ProductName: "Widget", Quantity: 1,
		UnitPrice: decimal.NewFromInt(9), TotalPrice: decimal.NewFromInt(9),
		Username: "alice", SoldAt: now.AddDate(0, 0, -10),
	}).Error)

	job, err := NewSalesRetentionJob(SalesRetentionJobParams{
		Logger:     testLogger(),
		Repository: sales.NewRepository(conn),
		Retention:  7,
	})
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))

	var remaining int64
	require.NoError(t, conn.Model(&models.SaleRecord{}).Count(&remaining).Error)
	require.EqualValues(t, 0, remaining)
}

func TestNotificationCleanupJobKeepsUnread(t *testing.T) {
	conn := openJobTestDB(t)
	now := time.Now().UTC()
	old := now.AddDate(0, 0, -60)

	product := &models.Product{ID: uuid.New(), Name: "Widget", Quantity: 1}
	require.NoError(t, conn.Create(product).Error)

	acknowledged := &models.LowStockNotification{
		ProductName: "Widget",
		Quantity: 1, MinQuantity: 5, AcknowledgedAt: &old,
	}
	unread := &models.LowStockNotification{
		ProductName: "Widget",
		Quantity: 1, MinQuantity: 5,
	}
	require.NoError(t, conn.Create(acknowledged).Error)
	require.NoError(t, conn.Create(unread).Error)

	job, err := NewNotificationCleanupJob(NotificationCleanupJobParams{
		Logger:     testLogger(),
		Repository: lowstock.NewRepository(conn),
	})
	require.NoError(t, err)
	require.Equal(t, "notification-cleanup", job.Name())
	require.NoError(t, job.Run(context.Background()))

	var remaining []models.LowStockNotification
	require.NoError(t, conn.Find(&remaining).Error)
	require.Len(t, remaining, 1)
	require.Nil(t, remaining[0].AcknowledgedAt)
}
