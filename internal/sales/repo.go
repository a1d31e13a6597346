package sales

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/pkg/db/models"
)

// HistoryFilter narrows a sales history query. All set fields are combined
// conjunctively.
type HistoryFilter struct {
	ProductName *string
	Username    *string
	Start       *time.Time
	End         *time.Time
}

// TopProduct aggregates units sold and revenue for one product.
type TopProduct struct {
	ProductName string          `gorm:"column:product_name"`
	UnitsSold   int             `gorm:"column:units_sold"`
	Revenue     decimal.Decimal `gorm:"column:revenue"`
}

// Repository manages persistence for sale records.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, sale *models.SaleRecord) error
	CountByProductName(ctx context.Context, productName string) (int64, error)
	History(ctx context.Context, filter HistoryFilter) ([]models.SaleRecord, error)
	TopProducts(ctx context.Context, since time.Time, limit int) ([]TopProduct, error)
	FirstSaleDate(ctx context.Context) (*time.Time, error)
	DeleteSoldBefore(ctx context.Context, cutoff time.Time) (int64, error)
	DeleteByUsername(ctx context.Context, username string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a sales repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, sale *models.SaleRecord) error {
	return r.db.WithContext(ctx).Create(sale).Error
}

func (r *repository) CountByProductName(ctx context.Context, productName string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SaleRecord{}).
		Where("product_name = ?", productName).
		Count(&count).Error
	return count, err
}

func (r *repository) History(ctx context.Context, filter HistoryFilter) ([]models.SaleRecord, error) {
	query := r.db.WithContext(ctx).Model(&models.SaleRecord{})

	if filter.ProductName != nil {
		query = query.Where("product_name = ?", *filter.ProductName)
	}
	if filter.Username != nil {
		query = query.Where("username = ?", *filter.Username)
	}
	if filter.Start != nil {
		query = query.Where("sold_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("sold_at <= ?", *filter.End)
	}

	var sales []models.SaleRecord
	if err := query.Order("sold_at DESC").Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func (r *repository) TopProducts(ctx context.Context, since time.Time, limit int) ([]TopProduct, error) {
	var tops []TopProduct
	err := r.db.WithContext(ctx).
		Model(&models.SaleRecord{}).
		Select("product_name, SUM(quantity) AS units_sold, SUM(total_price) AS revenue").
		Where("sold_at >= ?", since).
		Group("product_name").
		Order("units_sold DESC").
		Limit(limit).
		Find(&tops).Error
	if err != nil {
		return nil, err
	}
	return tops, nil
}

func (r *repository) FirstSaleDate(ctx context.Context) (*time.Time, error) {
	var sale models.SaleRecord
	err := r.db.WithContext(ctx).
		Order("sold_at ASC").
		First(&sale).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sale.SoldAt, nil
}

func (r *repository) DeleteSoldBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("sold_at < ?", cutoff).
		Delete(&models.SaleRecord{})
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteByUsername(ctx context.Context, username string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("username = ?", username).
		Delete(&models.SaleRecord{})
	return result.RowsAffected, result.Error
}
