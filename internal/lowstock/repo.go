package lowstock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/m4ssya/warehouse-backend/pkg/db/models"
)

// Entry is a product currently below its category threshold.
type Entry struct {
	ProductID    uuid.UUID `gorm:"column:product_id"`
	ProductName  string    `gorm:"column:product_name"`
	CategoryName string    `gorm:"column:category_name"`
	Quantity     int       `gorm:"column:quantity"`
	MinQuantity  int       `gorm:"column:min_quantity"`
}

// Repository manages thresholds and low-stock notifications.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	ListLowStock(ctx context.Context) ([]Entry, error)
	ProductBelowThreshold(ctx context.Context, productID uuid.UUID) (*Entry, error)
	UpsertThreshold(ctx context.Context, categoryID uuid.UUID, minQuantity int) error
	FindThreshold(ctx context.Context, categoryID uuid.UUID) (*models.CategoryMinQuantity, error)
	CreateNotification(ctx context.Context, notification *models.LowStockNotification) error
	ListNotifications(ctx context.Context, unreadOnly bool) ([]models.LowStockNotification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) (int64, error)
	DeleteAcknowledgedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a low-stock repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// ListLowStock inner-joins products to their category threshold, so products
// in categories without a threshold are never reported.
func (r *repository) ListLowStock(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("products.id AS product_id, products.name AS product_name, categories.name AS category_name, products.quantity AS quantity, category_min_quantities.min_quantity AS min_quantity").
		Joins("JOIN categories ON categories.id = products.category_id").
		Joins("JOIN category_min_quantities ON category_min_quantities.category_id = products.category_id").
		Where("products.quantity < category_min_quantities.min_quantity").
		Order("products.name ASC").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// ProductBelowThreshold fires at or below the minimum, so a sale that lands
// exactly on the threshold still raises a notification. The report view in
// ListLowStock stays strictly below.
func (r *repository) ProductBelowThreshold(ctx context.Context, productID uuid.UUID) (*Entry, error) {
	var entry Entry
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("products.id AS product_id, products.name AS product_name, categories.name AS category_name, products.quantity AS quantity, category_min_quantities.min_quantity AS min_quantity").
		Joins("JOIN categories ON categories.id = products.category_id").
		Joins("JOIN category_min_quantities ON category_min_quantities.category_id = products.category_id").
		Where("products.id = ?", productID).
		Where("products.quantity <= category_min_quantities.min_quantity").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) UpsertThreshold(ctx context.Context, categoryID uuid.UUID, minQuantity int) error {
	threshold := &models.CategoryMinQuantity{
		CategoryID:  categoryID,
		MinQuantity: minQuantity,
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "category_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"min_quantity", "updated_at"}),
		}).
		Create(threshold).Error
}

func (r *repository) FindThreshold(ctx context.Context, categoryID uuid.UUID) (*models.CategoryMinQuantity, error) {
	var threshold models.CategoryMinQuantity
	if err := r.db.WithContext(ctx).
		Where("category_id = ?", categoryID).
		First(&threshold).Error; err != nil {
		return nil, err
	}
	return &threshold, nil
}

func (r *repository) CreateNotification(ctx context.Context, notification *models.LowStockNotification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *repository) ListNotifications(ctx context.Context, unreadOnly bool) ([]models.LowStockNotification, error) {
	query := r.db.WithContext(ctx).Model(&models.LowStockNotification{})
	if unreadOnly {
		query = query.Where("acknowledged_at IS NULL")
	}
	var notifications []models.LowStockNotification
	if err := query.Order("created_at DESC").Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *repository) MarkNotificationRead(ctx context.Context, id uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.LowStockNotification{}).
		Where("id = ? AND acknowledged_at IS NULL", id).
		Update("acknowledged_at", gorm.Expr("CURRENT_TIMESTAMP"))
	return result.RowsAffected, result.Error
}

func (r *repository) DeleteAcknowledgedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("acknowledged_at IS NOT NULL AND acknowledged_at < ?", cutoff).
		Delete(&models.LowStockNotification{})
	return result.RowsAffected, result.Error
}
