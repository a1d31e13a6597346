package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/internal/repo"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
)

// HistoryFilter narrows a movement history query. All set fields are combined
// conjunctively.
type HistoryFilter struct {
	ProductID    *uuid.UUID
	MovementType *enums.MovementType
	Username     *string
	Start        *time.Time
	End          *time.Time
}

// HistoryEntry is a movement joined with its product for display.
type HistoryEntry struct {
	models.ProductMovement
	ProductName  string  `gorm:"column:product_name"`
	CategoryName *string `gorm:"column:category_name"`
}

// Repository manages persistence for the movement ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, movement *models.ProductMovement) error
	ListByProductID(ctx context.Context, productID uuid.UUID) ([]models.ProductMovement, error)
	LatestByProductID(ctx context.Context, productID uuid.UUID) (*models.ProductMovement, error)
	History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error)
}

type repository struct {
	base repo.Base
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{base: repo.NewBase(db)}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{base: repo.NewBase(tx)}
}

func (r *repository) Create(ctx context.Context, movement *models.ProductMovement) error {
	return r.base.DB(ctx).Create(movement).Error
}

func (r *repository) ListByProductID(ctx context.Context, productID uuid.UUID) ([]models.ProductMovement, error) {
	var movements []models.ProductMovement
	if err := r.base.DB(ctx).
		Where("product_id = ?", productID).
		Order("created_at ASC").
		Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}

func (r *repository) LatestByProductID(ctx context.Context, productID uuid.UUID) (*models.ProductMovement, error) {
	var movement models.ProductMovement
	err := r.base.DB(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC").
		First(&movement).Error
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *repository) History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error) {
	query := r.base.DB(ctx).
		Model(&models.ProductMovement{}).
		Select("product_movements.*, products.name AS product_name, categories.name AS category_name").
		Joins("JOIN products ON products.id = product_movements.product_id").
		Joins("LEFT JOIN categories ON categories.id = products.category_id")

	if filter.ProductID != nil {
		query = query.Where("product_movements.product_id = ?", *filter.ProductID)
	}
	if filter.MovementType != nil {
		query = query.Where("product_movements.movement_type = ?", *filter.MovementType)
	}
	if filter.Username != nil {
		query = query.Where("product_movements.username = ?", *filter.Username)
	}
	if filter.Start != nil {
		query = query.Where("product_movements.created_at >= ?", *filter.Start)
	}
	if filter.End != nil {
		query = query.Where("product_movements.created_at <= ?", *filter.End)
	}

	var entries []HistoryEntry
	if err := query.Order("product_movements.created_at DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
