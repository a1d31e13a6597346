package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
)

// Repository manages persistence for pending orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.PendingOrder) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.PendingOrder, error)
	List(ctx context.Context, status *enums.PendingOrderStatus) ([]models.PendingOrder, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.PendingOrderStatus, receivedBy string) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.PendingOrder) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.PendingOrder, error) {
	var order models.PendingOrder
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Supplier").
		Where("id = ?", id).
		First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) List(ctx context.Context, status *enums.PendingOrderStatus) ([]models.PendingOrder, error) {
	query := r.db.WithContext(ctx).
		Preload("Items").
		Preload("Supplier")
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var orders []models.PendingOrder
	if err := query.Order("created_at DESC").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatus flips the order status guarded on the expected current status,
// so a concurrent receive cannot apply twice.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to enums.PendingOrderStatus, receivedBy string) (int64, error) {
	fields := map[string]any{"status": to}
	if to == enums.PendingOrderStatusReceived {
		fields["received_by"] = receivedBy
		fields["received_at"] = gorm.Expr("CURRENT_TIMESTAMP")
	}
	result := r.db.WithContext(ctx).
		Model(&models.PendingOrder{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	return result.RowsAffected, result.Error
}
