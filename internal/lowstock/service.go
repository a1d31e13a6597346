package lowstock

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

type categoryLoader interface {
	FindByName(ctx context.Context, name string) (*models.Category, error)
}

// Service exposes low-stock evaluation, thresholds, and notifications.
type Service interface {
	List(ctx context.Context) ([]Entry, error)
	SetMinQuantity(ctx context.Context, categoryName string, minQuantity int) error
	MinQuantity(ctx context.Context, categoryName string) (int, error)
	EvaluateProduct(ctx context.Context, productID uuid.UUID) (*models.LowStockNotification, error)
	ListNotifications(ctx context.Context, unreadOnly bool) ([]models.LowStockNotification, error)
	MarkNotificationRead(ctx context.Context, id uuid.UUID) error
}

type service struct {
	repo       Repository
	categories categoryLoader
	logg       *logger.Logger
}

// NewService wires a low-stock service.
func NewService(repo Repository, categories categoryLoader, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("lowstock repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category loader required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, categories: categories, logg: logg}, nil
}

func (s *service) List(ctx context.Context) ([]Entry, error) {
	return s.repo.ListLowStock(ctx)
}

func (s *service) SetMinQuantity(ctx context.Context, categoryName string, minQuantity int) error {
	if minQuantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "min quantity cannot be negative")
	}
	category, err := s.requireCategory(ctx, categoryName)
	if err != nil {
		return err
	}
	if err := s.repo.UpsertThreshold(ctx, category.ID, minQuantity); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: upsert threshold")
	}
	return nil
}

func (s *service) MinQuantity(ctx context.Context, categoryName string) (int, error) {
	category, err := s.requireCategory(ctx, categoryName)
	if err != nil {
		return 0, err
	}
	threshold, err := s.repo.FindThreshold(ctx, category.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("category %q has no threshold", categoryName))
		}
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load threshold")
	}
	return threshold.MinQuantity, nil
}

// EvaluateProduct records a notification when the product sits below its
// category threshold. Products without a category or threshold are exempt and
// return nil.
func (s *service) EvaluateProduct(ctx context.Context, productID uuid.UUID) (*models.LowStockNotification, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	entry, err := s.repo.ProductBelowThreshold(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: evaluate threshold")
	}

	notification := &models.LowStockNotification{
		ProductID:   entry.ProductID,
		ProductName: entry.ProductName,
		Quantity:    entry.Quantity,
		MinQuantity: entry.MinQuantity,
	}
	if err := s.repo.CreateNotification(ctx, notification); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert notification")
	}

	s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
		"product":      entry.ProductName,
		"quantity":     entry.Quantity,
		"min_quantity": entry.MinQuantity,
	}), "product below stock threshold")

	return notification, nil
}

func (s *service) ListNotifications(ctx context.Context, unreadOnly bool) ([]models.LowStockNotification, error) {
	return s.repo.ListNotifications(ctx, unreadOnly)
}

func (s *service) MarkNotificationRead(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "notification id is required")
	}
	affected, err := s.repo.MarkNotificationRead(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: mark notification")
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "notification not found or already read")
	}
	return nil
}

func (s *service) requireCategory(ctx context.Context, name string) (*models.Category, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}
	category, err := s.categories.FindByName(ctx, trimmed)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("category %q not found", trimmed))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load category")
	}
	return category, nil
}
