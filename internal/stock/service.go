package stock

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/pkg/db"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

// AdjustInput is a manual stock correction requested by an operator.
type AdjustInput struct {
	ProductID    uuid.UUID
	MovementType enums.MovementType
	Quantity     int
	Username     string
	Comment      string
}

type lowStockEvaluator interface {
	EvaluateProduct(ctx context.Context, productID uuid.UUID) (*models.LowStockNotification, error)
}

// Service exposes manual stock adjustments outside of sales and order flows.
type Service interface {
	Adjust(ctx context.Context, input AdjustInput) (*models.ProductMovement, error)
}

type service struct {
	dbClient *db.Client
	engine   *Engine
	lowstock lowStockEvaluator
	logg     *logger.Logger
}

// NewService constructs a stock adjustment service.
func NewService(dbClient *db.Client, engine *Engine, lowstock lowStockEvaluator, logg *logger.Logger) (Service, error) {
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if engine == nil {
		return nil, fmt.Errorf("stock engine required")
	}
	if lowstock == nil {
		return nil, fmt.Errorf("lowstock evaluator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{dbClient: dbClient, engine: engine, lowstock: lowstock, logg: logg}, nil
}

// Adjust books a Manual movement in its own serializable transaction and runs
// the threshold check after commit.
func (s *service) Adjust(ctx context.Context, input AdjustInput) (*models.ProductMovement, error) {
	var comment *string
	if input.Comment != "" {
		comment = &input.Comment
	}

	var movement *models.ProductMovement
	err := s.dbClient.WithSerializableTx(ctx, func(tx *gorm.DB) error {
		applied, err := s.engine.Apply(ctx, tx, ApplyInput{
			ProductID:     input.ProductID,
			MovementType:  input.MovementType,
			Quantity:      input.Quantity,
			Username:      input.Username,
			ReferenceType: enums.MovementReferenceManual,
			Comment:       comment,
		})
		if err != nil {
			return err
		}
		movement = applied
		return nil
	})
	if err != nil {
		return nil, err
	}

	if input.MovementType == enums.MovementTypeOut {
		if _, err := s.lowstock.EvaluateProduct(ctx, input.ProductID); err != nil {
			s.logg.Error(ctx, "low stock evaluation failed", err)
		}
	}
	return movement, nil
}
