package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/internal/catalog"
	"github.com/m4ssya/warehouse-backend/internal/stock"
	"github.com/m4ssya/warehouse-backend/pkg/db"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

// CartLine is one requested sale line. UnitPrice overrides the product's sale
// price when set.
type CartLine struct {
	ProductName string
	Quantity    int
	UnitPrice   *decimal.Decimal
}

// CheckoutInput is a full cart to sell atomically.
type CheckoutInput struct {
	Lines []CartLine
	Actor string
}

// CheckoutResult reports the committed sale rows and the charged total.
type CheckoutResult struct {
	Sales []models.SaleRecord
	Total decimal.Decimal
}

type lowStockEvaluator interface {
	EvaluateProduct(ctx context.Context, productID uuid.UUID) (*models.LowStockNotification, error)
}

// Service exposes sale processing and history queries.
type Service interface {
	Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error)
	History(ctx context.Context, filter HistoryFilter) ([]models.SaleRecord, error)
	HistoryByPeriod(ctx context.Context, period string, now time.Time) ([]models.SaleRecord, error)
	TopProducts(ctx context.Context, since time.Time, limit int) ([]TopProduct, error)
	FirstSaleDate(ctx context.Context) (*time.Time, error)
}

type service struct {
	repo     Repository
	products catalog.ProductRepository
	dbClient *db.Client
	engine   *stock.Engine
	lowstock lowStockEvaluator
	logg     *logger.Logger
}

// NewService constructs a sales service instance.
func NewService(repo Repository, products catalog.ProductRepository, dbClient *db.Client, engine *stock.Engine, lowstock lowStockEvaluator, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sales repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
	}
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
	return &service{
		repo:     repo,
		products: products,
		dbClient: dbClient,
		engine:   engine,
		lowstock: lowstock,
		logg:     logg,
	}, nil
}

// Checkout sells the whole cart or nothing. Every line is validated before
// any stock moves, so a cart with one valid and one short line leaves the
// database untouched.
func (s *service) Checkout(ctx context.Context, input CheckoutInput) (*CheckoutResult, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if input.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	for _, line := range input.Lines {
		if strings.TrimSpace(line.ProductName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required on every line")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity for %q must be positive", line.ProductName))
		}
		if line.UnitPrice != nil && line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unit price for %q cannot be negative", line.ProductName))
		}
	}

	result := &CheckoutResult{Total: decimal.Zero}
	var touched []uuid.UUID

	err := s.dbClient.WithSerializableTx(ctx, func(tx *gorm.DB) error {
		txProducts := s.products.WithTx(tx)
		txRepo := s.repo.WithTx(tx)

		// validate the whole cart before moving anything
		loaded := make([]*models.Product, len(input.Lines))
		for i, line := range input.Lines {
			product, err := txProducts.FindByName(ctx, line.ProductName)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %q not found", line.ProductName))
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
			}
			if product.Quantity < line.Quantity {
				return pkgerrors.New(
					pkgerrors.CodeInsufficientStock,
					fmt.Sprintf("insufficient stock for %q: have %d, need %d", product.Name, product.Quantity, line.Quantity),
				).WithDetails(map[string]any{
					"product":   product.Name,
					"available": product.Quantity,
					"requested": line.Quantity,
				})
			}
			loaded[i] = product
		}

		for i, line := range input.Lines {
			product := loaded[i]

			unitPrice := product.SalePrice
			if line.UnitPrice != nil {
				unitPrice = *line.UnitPrice
			}

			sale := &models.SaleRecord{
				ProductName: product.Name,
				Quantity:    line.Quantity,
				UnitPrice:   unitPrice,
				TotalPrice:  unitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))),
				Username:    input.Actor,
			}
			if err := txRepo.Create(ctx, sale); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert sale")
			}

			saleID := sale.ID
			if _, err := s.engine.Apply(ctx, tx, stock.ApplyInput{
				ProductID:     product.ID,
				MovementType:  enums.MovementTypeOut,
				Quantity:      line.Quantity,
				Username:      input.Actor,
				ReferenceID:   &saleID,
				ReferenceType: enums.MovementReferenceSale,
			}); err != nil {
				return err
			}

			result.Sales = append(result.Sales, *sale)
			result.Total = result.Total.Add(sale.TotalPrice)
			touched = append(touched, product.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// threshold checks run after commit; a failure here never unwinds the sale
	for _, productID := range touched {
		if _, err := s.lowstock.EvaluateProduct(ctx, productID); err != nil {
			s.logg.Error(ctx, "low stock evaluation failed", err)
		}
	}

	return result, nil
}

func (s *service) History(ctx context.Context, filter HistoryFilter) ([]models.SaleRecord, error) {
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end must not precede start")
	}
	return s.repo.History(ctx, filter)
}

// HistoryByPeriod returns sales in the trailing day, week, or month.
func (s *service) HistoryByPeriod(ctx context.Context, period string, now time.Time) ([]models.SaleRecord, error) {
	var start time.Time
	switch strings.ToLower(period) {
	case "day":
		start = now.AddDate(0, 0, -1)
	case "week":
		start = now.AddDate(0, 0, -7)
	case "month":
		start = now.AddDate(0, -1, 0)
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid period %q (want day, week, or month)", period))
	}
	return s.repo.History(ctx, HistoryFilter{Start: &start, End: &now})
}

func (s *service) TopProducts(ctx context.Context, since time.Time, limit int) ([]TopProduct, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.repo.TopProducts(ctx, since, limit)
}

func (s *service) FirstSaleDate(ctx context.Context) (*time.Time, error) {
	return s.repo.FirstSaleDate(ctx)
}
