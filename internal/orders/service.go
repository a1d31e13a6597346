package orders

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// CreateOrderLine is one expected line on a new inbound order.
type CreateOrderLine struct {
	ProductName string
	Barcode     *string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// CreateOrderInput is a full inbound order.
type CreateOrderInput struct {
	OrderNumber string
	SupplierID  *uuid.UUID
	Lines       []CreateOrderLine
	Actor       string
}

// ReceivedLine reports how one order line was reconciled.
type ReceivedLine struct {
	ProductName string
	ProductID   uuid.UUID
	Quantity    int
	Created     bool
}

// ReceiveResult summarizes a completed receipt.
type ReceiveResult struct {
	Order *models.PendingOrder
	Lines []ReceivedLine
}

// Service exposes inbound order management.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.PendingOrder, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.PendingOrder, error)
	List(ctx context.Context, status *enums.PendingOrderStatus) ([]models.PendingOrder, error)
	Receive(ctx context.Context, orderID uuid.UUID, actor string) (*ReceiveResult, error)
}

type service struct {
	repo     Repository
	products catalog.ProductRepository
	dbClient *db.Client
	engine   *stock.Engine
	logg     *logger.Logger
}

// NewService constructs an orders service instance.
func NewService(repo Repository, products catalog.ProductRepository, dbClient *db.Client, engine *stock.Engine, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if engine == nil {
		return nil, fmt.Errorf("stock engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:     repo,
		products: products,
		dbClient: dbClient,
		engine:   engine,
		logg:     logg,
	}, nil
}

// Create inserts the order header and its items together.
func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.PendingOrder, error) {
	orderNumber := strings.TrimSpace(input.OrderNumber)
	if orderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number is required")
	}
	if input.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order needs at least one line")
	}
	for _, line := range input.Lines {
		if strings.TrimSpace(line.ProductName) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required on every line")
		}
		if line.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("quantity for %q must be positive", line.ProductName))
		}
		if line.UnitPrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unit price for %q cannot be negative", line.ProductName))
		}
	}

	order := &models.PendingOrder{
		OrderNumber: orderNumber,
		SupplierID:  input.SupplierID,
		Status:      enums.PendingOrderStatusInProgress,
		CreatedBy:   input.Actor,
	}
	for _, line := range input.Lines {
		order.Items = append(order.Items, models.PendingOrderItem{
			ProductName: strings.TrimSpace(line.ProductName),
			Barcode:     line.Barcode,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
	}

	if err := s.repo.Create(ctx, order); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("order %q already exists", orderNumber))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert order")
	}
	return order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.PendingOrder, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
	}
	return order, nil
}

func (s *service) List(ctx context.Context, status *enums.PendingOrderStatus) ([]models.PendingOrder, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid order status %q", *status))
	}
	return s.repo.List(ctx, status)
}

// Receive reconciles a delivery against the order in one transaction. Each
// line is matched to a product by exact name, then barcode; unmatched lines
// auto-create the product. The status flip rides in the same transaction, so
// a receive that fails halfway leaves the order untouched and still
// receivable.
func (s *service) Receive(ctx context.Context, orderID uuid.UUID, actor string) (*ReceiveResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	if actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}

	var result *ReceiveResult
	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		txProducts := s.products.WithTx(tx)

		order, err := txRepo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load order")
		}
		if order.Status != enums.PendingOrderStatusInProgress {
			return pkgerrors.New(
				pkgerrors.CodeStateConflict,
				fmt.Sprintf("order %q is already %s", order.OrderNumber, order.Status),
			)
		}

		result = &ReceiveResult{Order: order}
		for _, item := range order.Items {
			product, created, err := s.matchOrCreate(ctx, tx, txProducts, item)
			if err != nil {
				return err
			}

			orderID := order.ID
			referenceType := enums.MovementReferenceOrder
			if created {
				referenceType = enums.MovementReferenceInitial
			}
			if _, err := s.engine.Apply(ctx, tx, stock.ApplyInput{
				ProductID:     product.ID,
				MovementType:  enums.MovementTypeIn,
				Quantity:      item.Quantity,
				Username:      actor,
				ReferenceID:   &orderID,
				ReferenceType: referenceType,
			}); err != nil {
				return err
			}

			result.Lines = append(result.Lines, ReceivedLine{
				ProductName: product.Name,
				ProductID:   product.ID,
				Quantity:    item.Quantity,
				Created:     created,
			})
		}

		affected, err := txRepo.UpdateStatus(ctx, order.ID, enums.PendingOrderStatusInProgress, enums.PendingOrderStatusReceived, actor)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update order status")
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "order was received concurrently")
		}
		order.Status = enums.PendingOrderStatusReceived
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"order": result.Order.OrderNumber,
		"lines": len(result.Lines),
		"actor": actor,
	}), "order received")

	return result, nil
}

// matchOrCreate finds the product for an order line by exact name, then by
// barcode; when neither matches it creates the product from the line with
// zero stock (the movement that follows books the received quantity).
func (s *service) matchOrCreate(ctx context.Context, tx *gorm.DB, txProducts catalog.ProductRepository, item models.PendingOrderItem) (*models.Product, bool, error) {
	product, err := txProducts.FindByName(ctx, item.ProductName)
	if err == nil {
		return product, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: match product by name")
	}

	if item.Barcode != nil && *item.Barcode != "" {
		product, err = txProducts.FindByBarcode(ctx, *item.Barcode)
		if err == nil {
			return product, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: match product by barcode")
		}
	}

	product = &models.Product{
		Name:          item.ProductName,
		Barcode:       item.Barcode,
		Quantity:      0,
		PurchasePrice: item.UnitPrice,
		SalePrice:     item.UnitPrice,
	}
	if err := txProducts.Create(ctx, product); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, false, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("product %q created concurrently", item.ProductName))
		}
		return nil, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: create product from order line")
	}
	return product, true, nil
}
