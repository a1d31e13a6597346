package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/internal/stock"
	"github.com/m4ssya/warehouse-backend/pkg/db"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
)

// Service exposes product and category management operations.
type Service interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error)
	GetProductByName(ctx context.Context, name string) (*models.Product, error)
	ListProducts(ctx context.Context) ([]models.Product, error)
	SearchProducts(ctx context.Context, query string) ([]models.Product, error)
	ListProductsByCategory(ctx context.Context, categoryName string) ([]models.Product, error)

	CreateCategory(ctx context.Context, name string) (*models.Category, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	DeleteCategory(ctx context.Context, name string) error
}

// CreateProductInput holds the validated payload to create a product.
type CreateProductInput struct {
	Name          string
	Barcode       *string
	CategoryName  *string
	SupplierID    *uuid.UUID
	Quantity      int
	PurchasePrice decimal.Decimal
	SalePrice     decimal.Decimal
	Description   *string
	Actor         string
}

// UpdateProductInput holds optional mutation values for a product. Quantity is
// deliberately absent: stock changes go through movements only.
type UpdateProductInput struct {
	Name          *string
	Barcode       *string
	CategoryName  *string
	SupplierID    *uuid.UUID
	PurchasePrice *decimal.Decimal
	SalePrice     *decimal.Decimal
	Description   *string
}

type saleChecker interface {
	CountByProductName(ctx context.Context, productName string) (int64, error)
}

type service struct {
	products   ProductRepository
	categories CategoryRepository
	dbClient   *db.Client
	engine     *stock.Engine
	sales      saleChecker
}

// NewService constructs a catalog service instance.
func NewService(products ProductRepository, categories CategoryRepository, dbClient *db.Client, engine *stock.Engine, sales saleChecker) (Service, error) {
	if products == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if engine == nil {
		return nil, fmt.Errorf("stock engine required")
	}
	if sales == nil {
		return nil, fmt.Errorf("sale checker required")
	}
	return &service{
		products:   products,
		categories: categories,
		dbClient:   dbClient,
		engine:     engine,
		sales:      sales,
	}, nil
}

// CreateProduct inserts the product and, when it opens with stock on hand,
// records the opening balance as an Initial movement.
func (s *service) CreateProduct(ctx context.Context, input CreateProductInput) (*models.Product, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	if input.Quantity < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "opening quantity cannot be negative")
	}
	if input.PurchasePrice.IsNegative() || input.SalePrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "prices cannot be negative")
	}
	if input.Actor == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "actor is required")
	}

	var categoryID *uuid.UUID
	if input.CategoryName != nil {
		category, err := s.requireCategory(ctx, *input.CategoryName)
		if err != nil {
			return nil, err
		}
		categoryID = &category.ID
	}

	product := &models.Product{
		Name:          name,
		Barcode:       normalizeBarcode(input.Barcode),
		CategoryID:    categoryID,
		SupplierID:    input.SupplierID,
		Quantity:      0,
		PurchasePrice: input.PurchasePrice,
		SalePrice:     input.SalePrice,
		Description:   input.Description,
	}

	if err := s.dbClient.WithSerializableTx(ctx, func(tx *gorm.DB) error {
		if err := s.products.WithTx(tx).Create(ctx, product); err != nil {
			if db.IsUniqueViolation(err, "") {
				return pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("product %q already exists", name))
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert product")
		}

		if input.Quantity > 0 {
			if _, err := s.engine.Apply(ctx, tx, stock.ApplyInput{
				ProductID:     product.ID,
				MovementType:  enums.MovementTypeIn,
				Quantity:      input.Quantity,
				Username:      input.Actor,
				ReferenceType: enums.MovementReferenceInitial,
			}); err != nil {
				return err
			}
			product.Quantity = input.Quantity
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return product, nil
}

func (s *service) UpdateProduct(ctx context.Context, productID uuid.UUID, input UpdateProductInput) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	if _, err := s.loadProduct(ctx, productID); err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name cannot be empty")
		}
		fields["name"] = name
	}
	if input.Barcode != nil {
		fields["barcode"] = normalizeBarcode(input.Barcode)
	}
	if input.CategoryName != nil {
		if *input.CategoryName == "" {
			fields["category_id"] = nil
		} else {
			category, err := s.requireCategory(ctx, *input.CategoryName)
			if err != nil {
				return nil, err
			}
			fields["category_id"] = category.ID
		}
	}
	if input.SupplierID != nil {
		fields["supplier_id"] = *input.SupplierID
	}
	if input.PurchasePrice != nil {
		if input.PurchasePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase price cannot be negative")
		}
		fields["purchase_price"] = *input.PurchasePrice
	}
	if input.SalePrice != nil {
		if input.SalePrice.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price cannot be negative")
		}
		fields["sale_price"] = *input.SalePrice
	}
	if input.Description != nil {
		fields["description"] = *input.Description
	}

	if len(fields) > 0 {
		if err := s.products.UpdateFields(ctx, productID, fields); err != nil {
			if db.IsUniqueViolation(err, "") {
				return nil, pkgerrors.New(pkgerrors.CodeConflict, "product name or barcode already in use")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update product")
		}
	}

	return s.loadProduct(ctx, productID)
}

// DeleteProduct removes the product unless sales history mentions its name
// (sale rows carry no product FK). The ledger keeps its movement rows; they
// are the audit trail.
func (s *service) DeleteProduct(ctx context.Context, productID uuid.UUID) error {
	if productID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return err
	}

	saleCount, err := s.sales.CountByProductName(ctx, product.Name)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: count sales")
	}
	if saleCount > 0 {
		return pkgerrors.New(
			pkgerrors.CodeStateConflict,
			fmt.Sprintf("product %q has %d sale records and cannot be deleted", product.Name, saleCount),
		)
	}

	if err := s.products.Delete(ctx, productID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete product")
	}
	return nil
}

func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.loadProduct(ctx, productID)
}

func (s *service) GetProductByName(ctx context.Context, name string) (*models.Product, error) {
	if strings.TrimSpace(name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product name is required")
	}
	product, err := s.products.FindByName(ctx, name)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %q not found", name))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
}

func (s *service) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.products.List(ctx)
}

func (s *service) SearchProducts(ctx context.Context, query string) ([]models.Product, error) {
	if strings.TrimSpace(query) == "" {
		return s.products.List(ctx)
	}
	return s.products.Search(ctx, query)
}

func (s *service) ListProductsByCategory(ctx context.Context, categoryName string) ([]models.Product, error) {
	category, err := s.requireCategory(ctx, categoryName)
	if err != nil {
		return nil, err
	}
	return s.products.ListByCategoryID(ctx, category.ID)
}

func (s *service) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category name is required")
	}

	category := &models.Category{Name: trimmed}
	if err := s.categories.Create(ctx, category); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("category %q already exists", trimmed))
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert category")
	}
	return category, nil
}

func (s *service) ListCategories(ctx context.Context) ([]models.Category, error) {
	return s.categories.List(ctx)
}

// DeleteCategory removes the category along with its threshold and detaches
// its products, all in one transaction.
func (s *service) DeleteCategory(ctx context.Context, name string) error {
	category, err := s.requireCategory(ctx, name)
	if err != nil {
		return err
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txCategories := s.categories.WithTx(tx)
		if err := txCategories.UnlinkProducts(ctx, category.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: unlink products")
		}
		if err := txCategories.DeleteThreshold(ctx, category.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete threshold")
		}
		if err := txCategories.Delete(ctx, category.ID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete category")
		}
		return nil
	})
}

func (s *service) loadProduct(ctx context.Context, productID uuid.UUID) (*models.Product, error) {
	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}
	return product, nil
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

func normalizeBarcode(barcode *string) *string {
	if barcode == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*barcode)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
