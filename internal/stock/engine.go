package stock

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/m4ssya/warehouse-backend/internal/ledger"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
)

// ApplyInput describes one stock mutation.
type ApplyInput struct {
	ProductID     uuid.UUID
	MovementType  enums.MovementType
	Quantity      int
	Username      string
	ReferenceID   *uuid.UUID
	ReferenceType enums.MovementReference
	Comment       *string
}

// Engine applies stock mutations. Every mutation runs inside the caller's
// transaction and produces exactly one ledger row whose prev/new snapshot
// matches the product update, so the two tables never diverge.
type Engine struct {
	ledgerRepo ledger.Repository
}

// NewEngine constructs a stock engine.
func NewEngine(ledgerRepo ledger.Repository) (*Engine, error) {
	if ledgerRepo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &Engine{ledgerRepo: ledgerRepo}, nil
}

// Apply mutates the product quantity inside tx and records the movement.
// The product update carries a compare-and-swap guard on the previously read
// quantity; a concurrent writer makes the guard miss and the caller's
// transaction rolls back.
func (e *Engine) Apply(ctx context.Context, tx *gorm.DB, input ApplyInput) (*models.ProductMovement, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction is required")
	}
	if input.ProductID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !input.MovementType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", input.MovementType))
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.Username == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}
	referenceType := input.ReferenceType
	if referenceType == "" {
		referenceType = enums.MovementReferenceManual
	}
	if !referenceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid reference type %q", referenceType))
	}

	var product models.Product
	if err := tx.WithContext(ctx).Where("id = ?", input.ProductID).First(&product).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load product")
	}

	previous := product.Quantity
	next := previous
	switch input.MovementType {
	case enums.MovementTypeIn:
		next += input.Quantity
	case enums.MovementTypeOut:
		next -= input.Quantity
	}
	if next < 0 {
		return nil, pkgerrors.New(
			pkgerrors.CodeInsufficientStock,
			fmt.Sprintf("insufficient stock for %q: have %d, need %d", product.Name, previous, input.Quantity),
		)
	}

	movement := &models.ProductMovement{
		ProductID:        input.ProductID,
		MovementType:     input.MovementType,
		Quantity:         input.Quantity,
		PreviousQuantity: previous,
		NewQuantity:      next,
		Username:         input.Username,
		ReferenceID:      input.ReferenceID,
		ReferenceType:    referenceType,
		Comment:          input.Comment,
	}
	if err := ledger.Validate(movement); err != nil {
		return nil, err
	}
	if err := e.ledgerRepo.WithTx(tx).Create(ctx, movement); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert movement")
	}

	result := tx.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND quantity = ?", input.ProductID, previous).
		Update("quantity", next)
	if result.Error != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, result.Error, "db: update product quantity")
	}
	if result.RowsAffected == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "product quantity changed concurrently")
	}

	return movement, nil
}
