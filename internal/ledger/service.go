package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
)

// Service exposes read access to the movement ledger. Writes go through the
// stock engine so the prev/new snapshots always match the product table.
type Service interface {
	History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error)
	ProductMovements(ctx context.Context, productID uuid.UUID) ([]models.ProductMovement, error)
}

type service struct {
	repo Repository
}

// NewService wires a ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("ledger repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) History(ctx context.Context, filter HistoryFilter) ([]HistoryEntry, error) {
	if filter.MovementType != nil && !filter.MovementType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", *filter.MovementType))
	}
	if filter.Start != nil && filter.End != nil && filter.End.Before(*filter.Start) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "end must not precede start")
	}
	return s.repo.History(ctx, filter)
}

func (s *service) ProductMovements(ctx context.Context, productID uuid.UUID) ([]models.ProductMovement, error) {
	if productID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	return s.repo.ListByProductID(ctx, productID)
}

// Validate checks the append-time invariants for one movement row.
func Validate(movement *models.ProductMovement) error {
	if movement == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "movement is required")
	}
	if movement.ProductID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}
	if !movement.MovementType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid movement type %q", movement.MovementType))
	}
	if !movement.ReferenceType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid reference type %q", movement.ReferenceType))
	}
	if movement.Quantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if movement.Username == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "username is required")
	}

	expected := movement.PreviousQuantity
	switch movement.MovementType {
	case enums.MovementTypeIn:
		expected += movement.Quantity
	case enums.MovementTypeOut:
		expected -= movement.Quantity
	}
	if movement.NewQuantity != expected {
		return pkgerrors.New(pkgerrors.CodeValidation, "new quantity does not match previous quantity and movement")
	}
	if movement.NewQuantity < 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "new quantity cannot be negative")
	}
	return nil
}
