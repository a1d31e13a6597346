package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m4ssya/warehouse-backend/api/middleware"
	"github.com/m4ssya/warehouse-backend/api/responses"
	"github.com/m4ssya/warehouse-backend/api/validators"
	"github.com/m4ssya/warehouse-backend/internal/ledger"
	"github.com/m4ssya/warehouse-backend/internal/stock"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

type applyMovementBody struct {
	MovementType string `json:"movement_type" validate:"required,oneof=IN OUT"`
	Quantity     int    `json:"quantity" validate:"required,gt=0"`
	Comment      string `json:"comment" validate:"omitempty,max=1024"`
}

type movementView struct {
	ID               string    `json:"id"`
	ProductID        string    `json:"product_id"`
	ProductName      string    `json:"product_name,omitempty"`
	CategoryName     *string   `json:"category_name,omitempty"`
	MovementType     string    `json:"movement_type"`
	Quantity         int       `json:"quantity"`
	PreviousQuantity int       `json:"previous_quantity"`
	NewQuantity      int       `json:"new_quantity"`
	Username         string    `json:"username"`
	ReferenceID      *string   `json:"reference_id,omitempty"`
	ReferenceType    string    `json:"reference_type"`
	Comment          string    `json:"comment,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

func newMovementView(movement *models.ProductMovement) movementView {
	view := movementView{
		ID:               movement.ID.String(),
		ProductID:        movement.ProductID.String(),
		MovementType:     string(movement.MovementType),
		Quantity:         movement.Quantity,
		PreviousQuantity: movement.PreviousQuantity,
		NewQuantity:      movement.NewQuantity,
		Username:         movement.Username,
		ReferenceType:    string(movement.ReferenceType),
		CreatedAt:        movement.CreatedAt,
	}
	if movement.Comment != nil {
		view.Comment = *movement.Comment
	}
	if movement.ReferenceID != nil {
		id := movement.ReferenceID.String()
		view.ReferenceID = &id
	}
	return view
}

// ApplyMovement books a manual IN/OUT correction against a product.
func ApplyMovement(service stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body applyMovementBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := service.Adjust(r.Context(), stock.AdjustInput{
			ProductID:    productID,
			MovementType: enums.MovementType(body.MovementType),
			Quantity:     body.Quantity,
			Username:     middleware.UsernameFromContext(r.Context()),
			Comment:      body.Comment,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newMovementView(movement))
	}
}

// MovementHistory lists ledger entries, filterable by product, type, user,
// and time range.
func MovementHistory(service ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter := ledger.HistoryFilter{}
		query := r.URL.Query()

		if raw := strings.TrimSpace(query.Get("product_id")); raw != "" {
			productID, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid product id"))
				return
			}
			filter.ProductID = &productID
		}
		if raw := strings.TrimSpace(query.Get("movement_type")); raw != "" {
			movementType := enums.MovementType(raw)
			if !movementType.IsValid() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid movement type"))
				return
			}
			filter.MovementType = &movementType
		}
		if raw := strings.TrimSpace(query.Get("username")); raw != "" {
			filter.Username = &raw
		}
		var err error
		if filter.Start, err = parseTimeQuery(query.Get("start")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.End, err = parseTimeQuery(query.Get("end")); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, err := service.History(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]movementView, 0, len(entries))
		for i := range entries {
			view := newMovementView(&entries[i].ProductMovement)
			view.ProductName = entries[i].ProductName
			view.CategoryName = entries[i].CategoryName
			views = append(views, view)
		}
		responses.WriteSuccess(w, views)
	}
}

func parseTimeQuery(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	parsed, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "timestamps must be RFC 3339")
	}
	return &parsed, nil
}
