package controllers

import (
	"net/http"

	"github.com/m4ssya/warehouse-backend/api/responses"
	"github.com/m4ssya/warehouse-backend/api/validators"
	"github.com/m4ssya/warehouse-backend/internal/suppliers"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

type supplierBody struct {
	Name    string  `json:"name" validate:"required,min=1,max=255"`
	Phone   *string `json:"phone" validate:"omitempty,max=64"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Address *string `json:"address" validate:"omitempty,max=1024"`
}

type supplierView struct {
	ID      string  `json:"id"`
	Name    string  `json:"name"`
	Phone   *string `json:"phone,omitempty"`
	Email   *string `json:"email,omitempty"`
	Address *string `json:"address,omitempty"`
}

func newSupplierView(supplier *models.Supplier) supplierView {
	return supplierView{
		ID:      supplier.ID.String(),
		Name:    supplier.Name,
		Phone:   supplier.Phone,
		Email:   supplier.Email,
		Address: supplier.Address,
	}
}

func ListSuppliers(service suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := service.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]supplierView, 0, len(list))
		for i := range list {
			views = append(views, newSupplierView(&list[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

func CreateSupplier(service suppliers.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body supplierBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		supplier, err := service.Add(r.Context(), suppliers.SupplierInput{
			Name:    validators.SanitizeString(body.Name, 255),
			Phone:   body.Phone,
			Email:   body.Email,
			Address: body.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newSupplierView(supplier))
	}
}
