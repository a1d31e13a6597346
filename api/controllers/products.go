package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/m4ssya/warehouse-backend/api/middleware"
	"github.com/m4ssya/warehouse-backend/api/responses"
	"github.com/m4ssya/warehouse-backend/api/validators"
	"github.com/m4ssya/warehouse-backend/internal/catalog"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

type createProductBody struct {
	Name          string  `json:"name" validate:"required,min=1,max=255"`
	Barcode       *string `json:"barcode" validate:"omitempty,max=64"`
	Category      *string `json:"category" validate:"omitempty,max=255"`
	SupplierID    *string `json:"supplier_id" validate:"omitempty,uuid"`
	Quantity      int     `json:"quantity" validate:"gte=0"`
	PurchasePrice string  `json:"purchase_price" validate:"required"`
	SalePrice     string  `json:"sale_price" validate:"required"`
	Description   *string `json:"description" validate:"omitempty,max=2048"`
}

type updateProductBody struct {
	Name          *string `json:"name" validate:"omitempty,min=1,max=255"`
	Barcode       *string `json:"barcode" validate:"omitempty,max=64"`
	Category      *string `json:"category" validate:"omitempty,max=255"`
	SupplierID    *string `json:"supplier_id" validate:"omitempty,uuid"`
	PurchasePrice *string `json:"purchase_price"`
	SalePrice     *string `json:"sale_price"`
	Description   *string `json:"description" validate:"omitempty,max=2048"`
}

type productView struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Barcode       *string    `json:"barcode,omitempty"`
	Category      *string    `json:"category,omitempty"`
	SupplierID    *string    `json:"supplier_id,omitempty"`
	Quantity      int        `json:"quantity"`
	PurchasePrice string     `json:"purchase_price"`
	SalePrice     string     `json:"sale_price"`
	Description   *string    `json:"description,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func newProductView(product *models.Product) productView {
	view := productView{
		ID:            product.ID.String(),
		Name:          product.Name,
		Barcode:       product.Barcode,
		Quantity:      product.Quantity,
		PurchasePrice: product.PurchasePrice.StringFixed(2),
		SalePrice:     product.SalePrice.StringFixed(2),
		Description:   product.Description,
		CreatedAt:     product.CreatedAt,
		UpdatedAt:     product.UpdatedAt,
	}
	if product.Category != nil {
		view.Category = &product.Category.Name
	}
	if product.SupplierID != nil {
		id := product.SupplierID.String()
		view.SupplierID = &id
	}
	return view
}

func newProductViews(products []models.Product) []productView {
	views := make([]productView, 0, len(products))
	for i := range products {
		views = append(views, newProductView(&products[i]))
	}
	return views
}

func parsePrice(raw, field string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price must be a decimal number").WithDetails(map[string]any{"field": field})
	}
	if price.IsNegative() {
		return decimal.Zero, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative").WithDetails(map[string]any{"field": field})
	}
	return price, nil
}

func parseUUIDParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").WithDetails(map[string]any{"field": name})
	}
	return id, nil
}

func CreateProduct(service catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createProductBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		purchase, err := parsePrice(body.PurchasePrice, "purchase_price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sale, err := parsePrice(body.SalePrice, "sale_price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.CreateProductInput{
			Name:          validators.SanitizeString(body.Name, 255),
			Barcode:       body.Barcode,
			CategoryName:  body.Category,
			Quantity:      body.Quantity,
			PurchasePrice: purchase,
			SalePrice:     sale,
			Description:   body.Description,
			Actor:         middleware.UsernameFromContext(r.Context()),
		}
		if body.SupplierID != nil {
			supplierID, err := uuid.Parse(*body.SupplierID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier id"))
				return
			}
			input.SupplierID = &supplierID
		}

		product, err := service.CreateProduct(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newProductView(product))
	}
}

func UpdateProduct(service catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body updateProductBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.UpdateProductInput{
			Name:         body.Name,
			Barcode:      body.Barcode,
			CategoryName: body.Category,
			Description:  body.Description,
		}
		if body.PurchasePrice != nil {
			purchase, err := parsePrice(*body.PurchasePrice, "purchase_price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.PurchasePrice = &purchase
		}
		if body.SalePrice != nil {
			sale, err := parsePrice(*body.SalePrice, "sale_price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.SalePrice = &sale
		}
		if body.SupplierID != nil {
			supplierID, err := uuid.Parse(*body.SupplierID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier id"))
				return
			}
			input.SupplierID = &supplierID
		}

		product, err := service.UpdateProduct(r.Context(), productID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductView(product))
	}
}

func DeleteProduct(service catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := parseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := service.DeleteProduct(r.Context(), productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func ListProducts(service catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
			products, err := service.ListProductsByCategory(r.Context(), category)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, newProductViews(products))
			return
		}

		products, err := service.ListProducts(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductViews(products))
	}
}

func SearchProducts(service catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := strings.TrimSpace(r.URL.Query().Get("q"))
		if query == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "query parameter q is required"))
			return
		}
		products, err := service.SearchProducts(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductViews(products))
	}
}

func GetProductByName(service catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		product, err := service.GetProductByName(r.Context(), name)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newProductView(product))
	}
}
