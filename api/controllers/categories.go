package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/m4ssya/warehouse-backend/api/responses"
	"github.com/m4ssya/warehouse-backend/api/validators"
	"github.com/m4ssya/warehouse-backend/internal/catalog"
	"github.com/m4ssya/warehouse-backend/internal/lowstock"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

type createCategoryBody struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

type minQuantityBody struct {
	MinQuantity int `json:"min_quantity" validate:"gte=0"`
}

type categoryView struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MinQuantity *int   `json:"min_quantity,omitempty"`
}

func newCategoryView(category *models.Category) categoryView {
	view := categoryView{
		ID:   category.ID.String(),
		Name: category.Name,
	}
	if category.MinQuantity != nil {
		view.MinQuantity = &category.MinQuantity.MinQuantity
	}
	return view
}

func ListCategories(service catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := service.ListCategories(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]categoryView, 0, len(categories))
		for i := range categories {
			views = append(views, newCategoryView(&categories[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

func CreateCategory(service catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createCategoryBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category, err := service.CreateCategory(r.Context(), validators.SanitizeString(body.Name, 255))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newCategoryView(category))
	}
}

func DeleteCategory(service catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")
		if err := service.DeleteCategory(r.Context(), name); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// SetMinQuantity configures the low-stock threshold for a category.
func SetMinQuantity(service lowstock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "name")

		var body minQuantityBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := service.SetMinQuantity(r.Context(), name, body.MinQuantity); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{
			"category":     name,
			"min_quantity": body.MinQuantity,
		})
	}
}
