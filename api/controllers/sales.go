package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/m4ssya/warehouse-backend/api/middleware"
	"github.com/m4ssya/warehouse-backend/api/responses"
	"github.com/m4ssya/warehouse-backend/api/validators"
	"github.com/m4ssya/warehouse-backend/internal/sales"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

type checkoutLineBody struct {
	ProductName string  `json:"product_name" validate:"required,min=1,max=255"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice   *string `json:"unit_price"`
}

type checkoutBody struct {
	Lines []checkoutLineBody `json:"lines" validate:"required,min=1,dive"`
}

type saleView struct {
	ID          string    `json:"id"`
	ProductName string    `json:"product_name"`
	Quantity    int       `json:"quantity"`
	UnitPrice   string    `json:"unit_price"`
	TotalPrice  string    `json:"total_price"`
	Username    string    `json:"username"`
	SoldAt      time.Time `json:"sold_at"`
}

func newSaleView(sale *models.SaleRecord) saleView {
	return saleView{
		ID:          sale.ID.String(),
		ProductName: sale.ProductName,
		Quantity:    sale.Quantity,
		UnitPrice:   sale.UnitPrice.StringFixed(2),
		TotalPrice:  sale.TotalPrice.StringFixed(2),
		Username:    sale.Username,
		SoldAt:      sale.SoldAt,
	}
}

func newSaleViews(records []models.SaleRecord) []saleView {
	views := make([]saleView, 0, len(records))
	for i := range records {
		views = append(views, newSaleView(&records[i]))
	}
	return views
}

// Checkout sells a cart atomically.
func Checkout(service sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body checkoutBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := sales.CheckoutInput{Actor: middleware.UsernameFromContext(r.Context())}
		for _, line := range body.Lines {
			cartLine := sales.CartLine{
				ProductName: line.ProductName,
				Quantity:    line.Quantity,
			}
			if line.UnitPrice != nil {
				price, err := parsePrice(*line.UnitPrice, "unit_price")
				if err != nil {
					responses.WriteError(r.Context(), logg, w, err)
					return
				}
				cartLine.UnitPrice = &price
			}
			input.Lines = append(input.Lines, cartLine)
		}

		result, err := service.Checkout(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{
			"sales": newSaleViews(result.Sales),
			"total": result.Total.StringFixed(2),
		})
	}
}

// SalesHistory lists sales, filterable by period or explicit range.
func SalesHistory(service sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()

		if period := strings.TrimSpace(query.Get("period")); period != "" {
			records, err := service.HistoryByPeriod(r.Context(), period, time.Now().UTC())
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			responses.WriteSuccess(w, newSaleViews(records))
			return
		}

		filter := sales.HistoryFilter{}
		if raw := strings.TrimSpace(query.Get("product_name")); raw != "" {
			filter.ProductName = &raw
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

		records, err := service.History(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newSaleViews(records))
	}
}

// TopProducts aggregates best sellers over a trailing window in days.
func TopProducts(service sales.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := validators.ParseQueryInt(r, "days", 30, 1, 3650)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", 10, 1, 100)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		since := time.Now().UTC().AddDate(0, 0, -days)
		tops, err := service.TopProducts(r.Context(), since, limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		type topView struct {
			ProductName string `json:"product_name"`
			UnitsSold   int    `json:"units_sold"`
			Revenue     string `json:"revenue"`
		}
		views := make([]topView, 0, len(tops))
		for _, top := range tops {
			views = append(views, topView{
				ProductName: top.ProductName,
				UnitsSold:   top.UnitsSold,
				Revenue:     top.Revenue.StringFixed(2),
			})
		}
		responses.WriteSuccess(w, views)
	}
}
