package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m4ssya/warehouse-backend/api/middleware"
	"github.com/m4ssya/warehouse-backend/api/responses"
	"github.com/m4ssya/warehouse-backend/api/validators"
	"github.com/m4ssya/warehouse-backend/internal/orders"
	"github.com/m4ssya/warehouse-backend/pkg/db/models"
	"github.com/m4ssya/warehouse-backend/pkg/enums"
	pkgerrors "github.com/m4ssya/warehouse-backend/pkg/errors"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

type createOrderLineBody struct {
	ProductName string  `json:"product_name" validate:"required,min=1,max=255"`
	Barcode     *string `json:"barcode" validate:"omitempty,max=64"`
	Quantity    int     `json:"quantity" validate:"required,gt=0"`
	UnitPrice   string  `json:"unit_price" validate:"required"`
}

type createOrderBody struct {
	OrderNumber string                `json:"order_number" validate:"required,min=1,max=64"`
	SupplierID  *string               `json:"supplier_id" validate:"omitempty,uuid"`
	Lines       []createOrderLineBody `json:"lines" validate:"required,min=1,dive"`
}

type orderItemView struct {
	ProductName string  `json:"product_name"`
	Barcode     *string `json:"barcode,omitempty"`
	Quantity    int     `json:"quantity"`
	UnitPrice   string  `json:"unit_price"`
}

type orderView struct {
	ID          string          `json:"id"`
	OrderNumber string          `json:"order_number"`
	Status      string          `json:"status"`
	Supplier    *string         `json:"supplier,omitempty"`
	Items       []orderItemView `json:"items"`
	CreatedBy   string          `json:"created_by"`
	ReceivedBy  *string         `json:"received_by,omitempty"`
	ReceivedAt  *time.Time      `json:"received_at,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

func newOrderView(order *models.PendingOrder) orderView {
	view := orderView{
		ID:          order.ID.String(),
		OrderNumber: order.OrderNumber,
		Status:      string(order.Status),
		CreatedBy:   order.CreatedBy,
		ReceivedBy:  order.ReceivedBy,
		ReceivedAt:  order.ReceivedAt,
		CreatedAt:   order.CreatedAt,
		Items:       make([]orderItemView, 0, len(order.Items)),
	}
	if order.Supplier != nil {
		view.Supplier = &order.Supplier.Name
	}
	for _, item := range order.Items {
		view.Items = append(view.Items, orderItemView{
			ProductName: item.ProductName,
			Barcode:     item.Barcode,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice.StringFixed(2),
		})
	}
	return view
}

func ListOrders(service orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var status *enums.PendingOrderStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed := enums.PendingOrderStatus(raw)
			status = &parsed
		}

		list, err := service.List(r.Context(), status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		views := make([]orderView, 0, len(list))
		for i := range list {
			views = append(views, newOrderView(&list[i]))
		}
		responses.WriteSuccess(w, views)
	}
}

func GetOrder(service orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		order, err := service.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newOrderView(order))
	}
}

func CreateOrder(service orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body createOrderBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.CreateOrderInput{
			OrderNumber: body.OrderNumber,
			Actor:       middleware.UsernameFromContext(r.Context()),
		}
		if body.SupplierID != nil {
			supplierID, err := uuid.Parse(*body.SupplierID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid supplier id"))
				return
			}
			input.SupplierID = &supplierID
		}
		for _, line := range body.Lines {
			unitPrice, err := parsePrice(line.UnitPrice, "unit_price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			input.Lines = append(input.Lines, orders.CreateOrderLine{
				ProductName: line.ProductName,
				Barcode:     line.Barcode,
				Quantity:    line.Quantity,
				UnitPrice:   unitPrice,
			})
		}

		order, err := service.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newOrderView(order))
	}
}

// ReceiveOrder books the delivery and flips the order to received.
func ReceiveOrder(service orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseUUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := service.Receive(r.Context(), orderID, middleware.UsernameFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		type receivedLineView struct {
			ProductName string `json:"product_name"`
			ProductID   string `json:"product_id"`
			Quantity    int    `json:"quantity"`
			Created     bool   `json:"created"`
		}
		lines := make([]receivedLineView, 0, len(result.Lines))
		for _, line := range result.Lines {
			lines = append(lines, receivedLineView{
				ProductName: line.ProductName,
				ProductID:   line.ProductID.String(),
				Quantity:    line.Quantity,
				Created:     line.Created,
			})
		}
		responses.WriteSuccess(w, map[string]any{
			"order": newOrderView(result.Order),
			"lines": lines,
		})
	}
}
