package controllers

import (
	"net/http"
	"time"

	"github.com/m4ssya/warehouse-backend/api/responses"
	"github.com/m4ssya/warehouse-backend/internal/lowstock"
	"github.com/m4ssya/warehouse-backend/pkg/logger"
)

// LowStock lists products currently below their category threshold.
func LowStock(service lowstock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := service.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		type entryView struct {
			ProductID    string `json:"product_id"`
			ProductName  string `json:"product_name"`
			CategoryName string `json:"category_name"`
			Quantity     int    `json:"quantity"`
			MinQuantity  int    `json:"min_quantity"`
		}
		views := make([]entryView, 0, len(entries))
		for _, entry := range entries {
			views = append(views, entryView{
				ProductID:    entry.ProductID.String(),
				ProductName:  entry.ProductName,
				CategoryName: entry.CategoryName,
				Quantity:     entry.Quantity,
				MinQuantity:  entry.MinQuantity,
			})
		}
		responses.WriteSuccess(w, views)
	}
}

type notificationView struct {
	ID             string     `json:"id"`
	ProductID      string     `json:"product_id"`
	ProductName    string     `json:"product_name"`
	Quantity       int        `json:"quantity"`
	MinQuantity    int        `json:"min_quantity"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ListNotifications returns low-stock notifications, unread ones by default.
func ListNotifications(service lowstock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		unreadOnly := r.URL.Query().Get("all") == ""
		notifications, err := service.ListNotifications(r.Context(), unreadOnly)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views := make([]notificationView, 0, len(notifications))
		for _, notification := range notifications {
			views = append(views, notificationView{
				ID:             notification.ID.String(),
				ProductID:      notification.ProductID.String(),
				ProductName:    notification.ProductName,
				Quantity:       notification.Quantity,
				MinQuantity:    notification.MinQuantity,
				AcknowledgedAt: notification.AcknowledgedAt,
				CreatedAt:      notification.CreatedAt,
			})
		}
		responses.WriteSuccess(w, views)
	}
}

func MarkNotificationRead(service lowstock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		notificationID, err := parseUUIDParam(r, "notificationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := service.MarkNotificationRead(r.Context(), notificationID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "acknowledged"})
	}
}
