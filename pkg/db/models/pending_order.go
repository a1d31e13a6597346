package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/m4ssya/warehouse-backend/pkg/enums"
)

// PendingOrder is an inbound purchase order awaiting delivery.
type PendingOrder struct {
	ID          uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber string                  `gorm:"column:order_number;type:text;not null;uniqueIndex"`
	SupplierID  *uuid.UUID              `gorm:"column:supplier_id;type:uuid"`
	Supplier    *Supplier               `gorm:"foreignKey:SupplierID"`
	Status      enums.PendingOrderStatus `gorm:"column:status;type:text;not null;default:in_progress"`
	Items       []PendingOrderItem      `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedBy   string                  `gorm:"column:created_by;type:text;not null"`
	ReceivedBy  *string                 `gorm:"column:received_by;type:text"`
	ReceivedAt  *time.Time              `gorm:"column:received_at"`
	CreatedAt   time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
