package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PendingOrderItem is one expected line on an inbound order. Items are matched
// to products by name or barcode at receipt time, so neither is a hard FK.
type PendingOrderItem struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	OrderID     uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductName string          `gorm:"column:product_name;type:text;not null"`
	Barcode     *string         `gorm:"column:barcode;type:text"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null;default:0"`
}
