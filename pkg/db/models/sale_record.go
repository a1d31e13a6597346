package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SaleRecord captures one completed sale line. ProductName is a value
// snapshot, not a reference: there is deliberately no product FK, so history
// survives renames and outlives the product row itself.
type SaleRecord struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	ProductName string          `gorm:"column:product_name;type:text;not null;index"`
	Quantity    int             `gorm:"column:quantity;not null"`
	UnitPrice   decimal.Decimal `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice  decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	Username    string          `gorm:"column:username;type:text;not null"`
	SoldAt      time.Time       `gorm:"column:sold_at;autoCreateTime;index"`
}
