package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a single stocked item. Quantity is the on-hand count and
// is never allowed below zero; every change to it is mirrored by a
// ProductMovement row.
type Product struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name          string          `gorm:"column:name;type:text;not null;uniqueIndex"`
	Barcode       *string         `gorm:"column:barcode;type:text;uniqueIndex"`
	CategoryID    *uuid.UUID      `gorm:"column:category_id;type:uuid"`
	Category      *Category       `gorm:"foreignKey:CategoryID"`
	SupplierID    *uuid.UUID      `gorm:"column:supplier_id;type:uuid"`
	Supplier      *Supplier       `gorm:"foreignKey:SupplierID"`
	Quantity      int             `gorm:"column:quantity;not null;default:0"`
	PurchasePrice decimal.Decimal `gorm:"column:purchase_price;type:numeric(12,2);not null;default:0"`
	SalePrice     decimal.Decimal `gorm:"column:sale_price;type:numeric(12,2);not null;default:0"`
	Description   *string         `gorm:"column:description;type:text"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
