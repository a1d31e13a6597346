package models

import (
	"time"

	"github.com/google/uuid"
)

// LowStockNotification records that a product dropped below its category
// threshold. Quantity and MinQuantity snapshot the values at detection time.
type LowStockNotification struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID  `gorm:"column:product_id;type:uuid;not null;index"`
	ProductName    string     `gorm:"column:product_name;type:text;not null"`
	Quantity       int        `gorm:"column:quantity;not null"`
	MinQuantity    int        `gorm:"column:min_quantity;not null"`
	AcknowledgedAt *time.Time `gorm:"column:acknowledged_at"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
