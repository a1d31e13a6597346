package models

import (
	"time"

	"github.com/google/uuid"
)

// CategoryMinQuantity holds the low-stock threshold for a category. Products
// in categories without a row here are never reported as low on stock.
type CategoryMinQuantity struct {
	CategoryID  uuid.UUID `gorm:"column:category_id;type:uuid;primaryKey"`
	MinQuantity int       `gorm:"column:min_quantity;not null"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
