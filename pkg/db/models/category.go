package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products for reporting and low-stock thresholds.
type Category struct {
	ID          uuid.UUID            `gorm:"column:id;type:uuid;primaryKey"`
	Name        string               `gorm:"column:name;type:text;not null;uniqueIndex"`
	MinQuantity *CategoryMinQuantity `gorm:"foreignKey:CategoryID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
