package models

import (
	"time"

	"github.com/google/uuid"
)

// Supplier is a vendor inbound orders and products can reference.
type Supplier struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Name      string    `gorm:"column:name;type:text;not null;uniqueIndex"`
	Phone     *string   `gorm:"column:phone;type:text"`
	Email     *string   `gorm:"column:email;type:text"`
	Address   *string   `gorm:"column:address;type:text"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
