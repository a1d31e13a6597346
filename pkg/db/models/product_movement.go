package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/m4ssya/warehouse-backend/pkg/enums"
)

// ProductMovement is an immutable ledger entry describing one stock change.
// PreviousQuantity and NewQuantity snapshot the on-hand count around the
// change so the ledger replays to the current quantity.
type ProductMovement struct {
	ID               uuid.UUID                `gorm:"column:id;type:uuid;primaryKey"`
	ProductID        uuid.UUID                `gorm:"column:product_id;type:uuid;not null;index"`
	MovementType     enums.MovementType       `gorm:"column:movement_type;type:text;not null"`
	Quantity         int                      `gorm:"column:quantity;not null"`
	PreviousQuantity int                      `gorm:"column:previous_quantity;not null"`
	NewQuantity      int                      `gorm:"column:new_quantity;not null"`
	Username         string                   `gorm:"column:username;type:text;not null"`
	ReferenceID      *uuid.UUID               `gorm:"column:reference_id;type:uuid"`
	ReferenceType    enums.MovementReference  `gorm:"column:reference_type;type:text;not null"`
	Comment          *string                  `gorm:"column:comment;type:text"`
	CreatedAt        time.Time                `gorm:"column:created_at;autoCreateTime;index"`
}
