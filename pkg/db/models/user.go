package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/m4ssya/warehouse-backend/pkg/enums"
)

// User represents an operator account. Movements and sales record the
// username rather than the ID so the audit trail survives account deletion.
type User struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;primaryKey"`
	Username     string         `gorm:"column:username;type:text;not null;uniqueIndex"`
	Email        *string        `gorm:"column:email;type:text;uniqueIndex"`
	DisplayName  *string        `gorm:"column:display_name;type:text"`
	PasswordHash string         `gorm:"column:password_hash;type:text;not null"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:user"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
