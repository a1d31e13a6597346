package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// IDs are assigned application-side so the models work on both Postgres and
// the in-memory sqlite databases used in tests.

func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}

func (p *Product) BeforeCreate(*gorm.DB) error              { ensureID(&p.ID); return nil }
func (c *Category) BeforeCreate(*gorm.DB) error             { ensureID(&c.ID); return nil }
func (m *ProductMovement) BeforeCreate(*gorm.DB) error      { ensureID(&m.ID); return nil }
func (s *SaleRecord) BeforeCreate(*gorm.DB) error           { ensureID(&s.ID); return nil }
func (o *PendingOrder) BeforeCreate(*gorm.DB) error         { ensureID(&o.ID); return nil }
func (i *PendingOrderItem) BeforeCreate(*gorm.DB) error     { ensureID(&i.ID); return nil }
func (s *Supplier) BeforeCreate(*gorm.DB) error             { ensureID(&s.ID); return nil }
func (u *User) BeforeCreate(*gorm.DB) error                 { ensureID(&u.ID); return nil }
func (n *LowStockNotification) BeforeCreate(*gorm.DB) error { ensureID(&n.ID); return nil }

// All returns every model for migrations in tests.
func All() []any {
	return []any{
		&User{},
		&Supplier{},
		&Category{},
		&CategoryMinQuantity{},
		&Product{},
		&ProductMovement{},
		&SaleRecord{},
		&PendingOrder{},
		&PendingOrderItem{},
		&LowStockNotification{},
	}
}
