package models

import (
	"etix/src/types"
)

type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`
	Name         string         `json:"name,omitempty"`
	Email        string         `gorm:"uniqueIndex" json:"email,omitempty"`
	PasswordHash string         `json:"-"`
	Role         types.UserRole `gorm:"default:'USER'" json:"role,omitempty"`

	Orders  []Order  `gorm:"foreignKey:user_id" json:"orders,omitempty"`
	Tickets []Ticket `gorm:"foreignKey:owner_id" json:"tickets,omitempty"`

	types.Timestamps
}
