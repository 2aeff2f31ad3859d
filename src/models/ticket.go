package models

import (
	"etix/src/types"
	"time"
)

type Ticket struct {
	ID       uint    `gorm:"primarykey" json:"id"`
	OrderID  uint    `gorm:"index" json:"order_id,omitempty"`
	EventID  uint    `json:"event_id,omitempty"`
	OwnerID  uint    `gorm:"index" json:"owner_id,omitempty"`
	SeatID   *uint   `gorm:"uniqueIndex" json:"seat_id,omitempty"`
	SerialNo string  `gorm:"uniqueIndex" json:"serial_no,omitempty"`
	// Code is the opaque credential embedded in the QR payload. Immutable
	// once issued.
	Code        string     `gorm:"uniqueIndex" json:"code,omitempty"`
	IssuedAt    time.Time  `json:"issued_at,omitempty"`
	ValidatedAt *time.Time `json:"validated_at,omitempty"`

	Order Order `gorm:"foreignKey:order_id" json:"-"`
	Event Event `gorm:"foreignKey:event_id" json:"event,omitempty"`
	Owner User  `gorm:"foreignKey:owner_id" json:"-"`
	Seat  *Seat `gorm:"foreignKey:seat_id" json:"seat,omitempty"`

	types.Timestamps
}
