package models

import (
	"etix/src/types"
	"time"
)

type Seat struct {
	ID         uint             `gorm:"primarykey" json:"id"`
	EventID    uint             `gorm:"uniqueIndex:idx_event_label" json:"event_id,omitempty"`
	Label      string           `gorm:"uniqueIndex:idx_event_label" json:"label,omitempty"`
	Section    *string          `json:"section,omitempty"`
	Row        uint             `json:"row,omitempty"`
	Col        uint             `json:"col,omitempty"`
	Status     types.SeatStatus `gorm:"default:'AVAILABLE'" json:"status,omitempty"`
	PriceCents *int64           `json:"price_cents,omitempty"`

	Event Event `gorm:"foreignKey:event_id" json:"-"`

	types.Timestamps
}

// UnitPriceCents falls back to the event base price when the seat has no
// override of its own.
func (s Seat) UnitPriceCents(event *Event) int64 {
	if s.PriceCents != nil {
		return *s.PriceCents
	}
	return event.PriceCents
}

// SeatLock is a reservation claim, not an ownership relation: it pins a seat
// to an order until expiresAt or until fulfillment converts it to a Ticket.
type SeatLock struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	SeatID    uint      `gorm:"uniqueIndex" json:"seat_id,omitempty"`
	UserID    uint      `json:"user_id,omitempty"`
	OrderID   uint      `gorm:"index" json:"order_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`

	Seat  Seat  `gorm:"foreignKey:seat_id" json:"seat,omitempty"`
	User  User  `gorm:"foreignKey:user_id" json:"-"`
	Order Order `gorm:"foreignKey:order_id" json:"-"`

	types.Timestamps
}
