package models

import (
	"etix/src/types"
)

type Order struct {
	ID                    uint              `gorm:"primarykey" json:"id"`
	UserID                uint              `json:"user_id,omitempty"`
	EventID               uint              `json:"event_id,omitempty"`
	Type                  types.OrderType   `json:"type,omitempty"`
	Qty                   uint              `json:"qty,omitempty"`
	AmountTotalCents      int64             `json:"amount_total_cents"`
	Status                types.OrderStatus `gorm:"default:'PENDING'" json:"status,omitempty"`
	StripeSessionId       *string           `json:"-"`
	StripePaymentIntentId *string           `json:"-"`

	User    User     `gorm:"foreignKey:user_id" json:"-"`
	Event   *Event   `gorm:"foreignKey:event_id" json:"event,omitempty"`
	Tickets []Ticket `gorm:"foreignKey:order_id" json:"tickets,omitempty"`

	types.Timestamps
}
