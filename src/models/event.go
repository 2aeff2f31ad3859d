package models

import (
	"etix/src/types"
	"time"
)

type Event struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	Title         string    `json:"title,omitempty"`
	Description   *string   `json:"description,omitempty"`
	Category      string    `json:"category,omitempty"`
	Slug          string    `gorm:"uniqueIndex" json:"slug,omitempty"`
	VenueName     string    `json:"venue_name,omitempty"`
	VenueCity     string    `json:"venue_city,omitempty"`
	CoverImageURL *string   `json:"cover_image_url,omitempty"`
	CurrencyCode  string    `gorm:"default:'USD'" json:"currency_code,omitempty"`
	PriceCents    int64     `json:"price_cents"`
	Capacity      uint      `json:"capacity,omitempty"`
	Published     bool      `json:"published"`
	StartAt       time.Time `json:"start_at,omitempty"`
	EndAt         time.Time `json:"end_at,omitempty"`
	OrganizerID   uint      `json:"organizer,omitempty"`

	Organizer User     `gorm:"foreignKey:organizer_id" json:"-"`
	Seats     []Seat   `gorm:"foreignKey:event_id" json:"seats,omitempty"`
	Orders    []Order  `gorm:"foreignKey:event_id" json:"-"`
	Tickets   []Ticket `gorm:"foreignKey:event_id" json:"-"`

	types.Timestamps
}
