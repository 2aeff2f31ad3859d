package types

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type UserRole string

const (
	ROLE_USER      UserRole = "USER"
	ROLE_ADMIN     UserRole = "ADMIN"
	ROLE_VALIDATOR UserRole = "VALIDATOR"
)

type SeatStatus string

const (
	SEAT_AVAILABLE SeatStatus = "AVAILABLE"
	SEAT_LOCKED    SeatStatus = "LOCKED"
	SEAT_SOLD      SeatStatus = "SOLD"
)

type OrderStatus string

const (
	ORDER_PENDING   OrderStatus = "PENDING"
	ORDER_PAID      OrderStatus = "PAID"
	ORDER_CANCELLED OrderStatus = "CANCELLED"
)

type OrderType string

const (
	ORDER_GA     OrderType = "GA"
	ORDER_SEATED OrderType = "SEATED"
)

// Reason codes surfaced to callers. Inventory conflicts and validation
// outcomes are decisions, not transport errors.
const (
	REASON_INVENTORY_EXHAUSTED = "INVENTORY_EXHAUSTED"
	REASON_SEATS_UNAVAILABLE   = "SEATS_UNAVAILABLE"
	REASON_ORDER_NOT_FOUND     = "ORDER_NOT_FOUND"
	REASON_LOCKS_MISSING       = "LOCKS_MISSING"
	REASON_INVALID_TICKET      = "INVALID_TICKET"
	REASON_ALREADY_SCANNED     = "ALREADY_SCANNED"
	REASON_EVENT_NOT_ACTIVE    = "EVENT_NOT_ACTIVE"
	REASON_VALIDATED           = "VALIDATED"
)

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type CreateEventRequestBody struct {
	Title         string `json:"title" binding:"required"`
	Description   string `json:"description,omitempty"`
	Category      string `json:"category" binding:"required"`
	StartAt       string `json:"start_at" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	EndAt         string `json:"end_at" binding:"required,bookabledate,gtdate=StartAt" time_format:"2006-01-02 15:04:05 -07:00"`
	VenueName     string `json:"venue_name" binding:"required"`
	VenueCity     string `json:"venue_city" binding:"required"`
	CoverImageURL string `json:"cover_image_url,omitempty" binding:"omitempty,url"`
	CurrencyCode  string `json:"currency_code,omitempty"`
	PriceCents    int64  `json:"price_cents" binding:"min=0"`
	Capacity      uint   `json:"capacity" binding:"required,min=1"`
	Publish       bool   `json:"publish,omitempty"`
	Slug          string `json:"slug,omitempty"`
}

type UpdateEventRequestBody struct {
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	Category      *string `json:"category,omitempty"`
	StartAt       *string `json:"start_at,omitempty" binding:"omitempty,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	EndAt         *string `json:"end_at,omitempty" binding:"omitempty,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	VenueName     *string `json:"venue_name,omitempty"`
	VenueCity     *string `json:"venue_city,omitempty"`
	CoverImageURL *string `json:"cover_image_url,omitempty" binding:"omitempty,url"`
	PriceCents    *int64  `json:"price_cents,omitempty" binding:"omitempty,min=0"`
	Capacity      *uint   `json:"capacity,omitempty" binding:"omitempty,min=1"`
	Published     *bool   `json:"published,omitempty"`
}

type SectionRequest struct {
	Name          string `json:"name" binding:"required"`
	Rows          uint   `json:"rows" binding:"required,min=1"`
	Cols          uint   `json:"cols" binding:"required,min=1"`
	PriceAdjCents int64  `json:"price_adj_cents,omitempty"`
	StartRow      uint   `json:"start_row,omitempty"`
	StartCol      uint   `json:"start_col,omitempty"`
}

type CreateSectionsRequestBody struct {
	Sections []SectionRequest `json:"sections" binding:"required,min=1,dive"`
}

type EventsQueryFilters struct {
	Category string `form:"category"`
	City     string `form:"city"`
	From     string `form:"from"`
	To       string `form:"to"`
	Text     string `form:"text"`
	Page     int    `form:"page,default=1" binding:"omitempty,min=1"`
	Limit    int    `form:"limit,default=12" binding:"omitempty,min=1,max=100"`
}

type CreateCheckoutRequestBody struct {
	EventID uint      `json:"event" binding:"required"`
	Type    OrderType `json:"type" binding:"required,oneof=GA SEATED"`
	Qty     uint      `json:"qty,omitempty"`
	SeatIDs []uint    `json:"seat_ids,omitempty"`
}

type ValidateTicketRequestBody struct {
	Code string `json:"code" binding:"required"`
}

type RegisterUserRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type LoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TicketSummary is the slice of a Ticket the validator and wallet endpoints
// expose to callers.
type TicketSummary struct {
	EventTitle string     `json:"event_title,omitempty"`
	VenueName  string     `json:"venue_name,omitempty"`
	SeatLabel  *string    `json:"seat_label,omitempty"`
	Section    *string    `json:"section,omitempty"`
	ScannedAt  *time.Time `json:"scanned_at,omitempty"`
}

type ValidationOutcome struct {
	OK      bool           `json:"ok"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Ticket  *TicketSummary `json:"ticket,omitempty"`
}

type CheckoutSessionResult struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
	OrderID   uint   `json:"order_id"`
}

type Pagination struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}
