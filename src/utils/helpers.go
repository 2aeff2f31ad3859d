package utils

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path"
	"strconv"
	"time"

	"etix/src/config"
	"etix/src/db"
	"etix/src/lib"
	"etix/src/models"
	"etix/src/models/scopes"
	"etix/src/types"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"github.com/yeqown/go-qrcode"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ReasonError carries a machine-readable reason code alongside the message so
// handlers can map inventory conflicts and integrity failures to distinct
// responses.
type ReasonError struct {
	Reason  string
	Message string
}

func (e *ReasonError) Error() string { return e.Message }

func NewReasonError(reason, message string) *ReasonError {
	return &ReasonError{Reason: reason, Message: message}
}

// ReasonOf extracts the reason code from an error chain, or "" when the error
// is not a decision outcome.
func ReasonOf(err error) string {
	var re *ReasonError
	if errors.As(err, &re) {
		return re.Reason
	}
	return ""
}

// CreateReservation converts a checkout request into a PENDING Order plus, for
// seated requests, one SeatLock per seat. The availability check and the seat
// transition are a single conditional update: either every requested seat
// flips AVAILABLE->LOCKED or the whole transaction rolls back.
func CreateReservation(userID uint, params *types.CreateCheckoutRequestBody) (*models.Order, *models.Event, []models.Seat, error) {
	var order models.Order
	var event models.Event
	var seats []models.Seat
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.Event{ID: params.EventID}).
			First(&event).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("event not found")
			}
			return err
		}
		if !event.Published {
			return errors.New("event is not published")
		}

		order = models.Order{
			UserID:  userID,
			EventID: event.ID,
			Type:    params.Type,
			Status:  types.ORDER_PENDING,
		}

		switch params.Type {
		case types.ORDER_GA:
			if params.Qty < 1 {
				return errors.New("quantity is required for GA tickets")
			}
			var sold int64
			if err := tx.
				Model(&models.Ticket{}).
				Where("event_id = ? AND seat_id IS NULL", event.ID).
				Count(&sold).
				Error; err != nil {
				return err
			}
			if sold+int64(params.Qty) > int64(event.Capacity) {
				return NewReasonError(types.REASON_INVENTORY_EXHAUSTED, "not enough GA tickets available")
			}
			order.Qty = params.Qty
			order.AmountTotalCents = event.PriceCents * int64(params.Qty)
		case types.ORDER_SEATED:
			if len(params.SeatIDs) == 0 {
				return errors.New("seat selection is required for seated tickets")
			}
			res := tx.
				Model(&models.Seat{}).
				Where("id IN ? AND event_id = ? AND status = ?", params.SeatIDs, event.ID, types.SEAT_AVAILABLE).
				Update("status", types.SEAT_LOCKED)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected != int64(len(params.SeatIDs)) {
				return NewReasonError(types.REASON_SEATS_UNAVAILABLE, "some selected seats are not available")
			}
			if err := tx.
				Where("id IN ?", params.SeatIDs).
				Order("label asc").
				Find(&seats).
				Error; err != nil {
				return err
			}
			var amount int64
			for _, seat := range seats {
				amount += seat.UnitPriceCents(&event)
			}
			order.Qty = uint(len(seats))
			order.AmountTotalCents = amount
		default:
			return errors.New("invalid booking type")
		}

		if err := tx.Create(&order).Error; err != nil {
			return err
		}

		if params.Type == types.ORDER_SEATED {
			expiresAt := time.Now().Add(config.SEAT_HOLD_DURATION)
			for _, seat := range seats {
				seatLock := models.SeatLock{
					SeatID:    seat.ID,
					UserID:    userID,
					OrderID:   order.ID,
					ExpiresAt: expiresAt,
				}
				if err := tx.Create(&seatLock).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, nil, err
	}
	return &order, &event, seats, nil
}

// CreateStripeCheckout opens a hosted checkout session for the order: one
// line for a GA block, one line per seat otherwise. The metadata the gateway
// echoes back is all fulfillment gets to work with.
func CreateStripeCheckout(order *models.Order, event *models.Event, seats []models.Seat) (*stripe.CheckoutSession, error) {
	sc := lib.GetStripeClient()
	appHost := os.Getenv("APP_HOST")
	currency := stripe.String(event.CurrencyCode)

	lineItems := []*stripe.CheckoutSessionCreateLineItemParams{}
	if order.Type == types.ORDER_GA {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: currency,
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name:        stripe.String(fmt.Sprintf("%s - General Admission", event.Title)),
					Description: stripe.String(fmt.Sprintf("General Admission ticket for %s", event.Title)),
				},
				UnitAmount: stripe.Int64(event.PriceCents),
			},
			Quantity: stripe.Int64(int64(order.Qty)),
		})
	} else {
		for _, seat := range seats {
			section := "General"
			if seat.Section != nil {
				section = *seat.Section
			}
			lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
				PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
					Currency: currency,
					ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
						Name:        stripe.String(fmt.Sprintf("%s - Seat %s", event.Title, seat.Label)),
						Description: stripe.String(fmt.Sprintf("Seat %s in %s section for %s", seat.Label, section, event.Title)),
					},
					UnitAmount: stripe.Int64(seat.UnitPriceCents(event)),
				},
				Quantity: stripe.Int64(1),
			})
		}
	}

	createParams := stripe.CheckoutSessionCreateParams{
		Mode:       stripe.String("payment"),
		UIMode:     stripe.String("hosted"),
		LineItems:  lineItems,
		SuccessURL: stripe.String(fmt.Sprintf("%s/wallet?success=true", appHost)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/events/%d?cancelled=true", appHost, event.ID)),
		Metadata: map[string]string{
			"orderId": strconv.FormatUint(uint64(order.ID), 10),
			"eventId": strconv.FormatUint(uint64(event.ID), 10),
			"type":    string(order.Type),
		},
	}
	checkoutSession, err := sc.V1CheckoutSessions.Create(context.Background(), &createParams)
	if err != nil {
		log.Printf("CreateStripeCheckout failed: %s\n", err.Error())
		return nil, err
	}
	log.Printf("CheckoutSessionID: %s\n", checkoutSession.ID)

	dbi := db.GetDb()
	err = dbi.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.Order{}).
			Where("id = ?", order.ID).
			Update("stripe_session_id", checkoutSession.ID).
			Error
	})
	if err != nil {
		log.Printf("Error saving session id on Order [%d]: %s\n", order.ID, err.Error())
		return nil, err
	}
	return checkoutSession, nil
}

// FulfillOrder turns a verified payment completion into issued tickets and
// finalized inventory. Webhook delivery is at-least-once, so issuance is
// guarded by the ticket count inside the same transaction that creates them.
func FulfillOrder(orderID uint, paymentIntentID string) ([]models.Ticket, error) {
	var issued []models.Ticket
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.
			Where(&models.Order{ID: orderID}).
			First(&order).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return NewReasonError(types.REASON_ORDER_NOT_FOUND, fmt.Sprintf("order [%d] not found", orderID))
			}
			return err
		}

		var existing int64
		if err := tx.
			Model(&models.Ticket{}).
			Where("order_id = ?", order.ID).
			Count(&existing).
			Error; err != nil {
			return err
		}
		if existing > 0 {
			log.Printf("Order [%d] already fulfilled with %d tickets. Skipping\n", order.ID, existing)
			return nil
		}

		updates := map[string]any{"status": types.ORDER_PAID}
		if paymentIntentID != "" {
			updates["stripe_payment_intent_id"] = paymentIntentID
		}
		if err := tx.
			Model(&models.Order{}).
			Where("id = ?", order.ID).
			Updates(updates).
			Error; err != nil {
			return err
		}

		now := time.Now()
		if order.Type == types.ORDER_GA {
			for i := uint(0); i < order.Qty; i++ {
				serialNo := fmt.Sprintf("%d-GA-%d", order.ID, i+1)
				ticket := models.Ticket{
					OrderID:  order.ID,
					EventID:  order.EventID,
					OwnerID:  order.UserID,
					SerialNo: serialNo,
					Code:     GenerateTicketCode(order.EventID, serialNo),
					IssuedAt: now,
				}
				if err := tx.Create(&ticket).Error; err != nil {
					return err
				}
				issued = append(issued, ticket)
			}
			return nil
		}

		// SEATED: locks are scoped to the order so a buyer's concurrent
		// checkouts cannot consume each other's holds.
		var seatLocks []models.SeatLock
		if err := tx.
			Where("order_id = ?", order.ID).
			Scopes(scopes.Unexpired).
			Preload("Seat").
			Find(&seatLocks).
			Error; err != nil {
			return err
		}
		if len(seatLocks) == 0 {
			return NewReasonError(types.REASON_LOCKS_MISSING, fmt.Sprintf("no seat locks found for order [%d]", order.ID))
		}

		// Tickets first, then seat flips: a crash in between leaves tickets
		// issued against LOCKED seats, which the lock still protects.
		for _, seatLock := range seatLocks {
			seatID := seatLock.SeatID
			serialNo := fmt.Sprintf("%d-%s", order.ID, seatLock.Seat.Label)
			ticket := models.Ticket{
				OrderID:  order.ID,
				EventID:  order.EventID,
				OwnerID:  order.UserID,
				SeatID:   &seatID,
				SerialNo: serialNo,
				Code:     GenerateTicketCode(order.EventID, serialNo),
				IssuedAt: now,
			}
			if err := tx.Create(&ticket).Error; err != nil {
				return err
			}
			seat := seatLock.Seat
			ticket.Seat = &seat
			issued = append(issued, ticket)
		}
		for _, seatLock := range seatLocks {
			if err := tx.
				Model(&models.Seat{}).
				Where("id = ? AND status = ?", seatLock.SeatID, types.SEAT_LOCKED).
				Update("status", types.SEAT_SOLD).
				Error; err != nil {
				return err
			}
			if err := tx.Unscoped().Delete(&models.SeatLock{}, seatLock.ID).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	lib.TicketsIssuedTotal.Add(float64(len(issued)))
	return issued, nil
}

// ValidateTicketCode decides door entry for a presented code. The mutation is
// a single conditional update so two concurrent scans of the same code cannot
// both win.
func ValidateTicketCode(code string) (*types.ValidationOutcome, error) {
	dbi := db.GetDb()
	var ticket models.Ticket
	if err := dbi.
		Where(&models.Ticket{Code: code}).
		Preload("Event").
		Preload("Seat").
		First(&ticket).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &types.ValidationOutcome{
				OK:      false,
				Code:    types.REASON_INVALID_TICKET,
				Message: "Ticket not found",
			}, nil
		}
		return nil, err
	}

	summary := ticketSummary(&ticket)
	if ticket.ValidatedAt != nil {
		summary.ScannedAt = ticket.ValidatedAt
		return &types.ValidationOutcome{
			OK:      false,
			Code:    types.REASON_ALREADY_SCANNED,
			Message: "Ticket has already been scanned",
			Ticket:  summary,
		}, nil
	}

	now := time.Now()
	validFrom := ticket.Event.StartAt.Add(-config.ADMISSION_WINDOW)
	validTo := ticket.Event.EndAt.Add(config.ADMISSION_WINDOW)
	if now.Before(validFrom) || now.After(validTo) {
		return &types.ValidationOutcome{
			OK:      false,
			Code:    types.REASON_EVENT_NOT_ACTIVE,
			Message: "Event is not currently active for validation",
			Ticket:  summary,
		}, nil
	}

	res := dbi.
		Model(&models.Ticket{}).
		Where("code = ? AND validated_at IS NULL", code).
		Update("validated_at", now)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// A concurrent scan got there first; report its timestamp.
		var scanned models.Ticket
		if err := dbi.
			Select("validated_at").
			Where(&models.Ticket{Code: code}).
			First(&scanned).
			Error; err != nil {
			return nil, err
		}
		summary.ScannedAt = scanned.ValidatedAt
		return &types.ValidationOutcome{
			OK:      false,
			Code:    types.REASON_ALREADY_SCANNED,
			Message: "Ticket has already been scanned",
			Ticket:  summary,
		}, nil
	}

	summary.ScannedAt = &now
	return &types.ValidationOutcome{
		OK:      true,
		Code:    types.REASON_VALIDATED,
		Message: "Ticket validated successfully",
		Ticket:  summary,
	}, nil
}

func ticketSummary(ticket *models.Ticket) *types.TicketSummary {
	summary := &types.TicketSummary{
		EventTitle: ticket.Event.Title,
		VenueName:  ticket.Event.VenueName,
	}
	if ticket.Seat != nil {
		summary.SeatLabel = &ticket.Seat.Label
		summary.Section = ticket.Seat.Section
	}
	return summary
}

// ReleaseExpiredSeatLocks reverts seats held by expired locks back to
// AVAILABLE and removes the locks. Runs on the scheduler so abandoned
// checkouts cannot strand seats in LOCKED forever.
func ReleaseExpiredSeatLocks() (int64, error) {
	var released int64
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		var expired []models.SeatLock
		if err := tx.
			Where("expires_at <= ?", time.Now()).
			Find(&expired).
			Error; err != nil {
			return err
		}
		if len(expired) == 0 {
			return nil
		}
		seatIDs := make([]uint, 0, len(expired))
		lockIDs := make([]uint, 0, len(expired))
		for _, seatLock := range expired {
			seatIDs = append(seatIDs, seatLock.SeatID)
			lockIDs = append(lockIDs, seatLock.ID)
		}
		res := tx.
			Model(&models.Seat{}).
			Where("id IN ? AND status = ?", seatIDs, types.SEAT_LOCKED).
			Update("status", types.SEAT_AVAILABLE)
		if res.Error != nil {
			return res.Error
		}
		released = res.RowsAffected
		if err := tx.Unscoped().Where("id IN ?", lockIDs).Delete(&models.SeatLock{}).Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	if released > 0 {
		log.Printf("[sweep] released %d expired seat locks\n", released)
		lib.SeatLocksReclaimed.Add(float64(released))
	}
	return released, nil
}

// CancelStalePendingOrders expires orders that never completed payment. A
// late webhook for a cancelled order still fulfills: the money has moved, so
// payment wins over the timeout.
func CancelStalePendingOrders() (int64, error) {
	var cancelled int64
	dbi := db.GetDb()
	err := dbi.Transaction(func(tx *gorm.DB) error {
		cutoff := time.Now().Add(-config.SEAT_HOLD_DURATION)
		res := tx.
			Model(&models.Order{}).
			Where("status = ? AND created_at < ?", types.ORDER_PENDING, cutoff).
			Update("status", types.ORDER_CANCELLED)
		if res.Error != nil {
			return res.Error
		}
		cancelled = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	if cancelled > 0 {
		log.Printf("[sweep] cancelled %d stale pending orders\n", cancelled)
	}
	return cancelled, nil
}

// CancelOrder releases an order's holds ahead of the sweep, typically when
// the gateway reports the checkout session expired. Paid orders are left
// alone.
func CancelOrder(orderID uint) error {
	dbi := db.GetDb()
	return dbi.Transaction(func(tx *gorm.DB) error {
		res := tx.
			Model(&models.Order{}).
			Where("id = ? AND status = ?", orderID, types.ORDER_PENDING).
			Update("status", types.ORDER_CANCELLED)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		var seatLocks []models.SeatLock
		if err := tx.
			Where("order_id = ?", orderID).
			Find(&seatLocks).
			Error; err != nil {
			return err
		}
		if len(seatLocks) == 0 {
			return nil
		}
		seatIDs := make([]uint, 0, len(seatLocks))
		for _, seatLock := range seatLocks {
			seatIDs = append(seatIDs, seatLock.SeatID)
		}
		if err := tx.
			Model(&models.Seat{}).
			Where("id IN ? AND status = ?", seatIDs, types.SEAT_LOCKED).
			Update("status", types.SEAT_AVAILABLE).
			Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("order_id = ?", orderID).Delete(&models.SeatLock{}).Error
	})
}

// GenerateTicketCode derives the opaque validation credential from the event,
// the serial and the issuance instant.
func GenerateTicketCode(eventID uint, serialNo string) string {
	return fmt.Sprintf("%d-%s-%d", eventID, serialNo, time.Now().UnixNano())
}

// SaveTicketCodeImage renders the code as a QR jpeg under TEMP_DIR and
// returns the file path.
func SaveTicketCodeImage(code string, filename string) (string, error) {
	qrc, err := qrcode.New(code)
	if err != nil {
		return "", err
	}
	tempdir := os.Getenv("TEMP_DIR")
	filepath := path.Join(tempdir, fmt.Sprintf("%s.jpeg", filename))
	if err := qrc.Save(filepath); err != nil {
		log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
		return "", err
	}
	return filepath, nil
}

var jwtKey = []byte(os.Getenv("JWT_SECRET"))

func GenerateJWT(user *models.User) (string, error) {
	claims := &types.Claims{
		Username: user.Name,
		Role:     string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatUint(uint64(user.ID), 10),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtKey)
}

func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash string, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// SendTicketsEmail mails the buyer a summary of the issued tickets. Failures
// only log: the tickets are already in the wallet.
func SendTicketsEmail(order *models.Order, event *models.Event, tickets []models.Ticket, email string) {
	body := fmt.Sprintf("<p>Your order #%d for <b>%s</b> is confirmed.</p><ul>", order.ID, event.Title)
	for _, ticket := range tickets {
		if ticket.Seat != nil {
			body += fmt.Sprintf("<li>Seat %s (%s)</li>", ticket.Seat.Label, ticket.SerialNo)
		} else {
			body += fmt.Sprintf("<li>General Admission (%s)</li>", ticket.SerialNo)
		}
	}
	body += "</ul><p>Show the QR codes in your wallet at the door.</p>"
	if err := lib.SendMail(&lib.SendMailInput{
		From:     os.Getenv("SMTP_FROM"),
		FromName: "noreply",
		To:       []string{email},
		Subject:  fmt.Sprintf("Your tickets for %s", event.Title),
		Body:     body,
		Html:     true,
	}); err != nil {
		log.Printf("Could not send ticket email to [%s]: %s\n", email, err.Error())
	}
}
