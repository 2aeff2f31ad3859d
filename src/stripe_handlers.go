package main

import (
	"io"
	"log"
	"net/http"
	"strconv"

	"etix/src/db"
	"etix/src/lib"
	"etix/src/models"
	"etix/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"
)

// stripeWebhookRoute receives payment gateway callbacks. The signed payload
// metadata is the only trusted link back to the order; nothing from the
// client side is consulted.
func stripeWebhookRoute(g *gin.Engine) *gin.RouterGroup {
	apiv1 := apiv1Group(g)
	apiv1.POST("/webhook/stripe", func(ctx *gin.Context) {
		payload, err := io.ReadAll(ctx.Request.Body)
		if err != nil {
			log.Printf("Error reading request body: %s\n", err.Error())
			ctx.Status(http.StatusServiceUnavailable)
			return
		}
		event, err := lib.VerifyWebhookPayload(payload, ctx.GetHeader("Stripe-Signature"))
		if err != nil {
			log.Printf("Error verifying webhook signature: %s\n", err.Error())
			ctx.Status(http.StatusBadRequest)
			return
		}
		log.Printf("[StripeEvent] %s\n", event.Type)
		switch event.Type {
		case "checkout.session.completed":
			raw := string(event.Data.Raw)
			orderIdStr := gjson.Get(raw, "metadata.orderId").String()
			atoi, err := strconv.Atoi(orderIdStr)
			if err != nil {
				log.Printf("Could not read order id from session metadata: %s\n", err.Error())
				break
			}
			orderID := uint(atoi)
			paymentIntentID := gjson.Get(raw, "payment_intent").String()
			tickets, err := utils.FulfillOrder(orderID, paymentIntentID)
			if err != nil {
				log.Printf("Error fulfilling order [%d]: %s\n", orderID, err.Error())
				lib.FulfillmentsTotal.WithLabelValues("error").Inc()
				// 200 goes back regardless so the gateway does not retry
				// forever on an unfixable payload. The sweep and the wallet
				// surface anomalies.
				break
			}
			lib.FulfillmentsTotal.WithLabelValues("ok").Inc()
			if len(tickets) > 0 {
				go notifyBuyer(orderID, tickets)
			}
		case "checkout.session.expired":
			raw := string(event.Data.Raw)
			orderIdStr := gjson.Get(raw, "metadata.orderId").String()
			atoi, err := strconv.Atoi(orderIdStr)
			if err != nil {
				log.Printf("Could not read order id from session metadata: %s\n", err.Error())
				break
			}
			if err := utils.CancelOrder(uint(atoi)); err != nil {
				log.Printf("Error cancelling order [%d]: %s\n", atoi, err.Error())
			}
		default:
			log.Printf("Unhandled event type: %s\n", event.Type)
		}
		ctx.Status(http.StatusOK)
	})
	return apiv1
}

func notifyBuyer(orderID uint, tickets []models.Ticket) {
	dbi := db.GetDb()
	var order models.Order
	if err := dbi.
		Where(&models.Order{ID: orderID}).
		Preload("User").
		Preload("Event").
		First(&order).
		Error; err != nil {
		log.Printf("Could not load order [%d] for notification: %s\n", orderID, err.Error())
		return
	}
	utils.SendTicketsEmail(&order, order.Event, tickets, order.User.Email)
}
