package main

import (
	"log"
	"net/http"

	"etix/src/lib"
	"etix/src/types"
	"etix/src/utils"

	"github.com/gin-gonic/gin"
)

// checkoutHandlers turns a reservation request into a hosted payment session.
// A failed gateway call leaves a PENDING order behind; the sweep reclaims its
// holds after the TTL like any other abandoned checkout.
func checkoutHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	g.
		POST("/checkout/session", func(ctx *gin.Context) {
			var body types.CreateCheckoutRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				log.Printf("Error in validating request: %s\n", err.Error())
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			userID := ctx.GetUint("id")
			order, event, seats, err := utils.CreateReservation(userID, &body)
			if err != nil {
				reason := utils.ReasonOf(err)
				lib.ReservationsTotal.WithLabelValues(string(body.Type), "rejected").Inc()
				switch reason {
				case types.REASON_INVENTORY_EXHAUSTED, types.REASON_SEATS_UNAVAILABLE:
					ctx.JSON(http.StatusConflict, gin.H{"error": err.Error(), "code": reason})
				default:
					ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				}
				return
			}
			lib.ReservationsTotal.WithLabelValues(string(body.Type), "accepted").Inc()

			checkoutSession, err := utils.CreateStripeCheckout(order, event, seats)
			if err != nil {
				ctx.JSON(http.StatusBadGateway, gin.H{"error": "could not create checkout session"})
				return
			}
			ctx.JSON(http.StatusCreated, gin.H{"data": types.CheckoutSessionResult{
				SessionID: checkoutSession.ID,
				URL:       checkoutSession.URL,
				OrderID:   order.ID,
			}})
		})
	return g
}
