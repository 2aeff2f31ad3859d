package main

import (
	"log"
	"net/http"

	"etix/src/lib"
	"etix/src/middlewares"
	"etix/src/types"
	"etix/src/utils"

	"github.com/gin-gonic/gin"
)

// validationHandlers is the door surface. Every decision returns 200 with an
// outcome body; non-200 means the scan itself failed, not the ticket.
func validationHandlers(g *gin.RouterGroup) *gin.RouterGroup {
	validate := g.Group("/tickets")
	validate.Use(middlewares.RequireRole(types.ROLE_VALIDATOR, types.ROLE_ADMIN))
	validate.
		POST("/validate", func(ctx *gin.Context) {
			var body types.ValidateTicketRequestBody
			if err := ctx.ShouldBindJSON(&body); err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			outcome, err := utils.ValidateTicketCode(body.Code)
			if err != nil {
				log.Printf("Error validating ticket code: %s\n", err.Error())
				ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
				return
			}
			lib.ValidationsTotal.WithLabelValues(outcome.Code).Inc()
			if outcome.Code == types.REASON_INVALID_TICKET {
				ctx.JSON(http.StatusNotFound, outcome)
				return
			}
			ctx.JSON(http.StatusOK, outcome)
		})
	return validate
}
