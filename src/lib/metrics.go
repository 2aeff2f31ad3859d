package lib

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReservationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reservations_total",
			Help: "Checkout reservation attempts by type and outcome",
		},
		[]string{"type", "outcome"},
	)

	FulfillmentsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fulfillments_total",
			Help: "Webhook fulfillment attempts by outcome",
		},
		[]string{"outcome"},
	)

	TicketsIssuedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tickets_issued_total",
			Help: "Tickets issued across all orders",
		},
	)

	ValidationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ticket_validations_total",
			Help: "Door scans by reason code",
		},
		[]string{"code"},
	)

	SeatLocksReclaimed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seat_locks_reclaimed_total",
			Help: "Expired seat locks released back to inventory",
		},
	)
)
