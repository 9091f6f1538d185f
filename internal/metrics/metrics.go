// Package metrics exposes Prometheus counters for the booking domain.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	BookingsCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_bookings_created_total",
		Help: "Bookings admitted and persisted.",
	})

	BookingsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_bookings_rejected_total",
		Help: "Booking requests rejected by admission control.",
	}, []string{"reason"})

	BookingsCancelled = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_bookings_cancelled_total",
		Help: "Bookings moved to cancelled status.",
	})

	PenaltiesIssued = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "arena_penalties_issued_total",
		Help: "Penalties issued by staff moderation.",
	}, []string{"severity"})

	PenaltiesExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "arena_penalties_expired_total",
		Help: "Active penalties resolved by the expiry sweep.",
	})
)

// Handler serves the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
