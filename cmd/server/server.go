// cmd/server/server.go
package main

import (
	"fmt"
	"net/http"
	"time"

	"github.com/campusrec/sportsarena/internal/api"
	"github.com/campusrec/sportsarena/internal/api/auth"
	"github.com/campusrec/sportsarena/internal/api/bookings"
	"github.com/campusrec/sportsarena/internal/api/courts"
	"github.com/campusrec/sportsarena/internal/api/events"
	"github.com/campusrec/sportsarena/internal/api/penalties"
	"github.com/campusrec/sportsarena/internal/api/staff"
	"github.com/campusrec/sportsarena/internal/config"
	"github.com/campusrec/sportsarena/internal/metrics"
)

func newServer(cfg *config.Config) *http.Server {
	router := http.NewServeMux()

	handler := api.ChainMiddleware(
		router,
		api.WithLogging,
		api.WithRecovery,
		api.WithRequestID,
		api.WithAuth,
	)

	registerRoutes(router, cfg)

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func registerRoutes(mux *http.ServeMux, cfg *config.Config) {
	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	if cfg.Features.EnableMetrics {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	// Auth routes
	mux.HandleFunc("POST /api/v1/auth/register", auth.HandleRegister)
	mux.HandleFunc("POST /api/v1/auth/login", auth.HandleLogin)
	mux.HandleFunc("POST /api/v1/auth/logout", auth.HandleLogout)
	mux.HandleFunc("GET /api/v1/auth/me", auth.HandleMe)

	// Booking routes
	mux.HandleFunc("POST /api/v1/bookings", bookings.HandleBookingCreate)
	mux.HandleFunc("GET /api/v1/bookings", bookings.HandleBookingsList)
	mux.HandleFunc("GET /api/v1/bookings/all", bookings.HandleBookingsAll)
	mux.HandleFunc("PATCH /api/v1/bookings/{id}", bookings.HandleBookingUpdate)
	mux.HandleFunc("DELETE /api/v1/bookings/{id}", bookings.HandleBookingDelete)

	// Court catalog
	mux.HandleFunc("GET /api/v1/courts", courts.HandleCourtsList)

	// Event calendar
	mux.HandleFunc("GET /api/v1/events", events.HandleEventsList)
	mux.HandleFunc("POST /api/v1/events", events.HandleEventCreate)
	mux.HandleFunc("GET /api/v1/events/{id}", events.HandleEventGet)
	mux.HandleFunc("PUT /api/v1/events/{id}", events.HandleEventUpdate)
	mux.HandleFunc("DELETE /api/v1/events/{id}", events.HandleEventDelete)

	// Penalty routes
	mux.HandleFunc("GET /api/v1/penalties", penalties.HandlePenaltiesList)

	// Staff moderation
	mux.HandleFunc("POST /api/v1/staff/manage-booking", staff.HandleManageBooking)
	mux.HandleFunc("GET /api/v1/staff/penalties", staff.HandlePenaltiesList)
	mux.HandleFunc("PATCH /api/v1/staff/penalties", staff.HandlePenaltyUpdate)
}
