// internal/api/bookings/handlers.go
package bookings

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/campusrec/sportsarena/internal/api/apiutil"
	"github.com/campusrec/sportsarena/internal/api/authz"
	appdb "github.com/campusrec/sportsarena/internal/db"
	"github.com/campusrec/sportsarena/internal/email"
	"github.com/campusrec/sportsarena/internal/metrics"
)

const bookingQueryTimeout = 5 * time.Second

var (
	queries     *appdb.Queries
	store       *appdb.DB
	sender      email.Sender
	queriesOnce sync.Once
)

// InitHandlers must be called during server startup before handling
// requests. emailSender may be nil to disable notifications.
func InitHandlers(database *appdb.DB, emailSender email.Sender) {
	if database == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = database.Queries
		store = database
		sender = emailSender
	})
}

type createBookingRequest struct {
	CourtID      int64  `json:"courtId"`
	Date         string `json:"date"`
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Participants *int64 `json:"participants,omitempty"`
}

// bookingResponse joins a booking with court and user summaries, mirroring
// what the booking grid and history views consume.
type bookingResponse struct {
	appdb.Booking
	Court appdb.CourtSummary `json:"court"`
	User  appdb.UserSummary  `json:"user"`
}

// POST /api/v1/bookings
func HandleBookingCreate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q, database := loadQueries(), loadDB()
	if q == nil || database == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	principal := apiutil.RequireAuthenticated(w, r)
	if principal == nil {
		return
	}

	var req createBookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.CourtID <= 0 || req.Date == "" || req.StartTime == "" || req.EndTime == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "Missing required fields")
		return
	}

	date, err := apiutil.ParseDateField(req.Date, "date")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	startTime, err := apiutil.ParseClockField(req.StartTime, "startTime")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	endTime, err := apiutil.ParseClockField(req.EndTime, "endTime")
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if endTime <= startTime {
		apiutil.WriteError(w, http.StatusBadRequest, "End time must be after start time")
		return
	}

	participants := int64(1)
	if req.Participants != nil {
		if *req.Participants <= 0 {
			apiutil.WriteError(w, http.StatusBadRequest, "participants must be greater than 0")
			return
		}
		participants = *req.Participants
	}

	slot, err := SlotStart(date, startTime, time.Local)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid date or time")
		return
	}
	if err := ValidateAdmissionWindow(slot, time.Now()); err != nil {
		metrics.BookingsRejected.WithLabelValues("window").Inc()
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	court, err := q.GetCourt(ctx, req.CourtID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Court not found")
			return
		}
		logger.Error().Err(err).Int64("court_id", req.CourtID).Msg("Failed to load court")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create booking")
		return
	}

	// The capacity read and the insert must not interleave with another
	// writer; RunInTx keeps the check-then-act sequence atomic.
	var created appdb.Booking
	err = database.RunInTx(ctx, func(txdb *appdb.DB) error {
		qtx := txdb.Queries

		taken, err := qtx.UserHasSlotBooking(ctx, appdb.UserSlotParams{
			UserID:    principal.UserID,
			CourtID:   court.ID,
			Date:      date,
			StartTime: startTime,
		})
		if err != nil {
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to create booking", Err: err}
		}
		if taken {
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "You already have a booking for this time slot"}
		}

		booked, err := qtx.SumSlotParticipants(ctx, appdb.SlotParams{
			CourtID:   court.ID,
			Date:      date,
			StartTime: startTime,
		})
		if err != nil {
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to create booking", Err: err}
		}
		if err := CheckCapacity(booked, participants, court.MaxCapacity); err != nil {
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: err.Error()}
		}

		created, err = qtx.CreateBooking(ctx, appdb.CreateBookingParams{
			UserID:       principal.UserID,
			CourtID:      court.ID,
			Date:         date,
			StartTime:    startTime,
			EndTime:      endTime,
			Participants: participants,
			Status:       appdb.BookingStatusConfirmed,
		})
		if err != nil {
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to create booking", Err: err}
		}
		return nil
	})
	if err != nil {
		var herr apiutil.HandlerError
		if errors.As(err, &herr) {
			if herr.Status == http.StatusBadRequest {
				metrics.BookingsRejected.WithLabelValues("capacity").Inc()
			} else {
				logger.Error().Err(herr.Err).Int64("court_id", court.ID).Msg(herr.Message)
			}
			apiutil.WriteError(w, herr.Status, herr.Message)
			return
		}
		logger.Error().Err(err).Int64("court_id", court.ID).Msg("Failed to create booking")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create booking")
		return
	}

	metrics.BookingsCreated.Inc()
	logger.Info().
		Int64("booking_id", created.ID).
		Int64("court_id", court.ID).
		Str("date", created.Date).
		Str("start_time", created.StartTime).
		Msg("Booking created")

	email.SendNotification(ctx, q, sender, principal.UserID, email.BookingConfirmation(created, court), logger)

	_ = apiutil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "Booking created successfully",
		"booking": bookingResponse{
			Booking: created,
			Court:   appdb.CourtSummary{ID: court.ID, Name: court.Name, Sport: court.Sport},
			User:    appdb.UserSummary{ID: principal.UserID, Name: principal.Name},
		},
	})
}

// GET /api/v1/bookings?userId=
func HandleBookingsList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	principal := apiutil.RequireAuthenticated(w, r)
	if principal == nil {
		return
	}

	userID := principal.UserID
	if raw := strings.TrimSpace(r.URL.Query().Get("userId")); raw != "" {
		requested, err := apiutil.ParsePositiveInt64Field(raw, "userId")
		if err != nil {
			apiutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		// Reading someone else's history is a staff capability.
		if requested != principal.UserID && !authz.IsStaff(principal) {
			apiutil.WriteError(w, http.StatusForbidden, "Unauthorized to view these bookings")
			return
		}
		userID = requested
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	list, err := q.ListBookingsForUser(ctx, userID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", userID).Msg("Failed to list bookings")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch bookings")
		return
	}
	if list == nil {
		list = []appdb.BookingWithCourt{}
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, list)
}

type updateBookingRequest struct {
	Status string `json:"status"`
}

// PATCH /api/v1/bookings/{id}
func HandleBookingUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	principal := apiutil.RequireAuthenticated(w, r)
	if principal == nil {
		return
	}

	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req updateBookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status != appdb.BookingStatusCancelled {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid status. Only 'cancelled' is allowed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	booking, err := q.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Booking not found")
			return
		}
		logger.Error().Err(err).Int64("booking_id", id).Msg("Failed to load booking")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update booking")
		return
	}

	if !authz.CanActOnBooking(principal, booking.UserID) {
		apiutil.WriteError(w, http.StatusForbidden, "Unauthorized to modify this booking")
		return
	}
	if booking.Status != appdb.BookingStatusConfirmed {
		apiutil.WriteError(w, http.StatusBadRequest, "Only confirmed bookings can be modified")
		return
	}

	updated, err := q.UpdateBookingStatus(ctx, appdb.UpdateBookingStatusParams{
		ID:     id,
		Status: appdb.BookingStatusCancelled,
	})
	if err != nil {
		logger.Error().Err(err).Int64("booking_id", id).Msg("Failed to update booking status")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update booking")
		return
	}

	metrics.BookingsCancelled.Inc()
	logger.Info().Int64("booking_id", id).Str("status", updated.Status).Msg("Booking status updated")
	_ = apiutil.WriteJSON(w, http.StatusOK, updated)
}

// DELETE /api/v1/bookings/{id}
func HandleBookingDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	principal := apiutil.RequireAuthenticated(w, r)
	if principal == nil {
		return
	}

	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	booking, err := q.GetBooking(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Booking not found")
			return
		}
		logger.Error().Err(err).Int64("booking_id", id).Msg("Failed to load booking")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to delete booking")
		return
	}

	if !authz.CanActOnBooking(principal, booking.UserID) {
		apiutil.WriteError(w, http.StatusForbidden, "Unauthorized to delete this booking")
		return
	}

	if err := q.DeleteBooking(ctx, id); err != nil {
		logger.Error().Err(err).Int64("booking_id", id).Msg("Failed to delete booking")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to delete booking")
		return
	}

	logger.Info().Int64("booking_id", id).Msg("Booking deleted")
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Booking deleted successfully"})
}

// GET /api/v1/bookings/all?date=
//
// With a date filter this is a public occupancy projection that never leaks
// user identity; without one it is a staff-only full listing.
func HandleBookingsAll(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), bookingQueryTimeout)
	defer cancel()

	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		date, err := apiutil.ParseDateField(raw, "date")
		if err != nil {
			apiutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}

		slots, err := q.ListSlotOccupancyByDate(ctx, date)
		if err != nil {
			logger.Error().Err(err).Str("date", date).Msg("Failed to list slot occupancy")
			apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch bookings")
			return
		}
		if slots == nil {
			slots = []appdb.SlotOccupancy{}
		}
		_ = apiutil.WriteJSON(w, http.StatusOK, slots)
		return
	}

	if !apiutil.RequireStaff(w, r) {
		return
	}

	list, err := q.ListAllBookings(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list all bookings")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch bookings")
		return
	}
	if list == nil {
		list = []appdb.BookingAdminRow{}
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, list)
}

func loadQueries() *appdb.Queries { return queries }
func loadDB() *appdb.DB           { return store }
