// internal/api/staff/handlers.go
package staff

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
	"github.com/campusrec/sportsarena/internal/api/penalties"
	appdb "github.com/campusrec/sportsarena/internal/db"
	"github.com/campusrec/sportsarena/internal/email"
	"github.com/campusrec/sportsarena/internal/metrics"
)

const staffQueryTimeout = 5 * time.Second

// Moderation actions accepted by manage-booking.
const (
	ActionNoShow = "no-show"
	ActionCancel = "cancel"
)

// PenaltyLevelNone skips penalty creation.
const PenaltyLevelNone = "no-penalty"

var (
	queries     *appdb.Queries
	store       *appdb.DB
	sender      email.Sender
	queriesOnce sync.Once
)

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

// PenaltyExpiry computes when a penalty of the given severity lapses: 30 days
// for low, 90 for medium and high.
func PenaltyExpiry(severity string, issued time.Time) time.Time {
	if severity == appdb.PenaltySeverityLow {
		return issued.AddDate(0, 0, 30)
	}
	return issued.AddDate(0, 0, 90)
}

type manageBookingRequest struct {
	BookingID    int64  `json:"bookingId"`
	Action       string `json:"action"`
	Note         string `json:"note,omitempty"`
	PenaltyLevel string `json:"penaltyLevel,omitempty"`
}

// POST /api/v1/staff/manage-booking
//
// Cancels a confirmed booking for a no-show or a staff-initiated
// cancellation, optionally issuing a penalty, all in one transaction.
func HandleManageBooking(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q, database := queries, store
	if q == nil || database == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if !apiutil.RequireStaff(w, r) {
		return
	}

	var req manageBookingRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.BookingID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "bookingId is required")
		return
	}
	if req.Action != ActionNoShow && req.Action != ActionCancel {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid action. Must be 'no-show' or 'cancel'")
		return
	}

	req.Note = strings.TrimSpace(req.Note)
	if req.Action == ActionCancel && req.Note == "" {
		apiutil.WriteError(w, http.StatusBadRequest, "Cancellation note is required")
		return
	}

	// A no-show always carries the low warning penalty; penaltyLevel only
	// applies to staff cancellations.
	var severity string
	switch req.Action {
	case ActionNoShow:
		severity = appdb.PenaltySeverityLow
	case ActionCancel:
		switch level := strings.TrimSpace(req.PenaltyLevel); level {
		case "", PenaltyLevelNone:
		case appdb.PenaltySeverityLow, appdb.PenaltySeverityMedium, appdb.PenaltySeverityHigh:
			severity = level
		default:
			apiutil.WriteError(w, http.StatusBadRequest, "Invalid penaltyLevel. Must be 'low', 'medium', 'high', or 'no-penalty'")
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), staffQueryTimeout)
	defer cancel()

	var (
		booking appdb.Booking
		penalty *appdb.Penalty
	)
	err := database.RunInTx(ctx, func(txdb *appdb.DB) error {
		qtx := txdb.Queries

		current, err := qtx.GetBooking(ctx, req.BookingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return apiutil.HandlerError{Status: http.StatusNotFound, Message: "Booking not found"}
			}
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to manage booking", Err: err}
		}
		if current.Status != appdb.BookingStatusConfirmed {
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Only confirmed bookings can be modified"}
		}

		booking, err = qtx.UpdateBookingStatus(ctx, appdb.UpdateBookingStatusParams{
			ID:     current.ID,
			Status: appdb.BookingStatusCancelled,
		})
		if err != nil {
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to manage booking", Err: err}
		}

		if severity == "" {
			return nil
		}

		reason := req.Note
		if req.Action == ActionNoShow {
			reason = "No Show"
		}
		created, err := qtx.CreatePenalty(ctx, appdb.CreatePenaltyParams{
			UserID:    current.UserID,
			Reason:    reason,
			Severity:  severity,
			Status:    appdb.PenaltyStatusActive,
			ExpiresAt: sql.NullTime{Time: PenaltyExpiry(severity, time.Now()), Valid: true},
		})
		if err != nil {
			return apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to manage booking", Err: err}
		}
		penalty = &created
		return nil
	})
	if err != nil {
		var herr apiutil.HandlerError
		if errors.As(err, &herr) {
			if herr.Err != nil {
				logger.Error().Err(herr.Err).Int64("booking_id", req.BookingID).Msg(herr.Message)
			}
			apiutil.WriteError(w, herr.Status, herr.Message)
			return
		}
		logger.Error().Err(err).Int64("booking_id", req.BookingID).Msg("Failed to manage booking")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to manage booking")
		return
	}

	metrics.BookingsCancelled.Inc()
	if penalty != nil {
		metrics.PenaltiesIssued.WithLabelValues(penalty.Severity).Inc()
	}
	logger.Info().
		Int64("booking_id", booking.ID).
		Str("action", req.Action).
		Bool("penalty_issued", penalty != nil).
		Msg("Booking managed")

	if court, err := q.GetCourt(ctx, booking.CourtID); err == nil {
		email.SendNotification(ctx, q, sender, booking.UserID,
			email.BookingCancellation(booking, court, req.Note), logger)
	}

	resp := map[string]any{
		"message": "Booking updated successfully",
		"booking": booking,
	}
	if penalty != nil {
		resp["penalty"] = penalties.ToView(*penalty)
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, resp)
}

// GET /api/v1/staff/penalties
func HandlePenaltiesList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if !apiutil.RequireStaff(w, r) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), staffQueryTimeout)
	defer cancel()

	list, err := q.ListAllPenalties(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list penalties")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch penalties")
		return
	}

	type row struct {
		penalties.View
		User appdb.UserSummary `json:"user"`
	}
	views := make([]row, 0, len(list))
	for _, p := range list {
		views = append(views, row{View: penalties.ToView(p.Penalty), User: p.User})
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, views)
}

type updatePenaltyRequest struct {
	PenaltyID int64  `json:"penaltyId"`
	Status    string `json:"status"`
}

// PATCH /api/v1/staff/penalties
func HandlePenaltyUpdate(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if !apiutil.RequireStaff(w, r) {
		return
	}

	var req updatePenaltyRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.PenaltyID <= 0 {
		apiutil.WriteError(w, http.StatusBadRequest, "penaltyId is required")
		return
	}
	if req.Status != appdb.PenaltyStatusActive && req.Status != appdb.PenaltyStatusResolved {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid status. Must be 'active' or 'resolved'")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), staffQueryTimeout)
	defer cancel()

	penalty, err := q.UpdatePenaltyStatus(ctx, appdb.UpdatePenaltyStatusParams{
		ID:     req.PenaltyID,
		Status: req.Status,
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Penalty not found")
			return
		}
		logger.Error().Err(err).Int64("penalty_id", req.PenaltyID).Msg("Failed to update penalty")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update penalty")
		return
	}

	logger.Info().Int64("penalty_id", penalty.ID).Str("status", penalty.Status).Msg("Penalty status updated")
	_ = apiutil.WriteJSON(w, http.StatusOK, penalties.ToView(penalty))
}
