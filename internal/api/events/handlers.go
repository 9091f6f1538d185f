// internal/api/events/handlers.go
package events

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/campusrec/sportsarena/internal/api/apiutil"
	appdb "github.com/campusrec/sportsarena/internal/db"
)

const eventQueryTimeout = 5 * time.Second

var (
	queries     *appdb.Queries
	queriesOnce sync.Once
)

func InitHandlers(database *appdb.DB) {
	if database == nil {
		return
	}
	queriesOnce.Do(func() {
		queries = database.Queries
	})
}

type eventRequest struct {
	Title           string  `json:"title"`
	Description     *string `json:"description,omitempty"`
	Sport           string  `json:"sport"`
	Date            string  `json:"date"`
	StartTime       string  `json:"startTime"`
	EndTime         string  `json:"endTime"`
	Location        string  `json:"location"`
	MaxParticipants *int64  `json:"maxParticipants,omitempty"`
}

// eventView surfaces the nullable columns the storage model keeps out of its
// own JSON encoding.
type eventView struct {
	appdb.Event
	Description     *string `json:"description"`
	MaxParticipants *int64  `json:"maxParticipants"`
}

func toView(e appdb.Event) eventView {
	view := eventView{Event: e}
	if e.Description.Valid {
		d := e.Description.String
		view.Description = &d
	}
	if e.MaxParticipants.Valid {
		m := e.MaxParticipants.Int64
		view.MaxParticipants = &m
	}
	return view
}

func toViews(list []appdb.Event) []eventView {
	views := make([]eventView, 0, len(list))
	for _, e := range list {
		views = append(views, toView(e))
	}
	return views
}

// validate normalizes the request in place and reports the first problem as
// a caller-facing message.
func (req *eventRequest) validate() error {
	req.Title = strings.TrimSpace(req.Title)
	req.Sport = strings.TrimSpace(req.Sport)
	req.Location = strings.TrimSpace(req.Location)
	if req.Title == "" || req.Sport == "" || req.Location == "" {
		return errors.New("Missing required fields")
	}

	date, err := apiutil.ParseDateField(req.Date, "date")
	if err != nil {
		return err
	}
	req.Date = date

	startTime, err := apiutil.ParseClockField(req.StartTime, "startTime")
	if err != nil {
		return err
	}
	req.StartTime = startTime

	endTime, err := apiutil.ParseClockField(req.EndTime, "endTime")
	if err != nil {
		return err
	}
	req.EndTime = endTime

	// Zero-padded HH:MM strings order lexicographically.
	if req.EndTime <= req.StartTime {
		return errors.New("End time must be after start time")
	}

	if req.MaxParticipants != nil && *req.MaxParticipants <= 0 {
		return errors.New("maxParticipants must be greater than 0")
	}
	return nil
}

func (req *eventRequest) description() sql.NullString {
	if req.Description == nil {
		return sql.NullString{}
	}
	trimmed := strings.TrimSpace(*req.Description)
	if trimmed == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: trimmed, Valid: true}
}

func (req *eventRequest) maxParticipants() sql.NullInt64 {
	return apiutil.ToNullInt64(req.MaxParticipants)
}

// GET /api/v1/events?month=&year=
//
// With month and year the listing covers that calendar month; otherwise it
// defaults to everything from today onward.
func HandleEventsList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventQueryTimeout)
	defer cancel()

	monthRaw := strings.TrimSpace(r.URL.Query().Get("month"))
	yearRaw := strings.TrimSpace(r.URL.Query().Get("year"))

	var (
		list []appdb.Event
		err  error
	)
	switch {
	case monthRaw != "" && yearRaw != "":
		month, merr := strconv.Atoi(monthRaw)
		if merr != nil || month < 1 || month > 12 {
			apiutil.WriteError(w, http.StatusBadRequest, "month must be between 1 and 12")
			return
		}
		year, yerr := strconv.Atoi(yearRaw)
		if yerr != nil || year < 2000 || year > 2200 {
			apiutil.WriteError(w, http.StatusBadRequest, "year must be a valid year")
			return
		}
		first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
		last := first.AddDate(0, 1, -1)
		list, err = q.ListEventsBetween(ctx, appdb.EventDateRangeParams{
			StartDate: first.Format("2006-01-02"),
			EndDate:   last.Format("2006-01-02"),
		})
	case monthRaw != "" || yearRaw != "":
		apiutil.WriteError(w, http.StatusBadRequest, "month and year must be provided together")
		return
	default:
		list, err = q.ListUpcomingEvents(ctx, time.Now().Format("2006-01-02"))
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list events")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch events")
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, toViews(list))
}

// GET /api/v1/events/{id}
func HandleEventGet(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventQueryTimeout)
	defer cancel()

	event, err := q.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Event not found")
			return
		}
		logger.Error().Err(err).Int64("event_id", id).Msg("Failed to load event")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch event")
		return
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, toView(event))
}

// POST /api/v1/events
func HandleEventCreate(w http.ResponseWriter, r *http.Request) {
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

	var req eventRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventQueryTimeout)
	defer cancel()

	event, err := q.CreateEvent(ctx, appdb.CreateEventParams{
		Title:           req.Title,
		Description:     req.description(),
		Sport:           req.Sport,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Location:        req.Location,
		MaxParticipants: req.maxParticipants(),
	})
	if err != nil {
		logger.Error().Err(err).Str("title", req.Title).Msg("Failed to create event")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to create event")
		return
	}

	logger.Info().Int64("event_id", event.ID).Str("title", event.Title).Msg("Event created")
	_ = apiutil.WriteJSON(w, http.StatusCreated, toView(event))
}

// PUT /api/v1/events/{id}
func HandleEventUpdate(w http.ResponseWriter, r *http.Request) {
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

	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req eventRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := req.validate(); err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventQueryTimeout)
	defer cancel()

	event, err := q.UpdateEvent(ctx, appdb.UpdateEventParams{
		ID:              id,
		Title:           req.Title,
		Description:     req.description(),
		Sport:           req.Sport,
		Date:            req.Date,
		StartTime:       req.StartTime,
		EndTime:         req.EndTime,
		Location:        req.Location,
		MaxParticipants: req.maxParticipants(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Event not found")
			return
		}
		logger.Error().Err(err).Int64("event_id", id).Msg("Failed to update event")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to update event")
		return
	}

	logger.Info().Int64("event_id", event.ID).Msg("Event updated")
	_ = apiutil.WriteJSON(w, http.StatusOK, toView(event))
}

// DELETE /api/v1/events/{id}
func HandleEventDelete(w http.ResponseWriter, r *http.Request) {
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

	id, err := apiutil.PathID(r)
	if err != nil {
		apiutil.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), eventQueryTimeout)
	defer cancel()

	if err := q.DeleteEvent(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteError(w, http.StatusNotFound, "Event not found")
			return
		}
		logger.Error().Err(err).Int64("event_id", id).Msg("Failed to delete event")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to delete event")
		return
	}

	logger.Info().Int64("event_id", id).Msg("Event deleted")
	_ = apiutil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Event deleted successfully"})
}
