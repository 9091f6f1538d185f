// internal/api/courts/handlers.go
package courts

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/campusrec/sportsarena/internal/api/apiutil"
	appdb "github.com/campusrec/sportsarena/internal/db"
)

const courtQueryTimeout = 5 * time.Second

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

// slotView is the per-date occupancy attached to a court. It deliberately
// omits who holds the slot.
type slotView struct {
	StartTime    string `json:"startTime"`
	EndTime      string `json:"endTime"`
	Participants int64  `json:"participants"`
}

type courtView struct {
	appdb.Court
	Bookings []slotView `json:"bookings,omitempty"`
}

// GET /api/v1/courts?sport=&date=
func HandleCourtsList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	if apiutil.RequireAuthenticated(w, r) == nil {
		return
	}

	sport := strings.TrimSpace(r.URL.Query().Get("sport"))

	date := ""
	if raw := strings.TrimSpace(r.URL.Query().Get("date")); raw != "" {
		parsed, err := apiutil.ParseDateField(raw, "date")
		if err != nil {
			apiutil.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		date = parsed
	}

	ctx, cancel := context.WithTimeout(r.Context(), courtQueryTimeout)
	defer cancel()

	courts, err := q.ListCourts(ctx, sport)
	if err != nil {
		logger.Error().Err(err).Str("sport", sport).Msg("Failed to list courts")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch courts")
		return
	}

	views := make([]courtView, 0, len(courts))
	for _, court := range courts {
		view := courtView{Court: court}
		if date != "" {
			bookings, err := q.ListConfirmedBookingsForCourtDate(ctx, appdb.CourtDateParams{
				CourtID: court.ID,
				Date:    date,
			})
			if err != nil {
				logger.Error().Err(err).Int64("court_id", court.ID).Str("date", date).Msg("Failed to list court bookings")
				apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch courts")
				return
			}
			view.Bookings = make([]slotView, 0, len(bookings))
			for _, b := range bookings {
				view.Bookings = append(view.Bookings, slotView{
					StartTime:    b.StartTime,
					EndTime:      b.EndTime,
					Participants: b.Participants,
				})
			}
		}
		views = append(views, view)
	}

	_ = apiutil.WriteJSON(w, http.StatusOK, views)
}
