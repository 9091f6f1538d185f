// internal/api/penalties/handlers.go
package penalties

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/campusrec/sportsarena/internal/api/apiutil"
	appdb "github.com/campusrec/sportsarena/internal/db"
)

const penaltyQueryTimeout = 5 * time.Second

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

// Restriction returns the advisory booking restriction for a severity. It is
// display text only; nothing enforces it.
func Restriction(severity string) string {
	switch severity {
	case appdb.PenaltySeverityLow:
		return "Warning - No booking restrictions"
	case appdb.PenaltySeverityMedium:
		return "Maximum 3 bookings per week"
	case appdb.PenaltySeverityHigh:
		return "Maximum 2 bookings per week"
	default:
		return ""
	}
}

// View surfaces the expiry the storage model keeps out of its own JSON
// encoding, plus the advisory restriction text.
type View struct {
	appdb.Penalty
	ExpiresAt   *time.Time `json:"expiresAt"`
	Restriction string     `json:"restriction"`
}

func ToView(p appdb.Penalty) View {
	view := View{Penalty: p, Restriction: Restriction(p.Severity)}
	if p.ExpiresAt.Valid {
		t := p.ExpiresAt.Time
		view.ExpiresAt = &t
	}
	return view
}

// GET /api/v1/penalties
func HandlePenaltiesList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := queries
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	principal := apiutil.RequireAuthenticated(w, r)
	if principal == nil {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), penaltyQueryTimeout)
	defer cancel()

	list, err := q.ListPenaltiesForUser(ctx, principal.UserID)
	if err != nil {
		logger.Error().Err(err).Int64("user_id", principal.UserID).Msg("Failed to list penalties")
		apiutil.WriteError(w, http.StatusInternalServerError, "Failed to fetch penalties")
		return
	}

	views := make([]View, 0, len(list))
	for _, p := range list {
		views = append(views, ToView(p))
	}
	_ = apiutil.WriteJSON(w, http.StatusOK, views)
}
