package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	"github.com/campusrec/sportsarena/internal/config"
	"github.com/campusrec/sportsarena/internal/db"
	"github.com/campusrec/sportsarena/internal/metrics"
)

const sweepTimeout = 2 * time.Minute

// RegisterSweepJobs registers the penalty expiry and booking completion
// sweeps. An empty cron expression disables the corresponding sweep.
func RegisterSweepJobs(database *db.DB, jobs config.JobsConfig) error {
	if database == nil {
		return fmt.Errorf("sweep jobs require database")
	}

	if jobs.PenaltyExpiryCron != "" {
		if err := registerPenaltyExpirySweep(database, jobs.PenaltyExpiryCron); err != nil {
			return err
		}
	} else {
		log.Info().Msg("Penalty expiry sweep disabled")
	}

	if jobs.BookingCompletionCron != "" {
		if err := registerBookingCompletionSweep(database, jobs.BookingCompletionCron); err != nil {
			return err
		}
	} else {
		log.Info().Msg("Booking completion sweep disabled")
	}

	return nil
}

// registerPenaltyExpirySweep resolves active penalties whose expiry has
// passed.
func registerPenaltyExpirySweep(database *db.DB, cronExpr string) error {
	jobName := "penalty_expiry_sweep"
	jobLogger := log.With().
		Str("component", "penalty_expiry_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		resolved, err := database.Queries.ResolveExpiredPenalties(ctx, time.Now())
		if err != nil {
			jobLogger.Error().Err(err).Msg("Penalty expiry sweep failed")
			return
		}
		if resolved > 0 {
			metrics.PenaltiesExpired.Add(float64(resolved))
			jobLogger.Info().Int64("resolved", resolved).Msg("Expired penalties resolved")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add penalty expiry job: %w", err)
	}

	jobLogger.Info().Msg("Penalty expiry sweep registered")
	return nil
}

// registerBookingCompletionSweep marks confirmed bookings whose end time has
// passed as completed.
func registerBookingCompletionSweep(database *db.DB, cronExpr string) error {
	jobName := "booking_completion_sweep"
	jobLogger := log.With().
		Str("component", "booking_completion_job").
		Str("job_name", jobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(jobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), sweepTimeout)
		defer cancel()

		now := time.Now()
		completed, err := database.Queries.CompleteElapsedBookings(ctx, db.CompleteElapsedBookingsParams{
			Today:   now.Format("2006-01-02"),
			NowTime: now.Format("15:04"),
		})
		if err != nil {
			jobLogger.Error().Err(err).Msg("Booking completion sweep failed")
			return
		}
		if completed > 0 {
			jobLogger.Info().Int64("completed", completed).Msg("Elapsed bookings completed")
		}
	}, gocron.WithSingletonMode(gocron.LimitModeWait))
	if err != nil {
		return fmt.Errorf("add booking completion job: %w", err)
	}

	jobLogger.Info().Msg("Booking completion sweep registered")
	return nil
}
