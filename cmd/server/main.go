// cmd/server/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/campusrec/sportsarena/internal/api/auth"
	"github.com/campusrec/sportsarena/internal/api/bookings"
	"github.com/campusrec/sportsarena/internal/api/courts"
	"github.com/campusrec/sportsarena/internal/api/events"
	"github.com/campusrec/sportsarena/internal/api/penalties"
	"github.com/campusrec/sportsarena/internal/api/staff"
	"github.com/campusrec/sportsarena/internal/config"
	"github.com/campusrec/sportsarena/internal/db"
	"github.com/campusrec/sportsarena/internal/email"
	"github.com/campusrec/sportsarena/internal/ratelimit"
	"github.com/campusrec/sportsarena/internal/scheduler"
)

const shutdownTimeout = 30 * time.Second

func setupLogger(environment string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.App.Environment)

	database, err := db.NewFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer database.Close()

	var sender email.Sender
	if cfg.EmailEnabled() {
		sesClient, err := email.NewSESClient(
			cfg.Email.AccessKeyID, cfg.Email.SecretAccessKey, cfg.Email.Region, cfg.Email.Sender)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize SES client")
		}
		sender = sesClient
		log.Info().Str("region", cfg.Email.Region).Msg("Email sending enabled")
	} else {
		log.Info().Msg("Email sending disabled")
	}

	loginLimiter := ratelimit.New(ratelimit.DefaultConfig())
	defer loginLimiter.Close()

	auth.ConfigureSessions(time.Duration(cfg.Auth.SessionTTLHours)*time.Hour, cfg.App.Environment)
	auth.InitHandlers(database, loginLimiter)
	bookings.InitHandlers(database, sender)
	courts.InitHandlers(database)
	events.InitHandlers(database)
	penalties.InitHandlers(database)
	staff.InitHandlers(database, sender)

	if err := scheduler.Init(); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize scheduler")
	}
	if err := scheduler.RegisterSweepJobs(database, cfg.Jobs); err != nil {
		log.Fatal().Err(err).Msg("Failed to register sweep jobs")
	}
	if err := scheduler.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start scheduler")
	}

	server := newServer(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info().Int("port", cfg.App.Port).Str("environment", cfg.App.Environment).Msg("Starting server")
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		log.Info().Msg("Shutting down server")
		if err := scheduler.Stop(); err != nil {
			log.Error().Err(err).Msg("Scheduler shutdown error")
		}
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("Server terminated with error")
		os.Exit(1)
	}
}
