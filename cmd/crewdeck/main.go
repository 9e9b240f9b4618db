package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/crewdeck/crewdeck/pkg/api"
	"github.com/crewdeck/crewdeck/pkg/audit"
	"github.com/crewdeck/crewdeck/pkg/config"
	"github.com/crewdeck/crewdeck/pkg/domainlock"
	"github.com/crewdeck/crewdeck/pkg/middleware"
	"github.com/crewdeck/crewdeck/pkg/notify"
	"github.com/crewdeck/crewdeck/pkg/observability"
	"github.com/crewdeck/crewdeck/pkg/orgs"
	"github.com/crewdeck/crewdeck/pkg/register"
	"github.com/crewdeck/crewdeck/pkg/storage"
	"github.com/crewdeck/crewdeck/pkg/users"
	"github.com/crewdeck/crewdeck/pkg/waitlist"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger := observability.NewLogger(cfg.Observability.LogLevel, os.Stdout)

	db, err := storage.OpenPostgres(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := storage.Migrate(ctx, db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient, err := storage.OpenRedis(cfg.Storage)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	auditor, err := audit.NewDBLogger(db)
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}

	metrics := observability.NewMetrics(nil)
	notifier := notify.NewRouter(
		notify.NewEmailSender(cfg.Mail),
		notify.NewSMSSender(cfg.SMS),
	)

	waitlistSvc := waitlist.NewService(
		waitlist.NewPostgresStore(db),
		users.NewPostgresService(db),
		notifier,
		cfg.Waitlist,
		auditor,
		metrics,
		logger,
	)

	gate := register.NewGate(
		waitlistSvc,
		orgs.NewPostgresService(db),
		users.NewPostgresService(db),
		domainlock.NewArbiter(redisClient, cfg.Lock),
		notifier,
		cfg.Register,
		auditor,
		metrics,
		logger,
	)

	server := api.NewServer(
		waitlistSvc,
		gate,
		middleware.NewSubmissionLimiter(redisClient),
		observability.NewHealthChecker(db, redisClient),
		metrics,
		logger,
	)

	httpServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      server,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Infof("admission API listening on %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
	logger.Info("stopped")
}
