package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/crewdeck/crewdeck/pkg/audit"
	"github.com/crewdeck/crewdeck/pkg/config"
	"github.com/crewdeck/crewdeck/pkg/notify"
	"github.com/crewdeck/crewdeck/pkg/observability"
	"github.com/crewdeck/crewdeck/pkg/storage"
	"github.com/crewdeck/crewdeck/pkg/users"
	"github.com/crewdeck/crewdeck/pkg/waitlist"
)

var (
	schedule  = flag.String("schedule", "*/15 * * * *", "Cron schedule for invite batch runs")
	cohortTag = flag.String("cohort", "", "Cohort tag for issued invites (empty = configured default)")
	runOnce   = flag.Bool("run-once", false, "Run one invite batch and exit (for testing)")
)

func main() {
	flag.Parse()

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

	auditor, err := audit.NewDBLogger(db)
	if err != nil {
		log.Fatalf("Failed to initialize audit logger: %v", err)
	}

	notifier := notify.NewRouter(
		notify.NewEmailSender(cfg.Mail),
		notify.NewSMSSender(cfg.SMS),
	)

	svc := waitlist.NewService(
		waitlist.NewPostgresStore(db),
		users.NewPostgresService(db),
		notifier,
		cfg.Waitlist,
		auditor,
		observability.NewMetrics(nil),
		logger,
	)

	batchLog := logrus.New()
	batchLog.SetLevel(logrus.InfoLevel)

	runBatch := func() {
		res, err := svc.ProcessInviteBatch(context.Background(), *cohortTag)
		if err != nil {
			batchLog.WithError(err).Error("invite batch failed")
			return
		}
		if res.Skipped {
			batchLog.WithField("reason", res.Reason).Info("invite batch skipped")
			return
		}
		batchLog.WithFields(logrus.Fields{
			"invited": res.Invited,
			"cohort":  *cohortTag,
		}).Info("invite batch completed")
	}

	// Run once mode (for testing or manual catch-up)
	if *runOnce {
		runBatch()
		return
	}

	c := cron.New()
	if _, err := c.AddFunc(*schedule, runBatch); err != nil {
		log.Fatalf("Failed to schedule invite batches: %v", err)
	}

	c.Start()
	log.Println("Crewdeck inviter started")
	log.Printf("Invite batch schedule: %s", *schedule)
	log.Printf("Send window: %s-%s %s", cfg.Waitlist.InviteWindowStart, cfg.Waitlist.InviteWindowEnd, cfg.Waitlist.InviteWindowTZ)

	// Wait for termination signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutting down gracefully...")

	ctx := c.Stop()
	<-ctx.Done()

	log.Println("Inviter stopped")
}
