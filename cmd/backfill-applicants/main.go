// Command backfill-applicants fills in missing total_applicants counters on
// jobs and, with -repair-drift, relinks applications missing from a job's list.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"jobportal/internal/application/store"
	"jobportal/internal/backfill"
	"jobportal/internal/platform/config"
	"jobportal/internal/platform/logger"
	"jobportal/internal/platform/postgres"
)

func main() {
	repairDrift := flag.Bool("repair-drift", false, "also fix counters and lists that disagree with recorded applications")
	dryRun := flag.Bool("dry-run", false, "report jobs that need repair without writing")
	workers := flag.Int("workers", 4, "number of jobs reconciled concurrently")
	flag.Parse()

	cfg := config.FromEnv()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log, backfill.Options{
		RepairDrift: *repairDrift,
		DryRun:      *dryRun,
		Workers:     *workers,
	}); err != nil {
		log.Error("backfill failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Server, log *slog.Logger, opts backfill.Options) error {
	if cfg.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}

	db, err := postgres.Open(ctx, cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := store.Migrate(ctx, db); err != nil {
		return err
	}

	report, err := backfill.New(store.NewPostgres(db), log, opts).Run(ctx)
	log.Info("backfill complete",
		"scanned", report.Scanned,
		"updated", report.Updated,
		"relinked", report.Relinked,
		"failed", report.Failed,
		"dry_run", opts.DryRun,
	)
	return err
}
