// Package backfill repairs the denormalised applicant counter on jobs.
//
// By default it only fills jobs whose total_applicants was never set, using the
// length of the job's application list. With RepairDrift it also relinks
// applications recorded against a job but missing from its list, and rewrites
// counters that disagree with the list.
package backfill

import (
	"context"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	id "jobportal/pkg/domain"
)

// JobCounts is the counter state of one job.
type JobCounts struct {
	JobID id.JobID
	Title string
	// Listed is the job's application list as stored on the job.
	Listed []id.ApplicationID
	// Stored is total_applicants; nil when never set.
	Stored *int
	// Recorded are the applications whose job is this one, oldest first.
	Recorded []id.ApplicationID
}

type Store interface {
	ListJobCounts(ctx context.Context) ([]JobCounts, error)
	Reconcile(ctx context.Context, jobID id.JobID, missing []id.ApplicationID) (int, error)
}

type Options struct {
	RepairDrift bool
	DryRun      bool
	Workers     int
}

// Report summarises a run.
type Report struct {
	Scanned  int
	Updated  int
	Relinked int
	Failed   int
}

type Runner struct {
	store  Store
	logger *slog.Logger
	opts   Options
}

func New(store Store, logger *slog.Logger, opts Options) *Runner {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{store: store, logger: logger, opts: opts}
}

// plan decides what a job needs. ok is false when the job is consistent.
func (r *Runner) plan(job JobCounts) (missing []id.ApplicationID, ok bool) {
	if r.opts.RepairDrift {
		listed := make(map[id.ApplicationID]struct{}, len(job.Listed))
		for _, appID := range job.Listed {
			listed[appID] = struct{}{}
		}
		for _, appID := range job.Recorded {
			if _, found := listed[appID]; !found {
				missing = append(missing, appID)
			}
		}
		want := len(job.Listed) + len(missing)
		if job.Stored == nil || *job.Stored != want || len(missing) > 0 {
			return missing, true
		}
		return nil, false
	}
	return nil, job.Stored == nil
}

// Run scans every job and reconciles the ones that need it. Individual job
// failures are logged and counted; only a failure to list jobs aborts.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	jobs, err := r.store.ListJobCounts(ctx)
	if err != nil {
		return Report{}, err
	}

	var (
		mu     sync.Mutex
		report = Report{Scanned: len(jobs)}
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)

	for _, job := range jobs {
		missing, needed := r.plan(job)
		if !needed {
			continue
		}
		if r.opts.DryRun {
			r.logger.InfoContext(ctx, "job needs backfill",
				"job_id", job.JobID.String(),
				"title", job.Title,
				"listed", len(job.Listed),
				"missing", len(missing),
			)
			mu.Lock()
			report.Updated++
			report.Relinked += len(missing)
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			total, err := r.store.Reconcile(gctx, job.JobID, missing)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed++
				r.logger.ErrorContext(gctx, "backfill failed",
					"job_id", job.JobID.String(),
					"error", err,
				)
				return nil
			}
			report.Updated++
			report.Relinked += len(missing)
			r.logger.InfoContext(gctx, "backfilled job",
				"job_id", job.JobID.String(),
				"title", job.Title,
				"total_applicants", total,
			)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return report, err
	}
	return report, ctx.Err()
}
