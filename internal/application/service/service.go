package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jobportal/internal/application/metrics"
	"jobportal/internal/application/models"
	id "jobportal/pkg/domain"
	dErrors "jobportal/pkg/domain-errors"
	"jobportal/pkg/platform/dedupe"
	"jobportal/pkg/platform/sentinel"
	"jobportal/pkg/requestcontext"
)

type ApplicationStore interface {
	FindByID(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error)
	FindByJobAndApplicant(ctx context.Context, jobID id.JobID, applicantID id.UserID) (*models.Application, error)
	ListByApplicant(ctx context.Context, applicantID id.UserID) ([]*models.Application, error)
	ListByIDs(ctx context.Context, ids []id.ApplicationID) ([]*models.Application, error)
	UpdateStatus(ctx context.Context, applicationID id.ApplicationID, status models.Status, updatedAt time.Time) error
}

type JobStore interface {
	FindByID(ctx context.Context, jobID id.JobID) (*models.Job, error)
	FindByIDs(ctx context.Context, ids []id.JobID) (map[id.JobID]*models.Job, error)
}

type UserStore interface {
	FindByID(ctx context.Context, userID id.UserID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []id.UserID) (map[id.UserID]*models.User, error)
}

type CompanyStore interface {
	FindByIDs(ctx context.Context, ids []id.CompanyID) (map[id.CompanyID]*models.Company, error)
}

// TxStores are the writes an apply performs atomically.
type TxStores interface {
	// CreateApplication inserts app. Returns sentinel.ErrConflict when an
	// application for the same (job, applicant) already exists.
	CreateApplication(ctx context.Context, app *models.Application) error
	// AppendApplication appends applicationID to the job's list and returns
	// the recomputed applicant count.
	AppendApplication(ctx context.Context, jobID id.JobID, applicationID id.ApplicationID) (int, error)
}

// ApplyTx provides a transactional boundary for apply writes.
// Implementations may wrap a database transaction or, in-memory, a lock.
type ApplyTx interface {
	RunInTx(ctx context.Context, fn func(stores TxStores) error) error
}

// Service manages the application lifecycle: apply, history, recruiter view
// and status review.
type Service struct {
	applications      ApplicationStore
	jobs              JobStore
	users             UserStore
	companies         CompanyStore
	tx                ApplyTx
	logger            *slog.Logger
	metrics           *metrics.Metrics
	tracer            trace.Tracer
	strictTransitions bool
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithStrictTransitions limits status updates to pending -> accepted|rejected.
func WithStrictTransitions(strict bool) Option {
	return func(s *Service) {
		s.strictTransitions = strict
	}
}

// New constructs a Service.
func New(applications ApplicationStore, jobs JobStore, users UserStore, companies CompanyStore, tx ApplyTx, opts ...Option) *Service {
	s := &Service{
		applications: applications,
		jobs:         jobs,
		users:        users,
		companies:    companies,
		tx:           tx,
		logger:       slog.Default(),
		tracer:       otel.Tracer("jobportal/application"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Apply submits an application from applicantID to jobID.
//
// Checks run in a fixed order: job id present, no prior application for the
// pair, job exists, applicant eligible. The insert and the job's applicant
// list update commit together.
func (s *Service) Apply(ctx context.Context, applicantID id.UserID, jobID id.JobID) (result *models.ApplyResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "application.Apply", trace.WithAttributes(
		attribute.String("job_id", jobID.String()),
		attribute.String("user_id", applicantID.String()),
	))
	defer func() {
		endSpan(span, err)
		s.observeApply(start)
	}()

	if jobID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "Job ID is required")
	}

	existing, err := s.applications.FindByJobAndApplicant(ctx, jobID, applicantID)
	if err == nil {
		s.incrementDuplicate()
		return nil, duplicateError(existing.ID)
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Application failed")
	}

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Job not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Application failed")
	}

	user, err := s.users.FindByID(ctx, applicantID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "User not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Application failed")
	}

	if eligibility := checkEligibility(user, job); eligibility != nil {
		s.incrementIneligible()
		return nil, dErrors.Wrap(eligibility, dErrors.CodeForbidden, eligibility.Message())
	}

	app, err := models.NewApplication(id.NewApplicationID(), jobID, applicantID, requestcontext.Now(ctx))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Application failed")
	}

	var total int
	txErr := s.tx.RunInTx(withTxShardKey(ctx, jobID.String()), func(stores TxStores) error {
		if err := stores.CreateApplication(ctx, app); err != nil {
			return err
		}
		var err error
		total, err = stores.AppendApplication(ctx, jobID, app.ID)
		return err
	})
	if txErr != nil {
		if errors.Is(txErr, sentinel.ErrConflict) {
			// Lost a race with a concurrent apply for the same pair.
			winner, err := s.applications.FindByJobAndApplicant(ctx, jobID, applicantID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeInternal, "Application failed")
			}
			s.incrementDuplicate()
			return nil, duplicateError(winner.ID)
		}
		if errors.Is(txErr, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Job not found")
		}
		if dErrors.HasCode(txErr, dErrors.CodeTimeout) {
			return nil, txErr
		}
		return nil, dErrors.Wrap(txErr, dErrors.CodeInternal, "Application failed")
	}

	s.incrementSubmitted()
	s.logger.InfoContext(ctx, "application submitted",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", app.ID.String(),
		"job_id", jobID.String(),
		"user_id", applicantID.String(),
		"total_applicants", total,
	)

	return &models.ApplyResult{Application: app, JobTitle: job.Title}, nil
}

// ListAppliedJobs returns every application of applicantID, newest first,
// each with its job and the job's company resolved. Dangling references
// resolve to nil rather than failing the listing.
func (s *Service) ListAppliedJobs(ctx context.Context, applicantID id.UserID) (applied []*models.AppliedJob, err error) {
	ctx, span := s.tracer.Start(ctx, "application.ListAppliedJobs", trace.WithAttributes(
		attribute.String("user_id", applicantID.String()),
	))
	defer func() { endSpan(span, err) }()

	apps, err := s.applications.ListByApplicant(ctx, applicantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applications")
	}
	sortNewestFirst(apps)

	jobIDs := dedupe.Keys(apps, func(app *models.Application) (id.JobID, bool) {
		return app.JobID, true
	})
	jobs, err := s.jobs.FindByIDs(ctx, jobIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load jobs")
	}

	companyIDs := dedupe.Keys(jobIDs, func(jobID id.JobID) (id.CompanyID, bool) {
		job, ok := jobs[jobID]
		if !ok {
			return id.CompanyID{}, false
		}
		return job.CompanyID, true
	})
	companies, err := s.companies.FindByIDs(ctx, companyIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load companies")
	}

	applied = make([]*models.AppliedJob, 0, len(apps))
	for _, app := range apps {
		entry := &models.AppliedJob{Application: app}
		if job, ok := jobs[app.JobID]; ok {
			entry.Job = &models.JobWithCompany{Job: job, Company: companies[job.CompanyID]}
		}
		applied = append(applied, entry)
	}
	return applied, nil
}

// ListApplicants returns jobID with its applications resolved, newest first,
// each carrying the applicant profile.
func (s *Service) ListApplicants(ctx context.Context, jobID id.JobID) (view *models.JobApplicants, err error) {
	ctx, span := s.tracer.Start(ctx, "application.ListApplicants", trace.WithAttributes(
		attribute.String("job_id", jobID.String()),
	))
	defer func() { endSpan(span, err) }()

	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Job not found.")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load job")
	}

	apps, err := s.applications.ListByIDs(ctx, job.Applications)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applications")
	}
	sortNewestFirst(apps)

	userIDs := dedupe.Keys(apps, func(app *models.Application) (id.UserID, bool) {
		return app.ApplicantID, true
	})
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load applicants")
	}

	view = &models.JobApplicants{Job: job, Applications: make([]*models.Applicant, 0, len(apps))}
	for _, app := range apps {
		view.Applications = append(view.Applications, &models.Applicant{
			Application: app,
			Applicant:   users[app.ApplicantID],
		})
	}
	return view, nil
}

// UpdateStatus moves applicationID to the status named by rawStatus, matched
// case-insensitively.
func (s *Service) UpdateStatus(ctx context.Context, applicationID id.ApplicationID, rawStatus string) (app *models.Application, err error) {
	ctx, span := s.tracer.Start(ctx, "application.UpdateStatus", trace.WithAttributes(
		attribute.String("application_id", applicationID.String()),
	))
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(rawStatus) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "status is required")
	}

	app, err = s.applications.FindByID(ctx, applicationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Application not found.")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load application")
	}

	status, err := models.ParseStatus(rawStatus)
	if err != nil {
		return nil, err
	}
	if s.strictTransitions && !app.Status.CanTransitionTo(status) {
		return nil, dErrors.New(dErrors.CodeBadRequest,
			"cannot change status from "+app.Status.String()+" to "+status.String())
	}

	now := requestcontext.Now(ctx)
	if err := s.applications.UpdateStatus(ctx, applicationID, status, now); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "Application not found.")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update status")
	}
	previous := app.Status
	app.ApplyStatus(status, now)

	s.incrementStatusUpdated(status)
	s.logger.InfoContext(ctx, "application status updated",
		"request_id", requestcontext.RequestID(ctx),
		"application_id", applicationID.String(),
		"from", previous.String(),
		"to", status.String(),
	)
	return app, nil
}

// checkEligibility applies the CGPA floor to students at two-decimal
// precision. A student with no recorded CGPA does not meet a floor.
func checkEligibility(user *models.User, job *models.Job) *models.EligibilityError {
	if !user.IsStudent() || !job.HasCGPARequirement() {
		return nil
	}
	if user.CGPA != nil && models.MeetsCGPA(*user.CGPA, *job.MinCGPA) {
		return nil
	}
	return &models.EligibilityError{Required: *job.MinCGPA, Actual: user.CGPA}
}

func duplicateError(existing id.ApplicationID) error {
	return dErrors.Wrap(&models.DuplicateApplicationError{ApplicationID: existing},
		dErrors.CodeConflict, "You have already applied for this job")
}

func sortNewestFirst(apps []*models.Application) {
	sort.SliceStable(apps, func(i, j int) bool {
		return apps[i].CreatedAt.After(apps[j].CreatedAt)
	})
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, dErrors.MessageOf(err))
	}
	span.End()
}

func (s *Service) observeApply(start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveApply(start)
	}
}

func (s *Service) incrementSubmitted() {
	if s.metrics != nil {
		s.metrics.IncrementSubmitted()
	}
}

func (s *Service) incrementDuplicate() {
	if s.metrics != nil {
		s.metrics.IncrementDuplicate()
	}
}

func (s *Service) incrementIneligible() {
	if s.metrics != nil {
		s.metrics.IncrementIneligible()
	}
}

func (s *Service) incrementStatusUpdated(status models.Status) {
	if s.metrics != nil {
		s.metrics.IncrementStatusUpdated(status.String())
	}
}
