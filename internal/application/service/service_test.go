package service_test

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ApplicationStore,JobStore,UserStore,CompanyStore,TxStores,ApplyTx

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"jobportal/internal/application/metrics"
	"jobportal/internal/application/models"
	"jobportal/internal/application/service"
	"jobportal/internal/application/service/mocks"
	id "jobportal/pkg/domain"
	dErrors "jobportal/pkg/domain-errors"
	"jobportal/pkg/platform/sentinel"
	"jobportal/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	applications *mocks.MockApplicationStore
	jobs         *mocks.MockJobStore
	users        *mocks.MockUserStore
	companies    *mocks.MockCompanyStore
	tx           *mocks.MockApplyTx
	txStores     *mocks.MockTxStores
	metrics      *metrics.Metrics
	svc          *service.Service
	ctx          context.Context
	now          time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.applications = mocks.NewMockApplicationStore(s.ctrl)
	s.jobs = mocks.NewMockJobStore(s.ctrl)
	s.users = mocks.NewMockUserStore(s.ctrl)
	s.companies = mocks.NewMockCompanyStore(s.ctrl)
	s.tx = mocks.NewMockApplyTx(s.ctrl)
	s.txStores = mocks.NewMockTxStores(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.svc = s.newService()
}

func (s *ServiceSuite) newService(opts ...service.Option) *service.Service {
	opts = append([]service.Option{
		service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		service.WithMetrics(s.metrics),
	}, opts...)
	return service.New(s.applications, s.jobs, s.users, s.companies, s.tx, opts...)
}

func (s *ServiceSuite) expectTx() {
	s.tx.EXPECT().RunInTx(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, fn func(service.TxStores) error) error {
			return fn(s.txStores)
		})
}

func ptr(v float64) *float64 { return &v }

func newJob(minCGPA *float64) *models.Job {
	return &models.Job{
		ID:           id.JobID(uuid.New()),
		Title:        "Backend Engineer",
		CompanyID:    id.CompanyID(uuid.New()),
		MinCGPA:      minCGPA,
		Applications: []id.ApplicationID{},
	}
}

func newStudent(cgpa *float64) *models.User {
	return &models.User{ID: id.UserID(uuid.New()), FullName: "Asha", Role: models.RoleStudent, CGPA: cgpa}
}

func (s *ServiceSuite) TestApply() {
	s.Run("creates a pending application and reports the job title", func() {
		s.SetupTest()
		job := newJob(ptr(7))
		user := newStudent(ptr(8.25))

		s.applications.EXPECT().FindByJobAndApplicant(gomock.Any(), job.ID, user.ID).Return(nil, sentinel.ErrNotFound)
		s.jobs.EXPECT().FindByID(gomock.Any(), job.ID).Return(job, nil)
		s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
		s.expectTx()
		s.txStores.EXPECT().CreateApplication(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, app *models.Application) error {
				s.Equal(models.StatusPending, app.Status)
				s.Equal(job.ID, app.JobID)
				s.Equal(s.now, app.CreatedAt)
				return nil
			})
		s.txStores.EXPECT().AppendApplication(gomock.Any(), job.ID, gomock.Any()).Return(1, nil)

		result, err := s.svc.Apply(s.ctx, user.ID, job.ID)
		s.Require().NoError(err)
		s.Equal("Backend Engineer", result.JobTitle)
		s.Equal(models.StatusPending, result.Application.Status)
		s.Equal(user.ID, result.Application.ApplicantID)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.ApplicationsSubmitted))
	})

	s.Run("missing job id is rejected before any lookup", func() {
		s.SetupTest()
		_, err := s.svc.Apply(s.ctx, id.UserID(uuid.New()), id.JobID{})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Equal("Job ID is required", dErrors.MessageOf(err))
	})

	s.Run("duplicate is reported before the job is loaded", func() {
		s.SetupTest()
		jobID := id.JobID(uuid.New())
		userID := id.UserID(uuid.New())
		existing := &models.Application{ID: id.NewApplicationID(), JobID: jobID, ApplicantID: userID}

		s.applications.EXPECT().FindByJobAndApplicant(gomock.Any(), jobID, userID).Return(existing, nil)

		_, err := s.svc.Apply(s.ctx, userID, jobID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
		s.Equal("You have already applied for this job", dErrors.MessageOf(err))
		var dup *models.DuplicateApplicationError
		s.Require().ErrorAs(err, &dup)
		s.Equal(existing.ID, dup.ApplicationID)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.DuplicateApplications))
	})

	s.Run("unknown job is not found", func() {
		s.SetupTest()
		jobID := id.JobID(uuid.New())
		userID := id.UserID(uuid.New())
		s.applications.EXPECT().FindByJobAndApplicant(gomock.Any(), jobID, userID).Return(nil, sentinel.ErrNotFound)
		s.jobs.EXPECT().FindByID(gomock.Any(), jobID).Return(nil, sentinel.ErrNotFound)

		_, err := s.svc.Apply(s.ctx, userID, jobID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal("Job not found", dErrors.MessageOf(err))
	})

	s.Run("unknown applicant is not found", func() {
		s.SetupTest()
		job := newJob(nil)
		userID := id.UserID(uuid.New())
		s.applications.EXPECT().FindByJobAndApplicant(gomock.Any(), job.ID, userID).Return(nil, sentinel.ErrNotFound)
		s.jobs.EXPECT().FindByID(gomock.Any(), job.ID).Return(job, nil)
		s.users.EXPECT().FindByID(gomock.Any(), userID).Return(nil, sentinel.ErrNotFound)

		_, err := s.svc.Apply(s.ctx, userID, job.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("store failure on the duplicate check is internal", func() {
		s.SetupTest()
		jobID := id.JobID(uuid.New())
		userID := id.UserID(uuid.New())
		s.applications.EXPECT().FindByJobAndApplicant(gomock.Any(), jobID, userID).Return(nil, errors.New("connection reset"))

		_, err := s.svc.Apply(s.ctx, userID, jobID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.Equal("Application failed", dErrors.MessageOf(err))
		s.ErrorContains(err, "connection reset")
	})

	s.Run("losing an insert race surfaces the winner as a duplicate", func() {
		s.SetupTest()
		job := newJob(nil)
		user := newStudent(nil)
		winner := &models.Application{ID: id.NewApplicationID(), JobID: job.ID, ApplicantID: user.ID}

		gomock.InOrder(
			s.applications.EXPECT().FindByJobAndApplicant(gomock.Any(), job.ID, user.ID).Return(nil, sentinel.ErrNotFound),
			s.applications.EXPECT().FindByJobAndApplicant(gomock.Any(), job.ID, user.ID).Return(winner, nil),
		)
		s.jobs.EXPECT().FindByID(gomock.Any(), job.ID).Return(job, nil)
		s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
		s.expectTx()
		s.txStores.EXPECT().CreateApplication(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)

		_, err := s.svc.Apply(s.ctx, user.ID, job.ID)
		var dup *models.DuplicateApplicationError
		s.Require().ErrorAs(err, &dup)
		s.Equal(winner.ID, dup.ApplicationID)
		s.Equal(0.0, testutil.ToFloat64(s.metrics.ApplicationsSubmitted))
	})

	s.Run("job update failure inside the transaction is internal", func() {
		s.SetupTest()
		job := newJob(nil)
		user := newStudent(nil)
		s.applications.EXPECT().FindByJobAndApplicant(gomock.Any(), job.ID, user.ID).Return(nil, sentinel.ErrNotFound)
		s.jobs.EXPECT().FindByID(gomock.Any(), job.ID).Return(job, nil)
		s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
		s.expectTx()
		s.txStores.EXPECT().CreateApplication(gomock.Any(), gomock.Any()).Return(nil)
		s.txStores.EXPECT().AppendApplication(gomock.Any(), job.ID, gomock.Any()).Return(0, errors.New("disk full"))

		_, err := s.svc.Apply(s.ctx, user.ID, job.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.ErrorContains(err, "disk full")
	})
}

func (s *ServiceSuite) TestApplyEligibility() {
	cases := []struct {
		name     string
		role     models.Role
		cgpa     *float64
		minCGPA  *float64
		eligible bool
		userCGPA string
	}{
		{name: "student below floor", role: models.RoleStudent, cgpa: ptr(6.5), minCGPA: ptr(7), userCGPA: "6.50"},
		{name: "student at floor", role: models.RoleStudent, cgpa: ptr(7), minCGPA: ptr(7), eligible: true},
		{name: "student rounding up to floor", role: models.RoleStudent, cgpa: ptr(6.999), minCGPA: ptr(7), eligible: true},
		{name: "student rounding below floor", role: models.RoleStudent, cgpa: ptr(6.994), minCGPA: ptr(7), userCGPA: "6.99"},
		{name: "student without recorded cgpa", role: models.RoleStudent, minCGPA: ptr(7)},
		{name: "student and job without floor", role: models.RoleStudent, cgpa: ptr(6.5), eligible: true},
		{name: "zero floor means no requirement", role: models.RoleStudent, cgpa: ptr(2), minCGPA: ptr(0), eligible: true},
		{name: "recruiter bypasses floor", role: models.RoleRecruiter, cgpa: ptr(1), minCGPA: ptr(9), eligible: true},
		{name: "admin bypasses floor", role: models.RoleAdmin, minCGPA: ptr(9), eligible: true},
	}
	for _, tc := range cases {
		s.Run(tc.name, func() {
			s.SetupTest()
			job := newJob(tc.minCGPA)
			user := &models.User{ID: id.UserID(uuid.New()), Role: tc.role, CGPA: tc.cgpa}

			s.applications.EXPECT().FindByJobAndApplicant(gomock.Any(), job.ID, user.ID).Return(nil, sentinel.ErrNotFound)
			s.jobs.EXPECT().FindByID(gomock.Any(), job.ID).Return(job, nil)
			s.users.EXPECT().FindByID(gomock.Any(), user.ID).Return(user, nil)
			if tc.eligible {
				s.expectTx()
				s.txStores.EXPECT().CreateApplication(gomock.Any(), gomock.Any()).Return(nil)
				s.txStores.EXPECT().AppendApplication(gomock.Any(), job.ID, gomock.Any()).Return(1, nil)
			}

			_, err := s.svc.Apply(s.ctx, user.ID, job.ID)
			if tc.eligible {
				s.NoError(err)
				return
			}
			s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
			var elig *models.EligibilityError
			s.Require().ErrorAs(err, &elig)
			s.Equal("7.00", elig.RequiredCGPA())
			s.Equal(tc.userCGPA, elig.UserCGPA())
			s.Equal(1.0, testutil.ToFloat64(s.metrics.IneligibleApplications))
		})
	}
}

func (s *ServiceSuite) TestListAppliedJobs() {
	s.Run("resolves jobs then companies, newest first", func() {
		s.SetupTest()
		userID := id.UserID(uuid.New())
		company := &models.Company{ID: id.CompanyID(uuid.New()), Name: "Acme"}
		jobA := newJob(nil)
		jobA.CompanyID = company.ID
		jobB := newJob(nil)
		jobB.CompanyID = company.ID
		older := &models.Application{ID: id.NewApplicationID(), JobID: jobA.ID, ApplicantID: userID, CreatedAt: s.now.Add(-time.Hour)}
		newer := &models.Application{ID: id.NewApplicationID(), JobID: jobB.ID, ApplicantID: userID, CreatedAt: s.now}

		gomock.InOrder(
			s.applications.EXPECT().ListByApplicant(gomock.Any(), userID).Return([]*models.Application{older, newer}, nil),
			s.jobs.EXPECT().FindByIDs(gomock.Any(), []id.JobID{jobB.ID, jobA.ID}).
				Return(map[id.JobID]*models.Job{jobA.ID: jobA, jobB.ID: jobB}, nil),
			s.companies.EXPECT().FindByIDs(gomock.Any(), []id.CompanyID{company.ID}).
				Return(map[id.CompanyID]*models.Company{company.ID: company}, nil),
		)

		applied, err := s.svc.ListAppliedJobs(s.ctx, userID)
		s.Require().NoError(err)
		s.Require().Len(applied, 2)
		s.Equal(newer.ID, applied[0].ID)
		s.Equal(older.ID, applied[1].ID)
		s.Equal("Acme", applied[0].Job.Company.Name)
	})

	s.Run("no applications is an empty success", func() {
		s.SetupTest()
		userID := id.UserID(uuid.New())
		s.applications.EXPECT().ListByApplicant(gomock.Any(), userID).Return([]*models.Application{}, nil)
		s.jobs.EXPECT().FindByIDs(gomock.Any(), []id.JobID{}).Return(map[id.JobID]*models.Job{}, nil)
		s.companies.EXPECT().FindByIDs(gomock.Any(), []id.CompanyID{}).Return(map[id.CompanyID]*models.Company{}, nil)

		applied, err := s.svc.ListAppliedJobs(s.ctx, userID)
		s.Require().NoError(err)
		s.NotNil(applied)
		s.Empty(applied)
	})

	s.Run("dangling job reference leaves job unresolved", func() {
		s.SetupTest()
		userID := id.UserID(uuid.New())
		app := &models.Application{ID: id.NewApplicationID(), JobID: id.JobID(uuid.New()), ApplicantID: userID}
		s.applications.EXPECT().ListByApplicant(gomock.Any(), userID).Return([]*models.Application{app}, nil)
		s.jobs.EXPECT().FindByIDs(gomock.Any(), gomock.Any()).Return(map[id.JobID]*models.Job{}, nil)
		s.companies.EXPECT().FindByIDs(gomock.Any(), []id.CompanyID{}).Return(map[id.CompanyID]*models.Company{}, nil)

		applied, err := s.svc.ListAppliedJobs(s.ctx, userID)
		s.Require().NoError(err)
		s.Require().Len(applied, 1)
		s.Nil(applied[0].Job)
	})
}

func (s *ServiceSuite) TestListApplicants() {
	s.Run("expands applications with applicant profiles", func() {
		s.SetupTest()
		job := newJob(nil)
		alice := newStudent(ptr(9))
		first := &models.Application{ID: id.NewApplicationID(), JobID: job.ID, ApplicantID: alice.ID, CreatedAt: s.now.Add(-time.Minute)}
		bob := newStudent(ptr(8))
		second := &models.Application{ID: id.NewApplicationID(), JobID: job.ID, ApplicantID: bob.ID, CreatedAt: s.now}
		job.Applications = []id.ApplicationID{first.ID, second.ID}
		job.TotalApplicants = 2

		s.jobs.EXPECT().FindByID(gomock.Any(), job.ID).Return(job, nil)
		s.applications.EXPECT().ListByIDs(gomock.Any(), job.Applications).Return([]*models.Application{first, second}, nil)
		s.users.EXPECT().FindByIDs(gomock.Any(), []id.UserID{bob.ID, alice.ID}).
			Return(map[id.UserID]*models.User{alice.ID: alice, bob.ID: bob}, nil)

		view, err := s.svc.ListApplicants(s.ctx, job.ID)
		s.Require().NoError(err)
		s.Equal(2, view.TotalApplicants)
		s.Require().Len(view.Applications, 2)
		s.Equal(bob.ID, view.Applications[0].Applicant.ID)
		s.Equal(alice.ID, view.Applications[1].Applicant.ID)
	})

	s.Run("unknown job is not found", func() {
		s.SetupTest()
		jobID := id.JobID(uuid.New())
		s.jobs.EXPECT().FindByID(gomock.Any(), jobID).Return(nil, sentinel.ErrNotFound)

		_, err := s.svc.ListApplicants(s.ctx, jobID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal("Job not found.", dErrors.MessageOf(err))
	})
}

func (s *ServiceSuite) TestUpdateStatus() {
	s.Run("normalises case and persists", func() {
		s.SetupTest()
		app := &models.Application{ID: id.NewApplicationID(), Status: models.StatusPending}
		s.applications.EXPECT().FindByID(gomock.Any(), app.ID).Return(app, nil)
		s.applications.EXPECT().UpdateStatus(gomock.Any(), app.ID, models.StatusAccepted, s.now).Return(nil)

		updated, err := s.svc.UpdateStatus(s.ctx, app.ID, "Accepted")
		s.Require().NoError(err)
		s.Equal(models.StatusAccepted, updated.Status)
		s.Equal(s.now, updated.UpdatedAt)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.StatusUpdates.WithLabelValues("accepted")))
	})

	s.Run("empty status is rejected without a lookup", func() {
		s.SetupTest()
		_, err := s.svc.UpdateStatus(s.ctx, id.NewApplicationID(), " ")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Equal("status is required", dErrors.MessageOf(err))
	})

	s.Run("unknown application is not found and nothing is written", func() {
		s.SetupTest()
		appID := id.NewApplicationID()
		s.applications.EXPECT().FindByID(gomock.Any(), appID).Return(nil, sentinel.ErrNotFound)

		_, err := s.svc.UpdateStatus(s.ctx, appID, "accepted")
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		s.Equal("Application not found.", dErrors.MessageOf(err))
	})

	s.Run("value outside the enumeration is rejected", func() {
		s.SetupTest()
		app := &models.Application{ID: id.NewApplicationID(), Status: models.StatusPending}
		s.applications.EXPECT().FindByID(gomock.Any(), app.ID).Return(app, nil)

		_, err := s.svc.UpdateStatus(s.ctx, app.ID, "hired")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("decided applications can be changed by default", func() {
		s.SetupTest()
		app := &models.Application{ID: id.NewApplicationID(), Status: models.StatusAccepted}
		s.applications.EXPECT().FindByID(gomock.Any(), app.ID).Return(app, nil)
		s.applications.EXPECT().UpdateStatus(gomock.Any(), app.ID, models.StatusRejected, s.now).Return(nil)

		_, err := s.svc.UpdateStatus(s.ctx, app.ID, "rejected")
		s.NoError(err)
	})

	s.Run("strict transitions keep decided applications fixed", func() {
		s.SetupTest()
		svc := s.newService(service.WithStrictTransitions(true))
		app := &models.Application{ID: id.NewApplicationID(), Status: models.StatusAccepted}
		s.applications.EXPECT().FindByID(gomock.Any(), app.ID).Return(app, nil)

		_, err := svc.UpdateStatus(s.ctx, app.ID, "rejected")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
		s.Equal("cannot change status from accepted to rejected", dErrors.MessageOf(err))
	})
}
