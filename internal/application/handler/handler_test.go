package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"jobportal/internal/application/handler/mocks"
	"jobportal/internal/application/models"
	id "jobportal/pkg/domain"
	dErrors "jobportal/pkg/domain-errors"
	"jobportal/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
	userID  id.UserID
	rrCode  int
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(s.service, logger).Register(r)
	s.router = r
	s.userID = id.UserID(uuid.New())
}

func (s *HandlerSuite) do(req *http.Request) map[string]any {
	rr := testutil.DoRequest(s.router, testutil.WithUserID(req, s.userID.String()))
	s.rrCode = rr.Code
	body := testutil.UnmarshalResponse[map[string]any](s.T(), rr)
	return *body
}

func (s *HandlerSuite) TestApply() {
	jobID := id.JobID(uuid.New())
	path := "/applications/jobs/" + jobID.String() + "/apply"

	s.Run("created", func() {
		s.SetupTest()
		app := &models.Application{ID: id.NewApplicationID(), JobID: jobID, ApplicantID: s.userID, Status: models.StatusPending, CreatedAt: time.Now()}
		s.service.EXPECT().Apply(gomock.Any(), s.userID, jobID).
			Return(&models.ApplyResult{Application: app, JobTitle: "Backend Engineer"}, nil)

		body := s.do(testutil.NewRequest(s.T(), http.MethodPost, path))
		s.Equal(http.StatusCreated, s.rrCode)
		s.Equal(true, body["success"])
		s.Equal("Application submitted successfully!", body["message"])
		s.Equal("Backend Engineer", body["jobTitle"])
		application := body["application"].(map[string]any)
		s.Equal(app.ID.String(), application["id"])
		s.Equal("pending", application["status"])
	})

	s.Run("duplicate carries the existing application id", func() {
		s.SetupTest()
		existing := id.NewApplicationID()
		s.service.EXPECT().Apply(gomock.Any(), s.userID, jobID).Return(nil,
			dErrors.Wrap(&models.DuplicateApplicationError{ApplicationID: existing}, dErrors.CodeConflict, "You have already applied for this job"))

		body := s.do(testutil.NewRequest(s.T(), http.MethodPost, path))
		s.Equal(http.StatusBadRequest, s.rrCode)
		s.Equal(false, body["success"])
		s.Equal("You have already applied for this job", body["message"])
		s.Equal(existing.String(), body["applicationId"])
	})

	s.Run("ineligible reports both cgpa values", func() {
		s.SetupTest()
		actual := 6.5
		elig := &models.EligibilityError{Required: 7, Actual: &actual}
		s.service.EXPECT().Apply(gomock.Any(), s.userID, jobID).Return(nil,
			dErrors.Wrap(elig, dErrors.CodeForbidden, elig.Message()))

		body := s.do(testutil.NewRequest(s.T(), http.MethodPost, path))
		s.Equal(http.StatusForbidden, s.rrCode)
		s.Equal("Your CGPA (6.50) does not meet the minimum requirement (7.00)", body["message"])
		s.Equal("7.00", body["requiredCGPA"])
		s.Equal("6.50", body["userCGPA"])
	})

	s.Run("job not found", func() {
		s.SetupTest()
		s.service.EXPECT().Apply(gomock.Any(), s.userID, jobID).Return(nil, dErrors.New(dErrors.CodeNotFound, "Job not found"))

		body := s.do(testutil.NewRequest(s.T(), http.MethodPost, path))
		s.Equal(http.StatusNotFound, s.rrCode)
		s.Equal("Job not found", body["message"])
	})

	s.Run("unexpected failure exposes detail", func() {
		s.SetupTest()
		s.service.EXPECT().Apply(gomock.Any(), s.userID, jobID).Return(nil,
			dErrors.Wrap(errors.New("connection refused"), dErrors.CodeInternal, "Application failed"))

		body := s.do(testutil.NewRequest(s.T(), http.MethodPost, path))
		s.Equal(http.StatusInternalServerError, s.rrCode)
		s.Equal("Application failed", body["message"])
		s.Equal("connection refused", body["error"])
	})

	s.Run("malformed job id", func() {
		s.SetupTest()
		body := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/applications/jobs/not-a-uuid/apply"))
		s.Equal(http.StatusBadRequest, s.rrCode)
		s.Equal(false, body["success"])
	})

	s.Run("missing user context", func() {
		s.SetupTest()
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, path))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})
}

func (s *HandlerSuite) TestListApplied() {
	s.Run("returns the history under application", func() {
		s.SetupTest()
		job := &models.Job{ID: id.JobID(uuid.New()), Title: "SRE", Applications: []id.ApplicationID{}}
		company := &models.Company{ID: job.CompanyID, Name: "Acme"}
		applied := []*models.AppliedJob{{
			Application: &models.Application{ID: id.NewApplicationID(), JobID: job.ID, Status: models.StatusAccepted},
			Job:         &models.JobWithCompany{Job: job, Company: company},
		}}
		s.service.EXPECT().ListAppliedJobs(gomock.Any(), s.userID).Return(applied, nil)

		body := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/applications"))
		s.Equal(http.StatusOK, s.rrCode)
		s.Equal(true, body["success"])
		list := body["application"].([]any)
		s.Require().Len(list, 1)
		entry := list[0].(map[string]any)
		s.Equal("accepted", entry["status"])
		s.Equal("SRE", entry["job"].(map[string]any)["title"])
		s.Equal("Acme", entry["job"].(map[string]any)["company"].(map[string]any)["name"])
	})

	s.Run("empty history is success", func() {
		s.SetupTest()
		s.service.EXPECT().ListAppliedJobs(gomock.Any(), s.userID).Return([]*models.AppliedJob{}, nil)

		body := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/applications"))
		s.Equal(http.StatusOK, s.rrCode)
		s.Equal([]any{}, body["application"])
	})
}

func (s *HandlerSuite) TestListApplicants() {
	jobID := id.JobID(uuid.New())
	path := "/applications/jobs/" + jobID.String() + "/applicants"

	s.Run("returns the job with applicants", func() {
		s.SetupTest()
		applicant := &models.User{ID: id.UserID(uuid.New()), FullName: "Ravi", Role: models.RoleStudent}
		view := &models.JobApplicants{
			Job: &models.Job{ID: jobID, Title: "Data", TotalApplicants: 1},
			Applications: []*models.Applicant{{
				Application: &models.Application{ID: id.NewApplicationID(), JobID: jobID, ApplicantID: applicant.ID, Status: models.StatusPending},
				Applicant:   applicant,
			}},
		}
		s.service.EXPECT().ListApplicants(gomock.Any(), jobID).Return(view, nil)

		body := s.do(testutil.NewRequest(s.T(), http.MethodGet, path))
		s.Equal(http.StatusOK, s.rrCode)
		job := body["job"].(map[string]any)
		s.Equal("Data", job["title"])
		s.Equal(1.0, job["total_applicants"])
		apps := job["applications"].([]any)
		s.Require().Len(apps, 1)
		s.Equal("Ravi", apps[0].(map[string]any)["applicant"].(map[string]any)["full_name"])
	})

	s.Run("unknown job", func() {
		s.SetupTest()
		s.service.EXPECT().ListApplicants(gomock.Any(), jobID).Return(nil, dErrors.New(dErrors.CodeNotFound, "Job not found."))

		body := s.do(testutil.NewRequest(s.T(), http.MethodGet, path))
		s.Equal(http.StatusNotFound, s.rrCode)
		s.Equal("Job not found.", body["message"])
	})
}

func (s *HandlerSuite) TestUpdateStatus() {
	appID := id.NewApplicationID()
	path := "/applications/" + appID.String() + "/status"

	s.Run("updated", func() {
		s.SetupTest()
		s.service.EXPECT().UpdateStatus(gomock.Any(), appID, "Accepted").
			Return(&models.Application{ID: appID, Status: models.StatusAccepted}, nil)

		body := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{"status": "Accepted"}))
		s.Equal(http.StatusOK, s.rrCode)
		s.Equal("Status updated successfully.", body["message"])
		s.Equal(true, body["success"])
	})

	s.Run("missing status", func() {
		s.SetupTest()
		s.service.EXPECT().UpdateStatus(gomock.Any(), appID, "").
			Return(nil, dErrors.New(dErrors.CodeBadRequest, "status is required"))

		body := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{}))
		s.Equal(http.StatusBadRequest, s.rrCode)
		s.Equal("status is required", body["message"])
	})

	s.Run("unknown application", func() {
		s.SetupTest()
		s.service.EXPECT().UpdateStatus(gomock.Any(), appID, "rejected").
			Return(nil, dErrors.New(dErrors.CodeNotFound, "Application not found."))

		body := s.do(testutil.NewJSONRequest(s.T(), http.MethodPost, path, map[string]string{"status": "rejected"}))
		s.Equal(http.StatusNotFound, s.rrCode)
		s.Equal("Application not found.", body["message"])
	})

	s.Run("malformed body", func() {
		s.SetupTest()
		body := s.do(testutil.NewRequestWithBody(s.T(), http.MethodPost, path, "{not json"))
		s.Equal(http.StatusBadRequest, s.rrCode)
		s.Equal("invalid request body", body["message"])
	})
}

func (s *HandlerSuite) TestApplyGuardWrapsOnlyApply() {
	calls := 0
	guard := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			calls++
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	r := chi.NewRouter()
	New(s.service, slog.New(slog.NewTextHandler(io.Discard, nil)), guard).Register(r)

	s.service.EXPECT().ListAppliedJobs(gomock.Any(), s.userID).Return([]*models.AppliedJob{}, nil)
	rr := testutil.DoRequest(r, testutil.WithUserID(testutil.NewRequest(s.T(), http.MethodGet, "/applications"), s.userID.String()))
	testutil.AssertStatusOK(s.T(), rr)

	rr = testutil.DoRequest(r, testutil.WithUserID(
		testutil.NewRequest(s.T(), http.MethodPost, "/applications/jobs/"+uuid.NewString()+"/apply"), s.userID.String()))
	testutil.AssertStatus(s.T(), rr, http.StatusTooManyRequests)
	s.Equal(1, calls)
}
