package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"jobportal/internal/application/models"
	id "jobportal/pkg/domain"
	"jobportal/pkg/platform/sentinel"
)

type pairKey struct {
	job       id.JobID
	applicant id.UserID
}

// InMemory keeps users, companies, jobs and applications in process memory.
// Every read returns a copy so callers cannot mutate stored state.
type InMemory struct {
	mu           sync.RWMutex
	users        map[id.UserID]*models.User
	companies    map[id.CompanyID]*models.Company
	jobs         map[id.JobID]*models.Job
	applications map[id.ApplicationID]*models.Application
	byPair       map[pairKey]id.ApplicationID
}

func NewInMemory() *InMemory {
	return &InMemory{
		users:        make(map[id.UserID]*models.User),
		companies:    make(map[id.CompanyID]*models.Company),
		jobs:         make(map[id.JobID]*models.Job),
		applications: make(map[id.ApplicationID]*models.Application),
		byPair:       make(map[pairKey]id.ApplicationID),
	}
}

func (s *InMemory) InsertUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; ok {
		return sentinel.ErrConflict
	}
	u := *user
	s.users[user.ID] = &u
	return nil
}

func (s *InMemory) InsertCompany(_ context.Context, company *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.companies[company.ID]; ok {
		return sentinel.ErrConflict
	}
	c := *company
	s.companies[company.ID] = &c
	return nil
}

func (s *InMemory) InsertJob(_ context.Context, job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[job.ID]; ok {
		return sentinel.ErrConflict
	}
	s.jobs[job.ID] = copyJob(job)
	return nil
}

// CreateApplication inserts app, enforcing one application per (job, applicant).
func (s *InMemory) CreateApplication(_ context.Context, app *models.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{job: app.JobID, applicant: app.ApplicantID}
	if _, ok := s.byPair[key]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.applications[app.ID]; ok {
		return sentinel.ErrConflict
	}
	a := *app
	s.applications[app.ID] = &a
	s.byPair[key] = app.ID
	return nil
}

// AppendApplication appends applicationID to the job and recounts.
func (s *InMemory) AppendApplication(_ context.Context, jobID id.JobID, applicationID id.ApplicationID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	job.AppendApplication(applicationID)
	return job.TotalApplicants, nil
}

func (s *InMemory) FindByID(_ context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.applications[applicationID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	a := *app
	return &a, nil
}

func (s *InMemory) FindByJobAndApplicant(_ context.Context, jobID id.JobID, applicantID id.UserID) (*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	appID, ok := s.byPair[pairKey{job: jobID, applicant: applicantID}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	a := *s.applications[appID]
	return &a, nil
}

// ListByApplicant returns the applicant's applications, newest first.
func (s *InMemory) ListByApplicant(_ context.Context, applicantID id.UserID) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Application, 0)
	for _, app := range s.applications {
		if app.ApplicantID == applicantID {
			a := *app
			out = append(out, &a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// ListByIDs returns the applications that exist among ids, in ids order.
func (s *InMemory) ListByIDs(_ context.Context, ids []id.ApplicationID) ([]*models.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Application, 0, len(ids))
	for _, appID := range ids {
		if app, ok := s.applications[appID]; ok {
			a := *app
			out = append(out, &a)
		}
	}
	return out, nil
}

func (s *InMemory) UpdateStatus(_ context.Context, applicationID id.ApplicationID, status models.Status, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.applications[applicationID]
	if !ok {
		return sentinel.ErrNotFound
	}
	app.ApplyStatus(status, updatedAt)
	return nil
}

// Jobs exposes the job lookups under the same store.
func (s *InMemory) Jobs() *InMemoryJobs { return &InMemoryJobs{s: s} }

// Users exposes the user lookups under the same store.
func (s *InMemory) Users() *InMemoryUsers { return &InMemoryUsers{s: s} }

// Companies exposes the company lookups under the same store.
func (s *InMemory) Companies() *InMemoryCompanies { return &InMemoryCompanies{s: s} }

type InMemoryJobs struct{ s *InMemory }

func (j *InMemoryJobs) FindByID(_ context.Context, jobID id.JobID) (*models.Job, error) {
	j.s.mu.RLock()
	defer j.s.mu.RUnlock()
	job, ok := j.s.jobs[jobID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyJob(job), nil
}

func (j *InMemoryJobs) FindByIDs(_ context.Context, ids []id.JobID) (map[id.JobID]*models.Job, error) {
	j.s.mu.RLock()
	defer j.s.mu.RUnlock()
	out := make(map[id.JobID]*models.Job, len(ids))
	for _, jobID := range ids {
		if job, ok := j.s.jobs[jobID]; ok {
			out[jobID] = copyJob(job)
		}
	}
	return out, nil
}

type InMemoryUsers struct{ s *InMemory }

func (u *InMemoryUsers) FindByID(_ context.Context, userID id.UserID) (*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	user, ok := u.s.users[userID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := *user
	return &c, nil
}

func (u *InMemoryUsers) FindByIDs(_ context.Context, ids []id.UserID) (map[id.UserID]*models.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	out := make(map[id.UserID]*models.User, len(ids))
	for _, userID := range ids {
		if user, ok := u.s.users[userID]; ok {
			c := *user
			out[userID] = &c
		}
	}
	return out, nil
}

type InMemoryCompanies struct{ s *InMemory }

func (c *InMemoryCompanies) FindByIDs(_ context.Context, ids []id.CompanyID) (map[id.CompanyID]*models.Company, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	out := make(map[id.CompanyID]*models.Company, len(ids))
	for _, companyID := range ids {
		if company, ok := c.s.companies[companyID]; ok {
			cp := *company
			out[companyID] = &cp
		}
	}
	return out, nil
}

func copyJob(job *models.Job) *models.Job {
	j := *job
	j.Applications = make([]id.ApplicationID, len(job.Applications))
	copy(j.Applications, job.Applications)
	if job.MinCGPA != nil {
		v := *job.MinCGPA
		j.MinCGPA = &v
	}
	return &j
}
