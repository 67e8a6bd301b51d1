package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"jobportal/internal/application/models"
	id "jobportal/pkg/domain"
	"jobportal/pkg/platform/sentinel"
	txcontext "jobportal/pkg/platform/tx"
)

//go:embed schema.sql
var schema string

const uniqueViolation = "23505"

// Migrate creates the tables this module reads and writes. It is idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate application schema: %w", err)
	}
	return nil
}

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// PostgresStore persists applications, jobs, users and companies in PostgreSQL.
// Queries join a transaction carried in ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) q(ctx context.Context) querier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) InsertCompany(ctx context.Context, c *models.Company) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO companies (id, name, description, website, location, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(c.ID), c.Name, c.Description, c.Website, c.Location, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert company: %w", translate(err))
	}
	return nil
}

func (s *PostgresStore) InsertUser(ctx context.Context, u *models.User) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO users (id, full_name, email, role, cgpa, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(u.ID), u.FullName, u.Email, string(u.Role), u.CGPA, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", translate(err))
	}
	return nil
}

func (s *PostgresStore) InsertJob(ctx context.Context, j *models.Job) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO jobs (id, title, description, company_id, min_cgpa, application_ids, total_applicants, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.UUID(j.ID), j.Title, j.Description, uuid.UUID(j.CompanyID), j.MinCGPA,
		pq.Array(applicationIDStrings(j.Applications)), len(j.Applications), j.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert job: %w", translate(err))
	}
	return nil
}

// CreateApplication inserts app. The (job_id, applicant_id) unique constraint
// surfaces as sentinel.ErrConflict.
func (s *PostgresStore) CreateApplication(ctx context.Context, app *models.Application) error {
	_, err := s.q(ctx).ExecContext(ctx, `
		INSERT INTO applications (id, job_id, applicant_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		uuid.UUID(app.ID), uuid.UUID(app.JobID), uuid.UUID(app.ApplicantID),
		string(app.Status), app.CreatedAt, app.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create application: %w", translate(err))
	}
	return nil
}

// AppendApplication pushes applicationID onto the job's list and recounts in
// one statement, against the row's current value.
func (s *PostgresStore) AppendApplication(ctx context.Context, jobID id.JobID, applicationID id.ApplicationID) (int, error) {
	var total int
	err := s.q(ctx).QueryRowContext(ctx, `
		UPDATE jobs
		SET application_ids = array_append(application_ids, $2::uuid),
			total_applicants = cardinality(application_ids) + 1
		WHERE id = $1
		RETURNING total_applicants`,
		uuid.UUID(jobID), uuid.UUID(applicationID)).Scan(&total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("append application: %w", err)
	}
	return total, nil
}

const applicationColumns = `id, job_id, applicant_id, status, created_at, updated_at`

func (s *PostgresStore) FindByID(ctx context.Context, applicationID id.ApplicationID) (*models.Application, error) {
	app, err := scanApplication(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`, uuid.UUID(applicationID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application: %w", err)
	}
	return app, nil
}

func (s *PostgresStore) FindByJobAndApplicant(ctx context.Context, jobID id.JobID, applicantID id.UserID) (*models.Application, error) {
	app, err := scanApplication(s.q(ctx).QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE job_id = $1 AND applicant_id = $2`,
		uuid.UUID(jobID), uuid.UUID(applicantID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find application by job and applicant: %w", err)
	}
	return app, nil
}

// ListByApplicant returns the applicant's applications, newest first.
func (s *PostgresStore) ListByApplicant(ctx context.Context, applicantID id.UserID) ([]*models.Application, error) {
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE applicant_id = $1 ORDER BY created_at DESC, id`,
		uuid.UUID(applicantID))
	if err != nil {
		return nil, fmt.Errorf("list applications by applicant: %w", err)
	}
	return collectApplications(rows)
}

func (s *PostgresStore) ListByIDs(ctx context.Context, ids []id.ApplicationID) ([]*models.Application, error) {
	if len(ids) == 0 {
		return []*models.Application{}, nil
	}
	rows, err := s.q(ctx).QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = ANY($1::uuid[]) ORDER BY created_at DESC, id`,
		pq.Array(applicationIDStrings(ids)))
	if err != nil {
		return nil, fmt.Errorf("list applications by ids: %w", err)
	}
	return collectApplications(rows)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, applicationID id.ApplicationID, status models.Status, updatedAt time.Time) error {
	res, err := s.q(ctx).ExecContext(ctx,
		`UPDATE applications SET status = $2, updated_at = $3 WHERE id = $1`,
		uuid.UUID(applicationID), string(status), updatedAt)
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update application status: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Jobs exposes job lookups backed by the same database.
func (s *PostgresStore) Jobs() *PostgresJobs { return &PostgresJobs{s: s} }

// Users exposes user lookups backed by the same database.
func (s *PostgresStore) Users() *PostgresUsers { return &PostgresUsers{s: s} }

// Companies exposes company lookups backed by the same database.
func (s *PostgresStore) Companies() *PostgresCompanies { return &PostgresCompanies{s: s} }

type PostgresJobs struct{ s *PostgresStore }

const jobColumns = `id, title, description, company_id, min_cgpa, application_ids, COALESCE(total_applicants, cardinality(application_ids)), created_at`

func (j *PostgresJobs) FindByID(ctx context.Context, jobID id.JobID) (*models.Job, error) {
	job, err := scanJob(j.s.q(ctx).QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`, uuid.UUID(jobID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find job: %w", err)
	}
	return job, nil
}

func (j *PostgresJobs) FindByIDs(ctx context.Context, ids []id.JobID) (map[id.JobID]*models.Job, error) {
	out := make(map[id.JobID]*models.Job, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	strs := make([]string, len(ids))
	for i, jobID := range ids {
		strs[i] = jobID.String()
	}
	rows, err := j.s.q(ctx).QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = ANY($1::uuid[])`, pq.Array(strs))
	if err != nil {
		return nil, fmt.Errorf("find jobs: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("scan job: %w", err)
		}
		out[job.ID] = job
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate jobs: %w", err)
	}
	return out, nil
}

type PostgresUsers struct{ s *PostgresStore }

const userColumns = `id, full_name, email, role, cgpa, created_at`

func (u *PostgresUsers) FindByID(ctx context.Context, userID id.UserID) (*models.User, error) {
	user, err := scanUser(u.s.q(ctx).QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, uuid.UUID(userID)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return user, nil
}

func (u *PostgresUsers) FindByIDs(ctx context.Context, ids []id.UserID) (map[id.UserID]*models.User, error) {
	out := make(map[id.UserID]*models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	strs := make([]string, len(ids))
	for i, userID := range ids {
		strs[i] = userID.String()
	}
	rows, err := u.s.q(ctx).QueryContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[])`, pq.Array(strs))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out[user.ID] = user
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return out, nil
}

type PostgresCompanies struct{ s *PostgresStore }

func (c *PostgresCompanies) FindByIDs(ctx context.Context, ids []id.CompanyID) (map[id.CompanyID]*models.Company, error) {
	out := make(map[id.CompanyID]*models.Company, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	strs := make([]string, len(ids))
	for i, companyID := range ids {
		strs[i] = companyID.String()
	}
	rows, err := c.s.q(ctx).QueryContext(ctx, `
		SELECT id, name, description, website, location, created_at
		FROM companies WHERE id = ANY($1::uuid[])`, pq.Array(strs))
	if err != nil {
		return nil, fmt.Errorf("find companies: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			company models.Company
			rawID   uuid.UUID
		)
		if err := rows.Scan(&rawID, &company.Name, &company.Description, &company.Website, &company.Location, &company.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		company.ID = id.CompanyID(rawID)
		out[company.ID] = &company
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*models.Application, error) {
	var (
		app          models.Application
		rawID        uuid.UUID
		rawJob       uuid.UUID
		rawApplicant uuid.UUID
		status       string
	)
	if err := row.Scan(&rawID, &rawJob, &rawApplicant, &status, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return nil, err
	}
	app.ID = id.ApplicationID(rawID)
	app.JobID = id.JobID(rawJob)
	app.ApplicantID = id.UserID(rawApplicant)
	app.Status = models.Status(status)
	return &app, nil
}

func collectApplications(rows *sql.Rows) ([]*models.Application, error) {
	defer rows.Close()
	out := make([]*models.Application, 0)
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("scan application: %w", err)
		}
		out = append(out, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applications: %w", err)
	}
	return out, nil
}

func scanJob(row rowScanner) (*models.Job, error) {
	var (
		job        models.Job
		rawID      uuid.UUID
		rawCompany uuid.UUID
		minCGPA    sql.NullFloat64
		appIDs     []string
	)
	if err := row.Scan(&rawID, &job.Title, &job.Description, &rawCompany, &minCGPA,
		pq.Array(&appIDs), &job.TotalApplicants, &job.CreatedAt); err != nil {
		return nil, err
	}
	job.ID = id.JobID(rawID)
	job.CompanyID = id.CompanyID(rawCompany)
	if minCGPA.Valid {
		v := minCGPA.Float64
		job.MinCGPA = &v
	}
	apps, err := parseApplicationIDs(appIDs)
	if err != nil {
		return nil, err
	}
	job.Applications = apps
	return &job, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		user  models.User
		rawID uuid.UUID
		role  string
		cgpa  sql.NullFloat64
	)
	if err := row.Scan(&rawID, &user.FullName, &user.Email, &role, &cgpa, &user.CreatedAt); err != nil {
		return nil, err
	}
	user.ID = id.UserID(rawID)
	user.Role = models.Role(role)
	if cgpa.Valid {
		v := cgpa.Float64
		user.CGPA = &v
	}
	return &user, nil
}

func applicationIDStrings(ids []id.ApplicationID) []string {
	out := make([]string, len(ids))
	for i, appID := range ids {
		out[i] = appID.String()
	}
	return out
}

func parseApplicationIDs(raw []string) ([]id.ApplicationID, error) {
	out := make([]id.ApplicationID, 0, len(raw))
	for _, s := range raw {
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("parse application id %q: %w", s, err)
		}
		out = append(out, id.ApplicationID(u))
	}
	return out, nil
}

// translate maps a unique violation from either driver onto sentinel.ErrConflict.
func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.Join(sentinel.ErrConflict, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return errors.Join(sentinel.ErrConflict, err)
	}
	return err
}
