package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"jobportal/internal/application/models"
	"jobportal/pkg/platform/sentinel"
)

// Fixture is the reference data a dev deployment starts with. Users,
// companies and jobs are owned by other services; this loads a snapshot of them.
type Fixture struct {
	Companies []*models.Company `json:"companies"`
	Users     []*models.User    `json:"users"`
	Jobs      []*models.Job     `json:"jobs"`
}

// Seeder is implemented by both InMemory and PostgresStore.
type Seeder interface {
	InsertCompany(ctx context.Context, c *models.Company) error
	InsertUser(ctx context.Context, u *models.User) error
	InsertJob(ctx context.Context, j *models.Job) error
}

// SeedCounts reports how many records a seed inserted. Records already
// present are skipped, so seeding the same fixture twice is a no-op.
type SeedCounts struct {
	Companies int
	Users     int
	Jobs      int
}

// DecodeFixture reads a JSON fixture.
func DecodeFixture(r io.Reader) (*Fixture, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	var f Fixture
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	return &f, nil
}

// SeedFile loads the fixture at path into target.
func SeedFile(ctx context.Context, target Seeder, path string) (SeedCounts, error) {
	file, err := os.Open(path)
	if err != nil {
		return SeedCounts{}, fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()

	fixture, err := DecodeFixture(file)
	if err != nil {
		return SeedCounts{}, err
	}
	return Seed(ctx, target, fixture)
}

// Seed inserts companies, then users, then jobs so foreign keys resolve.
// Jobs start with an empty applicant list whatever the fixture says.
func Seed(ctx context.Context, target Seeder, fixture *Fixture) (SeedCounts, error) {
	var counts SeedCounts
	now := time.Now()

	for _, c := range fixture.Companies {
		if c.CreatedAt.IsZero() {
			c.CreatedAt = now
		}
		inserted, err := skipExisting(target.InsertCompany(ctx, c))
		if err != nil {
			return counts, fmt.Errorf("seed company %s: %w", c.ID, err)
		}
		if inserted {
			counts.Companies++
		}
	}
	for _, u := range fixture.Users {
		if u.CreatedAt.IsZero() {
			u.CreatedAt = now
		}
		inserted, err := skipExisting(target.InsertUser(ctx, u))
		if err != nil {
			return counts, fmt.Errorf("seed user %s: %w", u.ID, err)
		}
		if inserted {
			counts.Users++
		}
	}
	for _, j := range fixture.Jobs {
		if j.CreatedAt.IsZero() {
			j.CreatedAt = now
		}
		j.Applications = nil
		j.TotalApplicants = 0
		inserted, err := skipExisting(target.InsertJob(ctx, j))
		if err != nil {
			return counts, fmt.Errorf("seed job %s: %w", j.ID, err)
		}
		if inserted {
			counts.Jobs++
		}
	}
	return counts, nil
}

func skipExisting(err error) (bool, error) {
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, sentinel.ErrConflict):
		return false, nil
	default:
		return false, err
	}
}
