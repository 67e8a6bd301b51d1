package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"jobportal/internal/backfill"
	id "jobportal/pkg/domain"
	"jobportal/pkg/platform/sentinel"
	txcontext "jobportal/pkg/platform/tx"
)

// ListJobCounts reports, per job, the stored list and counter next to the
// applications actually recorded against it.
func (s *PostgresStore) ListJobCounts(ctx context.Context) ([]backfill.JobCounts, error) {
	rows, err := s.q(ctx).QueryContext(ctx, `
		SELECT j.id, j.title, j.application_ids, j.total_applicants,
			COALESCE(
				(SELECT array_agg(a.id ORDER BY a.created_at, a.id) FROM applications a WHERE a.job_id = j.id),
				'{}'::uuid[]
			)
		FROM jobs j
		ORDER BY j.created_at, j.id`)
	if err != nil {
		return nil, fmt.Errorf("list job counts: %w", err)
	}
	defer rows.Close()

	out := make([]backfill.JobCounts, 0)
	for rows.Next() {
		var (
			rawID    uuid.UUID
			counts   backfill.JobCounts
			listed   []string
			recorded []string
			stored   sql.NullInt64
		)
		if err := rows.Scan(&rawID, &counts.Title, pq.Array(&listed), &stored, pq.Array(&recorded)); err != nil {
			return nil, fmt.Errorf("scan job counts: %w", err)
		}
		counts.JobID = id.JobID(rawID)
		if stored.Valid {
			v := int(stored.Int64)
			counts.Stored = &v
		}
		if counts.Listed, err = parseApplicationIDs(listed); err != nil {
			return nil, err
		}
		if counts.Recorded, err = parseApplicationIDs(recorded); err != nil {
			return nil, err
		}
		out = append(out, counts)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate job counts: %w", err)
	}
	return out, nil
}

// Reconcile locks the job row, appends whichever of missing it does not list
// yet and rewrites the counter from the result.
func (s *PostgresStore) Reconcile(ctx context.Context, jobID id.JobID, missing []id.ApplicationID) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin reconcile: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()
	ctx = txcontext.WithTx(ctx, tx)

	var raw []string
	err = s.q(ctx).QueryRowContext(ctx,
		`SELECT application_ids FROM jobs WHERE id = $1 FOR UPDATE`, uuid.UUID(jobID)).Scan(pq.Array(&raw))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, sentinel.ErrNotFound
		}
		return 0, fmt.Errorf("lock job: %w", err)
	}
	listed, err := parseApplicationIDs(raw)
	if err != nil {
		return 0, err
	}

	present := make(map[id.ApplicationID]struct{}, len(listed))
	for _, appID := range listed {
		present[appID] = struct{}{}
	}
	for _, appID := range missing {
		if _, ok := present[appID]; ok {
			continue
		}
		present[appID] = struct{}{}
		listed = append(listed, appID)
	}

	_, err = s.q(ctx).ExecContext(ctx,
		`UPDATE jobs SET application_ids = $2::uuid[], total_applicants = $3 WHERE id = $1`,
		uuid.UUID(jobID), pq.Array(applicationIDStrings(listed)), len(listed))
	if err != nil {
		return 0, fmt.Errorf("reconcile job: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit reconcile: %w", err)
	}
	return len(listed), nil
}
