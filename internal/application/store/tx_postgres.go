package store

import (
	"context"
	"database/sql"
	"time"

	"jobportal/internal/application/models"
	"jobportal/internal/application/service"
	id "jobportal/pkg/domain"
	dErrors "jobportal/pkg/domain-errors"
	txcontext "jobportal/pkg/platform/tx"
)

const defaultApplyTxTimeout = 5 * time.Second

// PostgresTx runs apply writes inside a database transaction.
type PostgresTx struct {
	store   *PostgresStore
	timeout time.Duration
}

func NewPostgresTx(store *PostgresStore, timeout time.Duration) *PostgresTx {
	return &PostgresTx{store: store, timeout: timeout}
}

func (t *PostgresTx) RunInTx(ctx context.Context, fn func(stores service.TxStores) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := t.timeout
	if timeout == 0 {
		timeout = defaultApplyTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	tx, err := t.store.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&postgresTxStores{store: t.store, tx: tx}); err != nil {
		return err
	}

	return tx.Commit()
}

// postgresTxStores binds every write to tx regardless of the ctx callers pass.
type postgresTxStores struct {
	store *PostgresStore
	tx    *sql.Tx
}

func (s *postgresTxStores) CreateApplication(ctx context.Context, app *models.Application) error {
	return s.store.CreateApplication(txcontext.WithTx(ctx, s.tx), app)
}

func (s *postgresTxStores) AppendApplication(ctx context.Context, jobID id.JobID, applicationID id.ApplicationID) (int, error) {
	return s.store.AppendApplication(txcontext.WithTx(ctx, s.tx), jobID, applicationID)
}
