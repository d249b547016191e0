package uow

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"log/slog"
	"time"

	"stayhub/internal/infra"
	"stayhub/internal/infra/db"
	"stayhub/internal/infra/repository"
	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/jobs"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
)

var (
	errTransactionBegin   = errs.New("failed to begin transaction")
	errTransactionCommit  = errs.New("failed to commit transaction")
	errMaxRetriesExceeded = errs.New("transaction failed after max retries")
)

type PostgresUoW struct {
	pool     *pgxpool.Pool
	q        *db.Queries
	policies jobs.Policies
	clock    clock.Clock
}

func NewPostgresUoW(pool *pgxpool.Pool, q *db.Queries, policies jobs.Policies, clk clock.Clock) shared.UnitOfWork {
	return &PostgresUoW{
		pool:     pool,
		q:        q,
		policies: policies,
		clock:    clk,
	}
}

// ReadCommitted is enough: overlap safety comes from the advisory lock and the exclusion constraint.
func (u *PostgresUoW) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	return u.runInTxWithOptions(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted}, fn)
}

// Avoids defer accumulation in retry loops to prevent connection leaks
func (u *PostgresUoW) runInTxWithOptions(ctx context.Context, options pgx.TxOptions, fn func(ctx context.Context, tx shared.Tx) error) error {
	const maxRetries = 3
	base := 100 * time.Millisecond

	for attempt := 0; attempt <= maxRetries; attempt++ {
		pgxTx, err := u.pool.BeginTx(ctx, options)
		if err != nil {
			return errs.Mark(err, errTransactionBegin)
		}

		tx := &pgTx{
			dbtx: pgxTx,
			uow:  u,
		}

		err = fn(ctx, tx)
		if err == nil {
			if err = pgxTx.Commit(ctx); err == nil {
				return nil
			}
			err = errs.Mark(err, errTransactionCommit)
		}

		if rollbackErr := pgxTx.Rollback(ctx); rollbackErr != nil {
			if !errors.Is(rollbackErr, pgx.ErrTxClosed) {
				slog.Warn("rollback failed", "attempt", attempt+1, "error", rollbackErr.Error())
			}
		}

		if !shouldRetry(err, attempt, maxRetries) {
			if attempt == maxRetries && isRetryableError(err) {
				slog.Error("transaction failed after max retries",
					"attempts", attempt+1,
					"error", err.Error())
				return errs.Mark(err, errMaxRetriesExceeded)
			}
			return err
		}

		waitTime := calculateBackoff(attempt, base)

		slog.Warn("retrying transaction due to retryable error",
			"attempt", attempt+1,
			"wait_ms", waitTime.Milliseconds(),
			"error", err.Error())

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
		}
	}

	return errMaxRetriesExceeded
}

func shouldRetry(err error, attempt, maxRetries int) bool {
	return isRetryableError(err) && attempt < maxRetries
}

func calculateBackoff(attempt int, base time.Duration) time.Duration {
	waitTime := time.Duration(1<<attempt) * base
	jitter := cryptoRandInt63n(int64(waitTime / 5))
	return waitTime + time.Duration(jitter)
}

func cryptoRandInt63n(n int64) int64 {
	if n <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// No jitter rather than failing the retry.
		return 0
	}
	// Safe conversion: mask high bit to ensure positive int64
	uval := binary.BigEndian.Uint64(buf[:]) & 0x7FFFFFFFFFFFFFFF
	// #nosec G115 -- Intentionally safe conversion after masking
	return int64(uval) % n
}

func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	switch pgErr.Code {
	case pgErrCodeSerializationFailure, pgErrCodeDeadlockDetected:
		return true
	default:
		return false
	}
}

type pgTx struct {
	dbtx db.DBTX
	uow  *PostgresUoW

	// Lazy-initialized repositories
	bookingRepo  shared.BookingRepository
	propertyRepo shared.PropertyRepository
	trustRepo    shared.TrustConnectionRepository
	jobRepo      shared.JobEnqueuer
}

// LockProperty takes a transaction-scoped advisory lock, released on commit or rollback.
func (t *pgTx) LockProperty(ctx context.Context, propertyID uuid.UUID) error {
	if err := t.uow.q.AdvisoryXactLock(ctx, t.dbtx, PropertyLockKey(propertyID)); err != nil {
		return infra.WrapRepoErr("failed to lock property", err)
	}
	return nil
}

func PropertyLockKey(propertyID uuid.UUID) string {
	return "property:" + propertyID.String()
}

func (t *pgTx) Bookings() shared.BookingRepository {
	if t.bookingRepo == nil {
		t.bookingRepo = repository.NewBookingRepository(t.uow.q, t.dbtx)
	}
	return t.bookingRepo
}

func (t *pgTx) Properties() shared.PropertyRepository {
	if t.propertyRepo == nil {
		t.propertyRepo = repository.NewPropertyRepository(t.uow.q, t.dbtx)
	}
	return t.propertyRepo
}

func (t *pgTx) TrustConnections() shared.TrustConnectionRepository {
	if t.trustRepo == nil {
		t.trustRepo = repository.NewTrustConnectionRepository(t.uow.q, t.dbtx)
	}
	return t.trustRepo
}

func (t *pgTx) Jobs() shared.JobEnqueuer {
	if t.jobRepo == nil {
		t.jobRepo = repository.NewJobRepository(t.uow.q, t.dbtx, t.uow.policies, t.uow.clock)
	}
	return t.jobRepo
}
