package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const jobColumns = `id, kind, payload, status, attempts, max_attempts, run_at, dedupe_key,
	last_error, locked_by, locked_at, created_at`

type InsertJobParams struct {
	ID          uuid.UUID
	Kind        string
	Payload     []byte
	MaxAttempts int32
	RunAt       pgtype.Timestamptz
	DedupeKey   pgtype.Text
}

// InsertJob skips the row when an unfinished job holds the same dedupe key.
const insertJob = `
INSERT INTO jobs (id, kind, payload, status, attempts, max_attempts, run_at, dedupe_key)
VALUES ($1, $2, $3, 'queued', 0, $4, $5, $6)
ON CONFLICT (dedupe_key) WHERE dedupe_key IS NOT NULL AND status IN ('queued', 'running')
DO NOTHING`

func (q *Queries) InsertJob(ctx context.Context, db DBTX, arg InsertJobParams) (int64, error) {
	tag, err := db.Exec(ctx, insertJob, arg.ID, arg.Kind, arg.Payload, arg.MaxAttempts, arg.RunAt, arg.DedupeKey)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type ClaimJobParams struct {
	Worker string
	Now    pgtype.Timestamptz
	// Running jobs locked before this instant are considered abandoned.
	StaleBefore pgtype.Timestamptz
}

const claimJob = `
UPDATE jobs SET
	status = 'running',
	attempts = attempts + 1,
	locked_by = $1,
	locked_at = $2,
	updated_at = $2
WHERE id = (
	SELECT id FROM jobs
	WHERE (status = 'queued' AND run_at <= $2)
	   OR (status = 'running' AND locked_at < $3)
	ORDER BY run_at
	LIMIT 1
	FOR UPDATE SKIP LOCKED
)
RETURNING ` + jobColumns

func (q *Queries) ClaimJob(ctx context.Context, db DBTX, arg ClaimJobParams) (Job, error) {
	rows, err := db.Query(ctx, claimJob, arg.Worker, arg.Now, arg.StaleBefore)
	if err != nil {
		return Job{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Job])
}

type FinishJobParams struct {
	ID        uuid.UUID
	Worker    string
	Status    string
	RunAt     pgtype.Timestamptz
	LastError string
	Now       pgtype.Timestamptz
}

// FinishJob only touches the row while the caller still holds the lease.
const finishJob = `
UPDATE jobs SET
	status = $3,
	run_at = COALESCE($4, run_at),
	last_error = $5,
	locked_by = NULL,
	locked_at = NULL,
	updated_at = $6
WHERE id = $1 AND locked_by = $2 AND status = 'running'`

func (q *Queries) FinishJob(ctx context.Context, db DBTX, arg FinishJobParams) (int64, error) {
	tag, err := db.Exec(ctx, finishJob, arg.ID, arg.Worker, arg.Status, arg.RunAt, arg.LastError, arg.Now)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
