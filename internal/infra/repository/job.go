package repository

import (
	"context"
	"encoding/json"
	"time"

	"stayhub/internal/infra"
	"stayhub/internal/infra/db"
	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/pgconv"
	"stayhub/internal/usecase/jobs"

	"github.com/google/uuid"
)

type JobWriteQueries interface {
	InsertJob(ctx context.Context, db db.DBTX, arg db.InsertJobParams) (int64, error)
}

// JobRepository enqueues jobs inside the caller's transaction.
type JobRepository struct {
	queries  JobWriteQueries
	db       db.DBTX
	policies jobs.Policies
	clock    clock.Clock
}

func NewJobRepository(queries JobWriteQueries, db db.DBTX, policies jobs.Policies, clk clock.Clock) *JobRepository {
	return &JobRepository{
		queries:  queries,
		db:       db,
		policies: policies,
		clock:    clk,
	}
}

func (r *JobRepository) Enqueue(ctx context.Context, job jobs.NewJob) (bool, error) {
	payload, err := json.Marshal(job.Payload)
	if err != nil {
		return false, infra.WrapRepoErr("failed to encode job payload", err, infra.KindDBFailure)
	}
	runAt := job.RunAt
	if runAt.IsZero() {
		runAt = r.clock.Now()
	}

	n, err := r.queries.InsertJob(ctx, r.db, db.InsertJobParams{
		ID:          uuid.New(),
		Kind:        job.Kind.String(),
		Payload:     payload,
		MaxAttempts: int32(r.policies.For(job.Kind).MaxAttempts), // #nosec G115 -- small config value
		RunAt:       pgconv.TimeToPgtype(runAt),
		DedupeKey:   pgconv.TextFromString(job.DedupeKey),
	})
	if err != nil {
		return false, infra.WrapRepoErr("failed to enqueue job", err)
	}
	return n == 1, nil
}

type JobStoreQueries interface {
	ClaimJob(ctx context.Context, db db.DBTX, arg db.ClaimJobParams) (db.Job, error)
	FinishJob(ctx context.Context, db db.DBTX, arg db.FinishJobParams) (int64, error)
}

// JobStore is the worker side of the queue. Each call is its own statement on the pool.
type JobStore struct {
	queries JobStoreQueries
	db      db.DBTX
	clock   clock.Clock
}

func NewJobStore(queries JobStoreQueries, db db.DBTX, clk clock.Clock) *JobStore {
	return &JobStore{
		queries: queries,
		db:      db,
		clock:   clk,
	}
}

var _ jobs.Store = (*JobStore)(nil)

func (s *JobStore) Claim(ctx context.Context, worker string, now, staleBefore time.Time) (*jobs.Job, error) {
	row, err := s.queries.ClaimJob(ctx, s.db, db.ClaimJobParams{
		Worker:      worker,
		Now:         pgconv.TimeToPgtype(now),
		StaleBefore: pgconv.TimeToPgtype(staleBefore),
	})
	if err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapRepoErr("failed to claim job", err)
	}
	return &jobs.Job{
		ID:          row.ID,
		Kind:        jobs.Kind(row.Kind),
		Payload:     row.Payload,
		Attempts:    int(row.Attempts),
		MaxAttempts: int(row.MaxAttempts),
		DedupeKey:   pgconv.StringFromText(row.DedupeKey),
		CreatedAt:   row.CreatedAt.Time,
	}, nil
}

func (s *JobStore) Complete(ctx context.Context, job *jobs.Job, worker string) error {
	return s.finish(ctx, job, worker, jobs.StatusDone, time.Time{}, "")
}

func (s *JobStore) Retry(ctx context.Context, job *jobs.Job, worker string, runAt time.Time, lastErr string) error {
	return s.finish(ctx, job, worker, jobs.StatusQueued, runAt, lastErr)
}

func (s *JobStore) Fail(ctx context.Context, job *jobs.Job, worker string, lastErr string) error {
	return s.finish(ctx, job, worker, jobs.StatusFailed, time.Time{}, lastErr)
}

func (s *JobStore) finish(ctx context.Context, job *jobs.Job, worker string, status jobs.Status, runAt time.Time, lastErr string) error {
	params := db.FinishJobParams{
		ID:        job.ID,
		Worker:    worker,
		Status:    string(status),
		LastError: lastErr,
		Now:       pgconv.TimeToPgtype(s.clock.Now()),
	}
	if !runAt.IsZero() {
		params.RunAt = pgconv.TimeToPgtype(runAt)
	}
	n, err := s.queries.FinishJob(ctx, s.db, params)
	if err != nil {
		return infra.WrapRepoErr("failed to finish job", err)
	}
	if n == 0 {
		// Another worker reclaimed the lease; its outcome wins.
		return infra.WrapRepoErr("job lease lost", nil, infra.KindStaleState)
	}
	return nil
}
