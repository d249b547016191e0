package repository

import (
	"context"

	"stayhub/internal/infra"
	"stayhub/internal/infra/db"

	"github.com/jackc/pgx/v5/pgxpool"
)

type LockQueries interface {
	TryAdvisoryLock(ctx context.Context, db db.DBTX, key string) (bool, error)
	AdvisoryUnlock(ctx context.Context, db db.DBTX, key string) (bool, error)
}

// SessionLocker holds a session advisory lock on a dedicated connection so that
// only one process runs a given sweep at a time.
type SessionLocker struct {
	queries LockQueries
	pool    *pgxpool.Pool
}

func NewSessionLocker(queries LockQueries, pool *pgxpool.Pool) *SessionLocker {
	return &SessionLocker{
		queries: queries,
		pool:    pool,
	}
}

// TryLock returns ok=false when another session holds key. The returned release must be called when ok.
func (l *SessionLocker) TryLock(ctx context.Context, key string) (release func(), ok bool, err error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, infra.WrapRepoErr("failed to acquire connection for lock", err)
	}
	ok, err = l.queries.TryAdvisoryLock(ctx, conn, key)
	if err != nil {
		conn.Release()
		return nil, false, infra.WrapRepoErr("failed to take advisory lock", err)
	}
	if !ok {
		conn.Release()
		return nil, false, nil
	}
	return func() {
		// The lock must go before the connection returns to the pool.
		if _, err := l.queries.AdvisoryUnlock(context.WithoutCancel(ctx), conn, key); err != nil {
			conn.Conn().Close(context.WithoutCancel(ctx)) //nolint:errcheck
		}
		conn.Release()
	}, true, nil
}
