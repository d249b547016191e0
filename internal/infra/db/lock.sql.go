package db

import "context"

// Advisory lock keys are hashed from text so callers can namespace them ("property:<id>", "sweep:status").

func (q *Queries) AdvisoryXactLock(ctx context.Context, db DBTX, key string) error {
	_, err := db.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key)
	return err
}

func (q *Queries) TryAdvisoryLock(ctx context.Context, db DBTX, key string) (bool, error) {
	var ok bool
	err := db.QueryRow(ctx, `SELECT pg_try_advisory_lock(hashtextextended($1, 0))`, key).Scan(&ok)
	return ok, err
}

func (q *Queries) AdvisoryUnlock(ctx context.Context, db DBTX, key string) (bool, error) {
	var ok bool
	err := db.QueryRow(ctx, `SELECT pg_advisory_unlock(hashtextextended($1, 0))`, key).Scan(&ok)
	return ok, err
}
