package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const getProperty = `
SELECT id, owner_id, title, base_price_cents, max_guests, channel_property_id,
	calendar_sync_enabled, external_calendar_urls, ical_feed_token_hash
FROM properties
WHERE id = $1`

func (q *Queries) GetProperty(ctx context.Context, db DBTX, id uuid.UUID) (Property, error) {
	rows, err := db.Query(ctx, getProperty, id)
	if err != nil {
		return Property{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[Property])
}

// ListAccessiblePropertyIDs returns properties whose owner actively trusts the user.
const listAccessiblePropertyIDs = `
SELECT p.id
FROM properties p
JOIN trust_connections tc ON tc.owner_id = p.owner_id
WHERE tc.trusted_user_id = $1 AND tc.status = 'active'
ORDER BY p.id`

func (q *Queries) ListAccessiblePropertyIDs(ctx context.Context, db DBTX, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := db.Query(ctx, listAccessiblePropertyIDs, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

func (q *Queries) UpdatePropertyFeedToken(ctx context.Context, db DBTX, id uuid.UUID, tokenHash string) (int64, error) {
	tag, err := db.Exec(ctx, `UPDATE properties SET ical_feed_token_hash = $2 WHERE id = $1`, id, tokenHash)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
