package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const trustColumns = `id, owner_id, trusted_user_id, discount_bp, status, updated_at`

func (q *Queries) GetActiveTrustConnection(ctx context.Context, db DBTX, ownerID, userID uuid.UUID) (TrustConnection, error) {
	rows, err := db.Query(ctx, `SELECT `+trustColumns+` FROM trust_connections
		WHERE owner_id = $1 AND trusted_user_id = $2 AND status = 'active'`, ownerID, userID)
	if err != nil {
		return TrustConnection{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[TrustConnection])
}

func (q *Queries) GetTrustConnectionForUpdate(ctx context.Context, db DBTX, id uuid.UUID) (TrustConnection, error) {
	rows, err := db.Query(ctx, `SELECT `+trustColumns+` FROM trust_connections WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return TrustConnection{}, err
	}
	return pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[TrustConnection])
}

type UpdateTrustConnectionParams struct {
	ID         uuid.UUID
	DiscountBP int32
	Status     string
	UpdatedAt  pgtype.Timestamptz
}

func (q *Queries) UpdateTrustConnection(ctx context.Context, db DBTX, arg UpdateTrustConnectionParams) (int64, error) {
	tag, err := db.Exec(ctx, `UPDATE trust_connections
		SET discount_bp = $2, status = $3, updated_at = $4
		WHERE id = $1`, arg.ID, arg.DiscountBP, arg.Status, arg.UpdatedAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
