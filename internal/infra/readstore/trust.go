package readstore

import (
	"context"

	"stayhub/internal/domain/trust"
	"stayhub/internal/infra"
	"stayhub/internal/infra/db"
	"stayhub/internal/infra/repository/converter"

	"github.com/google/uuid"
)

type TrustReadQueries interface {
	GetActiveTrustConnection(ctx context.Context, db db.DBTX, ownerID, userID uuid.UUID) (db.TrustConnection, error)
}

type TrustReadStore struct {
	queries TrustReadQueries
	db      db.DBTX
}

func NewTrustReadStore(queries TrustReadQueries, db db.DBTX) *TrustReadStore {
	return &TrustReadStore{
		queries: queries,
		db:      db,
	}
}

func (r *TrustReadStore) ActiveConnection(ctx context.Context, ownerID, userID uuid.UUID) (*trust.Connection, error) {
	row, err := r.queries.GetActiveTrustConnection(ctx, r.db, ownerID, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find active trust connection", err)
	}
	c, err := converter.TrustConnectionToDomain(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to convert trust connection", err, infra.KindDBFailure)
	}
	return c, nil
}
