package repository

import (
	"context"

	"stayhub/internal/infra"
	"stayhub/internal/infra/db"

	"github.com/google/uuid"
)

type PropertyWriteQueries interface {
	UpdatePropertyFeedToken(ctx context.Context, db db.DBTX, id uuid.UUID, tokenHash string) (int64, error)
}

type PropertyRepository struct {
	queries PropertyWriteQueries
	db      db.DBTX
}

func NewPropertyRepository(queries PropertyWriteQueries, db db.DBTX) *PropertyRepository {
	return &PropertyRepository{
		queries: queries,
		db:      db,
	}
}

func (r *PropertyRepository) SetFeedTokenHash(ctx context.Context, propertyID uuid.UUID, hash string) error {
	n, err := r.queries.UpdatePropertyFeedToken(ctx, r.db, propertyID, hash)
	if err != nil {
		return infra.WrapRepoErr("failed to store calendar feed token", err)
	}
	if n == 0 {
		return infra.WrapRepoErr("property not found", nil, infra.KindNotFound)
	}
	return nil
}
