package readstore

import (
	"context"

	"stayhub/internal/domain/property"
	"stayhub/internal/infra"
	"stayhub/internal/infra/db"
	"stayhub/internal/infra/repository/converter"

	"github.com/google/uuid"
)

type PropertyReadQueries interface {
	GetProperty(ctx context.Context, db db.DBTX, id uuid.UUID) (db.Property, error)
	ListAccessiblePropertyIDs(ctx context.Context, db db.DBTX, userID uuid.UUID) ([]uuid.UUID, error)
}

type PropertyReadStore struct {
	queries PropertyReadQueries
	db      db.DBTX
}

func NewPropertyReadStore(queries PropertyReadQueries, db db.DBTX) *PropertyReadStore {
	return &PropertyReadStore{
		queries: queries,
		db:      db,
	}
}

func (r *PropertyReadStore) PropertyByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	row, err := r.queries.GetProperty(ctx, r.db, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find property", err)
	}
	p, err := converter.PropertyToDomain(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to convert property", err, infra.KindDBFailure)
	}
	return p, nil
}

func (r *PropertyReadStore) AccessiblePropertyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	ids, err := r.queries.ListAccessiblePropertyIDs(ctx, r.db, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list accessible properties", err)
	}
	return ids, nil
}
