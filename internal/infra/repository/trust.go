package repository

import (
	"context"

	"stayhub/internal/domain/trust"
	"stayhub/internal/infra"
	"stayhub/internal/infra/db"
	"stayhub/internal/infra/repository/converter"
	"stayhub/internal/pkg/pgconv"

	"github.com/google/uuid"
)

type TrustWriteQueries interface {
	GetTrustConnectionForUpdate(ctx context.Context, db db.DBTX, id uuid.UUID) (db.TrustConnection, error)
	UpdateTrustConnection(ctx context.Context, db db.DBTX, arg db.UpdateTrustConnectionParams) (int64, error)
}

type TrustConnectionRepository struct {
	queries TrustWriteQueries
	db      db.DBTX
}

func NewTrustConnectionRepository(queries TrustWriteQueries, db db.DBTX) *TrustConnectionRepository {
	return &TrustConnectionRepository{
		queries: queries,
		db:      db,
	}
}

func (r *TrustConnectionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*trust.Connection, error) {
	row, err := r.queries.GetTrustConnectionForUpdate(ctx, r.db, id)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock trust connection", err)
	}
	c, err := converter.TrustConnectionToDomain(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to convert trust connection", err, infra.KindDBFailure)
	}
	return c, nil
}

func (r *TrustConnectionRepository) Update(ctx context.Context, c *trust.Connection) error {
	n, err := r.queries.UpdateTrustConnection(ctx, r.db, db.UpdateTrustConnectionParams{
		ID:         c.ID(),
		DiscountBP: int32(c.Discount().BasisPoints()), // #nosec G115 -- 0..10000
		Status:     c.Status().String(),
		UpdatedAt:  pgconv.TimeToPgtype(c.UpdatedAt()),
	})
	if err != nil {
		return infra.WrapRepoErr("failed to update trust connection", err)
	}
	if n == 0 {
		return infra.WrapRepoErr("trust connection not found", nil, infra.KindNotFound)
	}
	return nil
}
