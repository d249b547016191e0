package components

import (
	"stayhub/internal/infra/db"
	"stayhub/internal/infra/readstore"
	"stayhub/internal/infra/repository"
	"stayhub/internal/infra/uow"
	"stayhub/internal/usecase/jobs"
	"stayhub/internal/usecase/queries"
	"stayhub/internal/usecase/reconcile"
	"stayhub/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	baseOption,
	readstoreModule,
	repositoryModule,
)

var baseOption = fx.Provide(
	NewSQLQueries,
	NewDBTX,
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		// Property
		fx.Annotate(
			NewSQLQueries,
			fx.As(new(readstore.PropertyReadQueries)),
		),
		fx.Annotate(
			readstore.NewPropertyReadStore,
			fx.As(new(shared.PropertyReader)),
		),
		// Trust
		fx.Annotate(
			NewSQLQueries,
			fx.As(new(readstore.TrustReadQueries)),
		),
		fx.Annotate(
			readstore.NewTrustReadStore,
			fx.As(new(shared.TrustReader)),
		),
		// Booking
		fx.Annotate(
			NewSQLQueries,
			fx.As(new(readstore.BookingReadQueries)),
		),
		fx.Annotate(
			readstore.NewBookingReadStore,
			fx.As(new(shared.BookingReader)),
			fx.As(new(shared.SweepReader)),
			fx.As(new(queries.BookingViewStore)),
			fx.As(new(queries.FeedBookingSource)),
		),
	),
)

var repositoryModule = fx.Module("persistence/repository",
	fx.Provide(
		// UnitOfWork; transactional repositories are built per transaction.
		uow.NewPostgresUoW,
		// Jobs
		fx.Annotate(
			NewSQLQueries,
			fx.As(new(repository.JobStoreQueries)),
		),
		fx.Annotate(
			repository.NewJobStore,
			fx.As(new(jobs.Store)),
		),
		// Sweep locks
		fx.Annotate(
			NewSQLQueries,
			fx.As(new(repository.LockQueries)),
		),
		fx.Annotate(
			repository.NewSessionLocker,
			fx.As(new(reconcile.Locker)),
		),
	),
)

func NewSQLQueries(_ *pgxpool.Pool) *db.Queries {
	return db.NewQueries()
}

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}
