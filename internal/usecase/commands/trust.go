package commands

import (
	"context"
	"errors"
	"log/slog"

	dompricing "stayhub/internal/domain/pricing"
	"stayhub/internal/domain/trust"
	"stayhub/internal/domain/user"
	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
)

type UpdateTrustInput struct {
	// DiscountPercent is 0..100 with up to two decimals.
	DiscountPercent *float64
	Status          *trust.Status
}

type TrustCommands interface {
	Update(ctx context.Context, actor user.Identity, id uuid.UUID, in UpdateTrustInput) (*trust.Connection, error)
}

type trustCommandsImpl struct {
	uow    shared.UnitOfWork
	cache  shared.Cache
	clock  clock.Clock
	logger *slog.Logger
}

func NewTrustCommands(uow shared.UnitOfWork, cache shared.Cache, clk clock.Clock, logger *slog.Logger) TrustCommands {
	return &trustCommandsImpl{
		uow:    uow,
		cache:  cache,
		clock:  clk,
		logger: logger.With(slog.String("component", "trust_commands")),
	}
}

func (c *trustCommandsImpl) Update(ctx context.Context, actor user.Identity, id uuid.UUID, in UpdateTrustInput) (*trust.Connection, error) {
	if actor.IsAnonymous() {
		return nil, ErrAuthRequired
	}
	var discount *dompricing.Discount
	if in.DiscountPercent != nil {
		d, err := dompricing.NewDiscountPercent(*in.DiscountPercent)
		if err != nil {
			return nil, errs.Mark(err, errs.ErrValidation)
		}
		discount = &d
	}

	var updated *trust.Connection
	err := c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		conn, err := tx.TrustConnections().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := conn.Update(actor.ID, discount, in.Status, c.clock.Now()); err != nil {
			return markTrustErr(err)
		}
		if err := tx.TrustConnections().Update(ctx, conn); err != nil {
			return err
		}
		updated = conn
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Pricing and access read these keys; they must not outlive the change.
	keys := []string{
		shared.TrustDiscountKey(updated.OwnerID(), updated.TrustedID()),
		shared.AccessiblePropertiesKey(updated.TrustedID()),
	}
	if err := c.cache.Delete(ctx, keys...); err != nil {
		c.logger.Error("trust cache invalidation failed",
			slog.String("connection_id", id.String()),
			slog.String("error", err.Error()))
		return nil, errs.Wrap(err, "failed to invalidate trust caches")
	}
	return updated, nil
}

func markTrustErr(err error) error {
	switch {
	case errors.Is(err, trust.ErrNotOwner):
		return errs.Mark(err, errs.ErrPermission)
	case errors.Is(err, trust.ErrRemovedConnection):
		return errs.Mark(err, errs.ErrConflict)
	default:
		return errs.Mark(err, errs.ErrValidation)
	}
}
