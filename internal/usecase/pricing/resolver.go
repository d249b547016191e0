// Package pricing resolves the nightly price a requester pays, applying trust-connection discounts.
package pricing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	dompricing "stayhub/internal/domain/pricing"
	"stayhub/internal/domain/property"
	"stayhub/internal/domain/user"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
)

type Resolver struct {
	trust  shared.TrustReader
	cache  shared.Cache
	ttl    time.Duration
	logger *slog.Logger
}

func NewResolver(trust shared.TrustReader, cache shared.Cache, ttl time.Duration, logger *slog.Logger) *Resolver {
	return &Resolver{
		trust:  trust,
		cache:  cache,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "pricing")),
	}
}

// Discount never fails: any lookup problem falls back to no discount.
func (r *Resolver) Discount(ctx context.Context, p *property.Property, requester user.Identity) dompricing.Discount {
	if requester.IsAnonymous() || requester.IsAdmin() || p.IsOwnedBy(requester.ID) {
		return dompricing.NoDiscount()
	}

	key := shared.TrustDiscountKey(p.OwnerID(), requester.ID)
	var bp int64
	hit, err := r.cache.Get(ctx, key, &bp)
	if err != nil {
		r.logger.Warn("discount cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if !hit {
		bp, err = r.lookup(ctx, p.OwnerID(), requester.ID)
		if err != nil {
			r.logger.Warn("trust lookup failed, using base price",
				slog.String("owner_id", p.OwnerID().String()),
				slog.String("user_id", requester.ID.String()),
				slog.String("error", err.Error()))
			return dompricing.NoDiscount()
		}
		if err := r.cache.Set(ctx, key, bp, r.ttl); err != nil {
			r.logger.Warn("discount cache write failed", slog.String("key", key), slog.String("error", err.Error()))
		}
	}

	d, err := dompricing.NewDiscountBP(bp)
	if err != nil {
		r.logger.Warn("stored discount out of range", slog.Int64("basis_points", bp))
		return dompricing.NoDiscount()
	}
	return d
}

func (r *Resolver) lookup(ctx context.Context, ownerID, userID uuid.UUID) (int64, error) {
	c, err := r.trust.ActiveConnection(ctx, ownerID, userID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return c.Discount().BasisPoints(), nil
}

// Resolve returns the nightly price for requester.
func (r *Resolver) Resolve(ctx context.Context, p *property.Property, requester user.Identity) dompricing.Money {
	return r.Discount(ctx, p, requester).Apply(p.BasePrice())
}

func (r *Resolver) Quote(ctx context.Context, p *property.Property, requester user.Identity, nights int) dompricing.Quote {
	return dompricing.NewQuote(p.BasePrice(), r.Discount(ctx, p, requester), nights)
}

// Invalidate drops the cached discount of one (owner, user) pair.
func (r *Resolver) Invalidate(ctx context.Context, ownerID, userID uuid.UUID) error {
	return r.cache.Delete(ctx, shared.TrustDiscountKey(ownerID, userID))
}
