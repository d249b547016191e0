package commands

import (
	"context"
	"log/slog"

	"stayhub/internal/domain/user"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/pkg/secret"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
)

type PropertyCommands interface {
	// RotateFeedToken issues a new calendar feed token. The plain token is only returned here.
	RotateFeedToken(ctx context.Context, actor user.Identity, propertyID uuid.UUID) (string, error)
}

type propertyCommandsImpl struct {
	uow        shared.UnitOfWork
	properties shared.PropertyReader
	cache      shared.Cache
	logger     *slog.Logger
}

func NewPropertyCommands(uow shared.UnitOfWork, properties shared.PropertyReader, cache shared.Cache, logger *slog.Logger) PropertyCommands {
	return &propertyCommandsImpl{
		uow:        uow,
		properties: properties,
		cache:      cache,
		logger:     logger.With(slog.String("component", "property_commands")),
	}
}

func (c *propertyCommandsImpl) RotateFeedToken(ctx context.Context, actor user.Identity, propertyID uuid.UUID) (string, error) {
	if actor.IsAnonymous() {
		return "", ErrAuthRequired
	}
	p, err := c.properties.PropertyByID(ctx, propertyID)
	if err != nil {
		return "", err
	}
	if !actor.IsAdmin() && !p.IsOwnedBy(actor.ID) {
		return "", ErrNotPropertyOwner
	}

	plain, hashed, err := secret.NewToken()
	if err != nil {
		return "", errs.Wrap(err, "failed to generate feed token")
	}
	err = c.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		return tx.Properties().SetFeedTokenHash(ctx, propertyID, hashed)
	})
	if err != nil {
		return "", err
	}

	if err := shared.InvalidateCalendarFeed(ctx, c.cache, propertyID); err != nil {
		c.logger.Warn("calendar feed invalidation failed",
			slog.String("property_id", propertyID.String()),
			slog.String("error", err.Error()))
	}
	c.logger.Info("calendar feed token rotated", slog.String("property_id", propertyID.String()))
	return plain, nil
}
