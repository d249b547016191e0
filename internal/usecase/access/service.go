// Package access decides which properties a caller may book.
package access

import (
	"context"
	"log/slog"
	"time"

	"stayhub/internal/domain/property"
	"stayhub/internal/domain/user"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
)

type Service struct {
	properties shared.PropertyReader
	cache      shared.Cache
	ttl        time.Duration
	logger     *slog.Logger
}

func NewService(properties shared.PropertyReader, cache shared.Cache, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{
		properties: properties,
		cache:      cache,
		ttl:        ttl,
		logger:     logger.With(slog.String("component", "access")),
	}
}

// AccessibleProperties lists properties whose owner has an active trust connection with userID.
// A cache failure degrades to a database read.
func (s *Service) AccessibleProperties(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	key := shared.AccessiblePropertiesKey(userID)
	var ids []uuid.UUID
	hit, err := s.cache.Get(ctx, key, &ids)
	if err != nil {
		s.logger.Warn("accessible properties cache read failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	if hit {
		return ids, nil
	}

	ids, err = s.properties.AccessiblePropertyIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	if err := s.cache.Set(ctx, key, ids, s.ttl); err != nil {
		s.logger.Warn("accessible properties cache write failed", slog.String("key", key), slog.String("error", err.Error()))
	}
	return ids, nil
}

// CanBook applies the trust scope to guests. Owners and admins are not scoped;
// the booking rules reject booking one's own property separately.
func (s *Service) CanBook(ctx context.Context, actor user.Identity, p *property.Property) (bool, error) {
	if actor.IsAnonymous() {
		return false, nil
	}
	if !actor.IsGuest() || p.IsOwnedBy(actor.ID) {
		return true, nil
	}
	ids, err := s.AccessibleProperties(ctx, actor.ID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == p.ID() {
			return true, nil
		}
	}
	return false, nil
}

func (s *Service) Invalidate(ctx context.Context, userID uuid.UUID) error {
	return s.cache.Delete(ctx, shared.AccessiblePropertiesKey(userID))
}
