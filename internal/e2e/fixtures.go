//go:build e2e

package e2e

import (
	"context"
	"sync"
	"testing"
	"time"

	"stayhub/internal/domain/user"
	"stayhub/internal/pkg/jwt"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// ResetDB empties every table between subtests.
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := pool.Exec(ctx, `TRUNCATE bookings, trust_connections, properties, jobs CASCADE`)
	return err
}

type PropertyFixture struct {
	OwnerID        uuid.UUID
	Title          string
	BasePriceCents int64
	MaxGuests      int32
}

func CreateTestProperty(t *testing.T, pool *pgxpool.Pool, f PropertyFixture) uuid.UUID {
	t.Helper()

	if f.Title == "" {
		f.Title = "Lakeside Cabin"
	}
	if f.BasePriceCents == 0 {
		f.BasePriceCents = 20000
	}
	if f.MaxGuests == 0 {
		f.MaxGuests = 4
	}

	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO properties (id, owner_id, title, base_price_cents, max_guests)
		VALUES ($1, $2, $3, $4, $5)`, id, f.OwnerID, f.Title, f.BasePriceCents, f.MaxGuests)
	require.NoError(t, err)
	return id
}

func CreateTestTrustConnection(t *testing.T, pool *pgxpool.Pool, ownerID, trustedID uuid.UUID, discountBP int32) uuid.UUID {
	t.Helper()

	id := uuid.New()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO trust_connections (id, owner_id, trusted_user_id, discount_bp, status)
		VALUES ($1, $2, $3, $4, 'active')`, id, ownerID, trustedID, discountBP)
	require.NoError(t, err)
	return id
}

func CountBlockingBookings(t *testing.T, pool *pgxpool.Pool, propertyID uuid.UUID) int {
	t.Helper()

	var n int
	err := pool.QueryRow(context.Background(), `
		SELECT count(*) FROM bookings
		WHERE property_id = $1 AND status IN ('pending', 'confirmed')`, propertyID).Scan(&n)
	require.NoError(t, err)
	return n
}

// Token signs an access token the way the identity service would.
func Token(t *testing.T, svc *jwt.Service, id user.Identity) string {
	t.Helper()

	token, err := svc.GenerateToken(id)
	require.NoError(t, err)
	return token
}

// RecordingPublisher stands in for the Kafka publisher.
type RecordingPublisher struct {
	mu     sync.Mutex
	events []shared.NotificationPayload
}

func (p *RecordingPublisher) Publish(_ context.Context, event shared.NotificationPayload) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *RecordingPublisher) Events() []shared.NotificationPayload {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]shared.NotificationPayload(nil), p.events...)
}

func (p *RecordingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
}
