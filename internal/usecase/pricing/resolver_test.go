//go:build unit

package pricing

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	dompricing "stayhub/internal/domain/pricing"
	"stayhub/internal/domain/trust"
	"stayhub/internal/domain/user"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/testutil/builder"
	"stayhub/internal/testutil/cachetest"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type MockTrustReader struct {
	mock.Mock
}

func (m *MockTrustReader) ActiveConnection(ctx context.Context, ownerID, userID uuid.UUID) (*trust.Connection, error) {
	args := m.Called(ctx, ownerID, userID)
	if c := args.Get(0); c != nil {
		return c.(*trust.Connection), args.Error(1)
	}
	return nil, args.Error(1)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func guest() user.Identity {
	return user.Identity{ID: uuid.New(), Role: user.RoleUser}
}

func discount(t *testing.T, bp int64) dompricing.Discount {
	t.Helper()
	d, err := dompricing.NewDiscountBP(bp)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func TestResolver_Resolve(t *testing.T) {
	p := builder.NewPropertyBuilder().BuildDomain()
	notFound := errs.MarkNew("no connection", errs.ErrNotFound)

	tests := []struct {
		name       string
		requester  func() user.Identity
		connection *trust.Connection
		lookupErr  error
		expectCall bool
		want       int64
	}{
		{
			name:      "success: anonymous pays base",
			requester: user.Anonymous,
			want:      10000,
		},
		{
			name:      "success: admin pays base",
			requester: func() user.Identity { return user.Identity{ID: uuid.New(), Role: user.RoleAdmin} },
			want:      10000,
		},
		{
			name:      "success: owner pays base",
			requester: func() user.Identity { return user.Identity{ID: p.OwnerID(), Role: user.RoleOwner} },
			want:      10000,
		},
		{
			name:       "success: 20 percent trust discount",
			requester:  guest,
			connection: builder.NewTrustBuilder().With(func(b *builder.TrustBuilder) { b.Discount = discount(t, 2000) }).BuildDomain(),
			expectCall: true,
			want:       8000,
		},
		{
			name:       "success: no connection pays base",
			requester:  guest,
			lookupErr:  notFound,
			expectCall: true,
			want:       10000,
		},
		{
			name:       "error: lookup failure falls back to base",
			requester:  guest,
			lookupErr:  assert.AnError,
			expectCall: true,
			want:       10000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := cachetest.New(t)
			reader := new(MockTrustReader)
			requester := tt.requester()
			if tt.expectCall {
				reader.On("ActiveConnection", mock.Anything, p.OwnerID(), requester.ID).Return(tt.connection, tt.lookupErr).Once()
			}

			r := NewResolver(reader, c, time.Minute, discardLogger)
			got := r.Resolve(context.Background(), p, requester)

			assert.Equal(t, tt.want, got.Cents())
			reader.AssertExpectations(t)
		})
	}
}

func TestResolver_CachesDiscount(t *testing.T) {
	p := builder.NewPropertyBuilder().BuildDomain()
	requester := guest()
	c, mr := cachetest.New(t)
	reader := new(MockTrustReader)
	conn := builder.NewTrustBuilder().With(func(b *builder.TrustBuilder) { b.Discount = discount(t, 1500) }).BuildDomain()
	reader.On("ActiveConnection", mock.Anything, p.OwnerID(), requester.ID).Return(conn, nil).Once()

	r := NewResolver(reader, c, time.Minute, discardLogger)
	for i := 0; i < 3; i++ {
		assert.Equal(t, int64(8500), r.Resolve(context.Background(), p, requester).Cents())
	}
	reader.AssertNumberOfCalls(t, "ActiveConnection", 1)
	assert.True(t, mr.Exists(shared.TrustDiscountKey(p.OwnerID(), requester.ID)))

	// Invalidation forces a fresh lookup.
	reader.On("ActiveConnection", mock.Anything, p.OwnerID(), requester.ID).Return(nil, errs.MarkNew("removed", errs.ErrNotFound)).Once()
	assert.NoError(t, r.Invalidate(context.Background(), p.OwnerID(), requester.ID))
	assert.Equal(t, int64(10000), r.Resolve(context.Background(), p, requester).Cents())
}

func TestResolver_LookupFailureIsNotCached(t *testing.T) {
	p := builder.NewPropertyBuilder().BuildDomain()
	requester := guest()
	c, mr := cachetest.New(t)
	reader := new(MockTrustReader)
	reader.On("ActiveConnection", mock.Anything, p.OwnerID(), requester.ID).Return(nil, assert.AnError).Once()

	r := NewResolver(reader, c, time.Minute, discardLogger)
	assert.Equal(t, int64(10000), r.Resolve(context.Background(), p, requester).Cents())
	assert.False(t, mr.Exists(shared.TrustDiscountKey(p.OwnerID(), requester.ID)))
}

func TestResolver_Quote(t *testing.T) {
	p := builder.NewPropertyBuilder().BuildDomain()
	requester := guest()
	c, _ := cachetest.New(t)
	reader := new(MockTrustReader)
	conn := builder.NewTrustBuilder().With(func(b *builder.TrustBuilder) { b.Discount = discount(t, 1500) }).BuildDomain()
	reader.On("ActiveConnection", mock.Anything, p.OwnerID(), requester.ID).Return(conn, nil)

	q := NewResolver(reader, c, time.Minute, discardLogger).Quote(context.Background(), p, requester, 2)

	assert.Equal(t, int64(20000), q.BaseTotal.Cents())
	assert.Equal(t, int64(17000), q.DiscountedTotal.Cents())
	assert.Equal(t, int64(3000), q.Savings.Cents())
	assert.Equal(t, int64(1500), q.Discount.BasisPoints())
}

func TestResolver_CacheUnavailable(t *testing.T) {
	p := builder.NewPropertyBuilder().BuildDomain()
	requester := guest()
	c, mr := cachetest.New(t)
	mr.SetError("ERR backend unavailable")
	reader := new(MockTrustReader)
	conn := builder.NewTrustBuilder().With(func(b *builder.TrustBuilder) { b.Discount = discount(t, 2000) }).BuildDomain()
	reader.On("ActiveConnection", mock.Anything, p.OwnerID(), requester.ID).Return(conn, nil)

	got := NewResolver(reader, c, time.Minute, discardLogger).Resolve(context.Background(), p, requester)

	assert.Equal(t, int64(8000), got.Cents())
}
