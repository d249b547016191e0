//go:build unit

package commands

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"stayhub/internal/domain/booking"
	domcal "stayhub/internal/domain/calendar"
	"stayhub/internal/domain/daterange"
	dompricing "stayhub/internal/domain/pricing"
	"stayhub/internal/domain/property"
	"stayhub/internal/domain/user"
	"stayhub/internal/infra"
	"stayhub/internal/pkg/clock"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/testutil/builder"
	"stayhub/internal/testutil/cachetest"
	"stayhub/internal/testutil/mocks"
	"stayhub/internal/usecase/availability"
	"stayhub/internal/usecase/jobs"
	"stayhub/internal/usecase/shared"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAccess struct {
	mock.Mock
}

func (m *MockAccess) CanBook(ctx context.Context, actor user.Identity, p *property.Property) (bool, error) {
	args := m.Called(ctx, actor, p)
	return args.Bool(0), args.Error(1)
}

type MockEvaluator struct {
	mock.Mock
}

func (m *MockEvaluator) Evaluate(ctx context.Context, p *property.Property, stay daterange.Range, guests int, requester user.Identity) (availability.Result, error) {
	args := m.Called(ctx, p, stay, guests, requester)
	return args.Get(0).(availability.Result), args.Error(1)
}

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

var testNow = time.Date(2030, 6, 15, 9, 0, 0, 0, time.UTC)

type bookingFixture struct {
	uow       *mocks.UnitOfWork
	props     *mocks.PropertyReader
	bookings  *mocks.BookingReader
	access    *MockAccess
	evaluator *MockEvaluator
	mr        *miniredis.Miniredis
	clock     *clock.MockClock
	cmds      BookingCommands
}

func newBookingFixture(t *testing.T) *bookingFixture {
	t.Helper()
	c, mr := cachetest.New(t)
	f := &bookingFixture{
		uow:       mocks.NewUnitOfWork(),
		props:     new(mocks.PropertyReader),
		bookings:  new(mocks.BookingReader),
		access:    new(MockAccess),
		evaluator: new(MockEvaluator),
		mr:        mr,
		clock:     clock.NewMockClock(testNow),
	}
	f.cmds = NewBookingCommands(f.uow, f.props, f.bookings, f.access, f.evaluator, c, f.clock, discardLogger)
	return f
}

func (f *bookingFixture) seedFeedCache(t *testing.T, propertyID uuid.UUID) string {
	t.Helper()
	key := shared.CalendarFeedKey(propertyID, false)
	require.NoError(t, f.mr.Set(key, `"BEGIN:VCALENDAR"`))
	return key
}

func parseStay(t *testing.T, start, end string) daterange.Range {
	t.Helper()
	r, err := daterange.Parse(start, end)
	require.NoError(t, err)
	return r
}

func available(p *property.Property, stay daterange.Range) availability.Result {
	q := dompricing.NewQuote(p.BasePrice(), dompricing.NoDiscount(), stay.Nights())
	return availability.Result{Available: true, Quote: &q}
}

func TestBookingCommands_Create(t *testing.T) {
	guest := user.Identity{ID: uuid.New(), Role: user.RoleUser}
	stay := "2030-07-01"

	t.Run("success: pending booking with notification", func(t *testing.T) {
		f := newBookingFixture(t)
		p := builder.NewPropertyBuilder().BuildDomain()
		s := parseStay(t, stay, "2030-07-04")
		feedKey := f.seedFeedCache(t, p.ID())
		f.props.On("PropertyByID", mock.Anything, p.ID()).Return(p, nil)
		f.access.On("CanBook", mock.Anything, guest, p).Return(true, nil)
		f.evaluator.On("Evaluate", mock.Anything, p, s, 2, guest).Return(available(p, s), nil)
		f.uow.Tx.BookingRepo.On("Blocking", mock.Anything, p.ID(), s, uuid.Nil).Return(nil, nil)
		f.uow.Tx.BookingRepo.On("Create", mock.Anything, mock.AnythingOfType("*booking.Booking")).Return(nil)

		res, err := f.cmds.Create(context.Background(), guest, CreateBookingInput{PropertyID: p.ID(), Stay: s, Guests: 2})

		require.NoError(t, err)
		assert.False(t, res.IsReplayed)
		assert.Equal(t, booking.StatusPending, res.Booking.Status())
		assert.Equal(t, int64(30000), res.Booking.TotalPrice().Cents())
		assert.Equal(t, []uuid.UUID{p.ID()}, f.uow.Tx.Locked)
		assert.Equal(t, []booking.Event{booking.EventRequested}, f.uow.Tx.JobQueue.Events())
		assert.False(t, f.mr.Exists(feedKey))
	})

	t.Run("success: idempotency key replays the stored booking", func(t *testing.T) {
		f := newBookingFixture(t)
		existing := builder.NewBookingBuilder().ForGuest(guest.ID).With(func(s *booking.Snapshot) { s.IdempotencyKey = "key-1" }).BuildDomain()
		f.uow.Tx.BookingRepo.On("FindByIdempotencyKey", mock.Anything, guest.ID, "key-1").Return(existing, nil)

		res, err := f.cmds.Create(context.Background(), guest, CreateBookingInput{
			PropertyID: existing.PropertyID(), Stay: existing.Stay(), Guests: 2, IdempotencyKey: "key-1",
		})

		require.NoError(t, err)
		assert.True(t, res.IsReplayed)
		assert.Equal(t, existing.ID(), res.Booking.ID())
		f.evaluator.AssertNotCalled(t, "Evaluate", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("success: lost idempotency race replays the winner", func(t *testing.T) {
		f := newBookingFixture(t)
		p := builder.NewPropertyBuilder().BuildDomain()
		s := parseStay(t, stay, "2030-07-04")
		winner := builder.NewBookingBuilder().ForProperty(p.ID()).ForGuest(guest.ID).BuildDomain()
		f.uow.Tx.BookingRepo.On("FindByIdempotencyKey", mock.Anything, guest.ID, "key-2").
			Return(nil, errs.MarkNew("no booking", errs.ErrNotFound)).Once()
		f.uow.Tx.BookingRepo.On("FindByIdempotencyKey", mock.Anything, guest.ID, "key-2").Return(winner, nil).Once()
		f.props.On("PropertyByID", mock.Anything, p.ID()).Return(p, nil)
		f.access.On("CanBook", mock.Anything, guest, p).Return(true, nil)
		f.evaluator.On("Evaluate", mock.Anything, p, s, 2, guest).Return(available(p, s), nil)
		f.uow.Tx.BookingRepo.On("Blocking", mock.Anything, p.ID(), s, uuid.Nil).Return(nil, nil)
		f.uow.Tx.BookingRepo.On("Create", mock.Anything, mock.Anything).
			Return(infra.WrapRepoErr("duplicate", nil, infra.KindDuplicateKey))

		res, err := f.cmds.Create(context.Background(), guest, CreateBookingInput{PropertyID: p.ID(), Stay: s, Guests: 2, IdempotencyKey: "key-2"})

		require.NoError(t, err)
		assert.True(t, res.IsReplayed)
		assert.Equal(t, winner.ID(), res.Booking.ID())
	})

	t.Run("error: anonymous caller", func(t *testing.T) {
		f := newBookingFixture(t)
		_, err := f.cmds.Create(context.Background(), user.Anonymous(), CreateBookingInput{})
		assert.ErrorIs(t, err, errs.ErrPermission)
	})

	t.Run("error: guest without trust connection", func(t *testing.T) {
		f := newBookingFixture(t)
		p := builder.NewPropertyBuilder().BuildDomain()
		f.props.On("PropertyByID", mock.Anything, p.ID()).Return(p, nil)
		f.access.On("CanBook", mock.Anything, guest, p).Return(false, nil)

		_, err := f.cmds.Create(context.Background(), guest, CreateBookingInput{PropertyID: p.ID(), Stay: parseStay(t, stay, "2030-07-04"), Guests: 2})

		assert.ErrorIs(t, err, errs.ErrPermission)
		assert.Zero(t, f.uow.Calls)
	})

	t.Run("error: dates blocked by an external source", func(t *testing.T) {
		f := newBookingFixture(t)
		p := builder.NewPropertyBuilder().BuildDomain()
		s := parseStay(t, stay, "2030-07-04")
		blocked := domcal.NewBlockedRange(parseStay(t, "2030-07-02", "2030-07-06"), domcal.SourceExternalICal, "uid-1")
		f.props.On("PropertyByID", mock.Anything, p.ID()).Return(p, nil)
		f.access.On("CanBook", mock.Anything, guest, p).Return(true, nil)
		f.evaluator.On("Evaluate", mock.Anything, p, s, 2, guest).
			Return(availability.Result{Reason: availability.ReasonDatesUnavailable, Conflicts: []domcal.BlockedRange{blocked}}, nil)

		_, err := f.cmds.Create(context.Background(), guest, CreateBookingInput{PropertyID: p.ID(), Stay: s, Guests: 2})

		assert.ErrorIs(t, err, errs.ErrConflict)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, []domcal.BlockedRange{blocked}, conflict.Ranges)
		assert.Zero(t, f.uow.Calls)
	})

	t.Run("error: booking created while checking external sources", func(t *testing.T) {
		f := newBookingFixture(t)
		p := builder.NewPropertyBuilder().BuildDomain()
		s := parseStay(t, stay, "2030-07-04")
		racer := builder.NewBookingBuilder().ForProperty(p.ID()).Staying("2030-07-03", "2030-07-05").BuildDomain()
		f.props.On("PropertyByID", mock.Anything, p.ID()).Return(p, nil)
		f.access.On("CanBook", mock.Anything, guest, p).Return(true, nil)
		f.evaluator.On("Evaluate", mock.Anything, p, s, 2, guest).Return(available(p, s), nil)
		f.uow.Tx.BookingRepo.On("Blocking", mock.Anything, p.ID(), s, uuid.Nil).Return([]*booking.Booking{racer}, nil)

		_, err := f.cmds.Create(context.Background(), guest, CreateBookingInput{PropertyID: p.ID(), Stay: s, Guests: 2})

		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, racer.ID().String(), conflict.Ranges[0].Reference)
		f.uow.Tx.BookingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
		assert.Empty(t, f.uow.Tx.JobQueue.Jobs)
	})

	t.Run("error: capacity exceeded", func(t *testing.T) {
		f := newBookingFixture(t)
		p := builder.NewPropertyBuilder().BuildDomain()
		s := parseStay(t, stay, "2030-07-04")
		f.props.On("PropertyByID", mock.Anything, p.ID()).Return(p, nil)
		f.access.On("CanBook", mock.Anything, guest, p).Return(true, nil)
		f.evaluator.On("Evaluate", mock.Anything, p, s, 9, guest).
			Return(availability.Result{Reason: availability.ReasonCapacityExceeded}, nil)

		_, err := f.cmds.Create(context.Background(), guest, CreateBookingInput{PropertyID: p.ID(), Stay: s, Guests: 9})

		assert.ErrorIs(t, err, errs.ErrValidation)
	})

	t.Run("error: check-in in the past", func(t *testing.T) {
		f := newBookingFixture(t)
		p := builder.NewPropertyBuilder().BuildDomain()
		s := parseStay(t, "2030-06-10", "2030-06-12")
		f.props.On("PropertyByID", mock.Anything, p.ID()).Return(p, nil)
		f.access.On("CanBook", mock.Anything, guest, p).Return(true, nil)
		f.evaluator.On("Evaluate", mock.Anything, p, s, 2, guest).Return(available(p, s), nil)

		_, err := f.cmds.Create(context.Background(), guest, CreateBookingInput{PropertyID: p.ID(), Stay: s, Guests: 2})

		assert.ErrorIs(t, err, errs.ErrValidation)
		assert.ErrorIs(t, err, booking.ErrCheckInPast)
	})

	t.Run("error: owner books own property", func(t *testing.T) {
		f := newBookingFixture(t)
		p := builder.NewPropertyBuilder().BuildDomain()
		owner := user.Identity{ID: p.OwnerID(), Role: user.RoleOwner}
		s := parseStay(t, stay, "2030-07-04")
		f.props.On("PropertyByID", mock.Anything, p.ID()).Return(p, nil)
		f.access.On("CanBook", mock.Anything, owner, p).Return(true, nil)
		f.evaluator.On("Evaluate", mock.Anything, p, s, 2, owner).Return(available(p, s), nil)

		_, err := f.cmds.Create(context.Background(), owner, CreateBookingInput{PropertyID: p.ID(), Stay: s, Guests: 2})

		assert.ErrorIs(t, err, booking.ErrOwnProperty)
		assert.ErrorIs(t, err, errs.ErrValidation)
	})
}

func TestBookingCommands_UpdateStatus(t *testing.T) {
	tests := []struct {
		name       string
		property   func() *property.Property
		booking    func(p *property.Property) *booking.Booking
		actor      func(p *property.Property, b *booking.Booking) user.Identity
		input      UpdateStatusInput
		others     []*booking.Booking
		updateErr  error
		wantErr    error
		wantStatus booking.Status
		wantKinds  []jobs.Kind
		wantEvents []booking.Event
		wantActor  booking.Actor
	}{
		{
			name:     "success: owner confirms and push is queued",
			property: func() *property.Property { return builder.NewPropertyBuilder().ChannelManaged("chan-1").BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).BuildDomain()
			},
			actor:      ownerOf,
			input:      UpdateStatusInput{Status: booking.StatusConfirmed},
			wantStatus: booking.StatusConfirmed,
			wantKinds:  []jobs.Kind{jobs.KindChannelPush, jobs.KindNotification},
			wantEvents: []booking.Event{booking.EventConfirmed},
		},
		{
			name:     "success: admin confirms without channel manager",
			property: func() *property.Property { return builder.NewPropertyBuilder().BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).BuildDomain()
			},
			actor:      admin,
			input:      UpdateStatusInput{Status: booking.StatusConfirmed},
			wantStatus: booking.StatusConfirmed,
			wantKinds:  []jobs.Kind{jobs.KindNotification},
			wantEvents: []booking.Event{booking.EventConfirmed},
		},
		{
			name:     "success: guest cancels a synced booking",
			property: func() *property.Property { return builder.NewPropertyBuilder().ChannelManaged("chan-1").BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).Confirmed().Synced("remote-1").BuildDomain()
			},
			actor:      guestOf,
			input:      UpdateStatusInput{Status: booking.StatusCancelled, Reason: "plans changed"},
			wantStatus: booking.StatusCancelled,
			wantKinds:  []jobs.Kind{jobs.KindChannelCancel, jobs.KindNotification},
			wantEvents: []booking.Event{booking.EventCancelled},
			wantActor:  booking.ActorGuest,
		},
		{
			name:     "success: owner rejects a pending booking",
			property: func() *property.Property { return builder.NewPropertyBuilder().BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).BuildDomain()
			},
			actor:      ownerOf,
			input:      UpdateStatusInput{Status: booking.StatusCancelled, Reason: "maintenance"},
			wantStatus: booking.StatusCancelled,
			wantKinds:  []jobs.Kind{jobs.KindNotification},
			wantEvents: []booking.Event{booking.EventRejected},
			wantActor:  booking.ActorOwner,
		},
		{
			name:     "success: owner completes a finished stay",
			property: func() *property.Property { return builder.NewPropertyBuilder().BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).Staying("2030-06-10", "2030-06-14").Confirmed().BuildDomain()
			},
			actor:      ownerOf,
			input:      UpdateStatusInput{Status: booking.StatusCompleted},
			wantStatus: booking.StatusCompleted,
			wantKinds:  []jobs.Kind{jobs.KindNotification},
			wantEvents: []booking.Event{booking.EventCompleted},
		},
		{
			name:     "success: completing twice is a no-op",
			property: func() *property.Property { return builder.NewPropertyBuilder().BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).Staying("2030-06-10", "2030-06-14").
					With(func(s *booking.Snapshot) { s.Status = booking.StatusCompleted }).BuildDomain()
			},
			actor:      ownerOf,
			input:      UpdateStatusInput{Status: booking.StatusCompleted},
			wantStatus: booking.StatusCompleted,
		},
		{
			name:     "error: guest cannot confirm",
			property: func() *property.Property { return builder.NewPropertyBuilder().BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).BuildDomain()
			},
			actor:   guestOf,
			input:   UpdateStatusInput{Status: booking.StatusConfirmed},
			wantErr: errs.ErrPermission,
		},
		{
			name:     "error: stranger cannot cancel",
			property: func() *property.Property { return builder.NewPropertyBuilder().BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).BuildDomain()
			},
			actor:   func(*property.Property, *booking.Booking) user.Identity { return user.Identity{ID: uuid.New(), Role: user.RoleUser} },
			input:   UpdateStatusInput{Status: booking.StatusCancelled},
			wantErr: errs.ErrPermission,
		},
		{
			name:     "error: confirm overlapping another booking",
			property: func() *property.Property { return builder.NewPropertyBuilder().BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).BuildDomain()
			},
			actor:   ownerOf,
			input:   UpdateStatusInput{Status: booking.StatusConfirmed},
			others:  []*booking.Booking{builder.NewBookingBuilder().Confirmed().BuildDomain()},
			wantErr: errs.ErrConflict,
		},
		{
			name:     "error: cancelled booking cannot be confirmed",
			property: func() *property.Property { return builder.NewPropertyBuilder().BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).Cancelled(booking.ActorGuest).BuildDomain()
			},
			actor:   ownerOf,
			input:   UpdateStatusInput{Status: booking.StatusConfirmed},
			wantErr: booking.ErrInvalidTransition,
		},
		{
			name:     "error: stay not finished",
			property: func() *property.Property { return builder.NewPropertyBuilder().BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).Confirmed().BuildDomain()
			},
			actor:   ownerOf,
			input:   UpdateStatusInput{Status: booking.StatusCompleted},
			wantErr: errs.ErrValidation,
		},
		{
			name:     "error: concurrent status change",
			property: func() *property.Property { return builder.NewPropertyBuilder().BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).BuildDomain()
			},
			actor:     guestOf,
			input:     UpdateStatusInput{Status: booking.StatusCancelled},
			updateErr: infra.WrapRepoErr("stale", nil, infra.KindStaleState),
			wantErr:   ErrBookingChanged,
		},
		{
			name:     "error: pending is not a target",
			property: func() *property.Property { return builder.NewPropertyBuilder().BuildDomain() },
			booking: func(p *property.Property) *booking.Booking {
				return builder.NewBookingBuilder().ForProperty(p.ID()).BuildDomain()
			},
			actor:   ownerOf,
			input:   UpdateStatusInput{Status: booking.StatusPending},
			wantErr: errs.ErrValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newBookingFixture(t)
			p := tt.property()
			b := tt.booking(p)
			actor := tt.actor(p, b)
			feedKey := f.seedFeedCache(t, p.ID())

			f.bookings.On("BookingByID", mock.Anything, b.ID()).Return(b, nil)
			f.props.On("PropertyByID", mock.Anything, p.ID()).Return(p, nil)
			f.uow.Tx.BookingRepo.On("GetForUpdate", mock.Anything, b.ID()).Return(b, nil).Maybe()
			f.uow.Tx.BookingRepo.On("Blocking", mock.Anything, p.ID(), b.Stay(), b.ID()).Return(tt.others, nil).Maybe()
			f.uow.Tx.BookingRepo.On("UpdateStatus", mock.Anything, b, mock.Anything).Return(tt.updateErr).Maybe()

			got, err := f.cmds.UpdateStatus(context.Background(), actor, b.ID(), tt.input)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, f.uow.Tx.JobQueue.Jobs)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantStatus, got.Status())
			assert.Equal(t, tt.wantKinds, nilIfEmpty(f.uow.Tx.JobQueue.Kinds()))
			assert.Equal(t, tt.wantEvents, f.uow.Tx.JobQueue.Events())
			if tt.wantActor != "" {
				assert.Equal(t, tt.wantActor, got.CancelledBy())
			}
			assert.False(t, f.mr.Exists(feedKey))
		})
	}
}

func TestBookingCommands_UpdateStatus_LockOrder(t *testing.T) {
	for _, in := range []UpdateStatusInput{
		{Status: booking.StatusConfirmed},
		{Status: booking.StatusCancelled, Reason: "maintenance"},
	} {
		t.Run("success: row lock before property lock on "+in.Status.String(), func(t *testing.T) {
			f := newBookingFixture(t)
			p := builder.NewPropertyBuilder().BuildDomain()
			b := builder.NewBookingBuilder().ForProperty(p.ID()).BuildDomain()

			var lockedAtRowLock []uuid.UUID
			f.bookings.On("BookingByID", mock.Anything, b.ID()).Return(b, nil)
			f.props.On("PropertyByID", mock.Anything, p.ID()).Return(p, nil)
			f.uow.Tx.BookingRepo.On("GetForUpdate", mock.Anything, b.ID()).
				Run(func(mock.Arguments) { lockedAtRowLock = append([]uuid.UUID{}, f.uow.Tx.Locked...) }).
				Return(b, nil)
			f.uow.Tx.BookingRepo.On("Blocking", mock.Anything, p.ID(), b.Stay(), b.ID()).Return(nil, nil).Maybe()
			f.uow.Tx.BookingRepo.On("UpdateStatus", mock.Anything, b, mock.Anything).Return(nil)

			_, err := f.cmds.UpdateStatus(context.Background(), ownerOf(p, b), b.ID(), in)

			require.NoError(t, err)
			assert.Empty(t, lockedAtRowLock)
			assert.Equal(t, []uuid.UUID{p.ID()}, f.uow.Tx.Locked)
		})
	}
}

func ownerOf(p *property.Property, _ *booking.Booking) user.Identity {
	return user.Identity{ID: p.OwnerID(), Role: user.RoleOwner}
}

func guestOf(_ *property.Property, b *booking.Booking) user.Identity {
	return user.Identity{ID: b.GuestID(), Role: user.RoleUser}
}

func admin(*property.Property, *booking.Booking) user.Identity {
	return user.Identity{ID: uuid.New(), Role: user.RoleAdmin}
}

func nilIfEmpty(kinds []jobs.Kind) []jobs.Kind {
	if len(kinds) == 0 {
		return nil
	}
	return kinds
}
