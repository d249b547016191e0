//go:build unit || e2e

package mocks

import (
	"context"
	"sync"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/domain/trust"
	"stayhub/internal/usecase/jobs"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// UnitOfWork runs fn against a single Tx. Writes are not rolled back when fn fails.
type UnitOfWork struct {
	Tx    *Tx
	Calls int
}

func NewUnitOfWork() *UnitOfWork {
	return &UnitOfWork{Tx: &Tx{
		BookingRepo:  new(BookingRepository),
		PropertyRepo: new(PropertyRepository),
		TrustRepo:    new(TrustConnectionRepository),
		JobQueue:     new(JobRecorder),
	}}
}

func (u *UnitOfWork) Within(ctx context.Context, fn func(ctx context.Context, tx shared.Tx) error) error {
	u.Calls++
	return fn(ctx, u.Tx)
}

type Tx struct {
	BookingRepo  *BookingRepository
	PropertyRepo *PropertyRepository
	TrustRepo    *TrustConnectionRepository
	JobQueue     *JobRecorder

	LockErr error
	Locked  []uuid.UUID
}

func (t *Tx) LockProperty(_ context.Context, propertyID uuid.UUID) error {
	if t.LockErr != nil {
		return t.LockErr
	}
	t.Locked = append(t.Locked, propertyID)
	return nil
}

func (t *Tx) Bookings() shared.BookingRepository                 { return t.BookingRepo }
func (t *Tx) Properties() shared.PropertyRepository              { return t.PropertyRepo }
func (t *Tx) TrustConnections() shared.TrustConnectionRepository { return t.TrustRepo }
func (t *Tx) Jobs() shared.JobEnqueuer                           { return t.JobQueue }

type BookingRepository struct {
	mock.Mock
}

func (m *BookingRepository) Create(ctx context.Context, b *booking.Booking) error {
	return m.Called(ctx, b).Error(0)
}

func (m *BookingRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*booking.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BookingRepository) FindByIdempotencyKey(ctx context.Context, guestID uuid.UUID, key string) (*booking.Booking, error) {
	args := m.Called(ctx, guestID, key)
	if b := args.Get(0); b != nil {
		return b.(*booking.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BookingRepository) Blocking(ctx context.Context, propertyID uuid.UUID, window daterange.Range, excludeID uuid.UUID) ([]*booking.Booking, error) {
	args := m.Called(ctx, propertyID, window, excludeID)
	return bookings(args.Get(0)), args.Error(1)
}

func (m *BookingRepository) UpdateStatus(ctx context.Context, b *booking.Booking, from booking.Status) error {
	return m.Called(ctx, b, from).Error(0)
}

func (m *BookingRepository) UpdateSync(ctx context.Context, id uuid.UUID, upd shared.SyncUpdate) (booking.Status, bool, error) {
	args := m.Called(ctx, id, upd)
	return args.Get(0).(booking.Status), args.Bool(1), args.Error(2)
}

func (m *BookingRepository) MarkReminderSent(ctx context.Context, id uuid.UUID, event booking.Event, at time.Time) (bool, error) {
	args := m.Called(ctx, id, event, at)
	return args.Bool(0), args.Error(1)
}

type PropertyRepository struct {
	mock.Mock
}

func (m *PropertyRepository) SetFeedTokenHash(ctx context.Context, propertyID uuid.UUID, hash string) error {
	return m.Called(ctx, propertyID, hash).Error(0)
}

type TrustConnectionRepository struct {
	mock.Mock
}

func (m *TrustConnectionRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*trust.Connection, error) {
	args := m.Called(ctx, id)
	if c := args.Get(0); c != nil {
		return c.(*trust.Connection), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TrustConnectionRepository) Update(ctx context.Context, c *trust.Connection) error {
	return m.Called(ctx, c).Error(0)
}

// JobRecorder keeps enqueued jobs and honours dedupe keys like the jobs table does.
type JobRecorder struct {
	mu   sync.Mutex
	Jobs []jobs.NewJob
	Err  error
}

func (r *JobRecorder) Enqueue(_ context.Context, job jobs.NewJob) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return false, r.Err
	}
	if job.DedupeKey != "" {
		for _, j := range r.Jobs {
			if j.DedupeKey == job.DedupeKey {
				return false, nil
			}
		}
	}
	r.Jobs = append(r.Jobs, job)
	return true, nil
}

// Kinds lists the kinds of recorded jobs in enqueue order.
func (r *JobRecorder) Kinds() []jobs.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]jobs.Kind, len(r.Jobs))
	for i, j := range r.Jobs {
		out[i] = j.Kind
	}
	return out
}

// Events lists the notification events recorded, in order.
func (r *JobRecorder) Events() []booking.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []booking.Event
	for _, j := range r.Jobs {
		if p, ok := j.Payload.(shared.NotificationPayload); ok {
			out = append(out, p.Event)
		}
	}
	return out
}
