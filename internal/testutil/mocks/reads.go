//go:build unit || e2e

// Package mocks holds testify mocks of the use case ports shared across packages.
package mocks

import (
	"context"
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/domain/property"
	"stayhub/internal/domain/trust"
	"stayhub/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type PropertyReader struct {
	mock.Mock
}

func (m *PropertyReader) PropertyByID(ctx context.Context, id uuid.UUID) (*property.Property, error) {
	args := m.Called(ctx, id)
	if p := args.Get(0); p != nil {
		return p.(*property.Property), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *PropertyReader) AccessiblePropertyIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	args := m.Called(ctx, userID)
	if ids := args.Get(0); ids != nil {
		return ids.([]uuid.UUID), args.Error(1)
	}
	return nil, args.Error(1)
}

type TrustReader struct {
	mock.Mock
}

func (m *TrustReader) ActiveConnection(ctx context.Context, ownerID, userID uuid.UUID) (*trust.Connection, error) {
	args := m.Called(ctx, ownerID, userID)
	if c := args.Get(0); c != nil {
		return c.(*trust.Connection), args.Error(1)
	}
	return nil, args.Error(1)
}

type BookingReader struct {
	mock.Mock
}

func (m *BookingReader) BookingByID(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	args := m.Called(ctx, id)
	if b := args.Get(0); b != nil {
		return b.(*booking.Booking), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *BookingReader) Blocking(ctx context.Context, propertyID uuid.UUID, window daterange.Range) ([]*booking.Booking, error) {
	args := m.Called(ctx, propertyID, window)
	return bookings(args.Get(0)), args.Error(1)
}

func (m *BookingReader) Mirrored(ctx context.Context, channelIDs []string, localIDs []uuid.UUID) (shared.MirrorSet, error) {
	args := m.Called(ctx, channelIDs, localIDs)
	return args.Get(0).(shared.MirrorSet), args.Error(1)
}

type SweepReader struct {
	mock.Mock
}

func (m *SweepReader) ConfirmedWithChannelID(ctx context.Context, after shared.SweepKey, limit int) ([]*booking.Booking, error) {
	args := m.Called(ctx, after, limit)
	return bookings(args.Get(0)), args.Error(1)
}

func (m *SweepReader) PushCandidates(ctx context.Context, after shared.SweepKey, limit int) ([]*booking.Booking, error) {
	args := m.Called(ctx, after, limit)
	return bookings(args.Get(0)), args.Error(1)
}

func (m *SweepReader) RemoteCancelCandidates(ctx context.Context, after shared.SweepKey, limit int) ([]*booking.Booking, error) {
	args := m.Called(ctx, after, limit)
	return bookings(args.Get(0)), args.Error(1)
}

func (m *SweepReader) DueForCompletion(ctx context.Context, today time.Time, after shared.SweepKey, limit int) ([]*booking.Booking, error) {
	args := m.Called(ctx, today, after, limit)
	return bookings(args.Get(0)), args.Error(1)
}

func (m *SweepReader) CheckingInOn(ctx context.Context, day time.Time) ([]*booking.Booking, error) {
	args := m.Called(ctx, day)
	return bookings(args.Get(0)), args.Error(1)
}

func (m *SweepReader) CheckingOutOn(ctx context.Context, day time.Time) ([]*booking.Booking, error) {
	args := m.Called(ctx, day)
	return bookings(args.Get(0)), args.Error(1)
}

func bookings(v any) []*booking.Booking {
	if v == nil {
		return nil
	}
	return v.([]*booking.Booking)
}

type ChannelManager struct {
	mock.Mock
}

func (m *ChannelManager) CreateBooking(ctx context.Context, req shared.RemoteBookingRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *ChannelManager) CancelBooking(ctx context.Context, remoteID string) error {
	return m.Called(ctx, remoteID).Error(0)
}

func (m *ChannelManager) BookingStatus(ctx context.Context, remoteID string) (shared.RemoteStatus, error) {
	args := m.Called(ctx, remoteID)
	return args.Get(0).(shared.RemoteStatus), args.Error(1)
}

func (m *ChannelManager) ListBookings(ctx context.Context, channelPropertyID string, window daterange.Range) ([]shared.RemoteBooking, error) {
	args := m.Called(ctx, channelPropertyID, window)
	if rb := args.Get(0); rb != nil {
		return rb.([]shared.RemoteBooking), args.Error(1)
	}
	return nil, args.Error(1)
}
