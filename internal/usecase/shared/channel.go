package shared

import (
	"context"
	"strings"

	"stayhub/internal/domain/daterange"
)

// ChannelManager is the external booking distribution system (Beds24).
// Errors are marked errs.ErrTransientIntegration or errs.ErrPermanentIntegration.
type ChannelManager interface {
	// CreateBooking pushes a confirmed booking and returns the remote booking id.
	CreateBooking(ctx context.Context, req RemoteBookingRequest) (string, error)
	CancelBooking(ctx context.Context, remoteID string) error
	BookingStatus(ctx context.Context, remoteID string) (RemoteStatus, error)
	// ListBookings returns remote bookings of a channel property overlapping window.
	ListBookings(ctx context.Context, channelPropertyID string, window daterange.Range) ([]RemoteBooking, error)
}

type RemoteBookingRequest struct {
	ChannelPropertyID string
	// APIReference carries our booking id so remote bookings can be matched back.
	APIReference string
	Stay         daterange.Range
	Guests       int
	TotalCents   int64
	Notes        string
}

type RemoteBooking struct {
	ID           string
	APIReference string
	Stay         daterange.Range
	Status       RemoteStatus
}

type RemoteStatus string

const (
	RemoteConfirmed RemoteStatus = "confirmed"
	RemoteRequest   RemoteStatus = "request"
	RemoteNew       RemoteStatus = "new"
	RemoteCancelled RemoteStatus = "cancelled"
	RemoteBlack     RemoteStatus = "black"
	RemoteInquiry   RemoteStatus = "inquiry"
	RemoteUnknown   RemoteStatus = "unknown"
)

// ParseRemoteStatus accepts the status names; the legacy numeric code 3 means cancelled.
func ParseRemoteStatus(s string) RemoteStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "confirmed":
		return RemoteConfirmed
	case "new":
		return RemoteNew
	case "cancelled", "canceled", "3":
		return RemoteCancelled
	case "request":
		return RemoteRequest
	case "black":
		return RemoteBlack
	case "inquiry":
		return RemoteInquiry
	default:
		return RemoteUnknown
	}
}

func (s RemoteStatus) IsCancelled() bool {
	return s == RemoteCancelled
}

// Blocks reports whether the remote booking occupies the dates.
func (s RemoteStatus) Blocks() bool {
	return s != RemoteCancelled && s != RemoteInquiry
}
