package converter

import (
	"fmt"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/domain/pricing"
	"stayhub/internal/infra/db"
	"stayhub/internal/pkg/pgconv"
)

func BookingToInfra(b *booking.Booking) db.Booking {
	s := b.Snapshot()
	return db.Booking{
		ID:                 s.ID,
		PropertyID:         s.PropertyID,
		GuestID:            s.GuestID,
		CheckIn:            pgconv.DateToPgtype(s.Stay.Start()),
		CheckOut:           pgconv.DateToPgtype(s.Stay.End()),
		Guests:             int32(s.Guests), // #nosec G115 -- bounded by property capacity
		TotalPriceCents:    s.TotalPrice.Cents(),
		OriginalPriceCents: s.OriginalPrice.Cents(),
		DiscountBP:         int32(s.Discount.BasisPoints()), // #nosec G115 -- 0..10000
		Status:             s.Status.String(),
		CancelledBy:        pgconv.TextFromString(s.CancelledBy.String()),
		CancellationReason: s.CancellationReason,
		RejectionReason:    s.RejectionReason,
		SpecialRequests:    s.SpecialRequests,
		IdempotencyKey:     pgconv.TextFromString(s.IdempotencyKey),
		ChannelBookingID:   pgconv.TextFromString(s.ChannelBookingID),
		SyncStatus:         s.SyncStatus.String(),
		SyncError:          s.SyncError,
		SyncedAt:           pgconv.TimePtrToPgtype(s.SyncedAt),
		RequestedAt:        pgconv.TimeToPgtype(s.RequestedAt),
		ConfirmedAt:        pgconv.TimePtrToPgtype(s.ConfirmedAt),
		RejectedAt:         pgconv.TimePtrToPgtype(s.RejectedAt),
		CancelledAt:        pgconv.TimePtrToPgtype(s.CancelledAt),
		CompletedAt:        pgconv.TimePtrToPgtype(s.CompletedAt),
		CreatedAt:          pgconv.TimeToPgtype(s.CreatedAt),
		UpdatedAt:          pgconv.TimeToPgtype(s.UpdatedAt),
	}
}

func BookingToDomain(row db.Booking) (*booking.Booking, error) {
	stay, err := daterange.New(pgconv.DateFromPgtype(row.CheckIn), pgconv.DateFromPgtype(row.CheckOut))
	if err != nil {
		return nil, fmt.Errorf("booking %s: %w", row.ID, err)
	}
	total, err := pricing.NewMoney(row.TotalPriceCents)
	if err != nil {
		return nil, fmt.Errorf("booking %s total: %w", row.ID, err)
	}
	original, err := pricing.NewMoney(row.OriginalPriceCents)
	if err != nil {
		return nil, fmt.Errorf("booking %s original: %w", row.ID, err)
	}
	discount, err := pricing.NewDiscountBP(int64(row.DiscountBP))
	if err != nil {
		return nil, fmt.Errorf("booking %s discount: %w", row.ID, err)
	}

	return booking.Reconstruct(booking.Snapshot{
		ID:                 row.ID,
		PropertyID:         row.PropertyID,
		GuestID:            row.GuestID,
		Stay:               stay,
		Guests:             int(row.Guests),
		TotalPrice:         total,
		OriginalPrice:      original,
		Discount:           discount,
		Status:             booking.Status(row.Status),
		CancelledBy:        booking.Actor(pgconv.StringFromText(row.CancelledBy)),
		CancellationReason: row.CancellationReason,
		RejectionReason:    row.RejectionReason,
		SpecialRequests:    row.SpecialRequests,
		IdempotencyKey:     pgconv.StringFromText(row.IdempotencyKey),
		ChannelBookingID:   pgconv.StringFromText(row.ChannelBookingID),
		SyncStatus:         booking.SyncStatus(row.SyncStatus),
		SyncError:          row.SyncError,
		SyncedAt:           pgconv.TimePtrFromPgtype(row.SyncedAt),
		RequestedAt:        row.RequestedAt.Time,
		ConfirmedAt:        pgconv.TimePtrFromPgtype(row.ConfirmedAt),
		RejectedAt:         pgconv.TimePtrFromPgtype(row.RejectedAt),
		CancelledAt:        pgconv.TimePtrFromPgtype(row.CancelledAt),
		CompletedAt:        pgconv.TimePtrFromPgtype(row.CompletedAt),
		CreatedAt:          row.CreatedAt.Time,
		UpdatedAt:          row.UpdatedAt.Time,
	})
}

func BookingsToDomain(rows []db.Booking) ([]*booking.Booking, error) {
	out := make([]*booking.Booking, 0, len(rows))
	for _, row := range rows {
		b, err := BookingToDomain(row)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

// StatusUpdateParams carries every column a transition may touch.
func StatusUpdateParams(b *booking.Booking, from booking.Status) db.UpdateBookingStatusParams {
	row := BookingToInfra(b)
	return db.UpdateBookingStatusParams{
		ID:                 row.ID,
		ExpectedStatus:     from.String(),
		Status:             row.Status,
		CancelledBy:        row.CancelledBy,
		CancellationReason: row.CancellationReason,
		RejectionReason:    row.RejectionReason,
		ConfirmedAt:        row.ConfirmedAt,
		RejectedAt:         row.RejectedAt,
		CancelledAt:        row.CancelledAt,
		CompletedAt:        row.CompletedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}
