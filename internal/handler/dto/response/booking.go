package response

import (
	"time"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/usecase/queries"

	"github.com/google/uuid"
)

type BookingResponse struct {
	ID                 uuid.UUID  `json:"id"`
	PropertyID         uuid.UUID  `json:"propertyId"`
	PropertyTitle      string     `json:"propertyTitle,omitempty"`
	GuestID            uuid.UUID  `json:"guestId"`
	CheckIn            string     `json:"checkIn"`
	CheckOut           string     `json:"checkOut"`
	Nights             int        `json:"nights"`
	Guests             int        `json:"guests"`
	Status             string     `json:"status"`
	TotalPrice         string     `json:"totalPrice"`
	OriginalPrice      string     `json:"originalPrice"`
	DiscountPercent    float64    `json:"discountPercent"`
	SpecialRequests    string     `json:"specialRequests,omitempty"`
	CancelledBy        string     `json:"cancelledBy,omitempty"`
	CancellationReason string     `json:"cancellationReason,omitempty"`
	RejectionReason    string     `json:"rejectionReason,omitempty"`
	SyncStatus         string     `json:"syncStatus"`
	ChannelBookingID   string     `json:"channelBookingId,omitempty"`
	ConfirmedAt        *time.Time `json:"confirmedAt,omitempty"`
	CancelledAt        *time.Time `json:"cancelledAt,omitempty"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

type CreateBookingResponse struct {
	Booking  *BookingResponse  `json:"booking"`
	Warnings []WarningResponse `json:"warnings,omitempty"`
}

type BookingListResponse struct {
	Items      []*BookingResponse `json:"items"`
	NextCursor string             `json:"nextCursor,omitempty"`
}

func FromBooking(b *booking.Booking) (*BookingResponse, error) {
	var resp BookingResponse
	if err := copyFrom(&resp, b); err != nil {
		return nil, err
	}
	resp.CheckIn = b.Stay().Start().Format(daterange.Layout)
	resp.CheckOut = b.Stay().End().Format(daterange.Layout)
	resp.DiscountPercent = b.Discount().Percent()
	return &resp, nil
}

func FromBookingView(v *queries.BookingView) (*BookingResponse, error) {
	resp, err := FromBooking(v.Booking)
	if err != nil {
		return nil, err
	}
	resp.PropertyTitle = v.PropertyTitle
	return resp, nil
}

func FromBookingViews(views []*queries.BookingView) ([]*BookingResponse, error) {
	items := make([]*BookingResponse, 0, len(views))
	for _, v := range views {
		resp, err := FromBookingView(v)
		if err != nil {
			return nil, err
		}
		items = append(items, resp)
	}
	return items, nil
}
