package request

import (
	"strings"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"
	"stayhub/internal/usecase/commands"
	"stayhub/internal/usecase/queries"

	"github.com/google/uuid"
)

type CreateBookingRequest struct {
	PropertyID      uuid.UUID `json:"property_id" binding:"required"`
	CheckIn         string    `json:"check_in" binding:"required,date"`
	CheckOut        string    `json:"check_out" binding:"required,date"`
	Guests          int       `json:"guests" binding:"required,min=1"`
	SpecialRequests *string   `json:"special_requests,omitempty" binding:"omitempty,max=2000"`
}

func (r CreateBookingRequest) ToInput(idempotencyKey string) (commands.CreateBookingInput, error) {
	stay, err := daterange.Parse(r.CheckIn, r.CheckOut)
	if err != nil {
		return commands.CreateBookingInput{}, err
	}
	in := commands.CreateBookingInput{
		PropertyID:     r.PropertyID,
		Stay:           stay,
		Guests:         r.Guests,
		IdempotencyKey: strings.TrimSpace(idempotencyKey),
	}
	if r.SpecialRequests != nil {
		in.SpecialRequests = strings.TrimSpace(*r.SpecialRequests)
	}
	return in, nil
}

type UpdateBookingStatusRequest struct {
	Status string  `json:"status" binding:"required,booking_status"`
	Reason *string `json:"reason,omitempty" binding:"omitempty,max=500"`
}

func (r UpdateBookingStatusRequest) ToInput() commands.UpdateStatusInput {
	in := commands.UpdateStatusInput{Status: booking.Status(r.Status)}
	if r.Reason != nil {
		in.Reason = strings.TrimSpace(*r.Reason)
	}
	return in
}

type ListBookingsQuery struct {
	After string `form:"after"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

func (q ListBookingsQuery) Cursor() *queries.Cursor {
	if q.After == "" {
		return nil
	}
	return &queries.Cursor{After: q.After}
}

type UpcomingBookingsQuery struct {
	Days int `form:"days" binding:"omitempty,min=1,max=90"`
}

func (q UpcomingBookingsQuery) DaysOrDefault() int {
	if q.Days == 0 {
		return queries.DefaultUpcomingDays
	}
	return q.Days
}
