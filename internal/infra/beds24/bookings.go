package beds24

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"stayhub/internal/domain/daterange"
	"stayhub/internal/pkg/errs"
	"stayhub/internal/usecase/shared"
)

var ErrRemoteNotFound = errs.MarkNew("booking not found in beds24", errs.ErrPermanentIntegration)

// flexID accepts ids sent either as JSON numbers or strings.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	if string(b) == "null" {
		*id = ""
		return nil
	}
	*id = flexID(b)
	return nil
}

type bookingWrite struct {
	ID           string  `json:"id,omitempty"`
	PropertyID   string  `json:"propertyId,omitempty"`
	Arrival      string  `json:"arrival,omitempty"`
	Departure    string  `json:"departure,omitempty"`
	NumAdult     int     `json:"numAdult,omitempty"`
	Status       string  `json:"status"`
	APIReference string  `json:"apiReference,omitempty"`
	Price        float64 `json:"price,omitempty"`
	Notes        string  `json:"notes,omitempty"`
}

type writeResult struct {
	Success bool `json:"success"`
	New     *struct {
		ID flexID `json:"id"`
	} `json:"new"`
	Modified *struct {
		ID flexID `json:"id"`
	} `json:"modified"`
	Errors []struct {
		Field   string `json:"field"`
		Message string `json:"message"`
	} `json:"errors"`
}

type bookingRecord struct {
	ID           flexID `json:"id"`
	PropertyID   flexID `json:"propertyId"`
	Status       string `json:"status"`
	Arrival      string `json:"arrival"`
	Departure    string `json:"departure"`
	APIReference string `json:"apiReference"`
}

type bookingList struct {
	Success bool            `json:"success"`
	Data    []bookingRecord `json:"data"`
}

func (c *Client) CreateBooking(ctx context.Context, req shared.RemoteBookingRequest) (string, error) {
	in := []bookingWrite{{
		PropertyID:   req.ChannelPropertyID,
		Arrival:      req.Stay.Start().Format(daterange.Layout),
		Departure:    req.Stay.End().Format(daterange.Layout),
		NumAdult:     req.Guests,
		Status:       string(shared.RemoteConfirmed),
		APIReference: req.APIReference,
		Price:        float64(req.TotalCents) / 100,
		Notes:        req.Notes,
	}}

	var out []writeResult
	if err := c.call(ctx, http.MethodPost, "/bookings", nil, in, &out); err != nil {
		return "", err
	}
	res, err := firstResult(out)
	if err != nil {
		return "", err
	}
	if res.New == nil || res.New.ID == "" {
		return "", errs.MarkNew("beds24 create response carried no booking id", errs.ErrTransientIntegration)
	}

	c.logger.Info("booking pushed",
		slog.String("api_reference", req.APIReference),
		slog.String("remote_id", string(res.New.ID)),
	)
	return string(res.New.ID), nil
}

func (c *Client) CancelBooking(ctx context.Context, remoteID string) error {
	in := []bookingWrite{{ID: remoteID, Status: string(shared.RemoteCancelled)}}

	var out []writeResult
	if err := c.call(ctx, http.MethodPost, "/bookings", nil, in, &out); err != nil {
		return err
	}
	if _, err := firstResult(out); err != nil {
		return err
	}
	c.logger.Info("booking cancelled remotely", slog.String("remote_id", remoteID))
	return nil
}

func (c *Client) BookingStatus(ctx context.Context, remoteID string) (shared.RemoteStatus, error) {
	q := url.Values{}
	q.Set("id", remoteID)

	var out bookingList
	if err := c.call(ctx, http.MethodGet, "/bookings", q, nil, &out); err != nil {
		return shared.RemoteUnknown, err
	}
	for _, rec := range out.Data {
		if string(rec.ID) == remoteID {
			return shared.ParseRemoteStatus(rec.Status), nil
		}
	}
	return shared.RemoteUnknown, ErrRemoteNotFound
}

// ListBookings asks for bookings arriving before the window ends and departing
// after it starts; Beds24 date filters are inclusive.
func (c *Client) ListBookings(ctx context.Context, channelPropertyID string, window daterange.Range) ([]shared.RemoteBooking, error) {
	q := url.Values{}
	q.Set("propertyId", channelPropertyID)
	q.Set("arrivalTo", window.End().AddDate(0, 0, -1).Format(daterange.Layout))
	q.Set("departureFrom", window.Start().AddDate(0, 0, 1).Format(daterange.Layout))

	var out bookingList
	if err := c.call(ctx, http.MethodGet, "/bookings", q, nil, &out); err != nil {
		return nil, err
	}

	bookings := make([]shared.RemoteBooking, 0, len(out.Data))
	for _, rec := range out.Data {
		stay, err := daterange.Parse(rec.Arrival, rec.Departure)
		if err != nil {
			c.logger.Warn("skipping remote booking with invalid dates",
				slog.String("remote_id", string(rec.ID)),
				slog.String("arrival", rec.Arrival),
				slog.String("departure", rec.Departure),
			)
			continue
		}
		if !stay.Overlaps(window) {
			continue
		}
		bookings = append(bookings, shared.RemoteBooking{
			ID:           string(rec.ID),
			APIReference: rec.APIReference,
			Stay:         stay,
			Status:       shared.ParseRemoteStatus(rec.Status),
		})
	}
	return bookings, nil
}

func firstResult(out []writeResult) (writeResult, error) {
	if len(out) == 0 {
		return writeResult{}, errs.MarkNew("beds24 returned an empty write response", errs.ErrTransientIntegration)
	}
	res := out[0]
	if !res.Success {
		msgs := make([]string, 0, len(res.Errors))
		for _, e := range res.Errors {
			msgs = append(msgs, e.Field+": "+e.Message)
		}
		return res, errs.MarkNew("beds24 rejected booking: "+strings.Join(msgs, "; "), errs.ErrPermanentIntegration)
	}
	return res, nil
}
