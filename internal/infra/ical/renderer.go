package ical

import (
	"fmt"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/property"
	"stayhub/internal/usecase/queries"

	ics "github.com/arran4/golang-ical"
)

const productName = "StayHub"

// Renderer writes a property's bookings as an all-day VCALENDAR. Pending
// bookings are TENTATIVE, confirmed ones CONFIRMED.
type Renderer struct {
	host string
}

var _ queries.FeedRenderer = (*Renderer)(nil)

func NewRenderer(publicHost string) *Renderer {
	return &Renderer{host: publicHost}
}

func (r *Renderer) Render(p *property.Property, bookings []*booking.Booking) ([]byte, error) {
	cal := ics.NewCalendarFor(productName)
	cal.SetProductId(fmt.Sprintf("-//%s//Property %s//EN", productName, p.ID()))
	cal.SetMethod(ics.MethodPublish)
	cal.SetCalscale("GREGORIAN")
	cal.SetXWRCalName(p.Title() + " - Bookings")

	for _, b := range bookings {
		if !b.Status().Blocking() {
			continue
		}
		ev := cal.AddEvent(r.UID(b))
		ev.SetDtStampTime(b.CreatedAt())
		ev.SetAllDayStartAt(b.Stay().Start())
		ev.SetAllDayEndAt(b.Stay().End())
		ev.SetSummary("Booking - " + p.Title())
		ev.SetDescription(fmt.Sprintf("Guests: %d\nTotal: %s\nStatus: %s", b.Guests(), b.TotalPrice(), b.Status()))
		ev.SetTimeTransparency(ics.TransparencyOpaque)
		if b.IsConfirmed() {
			ev.SetStatus(ics.ObjectStatusConfirmed)
		} else {
			ev.SetStatus(ics.ObjectStatusTentative)
		}
	}

	return []byte(cal.Serialize()), nil
}

// UID is stable per booking so subscribers update events in place.
func (r *Renderer) UID(b *booking.Booking) string {
	return fmt.Sprintf("booking-%s@%s", b.ID(), r.host)
}
