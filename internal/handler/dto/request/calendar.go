package request

import "stayhub/internal/pkg/patch"

type CalendarFeedQuery struct {
	Token          string `form:"token" binding:"required"`
	IncludePending *bool  `form:"include_pending"`
}

// Pending bookings are exported as tentative unless the caller opts out.
func (q CalendarFeedQuery) Pending() bool {
	return patch.Coalesce(q.IncludePending, true)
}
