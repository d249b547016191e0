package request

import (
	"stayhub/internal/domain/daterange"

	"github.com/google/uuid"
)

type AvailabilityQuery struct {
	PropertyID string `form:"property_id" binding:"required,uuid"`
	CheckIn    string `form:"check_in" binding:"required,date"`
	CheckOut   string `form:"check_out" binding:"required,date"`
	Guests     int    `form:"guests" binding:"required,min=1"`
}

func (q AvailabilityQuery) Parse() (uuid.UUID, daterange.Range, error) {
	id, err := uuid.Parse(q.PropertyID)
	if err != nil {
		return uuid.Nil, daterange.Range{}, err
	}
	stay, err := daterange.Parse(q.CheckIn, q.CheckOut)
	if err != nil {
		return uuid.Nil, daterange.Range{}, err
	}
	return id, stay, nil
}
