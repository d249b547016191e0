package request

import (
	"sync"

	"stayhub/internal/domain/booking"
	"stayhub/internal/domain/daterange"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var registerOnce sync.Once

// RegisterValidators adds the `date` and `booking_status` tags to gin's validator.
func RegisterValidators() error {
	var err error
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		if err = v.RegisterValidation("date", validateDate); err != nil {
			return
		}
		err = v.RegisterValidation("booking_status", validateBookingStatus)
	})
	return err
}

func validateDate(fl validator.FieldLevel) bool {
	_, err := daterange.ParseDate(fl.Field().String())
	return err == nil
}

// Only the transitions a caller may request; pending is never a target.
func validateBookingStatus(fl validator.FieldLevel) bool {
	switch booking.Status(fl.Field().String()) {
	case booking.StatusConfirmed, booking.StatusCancelled, booking.StatusCompleted:
		return true
	default:
		return false
	}
}
