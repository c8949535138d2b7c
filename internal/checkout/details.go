package checkout

import (
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	pkgerrors "github.com/leulderebe/wedding-front-end-sub001/pkg/errors"
)

// BookingDetails is the user-entered context for a checkout. It is created
// fresh per attempt and consumed once to build the booking request.
type BookingDetails struct {
	EventDate       string `json:"eventDate" validate:"required,datetime=2006-01-02,futuredate"`
	Location        string `json:"location" validate:"required"`
	Attendees       string `json:"attendees,omitempty" validate:"omitempty,numeric"`
	SpecialRequests string `json:"specialRequests,omitempty"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		tag := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if tag == "" {
			return f.Name
		}
		return tag
	})
	// Event dates must be today or later; the date alone decides, not the
	// time of day.
	_ = v.RegisterValidation("futuredate", func(fl validator.FieldLevel) bool {
		parsed, err := time.Parse("2006-01-02", fl.Field().String())
		if err != nil {
			return false
		}
		now := time.Now()
		today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		return !parsed.Before(today)
	})
	return v
}

// Validate reports all field problems at once as one validation error.
func (d BookingDetails) Validate() error {
	if err := validate.Struct(d); err != nil {
		return formatValidationErrors(err)
	}
	return nil
}

func formatValidationErrors(err error) *pkgerrors.Error {
	if errs, ok := err.(validator.ValidationErrors); ok {
		details := map[string]string{}
		for _, fieldErr := range errs {
			details[fieldErr.Field()] = validationMessage(fieldErr)
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "booking details are invalid").WithDetails(details)
	}
	return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "booking details are invalid")
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "datetime":
		return fmt.Sprintf("must be a date in %s format", fe.Param())
	case "futuredate":
		return "must be today or later"
	case "numeric":
		return "must be a number"
	}
	return "is invalid"
}
