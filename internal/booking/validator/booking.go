package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"courtbook/internal/interval"
	"courtbook/pkg/logger"
	"courtbook/pkg/model"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (v ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	if len(v) == 0 {
		return ""
	}
	var messages []string
	for _, err := range v {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %d error(s): [%s]", len(v), strings.Join(messages, "; "))
}

type BookingValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	v := validator.New()

	if err := v.RegisterValidation("timeslot", validateTimeSlot); err != nil {
		log.Fatal("Failed to register 'timeslot' validator",
			"error", err,
		)
	}
	if err := v.RegisterValidation("slotdate", validateSlotDate); err != nil {
		log.Fatal("Failed to register 'slotdate' validator",
			"error", err,
		)
	}

	log.Info("Booking validator initialized successfully")

	return &BookingValidator{
		validate: v,
		logger:   log,
	}
}

func validateTimeSlot(fl validator.FieldLevel) bool {
	_, err := interval.ParseSlot(fl.Field().String())
	return err == nil
}

func validateSlotDate(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if len(s) != len("2006-01-02") {
		return false
	}
	_, err := interval.ParseDate(s)
	return err == nil
}

func (v *BookingValidator) Validate(booking *model.Booking) error {
	if err := v.validate.Struct(booking); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return v.translateValidationErrors(validationErrs)
		}
		return err
	}

	hasSlots := len(booking.TimeSlots) > 0
	hasRange := booking.StartTime != nil && booking.EndTime != nil

	if !hasSlots && !hasRange {
		return ValidationErrors{
			ValidationError{
				Field:   "TimeSlots",
				Message: "either time_slots or start_time/end_time is required",
			},
		}
	}
	if hasSlots && hasRange {
		return ValidationErrors{
			ValidationError{
				Field:   "TimeSlots",
				Message: "time_slots and start_time/end_time are mutually exclusive",
			},
		}
	}

	if hasRange && !booking.EndTime.After(*booking.StartTime) {
		return ValidationErrors{
			ValidationError{
				Field:   "EndTime",
				Message: "end_time must be after start_time",
			},
		}
	}

	return nil
}

func (v *BookingValidator) translateValidationErrors(errs validator.ValidationErrors) ValidationErrors {
	var validationErrors ValidationErrors

	for _, err := range errs {
		message := err.Error()

		switch err.Tag() {
		case "required":
			message = fmt.Sprintf("%s is required", err.Field())
		case "min":
			message = fmt.Sprintf("%s must be at least %s", err.Field(), err.Param())
		case "max":
			message = fmt.Sprintf("%s must be at most %s", err.Field(), err.Param())
		case "mongodb":
			message = fmt.Sprintf("%s must be a valid MongoDB ObjectID", err.Field())
		case "e164":
			message = fmt.Sprintf("%s must be in E.164 format (e.g., +84901234567)", err.Field())
		case "oneof":
			message = fmt.Sprintf("%s must be one of: %s", err.Field(), err.Param())
		case "timeslot":
			message = fmt.Sprintf("%s must be a HH:MM-HH:MM slot label with end after start", err.Field())
		case "slotdate":
			message = fmt.Sprintf("%s must be a YYYY-MM-DD date", err.Field())
		}

		validationErrors = append(validationErrors, ValidationError{
			Field:   err.Field(),
			Message: message,
		})
	}

	return validationErrors
}
