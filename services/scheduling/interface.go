package scheduling

import (
	"context"
	"time"

	"vetbook/models"
)

// BookingService is the engine surface exposed to handlers.
type BookingService interface {
	AttemptBooking(ctx context.Context, req models.AppointmentRequest, opts BookingOptions) BookingOutcome
	CheckAvailability(ctx context.Context, doctorID string, dateTime time.Time, duration int) (bool, error)
	SuggestAlternatives(ctx context.Context, doctorID string, preferred time.Time, duration, max int) ([]time.Time, error)
	Availability(ctx context.Context, doctorID string) ([]time.Time, error)
	NextAvailable(ctx context.Context, doctorID string) (*time.Time, error)
	CancelAppointment(ctx context.Context, id string) (*models.Appointment, error)
	RescheduleAppointment(ctx context.Context, id string, newTime time.Time, opts BookingOptions) BookingOutcome
	ValidateScheduleEdit(ctx context.Context, doctorID string, schedule models.WeeklySchedule) (ScheduleEditReport, error)
}
