package appointmentRepo

import (
	"context"
	"errors"
	"time"

	"vetbook/models"
)

// ErrSlotTaken is returned by Create when the insert would overlap an
// existing non-cancelled appointment for the same doctor.
var ErrSlotTaken = errors.New("slot already booked")

// AppointmentRepository is the reservation store the booking engine consumes.
type AppointmentRepository interface {
	ListByDoctor(ctx context.Context, doctorID string) ([]models.Appointment, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Appointment, error)
	ListAll(ctx context.Context) ([]models.Appointment, error)
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	// Create assigns the id and creation timestamp and persists the record.
	// The overlap check and insert are atomic; a losing race returns
	// ErrSlotTaken.
	Create(ctx context.Context, appt *models.Appointment) error
	// Update replaces an existing record; fails if the id is unknown.
	Update(ctx context.Context, appt *models.Appointment) error
	// IsSlotAvailable is the authoritative overlap check against persisted,
	// non-cancelled appointments. The in-memory snapshot the engine works
	// from may be stale; this is the source of truth.
	IsSlotAvailable(ctx context.Context, doctorID string, dateTime time.Time, duration int) (bool, error)
}
