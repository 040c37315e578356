package doctorRepo

import (
	"context"

	"vetbook/models"
)

// DoctorRepository provides access to provider records.
type DoctorRepository interface {
	List(ctx context.Context) ([]models.Doctor, error)
	GetByID(ctx context.Context, id string) (*models.Doctor, error)
	Create(ctx context.Context, doc *models.Doctor) error
	Update(ctx context.Context, doc *models.Doctor) error
	// UpdateSchedule replaces the weekly schedule in one write. Callers must
	// have validated the new schedule first; the write is all-or-nothing.
	UpdateSchedule(ctx context.Context, id string, schedule models.WeeklySchedule) error
	Delete(ctx context.Context, id string) error
}
