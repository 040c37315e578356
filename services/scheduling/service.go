package scheduling

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"vetbook/models"
)

// The read-side operations are thin views over the expander and detector;
// the arbitrator only adds orchestration for the write side.

// CheckAvailability reports whether the requested interval is bookable:
// inside the doctor's working hours and, per the authoritative store check,
// free of overlapping non-cancelled appointments.
func (a *Arbitrator) CheckAvailability(ctx context.Context, doctorID string, dateTime time.Time, duration int) (bool, error) {
	doctor, err := a.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return false, &StorageError{Op: "fetch doctor", Err: err}
	}
	if doctor == nil {
		return false, &ValidationError{Field: "doctorId", Message: "unknown doctor"}
	}
	if !WithinSchedule(*doctor, dateTime, duration) {
		return false, nil
	}
	available, err := a.store.IsSlotAvailable(ctx, doctorID, dateTime, duration)
	if err != nil {
		return false, &StorageError{Op: "availability check", Err: err}
	}
	return available, nil
}

// SuggestAlternatives proposes conflict-free start times on the same day as
// the preferred time.
func (a *Arbitrator) SuggestAlternatives(ctx context.Context, doctorID string, preferred time.Time, duration, max int) ([]time.Time, error) {
	doctor, err := a.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, &StorageError{Op: "fetch doctor", Err: err}
	}
	if doctor == nil {
		return nil, &ValidationError{Field: "doctorId", Message: "unknown doctor"}
	}
	existing, err := a.store.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, &StorageError{Op: "list appointments", Err: err}
	}
	return SuggestAlternatives(*doctor, preferred, duration, existing, max, a.now()), nil
}

// Availability expands the doctor's schedule over the configured horizon.
func (a *Arbitrator) Availability(ctx context.Context, doctorID string) ([]time.Time, error) {
	doctor, err := a.doctors.GetByID(ctx, doctorID)
	if err != nil {
		return nil, &StorageError{Op: "fetch doctor", Err: err}
	}
	if doctor == nil {
		return nil, &ValidationError{Field: "doctorId", Message: "unknown doctor"}
	}
	existing, err := a.store.ListByDoctor(ctx, doctorID)
	if err != nil {
		return nil, &StorageError{Op: "list appointments", Err: err}
	}
	return AvailableSlots(*doctor, existing, a.now(), a.horizonDays, a.granularity), nil
}

// NextAvailable returns the first expanded slot, or nil when the doctor has
// no availability in the horizon.
func (a *Arbitrator) NextAvailable(ctx context.Context, doctorID string) (*time.Time, error) {
	slots, err := a.Availability(ctx, doctorID)
	if err != nil {
		return nil, err
	}
	if len(slots) == 0 {
		return nil, nil
	}
	return &slots[0], nil
}

// CancelAppointment flips the status to cancelled, freeing the slot while
// preserving history. Already-cancelled appointments are returned unchanged.
func (a *Arbitrator) CancelAppointment(ctx context.Context, id string) (*models.Appointment, error) {
	appt, err := a.store.GetByID(ctx, id)
	if err != nil {
		return nil, &StorageError{Op: "fetch appointment", Err: err}
	}
	if appt == nil {
		return nil, &ValidationError{Field: "id", Message: "unknown appointment"}
	}
	if appt.IsCancelled() {
		return appt, nil
	}

	appt.Status = models.StatusCancelled
	if err := withRetry(ctx, a.policy, func() error {
		return a.store.Update(ctx, appt)
	}); err != nil {
		return nil, &StorageError{Op: "cancel appointment", Err: err}
	}
	a.logger.Info("appointment cancelled", zap.String("appointmentId", id))
	return appt, nil
}

// RescheduleAppointment moves an appointment to a new time. It is a
// cancel-plus-rebook: the original slot is released first so the conflict
// check cannot collide with it, and is restored if the rebook fails.
func (a *Arbitrator) RescheduleAppointment(ctx context.Context, id string, newTime time.Time, opts BookingOptions) BookingOutcome {
	appt, err := a.store.GetByID(ctx, id)
	if err != nil {
		return BookingOutcome{Err: &StorageError{Op: "fetch appointment", Err: err}}
	}
	if appt == nil {
		return BookingOutcome{Err: &ValidationError{Field: "id", Message: "unknown appointment"}}
	}
	if appt.IsCancelled() {
		return BookingOutcome{Err: &ValidationError{Field: "id", Message: "cannot reschedule a cancelled appointment"}}
	}

	released := *appt
	released.Status = models.StatusCancelled
	if err := a.store.Update(ctx, &released); err != nil {
		return BookingOutcome{Err: &StorageError{Op: "release slot", Err: err}}
	}

	req := models.AppointmentRequest{
		DoctorID: appt.DoctorID,
		OwnerID:  appt.OwnerID,
		Pet:      appt.Pet,
		DateTime: newTime,
		Duration: appt.Duration,
		Reason:   appt.Reason,
	}
	outcome := a.AttemptBooking(ctx, req, opts)
	if outcome.Success {
		return outcome
	}

	// Rebook failed: restore the original appointment.
	restored := *appt
	if err := withRetry(ctx, a.policy, func() error {
		return a.store.Update(ctx, &restored)
	}); err != nil {
		a.logger.Error("failed to restore appointment after rejected reschedule",
			zap.String("appointmentId", id), zap.Error(err))
		outcome.Err = fmt.Errorf("reschedule rejected and restore failed: %w", err)
	}
	return outcome
}

// ValidateScheduleEdit runs both validator checks against the doctor's
// current commitments. Callers persist the schedule only on a valid report.
func (a *Arbitrator) ValidateScheduleEdit(ctx context.Context, doctorID string, schedule models.WeeklySchedule) (ScheduleEditReport, error) {
	if err := ValidateScheduleStructure(schedule); err != nil {
		return ScheduleEditReport{}, err
	}
	existing, err := a.store.ListByDoctor(ctx, doctorID)
	if err != nil {
		return ScheduleEditReport{}, &StorageError{Op: "list appointments", Err: err}
	}
	return ValidateScheduleEdit(schedule, existing), nil
}
