package models

import "time"

// Appointment statuses. Cancellation is a status change, never a delete.
const (
	StatusScheduled = "scheduled"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// PetInfo is the subject of an appointment, embedded in the record.
type PetInfo struct {
	Name    string `bson:"name" json:"name"`
	Species string `bson:"species" json:"species"`
	Breed   string `bson:"breed,omitempty" json:"breed,omitempty"`
	Age     int    `bson:"age" json:"age"`
}

// Appointment is a booked reservation occupying [DateTime, DateTime+Duration)
// for a doctor. Two non-cancelled appointments for the same doctor must never
// overlap; the booking engine enforces this.
type Appointment struct {
	ID        string    `bson:"id" json:"id"`
	DoctorID  string    `bson:"doctorId" json:"doctorId"`
	OwnerID   string    `bson:"ownerId" json:"ownerId"`
	Pet       PetInfo   `bson:"pet" json:"pet"`
	DateTime  time.Time `bson:"dateTime" json:"dateTime"`
	Duration  int       `bson:"duration" json:"duration"` // minutes
	Reason    string    `bson:"reason" json:"reason"`
	Status    string    `bson:"status" json:"status"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

// End returns the exclusive end of the occupied interval.
func (a Appointment) End() time.Time {
	return a.DateTime.Add(time.Duration(a.Duration) * time.Minute)
}

// IsCancelled reports whether the appointment no longer occupies its slot.
func (a Appointment) IsCancelled() bool {
	return a.Status == StatusCancelled
}
