package models

import "time"

// AppointmentRequest is the booking payload submitted by a caller.
type AppointmentRequest struct {
	DoctorID string    `json:"doctorId" binding:"required"`
	OwnerID  string    `json:"ownerId" binding:"required"`
	Pet      PetInfo   `json:"pet" binding:"required"`
	DateTime time.Time `json:"dateTime" binding:"required"`
	Duration int       `json:"duration" binding:"required"`
	Reason   string    `json:"reason"`
}

// ToAppointment builds the appointment record a successful booking persists.
// ID and CreatedAt are assigned by the store.
func (r AppointmentRequest) ToAppointment() Appointment {
	return Appointment{
		DoctorID: r.DoctorID,
		OwnerID:  r.OwnerID,
		Pet:      r.Pet,
		DateTime: r.DateTime,
		Duration: r.Duration,
		Reason:   r.Reason,
		Status:   StatusScheduled,
	}
}

// BookingResponse is returned by the booking endpoint. On failure it carries
// a human-readable message plus alternative start times the caller can offer,
// never a bare failure.
type BookingResponse struct {
	Success      bool         `json:"success"`
	Appointment  *Appointment `json:"appointment,omitempty"`
	Error        string       `json:"error,omitempty"`
	Alternatives []time.Time  `json:"alternatives,omitempty"`
}
