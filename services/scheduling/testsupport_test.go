package scheduling

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	appointmentRepo "vetbook/database/repository/appointment"
	"vetbook/models"
)

// Fixed calendar anchors. 2026-03-02 is a Monday.
var (
	monday    = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	sundayEve = time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)
	mondayTen = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 2, hour, min, 0, 0, time.UTC)
}

// testDoctor works Monday 09:00-12:00 and Wednesday 14:00-17:00.
func testDoctor() models.Doctor {
	return models.Doctor{
		ID:   "doc-1",
		Name: "Dr. Adler",
		Schedule: models.WeeklySchedule{
			"monday":    {{StartTime: "09:00", EndTime: "12:00"}},
			"wednesday": {{StartTime: "14:00", EndTime: "17:00"}},
		},
	}
}

func scheduledAppt(id string, start time.Time, duration int) models.Appointment {
	return models.Appointment{
		ID:       id,
		DoctorID: "doc-1",
		OwnerID:  "owner-" + id,
		DateTime: start,
		Duration: duration,
		Status:   models.StatusScheduled,
	}
}

// memStore is an in-memory AppointmentRepository with the same overlap
// semantics as the Mongo implementation: Create is atomic and a losing race
// returns ErrSlotTaken.
type memStore struct {
	mu    sync.Mutex
	appts []models.Appointment

	listHook  func()
	listFails int
}

func newMemStore(seed ...models.Appointment) *memStore {
	return &memStore{appts: append([]models.Appointment(nil), seed...)}
}

func (s *memStore) ListByDoctor(_ context.Context, doctorID string) ([]models.Appointment, error) {
	if s.listHook != nil {
		s.listHook()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listFails > 0 {
		s.listFails--
		return nil, fmt.Errorf("store unavailable")
	}
	var out []models.Appointment
	for _, a := range s.appts {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) ListByOwner(_ context.Context, ownerID string) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Appointment
	for _, a := range s.appts {
		if a.OwnerID == ownerID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *memStore) ListAll(_ context.Context) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Appointment(nil), s.appts...), nil
}

func (s *memStore) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appts {
		if a.ID == id {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (s *memStore) Create(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.blockedLocked(appt.DoctorID, appt.DateTime, appt.Duration) {
		return appointmentRepo.ErrSlotTaken
	}
	appt.ID = uuid.New().String()
	appt.CreatedAt = time.Now()
	if appt.Status == "" {
		appt.Status = models.StatusScheduled
	}
	s.appts = append(s.appts, *appt)
	return nil
}

func (s *memStore) Update(_ context.Context, appt *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, a := range s.appts {
		if a.ID == appt.ID {
			s.appts[i] = *appt
			return nil
		}
	}
	return fmt.Errorf("appointment %s not found", appt.ID)
}

func (s *memStore) IsSlotAvailable(_ context.Context, doctorID string, dateTime time.Time, duration int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.blockedLocked(doctorID, dateTime, duration), nil
}

func (s *memStore) blockedLocked(doctorID string, start time.Time, duration int) bool {
	end := start.Add(time.Duration(duration) * time.Minute)
	for _, a := range s.appts {
		if a.DoctorID != doctorID || a.IsCancelled() {
			continue
		}
		if overlaps(start, end, a.DateTime, a.End()) {
			return true
		}
	}
	return false
}

func (s *memStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.appts)
}

// stubDoctors is a fixed-content DoctorRepository.
type stubDoctors struct {
	doctors map[string]models.Doctor
}

func newStubDoctors(docs ...models.Doctor) *stubDoctors {
	m := make(map[string]models.Doctor, len(docs))
	for _, d := range docs {
		m[d.ID] = d
	}
	return &stubDoctors{doctors: m}
}

func (s *stubDoctors) GetByID(_ context.Context, id string) (*models.Doctor, error) {
	if d, ok := s.doctors[id]; ok {
		return &d, nil
	}
	return nil, nil
}

func (s *stubDoctors) List(_ context.Context) ([]models.Doctor, error) {
	var out []models.Doctor
	for _, d := range s.doctors {
		out = append(out, d)
	}
	return out, nil
}

func (s *stubDoctors) Create(_ context.Context, doc *models.Doctor) error {
	s.doctors[doc.ID] = *doc
	return nil
}

func (s *stubDoctors) Update(_ context.Context, doc *models.Doctor) error {
	s.doctors[doc.ID] = *doc
	return nil
}

func (s *stubDoctors) UpdateSchedule(_ context.Context, id string, schedule models.WeeklySchedule) error {
	d := s.doctors[id]
	d.Schedule = schedule
	s.doctors[id] = d
	return nil
}

func (s *stubDoctors) Delete(_ context.Context, id string) error {
	delete(s.doctors, id)
	return nil
}

// fastPolicy keeps retry loops measured in milliseconds.
func fastPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, BaseDelay: time.Millisecond, Multiplier: 2.0, MaxDelay: 20 * time.Millisecond}
}

func testArbitrator(store *memStore, clock func() time.Time) *Arbitrator {
	return NewArbitrator(ArbitratorConfig{
		Store:       store,
		Doctors:     newStubDoctors(testDoctor()),
		Policy:      fastPolicy(),
		Granularity: 30,
		HorizonDays: 7,
		Clock:       clock,
	})
}

func bookingReq(start time.Time, duration int, ownerID string) models.AppointmentRequest {
	return models.AppointmentRequest{
		DoctorID: "doc-1",
		OwnerID:  ownerID,
		Pet:      models.PetInfo{Name: "Rex", Species: "dog"},
		DateTime: start,
		Duration: duration,
	}
}
