package scheduling

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vetbook/models"
)

type recordingCompletions struct {
	mu        sync.Mutex
	scheduled []models.Appointment
}

func (r *recordingCompletions) ScheduleCompletion(appt models.Appointment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scheduled = append(r.scheduled, appt)
	return nil
}

type recordingView struct {
	mu       sync.Mutex
	applied  []models.Appointment
	restored [][]models.Appointment
}

func (v *recordingView) Apply(appt models.Appointment) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.applied = append(v.applied, appt)
}

func (v *recordingView) Restore(snapshot []models.Appointment) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.restored = append(v.restored, snapshot)
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// tickingClock returns strictly increasing instants, one second apart.
func tickingClock(base time.Time) func() time.Time {
	var n int64
	return func() time.Time {
		return base.Add(time.Duration(atomic.AddInt64(&n, 1)) * time.Second)
	}
}

func pendingCount(a *Arbitrator) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

func TestAttemptBookingSuccess(t *testing.T) {
	store := newMemStore()
	completions := &recordingCompletions{}
	arb := NewArbitrator(ArbitratorConfig{
		Store:       store,
		Doctors:     newStubDoctors(testDoctor()),
		Policy:      fastPolicy(),
		Completions: completions,
		Clock:       fixedClock(sundayEve),
	})

	out := arb.AttemptBooking(context.Background(), bookingReq(at(9, 0), 30, "owner-1"), BookingOptions{})
	require.True(t, out.Success)
	require.NotNil(t, out.Appointment)
	assert.NotEmpty(t, out.Appointment.ID)
	assert.Equal(t, models.StatusScheduled, out.Appointment.Status)
	assert.Equal(t, 1, store.count())

	// The completion flip is queued for the appointment's end.
	require.Len(t, completions.scheduled, 1)
	assert.Equal(t, out.Appointment.ID, completions.scheduled[0].ID)

	// The registry entry does not outlive the attempt.
	assert.Equal(t, 0, pendingCount(arb))
}

func TestAttemptBookingOutsideWorkingHours(t *testing.T) {
	store := newMemStore()
	arb := testArbitrator(store, fixedClock(sundayEve))

	out := arb.AttemptBooking(context.Background(), bookingReq(at(8, 0), 30, "owner-1"), BookingOptions{})
	require.False(t, out.Success)
	var conflictErr *BookingConflictError
	require.ErrorAs(t, out.Err, &conflictErr)
	assert.Equal(t, 0, store.count())
}

func TestAttemptBookingSpillingPastCloseRejected(t *testing.T) {
	arb := testArbitrator(newMemStore(), fixedClock(sundayEve))

	// 11:45 + 30min runs past the 12:00 close.
	out := arb.AttemptBooking(context.Background(), bookingReq(at(11, 45), 30, "owner-1"), BookingOptions{})
	require.False(t, out.Success)
	var conflictErr *BookingConflictError
	require.ErrorAs(t, out.Err, &conflictErr)
}

func TestAttemptBookingExpiredRecurrenceRejected(t *testing.T) {
	doc := testDoctor()
	end := sundayEve
	doc.Schedule["monday"] = []models.TimeSlot{{
		StartTime: "09:00",
		EndTime:   "12:00",
		Recurring: true,
		Pattern:   &models.RecurringPattern{Frequency: models.FrequencyWeekly, EndDate: &end},
	}}
	store := newMemStore()
	arb := NewArbitrator(ArbitratorConfig{
		Store:   store,
		Doctors: newStubDoctors(doc),
		Policy:  fastPolicy(),
		Clock:   fixedClock(sundayEve),
	})
	ctx := context.Background()

	// The expansion offers no Monday slots, so booking one must not succeed.
	require.Empty(t, AvailableSlots(doc, nil, sundayEve, 7, 30))

	out := arb.AttemptBooking(ctx, bookingReq(at(9, 0), 30, "owner-1"), BookingOptions{})
	require.False(t, out.Success)
	var conflictErr *BookingConflictError
	require.ErrorAs(t, out.Err, &conflictErr)
	assert.Equal(t, 0, store.count())

	free, err := arb.CheckAvailability(ctx, "doc-1", at(9, 0), 30)
	require.NoError(t, err)
	assert.False(t, free)
}

func TestAttemptBookingConflictCarriesAlternatives(t *testing.T) {
	store := newMemStore(scheduledAppt("a1", at(9, 0), 30))
	arb := testArbitrator(store, fixedClock(sundayEve))

	out := arb.AttemptBooking(context.Background(), bookingReq(at(9, 0), 30, "owner-2"), BookingOptions{})
	require.False(t, out.Success)

	var conflictErr *BookingConflictError
	require.ErrorAs(t, out.Err, &conflictErr)
	require.Len(t, conflictErr.Conflicts, 1)
	assert.Equal(t, "a1", conflictErr.Conflicts[0].ID)

	// Three same-day alternatives, none of them the taken slot.
	assert.Equal(t, []time.Time{at(9, 30), at(10, 0), at(10, 30)}, out.Alternatives)
	assert.Equal(t, out.Alternatives, conflictErr.Alternatives)
	assert.Equal(t, 1, store.count())
}

func TestAttemptBookingValidation(t *testing.T) {
	arb := testArbitrator(newMemStore(), fixedClock(sundayEve))
	ctx := context.Background()

	cases := []struct {
		name string
		req  models.AppointmentRequest
	}{
		{"missing doctor", models.AppointmentRequest{OwnerID: "o", Pet: models.PetInfo{Name: "Rex", Species: "dog"}, DateTime: at(9, 0), Duration: 30}},
		{"missing owner", models.AppointmentRequest{DoctorID: "doc-1", Pet: models.PetInfo{Name: "Rex", Species: "dog"}, DateTime: at(9, 0), Duration: 30}},
		{"zero duration", bookingReq(at(9, 0), 0, "owner-1")},
		{"missing pet", models.AppointmentRequest{DoctorID: "doc-1", OwnerID: "o", DateTime: at(9, 0), Duration: 30}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := arb.AttemptBooking(ctx, tc.req, BookingOptions{})
			require.False(t, out.Success)
			var validationErr *ValidationError
			assert.ErrorAs(t, out.Err, &validationErr)
		})
	}
}

func TestAttemptBookingUnknownDoctor(t *testing.T) {
	arb := testArbitrator(newMemStore(), fixedClock(sundayEve))

	req := bookingReq(at(9, 0), 30, "owner-1")
	req.DoctorID = "doc-404"
	out := arb.AttemptBooking(context.Background(), req, BookingOptions{})
	require.False(t, out.Success)
	var validationErr *ValidationError
	require.ErrorAs(t, out.Err, &validationErr)
	assert.Equal(t, "doctorId", validationErr.Field)
}

func TestAttemptBookingRetriesStorageFailures(t *testing.T) {
	store := newMemStore()
	store.listFails = 2
	arb := testArbitrator(store, fixedClock(sundayEve))

	out := arb.AttemptBooking(context.Background(), bookingReq(at(9, 0), 30, "owner-1"), BookingOptions{})
	require.True(t, out.Success)
	assert.Equal(t, 1, store.count())
}

func TestAttemptBookingStorageExhaustion(t *testing.T) {
	store := newMemStore()
	store.listFails = 100
	arb := testArbitrator(store, fixedClock(sundayEve))

	out := arb.AttemptBooking(context.Background(), bookingReq(at(9, 0), 30, "owner-1"), BookingOptions{})
	require.False(t, out.Success)
	var storageErr *StorageError
	assert.ErrorAs(t, out.Err, &storageErr)
	assert.Equal(t, 0, store.count())
}

func TestEarlierSubmissionWinsArbitration(t *testing.T) {
	store := newMemStore()
	arb := testArbitrator(store, tickingClock(sundayEve))

	// Hold both attempts at their first conflict check until both are
	// registered, so they genuinely race for the same slot.
	bothRegistered := make(chan struct{})
	store.listHook = func() { <-bothRegistered }

	results := make(chan BookingOutcome, 2)
	go func() {
		results <- arb.AttemptBooking(context.Background(), bookingReq(at(9, 0), 30, "owner-early"), BookingOptions{})
	}()
	require.Eventually(t, func() bool { return pendingCount(arb) == 1 }, time.Second, time.Millisecond)

	go func() {
		results <- arb.AttemptBooking(context.Background(), bookingReq(at(9, 0), 30, "owner-late"), BookingOptions{})
	}()
	require.Eventually(t, func() bool { return pendingCount(arb) == 2 }, time.Second, time.Millisecond)
	close(bothRegistered)

	first, second := <-results, <-results
	winner, loser := first, second
	if !winner.Success {
		winner, loser = second, first
	}

	require.True(t, winner.Success)
	assert.Equal(t, "owner-early", winner.Appointment.OwnerID)

	require.False(t, loser.Success)
	var conflictErr *BookingConflictError
	require.ErrorAs(t, loser.Err, &conflictErr)
	assert.NotContains(t, loser.Alternatives, at(9, 0))

	assert.Equal(t, 1, store.count())
}

func TestConcurrentAttemptsBookAtMostOne(t *testing.T) {
	store := newMemStore()
	arb := testArbitrator(store, tickingClock(sundayEve))

	const attempts = 6
	results := make(chan BookingOutcome, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		owner := string(rune('a' + i))
		go func() {
			defer wg.Done()
			results <- arb.AttemptBooking(context.Background(), bookingReq(at(10, 0), 30, "owner-"+owner), BookingOptions{})
		}()
	}
	wg.Wait()
	close(results)

	successes := 0
	for out := range results {
		if out.Success {
			successes++
		} else {
			var conflictErr *BookingConflictError
			assert.ErrorAs(t, out.Err, &conflictErr)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, store.count())
}

func TestWinsArbitrationOrdering(t *testing.T) {
	arb := testArbitrator(newMemStore(), fixedClock(sundayEve))

	early := &pendingAttempt{id: "z", requesterID: "z", submittedAt: sundayEve}
	late := &pendingAttempt{id: "a", requesterID: "a", submittedAt: sundayEve.Add(time.Second)}

	// Submission time beats requester id.
	assert.True(t, arb.winsArbitration(early, []*pendingAttempt{late}))
	assert.False(t, arb.winsArbitration(late, []*pendingAttempt{early}))

	// Equal timestamps fall back to requester id lexical order.
	tiedA := &pendingAttempt{id: "1", requesterID: "alice", submittedAt: sundayEve}
	tiedB := &pendingAttempt{id: "2", requesterID: "bob", submittedAt: sundayEve}
	assert.True(t, arb.winsArbitration(tiedA, []*pendingAttempt{tiedB}))
	assert.False(t, arb.winsArbitration(tiedB, []*pendingAttempt{tiedA}))
}

func TestOptimisticViewAppliedAndRolledBack(t *testing.T) {
	seed := scheduledAppt("a1", at(9, 0), 30)
	store := newMemStore(seed)
	view := &recordingView{}
	arb := NewArbitrator(ArbitratorConfig{
		Store:   store,
		Doctors: newStubDoctors(testDoctor()),
		Policy:  fastPolicy(),
		View:    view,
		Clock:   fixedClock(sundayEve),
	})
	opts := BookingOptions{EnableOptimisticUpdates: true}

	// Conflicting attempt: the provisional entry is applied, then the
	// pre-attempt snapshot is restored.
	out := arb.AttemptBooking(context.Background(), bookingReq(at(9, 0), 30, "owner-2"), opts)
	require.False(t, out.Success)
	require.Len(t, view.applied, 1)
	assert.Equal(t, "provisional", view.applied[0].ID)
	require.Len(t, view.restored, 1)
	require.Len(t, view.restored[0], 1)
	assert.Equal(t, "a1", view.restored[0][0].ID)

	// Successful attempt: applied, never rolled back.
	out = arb.AttemptBooking(context.Background(), bookingReq(at(10, 0), 30, "owner-2"), opts)
	require.True(t, out.Success)
	assert.Len(t, view.applied, 2)
	assert.Len(t, view.restored, 1)
}

func TestBookingOptionsOverridePolicy(t *testing.T) {
	store := newMemStore()
	store.listFails = 5
	arb := testArbitrator(store, fixedClock(sundayEve))

	// Raising the retry budget past the failure count turns the outcome
	// into a success.
	out := arb.AttemptBooking(context.Background(), bookingReq(at(9, 0), 30, "owner-1"), BookingOptions{
		MaxRetryAttempts: 8,
		RetryBaseDelay:   time.Millisecond,
	})
	require.True(t, out.Success)
}
