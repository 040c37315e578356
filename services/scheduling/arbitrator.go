package scheduling

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	appointmentRepo "vetbook/database/repository/appointment"
	doctorRepo "vetbook/database/repository/doctor"
	"vetbook/models"
)

// OptimisticView is an optional caller-supplied mirror of the appointment
// list, updated speculatively before the authoritative booking lands and
// restored from snapshot when it fails.
type OptimisticView interface {
	Apply(appt models.Appointment)
	Restore(snapshot []models.Appointment) error
}

// CompletionScheduler schedules the status flip to "completed" once a booked
// appointment's end time has passed.
type CompletionScheduler interface {
	ScheduleCompletion(appt models.Appointment) error
}

// rollbackCommand is a tagged data value, not a stored closure, so rollback
// behaviour stays loggable and testable.
type rollbackCommand struct {
	Kind     string
	Snapshot []models.Appointment
}

const rollbackRestoreSnapshot = "restoreSnapshot"

// pendingAttempt is the ephemeral registry entry for one in-flight booking.
type pendingAttempt struct {
	id          string
	doctorID    string
	requesterID string
	start       time.Time
	end         time.Time
	submittedAt time.Time
}

// BookingOptions tune one booking call. Zero values fall back to the
// arbitrator's configured policy.
type BookingOptions struct {
	EnableOptimisticUpdates   bool
	MaxRetryAttempts          int
	RetryBaseDelay            time.Duration
	MaxAlternativeSuggestions int
}

// BookingOutcome is what a booking attempt resolves to. A failed outcome
// always carries a human-readable error and, when the failure is a conflict,
// alternative start times.
type BookingOutcome struct {
	Success      bool
	Appointment  *models.Appointment
	Err          error
	Alternatives []time.Time
}

// Arbitrator orchestrates booking attempts end to end: conflict check,
// simultaneous-attempt detection, timestamp-priority resolution, bounded
// retry with backoff, and optimistic-state rollback. One arbitrator instance
// is the single arbitration authority for its process; the registry is only
// a fast path for same-process races, the store's IsSlotAvailable remains
// the source of truth.
type Arbitrator struct {
	store       appointmentRepo.AppointmentRepository
	doctors     doctorRepo.DoctorRepository
	policy      RetryPolicy
	granularity int
	horizonDays int
	view        OptimisticView
	completions CompletionScheduler
	logger      *zap.Logger
	now         func() time.Time

	// The register -> scan -> deregister sequence is not atomic on its own;
	// the mutex guards every registry read-modify-write.
	mu      sync.Mutex
	pending map[string]*pendingAttempt
}

// ArbitratorConfig carries the constructor dependencies. Store, doctors and
// logger are required; the rest have defaults.
type ArbitratorConfig struct {
	Store       appointmentRepo.AppointmentRepository
	Doctors     doctorRepo.DoctorRepository
	Policy      RetryPolicy
	Granularity int
	HorizonDays int
	View        OptimisticView
	Completions CompletionScheduler
	Logger      *zap.Logger
	Clock       func() time.Time
}

func NewArbitrator(cfg ArbitratorConfig) *Arbitrator {
	a := &Arbitrator{
		store:       cfg.Store,
		doctors:     cfg.Doctors,
		policy:      cfg.Policy,
		granularity: cfg.Granularity,
		horizonDays: cfg.HorizonDays,
		view:        cfg.View,
		completions: cfg.Completions,
		logger:      cfg.Logger,
		now:         cfg.Clock,
		pending:     make(map[string]*pendingAttempt),
	}
	if a.policy.MaxAttempts == 0 {
		a.policy = DefaultRetryPolicy()
	}
	if a.granularity <= 0 {
		a.granularity = DefaultGranularity
	}
	if a.horizonDays <= 0 {
		a.horizonDays = 30
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	return a
}

// AttemptBooking runs one booking attempt through the state machine
// Submitted -> ConflictChecked -> {Booked | Retrying | Rejected}. The attempt
// always runs to resolution and cleans up its registry entry, even when the
// caller has lost interest in the result.
func (a *Arbitrator) AttemptBooking(ctx context.Context, req models.AppointmentRequest, opts BookingOptions) BookingOutcome {
	if err := validateRequest(req); err != nil {
		return BookingOutcome{Err: err}
	}

	doctor, err := a.doctors.GetByID(ctx, req.DoctorID)
	if err != nil {
		return BookingOutcome{Err: &StorageError{Op: "fetch doctor", Err: err}}
	}
	if doctor == nil {
		return BookingOutcome{Err: &ValidationError{Field: "doctorId", Message: "unknown doctor"}}
	}

	policy := a.effectivePolicy(opts)
	maxAlternatives := opts.MaxAlternativeSuggestions
	if maxAlternatives <= 0 {
		maxAlternatives = 3
	}

	// Submitted: register in the pending-attempts registry.
	attempt := &pendingAttempt{
		id:          uuid.New().String(),
		doctorID:    req.DoctorID,
		requesterID: req.OwnerID,
		start:       req.DateTime,
		end:         req.DateTime.Add(time.Duration(req.Duration) * time.Minute),
		submittedAt: a.now(),
	}
	a.register(attempt)
	defer a.deregister(attempt.id)

	var rollback *rollbackCommand
	if opts.EnableOptimisticUpdates && a.view != nil {
		rollback = a.applyOptimistic(ctx, req)
	}

	outcome := a.arbitrate(ctx, doctor, req, attempt, policy)

	if outcome.Success {
		a.scheduleCompletion(*outcome.Appointment)
		return outcome
	}

	a.rollbackOptimistic(rollback)

	// A failed booking always carries a next step: same-day alternatives.
	if conflictErr, ok := outcome.Err.(*BookingConflictError); ok {
		existing, listErr := a.store.ListByDoctor(ctx, req.DoctorID)
		if listErr != nil {
			a.logger.Warn("could not compute alternatives", zap.String("doctorId", req.DoctorID), zap.Error(listErr))
		} else {
			alts := SuggestAlternatives(*doctor, req.DateTime, req.Duration, existing, maxAlternatives, a.now())
			conflictErr.Alternatives = alts
			outcome.Alternatives = alts
		}
	}
	return outcome
}

// arbitrate is the ConflictChecked/Retrying loop.
func (a *Arbitrator) arbitrate(ctx context.Context, doctor *models.Doctor, req models.AppointmentRequest, attempt *pendingAttempt, policy RetryPolicy) BookingOutcome {
	if !WithinSchedule(*doctor, req.DateTime, req.Duration) {
		return BookingOutcome{Err: &BookingConflictError{
			Message: "requested time is outside the doctor's working hours",
		}}
	}

	for retry := 0; ; retry++ {
		existing, err := a.store.ListByDoctor(ctx, req.DoctorID)
		if err != nil {
			if out, done := a.retryOrReject(ctx, retry, policy, &StorageError{Op: "list appointments", Err: err}); done {
				return out
			}
			continue
		}

		candidate := req.ToAppointment()
		conflicts := FindConflicts(candidate, existing, "")

		if len(conflicts) == 0 {
			// No committed conflict, but another in-flight attempt may be
			// racing for an overlapping interval. Only the arbitration winner
			// proceeds to commit; losers back off until the winner's write
			// becomes visible.
			if rivals := a.competingAttempts(attempt); len(rivals) > 0 && !a.winsArbitration(attempt, rivals) {
				if retry >= policy.MaxAttempts {
					return BookingOutcome{Err: &BookingConflictError{
						Message: "the requested slot was claimed by an earlier booking attempt",
					}}
				}
				a.logger.Debug("yielding to earlier booking attempt",
					zap.String("attemptId", attempt.id),
					zap.Int("retry", retry))
				select {
				case <-ctx.Done():
					return BookingOutcome{Err: &BookingConflictError{
						Message: "booking attempt abandoned before the slot was resolved",
					}}
				case <-time.After(policy.Delay(retry)):
				}
				continue
			}

			// The snapshot may be stale; double-check against the store
			// before committing.
			available, err := a.store.IsSlotAvailable(ctx, req.DoctorID, req.DateTime, req.Duration)
			if err != nil {
				if out, done := a.retryOrReject(ctx, retry, policy, &StorageError{Op: "availability check", Err: err}); done {
					return out
				}
				continue
			}
			if !available {
				return BookingOutcome{Err: &BookingConflictError{
					Message: "the requested slot was just taken",
				}}
			}

			appt := candidate
			if err := a.store.Create(ctx, &appt); err != nil {
				if errors.Is(err, appointmentRepo.ErrSlotTaken) {
					// Lost the insert race despite the checks above.
					return BookingOutcome{Err: &BookingConflictError{
						Message: "the requested slot was just taken",
					}}
				}
				if out, done := a.retryOrReject(ctx, retry, policy, &StorageError{Op: "create appointment", Err: err}); done {
					return out
				}
				continue
			}
			a.logger.Info("booking confirmed",
				zap.String("appointmentId", appt.ID),
				zap.String("doctorId", appt.DoctorID),
				zap.Time("dateTime", appt.DateTime))
			return BookingOutcome{Success: true, Appointment: &appt}
		}

		// Direct conflicts exist. Check the registry for other in-flight
		// attempts targeting an overlapping interval for the same doctor.
		rivals := a.competingAttempts(attempt)
		if len(rivals) == 0 {
			// The conflict is with committed data; retrying has no value.
			return BookingOutcome{Err: &BookingConflictError{
				Message:   "the requested slot conflicts with an existing appointment",
				Conflicts: conflicts,
			}}
		}

		if a.winsArbitration(attempt, rivals) {
			// Earliest submission wins, but the committed conflict stands.
			return BookingOutcome{Err: &BookingConflictError{
				Message:   "the requested slot conflicts with an existing appointment",
				Conflicts: conflicts,
			}}
		}

		// Lost arbitration: back off and re-check, bounded.
		if retry >= policy.MaxAttempts {
			return BookingOutcome{Err: &BookingConflictError{
				Message:   "the requested slot was claimed by an earlier booking attempt",
				Conflicts: conflicts,
			}}
		}
		a.logger.Debug("lost slot arbitration, retrying",
			zap.String("attemptId", attempt.id),
			zap.Int("retry", retry),
			zap.Duration("backoff", policy.Delay(retry)))
		select {
		case <-ctx.Done():
			return BookingOutcome{Err: &BookingConflictError{
				Message:   "booking attempt abandoned before the slot was resolved",
				Conflicts: conflicts,
			}}
		case <-time.After(policy.Delay(retry)):
		}
	}
}

// retryOrReject implements the bounded storage-failure retry. done is true
// when the outcome is final.
func (a *Arbitrator) retryOrReject(ctx context.Context, retry int, policy RetryPolicy, cause *StorageError) (BookingOutcome, bool) {
	if retry >= policy.MaxAttempts {
		return BookingOutcome{Err: cause}, true
	}
	a.logger.Warn("storage failure during booking, retrying",
		zap.Int("retry", retry), zap.Error(cause.Err))
	select {
	case <-ctx.Done():
		return BookingOutcome{Err: cause}, true
	case <-time.After(policy.Delay(retry)):
		return BookingOutcome{}, false
	}
}

func (a *Arbitrator) register(attempt *pendingAttempt) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.pending[attempt.id] = attempt
}

func (a *Arbitrator) deregister(id string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.pending, id)
}

// competingAttempts snapshots the other pending attempts whose interval
// overlaps ours for the same doctor.
func (a *Arbitrator) competingAttempts(self *pendingAttempt) []*pendingAttempt {
	a.mu.Lock()
	defer a.mu.Unlock()

	var rivals []*pendingAttempt
	for id, other := range a.pending {
		if id == self.id || other.doctorID != self.doctorID {
			continue
		}
		if overlaps(self.start, self.end, other.start, other.end) {
			rivals = append(rivals, other)
		}
	}
	return rivals
}

// winsArbitration resolves simultaneous attempts: earliest submission
// timestamp wins; ties break on requester id lexical order, then attempt id.
func (a *Arbitrator) winsArbitration(self *pendingAttempt, rivals []*pendingAttempt) bool {
	all := append([]*pendingAttempt{self}, rivals...)
	sort.Slice(all, func(i, j int) bool {
		if !all[i].submittedAt.Equal(all[j].submittedAt) {
			return all[i].submittedAt.Before(all[j].submittedAt)
		}
		if all[i].requesterID != all[j].requesterID {
			return all[i].requesterID < all[j].requesterID
		}
		return all[i].id < all[j].id
	})
	return all[0].id == self.id
}

func (a *Arbitrator) applyOptimistic(ctx context.Context, req models.AppointmentRequest) *rollbackCommand {
	snapshot, err := a.store.ListByDoctor(ctx, req.DoctorID)
	if err != nil {
		a.logger.Warn("skipping optimistic update, snapshot unavailable", zap.Error(err))
		return nil
	}
	provisional := req.ToAppointment()
	provisional.ID = "provisional"
	a.view.Apply(provisional)
	return &rollbackCommand{Kind: rollbackRestoreSnapshot, Snapshot: snapshot}
}

// rollbackOptimistic restores the pre-attempt view. Rollback failures are
// logged, never propagated into the caller's error path.
func (a *Arbitrator) rollbackOptimistic(cmd *rollbackCommand) {
	if cmd == nil || a.view == nil {
		return
	}
	if cmd.Kind != rollbackRestoreSnapshot {
		a.logger.Error("unknown rollback command", zap.String("kind", cmd.Kind))
		return
	}
	if err := a.view.Restore(cmd.Snapshot); err != nil {
		a.logger.Error("optimistic rollback failed", zap.Error(err))
	}
}

func (a *Arbitrator) scheduleCompletion(appt models.Appointment) {
	if a.completions == nil {
		return
	}
	if err := a.completions.ScheduleCompletion(appt); err != nil {
		a.logger.Warn("failed to schedule completion task",
			zap.String("appointmentId", appt.ID), zap.Error(err))
	}
}

func (a *Arbitrator) effectivePolicy(opts BookingOptions) RetryPolicy {
	policy := a.policy
	if opts.MaxRetryAttempts > 0 {
		policy.MaxAttempts = opts.MaxRetryAttempts
	}
	if opts.RetryBaseDelay > 0 {
		policy.BaseDelay = opts.RetryBaseDelay
	}
	return policy
}

func validateRequest(req models.AppointmentRequest) error {
	switch {
	case req.DoctorID == "":
		return &ValidationError{Field: "doctorId", Message: "required"}
	case req.OwnerID == "":
		return &ValidationError{Field: "ownerId", Message: "required"}
	case req.DateTime.IsZero():
		return &ValidationError{Field: "dateTime", Message: "required"}
	case req.Duration <= 0:
		return &ValidationError{Field: "duration", Message: "must be positive"}
	case req.Pet.Name == "" || req.Pet.Species == "":
		return &ValidationError{Field: "pet", Message: "name and species are required"}
	}
	return nil
}
