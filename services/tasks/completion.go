package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"

	"vetbook/models"
)

const TypeAppointmentComplete = "appointment:complete"

// CompletionPayload is the task body for marking an appointment completed.
type CompletionPayload struct {
	AppointmentID string `json:"appointmentId"`
	EndsAt        string `json:"endsAt"`
}

// NewCompletionTask builds the task that flips an appointment to completed,
// scheduled for the appointment's end time.
func NewCompletionTask(appt models.Appointment) (*asynq.Task, []asynq.Option, error) {
	payload := CompletionPayload{
		AppointmentID: appt.ID,
		EndsAt:        appt.End().Format(time.RFC3339),
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypeAppointmentComplete, b)
	opts := []asynq.Option{asynq.ProcessAt(appt.End())}

	return task, opts, nil
}

// AsynqCompletionScheduler enqueues completion tasks on the shared Redis
// queue. It satisfies the scheduling engine's CompletionScheduler hook.
type AsynqCompletionScheduler struct {
	Client *asynq.Client
}

func (s *AsynqCompletionScheduler) ScheduleCompletion(appt models.Appointment) error {
	task, opts, err := NewCompletionTask(appt)
	if err != nil {
		return err
	}
	_, err = s.Client.Enqueue(task, opts...)
	return err
}
