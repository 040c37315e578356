package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"vetbook/config"
	appointmentRepo "vetbook/database/repository/appointment"
	"vetbook/models"
	"vetbook/services/tasks"
	"vetbook/utils"
)

// InitCompletionWorker runs the async worker in background. It consumes
// completion tasks scheduled at each booked appointment's end time and flips
// still-scheduled past appointments to completed.
func InitCompletionWorker(repo appointmentRepo.AppointmentRepository) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeAppointmentComplete, handleCompletionTask(repo))

	go func() {
		log.Println("[CompletionWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[CompletionWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[CompletionWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleCompletionTask(repo appointmentRepo.AppointmentRepository) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		logger := utils.GetLogger()

		var p tasks.CompletionPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			logger.Error("invalid completion payload", zap.Error(err))
			return err
		}

		appt, err := repo.GetByID(ctx, p.AppointmentID)
		if err != nil {
			return err
		}
		if appt == nil {
			logger.Warn("completion task for unknown appointment", zap.String("appointmentId", p.AppointmentID))
			return nil
		}
		// Cancelled or already completed appointments are left alone, and so
		// are appointments rescheduled past their original end time.
		if appt.Status != models.StatusScheduled || appt.End().After(time.Now()) {
			return nil
		}

		appt.Status = models.StatusCompleted
		if err := repo.Update(ctx, appt); err != nil {
			return err
		}
		logger.Info("appointment completed", zap.String("appointmentId", appt.ID))
		return nil
	}
}
