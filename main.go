package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"

	"vetbook/config"
	"vetbook/cron"
	"vetbook/database"
	appointmentRepo "vetbook/database/repository/appointment"
	doctorRepo "vetbook/database/repository/doctor"
	ownerRepo "vetbook/database/repository/owner"
	"vetbook/handlers"
	"vetbook/middleware"
	"vetbook/routes"
	"vetbook/services/scheduling"
	"vetbook/services/tasks"
	"vetbook/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitCache()

	// Create the Gin router.
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(cors.Default())
	router.Use(middleware.RateLimitMiddleware())

	// repositories.
	apptRepo := appointmentRepo.NewMongoAppointmentRepo()
	docRepo := doctorRepo.NewMongoDoctorRepo()
	petOwnerRepo := ownerRepo.NewMongoOwnerRepo()

	// background completion queue.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPass,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer asynqClient.Close()
	completionScheduler := &tasks.AsynqCompletionScheduler{Client: asynqClient}
	cron.InitCompletionWorker(apptRepo)

	// booking engine.
	arbitrator := scheduling.NewArbitrator(scheduling.ArbitratorConfig{
		Store:   apptRepo,
		Doctors: docRepo,
		Policy: scheduling.RetryPolicy{
			MaxAttempts: config.AppConfig.MaxRetryAttempts,
			BaseDelay:   config.AppConfig.RetryBaseDelay,
			Multiplier:  2.0,
			MaxDelay:    30 * time.Second,
		},
		Granularity: config.AppConfig.SlotGranularityMin,
		HorizonDays: config.AppConfig.HorizonDays,
		Completions: completionScheduler,
		Logger:      logger,
	})

	// handlers.
	bookingHandler := handlers.NewBookingHandler(arbitrator, utils.GetCacheClient(), logger)
	appointmentHandler := handlers.NewAppointmentHandler(arbitrator, apptRepo, bookingHandler, logger)
	doctorHandler := handlers.NewDoctorHandler(docRepo, arbitrator, bookingHandler, logger)
	ownerHandler := handlers.NewOwnerHandler(petOwnerRepo, logger)

	routes.RegisterRoutes(router, &routes.HandlerBundle{
		Booking:     bookingHandler,
		Appointment: appointmentHandler,
		Doctor:      doctorHandler,
		Owner:       ownerHandler,
	})

	utils.StartHealthMonitor(utils.GetCacheClient(), database.MongoClient)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	go func() {
		logger.Sugar().Infof("Starting server on %s...", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("forced shutdown: %v", err)
	}
	logger.Info("Server exited")
}
