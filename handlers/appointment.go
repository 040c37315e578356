package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"vetbook/config"
	appointmentRepo "vetbook/database/repository/appointment"
	"vetbook/models"
	"vetbook/services/scheduling"
	"vetbook/utils"
)

// AppointmentHandler serves appointment lifecycle endpoints that go through
// the booking engine (cancel, reschedule) plus plain listings.
type AppointmentHandler struct {
	Service scheduling.BookingService
	Repo    appointmentRepo.AppointmentRepository
	Booking *BookingHandler
	Logger  *zap.Logger
}

func NewAppointmentHandler(svc scheduling.BookingService, repo appointmentRepo.AppointmentRepository, booking *BookingHandler, logger *zap.Logger) *AppointmentHandler {
	return &AppointmentHandler{Service: svc, Repo: repo, Booking: booking, Logger: logger}
}

// List handles GET /api/appointments?doctorId=...|ownerId=...
func (h *AppointmentHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var (
		appts []models.Appointment
		err   error
	)
	switch {
	case c.Query("doctorId") != "":
		appts, err = h.Repo.ListByDoctor(ctx, c.Query("doctorId"))
	case c.Query("ownerId") != "":
		appts, err = h.Repo.ListByOwner(ctx, c.Query("ownerId"))
	default:
		appts, err = h.Repo.ListAll(ctx)
	}
	if err != nil {
		h.Logger.Error("failed to list appointments", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to list appointments", "please try again later")
		return
	}
	c.JSON(http.StatusOK, gin.H{"appointments": appts, "count": len(appts)})
}

// Get handles GET /api/appointments/:id.
func (h *AppointmentHandler) Get(c *gin.Context) {
	appt, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Logger.Error("failed to fetch appointment", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch appointment", "please try again later")
		return
	}
	if appt == nil {
		utils.JSONError(c, http.StatusNotFound, "appointment not found", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, appt)
}

// Cancel handles POST /api/appointments/:id/cancel.
func (h *AppointmentHandler) Cancel(c *gin.Context) {
	appt, err := h.Service.CancelAppointment(c.Request.Context(), c.Param("id"))
	if err != nil {
		var validationErr *scheduling.ValidationError
		if errors.As(err, &validationErr) {
			utils.JSONError(c, http.StatusNotFound, "appointment not found", validationErr.Error())
			return
		}
		h.Logger.Error("failed to cancel appointment", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to cancel appointment", "please try again later")
		return
	}
	h.Booking.invalidateAvailability(c.Request.Context(), appt.DoctorID)
	c.JSON(http.StatusOK, appt)
}

// Reschedule handles POST /api/appointments/:id/reschedule.
func (h *AppointmentHandler) Reschedule(c *gin.Context) {
	var input struct {
		DateTime time.Time `json:"dateTime" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid reschedule payload", err.Error())
		return
	}

	opts := scheduling.BookingOptions{
		MaxRetryAttempts:          config.AppConfig.MaxRetryAttempts,
		RetryBaseDelay:            config.AppConfig.RetryBaseDelay,
		MaxAlternativeSuggestions: config.AppConfig.MaxAlternatives,
	}
	outcome := h.Service.RescheduleAppointment(c.Request.Context(), c.Param("id"), input.DateTime, opts)
	if outcome.Success {
		h.Booking.invalidateAvailability(c.Request.Context(), outcome.Appointment.DoctorID)
		c.JSON(http.StatusOK, models.BookingResponse{Success: true, Appointment: outcome.Appointment})
		return
	}

	var validationErr *scheduling.ValidationError
	var conflictErr *scheduling.BookingConflictError
	switch {
	case errors.As(outcome.Err, &validationErr):
		c.JSON(http.StatusBadRequest, models.BookingResponse{Success: false, Error: validationErr.Error()})
	case errors.As(outcome.Err, &conflictErr):
		c.JSON(http.StatusConflict, models.BookingResponse{
			Success:      false,
			Error:        conflictErr.Message,
			Alternatives: conflictErr.Alternatives,
		})
	default:
		h.Logger.Error("reschedule failed", zap.Error(outcome.Err))
		c.JSON(http.StatusInternalServerError, models.BookingResponse{
			Success: false,
			Error:   "reschedule could not be completed, please try again",
		})
	}
}
