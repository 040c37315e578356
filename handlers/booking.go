package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"vetbook/config"
	"vetbook/models"
	"vetbook/services/scheduling"
	"vetbook/utils"
)

// BookingHandler exposes the booking engine over HTTP.
type BookingHandler struct {
	Service scheduling.BookingService
	Cache   *redis.Client
	Logger  *zap.Logger
}

func NewBookingHandler(svc scheduling.BookingService, cache *redis.Client, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Service: svc, Cache: cache, Logger: logger}
}

// AttemptBooking handles POST /api/booking.
func (h *BookingHandler) AttemptBooking(c *gin.Context) {
	var req models.AppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid booking payload", err.Error())
		return
	}

	opts := scheduling.BookingOptions{
		EnableOptimisticUpdates:   c.Query("optimistic") == "true",
		MaxRetryAttempts:          config.AppConfig.MaxRetryAttempts,
		RetryBaseDelay:            config.AppConfig.RetryBaseDelay,
		MaxAlternativeSuggestions: config.AppConfig.MaxAlternatives,
	}

	outcome := h.Service.AttemptBooking(c.Request.Context(), req, opts)
	if outcome.Success {
		h.invalidateAvailability(c.Request.Context(), req.DoctorID)
		c.JSON(http.StatusCreated, models.BookingResponse{
			Success:     true,
			Appointment: outcome.Appointment,
		})
		return
	}

	var validationErr *scheduling.ValidationError
	var conflictErr *scheduling.BookingConflictError
	switch {
	case errors.As(outcome.Err, &validationErr):
		c.JSON(http.StatusBadRequest, models.BookingResponse{
			Success: false,
			Error:   validationErr.Error(),
		})
	case errors.As(outcome.Err, &conflictErr):
		c.JSON(http.StatusConflict, models.BookingResponse{
			Success:      false,
			Error:        conflictErr.Message,
			Alternatives: conflictErr.Alternatives,
		})
	default:
		h.Logger.Error("booking failed", zap.Error(outcome.Err))
		c.JSON(http.StatusInternalServerError, models.BookingResponse{
			Success: false,
			Error:   "booking could not be completed, please try again",
		})
	}
}

// GetAvailability handles GET /api/booking/availability?doctorId=...
// Responses are cached briefly; bookings and cancellations invalidate.
func (h *BookingHandler) GetAvailability(c *gin.Context) {
	doctorID := c.Query("doctorId")
	if doctorID == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing doctorId", "doctorId query parameter is required")
		return
	}

	ctx := c.Request.Context()
	cacheKey := availabilityCacheKey(doctorID)
	if cached, err := h.Cache.Get(ctx, cacheKey).Result(); err == nil {
		var slots []time.Time
		if err := json.Unmarshal([]byte(cached), &slots); err == nil {
			c.JSON(http.StatusOK, gin.H{"doctorId": doctorID, "slots": slots, "count": len(slots)})
			return
		}
	}

	slots, err := h.Service.Availability(ctx, doctorID)
	if err != nil {
		h.respondServiceError(c, err, "failed to compute availability")
		return
	}

	if data, err := json.Marshal(slots); err == nil {
		if err := h.Cache.Set(ctx, cacheKey, data, config.AppConfig.AvailabilityTTL).Err(); err != nil {
			h.Logger.Warn("failed to cache availability", zap.Error(err))
		}
	}
	c.JSON(http.StatusOK, gin.H{"doctorId": doctorID, "slots": slots, "count": len(slots)})
}

// CheckAvailability handles GET /api/booking/availability/check.
func (h *BookingHandler) CheckAvailability(c *gin.Context) {
	doctorID := c.Query("doctorId")
	dateTime, duration, err := parseSlotQuery(c)
	if doctorID == "" || err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid query", "doctorId, dateTime (RFC3339) and duration are required")
		return
	}

	available, err := h.Service.CheckAvailability(c.Request.Context(), doctorID, dateTime, duration)
	if err != nil {
		h.respondServiceError(c, err, "failed to check availability")
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": available})
}

// SuggestAlternatives handles GET /api/booking/alternatives.
func (h *BookingHandler) SuggestAlternatives(c *gin.Context) {
	doctorID := c.Query("doctorId")
	dateTime, duration, err := parseSlotQuery(c)
	if doctorID == "" || err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid query", "doctorId, dateTime (RFC3339) and duration are required")
		return
	}
	max := config.AppConfig.MaxAlternatives
	if raw := c.Query("max"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			max = n
		}
	}

	alts, err := h.Service.SuggestAlternatives(c.Request.Context(), doctorID, dateTime, duration, max)
	if err != nil {
		h.respondServiceError(c, err, "failed to suggest alternatives")
		return
	}
	c.JSON(http.StatusOK, gin.H{"alternatives": alts})
}

// NextAvailable handles GET /api/booking/next?doctorId=...
func (h *BookingHandler) NextAvailable(c *gin.Context) {
	doctorID := c.Query("doctorId")
	if doctorID == "" {
		utils.JSONError(c, http.StatusBadRequest, "missing doctorId", "doctorId query parameter is required")
		return
	}
	next, err := h.Service.NextAvailable(c.Request.Context(), doctorID)
	if err != nil {
		h.respondServiceError(c, err, "failed to find next available slot")
		return
	}
	if next == nil {
		c.JSON(http.StatusOK, gin.H{"available": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"available": true, "next": next})
}

func (h *BookingHandler) respondServiceError(c *gin.Context, err error, message string) {
	var validationErr *scheduling.ValidationError
	if errors.As(err, &validationErr) {
		utils.JSONError(c, http.StatusNotFound, message, validationErr.Error())
		return
	}
	h.Logger.Error(message, zap.Error(err))
	utils.JSONError(c, http.StatusInternalServerError, message, "please try again later")
}

func (h *BookingHandler) invalidateAvailability(ctx context.Context, doctorID string) {
	if err := h.Cache.Del(ctx, availabilityCacheKey(doctorID)).Err(); err != nil {
		h.Logger.Warn("failed to invalidate availability cache",
			zap.String("doctorId", doctorID), zap.Error(err))
	}
}

func availabilityCacheKey(doctorID string) string {
	return fmt.Sprintf("availability:%s", doctorID)
}

func parseSlotQuery(c *gin.Context) (time.Time, int, error) {
	dateTime, err := time.Parse(time.RFC3339, c.Query("dateTime"))
	if err != nil {
		return time.Time{}, 0, err
	}
	duration, err := strconv.Atoi(c.Query("duration"))
	if err != nil || duration <= 0 {
		return time.Time{}, 0, fmt.Errorf("invalid duration")
	}
	return dateTime, duration, nil
}
