package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	doctorRepo "vetbook/database/repository/doctor"
	"vetbook/models"
	"vetbook/services/scheduling"
	"vetbook/utils"
)

// DoctorHandler serves provider CRUD and the validator-gated schedule edit.
type DoctorHandler struct {
	Repo    doctorRepo.DoctorRepository
	Service scheduling.BookingService
	Booking *BookingHandler
	Logger  *zap.Logger
}

func NewDoctorHandler(repo doctorRepo.DoctorRepository, svc scheduling.BookingService, booking *BookingHandler, logger *zap.Logger) *DoctorHandler {
	return &DoctorHandler{Repo: repo, Service: svc, Booking: booking, Logger: logger}
}

// List handles GET /api/doctors.
func (h *DoctorHandler) List(c *gin.Context) {
	docs, err := h.Repo.List(c.Request.Context())
	if err != nil {
		h.Logger.Error("failed to list doctors", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to list doctors", "please try again later")
		return
	}
	c.JSON(http.StatusOK, gin.H{"doctors": docs, "count": len(docs)})
}

// Get handles GET /api/doctors/:id.
func (h *DoctorHandler) Get(c *gin.Context) {
	doc, err := h.Repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.Logger.Error("failed to fetch doctor", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to fetch doctor", "please try again later")
		return
	}
	if doc == nil {
		utils.JSONError(c, http.StatusNotFound, "doctor not found", c.Param("id"))
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Create handles POST /api/doctors. A provided schedule must be structurally
// valid before the record is stored.
func (h *DoctorHandler) Create(c *gin.Context) {
	var doc models.Doctor
	if err := c.ShouldBindJSON(&doc); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid doctor payload", err.Error())
		return
	}
	if doc.Schedule != nil {
		if err := scheduling.ValidateScheduleStructure(doc.Schedule); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid schedule", err.Error())
			return
		}
	}
	if err := h.Repo.Create(c.Request.Context(), &doc); err != nil {
		h.Logger.Error("failed to create doctor", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to create doctor", "please try again later")
		return
	}
	c.JSON(http.StatusCreated, doc)
}

// UpdateSchedule handles PUT /api/doctors/:id/schedule. The edit is
// all-or-nothing: any existing non-cancelled appointment falling outside the
// new schedule rejects the whole edit and the stored schedule is untouched.
func (h *DoctorHandler) UpdateSchedule(c *gin.Context) {
	doctorID := c.Param("id")

	var schedule models.WeeklySchedule
	if err := c.ShouldBindJSON(&schedule); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid schedule payload", err.Error())
		return
	}

	report, err := h.Service.ValidateScheduleEdit(c.Request.Context(), doctorID, schedule)
	if err != nil {
		var validationErr *scheduling.ValidationError
		if errors.As(err, &validationErr) {
			c.JSON(http.StatusBadRequest, gin.H{"isValid": false, "error": validationErr.Error()})
			return
		}
		h.Logger.Error("failed to validate schedule edit", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to validate schedule", "please try again later")
		return
	}
	if !report.Valid {
		c.JSON(http.StatusConflict, report)
		return
	}

	if err := h.Repo.UpdateSchedule(c.Request.Context(), doctorID, schedule); err != nil {
		h.Logger.Error("failed to update schedule", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to update schedule", "please try again later")
		return
	}
	h.Booking.invalidateAvailability(c.Request.Context(), doctorID)
	c.JSON(http.StatusOK, report)
}

// Update handles PUT /api/doctors/:id for non-schedule fields.
func (h *DoctorHandler) Update(c *gin.Context) {
	var doc models.Doctor
	if err := c.ShouldBindJSON(&doc); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid doctor payload", err.Error())
		return
	}
	doc.ID = c.Param("id")
	if doc.Schedule != nil {
		if err := scheduling.ValidateScheduleStructure(doc.Schedule); err != nil {
			utils.JSONError(c, http.StatusBadRequest, "invalid schedule", err.Error())
			return
		}
	}
	if err := h.Repo.Update(c.Request.Context(), &doc); err != nil {
		h.Logger.Error("failed to update doctor", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to update doctor", "please try again later")
		return
	}
	c.JSON(http.StatusOK, doc)
}

// Delete handles DELETE /api/doctors/:id.
func (h *DoctorHandler) Delete(c *gin.Context) {
	if err := h.Repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.Logger.Error("failed to delete doctor", zap.Error(err))
		utils.JSONError(c, http.StatusInternalServerError, "failed to delete doctor", "please try again later")
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
