package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"vetbook/handlers"
	"vetbook/utils"
)

// HandlerBundle groups the handlers main.go assembles.
type HandlerBundle struct {
	Booking     *handlers.BookingHandler
	Appointment *handlers.AppointmentHandler
	Doctor      *handlers.DoctorHandler
	Owner       *handlers.OwnerHandler
}

// RegisterRoutes registers all endpoints with the assembled handler bundle.
func RegisterRoutes(r *gin.Engine, b *HandlerBundle) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, utils.GetHealthStatus())
	})

	booking := r.Group("/api/booking")
	{
		booking.POST("", b.Booking.AttemptBooking)
		booking.GET("/availability", b.Booking.GetAvailability)
		booking.GET("/availability/check", b.Booking.CheckAvailability)
		booking.GET("/alternatives", b.Booking.SuggestAlternatives)
		booking.GET("/next", b.Booking.NextAvailable)
	}

	appointments := r.Group("/api/appointments")
	{
		appointments.GET("", b.Appointment.List)
		appointments.GET("/:id", b.Appointment.Get)
		appointments.POST("/:id/cancel", b.Appointment.Cancel)
		appointments.POST("/:id/reschedule", b.Appointment.Reschedule)
	}

	doctors := r.Group("/api/doctors")
	{
		doctors.GET("", b.Doctor.List)
		doctors.GET("/:id", b.Doctor.Get)
		doctors.POST("", b.Doctor.Create)
		doctors.PUT("/:id", b.Doctor.Update)
		doctors.PUT("/:id/schedule", b.Doctor.UpdateSchedule)
		doctors.DELETE("/:id", b.Doctor.Delete)
	}

	owners := r.Group("/api/owners")
	{
		owners.GET("", b.Owner.List)
		owners.GET("/:id", b.Owner.Get)
		owners.POST("", b.Owner.Create)
		owners.PUT("/:id", b.Owner.Update)
		owners.DELETE("/:id", b.Owner.Delete)
	}
}
