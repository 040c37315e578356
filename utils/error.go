package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ErrorResponse is the JSON body every failed request carries.
type ErrorResponse struct {
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// ErrorHandler recovers from handler panics and converts them into a 500
// response instead of tearing the connection down.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				GetLogger().Error("handler panic",
					zap.Any("panic", r),
					zap.String("path", c.FullPath()))
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
					Message: "internal server error",
					Details: "an unexpected error occurred, please try again later",
				})
			}
		}()
		c.Next()
	}
}

// JSONError writes a structured error response and logs it with the request
// path so failed calls are traceable without client cooperation.
func JSONError(c *gin.Context, status int, message string, details string) {
	GetLogger().Warn(message,
		zap.Int("status", status),
		zap.String("path", c.FullPath()),
		zap.String("details", details))
	c.JSON(status, ErrorResponse{Message: message, Details: details})
}
