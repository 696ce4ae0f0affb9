package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/dashpoultry/internal/service/alerts"
	"github.com/mamadbah2/dashpoultry/internal/service/farm"
	"github.com/mamadbah2/dashpoultry/internal/service/importer"
	"github.com/mamadbah2/dashpoultry/internal/service/shell"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

// ErrChannelDisabled is reported when an optional integration is not configured.
var ErrChannelDisabled = errors.New("integration is not configured")

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, farm.ErrValidation),
		errors.Is(err, importer.ErrInvalidJob),
		errors.Is(err, alerts.ErrUnknownThreshold),
		errors.Is(err, alerts.ErrInvalidThreshold),
		errors.Is(err, statebus.ErrEmptyModule),
		errors.Is(err, shell.ErrUnknownModule):
		return http.StatusBadRequest
	case errors.Is(err, farm.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, farm.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, farm.ErrNotFound), errors.Is(err, importer.ErrJobNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrChannelDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}
