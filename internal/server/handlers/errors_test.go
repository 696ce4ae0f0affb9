package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mamadbah2/dashpoultry/internal/service/alerts"
	"github.com/mamadbah2/dashpoultry/internal/service/farm"
	"github.com/mamadbah2/dashpoultry/internal/service/importer"
	"github.com/mamadbah2/dashpoultry/internal/service/shell"
	"github.com/mamadbah2/dashpoultry/internal/statebus"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		fmt.Errorf("create batch: %w", farm.ErrValidation):  http.StatusBadRequest,
		fmt.Errorf("job: %w", importer.ErrInvalidJob):       http.StatusBadRequest,
		alerts.ErrUnknownThreshold:                          http.StatusBadRequest,
		statebus.ErrEmptyModule:                             http.StatusBadRequest,
		fmt.Errorf("open: %w", shell.ErrUnknownModule):      http.StatusBadRequest,
		farm.ErrInvalidCredentials:                          http.StatusUnauthorized,
		fmt.Errorf("create batch: %w", farm.ErrDuplicate):   http.StatusConflict,
		farm.ErrNotFound:                                    http.StatusNotFound,
		importer.ErrJobNotFound:                             http.StatusNotFound,
		fmt.Errorf("google sheets: %w", ErrChannelDisabled): http.StatusServiceUnavailable,
		errors.New("disk full"):                             http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}
