package perrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCarriesCodeAndStacktrace(t *testing.T) {
	err := NewErrNotFound("Task log not found", errors.New("no rows"))

	var perr Err
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, http.StatusNotFound, perr.HttpStatus())
	assert.Equal(t, "no rows", perr.Error())
	assert.Equal(t, "Task log not found", perr.Message)
	assert.NotEmpty(t, perr.Stacktrace)
}

func TestNewWithNilError(t *testing.T) {
	err := NewErrConflict("Conflict", nil)
	assert.Equal(t, "error missing", err.Error())
}

func TestTimeoutStatus(t *testing.T) {
	err := NewErrTimeout("Report timed out", errors.New("deadline exceeded"))
	assert.Equal(t, http.StatusGatewayTimeout, err.(Err).HttpStatus())
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("entries[0].hours", "must be between 0 and 24")
	assert.Equal(t, "entries[0].hours: must be between 0 and 24", err.Error())
	assert.True(t, IsValidation(err))
	assert.True(t, IsValidation(fmt.Errorf("wrapped: %w", err)))
	assert.False(t, IsValidation(errors.New("plain")))

	assert.Equal(t, "startDate cannot be after endDate", NewValidationError("", "startDate cannot be after endDate").Error())
}
