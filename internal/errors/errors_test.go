package errors

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppErrorChain(t *testing.T) {
	cause := errors.New("underlying")
	err := NewSchemaError("bad upload", cause).WithContext("batch", "era.csv")

	assert.Contains(t, err.Error(), "SCHEMA")
	assert.Contains(t, err.Error(), "bad upload")
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "era.csv", err.Context["batch"])
}

func TestIsType(t *testing.T) {
	err := NewValidationError("missing field")
	assert.True(t, IsType(err, ErrTypeValidation))
	assert.False(t, IsType(err, ErrTypeSchema))
	assert.False(t, IsType(errors.New("plain"), ErrTypeValidation))
}

func TestRemittanceSchemaSentinel(t *testing.T) {
	err := NewSchemaError("missing columns", ErrRemittanceSchema)
	assert.True(t, errors.Is(err, ErrRemittanceSchema))
}

func TestFromError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"schema maps to 422", NewSchemaError("missing columns", nil), http.StatusUnprocessableEntity, "SCHEMA"},
		{"validation maps to 422", NewValidationError("bad input"), http.StatusUnprocessableEntity, "VALIDATION"},
		{"parsing maps to 422", NewParsingError("bad csv", nil), http.StatusUnprocessableEntity, "PARSING"},
		{"not found maps to 404", NewNotFoundError("report x"), http.StatusNotFound, "NOT_FOUND"},
		{"anything else maps to 500", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_SERVER_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			apiErr := FromError(tt.err)
			require.NotNil(t, apiErr)
			assert.Equal(t, tt.wantStatus, apiErr.StatusCode)
			assert.Equal(t, tt.wantCode, apiErr.ErrorCode)
		})
	}
}

func TestErrValidation(t *testing.T) {
	apiErr := ErrValidation("today", "must be YYYY-MM-DD")
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	details, ok := apiErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "today", details["field"])
}
