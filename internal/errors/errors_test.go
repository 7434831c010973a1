package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := New(ErrServiceNotFound, "service not found")
	assert.Equal(t, "[SERVICE_NOT_FOUND] service not found", err.Error())

	withDetails := NewWithDetails(ErrConfigValidation, "invalid field", "services.kaspad.protocol")
	assert.Contains(t, withDetails.Error(), "services.kaspad.protocol")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(ErrRuntimeCommand, "docker ps failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, ErrRuntimeCommand, err.Code)
}

func TestWithContext(t *testing.T) {
	err := ServiceNotFound("ghost").WithContext("requested_by", "api")

	assert.Contains(t, err.Details, "ghost")
	assert.Equal(t, "api", err.Context["requested_by"])
}

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrServiceNotFound, http.StatusNotFound},
		{ErrPlanNotFound, http.StatusNotFound},
		{ErrConfigNotFound, http.StatusNotFound},
		{ErrValidationFailed, http.StatusBadRequest},
		{ErrDependencyCycle, http.StatusBadRequest},
		{ErrUnknownDependency, http.StatusBadRequest},
		{ErrServiceNotRunning, http.StatusConflict},
		{ErrRuntimeUnavailable, http.StatusServiceUnavailable},
		{ErrInternal, http.StatusInternalServerError},
		{ErrRuntimeCommand, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "test").GetHTTPStatus())
		})
	}
}

func TestExplicitStatusWins(t *testing.T) {
	err := New(ErrInternal, "teapot")
	err.HTTPStatus = http.StatusTeapot
	assert.Equal(t, http.StatusTeapot, err.GetHTTPStatus())
}

func TestCodeHelpers(t *testing.T) {
	err := ConfigNotFound("/etc/nodestack/stack.toml")

	require.True(t, IsStackError(err))
	assert.Equal(t, ErrConfigNotFound, GetCode(err))
	assert.True(t, HasCode(err, ErrConfigNotFound))
	assert.False(t, HasCode(err, ErrConfigParse))

	plain := fmt.Errorf("plain")
	assert.False(t, IsStackError(plain))
	assert.Equal(t, ErrorCode(""), GetCode(plain))
}
