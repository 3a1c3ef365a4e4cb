package goerror

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_StatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "business bad request", err: NewBusiness("Verification failed", CodeBadRequest), want: http.StatusBadRequest},
		{name: "business not found", err: NewBusiness("User not found", CodeNotFound), want: http.StatusNotFound},
		{name: "business unauthorized", err: NewBusiness("Invalid token", CodeUnauthorized), want: http.StatusUnauthorized},
		{name: "upstream", err: NewUpstream(errors.New("smtp down"), "Failed to deliver"), want: http.StatusBadGateway},
		{name: "server", err: NewServer(errors.New("boom")), want: http.StatusInternalServerError},
		{name: "invalid input", err: NewInvalidInput(errors.New("bad")), want: http.StatusUnprocessableEntity},
		{name: "invalid format", err: NewInvalidFormat(), want: http.StatusBadRequest},
		{name: "rate limited", err: NewBusiness("Too many requests", CodeTooManyRequest), want: http.StatusTooManyRequests},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gerr *Error
			if !errors.As(tt.err, &gerr) {
				t.Fatalf("expected *Error, got %T", tt.err)
			}
			assert.Equal(t, tt.want, gerr.StatusCode())
		})
	}
}

func TestNewUpstream_KeepsCauseAndMessage(t *testing.T) {
	// Arrange
	cause := errors.New("dial tcp: connection refused")

	// Act
	err := NewUpstream(cause, "Failed to deliver verification code")

	// Assert
	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error")
	}
	assert.Equal(t, "Failed to deliver verification code", gerr.Msg())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, TypeServer, gerr.Type())
	assert.Equal(t, "ERROR_CODE_BAD_GATEWAY", gerr.Code().String())
}

func TestNewInvalidInput_Fields(t *testing.T) {
	err := NewInvalidInput(nil, "email", "email is required")

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error")
	}
	assert.Equal(t, map[string]string{"email": "email is required"}, gerr.Fields())
	assert.Equal(t, http.StatusUnprocessableEntity, gerr.StatusCode())
}

func TestNewInvalidInput_OddPairsIsMalformed(t *testing.T) {
	err := NewInvalidInput(nil, "email")

	var gerr *Error
	if !errors.As(err, &gerr) {
		t.Fatalf("expected *Error")
	}
	assert.Equal(t, CodeInvalidFormat, gerr.Code())
	assert.Equal(t, "Invalid request body", gerr.Msg())
}

func TestCode_UnknownIsInternal(t *testing.T) {
	gerr := &Error{code: Code(99)}

	assert.Equal(t, "ERROR_CODE_INTERNAL", Code(99).String())
	assert.Equal(t, http.StatusInternalServerError, gerr.StatusCode())
	assert.Equal(t, "ERROR_TYPE_SERVER", gerr.Error())
}
