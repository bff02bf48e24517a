package errors

import (
	"errors"
	"testing"
)

func TestServerError(t *testing.T) {
	originalErr := errors.New("test error")
	serverErr := NewServerError("test operation", originalErr)

	expected := "test operation: test error"
	if serverErr.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, serverErr.Error())
	}

	if serverErr.Unwrap() != originalErr {
		t.Errorf("Expected unwrapped error to be the original error")
	}
}

func TestHealthCheckError(t *testing.T) {
	originalErr := errors.New("test error")
	healthErr := NewHealthCheckError("healthz", originalErr)

	expected := "unable to set up healthz check: test error"
	if healthErr.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, healthErr.Error())
	}

	if healthErr.Unwrap() != originalErr {
		t.Errorf("Expected unwrapped error to be the original error")
	}
}

func TestConfigError(t *testing.T) {
	originalErr := errors.New("test error")
	configErr := NewConfigError("load config", originalErr)

	expected := "load config: test error"
	if configErr.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, configErr.Error())
	}

	if configErr.Unwrap() != originalErr {
		t.Errorf("Expected unwrapped error to be the original error")
	}
}

func TestOTelError(t *testing.T) {
	originalErr := errors.New("test error")
	otelErr := NewOTelError("setup", originalErr)

	expected := "setup: test error"
	if otelErr.Error() != expected {
		t.Errorf("Expected error message '%s', got '%s'", expected, otelErr.Error())
	}

	if otelErr.Unwrap() != originalErr {
		t.Errorf("Expected unwrapped error to be the original error")
	}
}
