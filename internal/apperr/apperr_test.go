package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestConfigurationError_Unwrap(t *testing.T) {
	err := fmt.Errorf("generating number: %w", &ConfigurationError{Shop: "demo.myshopify.com"})

	if !errors.Is(err, ErrConfiguration) {
		t.Fatal("expected errors.Is(err, ErrConfiguration)")
	}
	if errors.Is(err, ErrValidation) {
		t.Error("configuration error must not match ErrValidation")
	}

	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatal("expected errors.As to find *ConfigurationError")
	}
	if cfgErr.Shop != "demo.myshopify.com" {
		t.Errorf("shop: got %q", cfgErr.Shop)
	}
}

func TestConfigurationError_Message(t *testing.T) {
	tests := []struct {
		name string
		err  *ConfigurationError
		want string
	}{
		{"no missing list", &ConfigurationError{Shop: "a.myshopify.com"}, "shop a.myshopify.com is not configured"},
		{"missing list", &ConfigurationError{Missing: []string{"x", "y"}}, "x; y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestNewValidation(t *testing.T) {
	if err := NewValidation(nil); err != nil {
		t.Errorf("expected nil for empty list, got %v", err)
	}

	err := NewValidation([]string{"order id is required", "at least one line is required"})
	if !errors.Is(err, ErrValidation) {
		t.Fatal("expected ErrValidation")
	}
	if err.Error() != "order id is required; at least one line is required" {
		t.Errorf("message: got %q", err.Error())
	}
	if !IsExpected(err) {
		t.Error("validation errors are expected conditions")
	}
	if IsExpected(errors.New("connection refused")) {
		t.Error("plain errors are not expected conditions")
	}
}
