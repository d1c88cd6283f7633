package errors

import (
	"fmt"
	"testing"
)

func TestKilnError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeRootNotFound, "root not found")
	if err.Code != ErrCodeRootNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeRootNotFound, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeStateIO, "write failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeStateIO) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeRootNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("root", "/ws/app").WithDetail("attempt", 2)
	if detailed.Details["root"] != "/ws/app" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	// Test RootNotFound
	err := RootNotFound("/ws/app")
	if err.Code != ErrCodeRootNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeRootNotFound, err.Code)
	}
	if err.Details["root"] != "/ws/app" {
		t.Error("RootNotFound should include root detail")
	}

	// Test UnknownConfig
	err = UnknownConfig("/ws/app", "debug")
	if err.Code != ErrCodeUnknownConfig {
		t.Errorf("expected code %s, got %s", ErrCodeUnknownConfig, err.Code)
	}
	if err.Details["name"] != "debug" {
		t.Error("UnknownConfig should include name detail")
	}

	// Test MergeFailed carries the cause
	cause := fmt.Errorf("boom")
	err = MergeFailed(cause, []string{"/ws/build/debug"})
	if err.Unwrap() != cause {
		t.Error("MergeFailed should wrap the cause")
	}
	if !Is(err, ErrCodeMergeFailed) {
		t.Error("MergeFailed should carry its code")
	}
}

func TestGetCodeUnwrapsStandardWrapping(t *testing.T) {
	inner := New(ErrCodeDaemonNotRunning, "no daemon")
	outer := fmt.Errorf("request failed: %w", inner)

	if GetCode(outer) != ErrCodeDaemonNotRunning {
		t.Errorf("expected %s, got %s", ErrCodeDaemonNotRunning, GetCode(outer))
	}
	if GetCode(nil) != "" {
		t.Error("nil error should yield empty code")
	}
	if GetCode(fmt.Errorf("plain")) != "" {
		t.Error("plain error should yield empty code")
	}
}
