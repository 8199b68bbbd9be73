package errors

import (
	"fmt"
	"testing"
)

func TestWarrenError(t *testing.T) {
	// Test basic error creation
	err := New(ErrCodeSessionNotFound, "session not found")
	if err.Code != ErrCodeSessionNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeSessionNotFound, err.Code)
	}

	// Test error wrapping
	cause := fmt.Errorf("underlying error")
	wrapped := Wrap(cause, ErrCodeCommandFailed, "command failed")

	if wrapped.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}

	// Test Is function
	if !Is(wrapped, ErrCodeCommandFailed) {
		t.Error("Is should return true for matching code")
	}

	if Is(wrapped, ErrCodeSessionNotFound) {
		t.Error("Is should return false for non-matching code")
	}

	// Test WithDetail
	detailed := err.WithDetail("name", "brave-penguin").WithDetail("pid", 4242)
	if detailed.Details["name"] != "brave-penguin" {
		t.Error("WithDetail should add details")
	}
}

func TestErrorConstructors(t *testing.T) {
	err := SessionNotFound("brave-penguin")
	if err.Code != ErrCodeSessionNotFound {
		t.Errorf("expected code %s, got %s", ErrCodeSessionNotFound, err.Code)
	}
	if err.Details["name"] != "brave-penguin" {
		t.Error("SessionNotFound should include name detail")
	}

	err = CannotRemovePrimary("/repo")
	if err.Code != ErrCodeCannotRemovePrimary {
		t.Errorf("expected code %s, got %s", ErrCodeCannotRemovePrimary, err.Code)
	}
	if err.Remediation() == "" {
		t.Error("protection errors should carry remediation text")
	}

	err = UncommittedChanges("/repo/wt")
	if err.Code != ErrCodeUncommittedChanges {
		t.Errorf("expected code %s, got %s", ErrCodeUncommittedChanges, err.Code)
	}

	err = AgentNotAvailable("claude")
	if err.Code != ErrCodeAgentNotAvailable {
		t.Errorf("expected code %s, got %s", ErrCodeAgentNotAvailable, err.Code)
	}
	if err.Details["executable"] != "claude" {
		t.Error("AgentNotAvailable should include executable detail")
	}
}

func TestGetCodeUnwrapsWrappedErrors(t *testing.T) {
	inner := RemoteUnavailable("origin", fmt.Errorf("dial tcp: timeout"))
	outer := fmt.Errorf("create session: %w", inner)

	if GetCode(outer) != ErrCodeRemoteUnavailable {
		t.Errorf("expected %s through fmt.Errorf wrapping, got %s", ErrCodeRemoteUnavailable, GetCode(outer))
	}
	if !Is(outer, ErrCodeRemoteUnavailable) {
		t.Error("Is should see through fmt.Errorf wrapping")
	}
}
