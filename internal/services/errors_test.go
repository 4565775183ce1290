package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"bundlepull/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrMalformedManifest, "assets", "parse", "missing uuids", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrMalformedManifest) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"assets", "parse", "missing uuids"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := services.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "service failure") {
		t.Fatalf("expected fallback detail, got %q", err.Error())
	}
}

func TestSkipsBundle(t *testing.T) {
	if services.SkipsBundle(nil) {
		t.Fatal("nil error must not skip")
	}
	if !services.SkipsBundle(services.Wrap(services.ErrMalformedManifest, "assets", "parse", "", nil)) {
		t.Fatal("malformed manifest should skip bundle")
	}
	if services.SkipsBundle(services.Wrap(services.ErrConfiguration, "config", "load", "", nil)) {
		t.Fatal("configuration errors must abort the run")
	}
}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"deadline", context.DeadlineExceeded, true},
		{"transient marker", services.Wrap(services.ErrTransient, "fetch", "get", "status 503", nil), true},
		{"reset", fmt.Errorf("read: connection reset by peer"), true},
		{"not found", services.ErrNotFound, false},
	}
	for _, tc := range tests {
		if got := services.IsRetryable(tc.err); got != tc.want {
			t.Fatalf("%s: IsRetryable=%v want %v", tc.name, got, tc.want)
		}
	}
}
