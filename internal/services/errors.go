package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
)

var (
	ErrMalformedManifest  = errors.New("malformed manifest")
	ErrDecodeFailure      = errors.New("decode failure")
	ErrNotFound           = errors.New("not found")
	ErrTransient          = errors.New("transient failure")
	ErrStructuralMismatch = errors.New("structural mismatch")
	ErrConfiguration      = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// SkipsBundle reports whether err should abandon the current bundle while
// letting the run continue with the next one.
func SkipsBundle(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrMalformedManifest), errors.Is(err, ErrNotFound), errors.Is(err, ErrTransient):
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err represents a transient transport condition
// that warrants retrying the same request (timeouts, resets, 5xx).
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, ErrTransient) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, token := range []string{
		"timeout",
		"connection reset",
		"connection refused",
		"temporary failure",
		"unexpected eof",
		"awaiting headers",
	} {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
