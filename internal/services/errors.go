package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrParse marks responses where no extraction pattern matched anything.
	ErrParse = errors.New("parse error")
	// ErrDesync marks reconciliations whose line count or length profile does
	// not match the batch that was sent.
	ErrDesync = errors.New("desync error")
	// ErrValidation marks per-line quality failures. Non-fatal by default.
	ErrValidation = errors.New("validation error")
	// ErrProviderTransient marks provider failures worth retrying (timeout,
	// rate limit, transient 5xx).
	ErrProviderTransient = errors.New("transient provider error")
	// ErrProviderFatal marks provider failures that will not succeed on retry
	// (authentication, permanent rejection).
	ErrProviderFatal = errors.New("fatal provider error")
	// ErrCancelled marks a user-requested abort.
	ErrCancelled = errors.New("cancelled")
	// ErrConfiguration marks invalid settings surfaced at startup.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrProviderTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Retryable reports whether an error should drive another batch attempt.
func Retryable(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrCancelled), errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, ErrProviderFatal), errors.Is(err, ErrConfiguration):
		return false
	case errors.Is(err, ErrParse), errors.Is(err, ErrDesync), errors.Is(err, ErrProviderTransient):
		return true
	default:
		return false
	}
}

// Fatal reports whether an error must halt further batch submission for the
// whole run rather than failing a single batch.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrProviderFatal) ||
		errors.Is(err, ErrCancelled) ||
		errors.Is(err, context.Canceled)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
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
