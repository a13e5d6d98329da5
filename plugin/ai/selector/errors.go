package selector

import (
	"context"
	"errors"
	"net"
	"strings"
)

var (
	// ErrNoAvailableModel is returned when every model of the provider is suspended or none is registered.
	ErrNoAvailableModel = errors.New("no available model")

	// ErrAllModelsFailed is returned when every available model failed its attempt.
	ErrAllModelsFailed = errors.New("all models failed")

	// ErrEmptyResult marks an attempt that returned no text.
	ErrEmptyResult = errors.New("empty result")
)

// FailureClass describes why a model attempt failed. It is used for logging
// only; every class suspends the model the same way.
type FailureClass string

const (
	FailureTimeout FailureClass = "timeout"
	FailureNetwork FailureClass = "network"
	FailureEmpty   FailureClass = "empty"
	FailureInvalid FailureClass = "invalid_output"
	FailureAPI     FailureClass = "api"
)

// InvalidOutputError wraps a model reply that could not be used.
type InvalidOutputError struct {
	Err error
}

func (e *InvalidOutputError) Error() string {
	return "invalid model output: " + e.Err.Error()
}

func (e *InvalidOutputError) Unwrap() error {
	return e.Err
}

// ClassifyFailure analyzes an attempt error.
func ClassifyFailure(err error) FailureClass {
	if errors.Is(err, ErrEmptyResult) {
		return FailureEmpty
	}
	var invalid *InvalidOutputError
	if errors.As(err, &invalid) {
		return FailureInvalid
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return FailureTimeout
		}
		return FailureNetwork
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") || strings.Contains(msg, "connection reset") || strings.Contains(msg, "no such host") {
		return FailureNetwork
	}
	return FailureAPI
}
