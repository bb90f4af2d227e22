// Package apperr defines the failure taxonomy shared by the ingestion path.
//
// The HTTP layer flattens every kind into the same error envelope, but the
// kinds stay distinct internally so callers can decide retry eligibility by
// type instead of by message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ConfigurationError reports a missing or invalid process setting, such as an
// absent provider credential. It is never retried.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// UpstreamError reports a failed round trip to a remote service.
//
// Status is the HTTP status returned by the remote side, or 0 when the request
// never produced a response (DNS, connection refused, timeout).
type UpstreamError struct {
	Status  int
	Message string
	Err     error
}

func (e *UpstreamError) Error() string {
	msg := e.Message
	if msg == "" && e.Status != 0 {
		msg = http.StatusText(e.Status)
	}
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Status != 0 {
		return fmt.Sprintf("upstream error (status %d): %s", e.Status, msg)
	}
	return "upstream error: " + msg
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// DataShapeError reports a provider payload that does not match the expected
// shape. Retrying will not fix it.
type DataShapeError struct {
	Field    string
	RawValue string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("unexpected data shape in field %q: %q", e.Field, e.RawValue)
}

// Retryable reports whether err is worth retrying. Only upstream failures are.
func Retryable(err error) bool {
	var up *UpstreamError
	return errors.As(err, &up)
}

// Message returns the human readable part of err, preferring the remote
// message carried by an UpstreamError. When that error also wraps a cause,
// the cause follows the message: "Failed to fetch asteroid data: dial tcp ...".
func Message(err error) string {
	if err == nil {
		return ""
	}
	var up *UpstreamError
	if errors.As(err, &up) && up.Message != "" {
		if up.Err == nil {
			return up.Message
		}
		return strings.TrimSuffix(up.Message, ".") + ": " + up.Err.Error()
	}
	return err.Error()
}
