package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestRetryable(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "upstream", err: &UpstreamError{Status: 502}, want: true},
		{name: "wrapped upstream", err: fmt.Errorf("fetch: %w", &UpstreamError{Status: 0, Err: errors.New("dial")}), want: true},
		{name: "configuration", err: &ConfigurationError{Reason: "NASA_API_KEY is not set"}, want: false},
		{name: "data shape", err: &DataShapeError{Field: "miss_distance.kilometers", RawValue: "abc"}, want: false},
		{name: "plain", err: errors.New("boom"), want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Retryable(tc.err); got != tc.want {
				t.Fatalf("Retryable(%v)=%v, want %v", tc.err, got, tc.want)
			}
		})
	}
}

func TestUpstreamError_Error(t *testing.T) {
	e := &UpstreamError{Status: 503}
	if e.Error() != "upstream error (status 503): Service Unavailable" {
		t.Fatalf("unexpected %q", e.Error())
	}
	dial := errors.New("connection refused")
	e2 := &UpstreamError{Err: dial}
	if e2.Error() != "upstream error: connection refused" {
		t.Fatalf("unexpected %q", e2.Error())
	}
	if !errors.Is(e2, dial) {
		t.Fatalf("expected unwrap to transport error")
	}
}

func TestMessage(t *testing.T) {
	if Message(nil) != "" {
		t.Fatalf("nil should give empty message")
	}
	up := fmt.Errorf("wrap: %w", &UpstreamError{Status: 500, Message: "Failed to fetch asteroid data"})
	if Message(up) != "Failed to fetch asteroid data" {
		t.Fatalf("unexpected %q", Message(up))
	}
	withCause := &UpstreamError{Status: 500, Message: "Failed to fetch asteroid data.", Err: errors.New("upstream error (status 503): Service Unavailable")}
	if got := Message(withCause); got != "Failed to fetch asteroid data: upstream error (status 503): Service Unavailable" {
		t.Fatalf("cause missing from %q", got)
	}
	shape := &DataShapeError{Field: "id", RawValue: ""}
	if Message(shape) != shape.Error() {
		t.Fatalf("unexpected %q", Message(shape))
	}
}
