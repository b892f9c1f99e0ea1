package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies why a generation call failed.
type Kind string

const (
	KindTimeout           Kind = "timeout"
	KindUnauthorized      Kind = "unauthorized"
	KindRateLimited       Kind = "rate_limited"
	KindUnreachable       Kind = "unreachable"
	KindMalformedResponse Kind = "malformed_response"
	KindUpstream          Kind = "upstream"
	KindUnconfigured      Kind = "unconfigured"
)

var kindText = map[Kind]string{
	KindTimeout:           "AI service timed out",
	KindUnauthorized:      "AI service rejected the credentials",
	KindRateLimited:       "AI service rate limit reached",
	KindUnreachable:       "AI service unreachable",
	KindMalformedResponse: "AI service returned a malformed response",
	KindUpstream:          "AI service error",
	KindUnconfigured:      "AI service is not configured",
}

// Error is the typed failure returned by Generator implementations.
type Error struct {
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	msg := kindText[e.Kind]
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	var aiErr *Error
	return errors.As(err, &aiErr) && aiErr.Kind == k
}

// Classify converts any error from a generation call into an *Error. It returns nil for nil.
func Classify(err error) *Error {
	if err == nil {
		return nil
	}
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindUnreachable, Err: err}
}
