// Package backend calls the free translation HTTP services.
//
// Every call fails soft: network errors, bad statuses, timeouts and echoed
// input all come back as an Outcome with a Reason instead of an error, so the
// caller can move on to the next service without special cases.
package backend

import (
	"context"
	"strings"
)

// Backend translates a single piece of text.
type Backend interface {
	// Name returns the backend name
	Name() string

	// Translate translates text from source to target language
	Translate(ctx context.Context, text, source, target string) Outcome
}

// Reason says why a call produced no translation.
type Reason string

const (
	ReasonNetwork     Reason = "network"
	ReasonTimeout     Reason = "timeout"
	ReasonStatus      Reason = "status"
	ReasonDecode      Reason = "decode"
	ReasonEmpty       Reason = "empty"
	ReasonEcho        Reason = "echo"
	ReasonCircuitOpen Reason = "circuit_open"
	ReasonRateLimited Reason = "rate_limited"
)

// outage reports whether the reason points at the service being unhealthy,
// as opposed to it answering with something unusable.
func (r Reason) outage() bool {
	switch r {
	case ReasonNetwork, ReasonTimeout, ReasonStatus, ReasonDecode:
		return true
	}
	return false
}

// Outcome is the result of one backend call. Reason is empty on success.
type Outcome struct {
	Text   string
	Reason Reason
}

// OK reports whether the call produced a translation.
func (o Outcome) OK() bool {
	return o.Reason == ""
}

// Success returns a successful outcome.
func Success(text string) Outcome {
	return Outcome{Text: text}
}

// Failure returns an outcome carrying no translation.
func Failure(reason Reason) Outcome {
	return Outcome{Reason: reason}
}

// accept applies the checks shared by all services: a translation must be
// non-empty and must not simply echo the input (compared case-insensitively).
func accept(input, translated string) Outcome {
	if strings.TrimSpace(translated) == "" {
		return Failure(ReasonEmpty)
	}
	if strings.EqualFold(translated, input) {
		return Failure(ReasonEcho)
	}
	return Success(translated)
}

// mapCode translates a catalog code into the spelling a service expects.
func mapCode(codes map[string]string, code string) string {
	if mapped, ok := codes[code]; ok {
		return mapped
	}
	return code
}
