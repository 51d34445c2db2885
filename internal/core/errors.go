package core

import (
	"context"
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is against ProviderError and StreamError.
var (
	ErrTimeout     = errors.New("provider timeout")
	ErrNotFound    = errors.New("not found")
	ErrMalformed   = errors.New("malformed provider response")
	ErrRateLimited = errors.New("provider rate limited")

	ErrStreamUnavailable     = errors.New("stream unavailable")
	ErrTransportFailure      = errors.New("stream transport failure")
	ErrAllProvidersExhausted = errors.New("all providers exhausted")

	// ErrUnsupportedAttachment rejects uploads whose content type is not accepted.
	ErrUnsupportedAttachment = errors.New("unsupported attachment type")
)

type ProviderErrorKind string

const (
	ProviderTimeout     ProviderErrorKind = "timeout"
	ProviderNotFound    ProviderErrorKind = "notFound"
	ProviderMalformed   ProviderErrorKind = "malformed"
	ProviderRateLimited ProviderErrorKind = "rateLimited"
)

// ProviderError is returned by provider resolution calls.
type ProviderError struct {
	Kind     ProviderErrorKind
	Provider string
	Query    string
	Err      error
}

func (e *ProviderError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.Query != "" {
		msg += fmt.Sprintf(" (query %q)", e.Query)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel for the error kind.
func (e *ProviderError) Is(target error) bool {
	switch e.Kind {
	case ProviderTimeout:
		return target == ErrTimeout
	case ProviderNotFound:
		return target == ErrNotFound
	case ProviderMalformed:
		return target == ErrMalformed
	case ProviderRateLimited:
		return target == ErrRateLimited
	}
	return false
}

// NewProviderError builds a ProviderError. A context deadline in err always
// produces the timeout kind.
func NewProviderError(kind ProviderErrorKind, provider, query string, err error) *ProviderError {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = ProviderTimeout
	}
	return &ProviderError{Kind: kind, Provider: provider, Query: query, Err: err}
}

// ProviderErrorKindOf returns the kind of the first ProviderError in err's chain.
func ProviderErrorKindOf(err error) (ProviderErrorKind, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

type StreamErrorKind string

const (
	StreamUnavailable           StreamErrorKind = "unavailable"
	StreamTransportFailure      StreamErrorKind = "transportFailure"
	StreamAllProvidersExhausted StreamErrorKind = "allProvidersExhausted"
)

// StreamError is returned when audio bytes cannot be obtained.
type StreamError struct {
	Kind     StreamErrorKind
	Provider string
	URL      string
	Err      error
}

func (e *StreamError) Error() string {
	var msg string
	if e.Kind == StreamAllProvidersExhausted {
		msg = "streaming failed"
	} else {
		msg = fmt.Sprintf("%s: stream %s", e.Provider, e.Kind)
	}
	if e.URL != "" {
		msg += fmt.Sprintf(" (%s)", e.URL)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *StreamError) Unwrap() error {
	return e.Err
}

func (e *StreamError) Is(target error) bool {
	switch e.Kind {
	case StreamUnavailable:
		return target == ErrStreamUnavailable
	case StreamTransportFailure:
		return target == ErrTransportFailure
	case StreamAllProvidersExhausted:
		return target == ErrAllProvidersExhausted
	}
	return false
}

// NewStreamError builds a StreamError.
func NewStreamError(kind StreamErrorKind, provider, url string, err error) *StreamError {
	return &StreamError{Kind: kind, Provider: provider, URL: url, Err: err}
}

// StreamErrorKindOf returns the kind of the outermost StreamError in err's chain.
func StreamErrorKindOf(err error) (StreamErrorKind, bool) {
	var se *StreamError
	if errors.As(err, &se) {
		return se.Kind, true
	}
	return "", false
}

// PlaybackFailureKey maps a playback error to the message key shown to users.
func PlaybackFailureKey(err error) string {
	var se *StreamError
	if !errors.As(err, &se) {
		return "error.playback.generic"
	}
	if se.Kind == StreamAllProvidersExhausted {
		// the wrapped primary failure decides the wording
		if inner, ok := StreamErrorKindOf(se.Err); ok && inner == StreamTransportFailure {
			return "error.playback.interrupted"
		}
		return "error.playback.unavailable"
	}
	if se.Kind == StreamTransportFailure {
		return "error.playback.interrupted"
	}
	return "error.playback.unavailable"
}
