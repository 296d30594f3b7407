// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"context"
	"errors"
)

// Sentinel errors for the conversion error taxonomy. Callers wrap them with
// fmt.Errorf("...: %w", ErrX) and classify with errors.Is or KindOf.
var (
	// ErrNotFound means the input path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAuth means the service rejected the credential. It is fatal for
	// the whole run since no further call can succeed.
	ErrAuth = errors.New("authentication failed")

	// ErrTransient is a network or service hiccup; eligible for retry.
	ErrTransient = errors.New("transient service error")

	// ErrPayloadTooLarge means the input exceeds the service's size limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// ErrConversion means the service returned an empty or malformed answer,
	// or rejected the request for a non-retryable reason.
	ErrConversion = errors.New("conversion failed")

	// ErrRead means the input file could not be read.
	ErrRead = errors.New("read failed")

	// ErrWrite means the output file could not be written.
	ErrWrite = errors.New("write failed")
)

// ErrorKind is the short, stable name of an error class used in reports.
type ErrorKind string

const (
	KindNone            ErrorKind = ""
	KindNotFound        ErrorKind = "not_found"
	KindAuth            ErrorKind = "auth"
	KindTransient       ErrorKind = "transient"
	KindPayloadTooLarge ErrorKind = "payload_too_large"
	KindConversion      ErrorKind = "conversion"
	KindRead            ErrorKind = "read"
	KindWrite           ErrorKind = "write"
	KindCanceled        ErrorKind = "canceled"
	KindUnknown         ErrorKind = "unknown"
)

var kindTable = []struct {
	err  error
	kind ErrorKind
}{
	{ErrAuth, KindAuth},
	{ErrPayloadTooLarge, KindPayloadTooLarge},
	{ErrTransient, KindTransient},
	{ErrConversion, KindConversion},
	{ErrNotFound, KindNotFound},
	{ErrRead, KindRead},
	{ErrWrite, KindWrite},
}

// KindOf returns the ErrorKind of err. A nil error has KindNone; an error
// outside the taxonomy is KindUnknown, or KindCanceled when it wraps a
// context cancellation.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kindTable {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return KindCanceled
	}
	return KindUnknown
}
