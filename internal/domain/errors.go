package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an engine rejection for callers and the HTTP edge.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthz
	KindNotFound
	KindInsufficientBalance
	KindFraudBlock
)

// Error is the caller-visible failure of a ledger operation. Every
// rejection carries a short title and a longer human-readable detail.
// Internal errors keep their cause for server-side logging only.
type Error struct {
	Kind   Kind
	Title  string
	Detail string
	Rule   string // tripped fraud rule, set when Kind == KindFraudBlock
	cause  error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return e.Title
	}
	return e.Title + ": " + e.Detail
}

func (e *Error) Unwrap() error {
	return e.cause
}

func ValidationError(title, detail string) *Error {
	return &Error{Kind: KindValidation, Title: title, Detail: detail}
}

func AuthzError(title, detail string) *Error {
	return &Error{Kind: KindAuthz, Title: title, Detail: detail}
}

func NotFoundError(title, detail string) *Error {
	return &Error{Kind: KindNotFound, Title: title, Detail: detail}
}

func InsufficientBalanceError(detail string) *Error {
	return &Error{Kind: KindInsufficientBalance, Title: "Insufficient balance", Detail: detail}
}

func FraudBlockError(rule, title string) *Error {
	return &Error{Kind: KindFraudBlock, Rule: rule, Title: title, Detail: "Please contact support."}
}

// InternalError wraps an unexpected failure behind an opaque message.
// The cause is retained for logging, never shown to the caller.
func InternalError(cause error) *Error {
	return &Error{
		Kind:   KindInternal,
		Title:  "An unexpected error occurred",
		Detail: "Please try again later.",
		cause:  cause,
	}
}

// KindOf extracts the classification of err, defaulting to KindInternal.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

// AsError converts any error into a *Error, wrapping unknown ones as internal.
func AsError(err error) *Error {
	var de *Error
	if errors.As(err, &de) {
		return de
	}
	return InternalError(fmt.Errorf("unclassified: %w", err))
}
