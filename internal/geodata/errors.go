package geodata

import (
	"errors"
	"fmt"
)

// ErrorKind classifies why a fetch failed.
type ErrorKind string

const (
	// KindUnreachable covers transport failures and open circuit breakers.
	KindUnreachable ErrorKind = "unreachable"
	// KindUpstreamRejected covers non-success statuses and malformed bodies.
	KindUpstreamRejected ErrorKind = "upstream_rejected"
	// KindTimeout is returned when the bounded request deadline expires.
	KindTimeout ErrorKind = "timeout"
)

// FetchError is the only error type a Fetcher returns.
type FetchError struct {
	Kind     ErrorKind
	Category Category
	Source   string
	Status   int // HTTP status when the upstream answered, else 0
	Err      error
}

func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s %s: %s", e.Source, e.Category, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error { return e.Err }

// KindOf returns the kind of a *FetchError in err's chain, or "" if there is none.
func KindOf(err error) ErrorKind {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Rejected builds an UpstreamRejected error.
func Rejected(cat Category, source string, status int, err error) *FetchError {
	return &FetchError{Kind: KindUpstreamRejected, Category: cat, Source: source, Status: status, Err: err}
}
