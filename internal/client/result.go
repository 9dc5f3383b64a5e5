package client

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotImplemented is returned by operations that have no server-side
// counterpart yet.
var ErrNotImplemented = errors.New("not implemented")

// TransportStatus is the status reported when a request never produced a
// usable response.
const TransportStatus = 500

// ErrorKind separates server answers from requests that never completed.
type ErrorKind int

const (
	// KindHTTPStatus means the server answered with a status the operation
	// does not accept.
	KindHTTPStatus ErrorKind = iota + 1
	// KindTransport means the request failed before a usable response was
	// read: dial, DNS, timeout, cancellation, encoding or decoding.
	KindTransport
)

func (k ErrorKind) String() string {
	switch k {
	case KindHTTPStatus:
		return "http_status"
	case KindTransport:
		return "transport"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

// Error is the failure half of a Result.
type Error struct {
	Kind   ErrorKind
	Op     string
	Status int

	// Body is the raw response body for KindHTTPStatus.
	Body []byte

	// Method and URL describe the outbound request for KindTransport.
	Method string
	URL    string
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("%s: server returned %d: %s", e.Op, e.Status, truncate(e.Body, 256))
	}
	if e.Method != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Op, e.Method, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Reason returns the diagnostic payload: the decoded response body for
// server errors (a JSON value when the body is JSON, the raw text otherwise),
// or the underlying error for transport failures.
func (e *Error) Reason() any {
	if e.Kind != KindHTTPStatus {
		return e.Err
	}
	if json.Valid(e.Body) {
		var v any
		if err := json.Unmarshal(e.Body, &v); err == nil {
			return v
		}
	}
	return string(e.Body)
}

// Result is the outcome of one client operation. Exactly one of Value and Err
// is meaningful: on failure Value holds the operation's sentinel.
type Result[T any] struct {
	Status int
	Value  T
	Err    *Error
}

func (r Result[T]) OK() bool { return r.Err == nil }

// Unwrap converts the result to the conventional (value, error) pair.
func (r Result[T]) Unwrap() (T, error) {
	if r.Err != nil {
		return r.Value, r.Err
	}
	return r.Value, nil
}

func failed[T any](sentinel T, err *Error) Result[T] {
	return Result[T]{Status: err.Status, Value: sentinel, Err: err}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
