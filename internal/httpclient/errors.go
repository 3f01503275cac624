package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
)

// ErrorKind classifies why a fetch did not produce a body.
type ErrorKind int

const (
	ErrorKindOther ErrorKind = iota
	ErrorKindTimeout
	ErrorKindConnectionRefused
	ErrorKindHTTPStatus
)

func (k ErrorKind) String() string {
	switch k {
	case ErrorKindTimeout:
		return "timeout"
	case ErrorKindConnectionRefused:
		return "connection_refused"
	case ErrorKindHTTPStatus:
		return "http_status"
	default:
		return "other"
	}
}

// FetchError is returned by Fetch for every failed request.
type FetchError struct {
	Kind       ErrorKind
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Kind == ErrorKindHTTPStatus {
		return fmt.Sprintf("fetch %s: HTTP %d", e.URL, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetch %s: %s", e.URL, e.Kind)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// newFetchError classifies err. A non-zero status means the server answered
// and the response itself was rejected.
func newFetchError(rawURL string, statusCode int, err error) *FetchError {
	fe := &FetchError{URL: rawURL, StatusCode: statusCode, Err: err}

	var netErr net.Error
	switch {
	case statusCode > 0:
		fe.Kind = ErrorKindHTTPStatus
	case errors.Is(err, context.DeadlineExceeded):
		fe.Kind = ErrorKindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		fe.Kind = ErrorKindTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		fe.Kind = ErrorKindConnectionRefused
	default:
		fe.Kind = ErrorKindOther
	}
	return fe
}

// IsFetchErrorKind reports whether err is a FetchError of the given kind.
func IsFetchErrorKind(err error, kind ErrorKind) bool {
	var fe *FetchError
	return errors.As(err, &fe) && fe.Kind == kind
}
