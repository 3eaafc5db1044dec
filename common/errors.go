package common

import (
	"errors"
	"fmt"
)

// NetworkError is returned when a request to the play.cz API could not be
// completed: the connection failed or the server answered with a non-2xx status.
type NetworkError struct {
	URL     string
	Message string
	Err     error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s", e.Message)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when a response body is not the JSON shape we expect.
type DecodeError struct {
	URL string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error for %s: %v", e.URL, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsRequestFailure reports whether err is a NetworkError or a DecodeError.
// Both are shown to the user the same way.
func IsRequestFailure(err error) bool {
	var netErr *NetworkError
	var decErr *DecodeError
	return errors.As(err, &netErr) || errors.As(err, &decErr)
}
