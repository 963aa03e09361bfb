package mlapi

import (
	"errors"
	"fmt"
)

// ErrMissingRedirect is returned by AuthURL when the backend answered
// without a usable auth_url.
var ErrMissingRedirect = errors.New("URL de autenticação não recebida")

// NetworkError wraps a request that never produced an HTTP response
// (connection refused, timeout, cancelled context).
type NetworkError struct {
	Endpoint string
	Err      error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// APIError is any non-2xx answer. Message carries the JSON "error" field
// when the body had one.
type APIError struct {
	Endpoint string
	Status   int
	Message  string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s: status %d", e.Endpoint, e.Status)
}

// IsUnauthorized reports whether err is an APIError with status 401.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == 401
}
