package sonar

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed web-service call. The set is closed: every
// non-2xx response maps to exactly one of the four kinds.
type ErrorKind int

const (
	// KindValidation is HTTP 400: malformed or semantically invalid request
	// parameters (unknown rule key, duplicate rule, bad enum value).
	KindValidation ErrorKind = iota
	// KindAuth is HTTP 401/403: missing or invalid credentials, or
	// insufficient permission. Further calls from the same handler will
	// almost certainly fail the same way.
	KindAuth
	// KindClient is any other 4xx.
	KindClient
	// KindServer is any 5xx. Transient and permanent server faults are not
	// distinguished; no retry happens at this layer.
	KindServer
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation error"
	case KindAuth:
		return "auth error"
	case KindClient:
		return "client error"
	case KindServer:
		return "server error"
	}
	return "unknown error"
}

// APIError is the error returned for every non-2xx response from the
// SonarQube web service.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Message)
}

// IsValidation reports whether err is (or wraps) a validation error.
// Drivers branch on it to keep a batch going after a bad item.
func IsValidation(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindValidation
}

// IsAuth reports whether err is (or wraps) an authentication or
// authorization error.
func IsAuth(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuth
}
