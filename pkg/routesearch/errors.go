package routesearch

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrSearchTimeout  = errors.New("search timed out")
	// ErrSearchCanceled means the caller gave up, usually a client disconnect
	ErrSearchCanceled = errors.New("search canceled")
)

// InvalidRequestError is returned before any searching happens. Reason is safe to show to clients.
type InvalidRequestError struct {
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInvalidRequest, e.Reason)
}

func (e *InvalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func invalidRequest(format string, args ...any) error {
	return &InvalidRequestError{Reason: fmt.Sprintf(format, args...)}
}
