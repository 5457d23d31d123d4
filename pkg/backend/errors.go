package backend

import (
	"errors"
	"fmt"
)

// Failure classes for backend calls. Handlers map these to user-facing
// responses; nothing below this package inspects raw status codes.
var (
	ErrUnreachable  = errors.New("backend unreachable")
	ErrUnauthorized = errors.New("authentication required")
	ErrForbidden    = errors.New("access denied")
	ErrServer       = errors.New("backend error")
)

// APIError carries a 4xx message payload to show verbatim.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend returned %d: %s", e.Status, e.Message)
}
