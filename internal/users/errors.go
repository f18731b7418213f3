package users

import (
	"errors"
	"fmt"
)

// StatusError is returned when the API answers with a non-2xx status.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("Error: %d", e.StatusCode)
}

// ErrDecode wraps response bodies that are not a valid users page.
var ErrDecode = errors.New("invalid users response")

func IsStatusError(err error) (*StatusError, bool) {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr, true
	}
	return nil, false
}

func IsDecodeError(err error) bool {
	return errors.Is(err, ErrDecode)
}
