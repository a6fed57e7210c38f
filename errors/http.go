package errors

import (
	"errors"
	"net/http"
)

// MapToHTTPStatus translates a domain error into the status code returned
// before a connection is upgraded. Anything unknown is a 500 so that a new
// sentinel forgotten here is loud rather than silently a client fault.
func MapToHTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrRoomNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBrokerUnavailable), errors.Is(err, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
