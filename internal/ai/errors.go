package ai

import (
	"errors"
	"net/http"
)

var (
	ErrEmptyResponse = errors.New("ai service returned no content")
	ErrNotConfigured = errors.New("no ai provider configured")
)

// MapHTTPStatus maps summary generation failures to HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotConfigured) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}
