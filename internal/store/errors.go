package store

import (
	"errors"
	"net/http"
)

// Domain errors for record operations.
var (
	ErrRecordNotFound = errors.New("record not found")
	ErrNoRecords      = errors.New("no records")
	ErrInvalidFilter  = errors.New("invalid filter")
)

// MapHTTPStatus maps record domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrRecordNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrNoRecords) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrInvalidFilter) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
