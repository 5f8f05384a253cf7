package vocab

import (
	"errors"
	"net/http"
)

// Domain errors for vocabulary operations.
var (
	ErrNotFound      = errors.New("vocabulary entry not found")
	ErrDuplicate     = errors.New("vocabulary entry already exists")
	ErrEmpty         = errors.New("vocabulary entry is empty")
	ErrInvalidImport = errors.New("vocabulary import must be a JSON array of objects")
)

// MapHTTPStatus maps vocabulary domain errors to appropriate HTTP status codes.
func MapHTTPStatus(err error) int {
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrDuplicate) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrEmpty) || errors.Is(err, ErrInvalidImport) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
