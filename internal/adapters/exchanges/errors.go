package exchanges

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest indicates validation failures before hitting the exchange API.
	ErrInvalidRequest = errors.New("invalid exchange request")

	// ErrRateLimited indicates HTTP 429/418 or throttling.
	ErrRateLimited = errors.New("exchange rate limited the request")
)

// APIError is a non-2xx response from the venue, preserving the HTTP
// status so the retry middleware can classify it.
type APIError struct {
	Status  int
	Code    int
	Message string
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("exchange error %d (http %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("exchange http %d: %s", e.Status, e.Message)
}

// StatusCode returns the HTTP status of the failed request
func (e *APIError) StatusCode() int {
	return e.Status
}
