package spotify

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnauthorized = errors.New("spotify: access token missing, invalid or expired")
	ErrNotFound     = errors.New("spotify: resource not found")
)

// APIError is a non-success Web API response. 401 matches ErrUnauthorized and 404 ErrNotFound.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("spotify: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("spotify: %d %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}
