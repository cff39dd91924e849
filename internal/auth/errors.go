package auth

import (
	"errors"
	"fmt"
)

var (
	ErrConfiguration       = errors.New("auth: missing required configuration")
	ErrStateMismatch       = errors.New("auth: state mismatch")
	ErrMissingCode         = errors.New("auth: redirect carries no authorization code")
	ErrAuthorizationDenied = errors.New("auth: authorization denied by provider")
	ErrNetwork             = errors.New("auth: token endpoint unreachable")
	ErrProvider            = errors.New("auth: token endpoint rejected the request")
)

// ProviderError is a non-success or unusable token endpoint response. It matches ErrProvider.
type ProviderError struct {
	Status      int    // HTTP status; 0 when the body was the problem
	Code        string // OAuth "error" field, if any
	Description string
}

func (e *ProviderError) Error() string {
	switch {
	case e.Code != "" && e.Description != "":
		return fmt.Sprintf("auth: token endpoint: %d %s: %s", e.Status, e.Code, e.Description)
	case e.Code != "":
		return fmt.Sprintf("auth: token endpoint: %d %s", e.Status, e.Code)
	default:
		return fmt.Sprintf("auth: token endpoint: %d %s", e.Status, e.Description)
	}
}

func (e *ProviderError) Is(target error) bool {
	return target == ErrProvider
}

// DeniedError carries the provider's error parameters from the redirect. It matches ErrAuthorizationDenied.
type DeniedError struct {
	Code        string
	Description string
}

func (e *DeniedError) Error() string {
	if e.Description == "" {
		return "auth: authorization denied: " + e.Code
	}
	return "auth: authorization denied: " + e.Code + ": " + e.Description
}

func (e *DeniedError) Is(target error) bool {
	return target == ErrAuthorizationDenied
}

func missingConfig(field string) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, field)
}
