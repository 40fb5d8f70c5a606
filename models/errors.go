package models

import "errors"

var (
	ErrNotFound        = errors.New("not-found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrUnauthorized    = errors.New("unauthorized")
)

// ValidationError is a rejected form field. Message is the kebab-case code
// returned to the client.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
