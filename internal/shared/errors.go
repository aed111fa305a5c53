package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Input validation errors
	ErrValidation      = fmt.Errorf("validation failed")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")

	// API and transport errors
	ErrTransport          = fmt.Errorf("request failed")
	ErrRemote             = fmt.Errorf("remote error")
	ErrMalformedResponse  = fmt.Errorf("unexpected response shape")
	ErrSessionNotFound    = fmt.Errorf("session not found")
	ErrTimeout            = fmt.Errorf("operation timed out")
	ErrServiceUnavailable = fmt.Errorf("service unavailable")

	// Engine errors
	ErrCheckInFlight = fmt.Errorf("a check is already in progress")
)
