package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// Authorization errors. ErrCredentialInvalid aborts a migration run.
	ErrAuthFailed        = fmt.Errorf("authentication failed")
	ErrCredentialInvalid = fmt.Errorf("credential invalid or expired")
	ErrTimeout           = fmt.Errorf("operation timed out")

	// Upstream errors, isolated to one playlist or track
	ErrAPIRequest    = fmt.Errorf("API request failed")
	ErrTrackNotFound = fmt.Errorf("track not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)
