package domain

import "errors"

var (
	// ErrJobNotFound is returned when no stored row carries the requested job_id
	ErrJobNotFound = errors.New("job not found")

	// ErrStoreUnavailable wraps any failure talking to the backing spreadsheet
	ErrStoreUnavailable = errors.New("job store unavailable")

	// ErrInvalidCredentials is returned when the login password does not match
	ErrInvalidCredentials = errors.New("invalid credentials")
)
