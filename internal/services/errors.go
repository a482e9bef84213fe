package services

import "errors"

var (
	// ErrValidation marks a request missing a required field. Nothing is
	// mutated when it is returned.
	ErrValidation = errors.New("validation error")

	// ErrNotFound marks a lookup miss (unknown channel instance or
	// conversation key).
	ErrNotFound = errors.New("not found")

	// ErrDelivery marks an outbound send the gateway rejected or that timed
	// out. Ledger and state are left untouched.
	ErrDelivery = errors.New("delivery failed")
)
