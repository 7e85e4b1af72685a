package leads

import "errors"

var (
	// ErrLeadNotFound is returned when no lead matches the lookup.
	ErrLeadNotFound = errors.New("leads: lead not found")
	// ErrMissingTenantID is returned when a tenant scope is absent.
	ErrMissingTenantID = errors.New("leads: tenant id is required")
	// ErrMissingPhone is returned when a phone number is absent or has no digits.
	ErrMissingPhone = errors.New("leads: phone number is required")
)
