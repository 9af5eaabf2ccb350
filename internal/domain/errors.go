package domain

import (
	"errors"
)

// Error kinds surfaced by management operations. The HTTP layer maps them
// to status codes (404/400/403/503); evaluation never returns them to the
// caller since the gate converts infrastructure failures to a fail-closed deny.
var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation failed")
	ErrTenantMismatch   = errors.New("tenant mismatch")
	ErrStoreUnavailable = errors.New("store unavailable")
)
