package domain

import (
	"fmt"
)

// BaseRole is the ordered capability tier assigned per admin per directory
// or per realm. The ordering (viewer < operator < manager) only matters for
// the static feature-default table; evaluation never compares tiers across
// scopes.
type BaseRole int

const (
	RoleViewer BaseRole = iota + 1
	RoleOperator
	RoleManager
)

// Persistence form matches the role_code column values.
var roleNames = map[BaseRole]string{
	RoleViewer:   "viewer",
	RoleOperator: "operator",
	RoleManager:  "manager",
}

var roleCodes = map[string]BaseRole{
	"viewer":   RoleViewer,
	"operator": RoleOperator,
	"manager":  RoleManager,
}

func (r BaseRole) String() string {
	if s, ok := roleNames[r]; ok {
		return s
	}
	return fmt.Sprintf("BaseRole(%d)", int(r))
}

func (r BaseRole) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseBaseRole maps a role_code back to its BaseRole.
// Unknown codes are a validation failure, not a default tier.
func ParseBaseRole(code string) (BaseRole, error) {
	if r, ok := roleCodes[code]; ok {
		return r, nil
	}
	return 0, fmt.Errorf("%w: unknown role code %q", ErrValidation, code)
}
