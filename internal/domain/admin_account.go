package domain

import (
	"database/sql"
)

// AdminAccount is a tenant-scoped administrator identity.
// TenantID is immutable. Active gates every evaluation: an inactive admin
// is denied everything before any other dimension is consulted.
type AdminAccount struct {
	AdminID  string `db:"admin_id"`
	TenantID string `db:"tenant_id"`

	Account     string         `db:"account"`
	DisplayName string         `db:"display_name"`
	Email       sql.NullString `db:"email"`

	Active bool `db:"active"`
}
