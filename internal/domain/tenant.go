package domain

import (
	"database/sql"
)

// Tenant is the isolation boundary. Every other entity belongs to exactly
// one tenant, directly or through its parent chain.
type Tenant struct {
	TenantID   string `db:"tenant_id"`
	TenantName string `db:"tenant_name"`
	Domain     string `db:"domain"`

	// Status: "active" | "suspended"
	Status string `db:"status"`

	ContactEmail sql.NullString `db:"contact_email"`
}
