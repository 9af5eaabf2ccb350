package domain

import (
	"database/sql"
)

// Directory is one LDAP connection scoped to a tenant.
// TenantID is immutable after creation.
type Directory struct {
	DirectoryID string `db:"directory_id"`
	TenantID    string `db:"tenant_id"`

	DirectoryName string `db:"directory_name"`
	Host          string `db:"host"`
	Port          int    `db:"port"`
	BaseDN        string `db:"base_dn"`

	// Vendor: "openldap" | "active-directory" | "generic"
	Vendor string `db:"vendor"`

	UseTLS   bool           `db:"use_tls"`
	BindUser sql.NullString `db:"bind_user"`
}
