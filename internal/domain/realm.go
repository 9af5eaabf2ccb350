package domain

import (
	"database/sql"
)

// Realm is a logical subdivision of a Directory: one object-class family
// with its own user/group base DNs. DirectoryID is immutable.
type Realm struct {
	RealmID     string `db:"realm_id"`
	DirectoryID string `db:"directory_id"`

	RealmName   string `db:"realm_name"`
	UserBaseDN  string `db:"user_base_dn"`
	GroupBaseDN string `db:"group_base_dn"`

	// Object-class conventions for entries under this realm
	UserObjectClass  sql.NullString `db:"user_object_class"`
	GroupObjectClass sql.NullString `db:"group_object_class"`
}
