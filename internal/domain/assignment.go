package domain

// DirectoryRole is dimension 1: one row per (admin, directory).
// Absence of a row means implicit deny; there is no default role.
type DirectoryRole struct {
	AssignmentID string   `db:"assignment_id"`
	AdminID      string   `db:"admin_id"`
	DirectoryID  string   `db:"directory_id"`
	Role         BaseRole `db:"role_code"`
}

// RealmRole is dimension 2: one row per (admin, realm). Independent of
// DirectoryRole so a realm can carry a role distinct from its directory's
// default. When a realm is in play, the realm row wins; the directory row
// is consulted only for realm-less requests.
type RealmRole struct {
	AssignmentID string   `db:"assignment_id"`
	AdminID      string   `db:"admin_id"`
	RealmID      string   `db:"realm_id"`
	Role         BaseRole `db:"role_code"`
}

// BranchRestriction is dimension 3: zero or more rows per (admin, realm).
// An empty set means unrestricted access to the whole realm; a non-empty
// set confines the admin to the union of the listed DN subtrees.
// BranchDN is stored in canonical (normalized) form.
type BranchRestriction struct {
	RestrictionID string `db:"restriction_id"`
	AdminID       string `db:"admin_id"`
	RealmID       string `db:"realm_id"`
	BranchDN      string `db:"branch_dn"`
}

// FeatureOverride is dimension 4: one row per (admin, feature key),
// global across everything the admin can otherwise reach. Enabled
// replaces the role-derived default entirely, both to grant and to revoke.
type FeatureOverride struct {
	OverrideID string     `db:"override_id"`
	AdminID    string     `db:"admin_id"`
	FeatureKey FeatureKey `db:"feature_key"`
	Enabled    bool       `db:"enabled"`
}
