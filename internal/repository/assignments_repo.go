package repository

import (
	"context"

	"ldapadmin-authz/internal/domain"
)

// AssignmentsRepository is the assignment store behind the four permission
// dimensions. Lookups return nil (not an error) when no row exists for the
// requested pair: absence is the implicit-deny default, not a failure.
// Mutations are atomic per call; replace-style operations never expose a
// partially applied state to concurrent readers.
type AssignmentsRepository interface {
	// Dimension 1: directory roles
	GetDirectoryRole(ctx context.Context, adminID, directoryID string) (*domain.DirectoryRole, error)
	AssignDirectoryRole(ctx context.Context, adminID, directoryID string, role domain.BaseRole) error
	RemoveDirectoryRole(ctx context.Context, adminID, directoryID string) error
	ListDirectoryRoles(ctx context.Context, adminID string) ([]*domain.DirectoryRole, error)

	// Dimension 2: realm roles
	GetRealmRole(ctx context.Context, adminID, realmID string) (*domain.RealmRole, error)
	AssignRealmRole(ctx context.Context, adminID, realmID string, role domain.BaseRole) error
	RemoveRealmRole(ctx context.Context, adminID, realmID string) error
	ListRealmRoles(ctx context.Context, adminID string) ([]*domain.RealmRole, error)

	// Dimension 3: branch restrictions. Branch DNs are stored in canonical
	// form; ListBranchRestrictions returns them sorted. Replacing with an
	// empty slice clears every restriction for the pair (unrestricted).
	ListBranchRestrictions(ctx context.Context, adminID, realmID string) ([]string, error)
	ReplaceBranchRestrictions(ctx context.Context, adminID, realmID string, branchDNs []string) error
	ListBranchRestrictionsByAdmin(ctx context.Context, adminID string) ([]*domain.BranchRestriction, error)

	// Dimension 4: feature overrides (admin-global)
	GetFeatureOverride(ctx context.Context, adminID string, key domain.FeatureKey) (*domain.FeatureOverride, error)
	SetFeatureOverrides(ctx context.Context, adminID string, settings []OverrideSetting) error
	ClearFeatureOverride(ctx context.Context, adminID string, key domain.FeatureKey) error
	ListFeatureOverrides(ctx context.Context, adminID string) ([]*domain.FeatureOverride, error)

	// Cascading cleanup when an owning entity is deleted
	DeleteAdminAssignments(ctx context.Context, adminID string) error
	DeleteDirectoryAssignments(ctx context.Context, directoryID string) error
	DeleteRealmAssignments(ctx context.Context, realmID string) error
}

// OverrideSetting is one entry of a batch feature-override upsert.
type OverrideSetting struct {
	Key     domain.FeatureKey
	Enabled bool
}
