package repository

import (
	"context"

	"ldapadmin-authz/internal/domain"
)

// ScopeRegistry resolves the identity and containment records an
// evaluation needs: admin accounts, directory connections and realms.
// Resolution is read-only; a missing record is domain.ErrNotFound.
type ScopeRegistry interface {
	ResolveTenant(ctx context.Context, tenantID string) (*domain.Tenant, error)
	ResolveAdmin(ctx context.Context, adminID string) (*domain.AdminAccount, error)
	ResolveDirectory(ctx context.Context, directoryID string) (*domain.Directory, error)
	ResolveRealm(ctx context.Context, realmID string) (*domain.Realm, error)
}
