package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ldapadmin-authz/internal/dn"
	"ldapadmin-authz/internal/domain"
	"ldapadmin-authz/internal/repository"
)

// Evaluator is the pure decision function over the four permission
// dimensions. A deny is a normal Decision value; a non-nil error means the
// evaluation itself could not be carried out (registry or store failure)
// and the caller must fail closed.
//
// Check order is fixed so the deny reason is deterministic for audit logs:
// active flag, tenant containment, realm containment, role resolution,
// branch restriction, feature capability.
type Evaluator struct {
	scopes repository.ScopeRegistry
	store  repository.AssignmentsRepository
	logger *zap.Logger
}

func NewEvaluator(scopes repository.ScopeRegistry, store repository.AssignmentsRepository, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		scopes: scopes,
		store:  store,
		logger: logger,
	}
}

func (e *Evaluator) Evaluate(ctx context.Context, req domain.AccessRequest) (domain.Decision, error) {
	if req.AdminID == "" || req.DirectoryID == "" {
		return domain.Decision{}, fmt.Errorf("%w: admin_id and directory_id are required", domain.ErrValidation)
	}
	if req.Feature != "" && !req.Feature.Valid() {
		return domain.Decision{}, fmt.Errorf("%w: unknown feature key %q", domain.ErrValidation, req.Feature)
	}

	admin, err := e.scopes.ResolveAdmin(ctx, req.AdminID)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("resolve admin: %w", err)
	}
	if !admin.Active {
		return domain.Deny(domain.ReasonAdminInactive), nil
	}

	directory, err := e.scopes.ResolveDirectory(ctx, req.DirectoryID)
	if err != nil {
		return domain.Decision{}, fmt.Errorf("resolve directory: %w", err)
	}
	if admin.TenantID != directory.TenantID {
		return domain.Deny(domain.ReasonTenantMismatch), nil
	}

	var realm *domain.Realm
	if req.RealmID != "" {
		realm, err = e.scopes.ResolveRealm(ctx, req.RealmID)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("resolve realm: %w", err)
		}
		if realm.DirectoryID != directory.DirectoryID {
			return domain.Deny(domain.ReasonScopeMismatch), nil
		}
	}

	// Role resolution: the realm row wins whenever a realm is in play;
	// the directory row covers realm-less requests only. No row at the
	// relevant scope is an implicit deny.
	var role domain.BaseRole
	if realm != nil {
		row, err := e.store.GetRealmRole(ctx, req.AdminID, req.RealmID)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("get realm role: %w", err)
		}
		if row == nil {
			return domain.Deny(domain.ReasonNoRole), nil
		}
		role = row.Role
	} else {
		row, err := e.store.GetDirectoryRole(ctx, req.AdminID, req.DirectoryID)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("get directory role: %w", err)
		}
		if row == nil {
			return domain.Deny(domain.ReasonNoRole), nil
		}
		role = row.Role
	}

	if req.TargetDN != "" && realm != nil {
		branches, err := e.store.ListBranchRestrictions(ctx, req.AdminID, req.RealmID)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("list branch restrictions: %w", err)
		}
		if len(branches) > 0 && matchBranch(req.TargetDN, branches) == "" {
			return domain.Deny(domain.ReasonBranchRestricted), nil
		}
	}

	if req.Feature != "" {
		enabled := domain.RoleGrantsFeature(role, req.Feature)
		override, err := e.store.GetFeatureOverride(ctx, req.AdminID, req.Feature)
		if err != nil {
			return domain.Decision{}, fmt.Errorf("get feature override: %w", err)
		}
		if override != nil {
			// The override replaces the role default entirely,
			// both to grant and to revoke.
			enabled = override.Enabled
		}
		if !enabled {
			d := domain.Deny(domain.ReasonFeatureDisabled)
			d.Role = role
			return d, nil
		}
	}

	return domain.Allow(role), nil
}

// matchBranch returns the first branch containing target, or "" when the
// target lies outside every branch (including when it fails to parse).
func matchBranch(target string, branches []string) string {
	for _, b := range branches {
		if dn.IsWithinSubtree(target, b) {
			return b
		}
	}
	return ""
}
