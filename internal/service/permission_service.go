package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"ldapadmin-authz/internal/dn"
	"ldapadmin-authz/internal/domain"
	"ldapadmin-authz/internal/repository"
)

// DecisionInvalidator drops cached decisions for one admin. The Gate
// implements it; tests substitute a recorder.
type DecisionInvalidator interface {
	InvalidateAdmin(ctx context.Context, adminID string) error
}

// PermissionService carries the management operations over the four
// permission dimensions: validate inputs, enforce tenant containment,
// delegate to the assignment store, then invalidate the admin's cached
// decisions. Every mutation is an upsert-or-replace, never a partial merge.
type PermissionService struct {
	scopes      repository.ScopeRegistry
	store       repository.AssignmentsRepository
	invalidator DecisionInvalidator
	logger      *zap.Logger
}

func NewPermissionService(scopes repository.ScopeRegistry, store repository.AssignmentsRepository, invalidator DecisionInvalidator, logger *zap.Logger) *PermissionService {
	return &PermissionService{
		scopes:      scopes,
		store:       store,
		invalidator: invalidator,
		logger:      logger,
	}
}

// adminInTenant resolves the admin and verifies it belongs to tenantID.
func (s *PermissionService) adminInTenant(ctx context.Context, adminID, tenantID string) (*domain.AdminAccount, error) {
	admin, err := s.scopes.ResolveAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if admin.TenantID != tenantID {
		return nil, fmt.Errorf("%w: admin %s is not in tenant %s", domain.ErrTenantMismatch, adminID, tenantID)
	}
	return admin, nil
}

func (s *PermissionService) invalidate(ctx context.Context, adminID string) error {
	if err := s.invalidator.InvalidateAdmin(ctx, adminID); err != nil {
		s.logger.Error("cache invalidation failed after mutation", zap.String("admin_id", adminID), zap.Error(err))
		return fmt.Errorf("%w: invalidate cached decisions: %v", domain.ErrStoreUnavailable, err)
	}
	return nil
}

// AssignDirectoryRole upserts the admin's role on a directory connection.
func (s *PermissionService) AssignDirectoryRole(ctx context.Context, adminID, directoryID, roleCode string) error {
	role, err := domain.ParseBaseRole(roleCode)
	if err != nil {
		return err
	}
	directory, err := s.scopes.ResolveDirectory(ctx, directoryID)
	if err != nil {
		return err
	}
	if _, err := s.adminInTenant(ctx, adminID, directory.TenantID); err != nil {
		return err
	}
	if err := s.store.AssignDirectoryRole(ctx, adminID, directoryID, role); err != nil {
		return err
	}
	s.logger.Info("directory role assigned",
		zap.String("admin_id", adminID),
		zap.String("directory_id", directoryID),
		zap.String("role", role.String()),
	)
	return s.invalidate(ctx, adminID)
}

// RemoveDirectoryRole deletes the row if present; removing a role that was
// never assigned is a no-op, not an error.
func (s *PermissionService) RemoveDirectoryRole(ctx context.Context, adminID, directoryID string) error {
	if _, err := s.scopes.ResolveAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.store.RemoveDirectoryRole(ctx, adminID, directoryID); err != nil {
		return err
	}
	return s.invalidate(ctx, adminID)
}

// realmInAdminTenant resolves a realm up through its directory and checks
// the admin sits in the same tenant.
func (s *PermissionService) realmInAdminTenant(ctx context.Context, adminID, realmID string) (*domain.Realm, error) {
	realm, err := s.scopes.ResolveRealm(ctx, realmID)
	if err != nil {
		return nil, err
	}
	directory, err := s.scopes.ResolveDirectory(ctx, realm.DirectoryID)
	if err != nil {
		return nil, err
	}
	if _, err := s.adminInTenant(ctx, adminID, directory.TenantID); err != nil {
		return nil, err
	}
	return realm, nil
}

// AssignRealmRole upserts the admin's role on a realm. The realm row takes
// precedence over any directory role whenever a realm is in play.
func (s *PermissionService) AssignRealmRole(ctx context.Context, adminID, realmID, roleCode string) error {
	role, err := domain.ParseBaseRole(roleCode)
	if err != nil {
		return err
	}
	if _, err := s.realmInAdminTenant(ctx, adminID, realmID); err != nil {
		return err
	}
	if err := s.store.AssignRealmRole(ctx, adminID, realmID, role); err != nil {
		return err
	}
	s.logger.Info("realm role assigned",
		zap.String("admin_id", adminID),
		zap.String("realm_id", realmID),
		zap.String("role", role.String()),
	)
	return s.invalidate(ctx, adminID)
}

func (s *PermissionService) RemoveRealmRole(ctx context.Context, adminID, realmID string) error {
	if _, err := s.scopes.ResolveAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.store.RemoveRealmRole(ctx, adminID, realmID); err != nil {
		return err
	}
	return s.invalidate(ctx, adminID)
}

// ReplaceBranchRestrictions swaps the admin's DN subtree confinement for a
// realm. Every DN must canonicalize; branches are stored in normalized
// form. An empty list explicitly clears all restrictions, restoring
// unrestricted access to the realm.
func (s *PermissionService) ReplaceBranchRestrictions(ctx context.Context, adminID, realmID string, branchDNs []string) error {
	if _, err := s.realmInAdminTenant(ctx, adminID, realmID); err != nil {
		return err
	}

	normalized := make([]string, 0, len(branchDNs))
	seen := map[string]struct{}{}
	for _, raw := range branchDNs {
		canon, err := dn.Normalize(raw)
		if err != nil {
			return fmt.Errorf("%w: branch DN %q: %v", domain.ErrValidation, raw, err)
		}
		if _, dup := seen[canon]; dup {
			continue
		}
		seen[canon] = struct{}{}
		normalized = append(normalized, canon)
	}

	if err := s.store.ReplaceBranchRestrictions(ctx, adminID, realmID, normalized); err != nil {
		return err
	}
	s.logger.Info("branch restrictions replaced",
		zap.String("admin_id", adminID),
		zap.String("realm_id", realmID),
		zap.Int("branches", len(normalized)),
	)
	return s.invalidate(ctx, adminID)
}

// OverrideRequest is one entry of a feature-override batch, in wire form.
type OverrideRequest struct {
	FeatureKey string `json:"feature_key"`
	Enabled    bool   `json:"enabled"`
}

// SetFeatureOverrides batch-upserts per-feature overrides for the admin.
// Overrides are admin-global: they apply across every directory and realm
// the admin can otherwise reach.
func (s *PermissionService) SetFeatureOverrides(ctx context.Context, adminID string, overrides []OverrideRequest) error {
	if len(overrides) == 0 {
		return fmt.Errorf("%w: at least one override is required", domain.ErrValidation)
	}
	settings := make([]repository.OverrideSetting, 0, len(overrides))
	for _, o := range overrides {
		key, err := domain.ParseFeatureKey(o.FeatureKey)
		if err != nil {
			return err
		}
		settings = append(settings, repository.OverrideSetting{Key: key, Enabled: o.Enabled})
	}
	if _, err := s.scopes.ResolveAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.store.SetFeatureOverrides(ctx, adminID, settings); err != nil {
		return err
	}
	s.logger.Info("feature overrides set",
		zap.String("admin_id", adminID),
		zap.Int("count", len(settings)),
	)
	return s.invalidate(ctx, adminID)
}

// ClearFeatureOverride deletes one override, reverting that feature to the
// role-derived default.
func (s *PermissionService) ClearFeatureOverride(ctx context.Context, adminID, featureKey string) error {
	key, err := domain.ParseFeatureKey(featureKey)
	if err != nil {
		return err
	}
	if _, err := s.scopes.ResolveAdmin(ctx, adminID); err != nil {
		return err
	}
	if err := s.store.ClearFeatureOverride(ctx, adminID, key); err != nil {
		return err
	}
	return s.invalidate(ctx, adminID)
}

// PermissionsSummary is the display view of an admin's full assignment
// state across all four dimensions.
type PermissionsSummary struct {
	AdminID            string                  `json:"admin_id"`
	Active             bool                    `json:"active"`
	DirectoryRoles     []DirectoryRoleItem     `json:"directory_roles"`
	RealmRoles         []RealmRoleItem         `json:"realm_roles"`
	BranchRestrictions []BranchRestrictionItem `json:"branch_restrictions"`
	FeatureOverrides   []FeatureOverrideItem   `json:"feature_overrides"`
}

type DirectoryRoleItem struct {
	DirectoryID string `json:"directory_id"`
	Role        string `json:"role"`
}

type RealmRoleItem struct {
	RealmID string `json:"realm_id"`
	Role    string `json:"role"`
}

type BranchRestrictionItem struct {
	RealmID  string `json:"realm_id"`
	BranchDN string `json:"branch_dn"`
}

type FeatureOverrideItem struct {
	FeatureKey string `json:"feature_key"`
	Enabled    bool   `json:"enabled"`
}

// GetPermissionsSummary collects the admin's current assignment state for
// display.
func (s *PermissionService) GetPermissionsSummary(ctx context.Context, adminID string) (*PermissionsSummary, error) {
	admin, err := s.scopes.ResolveAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}

	dirRoles, err := s.store.ListDirectoryRoles(ctx, adminID)
	if err != nil {
		return nil, err
	}
	realmRoles, err := s.store.ListRealmRoles(ctx, adminID)
	if err != nil {
		return nil, err
	}
	restrictions, err := s.store.ListBranchRestrictionsByAdmin(ctx, adminID)
	if err != nil {
		return nil, err
	}
	overrides, err := s.store.ListFeatureOverrides(ctx, adminID)
	if err != nil {
		return nil, err
	}

	summary := &PermissionsSummary{
		AdminID:            admin.AdminID,
		Active:             admin.Active,
		DirectoryRoles:     []DirectoryRoleItem{},
		RealmRoles:         []RealmRoleItem{},
		BranchRestrictions: []BranchRestrictionItem{},
		FeatureOverrides:   []FeatureOverrideItem{},
	}
	for _, row := range dirRoles {
		summary.DirectoryRoles = append(summary.DirectoryRoles, DirectoryRoleItem{
			DirectoryID: row.DirectoryID,
			Role:        row.Role.String(),
		})
	}
	for _, row := range realmRoles {
		summary.RealmRoles = append(summary.RealmRoles, RealmRoleItem{
			RealmID: row.RealmID,
			Role:    row.Role.String(),
		})
	}
	for _, row := range restrictions {
		summary.BranchRestrictions = append(summary.BranchRestrictions, BranchRestrictionItem{
			RealmID:  row.RealmID,
			BranchDN: row.BranchDN,
		})
	}
	for _, row := range overrides {
		summary.FeatureOverrides = append(summary.FeatureOverrides, FeatureOverrideItem{
			FeatureKey: string(row.FeatureKey),
			Enabled:    row.Enabled,
		})
	}
	return summary, nil
}
