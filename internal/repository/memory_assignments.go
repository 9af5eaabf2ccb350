package repository

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	"ldapadmin-authz/internal/domain"
)

// MemoryAssignmentsRepo keeps all four assignment dimensions in process
// memory. It backs local development and tests when DB is disabled, and is
// the reference implementation of the replace/upsert semantics.
type MemoryAssignmentsRepo struct {
	mu         sync.RWMutex
	dirRoles   map[string]*domain.DirectoryRole       // adminID|directoryID
	realmRoles map[string]*domain.RealmRole           // adminID|realmID
	branches   map[string][]*domain.BranchRestriction // adminID|realmID
	overrides  map[string]*domain.FeatureOverride     // adminID|featureKey
}

func NewMemoryAssignmentsRepo() *MemoryAssignmentsRepo {
	return &MemoryAssignmentsRepo{
		dirRoles:   map[string]*domain.DirectoryRole{},
		realmRoles: map[string]*domain.RealmRole{},
		branches:   map[string][]*domain.BranchRestriction{},
		overrides:  map[string]*domain.FeatureOverride{},
	}
}

var _ AssignmentsRepository = (*MemoryAssignmentsRepo)(nil)

func pairKey(a, b string) string { return a + "|" + b }

func (r *MemoryAssignmentsRepo) GetDirectoryRole(_ context.Context, adminID, directoryID string) (*domain.DirectoryRole, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if row, ok := r.dirRoles[pairKey(adminID, directoryID)]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryAssignmentsRepo) AssignDirectoryRole(_ context.Context, adminID, directoryID string, role domain.BaseRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(adminID, directoryID)
	if row, ok := r.dirRoles[key]; ok {
		row.Role = role
		return nil
	}
	r.dirRoles[key] = &domain.DirectoryRole{
		AssignmentID: uuid.NewString(),
		AdminID:      adminID,
		DirectoryID:  directoryID,
		Role:         role,
	}
	return nil
}

func (r *MemoryAssignmentsRepo) RemoveDirectoryRole(_ context.Context, adminID, directoryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.dirRoles, pairKey(adminID, directoryID))
	return nil
}

func (r *MemoryAssignmentsRepo) ListDirectoryRoles(_ context.Context, adminID string) ([]*domain.DirectoryRole, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.DirectoryRole
	for _, row := range r.dirRoles {
		if row.AdminID == adminID {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DirectoryID < out[j].DirectoryID })
	return out, nil
}

func (r *MemoryAssignmentsRepo) GetRealmRole(_ context.Context, adminID, realmID string) (*domain.RealmRole, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if row, ok := r.realmRoles[pairKey(adminID, realmID)]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryAssignmentsRepo) AssignRealmRole(_ context.Context, adminID, realmID string, role domain.BaseRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(adminID, realmID)
	if row, ok := r.realmRoles[key]; ok {
		row.Role = role
		return nil
	}
	r.realmRoles[key] = &domain.RealmRole{
		AssignmentID: uuid.NewString(),
		AdminID:      adminID,
		RealmID:      realmID,
		Role:         role,
	}
	return nil
}

func (r *MemoryAssignmentsRepo) RemoveRealmRole(_ context.Context, adminID, realmID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.realmRoles, pairKey(adminID, realmID))
	return nil
}

func (r *MemoryAssignmentsRepo) ListRealmRoles(_ context.Context, adminID string) ([]*domain.RealmRole, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.RealmRole
	for _, row := range r.realmRoles {
		if row.AdminID == adminID {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RealmID < out[j].RealmID })
	return out, nil
}

func (r *MemoryAssignmentsRepo) ListBranchRestrictions(_ context.Context, adminID, realmID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rows := r.branches[pairKey(adminID, realmID)]
	out := make([]string, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.BranchDN)
	}
	sort.Strings(out)
	return out, nil
}

func (r *MemoryAssignmentsRepo) ReplaceBranchRestrictions(_ context.Context, adminID, realmID string, branchDNs []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := pairKey(adminID, realmID)
	if len(branchDNs) == 0 {
		delete(r.branches, key)
		return nil
	}
	rows := make([]*domain.BranchRestriction, 0, len(branchDNs))
	seen := map[string]struct{}{}
	for _, b := range branchDNs {
		if _, dup := seen[b]; dup {
			continue
		}
		seen[b] = struct{}{}
		rows = append(rows, &domain.BranchRestriction{
			RestrictionID: uuid.NewString(),
			AdminID:       adminID,
			RealmID:       realmID,
			BranchDN:      b,
		})
	}
	r.branches[key] = rows
	return nil
}

func (r *MemoryAssignmentsRepo) ListBranchRestrictionsByAdmin(_ context.Context, adminID string) ([]*domain.BranchRestriction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.BranchRestriction
	for key, rows := range r.branches {
		if !strings.HasPrefix(key, adminID+"|") {
			continue
		}
		for _, row := range rows {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].RealmID != out[j].RealmID {
			return out[i].RealmID < out[j].RealmID
		}
		return out[i].BranchDN < out[j].BranchDN
	})
	return out, nil
}

func (r *MemoryAssignmentsRepo) GetFeatureOverride(_ context.Context, adminID string, key domain.FeatureKey) (*domain.FeatureOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if row, ok := r.overrides[pairKey(adminID, string(key))]; ok {
		cp := *row
		return &cp, nil
	}
	return nil, nil
}

func (r *MemoryAssignmentsRepo) SetFeatureOverrides(_ context.Context, adminID string, settings []OverrideSetting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range settings {
		mapKey := pairKey(adminID, string(s.Key))
		if row, ok := r.overrides[mapKey]; ok {
			row.Enabled = s.Enabled
			continue
		}
		r.overrides[mapKey] = &domain.FeatureOverride{
			OverrideID: uuid.NewString(),
			AdminID:    adminID,
			FeatureKey: s.Key,
			Enabled:    s.Enabled,
		}
	}
	return nil
}

func (r *MemoryAssignmentsRepo) ClearFeatureOverride(_ context.Context, adminID string, key domain.FeatureKey) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.overrides, pairKey(adminID, string(key)))
	return nil
}

func (r *MemoryAssignmentsRepo) ListFeatureOverrides(_ context.Context, adminID string) ([]*domain.FeatureOverride, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*domain.FeatureOverride
	for _, row := range r.overrides {
		if row.AdminID == adminID {
			cp := *row
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FeatureKey < out[j].FeatureKey })
	return out, nil
}

func (r *MemoryAssignmentsRepo) DeleteAdminAssignments(_ context.Context, adminID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	prefix := adminID + "|"
	for k := range r.dirRoles {
		if strings.HasPrefix(k, prefix) {
			delete(r.dirRoles, k)
		}
	}
	for k := range r.realmRoles {
		if strings.HasPrefix(k, prefix) {
			delete(r.realmRoles, k)
		}
	}
	for k := range r.branches {
		if strings.HasPrefix(k, prefix) {
			delete(r.branches, k)
		}
	}
	for k := range r.overrides {
		if strings.HasPrefix(k, prefix) {
			delete(r.overrides, k)
		}
	}
	return nil
}

func (r *MemoryAssignmentsRepo) DeleteDirectoryAssignments(_ context.Context, directoryID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, row := range r.dirRoles {
		if row.DirectoryID == directoryID {
			delete(r.dirRoles, k)
		}
	}
	return nil
}

func (r *MemoryAssignmentsRepo) DeleteRealmAssignments(_ context.Context, realmID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, row := range r.realmRoles {
		if row.RealmID == realmID {
			delete(r.realmRoles, k)
		}
	}
	for k, rows := range r.branches {
		if len(rows) > 0 && rows[0].RealmID == realmID {
			delete(r.branches, k)
		}
	}
	return nil
}
