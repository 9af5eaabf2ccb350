package repository

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"ldapadmin-authz/internal/domain"
)

// MemoryScopeRegistry holds tenants, directories, realms and admin
// accounts in process memory. Besides resolution it offers the management
// helpers used for seeding in development and in tests. Deleting an entity
// cascades assignment cleanup through the wired AssignmentsRepository.
type MemoryScopeRegistry struct {
	mu          sync.RWMutex
	tenants     map[string]*domain.Tenant
	directories map[string]*domain.Directory
	realms      map[string]*domain.Realm
	admins      map[string]*domain.AdminAccount

	assignments AssignmentsRepository
}

func NewMemoryScopeRegistry(assignments AssignmentsRepository) *MemoryScopeRegistry {
	return &MemoryScopeRegistry{
		tenants:     map[string]*domain.Tenant{},
		directories: map[string]*domain.Directory{},
		realms:      map[string]*domain.Realm{},
		admins:      map[string]*domain.AdminAccount{},
		assignments: assignments,
	}
}

var _ ScopeRegistry = (*MemoryScopeRegistry)(nil)

func (r *MemoryScopeRegistry) ResolveTenant(_ context.Context, tenantID string) (*domain.Tenant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.tenants[tenantID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: tenant %s", domain.ErrNotFound, tenantID)
}

func (r *MemoryScopeRegistry) ResolveAdmin(_ context.Context, adminID string) (*domain.AdminAccount, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if a, ok := r.admins[adminID]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: admin %s", domain.ErrNotFound, adminID)
}

func (r *MemoryScopeRegistry) ResolveDirectory(_ context.Context, directoryID string) (*domain.Directory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if d, ok := r.directories[directoryID]; ok {
		cp := *d
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: directory %s", domain.ErrNotFound, directoryID)
}

func (r *MemoryScopeRegistry) ResolveRealm(_ context.Context, realmID string) (*domain.Realm, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if rm, ok := r.realms[realmID]; ok {
		cp := *rm
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: realm %s", domain.ErrNotFound, realmID)
}

// CreateTenant registers a tenant; a missing ID gets a generated one.
func (r *MemoryScopeRegistry) CreateTenant(t domain.Tenant) *domain.Tenant {
	r.mu.Lock()
	defer r.mu.Unlock()
	if t.TenantID == "" {
		t.TenantID = uuid.NewString()
	}
	if t.Status == "" {
		t.Status = "active"
	}
	r.tenants[t.TenantID] = &t
	return &t
}

// CreateDirectory registers a directory under an existing tenant.
func (r *MemoryScopeRegistry) CreateDirectory(d domain.Directory) (*domain.Directory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[d.TenantID]; !ok {
		return nil, fmt.Errorf("%w: tenant %s", domain.ErrNotFound, d.TenantID)
	}
	if d.DirectoryID == "" {
		d.DirectoryID = uuid.NewString()
	}
	r.directories[d.DirectoryID] = &d
	return &d, nil
}

// CreateRealm registers a realm under an existing directory.
func (r *MemoryScopeRegistry) CreateRealm(rm domain.Realm) (*domain.Realm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.directories[rm.DirectoryID]; !ok {
		return nil, fmt.Errorf("%w: directory %s", domain.ErrNotFound, rm.DirectoryID)
	}
	if rm.RealmID == "" {
		rm.RealmID = uuid.NewString()
	}
	r.realms[rm.RealmID] = &rm
	return &rm, nil
}

// CreateAdmin registers an admin account under an existing tenant.
func (r *MemoryScopeRegistry) CreateAdmin(a domain.AdminAccount) (*domain.AdminAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tenants[a.TenantID]; !ok {
		return nil, fmt.Errorf("%w: tenant %s", domain.ErrNotFound, a.TenantID)
	}
	if a.AdminID == "" {
		a.AdminID = uuid.NewString()
	}
	r.admins[a.AdminID] = &a
	return &a, nil
}

// SetAdminActive flips the active flag, the switch that gates every
// evaluation for the account.
func (r *MemoryScopeRegistry) SetAdminActive(adminID string, active bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.admins[adminID]
	if !ok {
		return fmt.Errorf("%w: admin %s", domain.ErrNotFound, adminID)
	}
	a.Active = active
	return nil
}

// DeleteAdmin removes the account and cascades assignment cleanup.
func (r *MemoryScopeRegistry) DeleteAdmin(ctx context.Context, adminID string) error {
	r.mu.Lock()
	_, ok := r.admins[adminID]
	delete(r.admins, adminID)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: admin %s", domain.ErrNotFound, adminID)
	}
	return r.assignments.DeleteAdminAssignments(ctx, adminID)
}

// DeleteRealm removes the realm and cascades assignment cleanup.
func (r *MemoryScopeRegistry) DeleteRealm(ctx context.Context, realmID string) error {
	r.mu.Lock()
	_, ok := r.realms[realmID]
	delete(r.realms, realmID)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: realm %s", domain.ErrNotFound, realmID)
	}
	return r.assignments.DeleteRealmAssignments(ctx, realmID)
}

// DeleteDirectory removes the directory, its realms, and every assignment
// row hanging off any of them.
func (r *MemoryScopeRegistry) DeleteDirectory(ctx context.Context, directoryID string) error {
	r.mu.Lock()
	_, ok := r.directories[directoryID]
	delete(r.directories, directoryID)
	var realmIDs []string
	for id, rm := range r.realms {
		if rm.DirectoryID == directoryID {
			realmIDs = append(realmIDs, id)
			delete(r.realms, id)
		}
	}
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: directory %s", domain.ErrNotFound, directoryID)
	}
	for _, id := range realmIDs {
		if err := r.assignments.DeleteRealmAssignments(ctx, id); err != nil {
			return err
		}
	}
	return r.assignments.DeleteDirectoryAssignments(ctx, directoryID)
}
