package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ldapadmin-authz/internal/domain"
)

func TestMemoryAssignments_RoleUpsertIsIdempotent(t *testing.T) {
	repo := NewMemoryAssignmentsRepo()
	ctx := context.Background()

	require.NoError(t, repo.AssignRealmRole(ctx, "admin-1", "realm-1", domain.RoleOperator))
	require.NoError(t, repo.AssignRealmRole(ctx, "admin-1", "realm-1", domain.RoleOperator))

	rows, err := repo.ListRealmRoles(ctx, "admin-1")
	require.NoError(t, err)
	require.Len(t, rows, 1, "unique per (admin, realm)")
	assert.Equal(t, domain.RoleOperator, rows[0].Role)
}

func TestMemoryAssignments_RoleUpsertReplaces(t *testing.T) {
	repo := NewMemoryAssignmentsRepo()
	ctx := context.Background()

	require.NoError(t, repo.AssignDirectoryRole(ctx, "admin-1", "dir-1", domain.RoleViewer))
	require.NoError(t, repo.AssignDirectoryRole(ctx, "admin-1", "dir-1", domain.RoleManager))

	row, err := repo.GetDirectoryRole(ctx, "admin-1", "dir-1")
	require.NoError(t, err)
	require.NotNil(t, row)
	assert.Equal(t, domain.RoleManager, row.Role)
}

func TestMemoryAssignments_AbsentRowIsNilNotError(t *testing.T) {
	repo := NewMemoryAssignmentsRepo()
	ctx := context.Background()

	row, err := repo.GetDirectoryRole(ctx, "admin-1", "dir-1")
	require.NoError(t, err)
	assert.Nil(t, row)

	rr, err := repo.GetRealmRole(ctx, "admin-1", "realm-1")
	require.NoError(t, err)
	assert.Nil(t, rr)

	ov, err := repo.GetFeatureOverride(ctx, "admin-1", domain.FeatureUserCreate)
	require.NoError(t, err)
	assert.Nil(t, ov)
}

func TestMemoryAssignments_RemoveIsNoOpWhenAbsent(t *testing.T) {
	repo := NewMemoryAssignmentsRepo()
	ctx := context.Background()

	assert.NoError(t, repo.RemoveRealmRole(ctx, "admin-1", "realm-1"))
	assert.NoError(t, repo.RemoveDirectoryRole(ctx, "admin-1", "dir-1"))
	assert.NoError(t, repo.ClearFeatureOverride(ctx, "admin-1", domain.FeatureUserEdit))
}

func TestMemoryAssignments_ReplaceBranchRestrictions(t *testing.T) {
	repo := NewMemoryAssignmentsRepo()
	ctx := context.Background()

	require.NoError(t, repo.ReplaceBranchRestrictions(ctx, "admin-1", "realm-1",
		[]string{"ou=people,dc=example,dc=com", "ou=service,dc=example,dc=com"}))

	branches, err := repo.ListBranchRestrictions(ctx, "admin-1", "realm-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ou=people,dc=example,dc=com", "ou=service,dc=example,dc=com"}, branches)

	// full replace, no merging with the previous set
	require.NoError(t, repo.ReplaceBranchRestrictions(ctx, "admin-1", "realm-1",
		[]string{"ou=finance,dc=example,dc=com"}))
	branches, err = repo.ListBranchRestrictions(ctx, "admin-1", "realm-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"ou=finance,dc=example,dc=com"}, branches)

	// empty set clears everything
	require.NoError(t, repo.ReplaceBranchRestrictions(ctx, "admin-1", "realm-1", nil))
	branches, err = repo.ListBranchRestrictions(ctx, "admin-1", "realm-1")
	require.NoError(t, err)
	assert.Empty(t, branches)
}

func TestMemoryAssignments_ReplaceBranchRestrictionsDedupes(t *testing.T) {
	repo := NewMemoryAssignmentsRepo()
	ctx := context.Background()

	require.NoError(t, repo.ReplaceBranchRestrictions(ctx, "admin-1", "realm-1",
		[]string{"ou=people,dc=example,dc=com", "ou=people,dc=example,dc=com"}))

	branches, err := repo.ListBranchRestrictions(ctx, "admin-1", "realm-1")
	require.NoError(t, err)
	assert.Len(t, branches, 1)
}

func TestMemoryAssignments_FeatureOverrideBatch(t *testing.T) {
	repo := NewMemoryAssignmentsRepo()
	ctx := context.Background()

	require.NoError(t, repo.SetFeatureOverrides(ctx, "admin-1", []OverrideSetting{
		{Key: domain.FeatureUserCreate, Enabled: false},
		{Key: domain.FeatureBulkImport, Enabled: true},
	}))
	// second batch flips one and leaves the other alone
	require.NoError(t, repo.SetFeatureOverrides(ctx, "admin-1", []OverrideSetting{
		{Key: domain.FeatureUserCreate, Enabled: true},
	}))

	rows, err := repo.ListFeatureOverrides(ctx, "admin-1")
	require.NoError(t, err)
	require.Len(t, rows, 2)

	ov, err := repo.GetFeatureOverride(ctx, "admin-1", domain.FeatureUserCreate)
	require.NoError(t, err)
	require.NotNil(t, ov)
	assert.True(t, ov.Enabled)
}

func TestMemoryAssignments_DeleteAdminAssignmentsCascades(t *testing.T) {
	repo := NewMemoryAssignmentsRepo()
	ctx := context.Background()

	require.NoError(t, repo.AssignDirectoryRole(ctx, "admin-1", "dir-1", domain.RoleViewer))
	require.NoError(t, repo.AssignRealmRole(ctx, "admin-1", "realm-1", domain.RoleOperator))
	require.NoError(t, repo.ReplaceBranchRestrictions(ctx, "admin-1", "realm-1", []string{"ou=a,dc=x"}))
	require.NoError(t, repo.SetFeatureOverrides(ctx, "admin-1", []OverrideSetting{{Key: domain.FeatureReportsRun, Enabled: false}}))

	// another admin's rows survive
	require.NoError(t, repo.AssignRealmRole(ctx, "admin-2", "realm-1", domain.RoleViewer))

	require.NoError(t, repo.DeleteAdminAssignments(ctx, "admin-1"))

	dirRoles, _ := repo.ListDirectoryRoles(ctx, "admin-1")
	realmRoles, _ := repo.ListRealmRoles(ctx, "admin-1")
	branches, _ := repo.ListBranchRestrictions(ctx, "admin-1", "realm-1")
	overrides, _ := repo.ListFeatureOverrides(ctx, "admin-1")
	assert.Empty(t, dirRoles)
	assert.Empty(t, realmRoles)
	assert.Empty(t, branches)
	assert.Empty(t, overrides)

	surviving, _ := repo.ListRealmRoles(ctx, "admin-2")
	assert.Len(t, surviving, 1)
}

func TestMemoryAssignments_DeleteRealmAssignmentsCascades(t *testing.T) {
	repo := NewMemoryAssignmentsRepo()
	ctx := context.Background()

	require.NoError(t, repo.AssignRealmRole(ctx, "admin-1", "realm-1", domain.RoleOperator))
	require.NoError(t, repo.AssignRealmRole(ctx, "admin-1", "realm-2", domain.RoleOperator))
	require.NoError(t, repo.ReplaceBranchRestrictions(ctx, "admin-1", "realm-1", []string{"ou=a,dc=x"}))

	require.NoError(t, repo.DeleteRealmAssignments(ctx, "realm-1"))

	row, err := repo.GetRealmRole(ctx, "admin-1", "realm-1")
	require.NoError(t, err)
	assert.Nil(t, row)
	branches, _ := repo.ListBranchRestrictions(ctx, "admin-1", "realm-1")
	assert.Empty(t, branches)

	kept, err := repo.GetRealmRole(ctx, "admin-1", "realm-2")
	require.NoError(t, err)
	assert.NotNil(t, kept)
}

func TestMemoryScopeRegistry_DeleteDirectoryCascades(t *testing.T) {
	assignments := NewMemoryAssignmentsRepo()
	scopes := NewMemoryScopeRegistry(assignments)
	ctx := context.Background()

	tenant := scopes.CreateTenant(domain.Tenant{TenantName: "T"})
	dir, err := scopes.CreateDirectory(domain.Directory{TenantID: tenant.TenantID, DirectoryName: "D"})
	require.NoError(t, err)
	realm, err := scopes.CreateRealm(domain.Realm{DirectoryID: dir.DirectoryID, RealmName: "R"})
	require.NoError(t, err)
	admin, err := scopes.CreateAdmin(domain.AdminAccount{TenantID: tenant.TenantID, Account: "a", Active: true})
	require.NoError(t, err)

	require.NoError(t, assignments.AssignDirectoryRole(ctx, admin.AdminID, dir.DirectoryID, domain.RoleManager))
	require.NoError(t, assignments.AssignRealmRole(ctx, admin.AdminID, realm.RealmID, domain.RoleOperator))

	require.NoError(t, scopes.DeleteDirectory(ctx, dir.DirectoryID))

	_, err = scopes.ResolveDirectory(ctx, dir.DirectoryID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = scopes.ResolveRealm(ctx, realm.RealmID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	dr, err := assignments.GetDirectoryRole(ctx, admin.AdminID, dir.DirectoryID)
	require.NoError(t, err)
	assert.Nil(t, dr)
	rr, err := assignments.GetRealmRole(ctx, admin.AdminID, realm.RealmID)
	require.NoError(t, err)
	assert.Nil(t, rr)
}
