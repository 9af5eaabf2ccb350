package httpapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ldapadmin-authz/internal/domain"
	"ldapadmin-authz/internal/repository"
	"ldapadmin-authz/internal/service"
	"ldapadmin-authz/internal/store"
)

type handlerFixture struct {
	router *Router
	admin  *domain.AdminAccount
	dir    *domain.Directory
	realm  *domain.Realm
}

func setupHandler(t *testing.T) *handlerFixture {
	t.Helper()

	assignments := repository.NewMemoryAssignmentsRepo()
	scopes := repository.NewMemoryScopeRegistry(assignments)
	log := zap.NewNop()

	tenant := scopes.CreateTenant(domain.Tenant{TenantName: "T", Domain: "t.local"})
	dir, err := scopes.CreateDirectory(domain.Directory{TenantID: tenant.TenantID, DirectoryName: "D", Host: "ldap.t.local", Port: 389, BaseDN: "dc=t,dc=local", Vendor: "openldap"})
	require.NoError(t, err)
	realm, err := scopes.CreateRealm(domain.Realm{DirectoryID: dir.DirectoryID, RealmName: "R", UserBaseDN: "ou=people,dc=t,dc=local", GroupBaseDN: "ou=groups,dc=t,dc=local"})
	require.NoError(t, err)
	admin, err := scopes.CreateAdmin(domain.AdminAccount{TenantID: tenant.TenantID, Account: "a", Active: true})
	require.NoError(t, err)

	eval := service.NewEvaluator(scopes, assignments, log)
	gate := service.NewGate(eval, assignments, store.NewMemoryKV(), time.Minute, log)
	perms := service.NewPermissionService(scopes, assignments, gate, log)

	router := NewRouter(log)
	router.RegisterAuthzRoutes(NewAuthzHandler(gate, perms, log))

	return &handlerFixture{router: router, admin: admin, dir: dir, realm: realm}
}

func (f *handlerFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestEvaluateEndpoint_DenyIsOK200(t *testing.T) {
	f := setupHandler(t)

	rec := f.do(t, http.MethodPost, "/authz/api/v1/evaluate", domain.AccessRequest{
		AdminID:     f.admin.AdminID,
		DirectoryID: f.dir.DirectoryID,
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var res Result[domain.Decision]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, ResultSuccess, res.Code)
	assert.False(t, res.Result.Allowed)
	assert.Equal(t, domain.ReasonNoRole, res.Result.Reason)
}

func TestAssignRealmRoleEndpoint_ThenEvaluateAllows(t *testing.T) {
	f := setupHandler(t)

	rec := f.do(t, http.MethodPut, "/authz/api/v1/realm-roles", map[string]string{
		"admin_id": f.admin.AdminID,
		"realm_id": f.realm.RealmID,
		"role":     "operator",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodPost, "/authz/api/v1/evaluate", domain.AccessRequest{
		AdminID:     f.admin.AdminID,
		DirectoryID: f.dir.DirectoryID,
		RealmID:     f.realm.RealmID,
		Feature:     domain.FeatureUserEdit,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var res Result[domain.Decision]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(t, res.Result.Allowed)
}

func TestAssignRealmRoleEndpoint_BadRoleIs400(t *testing.T) {
	f := setupHandler(t)

	rec := f.do(t, http.MethodPut, "/authz/api/v1/realm-roles", map[string]string{
		"admin_id": f.admin.AdminID,
		"realm_id": f.realm.RealmID,
		"role":     "root",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignRealmRoleEndpoint_UnknownRealmIs404(t *testing.T) {
	f := setupHandler(t)

	rec := f.do(t, http.MethodPut, "/authz/api/v1/realm-roles", map[string]string{
		"admin_id": f.admin.AdminID,
		"realm_id": "00000000-0000-0000-0000-00000000dead",
		"role":     "viewer",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBranchRestrictionsEndpoint_MalformedDNIs400(t *testing.T) {
	f := setupHandler(t)

	rec := f.do(t, http.MethodPut, "/authz/api/v1/branch-restrictions", map[string]any{
		"admin_id":   f.admin.AdminID,
		"realm_id":   f.realm.RealmID,
		"branch_dns": []string{"not a dn"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPermissionsSummaryEndpoint(t *testing.T) {
	f := setupHandler(t)

	rec := f.do(t, http.MethodPut, "/authz/api/v1/feature-overrides", map[string]any{
		"admin_id": f.admin.AdminID,
		"overrides": []map[string]any{
			{"feature_key": "bulk.import", "enabled": true},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(t, http.MethodGet, "/authz/api/v1/permissions-summary?admin_id="+f.admin.AdminID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var res Result[service.PermissionsSummary]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, res.Result.FeatureOverrides, 1)
	assert.Equal(t, "bulk.import", res.Result.FeatureOverrides[0].FeatureKey)
}

func TestPermissionsSummaryEndpoint_MissingAdminIDIs400(t *testing.T) {
	f := setupHandler(t)
	rec := f.do(t, http.MethodGet, "/authz/api/v1/permissions-summary", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	f := setupHandler(t)
	rec := f.do(t, http.MethodGet, "/authz/api/v1/evaluate", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
