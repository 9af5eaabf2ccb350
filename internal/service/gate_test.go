package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ldapadmin-authz/internal/domain"
	"ldapadmin-authz/internal/repository"
	"ldapadmin-authz/internal/store"
)

// countingStore wraps the assignment repo and counts role lookups so cache
// hits are observable.
type countingStore struct {
	repository.AssignmentsRepository
	roleLookups atomic.Int64
}

func (c *countingStore) GetDirectoryRole(ctx context.Context, adminID, directoryID string) (*domain.DirectoryRole, error) {
	c.roleLookups.Add(1)
	return c.AssignmentsRepository.GetDirectoryRole(ctx, adminID, directoryID)
}

func (c *countingStore) GetRealmRole(ctx context.Context, adminID, realmID string) (*domain.RealmRole, error) {
	c.roleLookups.Add(1)
	return c.AssignmentsRepository.GetRealmRole(ctx, adminID, realmID)
}

// failingStore returns a store failure on every call.
type failingStore struct {
	repository.AssignmentsRepository
}

func (f *failingStore) GetDirectoryRole(context.Context, string, string) (*domain.DirectoryRole, error) {
	return nil, domain.ErrStoreUnavailable
}

func newGateFixture(t *testing.T) (*fixture, *countingStore, *Gate) {
	f := newFixture(t)
	counting := &countingStore{AssignmentsRepository: f.assignments}
	eval := NewEvaluator(f.scopes, counting, zap.NewNop())
	gate := NewGate(eval, counting, store.NewMemoryKV(), time.Minute, zap.NewNop())
	return f, counting, gate
}

func TestGate_CachesDecisions(t *testing.T) {
	f, counting, gate := newGateFixture(t)
	ctx := context.Background()
	require.NoError(t, f.assignments.AssignDirectoryRole(ctx, f.admin.AdminID, f.dir.DirectoryID, domain.RoleManager))

	d := gate.Evaluate(ctx, f.request())
	assert.True(t, d.Allowed)
	first := counting.roleLookups.Load()

	d = gate.Evaluate(ctx, f.request())
	assert.True(t, d.Allowed)
	assert.Equal(t, first, counting.roleLookups.Load(), "second call should be served from cache")
}

func TestGate_InvalidateAdminDropsCachedDecisions(t *testing.T) {
	f, counting, gate := newGateFixture(t)
	ctx := context.Background()
	require.NoError(t, f.assignments.AssignDirectoryRole(ctx, f.admin.AdminID, f.dir.DirectoryID, domain.RoleManager))

	assert.True(t, gate.Evaluate(ctx, f.request()).Allowed)

	require.NoError(t, f.assignments.RemoveDirectoryRole(ctx, f.admin.AdminID, f.dir.DirectoryID))
	require.NoError(t, gate.InvalidateAdmin(ctx, f.admin.AdminID))

	before := counting.roleLookups.Load()
	d := gate.Evaluate(ctx, f.request())
	assert.False(t, d.Allowed)
	assert.Equal(t, domain.ReasonNoRole, d.Reason)
	assert.Greater(t, counting.roleLookups.Load(), before, "invalidation must force a fresh evaluation")
}

func TestGate_BranchBucketSharesCacheAcrossDNsInSameBranch(t *testing.T) {
	f, counting, gate := newGateFixture(t)
	ctx := context.Background()
	require.NoError(t, f.assignments.AssignRealmRole(ctx, f.admin.AdminID, f.realm.RealmID, domain.RoleOperator))
	require.NoError(t, f.assignments.ReplaceBranchRestrictions(ctx, f.admin.AdminID, f.realm.RealmID,
		[]string{"ou=people,dc=example,dc=com"}))

	req := f.request()
	req.RealmID = f.realm.RealmID

	req.TargetDN = "cn=alice,ou=people,dc=example,dc=com"
	assert.True(t, gate.Evaluate(ctx, req).Allowed)
	after := counting.roleLookups.Load()

	// a different DN in the same branch hits the same bucketed entry
	req.TargetDN = "cn=carol,ou=people,dc=example,dc=com"
	assert.True(t, gate.Evaluate(ctx, req).Allowed)
	assert.Equal(t, after, counting.roleLookups.Load())

	// outside every branch: denied, and bucketed separately
	req.TargetDN = "cn=bob,ou=finance,dc=example,dc=com"
	d := gate.Evaluate(ctx, req)
	assert.False(t, d.Allowed)
	assert.Equal(t, domain.ReasonBranchRestricted, d.Reason)
}

func TestGate_StoreFailureFailsClosed(t *testing.T) {
	f := newFixture(t)
	failing := &failingStore{AssignmentsRepository: f.assignments}
	eval := NewEvaluator(f.scopes, failing, zap.NewNop())
	gate := NewGate(eval, failing, store.NewMemoryKV(), time.Minute, zap.NewNop())

	d := gate.Evaluate(context.Background(), f.request())
	assert.False(t, d.Allowed)
	assert.Equal(t, domain.ReasonEvaluationError, d.Reason)
}

func TestGate_UnknownScopeFailsClosed(t *testing.T) {
	f, _, gate := newGateFixture(t)

	req := f.request()
	req.DirectoryID = "00000000-0000-0000-0000-00000000dead"
	d := gate.Evaluate(context.Background(), req)
	assert.False(t, d.Allowed)
	assert.Equal(t, domain.ReasonEvaluationError, d.Reason)
}

func TestGate_CancelledContext(t *testing.T) {
	f, _, gate := newGateFixture(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := gate.Evaluate(ctx, f.request())
	assert.False(t, d.Allowed)
	assert.Equal(t, domain.ReasonCancelled, d.Reason)
}

func TestGate_EvaluateEntryUsesEntryDN(t *testing.T) {
	f, _, gate := newGateFixture(t)
	ctx := context.Background()
	require.NoError(t, f.assignments.AssignRealmRole(ctx, f.admin.AdminID, f.realm.RealmID, domain.RoleOperator))
	require.NoError(t, f.assignments.ReplaceBranchRestrictions(ctx, f.admin.AdminID, f.realm.RealmID,
		[]string{"ou=people,dc=example,dc=com"}))

	entry := &domain.Entry{
		DN:   "uid=alice,ou=people,dc=example,dc=com",
		Kind: domain.EntryUser,
		Attributes: map[string][]string{
			"uid": {"alice"},
		},
	}
	d := gate.EvaluateEntry(ctx, f.admin.AdminID, f.dir.DirectoryID, f.realm.RealmID, entry, domain.FeatureUserEdit)
	assert.True(t, d.Allowed)

	outside := &domain.Entry{DN: "uid=bob,ou=finance,dc=example,dc=com", Kind: domain.EntryUser}
	d = gate.EvaluateEntry(ctx, f.admin.AdminID, f.dir.DirectoryID, f.realm.RealmID, outside, domain.FeatureUserEdit)
	assert.False(t, d.Allowed)
}
