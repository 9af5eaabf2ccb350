package domain

import (
	"fmt"
)

// FeatureKey is one of a fixed set of fine-grained capability toggles.
// The persistence form is the dot-notation string (feature_key column).
type FeatureKey string

const (
	FeatureUserCreate         FeatureKey = "user.create"
	FeatureUserEdit           FeatureKey = "user.edit"
	FeatureUserDelete         FeatureKey = "user.delete"
	FeatureUserEnableDisable  FeatureKey = "user.enable-disable"
	FeatureUserMove           FeatureKey = "user.move"
	FeatureGroupManageMembers FeatureKey = "group.manage-members"
	FeatureGroupCreateDelete  FeatureKey = "group.create-delete"
	FeatureBulkImport         FeatureKey = "bulk.import"
	FeatureBulkExport         FeatureKey = "bulk.export"
	FeatureReportsRun         FeatureKey = "reports.run"
	FeatureReportsExport      FeatureKey = "reports.export"
	FeatureReportsSchedule    FeatureKey = "reports.schedule"
)

// AllFeatureKeys is the closed twelve-value set. Order is the display order
// used by the permissions summary.
var AllFeatureKeys = []FeatureKey{
	FeatureUserCreate,
	FeatureUserEdit,
	FeatureUserDelete,
	FeatureUserEnableDisable,
	FeatureUserMove,
	FeatureGroupManageMembers,
	FeatureGroupCreateDelete,
	FeatureBulkImport,
	FeatureBulkExport,
	FeatureReportsRun,
	FeatureReportsExport,
	FeatureReportsSchedule,
}

var featureKeySet = func() map[FeatureKey]struct{} {
	m := make(map[FeatureKey]struct{}, len(AllFeatureKeys))
	for _, k := range AllFeatureKeys {
		m[k] = struct{}{}
	}
	return m
}()

func (k FeatureKey) Valid() bool {
	_, ok := featureKeySet[k]
	return ok
}

// ParseFeatureKey validates a dot-notation feature key.
func ParseFeatureKey(s string) (FeatureKey, error) {
	k := FeatureKey(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: unknown feature key %q", ErrValidation, s)
	}
	return k, nil
}

// Role defaults. Viewer is read-only (reports.run only); operator adds
// user/group mutation but none of the bulk or report-management features;
// manager grants all twelve. A FeatureOverride replaces the default
// entirely, in either direction.
var roleDefaultFeatures = map[BaseRole][]FeatureKey{
	RoleViewer: {
		FeatureReportsRun,
	},
	RoleOperator: {
		FeatureUserCreate,
		FeatureUserEdit,
		FeatureUserDelete,
		FeatureUserEnableDisable,
		FeatureUserMove,
		FeatureGroupManageMembers,
		FeatureGroupCreateDelete,
		FeatureReportsRun,
	},
	RoleManager: AllFeatureKeys,
}

// RoleGrantsFeature reports whether the static default table grants
// feature to role, before any override is applied.
func RoleGrantsFeature(role BaseRole, feature FeatureKey) bool {
	for _, k := range roleDefaultFeatures[role] {
		if k == feature {
			return true
		}
	}
	return false
}

// DefaultFeatureSet returns the full default map for a role, used by the
// permissions summary to show effective per-feature state.
func DefaultFeatureSet(role BaseRole) map[FeatureKey]bool {
	m := make(map[FeatureKey]bool, len(AllFeatureKeys))
	for _, k := range AllFeatureKeys {
		m[k] = false
	}
	for _, k := range roleDefaultFeatures[role] {
		m[k] = true
	}
	return m
}
