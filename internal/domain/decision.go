package domain

// ReasonCode explains a Decision. Deny reasons follow a fixed precedence
// so audit logs are deterministic: admin_inactive, tenant_mismatch,
// scope_mismatch, no_role, branch_restricted, feature_disabled. The two
// infrastructure reasons (evaluation_error, cancelled) come from the gate,
// never from the evaluator itself.
type ReasonCode string

const (
	ReasonAllowed          ReasonCode = "allowed"
	ReasonAdminInactive    ReasonCode = "admin_inactive"
	ReasonTenantMismatch   ReasonCode = "tenant_mismatch"
	ReasonScopeMismatch    ReasonCode = "scope_mismatch"
	ReasonNoRole           ReasonCode = "no_role"
	ReasonBranchRestricted ReasonCode = "branch_restricted"
	ReasonFeatureDisabled  ReasonCode = "feature_disabled"
	ReasonEvaluationError  ReasonCode = "evaluation_error"
	ReasonCancelled        ReasonCode = "cancelled"
)

// AccessRequest is the tuple a caller presents to the authorization gate.
// RealmID, TargetDN and Feature are optional; DirectoryID and AdminID are
// required.
type AccessRequest struct {
	AdminID     string     `json:"admin_id"`
	DirectoryID string     `json:"directory_id"`
	RealmID     string     `json:"realm_id,omitempty"`
	TargetDN    string     `json:"target_dn,omitempty"`
	Feature     FeatureKey `json:"feature,omitempty"`
}

// Decision is the verdict for one AccessRequest. Denied is a normal result
// value, not an error. Role is set on ALLOW (and on feature_disabled,
// where a role was resolved before the feature check failed).
type Decision struct {
	Allowed bool       `json:"allowed"`
	Reason  ReasonCode `json:"reason"`
	Role    BaseRole   `json:"role,omitempty"`
}

func Allow(role BaseRole) Decision {
	return Decision{Allowed: true, Reason: ReasonAllowed, Role: role}
}

func Deny(reason ReasonCode) Decision {
	return Decision{Allowed: false, Reason: reason}
}
