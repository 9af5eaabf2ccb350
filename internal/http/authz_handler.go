package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"ldapadmin-authz/internal/domain"
	"ldapadmin-authz/internal/service"
)

// AuthzHandler exposes the authorization gate and the permission
// management operations over HTTP. Request handling stays thin: decode,
// delegate, map typed failures to status codes.
type AuthzHandler struct {
	gate   *service.Gate
	perms  *service.PermissionService
	logger *zap.Logger
}

func NewAuthzHandler(gate *service.Gate, perms *service.PermissionService, logger *zap.Logger) *AuthzHandler {
	return &AuthzHandler{gate: gate, perms: perms, logger: logger}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps the typed failure kinds to HTTP statuses: NotFound to
// 404, Validation to 400, TenantMismatch to 403, StoreUnavailable to 503.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrValidation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrTenantMismatch):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrStoreUnavailable):
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, Fail(err.Error()))
}

// Evaluate runs one authorization check. The response always carries a
// Decision; denials are 200s, not errors.
func (h *AuthzHandler) Evaluate(w http.ResponseWriter, req *http.Request) {
	var body domain.AccessRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	d := h.gate.Evaluate(req.Context(), body)
	writeJSON(w, http.StatusOK, Ok(d))
}

type roleAssignmentRequest struct {
	AdminID     string `json:"admin_id"`
	DirectoryID string `json:"directory_id,omitempty"`
	RealmID     string `json:"realm_id,omitempty"`
	Role        string `json:"role,omitempty"`
}

func (h *AuthzHandler) AssignDirectoryRole(w http.ResponseWriter, req *http.Request) {
	var body roleAssignmentRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.perms.AssignDirectoryRole(req.Context(), body.AdminID, body.DirectoryID, body.Role); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthzHandler) RemoveDirectoryRole(w http.ResponseWriter, req *http.Request) {
	var body roleAssignmentRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.perms.RemoveDirectoryRole(req.Context(), body.AdminID, body.DirectoryID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthzHandler) AssignRealmRole(w http.ResponseWriter, req *http.Request) {
	var body roleAssignmentRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.perms.AssignRealmRole(req.Context(), body.AdminID, body.RealmID, body.Role); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthzHandler) RemoveRealmRole(w http.ResponseWriter, req *http.Request) {
	var body roleAssignmentRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.perms.RemoveRealmRole(req.Context(), body.AdminID, body.RealmID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

type branchRestrictionsRequest struct {
	AdminID   string   `json:"admin_id"`
	RealmID   string   `json:"realm_id"`
	BranchDNs []string `json:"branch_dns"`
}

// ReplaceBranchRestrictions swaps the full restriction set. An empty
// branch_dns list clears every restriction for the pair.
func (h *AuthzHandler) ReplaceBranchRestrictions(w http.ResponseWriter, req *http.Request) {
	var body branchRestrictionsRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.perms.ReplaceBranchRestrictions(req.Context(), body.AdminID, body.RealmID, body.BranchDNs); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

type featureOverridesRequest struct {
	AdminID    string                    `json:"admin_id"`
	Overrides  []service.OverrideRequest `json:"overrides,omitempty"`
	FeatureKey string                    `json:"feature_key,omitempty"`
}

func (h *AuthzHandler) SetFeatureOverrides(w http.ResponseWriter, req *http.Request) {
	var body featureOverridesRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.perms.SetFeatureOverrides(req.Context(), body.AdminID, body.Overrides); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthzHandler) ClearFeatureOverride(w http.ResponseWriter, req *http.Request) {
	var body featureOverridesRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := h.perms.ClearFeatureOverride(req.Context(), body.AdminID, body.FeatureKey); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok[any](nil))
}

func (h *AuthzHandler) GetPermissionsSummary(w http.ResponseWriter, req *http.Request) {
	adminID := req.URL.Query().Get("admin_id")
	if adminID == "" {
		writeJSON(w, http.StatusBadRequest, Fail("admin_id is required"))
		return
	}
	summary, err := h.perms.GetPermissionsSummary(req.Context(), adminID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(summary))
}
