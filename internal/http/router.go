package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps the standard library mux; the authz surface is small enough
// that a third-party router buys nothing.
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// RegisterAuthzRoutes wires the authorization check and the permission
// management endpoints.
func (r *Router) RegisterAuthzRoutes(h *AuthzHandler) {
	r.Handle("/authz/api/v1/evaluate", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.Evaluate(w, req)
	})

	r.Handle("/authz/api/v1/directory-roles", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPut:
			h.AssignDirectoryRole(w, req)
		case http.MethodDelete:
			h.RemoveDirectoryRole(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/authz/api/v1/realm-roles", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPut:
			h.AssignRealmRole(w, req)
		case http.MethodDelete:
			h.RemoveRealmRole(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/authz/api/v1/branch-restrictions", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodPut {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.ReplaceBranchRestrictions(w, req)
	})

	r.Handle("/authz/api/v1/feature-overrides", func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case http.MethodPut:
			h.SetFeatureOverrides(w, req)
		case http.MethodDelete:
			h.ClearFeatureOverride(w, req)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})

	r.Handle("/authz/api/v1/permissions-summary", func(w http.ResponseWriter, req *http.Request) {
		if req.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.GetPermissionsSummary(w, req)
	})
}
