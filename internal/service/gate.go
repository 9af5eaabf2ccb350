package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"ldapadmin-authz/internal/domain"
	"ldapadmin-authz/internal/repository"
	"ldapadmin-authz/internal/store"
)

// Gate is the single entry point request handlers call for authorization
// checks. It wraps the Evaluator with a decision cache and fail-closed
// error handling: any infrastructure failure comes back as a deny with
// reason evaluation_error, a cancelled context as reason cancelled,
// never as a partially computed allow.
//
// Cache keys bucket the target DN by its containing branch so cache
// cardinality is bounded by the restriction sets, not by the number of
// distinct entries an admin touches. Invalidation is coarse: any mutation
// for an admin drops every cached entry under that admin's prefix.
type Gate struct {
	eval        *Evaluator
	assignments repository.AssignmentsRepository
	cache       store.KV
	ttl         time.Duration
	logger      *zap.Logger
}

const (
	bucketUnrestricted = "*"
	bucketNoMatch      = "!"
	bucketNone         = "-"
)

func NewGate(eval *Evaluator, assignments repository.AssignmentsRepository, cache store.KV, ttl time.Duration, logger *zap.Logger) *Gate {
	return &Gate{
		eval:        eval,
		assignments: assignments,
		cache:       cache,
		ttl:         ttl,
		logger:      logger,
	}
}

// Evaluate decides one AccessRequest. The returned Decision is always
// usable; failures are folded into it.
func (g *Gate) Evaluate(ctx context.Context, req domain.AccessRequest) domain.Decision {
	if err := ctx.Err(); err != nil {
		return domain.Deny(domain.ReasonCancelled)
	}

	bucket, err := g.branchBucket(ctx, req)
	if err != nil {
		return g.failClosed(ctx, req, err)
	}

	key := decisionKey(req, bucket)
	if raw, err := g.cache.Get(ctx, key); err == nil {
		var d domain.Decision
		if err := json.Unmarshal([]byte(raw), &d); err == nil {
			return d
		}
		// Undecodable entry: drop it and fall through to a fresh evaluation.
		_ = g.cache.Del(ctx, key)
	} else if err != store.ErrMiss {
		g.logger.Warn("decision cache read failed", zap.String("key", key), zap.Error(err))
	}

	d, err := g.eval.Evaluate(ctx, req)
	if err != nil {
		return g.failClosed(ctx, req, err)
	}

	if raw, err := json.Marshal(d); err == nil {
		if err := g.cache.Set(ctx, key, string(raw), g.ttl); err != nil {
			g.logger.Warn("decision cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return d
}

// EvaluateEntry is the convenience form handlers use when they hold a
// directory entry rather than a bare DN.
func (g *Gate) EvaluateEntry(ctx context.Context, adminID, directoryID, realmID string, entry *domain.Entry, feature domain.FeatureKey) domain.Decision {
	return g.Evaluate(ctx, domain.AccessRequest{
		AdminID:     adminID,
		DirectoryID: directoryID,
		RealmID:     realmID,
		TargetDN:    entry.DN,
		Feature:     feature,
	})
}

// InvalidateAdmin drops every cached entry for the admin. Called after
// each assignment mutation.
func (g *Gate) InvalidateAdmin(ctx context.Context, adminID string) error {
	keys, err := g.cache.ScanKeys(ctx, adminPrefix(adminID)+"*")
	if err != nil {
		return fmt.Errorf("scan cache keys: %w", err)
	}
	if err := g.cache.Del(ctx, keys...); err != nil {
		return fmt.Errorf("drop cache keys: %w", err)
	}
	return nil
}

func (g *Gate) failClosed(ctx context.Context, req domain.AccessRequest, err error) domain.Decision {
	if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domain.Deny(domain.ReasonCancelled)
	}
	g.logger.Warn("evaluation failed closed",
		zap.String("admin_id", req.AdminID),
		zap.String("directory_id", req.DirectoryID),
		zap.String("realm_id", req.RealmID),
		zap.Error(err),
	)
	return domain.Deny(domain.ReasonEvaluationError)
}

// branchBucket maps the request's target DN to its containing branch so
// the decision cache stays bounded. The branch set itself is cached per
// (admin, realm) under the same admin prefix.
func (g *Gate) branchBucket(ctx context.Context, req domain.AccessRequest) (string, error) {
	if req.TargetDN == "" || req.RealmID == "" {
		return bucketNone, nil
	}

	branches, err := g.branchSet(ctx, req.AdminID, req.RealmID)
	if err != nil {
		return "", err
	}
	if len(branches) == 0 {
		return bucketUnrestricted, nil
	}
	if b := matchBranch(req.TargetDN, branches); b != "" {
		return b, nil
	}
	return bucketNoMatch, nil
}

func (g *Gate) branchSet(ctx context.Context, adminID, realmID string) ([]string, error) {
	key := adminPrefix(adminID) + "branches|" + realmID
	if raw, err := g.cache.Get(ctx, key); err == nil {
		var branches []string
		if err := json.Unmarshal([]byte(raw), &branches); err == nil {
			return branches, nil
		}
		_ = g.cache.Del(ctx, key)
	} else if err != store.ErrMiss {
		g.logger.Warn("branch cache read failed", zap.String("key", key), zap.Error(err))
	}

	branches, err := g.assignments.ListBranchRestrictions(ctx, adminID, realmID)
	if err != nil {
		return nil, fmt.Errorf("list branch restrictions: %w", err)
	}
	if raw, err := json.Marshal(branches); err == nil {
		if err := g.cache.Set(ctx, key, string(raw), g.ttl); err != nil {
			g.logger.Warn("branch cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return branches, nil
}

func adminPrefix(adminID string) string {
	return "authz|" + adminID + "|"
}

func decisionKey(req domain.AccessRequest, bucket string) string {
	return adminPrefix(req.AdminID) + "dec|" + req.DirectoryID + "|" + req.RealmID + "|" + bucket + "|" + string(req.Feature)
}
