package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"ldapadmin-authz/internal/domain"
)

// PostgresAssignmentsRepo is the production assignment store. Tables:
// directory_roles, realm_roles, branch_restrictions, feature_overrides.
// Uniqueness per (admin, scope) pair is enforced by unique indexes and the
// upserts below; replace-all operations run inside a transaction so a
// concurrent evaluation never observes a half-applied state.
type PostgresAssignmentsRepo struct {
	db *sql.DB
}

func NewPostgresAssignmentsRepo(db *sql.DB) *PostgresAssignmentsRepo {
	return &PostgresAssignmentsRepo{db: db}
}

var _ AssignmentsRepository = (*PostgresAssignmentsRepo)(nil)

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", domain.ErrStoreUnavailable, op, err)
}

func (r *PostgresAssignmentsRepo) GetDirectoryRole(ctx context.Context, adminID, directoryID string) (*domain.DirectoryRole, error) {
	var row domain.DirectoryRole
	var code string
	err := r.db.QueryRowContext(ctx,
		`SELECT assignment_id::text, admin_id::text, directory_id::text, role_code
		 FROM directory_roles
		 WHERE admin_id = $1 AND directory_id = $2`,
		adminID, directoryID,
	).Scan(&row.AssignmentID, &row.AdminID, &row.DirectoryID, &code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query directory role", err)
	}
	role, err := domain.ParseBaseRole(code)
	if err != nil {
		return nil, storeErr("decode directory role", err)
	}
	row.Role = role
	return &row, nil
}

func (r *PostgresAssignmentsRepo) AssignDirectoryRole(ctx context.Context, adminID, directoryID string, role domain.BaseRole) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO directory_roles (assignment_id, admin_id, directory_id, role_code)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (admin_id, directory_id)
		 DO UPDATE SET role_code = EXCLUDED.role_code`,
		uuid.NewString(), adminID, directoryID, role.String(),
	)
	if err != nil {
		return storeErr("assign directory role", err)
	}
	return nil
}

func (r *PostgresAssignmentsRepo) RemoveDirectoryRole(ctx context.Context, adminID, directoryID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM directory_roles WHERE admin_id = $1 AND directory_id = $2`,
		adminID, directoryID,
	)
	if err != nil {
		return storeErr("remove directory role", err)
	}
	return nil
}

func (r *PostgresAssignmentsRepo) ListDirectoryRoles(ctx context.Context, adminID string) ([]*domain.DirectoryRole, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT assignment_id::text, admin_id::text, directory_id::text, role_code
		 FROM directory_roles
		 WHERE admin_id = $1
		 ORDER BY directory_id`,
		adminID,
	)
	if err != nil {
		return nil, storeErr("list directory roles", err)
	}
	defer rows.Close()

	var out []*domain.DirectoryRole
	for rows.Next() {
		var row domain.DirectoryRole
		var code string
		if err := rows.Scan(&row.AssignmentID, &row.AdminID, &row.DirectoryID, &code); err != nil {
			return nil, storeErr("scan directory role", err)
		}
		role, err := domain.ParseBaseRole(code)
		if err != nil {
			return nil, storeErr("decode directory role", err)
		}
		row.Role = role
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate directory roles", err)
	}
	return out, nil
}

func (r *PostgresAssignmentsRepo) GetRealmRole(ctx context.Context, adminID, realmID string) (*domain.RealmRole, error) {
	var row domain.RealmRole
	var code string
	err := r.db.QueryRowContext(ctx,
		`SELECT assignment_id::text, admin_id::text, realm_id::text, role_code
		 FROM realm_roles
		 WHERE admin_id = $1 AND realm_id = $2`,
		adminID, realmID,
	).Scan(&row.AssignmentID, &row.AdminID, &row.RealmID, &code)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query realm role", err)
	}
	role, err := domain.ParseBaseRole(code)
	if err != nil {
		return nil, storeErr("decode realm role", err)
	}
	row.Role = role
	return &row, nil
}

func (r *PostgresAssignmentsRepo) AssignRealmRole(ctx context.Context, adminID, realmID string, role domain.BaseRole) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO realm_roles (assignment_id, admin_id, realm_id, role_code)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (admin_id, realm_id)
		 DO UPDATE SET role_code = EXCLUDED.role_code`,
		uuid.NewString(), adminID, realmID, role.String(),
	)
	if err != nil {
		return storeErr("assign realm role", err)
	}
	return nil
}

func (r *PostgresAssignmentsRepo) RemoveRealmRole(ctx context.Context, adminID, realmID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM realm_roles WHERE admin_id = $1 AND realm_id = $2`,
		adminID, realmID,
	)
	if err != nil {
		return storeErr("remove realm role", err)
	}
	return nil
}

func (r *PostgresAssignmentsRepo) ListRealmRoles(ctx context.Context, adminID string) ([]*domain.RealmRole, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT assignment_id::text, admin_id::text, realm_id::text, role_code
		 FROM realm_roles
		 WHERE admin_id = $1
		 ORDER BY realm_id`,
		adminID,
	)
	if err != nil {
		return nil, storeErr("list realm roles", err)
	}
	defer rows.Close()

	var out []*domain.RealmRole
	for rows.Next() {
		var row domain.RealmRole
		var code string
		if err := rows.Scan(&row.AssignmentID, &row.AdminID, &row.RealmID, &code); err != nil {
			return nil, storeErr("scan realm role", err)
		}
		role, err := domain.ParseBaseRole(code)
		if err != nil {
			return nil, storeErr("decode realm role", err)
		}
		row.Role = role
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate realm roles", err)
	}
	return out, nil
}

func (r *PostgresAssignmentsRepo) ListBranchRestrictions(ctx context.Context, adminID, realmID string) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT branch_dn
		 FROM branch_restrictions
		 WHERE admin_id = $1 AND realm_id = $2
		 ORDER BY branch_dn`,
		adminID, realmID,
	)
	if err != nil {
		return nil, storeErr("list branch restrictions", err)
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var dn string
		if err := rows.Scan(&dn); err != nil {
			return nil, storeErr("scan branch restriction", err)
		}
		out = append(out, dn)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate branch restrictions", err)
	}
	return out, nil
}

// ReplaceBranchRestrictions swaps the full set in one transaction.
// An empty slice deletes every row for the pair (unrestricted).
func (r *PostgresAssignmentsRepo) ReplaceBranchRestrictions(ctx context.Context, adminID, realmID string, branchDNs []string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin replace branch restrictions", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM branch_restrictions WHERE admin_id = $1 AND realm_id = $2`,
		adminID, realmID,
	); err != nil {
		return storeErr("clear branch restrictions", err)
	}

	for _, dn := range branchDNs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO branch_restrictions (restriction_id, admin_id, realm_id, branch_dn)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (admin_id, realm_id, branch_dn) DO NOTHING`,
			uuid.NewString(), adminID, realmID, dn,
		); err != nil {
			return storeErr("insert branch restriction", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit replace branch restrictions", err)
	}
	return nil
}

func (r *PostgresAssignmentsRepo) ListBranchRestrictionsByAdmin(ctx context.Context, adminID string) ([]*domain.BranchRestriction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT restriction_id::text, admin_id::text, realm_id::text, branch_dn
		 FROM branch_restrictions
		 WHERE admin_id = $1
		 ORDER BY realm_id, branch_dn`,
		adminID,
	)
	if err != nil {
		return nil, storeErr("list branch restrictions by admin", err)
	}
	defer rows.Close()

	var out []*domain.BranchRestriction
	for rows.Next() {
		var row domain.BranchRestriction
		if err := rows.Scan(&row.RestrictionID, &row.AdminID, &row.RealmID, &row.BranchDN); err != nil {
			return nil, storeErr("scan branch restriction", err)
		}
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate branch restrictions", err)
	}
	return out, nil
}

func (r *PostgresAssignmentsRepo) GetFeatureOverride(ctx context.Context, adminID string, key domain.FeatureKey) (*domain.FeatureOverride, error) {
	var row domain.FeatureOverride
	var k string
	err := r.db.QueryRowContext(ctx,
		`SELECT override_id::text, admin_id::text, feature_key, enabled
		 FROM feature_overrides
		 WHERE admin_id = $1 AND feature_key = $2`,
		adminID, string(key),
	).Scan(&row.OverrideID, &row.AdminID, &k, &row.Enabled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storeErr("query feature override", err)
	}
	row.FeatureKey = domain.FeatureKey(k)
	return &row, nil
}

// SetFeatureOverrides applies the batch in one transaction so a concurrent
// evaluation sees either the old or the new override set, never a mix.
func (r *PostgresAssignmentsRepo) SetFeatureOverrides(ctx context.Context, adminID string, settings []OverrideSetting) error {
	if len(settings) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin set feature overrides", err)
	}
	defer tx.Rollback()

	for _, s := range settings {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO feature_overrides (override_id, admin_id, feature_key, enabled)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (admin_id, feature_key)
			 DO UPDATE SET enabled = EXCLUDED.enabled`,
			uuid.NewString(), adminID, string(s.Key), s.Enabled,
		); err != nil {
			return storeErr("upsert feature override", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit set feature overrides", err)
	}
	return nil
}

func (r *PostgresAssignmentsRepo) ClearFeatureOverride(ctx context.Context, adminID string, key domain.FeatureKey) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM feature_overrides WHERE admin_id = $1 AND feature_key = $2`,
		adminID, string(key),
	)
	if err != nil {
		return storeErr("clear feature override", err)
	}
	return nil
}

func (r *PostgresAssignmentsRepo) ListFeatureOverrides(ctx context.Context, adminID string) ([]*domain.FeatureOverride, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT override_id::text, admin_id::text, feature_key, enabled
		 FROM feature_overrides
		 WHERE admin_id = $1
		 ORDER BY feature_key`,
		adminID,
	)
	if err != nil {
		return nil, storeErr("list feature overrides", err)
	}
	defer rows.Close()

	var out []*domain.FeatureOverride
	for rows.Next() {
		var row domain.FeatureOverride
		var k string
		if err := rows.Scan(&row.OverrideID, &row.AdminID, &k, &row.Enabled); err != nil {
			return nil, storeErr("scan feature override", err)
		}
		row.FeatureKey = domain.FeatureKey(k)
		out = append(out, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate feature overrides", err)
	}
	return out, nil
}

// DeleteAdminAssignments removes every row the admin owns across all four
// dimensions. Called when the owning AdminAccount is deleted.
func (r *PostgresAssignmentsRepo) DeleteAdminAssignments(ctx context.Context, adminID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin delete admin assignments", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM directory_roles WHERE admin_id = $1`,
		`DELETE FROM realm_roles WHERE admin_id = $1`,
		`DELETE FROM branch_restrictions WHERE admin_id = $1`,
		`DELETE FROM feature_overrides WHERE admin_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, adminID); err != nil {
			return storeErr("delete admin assignments", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit delete admin assignments", err)
	}
	return nil
}

func (r *PostgresAssignmentsRepo) DeleteDirectoryAssignments(ctx context.Context, directoryID string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM directory_roles WHERE directory_id = $1`,
		directoryID,
	)
	if err != nil {
		return storeErr("delete directory assignments", err)
	}
	return nil
}

func (r *PostgresAssignmentsRepo) DeleteRealmAssignments(ctx context.Context, realmID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin delete realm assignments", err)
	}
	defer tx.Rollback()

	for _, q := range []string{
		`DELETE FROM realm_roles WHERE realm_id = $1`,
		`DELETE FROM branch_restrictions WHERE realm_id = $1`,
	} {
		if _, err := tx.ExecContext(ctx, q, realmID); err != nil {
			return storeErr("delete realm assignments", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit delete realm assignments", err)
	}
	return nil
}
