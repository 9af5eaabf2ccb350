package repository

import (
	"context"
	"database/sql"
	"fmt"

	"ldapadmin-authz/internal/domain"
)

// PostgresScopeRegistry resolves tenants, directories, realms and admin
// accounts from the portal database. Read-only: entity lifecycle is owned
// by the provisioning layer; ON DELETE CASCADE on the assignment tables
// keeps cleanup consistent with the in-memory registry.
type PostgresScopeRegistry struct {
	db *sql.DB
}

func NewPostgresScopeRegistry(db *sql.DB) *PostgresScopeRegistry {
	return &PostgresScopeRegistry{db: db}
}

var _ ScopeRegistry = (*PostgresScopeRegistry)(nil)

func (r *PostgresScopeRegistry) ResolveTenant(ctx context.Context, tenantID string) (*domain.Tenant, error) {
	var t domain.Tenant
	err := r.db.QueryRowContext(ctx,
		`SELECT tenant_id::text, tenant_name, domain, status, contact_email
		 FROM tenants
		 WHERE tenant_id = $1`,
		tenantID,
	).Scan(&t.TenantID, &t.TenantName, &t.Domain, &t.Status, &t.ContactEmail)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: tenant %s", domain.ErrNotFound, tenantID)
	}
	if err != nil {
		return nil, storeErr("query tenant", err)
	}
	return &t, nil
}

func (r *PostgresScopeRegistry) ResolveAdmin(ctx context.Context, adminID string) (*domain.AdminAccount, error) {
	var a domain.AdminAccount
	err := r.db.QueryRowContext(ctx,
		`SELECT admin_id::text, tenant_id::text, account, display_name, email, active
		 FROM admin_accounts
		 WHERE admin_id = $1`,
		adminID,
	).Scan(&a.AdminID, &a.TenantID, &a.Account, &a.DisplayName, &a.Email, &a.Active)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: admin %s", domain.ErrNotFound, adminID)
	}
	if err != nil {
		return nil, storeErr("query admin account", err)
	}
	return &a, nil
}

func (r *PostgresScopeRegistry) ResolveDirectory(ctx context.Context, directoryID string) (*domain.Directory, error) {
	var d domain.Directory
	err := r.db.QueryRowContext(ctx,
		`SELECT directory_id::text, tenant_id::text, directory_name, host, port,
		        base_dn, vendor, use_tls, bind_user
		 FROM directories
		 WHERE directory_id = $1`,
		directoryID,
	).Scan(&d.DirectoryID, &d.TenantID, &d.DirectoryName, &d.Host, &d.Port,
		&d.BaseDN, &d.Vendor, &d.UseTLS, &d.BindUser)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: directory %s", domain.ErrNotFound, directoryID)
	}
	if err != nil {
		return nil, storeErr("query directory", err)
	}
	return &d, nil
}

func (r *PostgresScopeRegistry) ResolveRealm(ctx context.Context, realmID string) (*domain.Realm, error) {
	var rm domain.Realm
	err := r.db.QueryRowContext(ctx,
		`SELECT realm_id::text, directory_id::text, realm_name, user_base_dn,
		        group_base_dn, user_object_class, group_object_class
		 FROM realms
		 WHERE realm_id = $1`,
		realmID,
	).Scan(&rm.RealmID, &rm.DirectoryID, &rm.RealmName, &rm.UserBaseDN,
		&rm.GroupBaseDN, &rm.UserObjectClass, &rm.GroupObjectClass)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: realm %s", domain.ErrNotFound, realmID)
	}
	if err != nil {
		return nil, storeErr("query realm", err)
	}
	return &rm, nil
}
