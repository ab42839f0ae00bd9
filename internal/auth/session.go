package auth

import (
	"errors"

	"medmap-admin/internal/model"
	"medmap-admin/internal/tenant"
	"medmap-admin/pkg/jwtutil"
)

// SessionManager issues and reconstructs the client-held session record.
// There is no server-side session store: the signed token is the session,
// and the tenant config inside it is advisory only. Revalidate must run
// before any authorization decision that depends on the tenant.
type SessionManager struct {
	tenants *tenant.Store
}

func NewSessionManager(tenants *tenant.Store) *SessionManager {
	return &SessionManager{tenants: tenants}
}

// Issue creates the session token for a verified principal.
func (m *SessionManager) Issue(p *Principal) (string, error) {
	slug := ""
	if p.Tenant != nil {
		slug = p.Tenant.Slug
	}
	return jwtutil.GenerateToken(jwtutil.SessionClaims{
		UserID:     p.User.ID,
		Email:      p.User.Email,
		Name:       p.User.Name,
		Role:       string(p.User.Role),
		TenantID:   p.User.TenantID,
		TenantSlug: slug,
	})
}

// FromToken reconstructs the principal from a session token. The tenant
// config is left unresolved; callers run Revalidate before using the
// principal for authorization.
func (m *SessionManager) FromToken(token string) (*Principal, error) {
	claims, err := jwtutil.ValidateToken(token)
	if err != nil {
		return nil, err
	}
	return &Principal{
		User: model.User{
			ID:       claims.UserID,
			Email:    claims.Email,
			Name:     claims.Name,
			Role:     model.Role(claims.Role),
			TenantID: claims.TenantID,
		},
	}, nil
}

// Revalidate re-resolves the principal's tenant configuration from the
// store, discarding whatever the client held. Returns
// ErrTenantInconsistent when a tenant-scoped principal's reference does
// not resolve.
func (m *SessionManager) Revalidate(p *Principal) error {
	if !p.User.Role.TenantScoped() {
		p.Tenant = nil
		return nil
	}
	if p.User.TenantID == nil {
		return ErrTenantInconsistent
	}
	cfg, err := m.tenants.ConfigByID(*p.User.TenantID)
	if errors.Is(err, tenant.ErrNotFound) {
		return ErrTenantInconsistent
	}
	if err != nil {
		return err
	}
	p.Tenant = cfg
	return nil
}
