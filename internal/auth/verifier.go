package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"medmap-admin/internal/model"
	"medmap-admin/internal/tenant"
)

var (
	// ErrInvalidCredentials is the single opaque failure for unknown
	// email, wrong password and tenant-slug mismatch alike. Callers must
	// not distinguish the causes in anything client-visible.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTenantInconsistent means an authenticated user carries a tenant
	// reference that does not resolve. Data-integrity anomaly, not a
	// credentials failure.
	ErrTenantInconsistent = errors.New("user tenant reference does not resolve")
)

// Verifier authenticates email/password pairs against the identity store.
type Verifier struct {
	db      *gorm.DB
	tenants *tenant.Store
}

func NewVerifier(db *gorm.DB, tenants *tenant.Store) *Verifier {
	return &Verifier{db: db, tenants: tenants}
}

// Verify checks the credentials and, for tenant-scoped roles, resolves the
// tenant configuration. When tenantSlug is non-empty (tenant-scoped login)
// a user belonging to a different tenant fails with the same opaque
// ErrInvalidCredentials rather than revealing the account exists.
//
// The returned principal never carries the password hash.
func (v *Verifier) Verify(email, password, tenantSlug string) (*Principal, error) {
	var user model.User
	if err := v.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}

	p := &Principal{User: user}
	p.User.Password = ""

	if !user.Role.TenantScoped() {
		// ROOT has no tenant affiliation and may log in from any host.
		return p, nil
	}

	if user.TenantID == nil {
		return nil, ErrTenantInconsistent
	}
	cfg, err := v.tenants.ConfigByID(*user.TenantID)
	if errors.Is(err, tenant.ErrNotFound) {
		return nil, ErrTenantInconsistent
	}
	if err != nil {
		return nil, err
	}
	if tenantSlug != "" && cfg.Slug != tenantSlug {
		return nil, ErrInvalidCredentials
	}
	p.Tenant = cfg
	return p, nil
}
