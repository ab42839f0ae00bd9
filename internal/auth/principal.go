package auth

import (
	"medmap-admin/internal/model"
)

// Principal is the authenticated identity used for authorization
// decisions: the user record (password hash cleared) plus, for
// tenant-scoped roles, the resolved tenant configuration.
//
// Tenant may be nil in two situations: the user is ROOT, or the config has
// not been resolved yet. The access gate treats the latter as a transient
// PENDING state, never as an ALLOW.
type Principal struct {
	User   model.User
	Tenant *model.TenantConfig
}
