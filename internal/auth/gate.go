package auth

import (
	"medmap-admin/internal/model"
)

// Decision is the outcome of evaluating access to a protected view.
type Decision int

const (
	Allow Decision = iota
	RedirectTenantLogin
	RedirectGlobalLogin
	RedirectTenantDashboard
	RedirectAdminHome
	// Pending is the transient state while a tenant-scoped principal's
	// tenant config is still unresolved. Callers render a loading state
	// and re-evaluate; Pending is never an ALLOW and never a redirect.
	Pending
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectTenantLogin:
		return "redirect-tenant-login"
	case RedirectGlobalLogin:
		return "redirect-global-login"
	case RedirectTenantDashboard:
		return "redirect-tenant-dashboard"
	case RedirectAdminHome:
		return "redirect-admin-home"
	case Pending:
		return "pending"
	}
	return "unknown"
}

// Result carries the decision plus the unauthorized marker, which lets the
// login page show a different message for a signed-in user of the wrong
// tenant than for a signed-out visitor. The destination is the same.
type Result struct {
	Decision     Decision
	Unauthorized bool
}

// TenantLoginPath returns the login path for a tenant slug.
func TenantLoginPath(slug string) string {
	return "/" + slug + "/login"
}

// Evaluate is the single authorization decision function, consulted before
// rendering any protected view. It is pure and total over its inputs: it
// never touches the store and never fails. principal == nil means
// unauthenticated. requestedSlug == "" means a non-tenant (admin) area,
// which only ROOT may enter.
//
// Tenant match is decided against the authoritative config resolved from
// the store (id and slug both), never against the URL slug alone, so a
// user cannot reach another tenant's pages by editing the path.
func Evaluate(p *Principal, requestedSlug, requestedPath string) Result {
	if requestedSlug == "" {
		if p == nil {
			return Result{Decision: RedirectGlobalLogin}
		}
		if p.User.Role == model.RoleRoot {
			return Result{Decision: Allow}
		}
		return Result{Decision: RedirectGlobalLogin, Unauthorized: true}
	}

	loginPath := TenantLoginPath(requestedSlug)

	if p == nil {
		if requestedPath == loginPath {
			return Result{Decision: Allow}
		}
		return Result{Decision: RedirectTenantLogin}
	}

	if p.User.Role == model.RoleRoot {
		// A ROOT never needs tenant-scoped login; sending them there
		// again would loop.
		if requestedPath == loginPath {
			return Result{Decision: RedirectAdminHome}
		}
		return Result{Decision: Allow}
	}

	if p.Tenant == nil {
		return Result{Decision: Pending}
	}

	correctTenant := p.User.TenantID != nil &&
		*p.User.TenantID == p.Tenant.ID &&
		p.Tenant.Slug == requestedSlug
	if !correctTenant {
		return Result{Decision: RedirectTenantLogin, Unauthorized: true}
	}
	if requestedPath == loginPath {
		return Result{Decision: RedirectTenantDashboard}
	}
	return Result{Decision: Allow}
}
