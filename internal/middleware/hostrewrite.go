package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"medmap-admin/internal/tenant"
)

// RewriteTenantHost maps {slug}.{base-domain} request hosts onto
// tenant-scoped paths before routing. Registered with e.Pre so it runs
// ahead of the router. API and operational paths are never rewritten;
// they are tenant-agnostic by design.
func RewriteTenantHost(resolver *tenant.Resolver) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			slug := resolver.SlugFromHost(req.Host)
			if slug == "" || skipRewrite(req.URL.Path) {
				return next(c)
			}
			req.URL.Path = tenant.RewritePath(req.URL.Path, slug)
			return next(c)
		}
	}
}

func skipRewrite(path string) bool {
	return strings.HasPrefix(path, "/api/") ||
		path == "/health" ||
		path == "/metrics"
}
