package middleware

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"medmap-admin/internal/auth"
	"medmap-admin/pkg/logger"
	"medmap-admin/prometheus"
)

// TenantGate enforces the access decision on tenant-scoped page routes.
// The principal, when present, is reconstructed from the session token and
// revalidated against the store before the gate runs: the cached tenant
// slug in the token is never the basis of an ALLOW.
//
// A store failure during revalidation maps to the gate's PENDING state:
// 503 with Retry-After, never a silent allow.
func TenantGate(sessions *auth.SessionManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)
			slug := c.Param("slug")
			path := c.Request().URL.Path

			var principal *auth.Principal
			if token := bearerToken(c); token != "" {
				p, err := sessions.FromToken(token)
				if err == nil {
					switch err := sessions.Revalidate(p); {
					case err == nil:
						principal = p
					case errors.Is(err, auth.ErrTenantInconsistent):
						// Treated as an unauthorized session: the gate
						// sends it back to the tenant login.
						log.Warn("Gate: session tenant does not resolve",
							zap.String("user_id", p.User.ID))
						prometheus.RecordAuthError("tenant_inconsistent")
					default:
						log.Error("Gate: tenant lookup failed", zap.Error(err))
						prometheus.RecordGateDecision(auth.Pending.String())
						c.Response().Header().Set("Retry-After", "1")
						return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "pending"})
					}
				}
			}

			res := auth.Evaluate(principal, slug, path)
			prometheus.RecordGateDecision(res.Decision.String())

			switch res.Decision {
			case auth.Allow:
				if principal != nil {
					c.Set(PrincipalKey, principal)
				}
				return next(c)
			case auth.RedirectTenantLogin:
				target := auth.TenantLoginPath(slug)
				if res.Unauthorized {
					target += "?error=unauthorized"
				}
				return c.Redirect(http.StatusFound, target)
			case auth.RedirectGlobalLogin:
				return c.Redirect(http.StatusFound, "/login")
			case auth.RedirectTenantDashboard:
				return c.Redirect(http.StatusFound, "/"+slug+"/dashboard")
			case auth.RedirectAdminHome:
				return c.Redirect(http.StatusFound, "/admin")
			case auth.Pending:
				c.Response().Header().Set("Retry-After", "1")
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "pending"})
			}
			return echo.ErrInternalServerError
		}
	}
}
