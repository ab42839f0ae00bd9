package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"medmap-admin/internal/auth"
	"medmap-admin/internal/model"
	"medmap-admin/pkg/logger"
	"medmap-admin/prometheus"
)

// PrincipalKey is the echo context key holding the revalidated principal.
const PrincipalKey = "principal"

// bearerToken extracts the session token from the Authorization header.
func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}

// AuthMiddleware validates the session token, revalidates the tenant
// reference against the store and places the principal in the context.
func AuthMiddleware(sessions *auth.SessionManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			token := bearerToken(c)
			if token == "" {
				log.Error("Missing or malformed Authorization header")
				prometheus.RecordAuthError("missing_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Token de autenticação ausente."})
			}

			principal, err := sessions.FromToken(token)
			if err != nil {
				log.Error("Invalid session token", zap.Error(err))
				prometheus.RecordAuthError("invalid_token")
				return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Token inválido ou expirado."})
			}

			if err := sessions.Revalidate(principal); err != nil {
				if errors.Is(err, auth.ErrTenantInconsistent) {
					log.Warn("Session tenant reference does not resolve",
						zap.String("user_id", principal.User.ID))
					prometheus.RecordAuthError("tenant_inconsistent")
					return c.JSON(http.StatusForbidden, echo.Map{"message": "Conta sem operadora válida associada."})
				}
				log.Error("Failed to revalidate session tenant", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
			}

			c.Set(PrincipalKey, principal)
			return next(c)
		}
	}
}

// RequireRoot restricts a route group to ROOT principals. Must run after
// AuthMiddleware.
func RequireRoot(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		principal, ok := c.Get(PrincipalKey).(*auth.Principal)
		if !ok {
			prometheus.RecordAuthError("missing_principal")
			return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Autenticação necessária."})
		}
		if principal.User.Role != model.RoleRoot {
			logger.FromContext(c).Warn("Non-ROOT access to admin area",
				zap.String("user_id", principal.User.ID),
				zap.String("role", string(principal.User.Role)))
			prometheus.RecordAuthError("root_required")
			return c.JSON(http.StatusForbidden, echo.Map{"message": "Acesso negado. Apenas ROOT pode acessar esta área."})
		}
		return next(c)
	}
}
