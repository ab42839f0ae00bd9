package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"medmap-admin/internal/tenant"
)

// Tenant-scoped page endpoints. These sit behind the TenantGate middleware
// and return the data the white-label views render. The pages themselves
// are placeholders; the gate in front of them is the point.

// TenantPage serves the dashboard/map/comparison placeholder payloads.
func (h *Handler) TenantPage(page string) echo.HandlerFunc {
	return func(c echo.Context) error {
		slug := c.Param("slug")
		cfg, err := h.Tenants.ConfigBySlug(slug)
		if err != nil {
			if errors.Is(err, tenant.ErrNotFound) {
				return c.JSON(http.StatusNotFound, echo.Map{"message": "Tenant não encontrado."})
			}
			return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
		}
		return c.JSON(http.StatusOK, echo.Map{
			"page":         page,
			"tenantConfig": cfg,
		})
	}
}

// TenantLoginPage serves the branding data the tenant login form renders.
// Reachable without a session: the gate allows the login path itself.
func (h *Handler) TenantLoginPage(c echo.Context) error {
	slug := c.Param("slug")
	cfg, err := h.Tenants.ConfigBySlug(slug)
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Tenant não encontrado."})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"page":         "login",
		"unauthorized": c.QueryParam("error") == "unauthorized",
		"tenantConfig": cfg,
	})
}
