package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"medmap-admin/internal/tenant"
	"medmap-admin/pkg/logger"
	"medmap-admin/prometheus"
)

// TenantConfig returns the public white-label projection of a tenant —
// branding only, nothing administrative. Used by clients to hydrate
// tenant branding before full authorization resolves.
func (h *Handler) TenantConfig(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("query")(time.Now())

	cfg, err := h.Tenants.ConfigByID(c.Param("id"))
	if err != nil {
		if errors.Is(err, tenant.ErrNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Tenant não encontrado."})
		}
		log.Error("Failed to load tenant config", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
	}
	return c.JSON(http.StatusOK, cfg)
}
