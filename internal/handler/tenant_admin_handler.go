package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"medmap-admin/internal/model"
	"medmap-admin/internal/provision"
	"medmap-admin/pkg/logger"
	"medmap-admin/prometheus"
)

// CreateTenant provisions a tenant plus its first administrator as one
// atomic unit. ROOT only.
func (h *Handler) CreateTenant(c echo.Context) error {
	log := logger.FromContext(c)

	var in provision.TenantInput
	if err := c.Bind(&in); err != nil {
		log.Error("Failed to parse tenant provisioning request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Requisição inválida."})
	}

	result, err := h.Provision.CreateTenantWithAdmin(in)
	if err != nil {
		log.Warn("Tenant provisioning rejected", zap.Error(err))
		return provisionError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"tenant":    result.Tenant,
		"adminUser": result.Admin,
		"message": fmt.Sprintf("Tenant %q (slug: %s) e administrador criados com sucesso!",
			result.Tenant.Name, result.Tenant.Slug),
	})
}

// CreateOperatorAdmin provisions an additional administrator under an
// existing tenant. ROOT only.
func (h *Handler) CreateOperatorAdmin(c echo.Context) error {
	log := logger.FromContext(c)

	var in provision.OperatorInput
	if err := c.Bind(&in); err != nil {
		log.Error("Failed to parse operator provisioning request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Requisição inválida."})
	}

	result, err := h.Provision.CreateOperatorAdmin(in)
	if err != nil {
		return provisionError(c, err)
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"tenant":    result.Tenant,
		"adminUser": result.Admin,
		"message":   "Administrador da operadora criado com sucesso!",
	})
}

// ListTenants returns all tenants, newest first. ROOT only.
func (h *Handler) ListTenants(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("query")(time.Now())

	var tenants []model.Tenant
	if err := h.DB.Order("created_at DESC").Find(&tenants).Error; err != nil {
		log.Error("Failed to list tenants", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
	}

	prometheus.UpdateActiveTenants(len(tenants))
	return c.JSON(http.StatusOK, tenants)
}

// GetTenant returns one tenant's full administrative projection. ROOT only.
func (h *Handler) GetTenant(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("query")(time.Now())

	var tenant model.Tenant
	if err := h.DB.First(&tenant, "id = ?", c.Param("id")).Error; err != nil {
		log.Warn("Tenant not found", zap.String("id", c.Param("id")))
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Tenant não encontrado."})
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenant applies a field-validated update. ROOT only.
func (h *Handler) UpdateTenant(c echo.Context) error {
	log := logger.FromContext(c)

	var in provision.UpdateInput
	if err := c.Bind(&in); err != nil {
		log.Error("Failed to parse tenant update request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"message": "Requisição inválida."})
	}

	tenant, err := h.Provision.UpdateTenant(c.Param("id"), in)
	if err != nil {
		return provisionError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// DeleteTenant removes a tenant and everything scoped to it. ROOT only.
func (h *Handler) DeleteTenant(c echo.Context) error {
	log := logger.FromContext(c)

	if err := h.Provision.DeleteTenant(c.Param("id")); err != nil {
		if errors.Is(err, provision.ErrTenantNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"message": "Tenant não encontrado para exclusão."})
		}
		log.Error("Tenant deletion failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor ao excluir tenant."})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "Tenant excluído com sucesso."})
}

// UsersCount returns the total user count across all tenants. ROOT only.
func (h *Handler) UsersCount(c echo.Context) error {
	log := logger.FromContext(c)
	defer prometheus.TrackDBOperation("query")(time.Now())

	var count int64
	if err := h.DB.Model(&model.User{}).Count(&count).Error; err != nil {
		log.Error("Failed to count users", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
	}
	return c.JSON(http.StatusOK, echo.Map{"count": count})
}
