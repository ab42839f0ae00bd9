package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"medmap-admin/internal/auth"
	"medmap-admin/internal/provision"
	"medmap-admin/internal/tenant"
	"medmap-admin/pkg/config"
)

// Handler carries the wired services behind the HTTP surface.
type Handler struct {
	DB        *gorm.DB
	Verifier  *auth.Verifier
	Sessions  *auth.SessionManager
	Provision *provision.Service
	Tenants   *tenant.Store
	Config    *config.Config
}

func New(db *gorm.DB, verifier *auth.Verifier, sessions *auth.SessionManager,
	prov *provision.Service, tenants *tenant.Store, cfg *config.Config) *Handler {
	return &Handler{
		DB:        db,
		Verifier:  verifier,
		Sessions:  sessions,
		Provision: prov,
		Tenants:   tenants,
		Config:    cfg,
	}
}

// conflictMessage names the offending field so the form can highlight it.
func conflictMessage(field string) string {
	switch field {
	case "cnpj":
		return "Já existe um Tenant com este CNPJ."
	case "slug":
		return "Já existe um Tenant com este Slug. Por favor, escolha outro."
	case "adminEmail":
		return "Email do administrador já está em uso."
	case "email":
		return "Este email já está em uso."
	}
	return "Valor já está em uso: " + field + "."
}

// provisionError translates provisioning errors onto the HTTP surface.
// Validation and conflict responses always name the field; anything else
// is a generic 500 with the detail logged by the caller.
func provisionError(c echo.Context, err error) error {
	var validation *provision.ValidationError
	if errors.As(err, &validation) {
		return c.JSON(http.StatusBadRequest, echo.Map{
			"message": "Campo obrigatório: " + validation.Field + ".",
			"field":   validation.Field,
		})
	}
	var conflict *provision.ConflictError
	if errors.As(err, &conflict) {
		return c.JSON(http.StatusConflict, echo.Map{
			"message": conflictMessage(conflict.Field),
			"field":   conflict.Field,
		})
	}
	if errors.Is(err, provision.ErrTenantNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"message": "Tenant não encontrado."})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"message": "Erro interno do servidor."})
}
