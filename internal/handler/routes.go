package handler

import (
	"github.com/labstack/echo/v4"

	"medmap-admin/internal/middleware"
	"medmap-admin/internal/tenant"
)

// RegisterRoutes wires the full HTTP surface onto e: the hostname rewrite,
// the public auth/config endpoints, the ROOT-only admin area and the gated
// tenant page routes.
func RegisterRoutes(e *echo.Echo, h *Handler, resolver *tenant.Resolver) {
	// Hostname-based tenant routing runs before the router sees the path.
	e.Pre(middleware.RewriteTenantHost(resolver))

	// Public routes - no authentication required
	e.GET("/health", HealthCheck)
	e.GET("/metrics", MetricsHandler)

	api := e.Group("/api")

	// Authentication routes
	authGroup := api.Group("/auth")
	authGroup.POST("/login", h.Login)
	authGroup.POST("/register", h.Register)

	// Public tenant configuration for white-label rendering
	api.GET("/tenants/:id", h.TenantConfig)

	admin := api.Group("/admin")
	// Guarded by the environment gate password, not by a session
	admin.POST("/register-root", h.RegisterRoot)

	// ROOT-only tenant administration
	rootOnly := admin.Group("", middleware.AuthMiddleware(h.Sessions), middleware.RequireRoot)
	rootOnly.POST("/tenants/add", h.CreateTenant)
	rootOnly.GET("/tenants", h.ListTenants)
	rootOnly.GET("/tenants/:id", h.GetTenant)
	rootOnly.PUT("/tenants/:id", h.UpdateTenant)
	rootOnly.DELETE("/tenants/:id", h.DeleteTenant)
	rootOnly.POST("/operators/add", h.CreateOperatorAdmin)
	rootOnly.GET("/users/count", h.UsersCount)

	// Tenant-scoped pages sit behind the access gate
	pages := e.Group("/:slug", middleware.TenantGate(h.Sessions))
	pages.GET("/login", h.TenantLoginPage)
	pages.GET("/dashboard", h.TenantPage("dashboard"))
	pages.GET("/mapa", h.TenantPage("mapa"))
	pages.GET("/comparar", h.TenantPage("comparar"))
	pages.GET("/minha-rede", h.TenantPage("minha-rede"))
	pages.GET("/alerts", h.TenantPage("alerts"))
}
