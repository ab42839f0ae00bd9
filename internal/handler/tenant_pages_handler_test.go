package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTenantLoginPagePublic(t *testing.T) {
	app := newTestApp(t)
	app.seedTenant(t, "Acme Saude", "12.345.678/0001-90", "ana@acme.com")

	rec := app.request(http.MethodGet, "/acme-saude/login", "", nil)
	assertStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	assert.Equal(t, "login", body["page"])
	assert.Equal(t, false, body["unauthorized"])

	cfg := body["tenantConfig"].(map[string]interface{})
	assert.Equal(t, "acme-saude", cfg["slug"])
	assert.NotContains(t, cfg, "cnpj", "public projection carries branding only")
}

func TestTenantPageRedirectsAnonymous(t *testing.T) {
	app := newTestApp(t)
	app.seedTenant(t, "Acme Saude", "12.345.678/0001-90", "ana@acme.com")

	for _, path := range []string{"/acme-saude/dashboard", "/acme-saude/mapa", "/acme-saude/comparar"} {
		rec := app.request(http.MethodGet, path, "", nil)
		assertStatus(t, rec, http.StatusFound)
		assert.Equal(t, "/acme-saude/login", rec.Header().Get("Location"), "path=%s", path)
	}
}

func TestTenantPageAllowsOwnTenant(t *testing.T) {
	app := newTestApp(t)
	_, token := app.seedTenant(t, "Acme Saude", "12.345.678/0001-90", "ana@acme.com")

	rec := app.request(http.MethodGet, "/acme-saude/dashboard", token, nil)
	assertStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	assert.Equal(t, "dashboard", body["page"])
}

func TestTenantPageRejectsForeignTenant(t *testing.T) {
	app := newTestApp(t)
	_, acmeToken := app.seedTenant(t, "Acme Saude", "12.345.678/0001-90", "ana@acme.com")
	app.seedTenant(t, "Other Op", "99.999.999/0001-99", "admin@other.com")

	rec := app.request(http.MethodGet, "/other-op/dashboard", acmeToken, nil)
	assertStatus(t, rec, http.StatusFound)
	assert.Equal(t, "/other-op/login?error=unauthorized", rec.Header().Get("Location"))
}

func TestTenantLoginPageShowsUnauthorizedMarker(t *testing.T) {
	app := newTestApp(t)
	app.seedTenant(t, "Acme Saude", "12.345.678/0001-90", "ana@acme.com")

	rec := app.request(http.MethodGet, "/acme-saude/login?error=unauthorized", "", nil)
	assertStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	assert.Equal(t, true, body["unauthorized"])
}

func TestTenantLoginRedirectsAuthenticated(t *testing.T) {
	app := newTestApp(t)
	_, token := app.seedTenant(t, "Acme Saude", "12.345.678/0001-90", "ana@acme.com")

	rec := app.request(http.MethodGet, "/acme-saude/login", token, nil)
	assertStatus(t, rec, http.StatusFound)
	assert.Equal(t, "/acme-saude/dashboard", rec.Header().Get("Location"))
}

func TestTenantPagesRootAccess(t *testing.T) {
	app := newTestApp(t)
	rootToken := app.seedRoot(t)
	app.seedTenant(t, "Acme Saude", "12.345.678/0001-90", "ana@acme.com")

	// ROOT walks into any tenant's pages.
	rec := app.request(http.MethodGet, "/acme-saude/dashboard", rootToken, nil)
	assertStatus(t, rec, http.StatusOK)

	// But the tenant login page bounces ROOT to the admin area.
	rec = app.request(http.MethodGet, "/acme-saude/login", rootToken, nil)
	assertStatus(t, rec, http.StatusFound)
	assert.Equal(t, "/admin", rec.Header().Get("Location"))
}

func TestTenantPageSessionDiesWithTenant(t *testing.T) {
	app := newTestApp(t)
	rootToken := app.seedRoot(t)
	tn, token := app.seedTenant(t, "Acme Saude", "12.345.678/0001-90", "ana@acme.com")

	rec := app.request(http.MethodGet, "/acme-saude/dashboard", token, nil)
	assertStatus(t, rec, http.StatusOK)

	rec = app.request(http.MethodDelete, "/api/admin/tenants/"+tn.ID, rootToken, nil)
	assertStatus(t, rec, http.StatusOK)

	// The still-valid token no longer opens the gate: the store, not the
	// token, is the authority.
	rec = app.request(http.MethodGet, "/acme-saude/dashboard", token, nil)
	assertStatus(t, rec, http.StatusFound)
	assert.Equal(t, "/acme-saude/login", rec.Header().Get("Location"))
}

func TestHostRewriteRoutesTenantSubdomain(t *testing.T) {
	app := newTestApp(t)
	app.seedTenant(t, "Acme Saude", "12.345.678/0001-90", "ana@acme.com")

	req := httptest.NewRequest(http.MethodGet, "http://acme-saude.medmap.test/", nil)
	rec := httptest.NewRecorder()
	app.echo.ServeHTTP(rec, req)

	// "/" became "/acme-saude/dashboard"; anonymous, so the gate sends
	// the client to the tenant login.
	assertStatus(t, rec, http.StatusFound)
	assert.Equal(t, "/acme-saude/login", rec.Header().Get("Location"))
}

func TestHostRewriteLeavesAPIAlone(t *testing.T) {
	app := newTestApp(t)
	app.seedTenant(t, "Acme Saude", "12.345.678/0001-90", "ana@acme.com")

	req := httptest.NewRequest(http.MethodPost, "http://acme-saude.medmap.test/api/auth/login", nil)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	app.echo.ServeHTTP(rec, req)

	// Reached the login handler (400 for the empty body), not a rewrite.
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTenantConfigEndpoint(t *testing.T) {
	app := newTestApp(t)
	tn, _ := app.seedTenant(t, "Acme Saude", "12.345.678/0001-90", "ana@acme.com")

	rec := app.request(http.MethodGet, "/api/tenants/"+tn.ID, "", nil)
	assertStatus(t, rec, http.StatusOK)
	body := decode(t, rec)
	assert.Equal(t, "acme-saude", body["slug"])
	assert.Equal(t, "Acme Saude", body["name"])
	assert.NotContains(t, body, "cnpj")
	assert.NotContains(t, body, "address")

	rec = app.request(http.MethodGet, "/api/tenants/unknown", "", nil)
	assertStatus(t, rec, http.StatusNotFound)
}
