package handler

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"medmap-admin/internal/auth"
	"medmap-admin/internal/model"
	"medmap-admin/internal/provision"
	"medmap-admin/internal/tenant"
	"medmap-admin/pkg/config"
	"medmap-admin/pkg/database"
	"medmap-admin/pkg/jwtutil"
)

type testApp struct {
	echo     *echo.Echo
	handler  *Handler
	db       *gorm.DB
	sessions *auth.SessionManager
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	cfg := &config.Config{
		JWT: config.JWTConfig{
			SigningKey:      "test-signing-key",
			ExpirationHours: 1,
		},
		Tenant: config.TenantConfig{
			BaseDomain: "medmap.test",
			ApexLabel:  "www",
		},
		Auth: config.AuthConfig{
			RootGatePassword: "bootstrap-gate",
		},
	}
	jwtutil.Initialize(&cfg.JWT)

	db, err := database.Open(sqlite.Open(":memory:"), gormlogger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection so every query sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	resolver := tenant.NewResolver(cfg.Tenant.BaseDomain, cfg.Tenant.ApexLabel)
	tenants := tenant.NewStore(db)
	verifier := auth.NewVerifier(db, tenants)
	sessions := auth.NewSessionManager(tenants)
	provisioner := provision.NewService(db, zap.NewNop())
	h := New(db, verifier, sessions, provisioner, tenants, cfg)

	e := echo.New()
	RegisterRoutes(e, h, resolver)

	return &testApp{echo: e, handler: h, db: db, sessions: sessions}
}

// request performs an in-process HTTP request and returns the recorder.
func (a *testApp) request(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = strings.NewReader(string(raw))
	} else {
		reader = strings.NewReader("")
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.echo.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// seedRoot creates a ROOT user directly in the store and returns a valid
// session token for it.
func (a *testApp) seedRoot(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("rootpass"), bcrypt.MinCost)
	require.NoError(t, err)
	root := model.User{
		Email:    "root@medmap.com",
		Name:     "Root",
		Password: string(hash),
		Role:     model.RoleRoot,
	}
	require.NoError(t, a.db.Create(&root).Error)

	token, err := a.sessions.Issue(&auth.Principal{User: root})
	require.NoError(t, err)
	return token
}

// seedTenant provisions a tenant with its admin through the service and
// returns the tenant plus a session token for the admin.
func (a *testApp) seedTenant(t *testing.T, name, cnpj, email string) (*model.Tenant, string) {
	t.Helper()
	out, err := a.handler.Provision.CreateTenantWithAdmin(provision.TenantInput{
		Name:          name,
		CNPJ:          cnpj,
		LogoURL:       "https://cdn.medmap.test/logo.png",
		Color:         "#0044cc",
		AdminName:     "Admin " + name,
		AdminEmail:    email,
		AdminPassword: "s3cret",
	})
	require.NoError(t, err)

	cfg := out.Tenant.Config()
	token, err := a.sessions.Issue(&auth.Principal{User: out.Admin, Tenant: &cfg})
	require.NoError(t, err)
	return &out.Tenant, token
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	require.Equal(t, want, rec.Code, "body: %s", rec.Body.String())
}
