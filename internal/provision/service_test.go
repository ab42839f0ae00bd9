package provision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"medmap-admin/internal/model"
	"medmap-admin/pkg/database"
)

func newTestService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db, err := database.Open(sqlite.Open(":memory:"), gormlogger.Silent)
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection so every query sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)
	return NewService(db, zap.NewNop()), db
}

func validInput() TenantInput {
	return TenantInput{
		Name:          "Acme Saude",
		CNPJ:          "12.345.678/0001-90",
		LogoURL:       "https://cdn.acme.com/logo.png",
		Color:         "#0044cc",
		AdminName:     "Ana Admin",
		AdminEmail:    "ana@acme.com",
		AdminPassword: "s3cret",
	}
}

func countRows(t *testing.T, db *gorm.DB, m interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(m).Count(&n).Error)
	return n
}

func TestCreateTenantWithAdmin(t *testing.T) {
	s, db := newTestService(t)

	out, err := s.CreateTenantWithAdmin(validInput())
	require.NoError(t, err)

	assert.NotEmpty(t, out.Tenant.ID)
	assert.Equal(t, "acme-saude", out.Tenant.Slug, "slug derives from the name when not supplied")
	assert.Equal(t, model.RoleAdmin, out.Admin.Role)
	require.NotNil(t, out.Admin.TenantID)
	assert.Equal(t, out.Tenant.ID, *out.Admin.TenantID)
	assert.Empty(t, out.Admin.Password, "hash must not leave the service")

	// The hash is stored, not the plaintext.
	var stored model.User
	require.NoError(t, db.First(&stored, "id = ?", out.Admin.ID).Error)
	assert.NotEmpty(t, stored.Password)
	assert.NotEqual(t, "s3cret", stored.Password)
}

func TestCreateTenantWithAdminExplicitSlug(t *testing.T) {
	s, _ := newTestService(t)

	in := validInput()
	in.Slug = "custom-slug"
	out, err := s.CreateTenantWithAdmin(in)
	require.NoError(t, err)
	assert.Equal(t, "custom-slug", out.Tenant.Slug)
}

func TestCreateTenantValidation(t *testing.T) {
	s, db := newTestService(t)

	tests := []struct {
		field  string
		mutate func(*TenantInput)
	}{
		{"name", func(in *TenantInput) { in.Name = "" }},
		{"cnpj", func(in *TenantInput) { in.CNPJ = "" }},
		{"logoUrl", func(in *TenantInput) { in.LogoURL = "" }},
		{"color", func(in *TenantInput) { in.Color = "" }},
		{"adminName", func(in *TenantInput) { in.AdminName = "" }},
		{"adminEmail", func(in *TenantInput) { in.AdminEmail = "" }},
		{"adminPassword", func(in *TenantInput) { in.AdminPassword = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			out, err := s.CreateTenantWithAdmin(in)
			assert.Nil(t, out)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}

	// Rejected input leaves no rows behind.
	assert.Zero(t, countRows(t, db, &model.Tenant{}))
	assert.Zero(t, countRows(t, db, &model.User{}))
}

func TestCreateTenantConflicts(t *testing.T) {
	s, db := newTestService(t)

	_, err := s.CreateTenantWithAdmin(validInput())
	require.NoError(t, err)

	tests := []struct {
		name   string
		field  string
		mutate func(*TenantInput)
	}{
		{
			name:  "duplicate slug",
			field: "slug",
			mutate: func(in *TenantInput) {
				in.CNPJ = "99.999.999/0001-99"
				in.AdminEmail = "other@acme.com"
				// Same name, same derived slug.
			},
		},
		{
			name:  "duplicate cnpj",
			field: "cnpj",
			mutate: func(in *TenantInput) {
				in.Name = "Other Operadora"
				in.AdminEmail = "other@acme.com"
			},
		},
		{
			name:  "duplicate admin email",
			field: "adminEmail",
			mutate: func(in *TenantInput) {
				in.Name = "Other Operadora"
				in.CNPJ = "99.999.999/0001-99"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			out, err := s.CreateTenantWithAdmin(in)
			assert.Nil(t, out)

			var cerr *ConflictError
			require.ErrorAs(t, err, &cerr)
			assert.Equal(t, tt.field, cerr.Field)
		})
	}

	// Only the first provisioning left rows behind.
	assert.EqualValues(t, 1, countRows(t, db, &model.Tenant{}))
	assert.EqualValues(t, 1, countRows(t, db, &model.User{}))
}

// A failure on the admin insert must roll back the tenant insert: no
// observer ever sees a tenant without its administrator.
func TestCreateTenantNoPartialState(t *testing.T) {
	s, db := newTestService(t)

	require.NoError(t, db.Exec(`
		CREATE TRIGGER force_admin_failure BEFORE INSERT ON users
		WHEN NEW.email = 'boom@acme.com'
		BEGIN
			SELECT RAISE(ABORT, 'forced admin insert failure');
		END`).Error)

	in := validInput()
	in.AdminEmail = "boom@acme.com"
	out, err := s.CreateTenantWithAdmin(in)
	assert.Nil(t, out)
	require.Error(t, err)

	assert.Zero(t, countRows(t, db, &model.Tenant{}), "tenant insert must be rolled back")
	assert.Zero(t, countRows(t, db, &model.User{}))

	// The same slug and CNPJ are free for a retry.
	require.NoError(t, db.Exec(`DROP TRIGGER force_admin_failure`).Error)
	in.AdminEmail = "ana@acme.com"
	_, err = s.CreateTenantWithAdmin(in)
	assert.NoError(t, err)
}

func TestCreateOperatorAdmin(t *testing.T) {
	s, _ := newTestService(t)

	base, err := s.CreateTenantWithAdmin(validInput())
	require.NoError(t, err)

	out, err := s.CreateOperatorAdmin(OperatorInput{
		TenantID:      base.Tenant.ID,
		AdminName:     "Bruno Backup",
		AdminEmail:    "bruno@acme.com",
		AdminPassword: "s3cret",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, out.Admin.Role)
	require.NotNil(t, out.Admin.TenantID)
	assert.Equal(t, base.Tenant.ID, *out.Admin.TenantID)
	assert.Empty(t, out.Admin.Password)
}

func TestCreateOperatorAdminUnknownTenant(t *testing.T) {
	s, db := newTestService(t)

	out, err := s.CreateOperatorAdmin(OperatorInput{
		TenantID:      "00000000-0000-0000-0000-000000000000",
		AdminName:     "Bruno",
		AdminEmail:    "bruno@acme.com",
		AdminPassword: "s3cret",
	})
	assert.Nil(t, out)
	assert.ErrorIs(t, err, ErrTenantNotFound)
	assert.Zero(t, countRows(t, db, &model.User{}))
}

func TestUpdateTenant(t *testing.T) {
	s, _ := newTestService(t)

	base, err := s.CreateTenantWithAdmin(validInput())
	require.NoError(t, err)

	updated, err := s.UpdateTenant(base.Tenant.ID, UpdateInput{
		Name:                "Acme Renamed",
		CNPJ:                base.Tenant.CNPJ,
		LogoURL:             "https://cdn.acme.com/new.png",
		Color:               "#ff0000",
		City:                "Sao Paulo",
		IsPremiumSubscriber: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme Renamed", updated.Name)
	assert.True(t, updated.IsPremiumSubscriber)
	assert.Equal(t, base.Tenant.Slug, updated.Slug, "slug is not editable")
}

func TestUpdateTenantCNPJConflict(t *testing.T) {
	s, _ := newTestService(t)

	first, err := s.CreateTenantWithAdmin(validInput())
	require.NoError(t, err)

	in := validInput()
	in.Name = "Other Operadora"
	in.CNPJ = "99.999.999/0001-99"
	in.AdminEmail = "other@op.com"
	second, err := s.CreateTenantWithAdmin(in)
	require.NoError(t, err)

	_, err = s.UpdateTenant(second.Tenant.ID, UpdateInput{
		Name:    "Other Operadora",
		CNPJ:    first.Tenant.CNPJ,
		LogoURL: "https://cdn.op.com/logo.png",
		Color:   "#00ff00",
	})
	var cerr *ConflictError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "cnpj", cerr.Field)
}

func TestUpdateTenantNotFound(t *testing.T) {
	s, _ := newTestService(t)

	_, err := s.UpdateTenant("00000000-0000-0000-0000-000000000000", UpdateInput{
		Name:    "Ghost",
		CNPJ:    "11.111.111/0001-11",
		LogoURL: "https://x/logo.png",
		Color:   "#000",
	})
	assert.ErrorIs(t, err, ErrTenantNotFound)
}

func TestDeleteTenantCascade(t *testing.T) {
	s, db := newTestService(t)

	doomed, err := s.CreateTenantWithAdmin(validInput())
	require.NoError(t, err)

	in := validInput()
	in.Name = "Survivor Op"
	in.CNPJ = "99.999.999/0001-99"
	in.AdminEmail = "admin@survivor.com"
	survivor, err := s.CreateTenantWithAdmin(in)
	require.NoError(t, err)

	// Scoped data under both tenants.
	require.NoError(t, db.Create(&model.Network{TenantID: doomed.Tenant.ID, Name: "Rede A"}).Error)
	require.NoError(t, db.Create(&model.Network{TenantID: survivor.Tenant.ID, Name: "Rede B"}).Error)
	require.NoError(t, db.Create(&model.Comparison{TenantID: doomed.Tenant.ID, Title: "Comp A"}).Error)

	require.NoError(t, s.DeleteTenant(doomed.Tenant.ID))

	// Everything scoped to the deleted tenant is gone.
	var n int64
	require.NoError(t, db.Model(&model.User{}).Where("tenant_id = ?", doomed.Tenant.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&model.Network{}).Where("tenant_id = ?", doomed.Tenant.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&model.Comparison{}).Where("tenant_id = ?", doomed.Tenant.ID).Count(&n).Error)
	assert.Zero(t, n)

	// The other tenant is untouched.
	require.NoError(t, db.Model(&model.User{}).Where("tenant_id = ?", survivor.Tenant.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)
	require.NoError(t, db.Model(&model.Network{}).Where("tenant_id = ?", survivor.Tenant.ID).Count(&n).Error)
	assert.EqualValues(t, 1, n)

	// The slug and CNPJ are reusable after the cascade.
	_, err = s.CreateTenantWithAdmin(validInput())
	assert.NoError(t, err)
}

func TestDeleteTenantNotFound(t *testing.T) {
	s, _ := newTestService(t)
	err := s.DeleteTenant("00000000-0000-0000-0000-000000000000")
	assert.ErrorIs(t, err, ErrTenantNotFound)
}
