package provision

import (
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"medmap-admin/internal/model"
	"medmap-admin/internal/tenant"
	"medmap-admin/prometheus"
)

// Service provisions tenants and their administrator users. Every
// multi-entity write runs inside one transaction: no observer can ever see
// a tenant without its admin or a half-finished cascade.
type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewService(db *gorm.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log}
}

// TenantInput carries the fields for creating a tenant plus its first
// administrator. AdminPassword is plaintext on the way in, hashed before
// any write and discarded.
type TenantInput struct {
	Name                string `json:"name"`
	Slug                string `json:"slug"`
	CNPJ                string `json:"cnpj"`
	LogoURL             string `json:"logoUrl"`
	Color               string `json:"color"`
	Address             string `json:"address"`
	AddressComplement   string `json:"addressComplement"`
	Neighborhood        string `json:"neighborhood"`
	City                string `json:"city"`
	State               string `json:"state"`
	ZipCode             string `json:"zipCode"`
	Phone               string `json:"phone"`
	IsPremiumSubscriber bool   `json:"isPremiumSubscriber"`
	IsPaused            bool   `json:"isPaused"`
	AdminName           string `json:"adminName"`
	AdminEmail          string `json:"adminEmail"`
	AdminPassword       string `json:"adminPassword"`
}

// Provisioned is the public-safe result of a provisioning call.
type Provisioned struct {
	Tenant model.Tenant `json:"tenant"`
	Admin  model.User   `json:"adminUser"`
}

func (in *TenantInput) validate() error {
	required := []struct{ field, value string }{
		{"name", in.Name},
		{"cnpj", in.CNPJ},
		{"logoUrl", in.LogoURL},
		{"color", in.Color},
		{"adminName", in.AdminName},
		{"adminEmail", in.AdminEmail},
		{"adminPassword", in.AdminPassword},
	}
	for _, r := range required {
		if r.value == "" {
			return &ValidationError{Field: r.field}
		}
	}
	return nil
}

// CreateTenantWithAdmin inserts the tenant and its ADMIN user as one
// atomic unit. The slug defaults to a derivation from the name when not
// supplied. Uniqueness pre-checks run inside the transaction scope for
// friendly field errors; the store's unique constraints remain the final
// authority under concurrent provisioning.
func (s *Service) CreateTenantWithAdmin(in TenantInput) (*Provisioned, error) {
	defer prometheus.TrackDBOperation("provision_tenant")(time.Now())
	prometheus.RecordTenantOperation("create")

	if err := in.validate(); err != nil {
		return nil, err
	}
	if in.Slug == "" {
		in.Slug = tenant.Slugify(in.Name)
	}
	if in.Slug == "" {
		return nil, &ValidationError{Field: "slug"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	in.AdminPassword = ""

	var out Provisioned
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.checkTenantUnique(tx, in.CNPJ, in.Slug, ""); err != nil {
			return err
		}
		if err := checkEmailFree(tx, in.AdminEmail); err != nil {
			return err
		}

		t := model.Tenant{
			Name:                in.Name,
			Slug:                in.Slug,
			CNPJ:                in.CNPJ,
			LogoURL:             in.LogoURL,
			Color:               in.Color,
			Address:             in.Address,
			AddressComplement:   in.AddressComplement,
			Neighborhood:        in.Neighborhood,
			City:                in.City,
			State:               in.State,
			ZipCode:             in.ZipCode,
			Phone:               in.Phone,
			IsPremiumSubscriber: in.IsPremiumSubscriber,
			IsPaused:            in.IsPaused,
		}
		if err := tx.Create(&t).Error; err != nil {
			return conflictOr(err, "slug")
		}

		u := model.User{
			Name:     in.AdminName,
			Email:    in.AdminEmail,
			Password: string(hash),
			Role:     model.RoleAdmin,
			TenantID: &t.ID,
		}
		if err := tx.Create(&u).Error; err != nil {
			return conflictOr(err, "adminEmail")
		}

		out = Provisioned{Tenant: t, Admin: u}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Admin.Password = ""
	s.log.Info("Tenant provisioned",
		zap.String("tenant_id", out.Tenant.ID),
		zap.String("slug", out.Tenant.Slug),
		zap.String("admin_id", out.Admin.ID))
	return &out, nil
}

// OperatorInput carries the fields for creating an operator administrator
// under an existing tenant. The tenant absorbed the operator fields, so
// this provisions only the admin user.
type OperatorInput struct {
	TenantID      string `json:"tenantId"`
	AdminName     string `json:"adminName"`
	AdminEmail    string `json:"adminEmail"`
	AdminPassword string `json:"adminPassword"`
}

// CreateOperatorAdmin creates an ADMIN user linked to a pre-existing
// tenant, with the same atomicity and validation shape as tenant
// provisioning. Fails with ErrTenantNotFound when the tenant id does not
// resolve.
func (s *Service) CreateOperatorAdmin(in OperatorInput) (*Provisioned, error) {
	defer prometheus.TrackDBOperation("provision_operator")(time.Now())
	prometheus.RecordTenantOperation("operator_add")

	required := []struct{ field, value string }{
		{"tenantId", in.TenantID},
		{"adminName", in.AdminName},
		{"adminEmail", in.AdminEmail},
		{"adminPassword", in.AdminPassword},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, &ValidationError{Field: r.field}
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	in.AdminPassword = ""

	var out Provisioned
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var t model.Tenant
		if err := tx.First(&t, "id = ?", in.TenantID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTenantNotFound
			}
			return err
		}
		if err := checkEmailFree(tx, in.AdminEmail); err != nil {
			return err
		}

		u := model.User{
			Name:     in.AdminName,
			Email:    in.AdminEmail,
			Password: string(hash),
			Role:     model.RoleAdmin,
			TenantID: &t.ID,
		}
		if err := tx.Create(&u).Error; err != nil {
			return conflictOr(err, "adminEmail")
		}
		out = Provisioned{Tenant: t, Admin: u}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out.Admin.Password = ""
	s.log.Info("Operator admin provisioned",
		zap.String("tenant_id", out.Tenant.ID),
		zap.String("admin_id", out.Admin.ID))
	return &out, nil
}

// UpdateInput carries the editable tenant fields. The slug is stable once
// referenced by deployed links and is not editable here.
type UpdateInput struct {
	Name                string `json:"name"`
	CNPJ                string `json:"cnpj"`
	LogoURL             string `json:"logoUrl"`
	Color               string `json:"color"`
	Address             string `json:"address"`
	AddressComplement   string `json:"addressComplement"`
	Neighborhood        string `json:"neighborhood"`
	City                string `json:"city"`
	State               string `json:"state"`
	ZipCode             string `json:"zipCode"`
	Phone               string `json:"phone"`
	IsPremiumSubscriber bool   `json:"isPremiumSubscriber"`
	IsPaused            bool   `json:"isPaused"`
}

// UpdateTenant applies a field-validated update, rejecting a CNPJ already
// used by another tenant.
func (s *Service) UpdateTenant(id string, in UpdateInput) (*model.Tenant, error) {
	defer prometheus.TrackDBOperation("update")(time.Now())
	prometheus.RecordTenantOperation("update")

	required := []struct{ field, value string }{
		{"name", in.Name},
		{"cnpj", in.CNPJ},
		{"logoUrl", in.LogoURL},
		{"color", in.Color},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, &ValidationError{Field: r.field}
		}
	}

	var t model.Tenant
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTenantNotFound
			}
			return err
		}
		if err := s.checkTenantUnique(tx, in.CNPJ, "", id); err != nil {
			return err
		}

		t.Name = in.Name
		t.CNPJ = in.CNPJ
		t.LogoURL = in.LogoURL
		t.Color = in.Color
		t.Address = in.Address
		t.AddressComplement = in.AddressComplement
		t.Neighborhood = in.Neighborhood
		t.City = in.City
		t.State = in.State
		t.ZipCode = in.ZipCode
		t.Phone = in.Phone
		t.IsPremiumSubscriber = in.IsPremiumSubscriber
		t.IsPaused = in.IsPaused
		if err := tx.Save(&t).Error; err != nil {
			return conflictOr(err, "cnpj")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// DeleteTenant removes the tenant and everything scoped to it — users,
// networks, comparisons — in one transaction. Fails with ErrTenantNotFound
// rather than silently succeeding on an unknown id.
func (s *Service) DeleteTenant(id string) error {
	defer prometheus.TrackDBOperation("delete")(time.Now())
	prometheus.RecordTenantOperation("delete")

	return s.db.Transaction(func(tx *gorm.DB) error {
		var t model.Tenant
		if err := tx.First(&t, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrTenantNotFound
			}
			return err
		}
		if err := tx.Where("tenant_id = ?", id).Delete(&model.Comparison{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tenant_id = ?", id).Delete(&model.Network{}).Error; err != nil {
			return err
		}
		if err := tx.Where("tenant_id = ?", id).Delete(&model.User{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&t).Error; err != nil {
			return err
		}
		s.log.Info("Tenant deleted", zap.String("tenant_id", id), zap.String("slug", t.Slug))
		return nil
	})
}

// checkTenantUnique flags a CNPJ or slug already used by a tenant other
// than excludeID. Empty slug skips the slug check.
func (s *Service) checkTenantUnique(tx *gorm.DB, cnpj, slug, excludeID string) error {
	var n int64
	q := tx.Model(&model.Tenant{}).Where("cnpj = ?", cnpj)
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}
	if err := q.Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &ConflictError{Field: "cnpj"}
	}
	if slug == "" {
		return nil
	}
	if err := tx.Model(&model.Tenant{}).Where("slug = ?", slug).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &ConflictError{Field: "slug"}
	}
	return nil
}

func checkEmailFree(tx *gorm.DB, email string) error {
	var n int64
	if err := tx.Model(&model.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return &ConflictError{Field: "adminEmail"}
	}
	return nil
}
