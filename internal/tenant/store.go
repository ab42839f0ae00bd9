package tenant

import (
	"errors"

	"gorm.io/gorm"

	"medmap-admin/internal/model"
)

// ErrNotFound is returned when a slug or id does not resolve to a tenant.
var ErrNotFound = errors.New("tenant not found")

// Store loads tenant projections from the database. Reads only; mutation
// goes through the provisioning service.
type Store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// ConfigByID resolves a tenant id to its public configuration.
func (s *Store) ConfigByID(id string) (*model.TenantConfig, error) {
	return s.config("id = ?", id)
}

// ConfigBySlug resolves a tenant slug to its public configuration.
func (s *Store) ConfigBySlug(slug string) (*model.TenantConfig, error) {
	return s.config("slug = ?", slug)
}

func (s *Store) config(query string, arg string) (*model.TenantConfig, error) {
	var t model.Tenant
	err := s.db.Select("id", "name", "logo_url", "color", "slug").
		Where(query, arg).First(&t).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	cfg := t.Config()
	return &cfg, nil
}
