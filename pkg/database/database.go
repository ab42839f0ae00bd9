package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"medmap-admin/internal/model"
	"medmap-admin/pkg/config"
)

var DB *gorm.DB

// InitDB connects to PostgreSQL with the provided configuration, applies
// pool settings and runs migrations.
func InitDB(cfg *config.Config) error {
	pgConfig := postgres.Config{
		DSN: cfg.DB.GetDSN(),
		// Disables implicit prepared statement usage to prevent
		// "prepared statement already exists" errors behind poolers.
		PreferSimpleProtocol: true,
	}

	db, err := Open(postgres.New(pgConfig), cfg.DB.LogLevel)
	if err != nil {
		return err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if cfg.DB.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.DB.MaxIdleConns)
	}
	if cfg.DB.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.DB.MaxOpenConns)
	}
	if cfg.DB.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.DB.ConnMaxLifetime)
	}

	DB = db
	return nil
}

// Open opens a gorm connection over any dialector and migrates the schema.
// Tests use this with an in-memory sqlite dialector.
func Open(dialector gorm.Dialector, logLevel gormlogger.LogLevel) (*gorm.DB, error) {
	if logLevel == 0 {
		logLevel = gormlogger.Warn
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
		// Unique-constraint rejections surface as gorm.ErrDuplicatedKey.
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates or updates the table structure for all models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Tenant{},
		&model.User{},
		&model.Network{},
		&model.Comparison{},
	)
}

// GetDB returns the database instance
func GetDB() *gorm.DB {
	return DB
}
