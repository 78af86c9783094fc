package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/fieldbook/backend/internal/infrastructure/config"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const pingTimeout = 5 * time.Second

// Database is the GORM handle shared by every repository
type Database struct {
	DB *gorm.DB
}

// Connect opens the PostgreSQL database described by cfg. log is normally
// logger.NewGormLogger; plugins add tracing and metrics callbacks.
func Connect(cfg *config.DatabaseConfig, log gormlogger.Interface, plugins ...gorm.Plugin) (*Database, error) {
	return Open(postgres.Open(cfg.DSN()), cfg, log, plugins...)
}

// Open works with any dialector, which lets tests hand in sqlmock or a
// container connection
func Open(dialector gorm.Dialector, cfg *config.DatabaseConfig, log gormlogger.Interface, plugins ...gorm.Plugin) (*Database, error) {
	if log == nil {
		log = gormlogger.Discard
	}
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 log,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
		TranslateError:         true,
		DisableAutomaticPing:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	for _, p := range plugins {
		if err := db.Use(p); err != nil {
			return nil, fmt.Errorf("register gorm plugin %s: %w", p.Name(), err)
		}
	}

	d := &Database{DB: db}
	if err := d.configurePool(cfg); err != nil {
		return nil, err
	}

	// gorm's own ping has no deadline; this one does
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := d.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return d, nil
}

func (d *Database) configurePool(cfg *config.DatabaseConfig) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	return nil
}

// Ping is used by the readiness probe
func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the pool
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("unwrap sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// OwnedBy is a GORM scope restricting a query to one owner's rows.
// A nil owner would expose every contractor's data, so it panics.
func OwnedBy(ownerID uuid.UUID) func(*gorm.DB) *gorm.DB {
	if ownerID == uuid.Nil {
		panic("persistence: OwnedBy called with nil owner ID")
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("owner_id = ?", ownerID)
	}
}
