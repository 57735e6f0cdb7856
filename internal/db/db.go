package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/internal/config"
	"github.com/nanaoosaki/jobsculptor-ai-app-sub001/pkg/models"
)

// NewDB opens the allocation-record database described by the
// registry_store block and migrates the engine's models. SQLite covers
// single-host use; postgres serves deployments where several workers
// share the record of granted ids.
func NewDB(cfg *config.RegistryStore) (*gorm.DB, error) {
	if cfg == nil {
		return nil, fmt.Errorf("registry_store configuration is required")
	}

	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite", "":
		if cfg.Path == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		if cfg.Path != ":memory:" && !strings.HasPrefix(cfg.Path, "file:") {
			if dir := filepath.Dir(cfg.Path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return nil, fmt.Errorf("error creating database directory: %w", err)
				}
			}
		}
		dialector = sqlite.Open(cfg.Path)

	case "postgres":
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
			cfg.Host, cfg.User, cfg.Password, cfg.DBName, cfg.Port, cfg.SSLMode)
		dialector = postgres.Open(dsn)

	default:
		return nil, fmt.Errorf("unsupported database driver: %s", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := db.AutoMigrate(models.ModelsToAutoMigrate()...); err != nil {
		return nil, fmt.Errorf("error migrating database: %w", err)
	}

	return db, nil
}
