package database

import (
	"github.com/authkit/api/internal/config"
	"github.com/authkit/api/internal/model"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Connect(cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, err
	}

	return db, nil
}

func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		&model.User{},
		&model.AuthToken{},
	)
	if err != nil {
		return err
	}

	// Token lookups during validation are always by (user_id, uuid)
	db.Exec("CREATE INDEX IF NOT EXISTS idx_auth_tokens_user_id_uuid ON auth_tokens(user_id, uuid)")

	// The purge sweep scans by expiry
	db.Exec("CREATE INDEX IF NOT EXISTS idx_auth_tokens_expires_at ON auth_tokens(expires_at)")

	return nil
}
