package database

import (
	"fmt"

	"github.com/refhub/backend/internal/config"
	"github.com/refhub/backend/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := ownershipConstraints(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate is shared with the test harness, which runs it against an
// in-memory sqlite database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Group{},
		&models.Membership{},
		&models.Folder{},
		&models.Article{},
		&models.Note{},
		&models.Tag{},
		&models.PermissionOverlay{},
		&models.DeleteApplication{},
		&models.GroupLog{},
	)
}

// ownershipConstraints enforces that a folder belongs to exactly one of
// a user or a group. Postgres-only; sqlite test databases rely on the
// service layer honoring the same invariant.
func ownershipConstraints(db *gorm.DB) error {
	constraint := `
DO $$
BEGIN
  IF NOT EXISTS (
    SELECT 1
    FROM pg_constraint
    WHERE conname = 'folder_owner_check'
  ) THEN
    ALTER TABLE folders
    ADD CONSTRAINT folder_owner_check
    CHECK (
      (user_id IS NOT NULL AND group_id IS NULL)
      OR
      (user_id IS NULL AND group_id IS NOT NULL)
    );
  END IF;
END $$;`

	return db.Exec(constraint).Error
}
