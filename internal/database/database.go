package database

import (
	"fmt"

	"github.com/glebarez/sqlite"
	"github.com/novelnest/backend/internal/config"
	"github.com/novelnest/backend/internal/models"
	"github.com/novelnest/backend/pkg/utils"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func Connect(cfg config.DBConfig) (*gorm.DB, error) {
	dialector, err := open(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	if err := seedSuperuser(db); err != nil {
		return nil, err
	}

	return db, nil
}

func open(cfg config.DBConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case "postgres":
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			cfg.Host,
			cfg.Port,
			cfg.User,
			cfg.Password,
			cfg.Name,
			cfg.SSLMode,
		)
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(cfg.Path + "?_pragma=foreign_keys(1)"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Story{},
	)
}

// seedSuperuser bootstraps a first elevated account so story deletion is
// possible on a fresh install. Runs only against an empty user table.
func seedSuperuser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil
	}

	hash, err := utils.HashPassword("superuser123")
	if err != nil {
		return err
	}

	root := models.User{
		Username:      "superuser",
		Email:         "superuser@novelnest.local",
		PasswordHash:  hash,
		Role:          models.UserRoleSuperuser,
		SuperuserRole: models.SuperuserYes,
	}

	return db.Create(&root).Error
}
