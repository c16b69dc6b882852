package repositories

import (
	"github.com/Laisky/errors/v2"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rohits-web03/transferly/internal/log"
	"github.com/rohits-web03/transferly/internal/models"
)

// ConnectDatabase opens the postgres database at dsn.
func ConnectDatabase(dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, errors.New("DB_URL is required")
	}
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, errors.Wrap(err, "connect database")
	}
	log.Logger.Info("successfully connected to database")
	return db, nil
}

// Migrate creates or updates the transfers and files tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Transfer{},
		&models.File{},
	); err != nil {
		return errors.Wrap(err, "migrate")
	}
	return nil
}
