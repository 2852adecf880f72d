package database

import (
	"driveet-backend/internal/models"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var DB *gorm.DB

// Connect opens the Postgres connection pool and stores it in DB.
func Connect(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	DB = db
	return db, nil
}

// Models lists every persisted entity in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.User{},
		&models.BundleDefinition{},
		&models.PaymentMethod{},
		&models.UserBundle{},
		&models.ResourceTransaction{},
		&models.BundleOrder{},
		&models.OrderBundleSuggestion{},
		&models.BundlePurchase{},
	}
}

// Migrate the schema
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
