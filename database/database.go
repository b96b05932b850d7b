package database

import (
	"rotation/models"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

func Init(dsn string, defaultRefusalHours float64) error {
	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return err
	}

	// Auto migrate the schema
	err = DB.AutoMigrate(&models.Employee{}, &models.OvertimeEntry{}, &models.Assignment{}, &models.Config{})
	if err != nil {
		return err
	}

	// Seed the single configuration row if not exists
	if err := seedConfig(defaultRefusalHours); err != nil {
		return err
	}

	return nil
}

func seedConfig(defaultRefusalHours float64) error {
	var count int64
	DB.Model(&models.Config{}).Where("id = ?", 1).Count(&count)
	if count > 0 {
		return nil
	}

	cfg := models.Config{
		ID:                  1,
		DefaultRefusalHours: defaultRefusalHours,
	}

	result := DB.Create(&cfg)
	return result.Error
}

func GetDB() *gorm.DB {
	return DB
}
