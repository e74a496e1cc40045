package db

import (
	"pokerlog/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.SessionRecord{},
		&models.LiveSessionState{},
		&models.ParkedSession{},
		&models.ImportBatch{},
	)
}
