package db

import (
	log "github.com/sirupsen/logrus"

	"github.com/reviewdeck/reviewdeck/pkg/db/models"
)

// UpdateSchema migrates the database to the current model definitions.
// Safe to run repeatedly; gorm only applies missing tables, columns and
// indexes.
func (d *DB) UpdateSchema() error {
	log.Info("migrating database schema")
	return d.DB.AutoMigrate(
		&models.Review{},
	)
}
