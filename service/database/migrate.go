/*
 * @module service/database/migrate
 * @description Database migration module, creates and updates table structures
 * @architecture data access layer - migration management
 * @documentReference dev_docs/qs_score_requirements.md
 * @stateFlow executed once at application startup
 * @rules keeps database structure in sync with model definitions
 * @dependencies qs-service/service/models, gorm.io/gorm
 * @refs service/init.go
 */

package database

import (
	"log"

	"qs-service/service/models"

	"gorm.io/gorm"
)

// AutoMigrate migrates all table structures
func AutoMigrate(db *gorm.DB) error {
	log.Println("starting database migration...")

	// platform entities read by the score engine
	err := db.AutoMigrate(
		&models.Company{},
		&models.Area{},
		&models.CollaboratorProfile{},
		&models.Pendency{},
		&models.Visit{},
		&models.VisitEvaluation{},
		&models.Complaint{},
	)
	if err != nil {
		return err
	}

	// score snapshots
	err = db.AutoMigrate(
		&models.QSScore{},
	)
	if err != nil {
		return err
	}

	log.Println("database migration finished")
	return nil
}

// InitializeData seeds base reference data
func InitializeData(db *gorm.DB) error {
	log.Println("initializing base data...")

	// classification scale is code-defined, nothing to persist
	classifications := []string{
		models.ClassificationExcellent,
		models.ClassificationGood,
		models.ClassificationAttention,
		models.ClassificationRisk,
		models.ClassificationCritical,
	}

	log.Printf("supported classifications: %v", classifications)
	log.Println("base data initialization finished")
	return nil
}
