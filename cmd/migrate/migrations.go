package main

import (
	"gorm.io/gorm"

	"github.com/contracthub/engine/internal/models"
)

// registerModels returns all models that need migration
func registerModels() []interface{} {
	return []interface{}{
		// Programmes & Activity Graph
		&models.Programme{},
		&models.Activity{},
		&models.ActivityRelationship{},
		&models.ProgrammeMilestone{},

		// Change Approval Pipeline
		&models.ApprovalRequest{},
		&models.AuditTrailEntry{},
		&models.ApprovalHierarchy{},
		&models.ApprovalPolicy{},
	}
}

// runMigrations executes all database migrations
func runMigrations(db *gorm.DB) error {
	models := registerModels()

	// Run AutoMigrate for all models
	if err := db.AutoMigrate(models...); err != nil {
		return err
	}

	// Run custom migrations
	return runCustomMigrations(db)
}

// runCustomMigrations handles schema changes AutoMigrate can't handle
func runCustomMigrations(db *gorm.DB) error {
	migrations := []func(*gorm.DB) error{
		enableUUIDExtension,
		protectAuditTrail,
		addApprovalIndexes,
	}

	for _, migration := range migrations {
		if err := migration(db); err != nil {
			return err
		}
	}

	return nil
}

// enableUUIDExtension ensures UUID generation is available
func enableUUIDExtension(db *gorm.DB) error {
	return db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error
}

// protectAuditTrail makes the audit trail append-only at the schema level:
// any UPDATE or DELETE against it is rejected by the database itself, not
// just by the repository layer.
func protectAuditTrail(db *gorm.DB) error {
	if err := db.Exec(`
		CREATE OR REPLACE FUNCTION reject_audit_mutation() RETURNS trigger AS $$
		BEGIN
			RAISE EXCEPTION 'audit trail entries are immutable';
		END;
		$$ LANGUAGE plpgsql
	`).Error; err != nil {
		return err
	}

	if err := db.Exec(`DROP TRIGGER IF EXISTS audit_trail_immutable ON audit_trail_entries`).Error; err != nil {
		return err
	}
	return db.Exec(`
		CREATE TRIGGER audit_trail_immutable
		BEFORE UPDATE OR DELETE ON audit_trail_entries
		FOR EACH ROW EXECUTE FUNCTION reject_audit_mutation()
	`).Error
}

// addApprovalIndexes adds custom indexes for performance
func addApprovalIndexes(db *gorm.DB) error {
	// Pending-queue lookups filter on project + status ordered by age
	return db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_approvals_project_status
		ON approval_requests(project_id, status, created_at)
		WHERE deleted_at IS NULL
	`).Error
}
