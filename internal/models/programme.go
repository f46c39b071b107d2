package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Programme is one schedule import context for a project. Its planned
// completion date tracks the most recent successful parse.
type Programme struct {
	ID                    uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProjectID             uuid.UUID      `gorm:"type:uuid;index;not null;index:idx_programmes_project_name,unique" json:"project_id" validate:"required"`
	Name                  string         `gorm:"not null;index:idx_programmes_project_name,unique" json:"name" validate:"required"`
	Description           string         `gorm:"type:text" json:"description"`
	PlannedCompletionDate *time.Time     `json:"planned_completion_date"`
	LastImportedAt        *time.Time     `json:"last_imported_at"`
	LastImportChecksum    string         `gorm:"type:varchar(64)" json:"last_import_checksum"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}
