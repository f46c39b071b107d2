package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MilestoneStatus is the reporting state of a programme milestone.
type MilestoneStatus string

const (
	MilestoneNotStarted MilestoneStatus = "not_started"
	MilestoneAtRisk     MilestoneStatus = "at_risk"
	MilestoneOnTrack    MilestoneStatus = "on_track"
	MilestoneDelayed    MilestoneStatus = "delayed"
	MilestoneCompleted  MilestoneStatus = "completed"
)

// ProgrammeMilestone is a milestone-flagged activity promoted to a tracked
// date. IsKeyDate is curated by hand, never set by the importer.
type ProgrammeMilestone struct {
	ID                    uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProgrammeID           uuid.UUID       `gorm:"type:uuid;index;not null" json:"programme_id" validate:"required"`
	ActivityID            uuid.UUID       `gorm:"type:uuid;index:idx_milestones_activity,unique;not null" json:"activity_id" validate:"required"`
	Name                  string          `gorm:"not null" json:"name" validate:"required"`
	PlannedDate           *time.Time      `json:"planned_date"`
	ForecastDate          *time.Time      `json:"forecast_date"`
	ActualDate            *time.Time      `json:"actual_date"`
	Status                MilestoneStatus `gorm:"type:varchar(16);not null;default:'not_started';index" json:"status" validate:"required,oneof=not_started at_risk on_track delayed completed"`
	IsKeyDate             bool            `gorm:"not null;default:false;index" json:"is_key_date"`
	AffectsCompletionDate bool            `gorm:"not null;default:false" json:"affects_completion_date"`
	CreatedAt             time.Time       `json:"created_at"`
	UpdatedAt             time.Time       `json:"updated_at"`
	DeletedAt             gorm.DeletedAt  `gorm:"index" json:"-"`
}
