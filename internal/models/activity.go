package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RelationshipType is the dependency kind between two activities.
type RelationshipType string

const (
	FinishToStart  RelationshipType = "FS"
	StartToStart   RelationshipType = "SS"
	FinishToFinish RelationshipType = "FF"
	StartToFinish  RelationshipType = "SF"
)

// Activity is one task row reconstructed from a schedule interchange file.
// Parent/child forms a tree within a programme; ExternalID is the source
// file's task id and is the upsert key for re-imports.
type Activity struct {
	ID              uuid.UUID      `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProgrammeID     uuid.UUID      `gorm:"type:uuid;index;not null;index:idx_activities_programme_external,unique" json:"programme_id" validate:"required"`
	ExternalID      string         `gorm:"type:varchar(64);not null;index:idx_activities_programme_external,unique" json:"external_id" validate:"required"`
	ParentID        *uuid.UUID     `gorm:"type:uuid;index" json:"parent_id"`
	Name            string         `gorm:"not null" json:"name" validate:"required"`
	StartDate       *time.Time     `json:"start_date"`
	EndDate         *time.Time     `json:"end_date"`
	Duration        string         `gorm:"type:varchar(32)" json:"duration"`
	PercentComplete int            `gorm:"not null;default:0" json:"percent_complete" validate:"gte=0,lte=100"`
	IsCritical      bool           `gorm:"not null;default:false;index" json:"is_critical"`
	TotalFloat      int            `gorm:"not null;default:0" json:"total_float"`
	WBSCode         string         `gorm:"type:varchar(64)" json:"wbs_code"`
	OutlineNumber   string         `gorm:"type:varchar(64)" json:"outline_number"`
	OutlineLevel    int            `gorm:"not null;default:1" json:"outline_level"`
	IsMilestone     bool           `gorm:"not null;default:false;index" json:"is_milestone"`
	IsSummary       bool           `gorm:"not null;default:false" json:"is_summary"`
	Notes           string         `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// ActivityRelationship is a directed dependency edge between two activities
// of the same programme. Edges with unresolvable endpoints are never stored.
type ActivityRelationship struct {
	ID            uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	ProgrammeID   uuid.UUID        `gorm:"type:uuid;index;not null" json:"programme_id" validate:"required"`
	PredecessorID uuid.UUID        `gorm:"type:uuid;index;not null;index:idx_relationships_edge,unique" json:"predecessor_id" validate:"required"`
	SuccessorID   uuid.UUID        `gorm:"type:uuid;index;not null;index:idx_relationships_edge,unique" json:"successor_id" validate:"required"`
	Type          RelationshipType `gorm:"type:varchar(2);not null;default:'FS'" json:"type" validate:"required,oneof=FS SS FF SF"`
	LagDays       int              `gorm:"not null;default:0" json:"lag_days"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}
