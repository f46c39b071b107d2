package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/contracthub/engine/internal/models"
	appErr "github.com/contracthub/engine/pkg/errors"
)

type ProgrammeRepository interface {
	BaseRepository[models.Programme]
	ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Programme, error)
	ReplaceGraph(ctx context.Context, programmeID uuid.UUID, graph *ImportedGraph) error
}

// ImportedGraph is the full output of one successful schedule parse, persisted
// as a unit. Activities carry their final IDs; relationships and milestones
// reference those IDs.
type ImportedGraph struct {
	Activities            []models.Activity
	Relationships         []models.ActivityRelationship
	Milestones            []models.ProgrammeMilestone
	PlannedCompletionDate *time.Time
	Checksum              string
}

type programmeRepository struct {
	BaseRepository[models.Programme]
	db *gorm.DB
}

func NewProgrammeRepository(db *gorm.DB) ProgrammeRepository {
	return &programmeRepository{BaseRepository: NewBaseRepository[models.Programme](db), db: db}
}

func (r *programmeRepository) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Programme, error) {
	var out []models.Programme
	if err := r.db.WithContext(ctx).Where("project_id = ?", projectID).Order("created_at DESC").Find(&out).Error; err != nil {
		return nil, appErr.Wrap(err, appErr.CodeInternal, "list programmes by project failed")
	}
	return out, nil
}

// ReplaceGraph swaps the programme's entire activity graph in one transaction.
// Re-importing the same file is idempotent: the previous graph is removed and
// the unique (programme_id, external_id) index backstops concurrent imports.
// A failure at any point leaves the previous graph untouched.
func (r *programmeRepository) ReplaceGraph(ctx context.Context, programmeID uuid.UUID, graph *ImportedGraph) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("programme_id = ?", programmeID).Delete(&models.ActivityRelationship{}).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "clear relationships failed")
		}
		if err := tx.Unscoped().Where("programme_id = ?", programmeID).Delete(&models.ProgrammeMilestone{}).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "clear milestones failed")
		}
		if err := tx.Unscoped().Where("programme_id = ?", programmeID).Delete(&models.Activity{}).Error; err != nil {
			return appErr.Wrap(err, appErr.CodeInternal, "clear activities failed")
		}

		if len(graph.Activities) > 0 {
			if err := tx.CreateInBatches(graph.Activities, 500).Error; err != nil {
				return appErr.Wrap(err, appErr.CodeInternal, "insert activities failed")
			}
		}
		if len(graph.Relationships) > 0 {
			if err := tx.CreateInBatches(graph.Relationships, 500).Error; err != nil {
				return appErr.Wrap(err, appErr.CodeInternal, "insert relationships failed")
			}
		}
		if len(graph.Milestones) > 0 {
			if err := tx.CreateInBatches(graph.Milestones, 500).Error; err != nil {
				return appErr.Wrap(err, appErr.CodeInternal, "insert milestones failed")
			}
		}

		now := time.Now()
		updates := map[string]any{
			"last_imported_at":     now,
			"last_import_checksum": graph.Checksum,
		}
		if graph.PlannedCompletionDate != nil {
			updates["planned_completion_date"] = *graph.PlannedCompletionDate
		}
		res := tx.Model(&models.Programme{}).Where("id = ?", programmeID).Updates(updates)
		if res.Error != nil {
			return appErr.Wrap(res.Error, appErr.CodeInternal, "update programme failed")
		}
		if res.RowsAffected == 0 {
			return appErr.New(appErr.CodeNotFound, "programme not found")
		}
		return nil
	})
}
