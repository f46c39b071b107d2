package schedule

import (
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/contracthub/engine/internal/models"
	"github.com/contracthub/engine/internal/repository"
	"github.com/contracthub/engine/pkg/logger"
)

// BuildStats summarizes what a build kept and what it had to drop.
type BuildStats struct {
	ActivityCount     int `json:"activity_count"`
	MilestoneCount    int `json:"milestone_count"`
	DroppedLinks      int `json:"dropped_links"`
	UnresolvedParents int `json:"unresolved_parents"`
}

// Build transforms a decoded file into the programme's activity graph. It is
// pure: all ids are assigned here and nothing is persisted.
//
// Two passes over the task list: leaves first, then summary rows. Summary rows
// exist only for hierarchy resolution, so dependency links are resolved against
// the leaf mapping before summaries are even considered.
func Build(f *File, programmeID uuid.UUID) (*repository.ImportedGraph, *BuildStats) {
	stats := &BuildStats{}
	graph := &repository.ImportedGraph{}

	idMap := make(map[string]uuid.UUID, len(f.Tasks))
	activities := make([]models.Activity, 0, len(f.Tasks))

	addTask := func(t *Task) {
		a := models.Activity{
			ID:              uuid.New(),
			ProgrammeID:     programmeID,
			ExternalID:      t.ID,
			Name:            t.Name,
			StartDate:       parseDate(t.Start),
			EndDate:         parseDate(t.Finish),
			Duration:        t.Duration,
			PercentComplete: t.PercentComplete,
			IsCritical:      t.Critical,
			TotalFloat:      t.TotalSlack,
			WBSCode:         t.WBS,
			OutlineNumber:   t.OutlineNumber,
			OutlineLevel:    t.OutlineLevel,
			IsMilestone:     t.Milestone,
			IsSummary:       t.Summary,
			Notes:           t.Notes,
		}
		idMap[t.ID] = a.ID
		activities = append(activities, a)
	}

	// Pass 1: leaf tasks.
	for i := range f.Tasks {
		if t := &f.Tasks[i]; !t.Summary && t.ID != "" {
			addTask(t)
		}
	}
	// Pass 2: summary tasks.
	for i := range f.Tasks {
		if t := &f.Tasks[i]; t.Summary && t.ID != "" {
			addTask(t)
		}
	}

	resolveParents(activities, stats)

	for _, l := range f.Links {
		pred, okFrom := idMap[l.From]
		succ, okTo := idMap[l.To]
		if !okFrom || !okTo || l.From == l.To {
			stats.DroppedLinks++
			logger.L().Debug("dropping unresolvable link",
				zap.String("programme_id", programmeID.String()),
				zap.String("from", l.From),
				zap.String("to", l.To),
			)
			continue
		}
		graph.Relationships = append(graph.Relationships, models.ActivityRelationship{
			ID:            uuid.New(),
			ProgrammeID:   programmeID,
			PredecessorID: pred,
			SuccessorID:   succ,
			Type:          linkType(l.Type),
			LagDays:       l.Lag,
		})
	}

	for i := range activities {
		a := &activities[i]
		if !a.IsMilestone {
			continue
		}
		status := models.MilestoneNotStarted
		if a.PercentComplete == 100 {
			status = models.MilestoneCompleted
		}
		graph.Milestones = append(graph.Milestones, models.ProgrammeMilestone{
			ID:          uuid.New(),
			ProgrammeID: programmeID,
			ActivityID:  a.ID,
			Name:        a.Name,
			PlannedDate: a.EndDate,
			Status:      status,
			// Key dates are curated by hand, never inferred from the file.
			IsKeyDate:             false,
			AffectsCompletionDate: a.IsCritical,
		})
		stats.MilestoneCount++
	}

	graph.Activities = activities
	graph.PlannedCompletionDate = parseDate(f.FinishDate)
	stats.ActivityCount = len(activities)
	return graph, stats
}

// resolveParents reconstructs the outline tree. Activities are walked in
// outline-number path order with a stack of open ancestors: the parent of a
// task is the nearest stack entry whose outline number is a strict dot-prefix
// at a lower level. Sorting dominates, so the whole pass is O(n log n) rather
// than the O(n^2) scan a per-task search would cost.
//
// Numbering that is not strictly hierarchical (a child with no prefix-matching
// ancestor) is left without a parent and counted, never guessed.
func resolveParents(activities []models.Activity, stats *BuildStats) {
	order := make([]*models.Activity, 0, len(activities))
	for i := range activities {
		order = append(order, &activities[i])
	}
	sort.SliceStable(order, func(i, j int) bool {
		return outlineLess(order[i].OutlineNumber, order[j].OutlineNumber)
	})

	var stack []*models.Activity
	for _, a := range order {
		for len(stack) > 0 && !isOutlineParent(stack[len(stack)-1], a) {
			stack = stack[:len(stack)-1]
		}
		if a.OutlineLevel > 1 {
			if len(stack) > 0 {
				id := stack[len(stack)-1].ID
				a.ParentID = &id
			} else {
				stats.UnresolvedParents++
				logger.L().Warn("unresolved parent for activity",
					zap.String("external_id", a.ExternalID),
					zap.String("outline_number", a.OutlineNumber),
				)
			}
		}
		stack = append(stack, a)
	}
}

func isOutlineParent(parent, child *models.Activity) bool {
	return parent.OutlineLevel < child.OutlineLevel &&
		parent.OutlineNumber != "" &&
		strings.HasPrefix(child.OutlineNumber, parent.OutlineNumber+".")
}

// outlineLess compares outline numbers segment-wise ("1.10" sorts after "1.9").
func outlineLess(a, b string) bool {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, aerr := strconv.Atoi(as[i])
		bi, berr := strconv.Atoi(bs[i])
		if aerr != nil || berr != nil {
			if as[i] != bs[i] {
				return as[i] < bs[i]
			}
			continue
		}
		if ai != bi {
			return ai < bi
		}
	}
	return len(as) < len(bs)
}

func linkType(s string) models.RelationshipType {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "SS":
		return models.StartToStart
	case "FF":
		return models.FinishToFinish
	case "SF":
		return models.StartToFinish
	default:
		return models.FinishToStart
	}
}
