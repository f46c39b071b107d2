package services

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/contracthub/engine/internal/metrics"
	"github.com/contracthub/engine/internal/models"
	"github.com/contracthub/engine/internal/repository"
	"github.com/contracthub/engine/internal/schedule"
	appErr "github.com/contracthub/engine/pkg/errors"
	"github.com/contracthub/engine/pkg/logger"
	"github.com/contracthub/engine/pkg/utils"
)

// TaskProgrammeImport is the queue task type for asynchronous imports.
const TaskProgrammeImport = "programme:import"

// ImportTaskPayload is the body of a queued import task. Content travels
// base64-encoded inside the JSON envelope.
type ImportTaskPayload struct {
	ProgrammeID uuid.UUID `json:"programme_id"`
	Content     []byte    `json:"content"`
	RequestedBy string    `json:"requested_by"`
}

// ImportResult summarizes one completed import.
type ImportResult struct {
	ProgrammeID           uuid.UUID           `json:"programme_id"`
	Checksum              string              `json:"checksum"`
	PlannedCompletionDate *time.Time          `json:"planned_completion_date,omitempty"`
	Stats                 schedule.BuildStats `json:"stats"`
}

type ImportService interface {
	Import(ctx context.Context, programmeID uuid.UUID, content []byte) (*ImportResult, error)
	EnqueueImport(ctx context.Context, programmeID uuid.UUID, content []byte, requestedBy string) error
	GetProgramme(ctx context.Context, programmeID uuid.UUID) (*models.Programme, error)
	ListProgrammes(ctx context.Context, projectID uuid.UUID) ([]models.Programme, error)
	CreateProgramme(ctx context.Context, p *models.Programme) error
	GetGraph(ctx context.Context, programmeID uuid.UUID) ([]models.Activity, []models.ActivityRelationship, error)
}

type importService struct {
	programmeRepo repository.ProgrammeRepository
	activityRepo  repository.ActivityRepository
	asynqClient   *asynq.Client
	maxBytes      int64
	parseTimeout  time.Duration
}

func NewImportService(
	programmeRepo repository.ProgrammeRepository,
	activityRepo repository.ActivityRepository,
	client *asynq.Client,
	maxBytes int64,
	parseTimeout time.Duration,
) ImportService {
	return &importService{
		programmeRepo: programmeRepo,
		activityRepo:  activityRepo,
		asynqClient:   client,
		maxBytes:      maxBytes,
		parseTimeout:  parseTimeout,
	}
}

var _ ImportService = (*importService)(nil)

// Import parses a schedule file and replaces the programme's activity graph
// atomically. Parse failures leave the previous graph untouched.
func (s *importService) Import(ctx context.Context, programmeID uuid.UUID, content []byte) (*ImportResult, error) {
	logger.L().Info("import programme schedule",
		zap.String("programme_id", programmeID.String()),
		zap.Int("bytes", len(content)),
	)

	if s.maxBytes > 0 && int64(len(content)) > s.maxBytes {
		metrics.ProgrammeImports.WithLabelValues("rejected").Inc()
		return nil, appErr.New(appErr.CodeInvalid, "schedule file exceeds size limit").
			WithMeta("max_bytes", s.maxBytes)
	}

	var p models.Programme
	if err := s.programmeRepo.GetByID(ctx, programmeID, &p); err != nil {
		metrics.ProgrammeImports.WithLabelValues("rejected").Inc()
		return nil, err
	}

	parseCtx := ctx
	if s.parseTimeout > 0 {
		var cancel context.CancelFunc
		parseCtx, cancel = context.WithTimeout(ctx, s.parseTimeout)
		defer cancel()
	}
	if err := parseCtx.Err(); err != nil {
		metrics.ProgrammeImports.WithLabelValues("failed").Inc()
		return nil, appErr.Wrap(err, appErr.CodeDeadline, "schedule parse aborted")
	}

	// The decoder has no cancellation hook, so the parse runs on its own
	// goroutine and the deadline is enforced here. On timeout the goroutine
	// finishes in the background and its result is discarded.
	type parsed struct {
		f   *schedule.File
		err error
	}
	ch := make(chan parsed, 1)
	go func() {
		f, err := schedule.ParseFile(content)
		ch <- parsed{f: f, err: err}
	}()

	var f *schedule.File
	select {
	case <-parseCtx.Done():
		metrics.ProgrammeImports.WithLabelValues("failed").Inc()
		return nil, appErr.Wrap(parseCtx.Err(), appErr.CodeDeadline, "schedule parse timed out")
	case p := <-ch:
		if p.err != nil {
			metrics.ProgrammeImports.WithLabelValues("failed").Inc()
			return nil, p.err
		}
		f = p.f
	}

	graph, stats := schedule.Build(f, programmeID)
	sum := utils.SumSHA256(content)
	graph.Checksum = hex.EncodeToString(sum[:])

	if err := s.programmeRepo.ReplaceGraph(ctx, programmeID, graph); err != nil {
		metrics.ProgrammeImports.WithLabelValues("failed").Inc()
		return nil, err
	}

	metrics.ProgrammeImports.WithLabelValues("succeeded").Inc()
	metrics.DroppedLinks.Add(float64(stats.DroppedLinks))

	logger.L().Info("programme schedule imported",
		zap.String("programme_id", programmeID.String()),
		zap.Int("activities", stats.ActivityCount),
		zap.Int("milestones", stats.MilestoneCount),
		zap.Int("dropped_links", stats.DroppedLinks),
		zap.Int("unresolved_parents", stats.UnresolvedParents),
	)

	return &ImportResult{
		ProgrammeID:           programmeID,
		Checksum:              graph.Checksum,
		PlannedCompletionDate: graph.PlannedCompletionDate,
		Stats:                 *stats,
	}, nil
}

// EnqueueImport hands the file to the worker. The programme must exist and
// the size cap applies here too, so an oversized upload fails at submission
// rather than in the queue.
func (s *importService) EnqueueImport(ctx context.Context, programmeID uuid.UUID, content []byte, requestedBy string) error {
	if s.maxBytes > 0 && int64(len(content)) > s.maxBytes {
		return appErr.New(appErr.CodeInvalid, "schedule file exceeds size limit").
			WithMeta("max_bytes", s.maxBytes)
	}
	var p models.Programme
	if err := s.programmeRepo.GetByID(ctx, programmeID, &p); err != nil {
		return err
	}
	if s.asynqClient == nil {
		return appErr.New(appErr.CodeUnavailable, "import queue not configured")
	}

	b, err := json.Marshal(ImportTaskPayload{
		ProgrammeID: programmeID,
		Content:     content,
		RequestedBy: requestedBy,
	})
	if err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "marshal import payload failed")
	}
	if _, err := s.asynqClient.EnqueueContext(ctx, asynq.NewTask(TaskProgrammeImport, b)); err != nil {
		return appErr.Wrap(err, appErr.CodeInternal, "enqueue import task failed")
	}
	logger.L().Info("import task enqueued", zap.String("programme_id", programmeID.String()))
	return nil
}

func (s *importService) GetProgramme(ctx context.Context, programmeID uuid.UUID) (*models.Programme, error) {
	var p models.Programme
	if err := s.programmeRepo.GetByID(ctx, programmeID, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *importService) ListProgrammes(ctx context.Context, projectID uuid.UUID) ([]models.Programme, error) {
	return s.programmeRepo.ListByProject(ctx, projectID)
}

func (s *importService) CreateProgramme(ctx context.Context, p *models.Programme) error {
	return s.programmeRepo.Create(ctx, p)
}

func (s *importService) GetGraph(ctx context.Context, programmeID uuid.UUID) ([]models.Activity, []models.ActivityRelationship, error) {
	activities, err := s.activityRepo.ListByProgramme(ctx, programmeID)
	if err != nil {
		return nil, nil, err
	}
	rels, err := s.activityRepo.ListRelationships(ctx, programmeID)
	if err != nil {
		return nil, nil, err
	}
	return activities, rels, nil
}
