package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/contracthub/engine/internal/services"
	"github.com/contracthub/engine/pkg/logger"
)

// ImportTaskHandler processes queued programme imports.
type ImportTaskHandler struct {
	importSvc services.ImportService
}

func NewImportTaskHandler(importSvc services.ImportService) *ImportTaskHandler {
	return &ImportTaskHandler{importSvc: importSvc}
}

func (h *ImportTaskHandler) HandleImport(ctx context.Context, t *asynq.Task) error {
	var p services.ImportTaskPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		logger.L().Error("invalid import task payload", zap.Error(err))
		return err
	}

	logger.L().Info("handling import task",
		zap.String("programme_id", p.ProgrammeID.String()),
		zap.String("requested_by", p.RequestedBy),
	)

	res, err := h.importSvc.Import(ctx, p.ProgrammeID, p.Content)
	if err != nil {
		logger.L().Error("import task failed",
			zap.String("programme_id", p.ProgrammeID.String()),
			zap.Error(err),
		)
		return err
	}

	logger.L().Info("import task completed",
		zap.String("programme_id", p.ProgrammeID.String()),
		zap.String("checksum", res.Checksum),
		zap.Int("activities", res.Stats.ActivityCount),
	)
	return nil
}
