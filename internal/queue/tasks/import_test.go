package tasks

import (
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/contracthub/engine/internal/events"
	"github.com/contracthub/engine/internal/models"
	"github.com/contracthub/engine/internal/schedule"
	"github.com/contracthub/engine/internal/services"
	appErr "github.com/contracthub/engine/pkg/errors"
	"github.com/contracthub/engine/pkg/logger"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests (required by tasks)
	_, err := logger.Init("info", "json")
	if err != nil {
		panic("failed to init logger: " + err.Error())
	}
	os.Exit(m.Run())
}

type mockImportService struct {
	mock.Mock
}

func (m *mockImportService) Import(ctx context.Context, programmeID uuid.UUID, content []byte) (*services.ImportResult, error) {
	args := m.Called(ctx, programmeID, content)
	if v := args.Get(0); v != nil {
		return v.(*services.ImportResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockImportService) EnqueueImport(ctx context.Context, programmeID uuid.UUID, content []byte, requestedBy string) error {
	args := m.Called(ctx, programmeID, content, requestedBy)
	return args.Error(0)
}

func (m *mockImportService) GetProgramme(ctx context.Context, programmeID uuid.UUID) (*models.Programme, error) {
	args := m.Called(ctx, programmeID)
	if v := args.Get(0); v != nil {
		return v.(*models.Programme), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockImportService) ListProgrammes(ctx context.Context, projectID uuid.UUID) ([]models.Programme, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.([]models.Programme), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockImportService) CreateProgramme(ctx context.Context, p *models.Programme) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *mockImportService) GetGraph(ctx context.Context, programmeID uuid.UUID) ([]models.Activity, []models.ActivityRelationship, error) {
	args := m.Called(ctx, programmeID)
	var acts []models.Activity
	var rels []models.ActivityRelationship
	if v := args.Get(0); v != nil {
		acts = v.([]models.Activity)
	}
	if v := args.Get(1); v != nil {
		rels = v.([]models.ActivityRelationship)
	}
	return acts, rels, args.Error(2)
}

func TestImportTaskHandler_HandleImport(t *testing.T) {
	programmeID := uuid.New()
	content := []byte("<Project><Tasks><Task><ID>1</ID></Task></Tasks></Project>")

	t.Run("successful import", func(t *testing.T) {
		importSvc := &mockImportService{}
		handler := NewImportTaskHandler(importSvc)

		payload := services.ImportTaskPayload{
			ProgrammeID: programmeID,
			Content:     content,
			RequestedBy: "planner@example.com",
		}
		payloadBytes, _ := json.Marshal(payload)
		task := asynq.NewTask(services.TaskProgrammeImport, payloadBytes)

		result := &services.ImportResult{
			ProgrammeID: programmeID,
			Checksum:    "abc123",
			Stats:       schedule.BuildStats{ActivityCount: 1},
		}
		importSvc.On("Import", mock.Anything, programmeID, content).Return(result, nil).Once()

		err := handler.HandleImport(context.Background(), task)
		require.NoError(t, err)
		mock.AssertExpectationsForObjects(t, importSvc)
	})

	t.Run("import failure propagates for retry", func(t *testing.T) {
		importSvc := &mockImportService{}
		handler := NewImportTaskHandler(importSvc)

		payload := services.ImportTaskPayload{ProgrammeID: programmeID, Content: content}
		payloadBytes, _ := json.Marshal(payload)
		task := asynq.NewTask(services.TaskProgrammeImport, payloadBytes)

		importErr := appErr.New(appErr.CodeInvalid, "schedule file is not valid XML")
		importSvc.On("Import", mock.Anything, programmeID, content).Return(nil, importErr).Once()

		err := handler.HandleImport(context.Background(), task)
		require.Error(t, err)
		require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
		mock.AssertExpectationsForObjects(t, importSvc)
	})

	t.Run("malformed payload", func(t *testing.T) {
		importSvc := &mockImportService{}
		handler := NewImportTaskHandler(importSvc)

		task := asynq.NewTask(services.TaskProgrammeImport, []byte("{not json"))
		err := handler.HandleImport(context.Background(), task)
		require.Error(t, err)
		importSvc.AssertNotCalled(t, "Import")
	})
}

func TestNotifyTaskHandler(t *testing.T) {
	handler := NewNotifyTaskHandler()

	t.Run("notification send", func(t *testing.T) {
		approvalID := uuid.New()
		n := events.NotificationSend{
			RecipientType:  "user",
			RecipientID:    "pm@example.com",
			Message:        "Approval required",
			Type:           "approval_request",
			Priority:       "high",
			ActionRequired: true,
			ApprovalID:     &approvalID,
		}
		b, _ := json.Marshal(n)
		err := handler.HandleNotificationSend(context.Background(), asynq.NewTask(events.SubjectNotificationSend, b))
		require.NoError(t, err)
	})

	t.Run("approval completed", func(t *testing.T) {
		e := events.ApprovalCompleted{
			ApprovalID:   uuid.New(),
			ProjectID:    uuid.New(),
			Approved:     true,
			AutoApproved: true,
		}
		b, _ := json.Marshal(e)
		err := handler.HandleApprovalCompleted(context.Background(), asynq.NewTask(events.SubjectApprovalCompleted, b))
		require.NoError(t, err)
	})

	t.Run("malformed notification payload", func(t *testing.T) {
		err := handler.HandleNotificationSend(context.Background(), asynq.NewTask(events.SubjectNotificationSend, []byte("{")))
		require.Error(t, err)
	})
}
