package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/contracthub/engine/internal/models"
	"github.com/contracthub/engine/internal/repository"
	appErr "github.com/contracthub/engine/pkg/errors"
)

type mockProgrammeRepo struct {
	mock.Mock
}

func (m *mockProgrammeRepo) Create(ctx context.Context, obj *models.Programme) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockProgrammeRepo) GetByID(ctx context.Context, id any, dest *models.Programme) error {
	args := m.Called(ctx, id, dest)
	if args.Error(0) == nil && args.Get(1) != nil {
		src := args.Get(1).(*models.Programme)
		*dest = *src
	}
	return args.Error(0)
}

func (m *mockProgrammeRepo) Update(ctx context.Context, obj *models.Programme) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockProgrammeRepo) Delete(ctx context.Context, id any) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockProgrammeRepo) ListByProject(ctx context.Context, projectID uuid.UUID) ([]models.Programme, error) {
	args := m.Called(ctx, projectID)
	if v := args.Get(0); v != nil {
		return v.([]models.Programme), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockProgrammeRepo) ReplaceGraph(ctx context.Context, programmeID uuid.UUID, graph *repository.ImportedGraph) error {
	args := m.Called(ctx, programmeID, graph)
	return args.Error(0)
}

type mockActivityRepo struct {
	mock.Mock
}

func (m *mockActivityRepo) Create(ctx context.Context, obj *models.Activity) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockActivityRepo) GetByID(ctx context.Context, id any, dest *models.Activity) error {
	args := m.Called(ctx, id, dest)
	if args.Error(0) == nil && args.Get(1) != nil {
		src := args.Get(1).(*models.Activity)
		*dest = *src
	}
	return args.Error(0)
}

func (m *mockActivityRepo) Update(ctx context.Context, obj *models.Activity) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *mockActivityRepo) Delete(ctx context.Context, id any) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockActivityRepo) ListByProgramme(ctx context.Context, programmeID uuid.UUID) ([]models.Activity, error) {
	args := m.Called(ctx, programmeID)
	if v := args.Get(0); v != nil {
		return v.([]models.Activity), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockActivityRepo) ListRelationships(ctx context.Context, programmeID uuid.UUID) ([]models.ActivityRelationship, error) {
	args := m.Called(ctx, programmeID)
	if v := args.Get(0); v != nil {
		return v.([]models.ActivityRelationship), args.Error(1)
	}
	return nil, args.Error(1)
}

const importTestXML = `<Project>
  <Name>Substation Works</Name>
  <Tasks>
    <Task>
      <ID>1</ID><Name>Excavation</Name>
      <OutlineNumber>1</OutlineNumber><OutlineLevel>1</OutlineLevel>
    </Task>
    <Task>
      <ID>2</ID><Name>Handover</Name>
      <OutlineNumber>2</OutlineNumber><OutlineLevel>1</OutlineLevel>
      <Milestone>true</Milestone>
    </Task>
  </Tasks>
</Project>`

func TestImportSucceeds(t *testing.T) {
	programmeID := uuid.New()
	programmes := &mockProgrammeRepo{}
	activities := &mockActivityRepo{}
	svc := NewImportService(programmes, activities, nil, 1<<20, time.Minute)

	programmes.On("GetByID", mock.Anything, programmeID, mock.Anything).
		Return(nil, &models.Programme{ID: programmeID}).Once()
	programmes.On("ReplaceGraph", mock.Anything, programmeID,
		mock.MatchedBy(func(g *repository.ImportedGraph) bool {
			return len(g.Activities) == 2 && len(g.Milestones) == 1 && g.Checksum != ""
		}),
	).Return(nil).Once()

	res, err := svc.Import(context.Background(), programmeID, []byte(importTestXML))
	require.NoError(t, err)
	require.Equal(t, 2, res.Stats.ActivityCount)
	require.Equal(t, 1, res.Stats.MilestoneCount)
	require.NotEmpty(t, res.Checksum)
	mock.AssertExpectationsForObjects(t, programmes)
}

func TestImportUnknownProgramme(t *testing.T) {
	programmeID := uuid.New()
	programmes := &mockProgrammeRepo{}
	activities := &mockActivityRepo{}
	svc := NewImportService(programmes, activities, nil, 1<<20, time.Minute)

	programmes.On("GetByID", mock.Anything, programmeID, mock.Anything).
		Return(appErr.New(appErr.CodeNotFound, "entity not found"), nil).Once()

	_, err := svc.Import(context.Background(), programmeID, []byte(importTestXML))
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeNotFound))
	programmes.AssertNotCalled(t, "ReplaceGraph")
}

func TestImportOversizedFile(t *testing.T) {
	programmes := &mockProgrammeRepo{}
	activities := &mockActivityRepo{}
	svc := NewImportService(programmes, activities, nil, 16, time.Minute)

	_, err := svc.Import(context.Background(), uuid.New(), []byte(importTestXML))
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	programmes.AssertNotCalled(t, "GetByID")
	programmes.AssertNotCalled(t, "ReplaceGraph")
}

func TestImportInvalidFilePropagates(t *testing.T) {
	programmeID := uuid.New()
	programmes := &mockProgrammeRepo{}
	activities := &mockActivityRepo{}
	svc := NewImportService(programmes, activities, nil, 1<<20, time.Minute)

	programmes.On("GetByID", mock.Anything, programmeID, mock.Anything).
		Return(nil, &models.Programme{ID: programmeID}).Once()

	_, err := svc.Import(context.Background(), programmeID, []byte("<Project></Project>"))
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
	programmes.AssertNotCalled(t, "ReplaceGraph")
}

func TestImportExpiredContext(t *testing.T) {
	programmeID := uuid.New()
	programmes := &mockProgrammeRepo{}
	activities := &mockActivityRepo{}
	svc := NewImportService(programmes, activities, nil, 1<<20, time.Minute)

	programmes.On("GetByID", mock.Anything, programmeID, mock.Anything).
		Return(nil, &models.Programme{ID: programmeID}).Once()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Import(ctx, programmeID, []byte(importTestXML))
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeDeadline))
	programmes.AssertNotCalled(t, "ReplaceGraph")
}

func TestEnqueueImportWithoutQueue(t *testing.T) {
	programmeID := uuid.New()
	programmes := &mockProgrammeRepo{}
	activities := &mockActivityRepo{}
	svc := NewImportService(programmes, activities, nil, 1<<20, time.Minute)

	programmes.On("GetByID", mock.Anything, programmeID, mock.Anything).
		Return(nil, &models.Programme{ID: programmeID}).Once()

	err := svc.EnqueueImport(context.Background(), programmeID, []byte(importTestXML), "planner@example.com")
	require.Error(t, err)
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
}
