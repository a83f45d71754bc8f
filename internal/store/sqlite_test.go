package store

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"devforge/internal/mission"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateAndGetMission(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateMission(ctx, "Build API", "Expose /health endpoint")
	require.NoError(t, err)
	assert.Equal(t, int64(1), id)

	m, err := s.GetMission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Build API", m.Title)
	assert.Equal(t, "Expose /health endpoint", m.Description)
	assert.Equal(t, mission.StatusPending, m.Status)
	assert.Equal(t, 0, m.CurrentStep)
	assert.False(t, m.CreatedAt.IsZero())
}

func TestGetMissionNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetMission(context.Background(), 99)
	assert.ErrorIs(t, err, ErrMissionNotFound)
}

func TestListMissions(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := s.CreateMission(ctx, fmt.Sprintf("m%d", i), "d")
		require.NoError(t, err)
	}

	list, err := s.ListMissions(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)
	// newest first
	assert.Equal(t, int64(3), list[0].ID)
	assert.Equal(t, int64(1), list[2].ID)
}

func TestUpdateMissionStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateMission(ctx, "t", "d")
	require.NoError(t, err)

	require.NoError(t, s.UpdateMissionStatus(ctx, id, mission.StatusRunning))
	m, err := s.GetMission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, mission.StatusRunning, m.Status)

	assert.ErrorIs(t, s.UpdateMissionStatus(ctx, 42, mission.StatusRunning), ErrMissionNotFound)
}

func TestCommitStepAssignsGaplessIndexes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateMission(ctx, "t", "d")
	require.NoError(t, err)

	for i := 1; i <= 3; i++ {
		step := &mission.Step{Description: fmt.Sprintf("step %d", i), Status: mission.StepDone}
		err := s.CommitStep(ctx, id, step, false, func() ([]mission.GeneratedFile, error) {
			return []mission.GeneratedFile{{Path: fmt.Sprintf("f%d.txt", i), Content: "x"}}, nil
		}, nil)
		require.NoError(t, err)
		assert.Equal(t, i, step.StepIndex)
	}

	steps, err := s.GetSteps(ctx, id)
	require.NoError(t, err)
	require.Len(t, steps, 3)
	for i, st := range steps {
		assert.Equal(t, i+1, st.StepIndex)
		require.Len(t, st.GeneratedFiles, 1)
		assert.Equal(t, fmt.Sprintf("f%d.txt", i+1), st.GeneratedFiles[0].Path)
	}

	m, err := s.GetMission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 3, m.CurrentStep)
	assert.Equal(t, mission.StatusRunning, m.Status)
}

func TestCommitStepCompletesMission(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateMission(ctx, "t", "d")
	require.NoError(t, err)

	step := &mission.Step{Description: "final", Status: mission.StepDone}
	require.NoError(t, s.CommitStep(ctx, id, step, true, nil, nil))

	m, err := s.GetMission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, mission.StatusCompleted, m.Status)
	assert.Equal(t, 1, m.CurrentStep)
}

func TestCommitStepRollsBackOnWriteFailure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateMission(ctx, "t", "d")
	require.NoError(t, err)

	var discarded []mission.GeneratedFile
	partial := []mission.GeneratedFile{{Path: "half.txt", Content: "x"}}
	step := &mission.Step{Description: "doomed", Status: mission.StepDone}
	err = s.CommitStep(ctx, id, step, false,
		func() ([]mission.GeneratedFile, error) {
			return partial, errors.New("disk full")
		},
		func(files []mission.GeneratedFile) { discarded = files })

	require.ErrorIs(t, err, ErrPersistence)
	assert.Equal(t, partial, discarded)

	// no step, no counter movement, nothing visible
	steps, err := s.GetSteps(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, steps)

	m, err := s.GetMission(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 0, m.CurrentStep)
	assert.Equal(t, mission.StatusPending, m.Status)
}

func TestCommitStepWritesInfoLog(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateMission(ctx, "t", "d")
	require.NoError(t, err)

	step := &mission.Step{Description: "s", Status: mission.StepDone}
	require.NoError(t, s.CommitStep(ctx, id, step, false, func() ([]mission.GeneratedFile, error) {
		return []mission.GeneratedFile{{Path: "a.txt", Content: "x"}}, nil
	}, nil))

	logs, err := s.GetLogs(ctx, id, 10)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, mission.LevelInfo, logs[0].Level)
	assert.Contains(t, logs[0].Message, "Step 1 executed")
	assert.Contains(t, logs[0].Message, "a.txt")
}

func TestAppendAndGetLogs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	id, err := s.CreateMission(ctx, "t", "d")
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		require.NoError(t, s.AppendLog(ctx, id, mission.LevelError, fmt.Sprintf("boom %d", i)))
	}

	logs, err := s.GetLogs(ctx, id, 3)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	// newest first
	assert.Equal(t, "boom 4", logs[0].Message)
}
