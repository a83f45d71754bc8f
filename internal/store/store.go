package store

import (
	"context"
	"errors"

	"devforge/internal/mission"
)

// ErrMissionNotFound is returned when a mission id has no row.
var ErrMissionNotFound = errors.New("mission not found")

// ErrPersistence wraps database failures during a step commit. The attempted
// step is rolled back in full, files included.
var ErrPersistence = errors.New("persistence failure")

// WriteFiles materializes a step's generated files and returns the subset
// actually written, normalized. It runs inside the step commit.
type WriteFiles func() ([]mission.GeneratedFile, error)

// DiscardFiles undoes a WriteFiles call when the surrounding commit fails.
type DiscardFiles func([]mission.GeneratedFile)

// Store persists missions, steps and their audit log.
type Store interface {
	CreateMission(ctx context.Context, title, description string) (int64, error)
	GetMission(ctx context.Context, id int64) (*mission.Mission, error)
	ListMissions(ctx context.Context) ([]mission.Summary, error)
	// UpdateMissionStatus changes only the status, leaving current_step alone.
	UpdateMissionStatus(ctx context.Context, id int64, status string) error
	GetSteps(ctx context.Context, missionID int64) ([]mission.Step, error)
	// CommitStep assigns the next step index, persists the step row, writes
	// the files and updates the mission as one unit. On failure nothing is
	// visible afterwards: the transaction rolls back and discard reclaims any
	// files already on disk. On success step.StepIndex and
	// step.GeneratedFiles reflect what was committed.
	CommitStep(ctx context.Context, missionID int64, step *mission.Step, completed bool, write WriteFiles, discard DiscardFiles) error
	AppendLog(ctx context.Context, missionID int64, level, message string) error
	GetLogs(ctx context.Context, missionID int64, limit int) ([]mission.LogEntry, error)
	Close() error
}
