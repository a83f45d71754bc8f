package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"devforge/internal/llm"
	"devforge/internal/logger"
	"devforge/internal/mission"
	"devforge/internal/sandbox"
	"devforge/internal/store"
)

// ErrInvalidInput rejects empty titles/descriptions and non-positive ids.
var ErrInvalidInput = errors.New("invalid input")

const logListLimit = 200

// StepOutcome is what one ExecuteStep invocation reports back.
type StepOutcome struct {
	MissionID        int64    `json:"mission_id"`
	StepIndex        int      `json:"step_index"`
	NextStep         string   `json:"next_step"`
	Files            []string `json:"files"`
	MissionCompleted bool     `json:"mission_completed"`
	// AlreadyCompleted marks the no-op outcome of invoking a finished
	// mission; no backend call was made and no step was created.
	AlreadyCompleted bool `json:"already_completed,omitempty"`
}

// Orchestrator drives missions through backend-generated steps. It owns the
// mission/step lifecycle; files go through the sandbox writer and rows
// through the store, never directly.
type Orchestrator struct {
	store store.Store
	llm   llm.Client
	files *sandbox.Writer
	locks *missionLocks
}

func New(st store.Store, client llm.Client, files *sandbox.Writer) *Orchestrator {
	return &Orchestrator{
		store: st,
		llm:   client,
		files: files,
		locks: newMissionLocks(),
	}
}

// CreateMission registers a new mission and prepares its sandbox directory.
func (o *Orchestrator) CreateMission(ctx context.Context, title, description string) (int64, error) {
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return 0, fmt.Errorf("%w: title and description are required", ErrInvalidInput)
	}

	id, err := o.store.CreateMission(ctx, title, description)
	if err != nil {
		return 0, err
	}
	if err := o.files.EnsureMissionRoot(id); err != nil {
		logger.Log.Warnw("could not pre-create mission directory", "mission_id", id, "error", err)
	}
	logger.Log.Infow("mission created", "mission_id", id, "title", title)
	return id, nil
}

// GetMission returns a mission together with its steps in index order.
func (o *Orchestrator) GetMission(ctx context.Context, id int64) (*mission.Mission, []mission.Step, error) {
	if id <= 0 {
		return nil, nil, fmt.Errorf("%w: mission id must be positive", ErrInvalidInput)
	}
	m, err := o.store.GetMission(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	steps, err := o.store.GetSteps(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	return m, steps, nil
}

func (o *Orchestrator) ListMissions(ctx context.Context) ([]mission.Summary, error) {
	return o.store.ListMissions(ctx)
}

// GetLogs returns the newest log entries for a mission.
func (o *Orchestrator) GetLogs(ctx context.Context, id int64) ([]mission.LogEntry, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: mission id must be positive", ErrInvalidInput)
	}
	if _, err := o.store.GetMission(ctx, id); err != nil {
		return nil, err
	}
	return o.store.GetLogs(ctx, id, logListLimit)
}

// MissionRoot exposes the sandbox directory for read-only consumers such as
// the archive exporter.
func (o *Orchestrator) MissionRoot(id int64) string {
	return o.files.MissionRoot(id)
}

// ExecuteStep advances a mission by exactly one step: build the prompt from
// history, call the backend, interpret the output and commit the result
// atomically. At most one invocation runs per mission at a time.
//
// Backend and interpretation failures abort the attempt, leave an error log
// entry and no step behind; the mission stays retryable. A mission already
// completed short-circuits before any backend call.
func (o *Orchestrator) ExecuteStep(ctx context.Context, id int64) (*StepOutcome, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: mission id must be positive", ErrInvalidInput)
	}

	release := o.locks.acquire(id)
	defer release()

	start := time.Now()

	m, err := o.store.GetMission(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.Status == mission.StatusCompleted {
		return &StepOutcome{
			MissionID:        id,
			StepIndex:        m.CurrentStep,
			MissionCompleted: true,
			AlreadyCompleted: true,
		}, nil
	}

	// Mark intent before the (possibly slow) backend call.
	if m.Status == mission.StatusPending {
		if err := o.store.UpdateMissionStatus(ctx, id, mission.StatusRunning); err != nil {
			return nil, err
		}
	}

	priorSteps, err := o.store.GetSteps(ctx, id)
	if err != nil {
		return nil, err
	}

	prompt := mission.BuildPrompt(m, priorSteps)
	raw, err := o.llm.Infer(ctx, prompt)
	if err != nil {
		o.logAttemptError(ctx, id, fmt.Sprintf("backend call failed: %v", err))
		return nil, fmt.Errorf("contacting AI backend: %w", err)
	}

	res, err := mission.Interpret(raw)
	if err != nil {
		o.logAttemptError(ctx, id, fmt.Sprintf("uninterpretable backend output: %v", err))
		return nil, fmt.Errorf("interpreting AI output: %w", err)
	}

	step := &mission.Step{
		Description: res.NextStep,
		Evaluation:  res.Evaluation,
		Status:      mission.StepDone,
	}
	err = o.store.CommitStep(ctx, id, step, res.MissionCompleted,
		func() ([]mission.GeneratedFile, error) {
			return o.files.Write(id, res.GeneratedFiles)
		},
		func(files []mission.GeneratedFile) {
			o.files.Remove(id, files)
		})
	if err != nil {
		o.logAttemptError(ctx, id, fmt.Sprintf("step commit failed: %v", err))
		return nil, fmt.Errorf("saving step: %w", err)
	}

	paths := make([]string, len(step.GeneratedFiles))
	for i, f := range step.GeneratedFiles {
		paths[i] = f.Path
	}

	logger.Log.Infow("step executed",
		"mission_id", id,
		"step_index", step.StepIndex,
		"files", len(paths),
		"completed", res.MissionCompleted,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return &StepOutcome{
		MissionID:        id,
		StepIndex:        step.StepIndex,
		NextStep:         step.Description,
		Files:            paths,
		MissionCompleted: res.MissionCompleted,
	}, nil
}

// logAttemptError records the failed attempt in the mission's audit trail.
// The mission state itself is left as is so a later call can retry.
func (o *Orchestrator) logAttemptError(ctx context.Context, id int64, msg string) {
	if err := o.store.AppendLog(ctx, id, mission.LevelError, msg); err != nil {
		logger.Log.Errorw("could not append error log", "mission_id", id, "error", err)
	}
}
