package mission

import "time"

const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
)

const (
	LevelInfo  = "info"
	LevelError = "error"
)

const (
	StepDone   = "done"
	StepFailed = "failed"
)

type Mission struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	CurrentStep int       `json:"current_step"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Summary is the listing view of a mission, without its description.
type Summary struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GeneratedFile is one path/content pair proposed by the model. The path is
// untrusted until the sandbox has normalized it.
type GeneratedFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

type Step struct {
	MissionID      int64           `json:"mission_id"`
	StepIndex      int             `json:"step_index"`
	Description    string          `json:"description"`
	GeneratedFiles []GeneratedFile `json:"generated_files"`
	Evaluation     string          `json:"evaluation"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

type LogEntry struct {
	MissionID int64     `json:"mission_id"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// StepResult is the normalized outcome of interpreting one backend response.
type StepResult struct {
	NextStep         string          `json:"next_step"`
	GeneratedFiles   []GeneratedFile `json:"generated_files"`
	Evaluation       string          `json:"evaluation"`
	MissionCompleted bool            `json:"mission_completed"`
}
