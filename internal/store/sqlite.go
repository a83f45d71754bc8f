package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"devforge/internal/mission"
)

// SQLiteStore implements Store on a local SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and
// bootstraps the schema. Use ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite allows one writer; a single pooled connection also keeps
	// ":memory:" databases from splitting per connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS missions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		description TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		current_step INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS mission_steps (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mission_id INTEGER NOT NULL REFERENCES missions(id),
		step_index INTEGER NOT NULL,
		description TEXT NOT NULL,
		generated_files TEXT NOT NULL DEFAULT '[]',
		evaluation TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'done',
		created_at TEXT NOT NULL,
		UNIQUE(mission_id, step_index)
	);
	CREATE INDEX IF NOT EXISTS idx_steps_mission ON mission_steps(mission_id);
	CREATE TABLE IF NOT EXISTS agent_logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		mission_id INTEGER NOT NULL REFERENCES missions(id),
		level TEXT NOT NULL,
		message TEXT NOT NULL,
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_logs_mission ON agent_logs(mission_id);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initialize schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func now() string { return time.Now().UTC().Format(time.RFC3339Nano) }

func parseTime(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func (s *SQLiteStore) CreateMission(ctx context.Context, title, description string) (int64, error) {
	ts := now()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO missions (title, description, status, current_step, created_at, updated_at)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		title, description, mission.StatusPending, ts, ts)
	if err != nil {
		return 0, fmt.Errorf("%w: insert mission: %v", ErrPersistence, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("%w: mission id: %v", ErrPersistence, err)
	}
	return id, nil
}

func (s *SQLiteStore) GetMission(ctx context.Context, id int64) (*mission.Mission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, description, status, current_step, created_at, updated_at
		 FROM missions WHERE id = ?`, id)

	var m mission.Mission
	var created, updated string
	err := row.Scan(&m.ID, &m.Title, &m.Description, &m.Status, &m.CurrentStep, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrMissionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load mission: %v", ErrPersistence, err)
	}
	m.CreatedAt = parseTime(created)
	m.UpdatedAt = parseTime(updated)
	return &m, nil
}

func (s *SQLiteStore) ListMissions(ctx context.Context) ([]mission.Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, status, created_at, updated_at
		 FROM missions ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: list missions: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var out []mission.Summary
	for rows.Next() {
		var sm mission.Summary
		var created, updated string
		if err := rows.Scan(&sm.ID, &sm.Title, &sm.Status, &created, &updated); err != nil {
			return nil, fmt.Errorf("%w: scan mission: %v", ErrPersistence, err)
		}
		sm.CreatedAt = parseTime(created)
		sm.UpdatedAt = parseTime(updated)
		out = append(out, sm)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateMissionStatus(ctx context.Context, id int64, status string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE missions SET status = ?, updated_at = ? WHERE id = ?`,
		status, now(), id)
	if err != nil {
		return fmt.Errorf("%w: update mission status: %v", ErrPersistence, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrMissionNotFound
	}
	return nil
}

func (s *SQLiteStore) GetSteps(ctx context.Context, missionID int64) ([]mission.Step, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mission_id, step_index, description, generated_files, evaluation, status, created_at
		 FROM mission_steps WHERE mission_id = ? ORDER BY step_index ASC`, missionID)
	if err != nil {
		return nil, fmt.Errorf("%w: load steps: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var out []mission.Step
	for rows.Next() {
		var st mission.Step
		var files, created string
		if err := rows.Scan(&st.MissionID, &st.StepIndex, &st.Description, &files, &st.Evaluation, &st.Status, &created); err != nil {
			return nil, fmt.Errorf("%w: scan step: %v", ErrPersistence, err)
		}
		if err := json.Unmarshal([]byte(files), &st.GeneratedFiles); err != nil {
			st.GeneratedFiles = nil
		}
		st.CreatedAt = parseTime(created)
		out = append(out, st)
	}
	return out, rows.Err()
}

// CommitStep runs the step commit as one transaction: next index, step row,
// file writes, mission update and the info log entry. If anything fails the
// transaction rolls back and discard removes files already written.
func (s *SQLiteStore) CommitStep(ctx context.Context, missionID int64, step *mission.Step, completed bool, write WriteFiles, discard DiscardFiles) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", ErrPersistence, err)
	}

	var written []mission.GeneratedFile
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			if discard != nil {
				discard(written)
			}
		}
	}()

	var maxIndex int
	if err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(step_index), 0) FROM mission_steps WHERE mission_id = ?`,
		missionID).Scan(&maxIndex); err != nil {
		return fmt.Errorf("%w: next step index: %v", ErrPersistence, err)
	}
	nextIndex := maxIndex + 1

	ts := now()
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO mission_steps (mission_id, step_index, description, generated_files, evaluation, status, created_at)
		 VALUES (?, ?, ?, '[]', ?, ?, ?)`,
		missionID, nextIndex, step.Description, step.Evaluation, step.Status, ts); err != nil {
		return fmt.Errorf("%w: insert step: %v", ErrPersistence, err)
	}

	if write != nil {
		written, err = write()
		if err != nil {
			return fmt.Errorf("%w: write files: %v", ErrPersistence, err)
		}
	}

	filesJSON, err := json.Marshal(written)
	if err != nil {
		return fmt.Errorf("%w: serialize files: %v", ErrPersistence, err)
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE mission_steps SET generated_files = ? WHERE mission_id = ? AND step_index = ?`,
		string(filesJSON), missionID, nextIndex); err != nil {
		return fmt.Errorf("%w: record files: %v", ErrPersistence, err)
	}

	status := mission.StatusRunning
	if completed {
		status = mission.StatusCompleted
	}
	if _, err = tx.ExecContext(ctx,
		`UPDATE missions SET status = ?, current_step = ?, updated_at = ? WHERE id = ?`,
		status, nextIndex, ts, missionID); err != nil {
		return fmt.Errorf("%w: update mission: %v", ErrPersistence, err)
	}

	paths := make([]string, len(written))
	for i, f := range written {
		paths[i] = f.Path
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO agent_logs (mission_id, level, message, created_at) VALUES (?, ?, ?, ?)`,
		missionID, mission.LevelInfo,
		fmt.Sprintf("Step %d executed. Files: %s", nextIndex, strings.Join(paths, ",")), ts); err != nil {
		return fmt.Errorf("%w: insert log: %v", ErrPersistence, err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", ErrPersistence, err)
	}

	step.MissionID = missionID
	step.StepIndex = nextIndex
	step.GeneratedFiles = written
	step.CreatedAt = parseTime(ts)
	return nil
}

func (s *SQLiteStore) AppendLog(ctx context.Context, missionID int64, level, message string) error {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO agent_logs (mission_id, level, message, created_at) VALUES (?, ?, ?, ?)`,
		missionID, level, message, now()); err != nil {
		return fmt.Errorf("%w: append log: %v", ErrPersistence, err)
	}
	return nil
}

func (s *SQLiteStore) GetLogs(ctx context.Context, missionID int64, limit int) ([]mission.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT mission_id, level, message, created_at
		 FROM agent_logs WHERE mission_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`,
		missionID, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: load logs: %v", ErrPersistence, err)
	}
	defer rows.Close()

	var out []mission.LogEntry
	for rows.Next() {
		var e mission.LogEntry
		var created string
		if err := rows.Scan(&e.MissionID, &e.Level, &e.Message, &created); err != nil {
			return nil, fmt.Errorf("%w: scan log: %v", ErrPersistence, err)
		}
		e.CreatedAt = parseTime(created)
		out = append(out, e)
	}
	return out, rows.Err()
}
