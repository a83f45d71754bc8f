package sandbox

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"devforge/internal/logger"
	"devforge/internal/mission"
)

// ErrUnsafePath marks a generated path that still escaped the mission root
// after normalization. The entry is skipped; the step goes on.
var ErrUnsafePath = errors.New("generated file path escapes the mission sandbox")

// Writer materializes generated files under a per-mission directory.
// Every path is normalized and re-verified against the mission root, so a
// traversal attempt lands inside the sandbox or not at all.
type Writer struct {
	baseDir string
	limit   int
}

func NewWriter(baseDir string, limit int) *Writer {
	return &Writer{baseDir: baseDir, limit: limit}
}

// MissionRoot returns the sandbox directory owned by the given mission.
func (w *Writer) MissionRoot(missionID int64) string {
	return filepath.Join(w.baseDir, fmt.Sprintf("mission_%d", missionID))
}

// EnsureMissionRoot creates the mission directory if it does not exist yet.
func (w *Writer) EnsureMissionRoot(missionID int64) error {
	return os.MkdirAll(w.MissionRoot(missionID), 0o775)
}

// Write persists the files in order, stopping silently once the per-step
// limit is reached. Entries without a path are skipped, as are entries whose
// path cannot be confined to the mission root; empty content produces an
// empty file. Existing files are overwritten. Returns the files actually
// written, in input order, with their normalized relative paths.
func (w *Writer) Write(missionID int64, files []mission.GeneratedFile) ([]mission.GeneratedFile, error) {
	root := w.MissionRoot(missionID)
	if err := os.MkdirAll(root, 0o775); err != nil {
		return nil, fmt.Errorf("create mission root: %w", err)
	}

	written := make([]mission.GeneratedFile, 0, len(files))
	for _, f := range files {
		if len(written) >= w.limit {
			break
		}
		if f.Path == "" {
			continue
		}

		rel := sanitizeRelPath(f.Path)
		if rel == "" {
			logger.Log.Warnw("skipping unsafe generated path", "mission_id", missionID, "path", f.Path)
			continue
		}

		full := filepath.Join(root, filepath.FromSlash(rel))
		if err := verifyWithin(root, full); err != nil {
			logger.Log.Warnw("skipping unsafe generated path", "mission_id", missionID, "path", f.Path, "error", err)
			continue
		}

		if err := os.MkdirAll(filepath.Dir(full), 0o775); err != nil {
			return written, fmt.Errorf("create directories for %s: %w", rel, err)
		}
		if err := os.WriteFile(full, []byte(f.Content), 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", rel, err)
		}
		written = append(written, mission.GeneratedFile{Path: rel, Content: f.Content})
	}
	return written, nil
}

// Remove deletes previously written files from the mission sandbox. Used to
// roll back a step whose commit failed. Best effort.
func (w *Writer) Remove(missionID int64, files []mission.GeneratedFile) {
	root := w.MissionRoot(missionID)
	for _, f := range files {
		full := filepath.Join(root, filepath.FromSlash(f.Path))
		if err := verifyWithin(root, full); err != nil {
			continue
		}
		_ = os.Remove(full)
	}
}

// sanitizeRelPath normalizes a model-supplied path to a safe relative form:
// backslashes become forward slashes, ".." segments and empty segments are
// dropped, leading separators are stripped. Returns "" if nothing is left.
func sanitizeRelPath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	parts := strings.Split(p, "/")
	clean := parts[:0]
	for _, part := range parts {
		if part == "" || part == "." || part == ".." {
			continue
		}
		clean = append(clean, part)
	}
	return strings.Join(clean, "/")
}

// verifyWithin re-checks that the resolved path is still a descendant of
// root after joining.
func verifyWithin(root, full string) error {
	rootAbs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	fullAbs, err := filepath.Abs(full)
	if err != nil {
		return err
	}
	rel, err := filepath.Rel(rootAbs, fullAbs)
	if err != nil {
		return err
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return fmt.Errorf("%w: %s", ErrUnsafePath, full)
	}
	return nil
}
