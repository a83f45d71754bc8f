// Package archive packs a mission's sandbox directory into a zip file for
// download. It consumes the sandbox read-only.
package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// ErrNoFiles means the mission has no sandbox directory to export.
var ErrNoFiles = errors.New("mission has no generated files")

// WriteZip packs every regular file under dir into w, with paths relative to
// dir. Traversal order is the deterministic filepath.WalkDir order.
func WriteZip(dir string, w io.Writer) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return ErrNoFiles
	}

	zw := zip.NewWriter(w)
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		f, err := zw.Create(filepath.ToSlash(rel))
		if err != nil {
			return err
		}
		src, err := os.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()
		_, err = io.Copy(f, src)
		return err
	})
	if err != nil {
		zw.Close()
		return fmt.Errorf("archive %s: %w", dir, err)
	}
	return zw.Close()
}

// ExportToTemp writes the mission archive to a uniquely named file under the
// system temp directory and returns its path. The caller removes it when
// done.
func ExportToTemp(dir string, missionID int64) (string, error) {
	name := fmt.Sprintf("mission_%d_%s.zip", missionID, uuid.New().String()[:8])
	path := filepath.Join(os.TempDir(), name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create archive file: %w", err)
	}
	if err := WriteZip(dir, f); err != nil {
		f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return path, nil
}
