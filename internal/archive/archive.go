// Package archive relocates working files once their document is
// published. Like notification delivery this is a post-commit side
// effect: a failed or impossible move never affects the recorded state.
package archive

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// Mover moves a document's working file out of the active area. Move
// reports whether a file was actually moved; a missing source is not an
// error (the file may have been archived by hand, or never mirrored).
type Mover interface {
	Move(name, rev string) (bool, error)
}

// DirMover moves `<name>-<rev>.txt` from ActiveDir to ArchiveDir with a
// plain rename. Both directories must be on the same filesystem.
type DirMover struct {
	ActiveDir  string
	ArchiveDir string
	Logger     *slog.Logger
}

func (m DirMover) Move(name, rev string) (bool, error) {
	filename := fmt.Sprintf("%s-%s.txt", name, rev)
	src := filepath.Join(m.ActiveDir, filename)
	dst := filepath.Join(m.ArchiveDir, filename)

	if _, err := os.Stat(src); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("archive %s: %w", filename, err)
	}

	if err := os.MkdirAll(m.ArchiveDir, 0o755); err != nil {
		return false, fmt.Errorf("archive %s: %w", filename, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return false, fmt.Errorf("archive %s: %w", filename, err)
	}

	if m.Logger != nil {
		m.Logger.Info("archived working file", "file", filename, "dest", dst)
	}
	return true, nil
}

// NopMover ignores move requests. Used when no active directory is
// configured.
type NopMover struct{}

func (NopMover) Move(string, string) (bool, error) { return false, nil }
