// Package source discovers and loads diagram source files.
//
// Discovery yields paths; loading reads one file's text and normalizes
// escaped newline sequences. The two are deliberately asymmetric about
// the file extension: an explicitly named file is always yielded by
// discovery and only the loader decides to skip it, while directory scans
// pick up diagram files only. Explicit single-file targets are therefore
// always attempted.
package source

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	apperrors "github.com/mermatic/mermatic/pkg/errors"
)

// Extension is the diagram file extension.
const Extension = ".mermaid"

// ErrSkip marks a file the loader declines to process because it does not
// carry the diagram extension. It is a skip, not a failure; callers log it
// in verbose mode and continue.
var ErrSkip = errors.New("not a diagram file")

// DiagramSource is one loaded diagram: its path plus the normalized text.
type DiagramSource struct {
	Path string
	Text string
}

// Discover resolves an input path into the diagram files to process.
//
// A regular file is yielded as-is, regardless of extension. A directory
// yields its immediate diagram files; subdirectories are entered only
// when recursive is true and are silently skipped otherwise. Unreadable
// subdirectories are reported and skipped, never fatal. Ordering follows
// the file system; no sort is applied.
func Discover(path string, recursive bool, logger *log.Logger) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrCodeFileNotFound, err, "input path %s", path)
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	return discoverDir(path, recursive, logger)
}

// discoverDir enumerates one directory level, recursing on demand.
func discoverDir(dir string, recursive bool, logger *log.Logger) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		full := filepath.Join(dir, entry.Name())

		if entry.IsDir() {
			if !recursive {
				continue
			}
			sub, err := discoverDir(full, recursive, logger)
			if err != nil {
				if logger != nil {
					logger.Warn("Skipping unreadable directory", "path", full, "error", err)
				}
				continue
			}
			paths = append(paths, sub...)
			continue
		}

		if strings.HasSuffix(entry.Name(), Extension) {
			paths = append(paths, full)
		}
	}

	return paths, nil
}

// Load reads a diagram file and normalizes its text.
//
// Files without the diagram extension return ErrSkip. Read failures are
// returned as errors for the caller to report; they never abort a batch.
func Load(path string) (DiagramSource, error) {
	if !strings.HasSuffix(path, Extension) {
		return DiagramSource{}, ErrSkip
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return DiagramSource{}, fmt.Errorf("read %s: %w", path, err)
	}

	return DiagramSource{Path: path, Text: Normalize(string(data))}, nil
}

// Normalize replaces every literal two-character backslash-n sequence with
// a real newline, leaving genuine newlines untouched. The operation is
// one-way and idempotent. A source that legitimately contains a backslash
// followed by the letter n as data loses it; this is a documented
// limitation of the escape convention, not silently repaired.
func Normalize(text string) string {
	return strings.ReplaceAll(text, `\n`, "\n")
}
