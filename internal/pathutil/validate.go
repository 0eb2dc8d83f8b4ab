// Package pathutil checks that user-supplied file paths stay inside the
// directories archsim is allowed to read.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nvandessel/archsim/internal/constants"
)

// TopologyDir is the per-user directory for shared topology files.
const TopologyDir = "topologies"

// ErrOutsideAllowed is returned when a path escapes every allowed directory.
var ErrOutsideAllowed = errors.New("path is outside allowed directories")

// RedactPath shortens a path to .../<parent>/<base> for error messages.
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	if parent == "." || parent == string(filepath.Separator) {
		return filepath.Base(cleaned)
	}
	return ".../" + parent + "/" + filepath.Base(cleaned)
}

// ValidatePath resolves path, following symlinks on its existing ancestors,
// and checks that the result lies inside one of allowed.
func ValidatePath(path string, allowed []string) error {
	switch {
	case path == "":
		return errors.New("path validation failed: path is empty")
	case len(allowed) == 0:
		return errors.New("path validation failed: no allowed directories configured")
	case strings.ContainsRune(path, 0):
		return errors.New("path validation failed: path contains null byte")
	}

	abs, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	dir, err := resolve(filepath.Dir(abs))
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	resolved := filepath.Join(dir, filepath.Base(abs))

	for _, a := range allowed {
		base, err := filepath.Abs(filepath.Clean(a))
		if err != nil {
			continue
		}
		if base, err = resolve(base); err != nil {
			continue
		}
		if within(resolved, base) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrOutsideAllowed, RedactPath(abs))
}

// resolve evaluates symlinks on the deepest existing ancestor of dir and
// re-appends the missing tail.
func resolve(dir string) (string, error) {
	if r, err := filepath.EvalSymlinks(dir); err == nil {
		return r, nil
	}
	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve %s", RedactPath(dir))
	}
	r, err := resolve(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(r, filepath.Base(dir)), nil
}

// within reports whether path equals base or lies below it.
func within(path, base string) bool {
	return path == base || strings.HasPrefix(path, base+string(os.PathSeparator))
}

// AllowedTopologyDirs returns the directories topology files may be loaded
// from: the project root and ~/.archsim/topologies.
func AllowedTopologyDirs(root string) ([]string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	return []string{
		root,
		filepath.Join(home, constants.DefaultDataDir, TopologyDir),
	}, nil
}
