// Package pathutil checks where the CLI is allowed to write electorate files.
package pathutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrOutsideAllowed is returned when an output path escapes every allowed root.
var ErrOutsideAllowed = errors.New("outside allowed directories")

// RedactPath shortens path to .../<parent>/<base> for error messages.
func RedactPath(path string) string {
	if path == "" {
		return ""
	}
	cleaned := filepath.Clean(path)
	parent := filepath.Base(filepath.Dir(cleaned))
	base := filepath.Base(cleaned)
	if parent == "." || parent == string(filepath.Separator) {
		return base
	}
	return ".../" + parent + "/" + base
}

// AllowedOutputDirs returns the roots electorate exports may be written under:
// the working directory and the polisim data directory.
func AllowedOutputDirs(dataDir string) ([]string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}
	dirs := []string{wd}
	if dataDir != "" {
		dirs = append(dirs, dataDir)
	}
	return dirs, nil
}

// CheckOutputPath verifies that path, after cleaning and symlink resolution
// of its existing ancestors, lies inside one of roots. The file itself need
// not exist.
func CheckOutputPath(path string, roots []string) error {
	switch {
	case path == "":
		return errors.New("output path is empty")
	case strings.ContainsRune(path, 0):
		return errors.New("output path contains a null byte")
	case len(roots) == 0:
		return errors.New("no output directories configured")
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolving %s: %w", RedactPath(path), err)
	}
	dir, err := resolve(filepath.Dir(abs))
	if err != nil {
		return err
	}
	target := filepath.Join(dir, filepath.Base(abs))

	for _, root := range roots {
		rootAbs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		resolvedRoot, err := resolve(rootAbs)
		if err != nil {
			continue
		}
		if within(target, resolvedRoot) {
			return nil
		}
	}
	return fmt.Errorf("%s: %w", RedactPath(abs), ErrOutsideAllowed)
}

// resolve evaluates symlinks on the deepest existing ancestor of dir and
// re-appends the missing tail.
func resolve(dir string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		return resolved, nil
	}
	parent := filepath.Dir(dir)
	if parent == dir {
		return "", fmt.Errorf("cannot resolve %s", RedactPath(dir))
	}
	resolved, err := resolve(parent)
	if err != nil {
		return "", err
	}
	return filepath.Join(resolved, filepath.Base(dir)), nil
}

func within(path, root string) bool {
	return path == root || strings.HasPrefix(path, root+string(os.PathSeparator))
}
