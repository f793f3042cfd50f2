package validation

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

const defaultMaxPathLength = 4096

var (
	ErrEmptyPath  = errors.New("path cannot be empty")
	ErrTraversal  = errors.New("directory traversal not allowed")
	ErrOutsideDir = errors.New("path not within allowed directories")
)

// FilePathValidator checks database, config and export paths before flick
// touches the filesystem.
type FilePathValidator struct {
	// AllowedBaseDirs limits paths to these trees. Empty allows any location.
	AllowedBaseDirs []string
	// AllowHomeExpansion enables "~/" prefixes.
	AllowHomeExpansion bool
	// AllowRelativePaths keeps relative paths relative instead of rejecting
	// "./" and resolving against the working directory.
	AllowRelativePaths bool
	MaxPathLength      int
}

// NewFilePathValidator allows only the flick data dir, the flick config dir
// and the temp dir.
func NewFilePathValidator() *FilePathValidator {
	homeDir, _ := os.UserHomeDir()
	return &FilePathValidator{
		AllowedBaseDirs: []string{
			filepath.Join(homeDir, ".flick"),
			filepath.Join(homeDir, ".config", "flick"),
			os.TempDir(),
		},
		AllowHomeExpansion: true,
		MaxPathLength:      defaultMaxPathLength,
	}
}

// NewPermissiveFilePathValidator accepts paths anywhere on disk. Export
// targets and explicit --db flags go through it.
func NewPermissiveFilePathValidator() *FilePathValidator {
	return &FilePathValidator{
		AllowedBaseDirs:    []string{},
		AllowHomeExpansion: true,
		AllowRelativePaths: true,
		MaxPathLength:      defaultMaxPathLength,
	}
}

// ValidateAndSanitize returns the cleaned form of path, or an error if it
// contains unsafe input or falls outside the allowed directories.
func (v *FilePathValidator) ValidateAndSanitize(path string) (string, error) {
	if path == "" {
		return "", ErrEmptyPath
	}
	if len(path) > v.MaxPathLength {
		return "", fmt.Errorf("path too long (max %d characters)", v.MaxPathLength)
	}
	if err := v.checkInput(path); err != nil {
		return "", err
	}

	clean, err := v.resolve(path)
	if err != nil {
		return "", fmt.Errorf("path normalization failed: %w", err)
	}
	if slices.Contains(strings.Split(filepath.ToSlash(clean), "/"), "..") {
		return "", ErrTraversal
	}
	if err := v.checkBase(clean); err != nil {
		return "", err
	}
	return clean, nil
}

func (v *FilePathValidator) checkInput(path string) error {
	if strings.ContainsRune(path, 0) {
		return errors.New("path contains null bytes")
	}
	if strings.ContainsFunc(path, func(r rune) bool { return r < 32 && r != '\t' }) {
		return errors.New("path contains control characters")
	}

	banned := []string{"../", `..\`, "//", `\\`}
	if !v.AllowRelativePaths {
		banned = append(banned, "./")
	}
	for _, seq := range banned {
		if strings.Contains(path, seq) {
			return fmt.Errorf("path contains dangerous sequence: %s", seq)
		}
	}
	return nil
}

func (v *FilePathValidator) resolve(path string) (string, error) {
	if rest, ok := strings.CutPrefix(path, "~/"); ok && v.AllowHomeExpansion {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		path = filepath.Join(homeDir, rest)
	} else if strings.HasPrefix(path, "~") {
		return "", errors.New("tilde expansion not allowed or invalid tilde usage")
	}

	if !v.AllowRelativePaths && !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("cannot make path absolute: %w", err)
		}
		path = abs
	}
	return filepath.Clean(path), nil
}

func (v *FilePathValidator) checkBase(path string) error {
	if len(v.AllowedBaseDirs) == 0 {
		return nil
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("cannot resolve absolute path: %w", err)
	}
	for _, base := range v.AllowedBaseDirs {
		absBase, err := filepath.Abs(base)
		if err != nil {
			continue
		}
		if rel, err := filepath.Rel(absBase, abs); err == nil && !strings.HasPrefix(rel, "..") {
			return nil
		}
	}
	return fmt.Errorf("%w: %v", ErrOutsideDir, v.AllowedBaseDirs)
}

// ValidateDirectory validates path as a directory. A missing directory is
// created when create is set and passed through otherwise.
func (v *FilePathValidator) ValidateDirectory(path string, create bool) (string, error) {
	dir, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}

	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if create {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return "", fmt.Errorf("failed to create directory: %w", err)
			}
		}
		return dir, nil
	case err != nil:
		return "", fmt.Errorf("checking directory: %w", err)
	case !info.IsDir():
		return "", fmt.Errorf("path exists but is not a directory: %s", dir)
	}
	return dir, nil
}

// ValidateFile validates path as a regular file location. The file itself
// does not have to exist yet.
func (v *FilePathValidator) ValidateFile(path string) (string, error) {
	file, err := v.ValidateAndSanitize(path)
	if err != nil {
		return "", err
	}
	if err := v.checkBase(filepath.Dir(file)); err != nil {
		return "", fmt.Errorf("parent directory not allowed: %w", err)
	}
	if info, err := os.Stat(file); err == nil && info.IsDir() {
		return "", fmt.Errorf("path is a directory, not a file: %s", file)
	}
	return file, nil
}
