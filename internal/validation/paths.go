package validation

import (
	"os"
	"path/filepath"
)

// memoryDBPath mirrors storage.MemoryPath without importing storage.
const memoryDBPath = ":memory:"

// PathHandler provides secure path operations with validation
type PathHandler struct {
	validator *FilePathValidator
}

// NewSecurePathHandler restricts paths to the flick data and config
// directories and the temp dir.
func NewSecurePathHandler() *PathHandler {
	return &PathHandler{
		validator: NewFilePathValidator(),
	}
}

// NewPermissivePathHandler accepts user-chosen locations anywhere on disk.
func NewPermissivePathHandler() *PathHandler {
	return &PathHandler{
		validator: NewPermissiveFilePathValidator(),
	}
}

// ExpandAndValidatePath safely expands and validates a path
func (ph *PathHandler) ExpandAndValidatePath(path string) (string, error) {
	return ph.validator.ValidateAndSanitize(path)
}

// GetSecureDBPath returns a validated database path. The in-memory marker
// passes through unchanged.
func (ph *PathHandler) GetSecureDBPath(userPath string) (string, error) {
	if userPath == memoryDBPath {
		return userPath, nil
	}
	if userPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(homeDir, ".flick", "flick.db")
	}

	return ph.validator.ValidateFile(userPath)
}

// GetSecureConfigPath returns a validated configuration path
func (ph *PathHandler) GetSecureConfigPath(userPath string) (string, error) {
	if userPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		userPath = filepath.Join(homeDir, ".config", "flick", "config.toml")
	}

	return ph.validator.ValidateFile(userPath)
}

// GetExportPath validates a watchlist export target, falling back to
// defaultName in the working directory, and creates its parent directory.
func (ph *PathHandler) GetExportPath(userPath, defaultName string) (string, error) {
	if userPath == "" {
		userPath = defaultName
	}

	path, err := ph.validator.ValidateFile(userPath)
	if err != nil {
		return "", err
	}
	if path, err = filepath.Abs(path); err != nil {
		return "", err
	}
	if _, err := ph.EnsureSecureDirectory(filepath.Dir(path)); err != nil {
		return "", err
	}
	return path, nil
}

// EnsureSecureDirectory creates a directory safely after validation
func (ph *PathHandler) EnsureSecureDirectory(path string) (string, error) {
	return ph.validator.ValidateDirectory(path, true)
}
