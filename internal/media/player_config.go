package media

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"

	"github.com/pelletier/go-toml/v2"
)

//go:embed openers.toml
var openersTOML []byte

// OpenerDefinition defines how an opener should be invoked
type OpenerDefinition struct {
	Description string `toml:"description"`
	// Command replaces the opener name as the executable, e.g. "cmd" for
	// the Windows start builtin.
	Command   string          `toml:"command,omitempty"`
	Platforms []string        `toml:"platforms"`
	Web       *TypeArgsConfig `toml:"web,omitempty"`
	Image     *TypeArgsConfig `toml:"image,omitempty"`
}

// TypeArgsConfig holds the arguments used for one URL type
type TypeArgsConfig struct {
	Args        []string `toml:"args,omitempty"`
	ArgsDarwin  []string `toml:"args_darwin,omitempty"`
	ArgsLinux   []string `toml:"args_linux,omitempty"`
	ArgsWindows []string `toml:"args_windows,omitempty"`
}

// OpenersConfig holds all opener definitions
type OpenersConfig struct {
	Openers map[string]OpenerDefinition `toml:"openers"`
}

// OpenerRegistry manages opener definitions
type OpenerRegistry struct {
	openers map[string]OpenerDefinition
}

// NewOpenerRegistry creates a registry from the embedded TOML, merged with
// ~/.config/flick/openers.toml when present.
func NewOpenerRegistry() (*OpenerRegistry, error) {
	var config OpenersConfig
	if err := toml.Unmarshal(openersTOML, &config); err != nil {
		return nil, fmt.Errorf("parsing openers.toml: %w", err)
	}

	registry := &OpenerRegistry{
		openers: config.Openers,
	}

	if home, err := os.UserHomeDir(); err == nil {
		registry.loadUserConfig(filepath.Join(home, ".config", "flick", "openers.toml"))
	}

	return registry, nil
}

// loadUserConfig merges definitions from path over the built-in ones
func (r *OpenerRegistry) loadUserConfig(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var userConfig OpenersConfig
	if err := toml.Unmarshal(data, &userConfig); err != nil {
		return
	}
	for name, def := range userConfig.Openers {
		r.openers[name] = def
	}
}

// GetCommand builds the command for a specific opener and URL type
func (r *OpenerRegistry) GetCommand(openerName string, urlType Type, url string) (*exec.Cmd, error) {
	def, exists := r.openers[openerName]
	if !exists {
		return exec.Command(openerName, url), nil
	}

	if !slices.Contains(def.Platforms, runtime.GOOS) {
		return nil, fmt.Errorf("%s not supported on %s", openerName, runtime.GOOS)
	}

	var config *TypeArgsConfig
	switch urlType {
	case TypeImage:
		config = def.Image
	case TypeWeb:
		config = def.Web
	}

	name := openerName
	if def.Command != "" {
		name = def.Command
	}

	args := slices.Clone(r.getArgs(config))
	args = append(args, url)

	return exec.Command(name, args...), nil
}

// getArgs returns the appropriate args for the current platform
func (r *OpenerRegistry) getArgs(config *TypeArgsConfig) []string {
	if config == nil {
		return nil
	}

	switch runtime.GOOS {
	case "darwin":
		if len(config.ArgsDarwin) > 0 {
			return config.ArgsDarwin
		}
	case "linux":
		if len(config.ArgsLinux) > 0 {
			return config.ArgsLinux
		}
	case "windows":
		if len(config.ArgsWindows) > 0 {
			return config.ArgsWindows
		}
	}

	return config.Args
}

// IsAvailable checks if an opener is installed. Openers that run through
// another command are available when that command is.
func (r *OpenerRegistry) IsAvailable(openerName string) bool {
	name := openerName
	if def, ok := r.openers[openerName]; ok && def.Command != "" {
		name = def.Command
	}
	_, err := exec.LookPath(name)
	return err == nil
}

// FindAvailable finds the first available opener from a list
func (r *OpenerRegistry) FindAvailable(openers []string) string {
	for _, opener := range openers {
		if r.IsAvailable(opener) {
			return opener
		}
	}
	return ""
}
