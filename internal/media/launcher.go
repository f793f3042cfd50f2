// Package media opens movie pages and posters in the user's browser or
// image viewer.
package media

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/pders01/flick/internal/config"
	"github.com/pders01/flick/internal/debuglog"
)

var ErrInvalidURL = errors.New("only http and https URLs can be opened")

type Launcher struct {
	opener   string
	registry *OpenerRegistry
	detector *TypeDetector
	start    func(*exec.Cmd) error
}

type Option func(*Launcher)

// WithStarter replaces process start, for tests.
func WithStarter(start func(*exec.Cmd) error) Option {
	return func(l *Launcher) { l.start = start }
}

func NewLauncher(cfg *config.MediaConfig, opts ...Option) *Launcher {
	registry, err := NewOpenerRegistry()
	if err != nil {
		debuglog.Warnf("media: opener definitions unavailable: %v", err)
		registry = &OpenerRegistry{openers: make(map[string]OpenerDefinition)}
	}

	detector, err := NewTypeDetector()
	if err != nil {
		debuglog.Warnf("media: type definitions unavailable: %v", err)
		detector = &TypeDetector{config: &TypesConfig{}}
	}

	var candidates []string
	switch runtime.GOOS {
	case "darwin":
		candidates = cfg.Darwin
	case "linux":
		candidates = cfg.Linux
	case "windows":
		candidates = cfg.Windows
	default:
		candidates = cfg.Linux
	}

	l := &Launcher{
		opener:   registry.FindAvailable(candidates),
		registry: registry,
		detector: detector,
		start:    startDetached,
	}
	if l.opener == "" {
		l.opener = cfg.DefaultOpener
	}
	if l.opener == "" {
		l.opener = detector.GetDefaultOpener()
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Opener is the command chosen for this platform.
func (l *Launcher) Opener() string { return l.opener }

// Command builds the process that opens url without starting it.
func (l *Launcher) Command(url string) (*exec.Cmd, error) {
	lower := strings.ToLower(strings.TrimSpace(url))
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return nil, ErrInvalidURL
	}

	urlType := l.detector.DetectType(url)
	cmd, err := l.registry.GetCommand(l.opener, urlType, url)
	if err != nil {
		debuglog.Debugf("media: %v, running %s directly", err, l.opener)
		cmd = exec.Command(l.opener, url)
	}
	return cmd, nil
}

// Open starts the opener for url and returns without waiting for it.
func (l *Launcher) Open(url string) error {
	cmd, err := l.Command(url)
	if err != nil {
		return err
	}
	if err := l.start(cmd); err != nil {
		return fmt.Errorf("failed to start %s: %w", l.opener, err)
	}
	debuglog.Infof("media: opened %s with %s", url, l.opener)
	return nil
}

// startDetached starts GUI applications without tying them to the TUI
func startDetached(cmd *exec.Cmd) error {
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		_ = cmd.Wait()
	}()
	return nil
}
