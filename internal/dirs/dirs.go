// Package dirs resolves the on-disk layout: state/config under the XDG
// dirs, plus the four working folders (raw cache, manual drop, output,
// tools) used by the pipeline.
package dirs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
)

const appName = "encbot"

// AppName returns the canonical application name for directory paths.
func AppName() string {
	return appName
}

// ConfigDir returns the app's configuration directory.
// - Linux: $XDG_CONFIG_HOME/encbot or ~/.config/encbot
// - macOS: ~/Library/Application Support/encbot
// - elsewhere: os.UserConfigDir()/encbot
func ConfigDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "linux":
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", appName), nil
	default:
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, appName), nil
	}
}

// StateDir returns the app's state directory, home of the persisted JSON
// stores (cache registry, history, auth list, templates).
func StateDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appName, "state"), nil
	case "linux":
		if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "state", appName), nil
	default:
		if la := os.Getenv("LOCALAPPDATA"); la != "" {
			return filepath.Join(la, appName, "state"), nil
		}
		cfg, err := ConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, "state"), nil
	}
}

// DataDir returns the app's data directory, parent of the working folders.
func DataDir() (string, error) {
	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, "Library", "Application Support", appName), nil
	case "linux":
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, appName), nil
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".local", "share", appName), nil
	default:
		cfg, err := os.UserConfigDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(cfg, appName), nil
	}
}

// Layout is the set of working folders the pipeline touches.
type Layout struct {
	State  string // persisted JSON stores
	Raw    string // downloaded source files (raw cache)
	Manual string // manual-drop folder scanned into the raw cache
	Output string // transient encoded outputs
	Tools  string // helper binaries and fonts
}

// DefaultLayout resolves the layout under the data and state dirs.
func DefaultLayout() (Layout, error) {
	data, err := DataDir()
	if err != nil {
		return Layout{}, err
	}
	state, err := StateDir()
	if err != nil {
		return Layout{}, err
	}
	return Layout{
		State:  state,
		Raw:    filepath.Join(data, "raw_cache"),
		Manual: filepath.Join(data, "manual"),
		Output: filepath.Join(data, "output"),
		Tools:  filepath.Join(data, "tools"),
	}, nil
}

// EnsureAll creates every folder of the layout.
func (l Layout) EnsureAll() error {
	for _, p := range []string{l.State, l.Raw, l.Manual, l.Output, l.Tools} {
		if err := Ensure(p); err != nil {
			return err
		}
	}
	return nil
}

// Ensure creates the directory if it doesn't exist.
func Ensure(path string) error {
	if path == "" {
		return errors.New("empty path")
	}
	return os.MkdirAll(path, 0o755)
}
