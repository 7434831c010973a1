// Package xdg provides XDG Base Directory Specification compliant paths
package xdg

import (
	"os"
	"path/filepath"
)

// ConfigDir returns the XDG config directory for nodestack
// Priority: XDG_CONFIG_HOME > ~/.config/nodestack
func ConfigDir() (string, error) {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "nodestack"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "nodestack"), nil
}

// DataDir returns the XDG data directory for nodestack
// Priority: XDG_DATA_HOME > ~/.local/share/nodestack
func DataDir() (string, error) {
	if xdgData := os.Getenv("XDG_DATA_HOME"); xdgData != "" {
		return filepath.Join(xdgData, "nodestack"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "share", "nodestack"), nil
}

// StateDir returns the XDG state directory for nodestack
// Priority: XDG_STATE_HOME > ~/.local/state/nodestack
func StateDir() (string, error) {
	if xdgState := os.Getenv("XDG_STATE_HOME"); xdgState != "" {
		return filepath.Join(xdgState, "nodestack"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".local", "state", "nodestack"), nil
}
