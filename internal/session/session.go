// Package session persists login state and the resolved content graph
// between runs as a versioned YAML file under the system temp directory.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/dcget/dc-downloader/internal/graph"
	"github.com/dcget/dc-downloader/internal/logger"
)

// CurrentVersion is the state file layout version this build reads and
// writes. Files with any other version are ignored on load.
const CurrentVersion = 1

// DefaultFileName is the session file name under os.TempDir.
const DefaultFileName = ".dc-downloader.v1.yaml"

// State is the persisted session payload.
type State struct {
	Version         int            `yaml:"version"`
	Token           string         `yaml:"token,omitempty"`
	LoggedIn        bool           `yaml:"logged_in"`
	HasSubscription bool           `yaml:"has_subscription"`
	Slug            string         `yaml:"slug,omitempty"`
	Graph           graph.Snapshot `yaml:"graph,omitempty"`
}

// Store reads and writes session state at a fixed path.
type Store struct {
	path string
	log  *logger.Logger
}

// DefaultPath returns the session file location under the temp directory.
func DefaultPath() string {
	return filepath.Join(os.TempDir(), DefaultFileName)
}

// NewStore creates a store at path. An empty path falls back to DefaultPath.
func NewStore(path string, log *logger.Logger) *Store {
	if path == "" {
		path = DefaultPath()
	}
	return &Store{path: path, log: log}
}

// Path returns the backing file location.
func (s *Store) Path() string {
	return s.path
}

// Load reads the persisted state. A missing, unreadable, corrupt or
// version-mismatched file yields a fresh empty state, never an error:
// the session cache is always rebuildable from the remote.
func (s *Store) Load() *State {
	fresh := &State{Version: CurrentVersion}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.log.Warn("session file unreadable, starting fresh", "path", s.path, "error", err)
		}
		return fresh
	}

	var state State
	if err := yaml.Unmarshal(data, &state); err != nil {
		s.log.Warn("session file corrupt, starting fresh", "path", s.path, "error", err)
		return fresh
	}
	if state.Version != CurrentVersion {
		s.log.Warn("session file version mismatch, starting fresh",
			"path", s.path, "got", state.Version, "want", CurrentVersion)
		return fresh
	}
	return &state
}

// Save writes the state to disk, replacing any previous file.
func (s *Store) Save(state *State) error {
	state.Version = CurrentVersion
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session state: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write session file %s: %w", s.path, err)
	}
	return nil
}

// Reset deletes the session file. A missing file is not an error.
func (s *Store) Reset() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove session file %s: %w", s.path, err)
	}
	return nil
}
