// Package session persists the signed-in user between CLI invocations.
//
// A session is the API user plus the cookies the server handed out at
// login. It is stored as a small YAML file readable only by its owner.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"github.com/hupe1980/loop/internal/api"
)

// State is the persisted session.
type State struct {
	User    *api.User         `json:"user,omitempty"`
	Cookies map[string]string `json:"cookies,omitempty"`
}

// Authenticated reports whether a user is signed in.
func (s *State) Authenticated() bool {
	return s != nil && s.User != nil
}

// Store reads and writes a State at Path.
type Store struct {
	Path string
}

// NewStore returns a Store backed by path.
func NewStore(path string) *Store {
	return &Store{Path: path}
}

// Load reads the session. A missing file yields an empty State.
func (s *Store) Load() (*State, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return &State{}, nil
	}

	if err != nil {
		return nil, fmt.Errorf("reading session %s: %w", s.Path, err)
	}

	state := &State{}
	if err := yaml.Unmarshal(data, state); err != nil {
		return nil, fmt.Errorf("parsing session %s: %w", s.Path, err)
	}

	return state, nil
}

// Save writes state, creating parent directories as needed.
func (s *Store) Save(state *State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("encoding session: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	if err := os.WriteFile(s.Path, data, 0o600); err != nil {
		return fmt.Errorf("writing session %s: %w", s.Path, err)
	}

	return nil
}

// Clear removes the session file. Clearing an absent session is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.Path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing session %s: %w", s.Path, err)
	}

	return nil
}
