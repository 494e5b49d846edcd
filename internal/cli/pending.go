package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// pendingLogin survives between `tracker login` and `tracker verify`. It is
// kept apart from the credential so a half-finished login never looks like a session.
type pendingLogin struct {
	Email       string    `yaml:"email"`
	RequestedAt time.Time `yaml:"requested_at"`
}

type pendingStore struct {
	path string
}

func newPendingStore(stateFile string) *pendingStore {
	return &pendingStore{path: stateFile + ".pending"}
}

func (s *pendingStore) Load() (pendingLogin, bool, error) {
	var p pendingLogin
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return p, false, nil
	}
	if err != nil {
		return p, false, fmt.Errorf("read pending login: %w", err)
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, false, fmt.Errorf("parse pending login: %w", err)
	}
	return p, p.Email != "", nil
}

func (s *pendingStore) Save(email string) error {
	data, err := yaml.Marshal(pendingLogin{Email: email, RequestedAt: time.Now().UTC()})
	if err != nil {
		return fmt.Errorf("encode pending login: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return fmt.Errorf("write pending login: %w", err)
	}
	return nil
}

func (s *pendingStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pending login: %w", err)
	}
	return nil
}
