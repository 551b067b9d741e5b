package cli

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"promanager/internal/backend"
)

const sessionFile = "session.json"

func sessionPath(stateDir string) string {
	return filepath.Join(stateDir, sessionFile)
}

func loadSession(stateDir string) (*backend.Session, error) {
	raw, err := os.ReadFile(sessionPath(stateDir))
	if err != nil {
		return nil, err
	}
	var s backend.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func saveSession(stateDir string, s *backend.Session) error {
	raw, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(sessionPath(stateDir), raw, 0o600)
}

func clearSession(stateDir string) error {
	err := os.Remove(sessionPath(stateDir))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
