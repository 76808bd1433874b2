package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"github.com/apotek/apotek/internal/config"
)

// currentSessionFile is where the chat command remembers the active
// session between runs, under ~/.apotek. Only meaningful with a durable
// session backend; with the memory backend a stale ID simply fails the
// resume lookup.
const currentSessionFile = "current_session"

func stateFilePath() (string, bool) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", false
	}
	return filepath.Join(home, ".apotek", currentSessionFile), true
}

// loadCurrentSession reads the remembered session ID, if any.
func loadCurrentSession(cfg *config.Config) (uuid.UUID, bool) {
	if cfg.SessionBackend != config.SessionBackendPostgres {
		return uuid.Nil, false
	}
	path, ok := stateFilePath()
	if !ok {
		return uuid.Nil, false
	}

	fl := flock.New(path + ".lock")
	if err := fl.RLock(); err != nil {
		return uuid.Nil, false
	}
	defer func() { _ = fl.Unlock() }()

	data, err := os.ReadFile(path)
	if err != nil {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(strings.TrimSpace(string(data)))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// saveCurrentSession records the session ID for the next run. Best effort:
// a write failure only loses resume, never the conversation.
func saveCurrentSession(cfg *config.Config, id uuid.UUID) {
	if cfg.SessionBackend != config.SessionBackendPostgres {
		return
	}
	path, ok := stateFilePath()
	if !ok {
		return
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return
	}

	fl := flock.New(path + ".lock")
	if err := fl.Lock(); err != nil {
		return
	}
	defer func() { _ = fl.Unlock() }()

	_ = os.WriteFile(path, []byte(id.String()+"\n"), 0o600)
}
