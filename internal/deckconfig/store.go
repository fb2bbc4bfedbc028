package deckconfig

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// Store implements scheduler.ConfigStore over the repository's config
// file plus a small persisted state file for scalars the scheduler
// mutates at runtime (lastUnburied and friends).
type Store struct {
	rootPath string
	file     ConfigFile
	ints     map[string]int32
}

type stateFile struct {
	Ints map[string]int32 `toml:"ints"`
}

// RootPath returns the repository directory this config was loaded from,
// used by cmd/ to place the collection's SQLite file alongside .srscore.
func (s *Store) RootPath() string {
	return s.rootPath
}

func (s *Store) statePath() string {
	return filepath.Join(s.rootPath, ".srscore", "state")
}

// loadState merges any previously persisted scalar ints into memory.
// Called on every GetInt and SetInt; values already held in memory win
// over those read from the state file, and a missing or unreadable file
// is ignored.
func (s *Store) loadState() {
	if s.ints == nil {
		s.ints = map[string]int32{}
	}
	raw, err := os.ReadFile(s.statePath())
	if err != nil {
		return
	}
	var sf stateFile
	if err := toml.Unmarshal(raw, &sf); err != nil {
		return
	}
	for k, v := range sf.Ints {
		if _, ok := s.ints[k]; !ok {
			s.ints[k] = v
		}
	}
}

func (s *Store) GetBool(key string, def bool) bool {
	switch key {
	case "dayLearnFirst":
		return s.file.Scheduler.DayLearnFirst
	default:
		return def
	}
}

// GetString has no current callers in the scheduler; every scalar it
// reads today is a bool or an int. Kept to satisfy scheduler.ConfigStore.
func (s *Store) GetString(_ string, def string) string {
	return def
}

func (s *Store) GetInt(key string, def int32) int32 {
	s.loadState()
	if v, ok := s.ints[key]; ok {
		return v
	}
	if key == "newCardModulus" && s.file.Scheduler.NewCardModulus != 0 {
		return s.file.Scheduler.NewCardModulus
	}
	return def
}

func (s *Store) SetInt(key string, value int32) {
	s.loadState()
	s.ints[key] = value
	_ = s.persist()
}

func (s *Store) persist() error {
	if s.rootPath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.statePath()), 0o755); err != nil {
		return err
	}
	out, err := toml.Marshal(stateFile{Ints: s.ints})
	if err != nil {
		return err
	}
	return os.WriteFile(s.statePath(), out, 0o644)
}
