// Package deckconfig loads the TOML-based preset file that backs the
// scheduler's per-deck configuration and scalar settings: a lazily-loaded
// singleton read from a directory-discovered dotfile.
package deckconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/ntwriter/srscore/internal/scheduler"
	"github.com/ntwriter/srscore/pkg/resync"
)

// How many parent directories to climb before giving up on finding a
// repository root.
const maxDepth = 10

// DefaultConfig is written to .srscore/config the first time a
// repository is initialized.
const DefaultConfig = `
[scheduler]
day_learn_first = false
new_card_modulus = 2

[presets.default]
new.per_day = 20
new.delays = [1.0, 10.0]
new.ints = [1, 4]
new.initial_factor = 2500
new.bury = true
new.order = "distribute"

lapse.delays = [10.0]
lapse.mult = 0.0
lapse.min_int = 1
lapse.leech_fails = 8
lapse.leech_action = "tag_only"

rev.per_day = 200
rev.ease4 = 1.3
rev.max_ivl = 36500
rev.bury = true
`

var (
	// Lazy-load ensuring a single read per process.
	configOnce      resync.Once
	configSingleton *Store
)

// ConfigFile is the on-disk shape of .srscore/config. Fields must stay
// exported for the toml package to unmarshal into them.
type ConfigFile struct {
	Scheduler SchedulerSection         `toml:"scheduler"`
	Presets   map[string]PresetSection `toml:"presets"`
}

// SchedulerSection holds the scalar settings surfaced through
// scheduler.ConfigStore (dayLearnFirst, newCardModulus). Runtime scalars
// such as lastUnburied are kept in the separate state file instead.
type SchedulerSection struct {
	DayLearnFirst  bool  `toml:"day_learn_first"`
	NewCardModulus int32 `toml:"new_card_modulus"`
}

// PresetSection is one named deck-config preset, in the vocabulary a
// repository owner would write in their TOML file rather than the
// scheduler's internal enum values.
type PresetSection struct {
	New   NewSection   `toml:"new"`
	Lapse LapseSection `toml:"lapse"`
	Rev   RevSection   `toml:"rev"`

	Dyn          bool `toml:"dyn"`
	Resched      bool `toml:"resched"`
	PreviewDelay int  `toml:"preview_delay"`
}

type NewSection struct {
	PerDay        int       `toml:"per_day"`
	Delays        []float64 `toml:"delays"`
	Ints          []int     `toml:"ints"`
	InitialFactor int       `toml:"initial_factor"`
	Bury          bool      `toml:"bury"`
	Order         string    `toml:"order"`
	Separate      bool      `toml:"separate"`
}

type LapseSection struct {
	Delays      []float64 `toml:"delays"`
	Mult        float64   `toml:"mult"`
	MinInt      int       `toml:"min_int"`
	LeechFails  int       `toml:"leech_fails"`
	LeechAction string    `toml:"leech_action"`
}

type RevSection struct {
	PerDay     int      `toml:"per_day"`
	HardFactor *float64 `toml:"hard_factor"`
	Ease4      float64  `toml:"ease4"`
	IvlFct     *float64 `toml:"ivl_fct"`
	MaxIvl     int      `toml:"max_ivl"`
	Bury       bool     `toml:"bury"`
}

// CurrentConfig returns the process-wide config, reading it once from
// the repository rooted at the current directory.
func CurrentConfig() (*Store, error) {
	var outerErr error
	configOnce.Do(func() {
		cwd, err := os.Getwd()
		if err != nil {
			outerErr = fmt.Errorf("unable to determine current directory: %w", err)
			return
		}
		configSingleton, outerErr = ReadConfigFromDirectory(cwd)
	})
	if outerErr != nil {
		return nil, outerErr
	}
	return configSingleton, nil
}

// ReadConfigFromDirectory searches path and its parents for a
// .srscore directory and loads its config file (or the built-in defaults
// if the directory exists but no config file has been written yet).
func ReadConfigFromDirectory(path string) (*Store, error) {
	rootPath := path
	i := 0
	for {
		i++
		if i > maxDepth {
			return nil, fmt.Errorf("not a srscore repository (or any parent directory): .srscore")
		}
		srsPath := filepath.Join(rootPath, ".srscore")
		if _, err := os.Stat(srsPath); err == nil {
			break
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("error while searching for configuration directory: %w", err)
		}
		if len(strings.Split(rootPath, string(os.PathSeparator))) <= 2 {
			return nil, fmt.Errorf("not a srscore repository (or any parent directory): .srscore")
		}
		rootPath = filepath.Clean(filepath.Join(rootPath, ".."))
	}

	cfgPath := filepath.Join(rootPath, ".srscore", "config")
	raw, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		raw = []byte(DefaultConfig)
	} else if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", cfgPath, err)
	}

	var cf ConfigFile
	if err := toml.Unmarshal(raw, &cf); err != nil {
		return nil, fmt.Errorf("invalid config at %s: %w", cfgPath, err)
	}

	return &Store{rootPath: rootPath, file: cf, ints: map[string]int32{}}, nil
}

// InitConfigFromDirectory writes the default config file under
// dir/.srscore/config, creating the directory if needed.
func InitConfigFromDirectory(dir string) error {
	srsPath := filepath.Join(dir, ".srscore")
	if err := os.MkdirAll(srsPath, 0o755); err != nil {
		return err
	}
	cfgPath := filepath.Join(srsPath, "config")
	if _, err := os.Stat(cfgPath); err == nil {
		return fmt.Errorf("configuration already exists at %s", cfgPath)
	}
	return os.WriteFile(cfgPath, []byte(strings.TrimPrefix(DefaultConfig, "\n")), 0o644)
}

// Preset resolves a named preset into the scheduler's internal
// DeckConfig representation, translating the TOML vocabulary
// (order = "distribute"/"due"/...) into the scheduler's enums.
func (s *Store) Preset(name string) (*scheduler.DeckConfig, error) {
	p, ok := s.file.Presets[name]
	if !ok {
		return nil, fmt.Errorf("no preset named %q", name)
	}
	return presetToDeckConfig(name, p), nil
}

// PresetNames lists every preset defined in the config file.
func (s *Store) PresetNames() []string {
	names := make([]string, 0, len(s.file.Presets))
	for name := range s.file.Presets {
		names = append(names, name)
	}
	return names
}

func presetToDeckConfig(name string, p PresetSection) *scheduler.DeckConfig {
	return &scheduler.DeckConfig{
		Name: name,
		New: scheduler.NewConfig{
			PerDay:        p.New.PerDay,
			Delays:        p.New.Delays,
			Ints:          p.New.Ints,
			InitialFactor: p.New.InitialFactor,
			Bury:          p.New.Bury,
			Order:         parseNewOrder(p.New.Order),
			Separate:      p.New.Separate,
		},
		Lapse: scheduler.LapseConfig{
			Delays:      p.Lapse.Delays,
			Mult:        p.Lapse.Mult,
			MinInt:      p.Lapse.MinInt,
			LeechFails:  p.Lapse.LeechFails,
			LeechAction: parseLeechAction(p.Lapse.LeechAction),
		},
		Rev: scheduler.RevConfig{
			PerDay:     p.Rev.PerDay,
			HardFactor: p.Rev.HardFactor,
			Ease4:      p.Rev.Ease4,
			IvlFct:     p.Rev.IvlFct,
			MaxIvl:     p.Rev.MaxIvl,
			Bury:       p.Rev.Bury,
		},
		Dyn:          p.Dyn,
		Resched:      p.Resched,
		PreviewDelay: p.PreviewDelay,
	}
}

func parseNewOrder(s string) scheduler.NewCardOrder {
	switch s {
	case "last":
		return scheduler.NewCardsLast
	case "first":
		return scheduler.NewCardsFirst
	default:
		return scheduler.NewCardsDistribute
	}
}

func parseLeechAction(s string) scheduler.LeechAction {
	if s == "suspend" {
		return scheduler.LeechSuspend
	}
	return scheduler.LeechTagOnly
}
