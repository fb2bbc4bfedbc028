package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"

	"github.com/ntwriter/srscore/internal/deckconfig"
	"github.com/ntwriter/srscore/internal/notestore"
	"github.com/ntwriter/srscore/internal/scheduler"
	"github.com/ntwriter/srscore/internal/sqlitestore"
	"github.com/ntwriter/srscore/pkg/clock"
	"github.com/ntwriter/srscore/pkg/logging"
	"github.com/ntwriter/srscore/pkg/srstime"
)

var collectionDir string
var verboseInfo bool
var verboseDebug bool

var rootCmd = &cobra.Command{
	Use:   "srscore",
	Short: "srscore is a spaced-repetition scheduler core",
	Long:  `A queue-selection and card-state transition engine for spaced-repetition review, inspired by Anki's v2 scheduler.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verboseDebug {
			logging.Current().SetVerboseLevel(logging.VerboseDebug)
		} else if verboseInfo {
			logging.Current().SetVerboseLevel(logging.VerboseInfo)
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&collectionDir, "collection", "c", "", "collection directory (default is $HOME/.srscore-collection)")
	rootCmd.PersistentFlags().BoolVarP(&verboseInfo, "v", "", false, "enable verbose info output")
	rootCmd.PersistentFlags().BoolVarP(&verboseDebug, "vv", "", false, "enable verbose debug output")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func defaultCollectionDir() (string, error) {
	home, err := homedir.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".srscore-collection"), nil
}

func resolveCollectionDir() (string, error) {
	if collectionDir != "" {
		return collectionDir, nil
	}
	dir, err := defaultCollectionDir()
	if err != nil {
		return "", err
	}
	return dir, nil
}

// collection bundles the concrete collaborators a running command wires
// into a scheduler.Scheduler, plus the raw deck/card stores a command may
// want direct access to (e.g. stats.go listing decks, init.go seeding the
// default deck).
type collection struct {
	config *deckconfig.Store
	db     *sqlitestore.DB
	cards  *sqlitestore.CardStore
	decks  *sqlitestore.DeckStore
	notes  *notestore.Store
	time   *timeAdapter
}

// openCollection loads the .srscore config rooted at dir, opens (and
// migrates) the collection's SQLite file, and refreshes the deck store's
// active-deck set from what's actually on disk.
func openCollection(dir string) (*collection, error) {
	cfg, err := deckconfig.ReadConfigFromDirectory(dir)
	if err != nil {
		return nil, err
	}

	dbPath := filepath.Join(cfg.RootPath(), ".srscore", "collection.db")
	db, err := sqlitestore.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening collection database: %w", err)
	}

	cards := sqlitestore.NewCardStore(db)
	decks := sqlitestore.NewDeckStore(db, cfg, nil, 0)
	allDecks, err := decks.All()
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(allDecks))
	for _, d := range allDecks {
		ids = append(ids, d.ID)
	}
	decks.SetActive(ids)
	if len(ids) > 0 {
		decks.SetSelected(ids[0])
	}

	notes := notestore.NewStore(db.Client())

	created, err := collectionCreatedAt(cfg.RootPath())
	if err != nil {
		return nil, err
	}
	tp := &timeAdapter{provider: srstime.NewProvider(clock.CurrentClock(), created, 4)}

	return &collection{config: cfg, db: db, cards: cards, decks: decks, notes: notes, time: tp}, nil
}

func (c *collection) Close() error {
	return c.db.Close()
}

// newScheduler wires this collection's stores into a scheduler.Scheduler,
// logging through the shared process-wide logger and running deferred
// tasks synchronously (there is no background worker pool in a CLI).
func (c *collection) newScheduler() *scheduler.Scheduler {
	return scheduler.NewScheduler(
		scheduler.SchedulerV2,
		c.cards,
		c.decks,
		c.notes,
		c.time,
		c.config,
		inlineTasks{},
		consoleNotifier{},
		logging.Current(),
	)
}

// collectionCreatedAt returns the instant the collection at root was first
// opened, persisting it to .srscore/created on first use so the rollover
// day-boundary anchor stays stable across process restarts.
func collectionCreatedAt(root string) (time.Time, error) {
	path := filepath.Join(root, ".srscore", "created")
	raw, err := os.ReadFile(path)
	if err == nil {
		t, parseErr := time.Parse(time.RFC3339, string(raw))
		if parseErr == nil {
			return t, nil
		}
	} else if !os.IsNotExist(err) {
		return time.Time{}, err
	}

	now := clock.Now()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return time.Time{}, err
	}
	if err := os.WriteFile(path, []byte(now.Format(time.RFC3339)), 0o644); err != nil {
		return time.Time{}, err
	}
	return now, nil
}

// timeAdapter narrows srstime.Provider's Timing into scheduler.Timing so
// pkg/srstime can stay free of an internal/scheduler import.
type timeAdapter struct {
	provider *srstime.Provider
}

func (a *timeAdapter) IntTime() int64   { return a.provider.IntTime() }
func (a *timeAdapter) IntTimeMs() int64 { return a.provider.IntTimeMs() }
func (a *timeAdapter) TimingToday() scheduler.Timing {
	t := a.provider.TimingToday()
	return scheduler.Timing{DaysElapsed: t.DaysElapsed, NextDayAt: t.NextDayAt}
}

// inlineTasks runs a deferred task immediately: a CLI session has no
// background worker to hand queue-reset work off to.
type inlineTasks struct{}

func (inlineTasks) Launch(task func()) { task() }

// consoleNotifier prints a line to stderr when a card is marked a leech,
// the CLI's stand-in for the UI hook a richer front-end would use.
type consoleNotifier struct{}

func (consoleNotifier) NotifyLeech(card *scheduler.Card) {
	fmt.Fprintf(os.Stderr, "card %d in deck %d is now a leech\n", card.ID, card.DeckID)
}
