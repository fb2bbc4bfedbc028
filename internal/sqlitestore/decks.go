package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/ntwriter/srscore/internal/deckconfig"
	"github.com/ntwriter/srscore/internal/scheduler"
)

// DeckStore is the concrete scheduler.Decks over the decks/deck_parents
// tables, resolving per-deck configuration presets through deckconfig.
type DeckStore struct {
	db       *DB
	presets  *deckconfig.Store
	active   []int64
	selected int64
}

func NewDeckStore(db *DB, presets *deckconfig.Store, active []int64, selected int64) *DeckStore {
	return &DeckStore{db: db, presets: presets, active: active, selected: selected}
}

func (d *DeckStore) client() SQLClient { return d.db.Client() }

func (d *DeckStore) Active() []int64 { return d.active }
func (d *DeckStore) Selected() int64 { return d.selected }

// SetActive overrides the active deck set, used by cmd/ once it knows
// which decks exist (a freshly opened collection has none until the
// default deck is created).
func (d *DeckStore) SetActive(ids []int64) { d.active = ids }

// SetSelected overrides the currently selected deck.
func (d *DeckStore) SetSelected(did int64) { d.selected = did }

// CreateDeck inserts a new deck, assigning it a uuid-derived 63-bit id
// instead of an autoincrement counter so ids stay collision-free even
// across a future merge of two collections.
func (d *DeckStore) CreateDeck(ctx context.Context, name string, dynamic bool, preset string) (*scheduler.Deck, error) {
	id := deckIDFromUUID(uuid.New())
	terms, _ := json.Marshal([]scheduler.DynTerm{})
	_, err := d.client().ExecContext(ctx, `
		INSERT INTO decks (id, name, dynamic, terms) VALUES (?, ?, ?, ?)`,
		id, name, boolToInt(dynamic), string(terms))
	if err != nil {
		return nil, err
	}
	_, err = d.client().ExecContext(ctx, `
		INSERT INTO deck_configs (deck_id, preset) VALUES (?, ?)`, id, preset)
	if err != nil {
		return nil, err
	}
	return d.Get(id)
}

func deckIDFromUUID(u uuid.UUID) int64 {
	b := u[:8]
	var v int64
	for _, c := range b {
		v = v<<8 | int64(c)
	}
	if v < 0 {
		v = -v
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (d *DeckStore) Get(did int64) (*scheduler.Deck, error) {
	row := d.client().QueryRow(`
		SELECT id, name, dynamic, resched, terms,
			new_today_day, new_today_count, rev_today_day, rev_today_count,
			lrn_today_day, lrn_today_count, time_today_day, time_today_count, config_id
		FROM decks WHERE id = ?`, did)
	return scanDeck(row)
}

func (d *DeckStore) All() ([]*scheduler.Deck, error) {
	rows, err := d.client().Query(`
		SELECT id, name, dynamic, resched, terms,
			new_today_day, new_today_count, rev_today_day, rev_today_count,
			lrn_today_day, lrn_today_count, time_today_day, time_today_count, config_id
		FROM decks`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var decks []*scheduler.Deck
	for rows.Next() {
		dk, err := scanDeckRows(rows)
		if err != nil {
			return nil, err
		}
		decks = append(decks, dk)
	}
	return decks, rows.Err()
}

// Parents returns did's ancestors, root first, resolved from the
// deck_parents closure table populated when a deck is nested under
// another (SetParent).
func (d *DeckStore) Parents(did int64) ([]*scheduler.Deck, error) {
	rows, err := d.client().Query(`
		SELECT p.id, p.name, p.dynamic, p.resched, p.terms,
			p.new_today_day, p.new_today_count, p.rev_today_day, p.rev_today_count,
			p.lrn_today_day, p.lrn_today_count, p.time_today_day, p.time_today_count, p.config_id
		FROM deck_parents dp JOIN decks p ON p.id = dp.parent_id
		WHERE dp.deck_id = ? ORDER BY dp.depth DESC`, did)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var parents []*scheduler.Deck
	for rows.Next() {
		p, err := scanDeckRows(rows)
		if err != nil {
			return nil, err
		}
		parents = append(parents, p)
	}
	return parents, rows.Err()
}

// SetParent records child as nested directly under parent, refreshing
// the closure table for every one of parent's own ancestors too.
func (d *DeckStore) SetParent(ctx context.Context, child, parent int64) error {
	grandparents, err := d.Parents(parent)
	if err != nil {
		return err
	}
	if _, err := d.client().ExecContext(ctx, `INSERT OR REPLACE INTO deck_parents (deck_id, parent_id, depth) VALUES (?, ?, 1)`, child, parent); err != nil {
		return err
	}
	for i, gp := range grandparents {
		depth := len(grandparents) - i + 1
		if _, err := d.client().ExecContext(ctx, `INSERT OR REPLACE INTO deck_parents (deck_id, parent_id, depth) VALUES (?, ?, ?)`, child, gp.ID, depth); err != nil {
			return err
		}
	}
	return nil
}

func (d *DeckStore) Save(deck *scheduler.Deck) error {
	terms, err := json.Marshal(deck.Terms)
	if err != nil {
		return err
	}
	_, err = d.client().Exec(`
		UPDATE decks SET name = ?, dynamic = ?, resched = ?, terms = ?,
			new_today_day = ?, new_today_count = ?, rev_today_day = ?, rev_today_count = ?,
			lrn_today_day = ?, lrn_today_count = ?, time_today_day = ?, time_today_count = ?,
			config_id = ?
		WHERE id = ?`,
		deck.Name, boolToInt(deck.Dynamic), boolToInt(deck.Resched), string(terms),
		deck.NewToday.Day, deck.NewToday.Count, deck.RevToday.Day, deck.RevToday.Count,
		deck.LrnToday.Day, deck.LrnToday.Count, deck.TimeToday.Day, deck.TimeToday.Count,
		deck.ConfigID, deck.ID)
	return err
}

func (d *DeckStore) ConfigFor(did int64) (*scheduler.DeckConfig, error) {
	var preset string
	err := d.client().QueryRow(`SELECT preset FROM deck_configs WHERE deck_id = ?`, did).Scan(&preset)
	if err == sql.ErrNoRows {
		preset = "default"
	} else if err != nil {
		return nil, err
	}
	conf, err := d.presets.Preset(preset)
	if err != nil {
		return nil, fmt.Errorf("deck %d: %w", did, err)
	}
	conf.ID = did
	// The filtered-deck-only fields dyn and resched live on the deck row
	// itself, not the shared preset, since two filtered decks sharing a
	// preset can still diverge on resched. previewDelay comes from the preset.
	dk, err := d.Get(did)
	if err != nil {
		return nil, err
	}
	if dk != nil && dk.Dynamic {
		conf.Dyn = true
		conf.Resched = dk.Resched
	}
	return conf, nil
}

func scanDeck(row *sql.Row) (*scheduler.Deck, error) {
	var dk scheduler.Deck
	var dynamic, resched int
	var terms string
	err := row.Scan(&dk.ID, &dk.Name, &dynamic, &resched, &terms,
		&dk.NewToday.Day, &dk.NewToday.Count, &dk.RevToday.Day, &dk.RevToday.Count,
		&dk.LrnToday.Day, &dk.LrnToday.Count, &dk.TimeToday.Day, &dk.TimeToday.Count, &dk.ConfigID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	dk.Dynamic = dynamic != 0
	dk.Resched = resched != 0
	_ = json.Unmarshal([]byte(terms), &dk.Terms)
	return &dk, nil
}

func scanDeckRows(rows *sql.Rows) (*scheduler.Deck, error) {
	var dk scheduler.Deck
	var dynamic, resched int
	var terms string
	if err := rows.Scan(&dk.ID, &dk.Name, &dynamic, &resched, &terms,
		&dk.NewToday.Day, &dk.NewToday.Count, &dk.RevToday.Day, &dk.RevToday.Count,
		&dk.LrnToday.Day, &dk.LrnToday.Count, &dk.TimeToday.Day, &dk.TimeToday.Count, &dk.ConfigID); err != nil {
		return nil, err
	}
	dk.Dynamic = dynamic != 0
	dk.Resched = resched != 0
	_ = json.Unmarshal([]byte(terms), &dk.Terms)
	return &dk, nil
}
