package scheduler

import (
	"context"
	"sort"
)

// fakeStore is an in-memory Store used across the scheduler package's
// tests. It implements the actual filtering semantics the contract
// describes rather than canned responses, so queue/selection tests behave
// like they would against a real database.
type fakeStore struct {
	cards  map[int64]*Card
	revlog []RevlogEntry

	clashesLeft int // AppendRevlog returns ErrRevlogKeyClash this many times before succeeding
	searchIDs   []int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{cards: make(map[int64]*Card)}
}

func (s *fakeStore) put(c *Card) *Card {
	s.cards[c.ID] = c
	return c
}

func (s *fakeStore) GetCard(ctx context.Context, id int64) (*Card, error) {
	c, ok := s.cards[id]
	if !ok {
		return nil, nil
	}
	return c, nil
}

func (s *fakeStore) SaveCard(ctx context.Context, card *Card) error {
	s.cards[card.ID] = card
	return nil
}

func (s *fakeStore) excludes(c *Card, excludeID, excludeNoteID int64) bool {
	return (excludeID != 0 && c.ID == excludeID) || (excludeNoteID != 0 && c.NoteID == excludeNoteID)
}

func (s *fakeStore) NewCount(ctx context.Context, did int64, excludeID, excludeNoteID int64, limit int) (int, error) {
	n := 0
	for _, c := range s.cards {
		if c.DeckID == did && c.Queue == QueueNew && !s.excludes(c, excludeID, excludeNoteID) {
			n++
		}
	}
	if n > limit {
		n = limit
	}
	return n, nil
}

func in(dids []int64, did int64) bool {
	for _, d := range dids {
		if d == did {
			return true
		}
	}
	return false
}

func (s *fakeStore) RevCount(ctx context.Context, dids []int64, today int32, excludeID, excludeNoteID int64, limit int) (int, error) {
	n := 0
	for _, c := range s.cards {
		if in(dids, c.DeckID) && c.Queue == QueueReview && c.Due <= int64(today) && !s.excludes(c, excludeID, excludeNoteID) {
			n++
		}
	}
	if n > limit {
		n = limit
	}
	return n, nil
}

func (s *fakeStore) LrnCount(ctx context.Context, dids []int64, cutoff int64, today int32, excludeID, excludeNoteID int64) (int, int, int, error) {
	lrn, dayLrn, preview := 0, 0, 0
	for _, c := range s.cards {
		if !in(dids, c.DeckID) || s.excludes(c, excludeID, excludeNoteID) {
			continue
		}
		switch {
		case c.Queue == QueueLearning && c.Due < cutoff:
			lrn++
		case c.Queue == QueueDayLearnRelearn && c.Due <= int64(today):
			dayLrn++
		case c.Queue == QueuePreview && c.Due < cutoff:
			preview++
		}
	}
	return lrn, dayLrn, preview, nil
}

func sortedIDs(cards []*Card, less func(a, b *Card) bool) []int64 {
	sort.Slice(cards, func(i, j int) bool { return less(cards[i], cards[j]) })
	ids := make([]int64, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

func (s *fakeStore) FillNew(ctx context.Context, did int64, excludeID int64, lim int) ([]int64, error) {
	var cards []*Card
	for _, c := range s.cards {
		if c.DeckID == did && c.Queue == QueueNew && !s.excludes(c, excludeID, excludeID) {
			cards = append(cards, c)
		}
	}
	ids := sortedIDs(cards, func(a, b *Card) bool { return a.Due < b.Due })
	if len(ids) > lim {
		ids = ids[:lim]
	}
	return ids, nil
}

func (s *fakeStore) FillRev(ctx context.Context, dids []int64, today int32, excludeID int64, lim int) ([]int64, error) {
	var cards []*Card
	for _, c := range s.cards {
		if in(dids, c.DeckID) && c.Queue == QueueReview && c.Due <= int64(today) && !s.excludes(c, excludeID, excludeID) {
			cards = append(cards, c)
		}
	}
	ids := sortedIDs(cards, func(a, b *Card) bool { return a.Due < b.Due })
	if len(ids) > lim {
		ids = ids[:lim]
	}
	return ids, nil
}

func (s *fakeStore) FillLrn(ctx context.Context, dids []int64, cutoff int64, excludeID int64, lim int) ([]LrnQueueEntry, error) {
	var entries []LrnQueueEntry
	for _, c := range s.cards {
		if in(dids, c.DeckID) && (c.Queue == QueueLearning || c.Queue == QueuePreview) && c.Due < cutoff && c.ID != excludeID {
			entries = append(entries, LrnQueueEntry{Due: c.Due, ID: c.ID})
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Due < entries[j].Due })
	if len(entries) > lim {
		entries = entries[:lim]
	}
	return entries, nil
}

func (s *fakeStore) FillLrnDay(ctx context.Context, did int64, today int32, excludeID int64, lim int) ([]int64, error) {
	var cards []*Card
	for _, c := range s.cards {
		if c.DeckID == did && c.Queue == QueueDayLearnRelearn && c.Due <= int64(today) && !s.excludes(c, excludeID, excludeID) {
			cards = append(cards, c)
		}
	}
	ids := sortedIDs(cards, func(a, b *Card) bool { return a.ID < b.ID })
	if len(ids) > lim {
		ids = ids[:lim]
	}
	return ids, nil
}

func (s *fakeStore) CardsByNote(ctx context.Context, noteID int64) ([]*Card, error) {
	var out []*Card
	for _, c := range s.cards {
		if c.NoteID == noteID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) BuryCards(ctx context.Context, ids []int64, queue CardQueue) error {
	for _, id := range ids {
		if c, ok := s.cards[id]; ok {
			c.Queue = queue
		}
	}
	return nil
}

func (s *fakeStore) RestoreQueueFromType(ctx context.Context, ids []int64) error {
	for _, id := range ids {
		c, ok := s.cards[id]
		if !ok {
			continue
		}
		switch c.Type {
		case CardNew:
			c.Queue = QueueNew
		case CardReview:
			c.Queue = QueueReview
		case CardLearning, CardRelearning:
			due := c.Due
			if c.OriginalDue != 0 {
				due = c.OriginalDue
			}
			if due > 1_000_000_000 {
				c.Queue = QueueLearning
			} else {
				c.Queue = QueueDayLearnRelearn
			}
		}
	}
	return nil
}

func (s *fakeStore) CardIDsInQueue(ctx context.Context, queue CardQueue, dids []int64) ([]int64, error) {
	var ids []int64
	for _, c := range s.cards {
		if c.Queue != queue {
			continue
		}
		if dids != nil && !in(dids, c.DeckID) {
			continue
		}
		ids = append(ids, c.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (s *fakeStore) CardsInDeck(ctx context.Context, did int64) ([]*Card, error) {
	var out []*Card
	for _, c := range s.cards {
		if c.DeckID == did {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) SearchCards(ctx context.Context, search string, limit int) ([]int64, error) {
	ids := s.searchIDs
	if len(ids) == 0 && s.searchIDs == nil {
		for id := range s.cards {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	}
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (s *fakeStore) AppendRevlog(ctx context.Context, entry RevlogEntry) error {
	if s.clashesLeft > 0 {
		s.clashesLeft--
		return ErrRevlogKeyClash
	}
	s.revlog = append(s.revlog, entry)
	return nil
}

func (s *fakeStore) MaxNewDue(ctx context.Context) (int64, error) {
	var max int64
	for _, c := range s.cards {
		if c.Queue == QueueNew && c.Due > max {
			max = c.Due
		}
	}
	return max, nil
}

func (s *fakeStore) ShiftNewDue(ctx context.Context, threshold int64, delta int64, excludeIDs []int64) error {
	excluded := make(map[int64]bool, len(excludeIDs))
	for _, id := range excludeIDs {
		excluded[id] = true
	}
	for _, c := range s.cards {
		if c.Queue == QueueNew && c.Due >= threshold && !excluded[c.ID] {
			c.Due += delta
		}
	}
	return nil
}

// fakeDecks is an in-memory Decks collaborator with a single-parent chain.
type fakeDecks struct {
	decks    map[int64]*Deck
	configs  map[int64]*DeckConfig
	parentOf map[int64]int64
	active   []int64
	selected int64
}

func newFakeDecks() *fakeDecks {
	return &fakeDecks{
		decks:    make(map[int64]*Deck),
		configs:  make(map[int64]*DeckConfig),
		parentOf: make(map[int64]int64),
	}
}

func (d *fakeDecks) addDeck(deck *Deck, conf *DeckConfig) {
	d.decks[deck.ID] = deck
	d.configs[deck.ConfigID] = conf
}

func (d *fakeDecks) setParent(child, parent int64) { d.parentOf[child] = parent }

func (d *fakeDecks) Active() []int64  { return d.active }
func (d *fakeDecks) Selected() int64  { return d.selected }
func (d *fakeDecks) Get(did int64) (*Deck, error) {
	deck, ok := d.decks[did]
	if !ok {
		return nil, invalidTransitionf("deck %d not found", did)
	}
	return deck, nil
}
func (d *fakeDecks) All() ([]*Deck, error) {
	var out []*Deck
	for _, deck := range d.decks {
		out = append(out, deck)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
func (d *fakeDecks) Parents(did int64) ([]*Deck, error) {
	var chain []int64
	cur := did
	for {
		p, ok := d.parentOf[cur]
		if !ok {
			break
		}
		chain = append([]int64{p}, chain...)
		cur = p
	}
	var out []*Deck
	for _, id := range chain {
		deck, err := d.Get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, deck)
	}
	return out, nil
}
func (d *fakeDecks) Save(deck *Deck) error {
	d.decks[deck.ID] = deck
	return nil
}
func (d *fakeDecks) ConfigFor(did int64) (*DeckConfig, error) {
	deck, err := d.Get(did)
	if err != nil {
		return nil, err
	}
	conf, ok := d.configs[deck.ConfigID]
	if !ok {
		return nil, invalidTransitionf("config %d not found", deck.ConfigID)
	}
	return conf, nil
}

// fakeNotes is an in-memory Notes collaborator.
type fakeNotes struct {
	tags map[int64]map[string]bool
}

func newFakeNotes() *fakeNotes {
	return &fakeNotes{tags: make(map[int64]map[string]bool)}
}

func (n *fakeNotes) AddTag(ctx context.Context, noteID int64, tag string) error {
	if n.tags[noteID] == nil {
		n.tags[noteID] = make(map[string]bool)
	}
	n.tags[noteID][tag] = true
	return nil
}

func (n *fakeNotes) HasTag(ctx context.Context, noteID int64, tag string) (bool, error) {
	return n.tags[noteID][tag], nil
}

// fakeTime is a controllable TimeProvider.
type fakeTime struct {
	sec    int64
	ms     int64
	timing Timing
}

func (t *fakeTime) IntTime() int64       { return t.sec }
func (t *fakeTime) IntTimeMs() int64     { return t.ms }
func (t *fakeTime) TimingToday() Timing  { return t.timing }

// fakeConfig is an in-memory ConfigStore.
type fakeConfig struct {
	ints    map[string]int32
	bools   map[string]bool
	strings map[string]string
}

func newFakeConfig() *fakeConfig {
	return &fakeConfig{ints: map[string]int32{}, bools: map[string]bool{}, strings: map[string]string{}}
}

func (c *fakeConfig) GetBool(key string, def bool) bool {
	if v, ok := c.bools[key]; ok {
		return v
	}
	return def
}
func (c *fakeConfig) GetString(key string, def string) string {
	if v, ok := c.strings[key]; ok {
		return v
	}
	return def
}
func (c *fakeConfig) GetInt(key string, def int32) int32 {
	if v, ok := c.ints[key]; ok {
		return v
	}
	return def
}
func (c *fakeConfig) SetInt(key string, value int32) { c.ints[key] = value }

// fakeTasks records launched tasks without running them.
type fakeTasks struct{ launched int }

func (t *fakeTasks) Launch(task func()) { t.launched++ }

// fakeNotifier records leech notifications.
type fakeNotifier struct{ notified []int64 }

func (n *fakeNotifier) NotifyLeech(card *Card) { n.notified = append(n.notified, card.ID) }

// fakeLogger discards messages but records the count for tests that care.
type fakeLogger struct{ warnings int }

func (l *fakeLogger) Warnf(format string, v ...any) { l.warnings++ }

// fixedRNG returns values from a fixed cyclic sequence, so fuzz/shuffle
// outcomes are reproducible in tests.
type fixedRNG struct {
	seq []int
	pos int
}

func newFixedRNG(seq ...int) *fixedRNG { return &fixedRNG{seq: seq} }

func (r *fixedRNG) Intn(n int) int {
	if len(r.seq) == 0 {
		return 0
	}
	v := r.seq[r.pos%len(r.seq)]
	r.pos++
	if v >= n {
		v = n - 1
	}
	if v < 0 {
		v = 0
	}
	return v
}

// zeroRNG always returns 0, useful when a test wants no fuzz jitter.
type zeroRNG struct{}

func (zeroRNG) Intn(n int) int { return 0 }

func defaultNewConfig() NewConfig {
	return NewConfig{
		PerDay:        20,
		Delays:        []float64{1, 10},
		Ints:          []int{1, 4},
		InitialFactor: StartingFactor,
		Bury:          true,
		Order:         NewCardsDistribute,
	}
}

func defaultLapseConfig() LapseConfig {
	return LapseConfig{
		Delays:      []float64{10},
		Mult:        0,
		MinInt:      1,
		LeechFails:  8,
		LeechAction: LeechTagOnly,
	}
}

func defaultRevConfig() RevConfig {
	return RevConfig{
		PerDay: 200,
		Ease4:  1.3,
		MaxIvl: 36500,
	}
}

func defaultDeckConfig(id int64) *DeckConfig {
	return &DeckConfig{
		ID:    id,
		New:   defaultNewConfig(),
		Lapse: defaultLapseConfig(),
		Rev:   defaultRevConfig(),
	}
}
