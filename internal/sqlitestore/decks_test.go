package sqlitestore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ntwriter/srscore/internal/deckconfig"
)

func presetsFixture(t *testing.T) *deckconfig.Store {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".srscore"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".srscore", ".keep"), nil, 0o644))
	s, err := deckconfig.ReadConfigFromDirectory(dir)
	require.NoError(t, err)
	return s
}

func TestCreateDeckThenGet(t *testing.T) {
	db := openTestDB(t)
	presets := presetsFixture(t)
	decks := NewDeckStore(db, presets, nil, 0)
	ctx := context.Background()

	deck, err := decks.CreateDeck(ctx, "Home", false, "default")
	require.NoError(t, err)
	require.NotNil(t, deck)
	assert.Equal(t, "Home", deck.Name)
	assert.False(t, deck.Dynamic)

	got, err := decks.Get(deck.ID)
	require.NoError(t, err)
	assert.Equal(t, deck.Name, got.Name)

	conf, err := decks.ConfigFor(deck.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, conf.New.PerDay)
}

func TestSetParentPopulatesAncestorChain(t *testing.T) {
	db := openTestDB(t)
	presets := presetsFixture(t)
	decks := NewDeckStore(db, presets, nil, 0)
	ctx := context.Background()

	root, err := decks.CreateDeck(ctx, "Root", false, "default")
	require.NoError(t, err)
	mid, err := decks.CreateDeck(ctx, "Mid", false, "default")
	require.NoError(t, err)
	leaf, err := decks.CreateDeck(ctx, "Leaf", false, "default")
	require.NoError(t, err)

	require.NoError(t, decks.SetParent(ctx, mid.ID, root.ID))
	require.NoError(t, decks.SetParent(ctx, leaf.ID, mid.ID))

	parents, err := decks.Parents(leaf.ID)
	require.NoError(t, err)
	require.Len(t, parents, 2)
	assert.Equal(t, root.ID, parents[0].ID, "root first")
	assert.Equal(t, mid.ID, parents[1].ID)
}

func TestSaveDeckPersistsCounters(t *testing.T) {
	db := openTestDB(t)
	presets := presetsFixture(t)
	decks := NewDeckStore(db, presets, nil, 0)
	ctx := context.Background()

	deck, err := decks.CreateDeck(ctx, "Home", false, "default")
	require.NoError(t, err)

	deck.NewToday.Day = 7
	deck.NewToday.Count = 3
	require.NoError(t, decks.Save(deck))

	got, err := decks.Get(deck.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 7, got.NewToday.Day)
	assert.Equal(t, 3, got.NewToday.Count)
}

func TestConfigForDynamicDeckOverlaysReschedFlag(t *testing.T) {
	db := openTestDB(t)
	presets := presetsFixture(t)
	decks := NewDeckStore(db, presets, nil, 0)
	ctx := context.Background()

	dyn, err := decks.CreateDeck(ctx, "Filtered", true, "default")
	require.NoError(t, err)
	dyn.Resched = false
	require.NoError(t, decks.Save(dyn))

	conf, err := decks.ConfigFor(dyn.ID)
	require.NoError(t, err)
	assert.True(t, conf.Dyn)
	assert.False(t, conf.Resched)
}
