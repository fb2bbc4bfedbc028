package scheduler

import (
	"github.com/jinzhu/copier"
)

// ConfigView resolves the effective DeckConfig for a card, including the
// filtered-deck overlay: a filtered deck borrows its new/lapse timing knobs
// from the card's original deck while keeping its own order/perDay/
// resched/separate.
type ConfigView struct {
	decks Decks
}

func newConfigView(decks Decks) *ConfigView {
	return &ConfigView{decks: decks}
}

// CardConf returns the raw config of whatever deck currently holds the
// card (the filtered deck itself, if the card is filtered).
func (cv *ConfigView) CardConf(card *Card) (*DeckConfig, error) {
	return cv.decks.ConfigFor(card.DeckID)
}

// NewConf resolves the `new` section, overlaying original-deck timing onto
// filtered-deck ordering when the card is in a filtered deck.
func (cv *ConfigView) NewConf(card *Card) (*NewConfig, error) {
	if !card.InFiltered() {
		conf, err := cv.decks.ConfigFor(card.DeckID)
		if err != nil {
			return nil, err
		}
		return &conf.New, nil
	}

	original, filtered, err := cv.originalAndFiltered(card)
	if err != nil {
		return nil, err
	}

	overlay := new(NewConfig)
	if err := copier.Copy(overlay, &original.New); err != nil {
		return nil, err
	}
	overlay.Order = filtered.New.Order
	overlay.PerDay = filtered.New.PerDay
	overlay.Separate = filtered.New.Separate
	return overlay, nil
}

// LapseConf resolves the `lapse` section. A filtered deck has no ordering
// knobs of its own here, so the original deck's section is returned
// effectively unmodified.
func (cv *ConfigView) LapseConf(card *Card) (*LapseConfig, error) {
	if !card.InFiltered() {
		conf, err := cv.decks.ConfigFor(card.DeckID)
		if err != nil {
			return nil, err
		}
		return &conf.Lapse, nil
	}
	original, err := cv.decks.ConfigFor(card.OriginalDeckID)
	if err != nil {
		return nil, err
	}
	overlay := new(LapseConfig)
	if err := copier.Copy(overlay, &original.Lapse); err != nil {
		return nil, err
	}
	return overlay, nil
}

// RevConf resolves the `rev` section. In a filtered deck this returns the
// original deck's section verbatim; there is no overlay for review timing.
func (cv *ConfigView) RevConf(card *Card) (*RevConfig, error) {
	did := card.DeckID
	if card.InFiltered() {
		did = card.OriginalDeckID
	}
	conf, err := cv.decks.ConfigFor(did)
	if err != nil {
		return nil, err
	}
	return &conf.Rev, nil
}

// Resched reports whether answering the card in its current (possibly
// filtered) deck reschedules it into regular review.
func (cv *ConfigView) Resched(card *Card) (bool, error) {
	if !card.InFiltered() {
		return true, nil
	}
	filteredConf, err := cv.decks.ConfigFor(card.DeckID)
	if err != nil {
		return false, err
	}
	return filteredConf.Resched, nil
}

// PreviewDelay returns the filtered deck's preview delay in seconds.
func (cv *ConfigView) PreviewDelay(card *Card) (int, error) {
	conf, err := cv.decks.ConfigFor(card.DeckID)
	if err != nil {
		return 0, err
	}
	return conf.PreviewDelay, nil
}

func (cv *ConfigView) originalAndFiltered(card *Card) (original, filtered *DeckConfig, err error) {
	original, err = cv.decks.ConfigFor(card.OriginalDeckID)
	if err != nil {
		return nil, nil, err
	}
	filtered, err = cv.decks.ConfigFor(card.DeckID)
	if err != nil {
		return nil, nil, err
	}
	return original, filtered, nil
}
