package models

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed deck.json
var defaultDeckData []byte

var (
	defaultDeckOnce sync.Once
	defaultDeck     Deck
	defaultDeckErr  error
)

// DefaultDeck returns the embedded default deck.
//
// The deck is parsed once; subsequent calls return the cached value.
func DefaultDeck() (Deck, error) {
	defaultDeckOnce.Do(func() {
		if err := json.Unmarshal(defaultDeckData, &defaultDeck); err != nil {
			defaultDeckErr = fmt.Errorf("failed to parse embedded deck: %w", err)
		}
	})
	return defaultDeck, defaultDeckErr
}

// CardByKey finds a card in the deck by its canonical key.
func (d Deck) CardByKey(key string) (Card, bool) {
	for _, c := range d.Cards {
		if c.Key == key {
			return c, true
		}
	}
	return Card{}, false
}
