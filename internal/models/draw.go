package models

import (
	"fmt"
	"math/rand"
)

// Draw draws cards from the deck for the given spread using a seeded RNG.
//
// The seed is recorded on the Reading so the same draw can be fingerprinted
// and reproduced. Orientation is an independent coin flip per card.
func Draw(deck Deck, spread Spread, seed int64) (*Reading, error) {
	n := spread.CardCount()
	if n < 1 {
		return nil, fmt.Errorf("spread %q has no positions", spread.Key)
	}
	if n > len(deck.Cards) {
		return nil, fmt.Errorf("spread %q needs %d cards but deck %q has %d", spread.Key, n, deck.ID, len(deck.Cards))
	}

	rng := rand.New(rand.NewSource(seed))

	// Fisher-Yates shuffle; only the first n indices are consumed.
	indices := make([]int, len(deck.Cards))
	for i := range indices {
		indices[i] = i
	}
	for i := len(indices) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		indices[i], indices[j] = indices[j], indices[i]
	}

	cards := make([]DrawnCard, n)
	for i := 0; i < n; i++ {
		orientation := Upright
		if rng.Intn(2) == 1 {
			orientation = Reversed
		}
		cards[i] = DrawnCard{
			Card:        deck.Cards[indices[i]],
			Position:    i + 1,
			Orientation: orientation,
		}
	}

	return &Reading{
		SpreadKey: spread.Key,
		Seed:      seed,
		Cards:     cards,
	}, nil
}
