package models_test

import (
	"reflect"
	"testing"

	"github.com/arcanaworks/arcana/internal/models"
)

func TestDefaultDeck(t *testing.T) {
	deck, err := models.DefaultDeck()
	if err != nil {
		t.Fatalf("DefaultDeck: %v", err)
	}
	if len(deck.Cards) != 22 {
		t.Errorf("deck has %d cards, want the 22 major arcana", len(deck.Cards))
	}

	seen := make(map[string]bool)
	for _, c := range deck.Cards {
		if c.Key == "" || c.Name == "" {
			t.Errorf("card missing identity: %+v", c)
		}
		if c.Upright == "" || c.Reversed == "" {
			t.Errorf("card %q missing meaning text", c.Key)
		}
		if seen[c.Key] {
			t.Errorf("duplicate card key %q", c.Key)
		}
		seen[c.Key] = true
	}

	t.Run("CardByKey", func(t *testing.T) {
		if _, ok := deck.CardByKey(deck.Cards[0].Key); !ok {
			t.Error("known key not found")
		}
		if _, ok := deck.CardByKey("major_99_nonsense"); ok {
			t.Error("unknown key reported as found")
		}
	})
}

func TestCardMeaning(t *testing.T) {
	card := models.Card{Upright: "a beginning", Reversed: "hesitation"}
	if got := card.Meaning(models.Upright); got != "a beginning" {
		t.Errorf("upright meaning = %q", got)
	}
	if got := card.Meaning(models.Reversed); got != "hesitation" {
		t.Errorf("reversed meaning = %q", got)
	}
}

func TestSpreads(t *testing.T) {
	t.Run("Catalog", func(t *testing.T) {
		wantCounts := map[string]int{"single": 1, "threeCard": 3, "crossroads": 5}
		for key, count := range wantCounts {
			spread, ok := models.SpreadByKey(key)
			if !ok {
				t.Errorf("spread %q missing from catalog", key)
				continue
			}
			if spread.CardCount() != count {
				t.Errorf("spread %q has %d positions, want %d", key, spread.CardCount(), count)
			}
		}
		if _, ok := models.SpreadByKey("celticCross"); ok {
			t.Error("unknown spread reported as found")
		}
		if len(models.SpreadKeys()) != len(wantCounts) {
			t.Errorf("SpreadKeys() = %v", models.SpreadKeys())
		}
	})

	t.Run("PositionLabel", func(t *testing.T) {
		spread, _ := models.SpreadByKey("threeCard")
		if got := spread.PositionLabel(1); got != "Past" {
			t.Errorf("label 1 = %q", got)
		}
		if got := spread.PositionLabel(3); got != "Future" {
			t.Errorf("label 3 = %q", got)
		}
		if got := spread.PositionLabel(0); got != "" {
			t.Errorf("label 0 = %q, want empty", got)
		}
		if got := spread.PositionLabel(4); got != "" {
			t.Errorf("label 4 = %q, want empty", got)
		}
	})
}

func TestDraw(t *testing.T) {
	deck, err := models.DefaultDeck()
	if err != nil {
		t.Fatalf("DefaultDeck: %v", err)
	}
	spread, _ := models.SpreadByKey("threeCard")

	t.Run("DeterministicBySeed", func(t *testing.T) {
		a, err := models.Draw(deck, spread, 42)
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		b, err := models.Draw(deck, spread, 42)
		if err != nil {
			t.Fatalf("Draw: %v", err)
		}
		if !reflect.DeepEqual(a.Cards, b.Cards) {
			t.Error("same seed produced different draws")
		}
		if a.Seed != 42 || a.SpreadKey != "threeCard" {
			t.Errorf("reading = %+v", a)
		}
	})

	t.Run("DifferentSeedsDiffer", func(t *testing.T) {
		a, _ := models.Draw(deck, spread, 1)
		b, _ := models.Draw(deck, spread, 2)
		if reflect.DeepEqual(a.Cards, b.Cards) {
			t.Error("different seeds produced identical draws")
		}
	})

	t.Run("NoDuplicateCards", func(t *testing.T) {
		big, _ := models.SpreadByKey("crossroads")
		for seed := int64(1); seed <= 25; seed++ {
			r, err := models.Draw(deck, big, seed)
			if err != nil {
				t.Fatalf("Draw(seed %d): %v", seed, err)
			}
			seen := make(map[string]bool)
			for _, c := range r.Cards {
				if seen[c.Key] {
					t.Fatalf("seed %d drew %q twice", seed, c.Key)
				}
				seen[c.Key] = true
			}
		}
	})

	t.Run("PositionsAreOrdered", func(t *testing.T) {
		r, _ := models.Draw(deck, spread, 7)
		for i, c := range r.Cards {
			if c.Position != i+1 {
				t.Errorf("card %d has position %d", i, c.Position)
			}
			if c.Orientation != models.Upright && c.Orientation != models.Reversed {
				t.Errorf("card %d orientation = %q", i, c.Orientation)
			}
		}
	})

	t.Run("OversizedSpreadRejected", func(t *testing.T) {
		huge := models.Spread{Key: "everything", Positions: make([]string, 23)}
		if _, err := models.Draw(deck, huge, 1); err == nil {
			t.Error("expected an error for a spread larger than the deck")
		}
	})

	t.Run("EmptySpreadRejected", func(t *testing.T) {
		if _, err := models.Draw(deck, models.Spread{Key: "none"}, 1); err == nil {
			t.Error("expected an error for a spread with no positions")
		}
	})
}

func TestReadingReflection(t *testing.T) {
	r := &models.Reading{Reflections: map[int]string{1: "  trimmed  "}}
	if got := r.Reflection(1); got != "trimmed" {
		t.Errorf("Reflection(1) = %q", got)
	}
	if got := r.Reflection(2); got != "" {
		t.Errorf("Reflection(2) = %q, want empty", got)
	}
	empty := &models.Reading{}
	if got := empty.Reflection(1); got != "" {
		t.Errorf("Reflection on nil map = %q", got)
	}
}

func TestPreferences(t *testing.T) {
	tests := []struct {
		name      string
		prefs     models.Preferences
		voiceOn   bool
		streaming bool
	}{
		{"AuroraWithVoice", models.Preferences{NarrationEnabled: true, Voice: "selene", Provider: "aurora"}, true, true},
		{"SybilWithVoice", models.Preferences{NarrationEnabled: true, Voice: "selene", Provider: "sybil"}, true, true},
		{"NoVoice", models.Preferences{NarrationEnabled: true, Provider: "aurora"}, false, true},
		{"UnknownProvider", models.Preferences{NarrationEnabled: true, Voice: "selene", Provider: "archive"}, true, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.prefs.VoiceOn(); got != tc.voiceOn {
				t.Errorf("VoiceOn() = %v, want %v", got, tc.voiceOn)
			}
			if got := tc.prefs.SupportsStreaming(); got != tc.streaming {
				t.Errorf("SupportsStreaming() = %v, want %v", got, tc.streaming)
			}
		})
	}
}
