package models

// Spread describes a tarot spread: a stable key and ordered position labels.
type Spread struct {
	Key       string   `json:"key"`
	Name      string   `json:"name"`
	Positions []string `json:"positions"`
}

// CardCount returns the number of cards the spread calls for.
func (s Spread) CardCount() int { return len(s.Positions) }

// PositionLabel returns the label for a 1-based position, or "" if out of range.
func (s Spread) PositionLabel(position int) string {
	if position < 1 || position > len(s.Positions) {
		return ""
	}
	return s.Positions[position-1]
}

// spreads is the catalog of supported spreads.
var spreads = map[string]Spread{
	"single": {
		Key:       "single",
		Name:      "Single Card",
		Positions: []string{"The Heart of the Matter"},
	},
	"threeCard": {
		Key:       "threeCard",
		Name:      "Past, Present, Future",
		Positions: []string{"Past", "Present", "Future"},
	},
	"crossroads": {
		Key:       "crossroads",
		Name:      "Crossroads",
		Positions: []string{"Where You Stand", "The First Path", "The Second Path", "What You Carry", "What Awaits"},
	},
}

// SpreadByKey looks up a spread definition by its key.
func SpreadByKey(key string) (Spread, bool) {
	s, ok := spreads[key]
	return s, ok
}

// SpreadKeys returns all catalog keys in no particular order.
func SpreadKeys() []string {
	keys := make([]string, 0, len(spreads))
	for k := range spreads {
		keys = append(keys, k)
	}
	return keys
}
