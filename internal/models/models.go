// package models defines the data model for the tarot reading client
package models

import "strings"

// Orientation represents the orientation of a drawn tarot card.
type Orientation string

const (
	Upright  Orientation = "upright"
	Reversed Orientation = "reversed"
)

// Card represents a single tarot card in a deck.
type Card struct {
	Key      string   `json:"key"` // canonical identifier, e.g. "major_00_fool"
	Name     string   `json:"name"`
	Arcana   string   `json:"arcana"` // "major" or "minor"
	Keywords []string `json:"keywords"`
	Upright  string   `json:"upright"`  // upright meaning text
	Reversed string   `json:"reversed"` // reversed meaning text
}

// Meaning returns the meaning text for the given orientation.
func (c Card) Meaning(o Orientation) string {
	if o == Reversed {
		return c.Reversed
	}
	return c.Upright
}

// Deck is a collection of tarot cards.
type Deck struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Cards []Card `json:"cards"`
}

// DrawnCard is a card that has been drawn into a spread position.
// Positions are 1-based.
type DrawnCard struct {
	Card
	Position    int         `json:"position"`
	Orientation Orientation `json:"orientation"`
}

// Reading is one draw of cards against a spread, together with the user's
// question and optional per-position reflections.
type Reading struct {
	SpreadKey   string         `json:"spread_key"`
	Seed        int64          `json:"seed"`
	Cards       []DrawnCard    `json:"cards"`
	Question    string         `json:"question"`
	Reflections map[int]string `json:"reflections,omitempty"` // keyed by position
}

// Reflection returns the trimmed reflection text for a position, or "".
func (r *Reading) Reflection(position int) string {
	if r.Reflections == nil {
		return ""
	}
	return strings.TrimSpace(r.Reflections[position])
}

// Preferences is a read-only snapshot of the user's narration settings,
// taken when a stream starts and re-checked as text arrives.
type Preferences struct {
	NarrationEnabled bool
	Voice            string // empty means voice off
	Provider         string
}

// VoiceOn reports whether a voice is configured.
func (p Preferences) VoiceOn() bool { return p.Voice != "" }

// streamingProviders lists narration providers that support queueing chunks
// during generation rather than requiring the full text up front.
var streamingProviders = map[string]bool{
	"aurora": true,
	"sybil":  true,
}

// SupportsStreaming reports whether the configured provider can narrate
// incrementally.
func (p Preferences) SupportsStreaming() bool {
	return streamingProviders[p.Provider]
}

// Personalization is an optional block attached to generation requests.
type Personalization struct {
	Name      string `json:"name,omitempty"`
	Birthdate string `json:"birthdate,omitempty"`
	Tone      string `json:"tone,omitempty"`
}

// Empty reports whether the block carries no data and should be omitted.
func (p Personalization) Empty() bool {
	return p.Name == "" && p.Birthdate == "" && p.Tone == ""
}

// Location is an optional geolocation block attached to generation requests.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Place     string  `json:"place,omitempty"`
}

// Empty reports whether the block carries no data and should be omitted.
func (l Location) Empty() bool {
	return l.Latitude == 0 && l.Longitude == 0 && l.Place == ""
}
