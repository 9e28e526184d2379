// Package models defines the tarot domain entities shared across the application.
//
// The package contains three categories of types:
//
// 1. Deck data: [Card] and [Deck], loaded from the embedded default deck
//   - a card carries separate upright and reversed meaning text
//
// 2. Reading state: [Spread] definitions with position labels, [DrawnCard],
//    and [Reading], one draw of cards against a spread plus the user's
//    question and per-position reflections
//
// 3. User settings: [Preferences], [Personalization], and [Location] blocks
//    attached to narrative generation requests
//
// Deck content, spread catalogs, and drawing are deliberately simple: the
// interesting behavior lives in internal/reading, which consumes these
// shapes and never mutates them.
package models
