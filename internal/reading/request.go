package reading

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/shared"
)

// SpreadDescriptor identifies the spread a narrative is generated for.
type SpreadDescriptor struct {
	Key       string `json:"key"`
	Name      string `json:"name"`
	CardCount int    `json:"cardCount"`
}

// CardEntry is one drawn card as sent to the reading server.
type CardEntry struct {
	Position      int    `json:"position"`
	PositionLabel string `json:"positionLabel"`
	Name          string `json:"name"`
	Key           string `json:"key"` // canonical card identity
	Orientation   string `json:"orientation"`
	Meaning       string `json:"meaning"` // orientation-selected meaning text
	Reflection    string `json:"reflection,omitempty"`
}

// ReadingRequest is the validated payload for POST /jobs. Optional blocks
// are omitted entirely when unset so the server's defaults apply.
type ReadingRequest struct {
	Spread          SpreadDescriptor        `json:"spread"`
	Cards           []CardEntry             `json:"cards"`
	Question        string                  `json:"question,omitempty"`
	Seed            int64                   `json:"seed"`
	Personalization *models.Personalization `json:"personalization,omitempty"`
	Location        *models.Location        `json:"location,omitempty"`
}

// BuildRequest assembles and validates the generation payload from the
// current reading and user inputs. On failure it returns a structured
// *ValidationError; an invalid payload never reaches the network.
func BuildRequest(reading *models.Reading, question string, personalization models.Personalization, location models.Location) (*ReadingRequest, *ValidationError) {
	if reading == nil || len(reading.Cards) == 0 {
		return nil, &ValidationError{Field: "cards", Reason: "no cards drawn"}
	}

	spread, ok := models.SpreadByKey(reading.SpreadKey)
	if !ok {
		return nil, &ValidationError{Field: "spread", Reason: fmt.Sprintf("unknown spread %q", reading.SpreadKey)}
	}
	if len(reading.Cards) != spread.CardCount() {
		return nil, &ValidationError{
			Field:  "cards",
			Reason: fmt.Sprintf("spread %q wants %d cards, got %d", spread.Key, spread.CardCount(), len(reading.Cards)),
		}
	}

	entries := make([]CardEntry, len(reading.Cards))
	for i, drawn := range reading.Cards {
		if drawn.Key == "" || drawn.Name == "" {
			return nil, &ValidationError{Field: "cards", Reason: fmt.Sprintf("card at position %d has no identity", drawn.Position)}
		}
		if drawn.Orientation != models.Upright && drawn.Orientation != models.Reversed {
			return nil, &ValidationError{Field: "cards", Reason: fmt.Sprintf("card at position %d has orientation %q", drawn.Position, drawn.Orientation)}
		}
		meaning := drawn.Meaning(drawn.Orientation)
		if meaning == "" {
			return nil, &ValidationError{Field: "cards", Reason: fmt.Sprintf("card %q has no meaning text", drawn.Key)}
		}
		entries[i] = CardEntry{
			Position:      drawn.Position,
			PositionLabel: spread.PositionLabel(drawn.Position),
			Name:          drawn.Name,
			Key:           drawn.Key,
			Orientation:   string(drawn.Orientation),
			Meaning:       meaning,
			Reflection:    reading.Reflection(drawn.Position),
		}
	}

	req := &ReadingRequest{
		Spread: SpreadDescriptor{
			Key:       spread.Key,
			Name:      spread.Name,
			CardCount: spread.CardCount(),
		},
		Cards:    entries,
		Question: shared.CollapseSpace(question),
		Seed:     reading.Seed,
	}
	if !personalization.Empty() {
		p := personalization
		req.Personalization = &p
	}
	if !location.Empty() {
		l := location
		req.Location = &l
	}
	return req, nil
}

// ReadingKey fingerprints the inputs a job was created from. A persisted job
// is only resumed while the fingerprint of the current reading still
// matches; if the user redraws, edits reflections, or changes the question,
// the stale job is discarded instead.
func ReadingKey(req *ReadingRequest) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%d|%d|", req.Spread.Key, req.Spread.CardCount, req.Seed)
	for _, c := range req.Cards {
		fmt.Fprintf(h, "%d:%s:%s:%s|", c.Position, c.Key, c.Orientation, c.Reflection)
	}
	fmt.Fprintf(h, "q=%s|", strings.ToLower(req.Question))
	if req.Personalization != nil {
		fmt.Fprintf(h, "p=%s:%s:%s|", req.Personalization.Name, req.Personalization.Birthdate, req.Personalization.Tone)
	}
	return hex.EncodeToString(h.Sum(nil))
}
