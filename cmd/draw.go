package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/arcanaworks/arcana/internal/journal"
	"github.com/arcanaworks/arcana/internal/models"
	"github.com/arcanaworks/arcana/internal/shared"
	"github.com/urfave/cli/v3"
)

// Draw shuffles the deck, draws a spread, and stores it as the pending
// reading for a later `read`.
func (r *Runner) Draw(ctx context.Context, cmd *cli.Command) error {
	spreadKey := cmd.String("spread")
	question := cmd.String("question")
	seed := int64(cmd.Int("seed"))
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	rdg, err := r.drawReading(spreadKey, seed)
	if err != nil {
		return err
	}
	rdg.Question = question

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	repo := journal.NewRepository(db)
	if err := repo.SaveDraft(r.scope, journal.Draft{Reading: rdg, Question: question}); err != nil {
		return fmt.Errorf("failed to save pending reading: %w", err)
	}
	r.logger.Info("drew spread", "spread", rdg.SpreadKey, "cards", len(rdg.Cards), "seed", rdg.Seed)

	if useJSON {
		return r.writeJSON(rdg, pretty)
	}

	spread, _ := models.SpreadByKey(rdg.SpreadKey)
	r.writePlainHeader(spread.Name)
	for _, card := range rdg.Cards {
		r.writePlain("%s\n", formatCard(spread, card))
	}
	if question != "" {
		r.writePlainln("Question: %s", question)
	}
	r.writePlainln("Run 'arcana read' to hear what the cards have to say.")
	return nil
}

// drawReading draws a fresh reading from the embedded deck.
func (r *Runner) drawReading(spreadKey string, seed int64) (*models.Reading, error) {
	spread, ok := models.SpreadByKey(spreadKey)
	if !ok {
		return nil, fmt.Errorf("%w: %q (known spreads: %s)", shared.ErrUnknownSpread, spreadKey, strings.Join(models.SpreadKeys(), ", "))
	}

	deck, err := models.DefaultDeck()
	if err != nil {
		return nil, err
	}

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return models.Draw(deck, spread, seed)
}

func formatCard(spread models.Spread, card models.DrawnCard) string {
	orientation := ""
	if card.Orientation == models.Reversed {
		orientation = " (reversed)"
	}
	return fmt.Sprintf("%-20s %s%s", spread.PositionLabel(card.Position), card.Name, orientation)
}
