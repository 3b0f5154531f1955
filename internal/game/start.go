package game

import (
	"context"
	"fmt"

	"tinyuno/internal/uno"
)

// StartResult reports the outcome of StartGame.
type StartResult struct {
	FirstPlayerID int64    `json:"firstPlayerId"`
	StarterCard   uno.Card `json:"starterCard"`
	Order         []int64  `json:"order"`
}

// StartGame builds the deck, shuffles the seats into positions 1..N, deals
// every hand and flips the starter. The first shuffled seat plays first.
func (e *Engine) StartGame(ctx context.Context, gameID int64) (StartResult, error) {
	var res StartResult
	err := e.mutate(ctx, gameID, func(t *txn) error {
		g, err := t.Game(gameID)
		if err != nil {
			return err
		}
		if g.State != uno.StateLobby {
			return fmt.Errorf("%w: game already started", ErrInvalidState)
		}
		seats, err := t.Seats(gameID)
		if err != nil {
			return err
		}
		if len(seats) < MinPlayers {
			return fmt.Errorf("%w: %d seated", ErrInsufficientPlayers, len(seats))
		}
		if e.opts.HandSize*len(seats) >= uno.DeckSize {
			return fmt.Errorf("%w: cannot deal %d cards to %d players", ErrInsufficientDrawPile, e.opts.HandSize, len(seats))
		}

		if err := t.CreateDeck(gameID, uno.BuildDeck(e.rng)); err != nil {
			return err
		}
		uno.Shuffle(e.rng, seats)
		order := make([]int64, len(seats))
		for i := range seats {
			seats[i].Position = i + 1
			order[i] = seats[i].UserID
			if err := t.SetSeatPosition(gameID, seats[i].UserID, seats[i].Position); err != nil {
				return err
			}
		}
		for _, s := range seats {
			if _, err := t.DrawCards(gameID, s.UserID, e.opts.HandSize); err != nil {
				return fmt.Errorf("deal to %d: %w", s.UserID, err)
			}
		}

		starter, flips, err := e.flipStarter(t)
		if err != nil {
			return err
		}
		running := uno.StateInProgress
		if err := t.UpdateGame(gameID, GameUpdate{State: &running, StarterCardID: &starter.ID}); err != nil {
			return err
		}

		res = StartResult{FirstPlayerID: order[0], StarterCard: starter, Order: order}
		t.log.Infow("game started",
			"first_player_id", res.FirstPlayerID,
			"starter", starter.Definition.String(),
			"flips", flips,
		)
		if err := t.emit(EventGameStarted, GameStarted(res)); err != nil {
			return err
		}
		if err := t.emitHandCounts(seats); err != nil {
			return err
		}
		tr, err := uno.NewTurnTracker(seats)
		if err != nil {
			return err
		}
		return t.emitTurn(tr)
	})
	return res, err
}

// flipStarter turns draw-pile cards until one is a plain number card, burying
// each rejected card at the bottom of the draw pile. When the flip limit runs
// out the last flipped card stays.
func (e *Engine) flipStarter(t *txn) (uno.Card, int, error) {
	limit := e.opts.StarterFlips
	if limit < 1 {
		limit = 1
	}
	var card uno.Card
	for i := 1; i <= limit; i++ {
		c, err := t.FlipCard(t.gameID)
		if err != nil {
			return uno.Card{}, i, fmt.Errorf("flip starter: %w", err)
		}
		card = c
		if uno.ValidStarter(c.Definition) {
			return card, i, nil
		}
		if i == limit {
			break
		}
		if err := t.BuryCard(t.gameID, c.ID); err != nil {
			return uno.Card{}, i, err
		}
	}
	t.log.Warnw("no plain starter found", "flips", limit, "starter", card.Definition.String())
	return card, limit, nil
}
