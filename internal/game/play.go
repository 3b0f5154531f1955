package game

import (
	"context"
	"errors"
	"fmt"

	"tinyuno/internal/uno"
)

// Validation is the verdict on a proposed play. Err is the sentinel matching
// Reason when the play is rejected.
type Validation struct {
	Valid  bool   `json:"valid"`
	Reason string `json:"reason,omitempty"`
	Err    error  `json:"-"`
}

func reject(reason string, err error) Validation {
	return Validation{Reason: reason, Err: err}
}

// PlayResult reports the outcome of PlayCard. A rejected play has Success
// false and a Message naming the reason; nothing was changed.
type PlayResult struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	WinnerID *int64 `json:"winnerId,omitempty"`
}

// Validate checks whether userID may play cardID now.
func (e *Engine) Validate(ctx context.Context, gameID, userID, cardID int64, chosen *uno.Color) (Validation, error) {
	var v Validation
	err := e.view(ctx, gameID, func(r Repository) error {
		var err error
		v, _, _, err = validate(r, gameID, userID, cardID, chosen)
		return err
	})
	return v, err
}

// validate applies the play rules in order: game running, player's turn,
// card held, color chosen for a wild, card matches the top of the discard.
func validate(r Repository, gameID, userID, cardID int64, chosen *uno.Color) (Validation, *uno.TurnTracker, []uno.Seat, error) {
	g, err := r.Game(gameID)
	if err != nil {
		return Validation{}, nil, nil, err
	}
	if g.State != uno.StateInProgress {
		return reject(ReasonNotInProgress, ErrInvalidState), nil, nil, nil
	}
	tr, seats, err := tracker(r, gameID)
	if err != nil {
		return Validation{}, nil, nil, err
	}
	if tr.Turn().CurrentPlayerID != userID {
		return reject(ReasonNotYourTurn, ErrNotYourTurn), tr, seats, nil
	}
	card, ok, err := r.Card(gameID, cardID)
	if err != nil {
		return Validation{}, nil, nil, err
	}
	if !ok || card.OwnerID != userID {
		return reject(ReasonCardNotInHand, ErrCardNotInHand), tr, seats, nil
	}
	top, ok, err := r.TopCard(gameID)
	if err != nil {
		return Validation{}, nil, nil, err
	}
	if !ok {
		return Validation{Valid: true}, tr, seats, nil
	}
	if card.IsWild() {
		if chosen == nil || *chosen == "" {
			return reject(ReasonMustChoose, ErrInvalidPlay), tr, seats, nil
		}
		if !chosen.Choosable() {
			return reject(ReasonInvalidColor, ErrInvalidPlay), tr, seats, nil
		}
	}
	if !uno.Matches(card.Definition, top) {
		return reject(ReasonNoMatch, ErrInvalidPlay), tr, seats, nil
	}
	return Validation{Valid: true}, tr, seats, nil
}

// PlayCard validates and commits a play, then resolves the card's effects:
// a skip (or a two-seat reverse) consumes the next turn, a draw card makes
// the next player draw and lose their turn, and an emptied hand wins.
func (e *Engine) PlayCard(ctx context.Context, gameID, userID, cardID int64, chosen *uno.Color) (PlayResult, error) {
	var res PlayResult
	err := e.mutate(ctx, gameID, func(t *txn) error {
		v, tr, seats, err := validate(t, gameID, userID, cardID, chosen)
		if err != nil {
			return err
		}
		if !v.Valid {
			res = PlayResult{Message: v.Reason}
			return nil
		}
		card, _, err := t.Card(gameID, cardID)
		if err != nil {
			return err
		}
		played, err := t.PlayCard(cardID, gameID, userID)
		if err != nil {
			return err
		}
		if !played {
			res = PlayResult{Message: ReasonCardNotInHand}
			return nil
		}
		card.OwnerID, card.Location = uno.PoolOwner, uno.DiscardLocation

		primary := uno.Move{UserID: userID, PlayType: uno.PlayTypePlay, CardID: &card.ID}
		if n := card.DrawPenalty(); n > 0 {
			primary.DrawAmount = &n
		}
		if card.IsWild() && chosen != nil && chosen.Choosable() {
			c := *chosen
			primary.ChosenColor = &c
		}
		if card.Value == uno.ValueReverse {
			primary.PlayType = uno.PlayTypeReverse
			primary.Reverse = true
		}
		if err := appendMove(t, tr, primary); err != nil {
			return err
		}
		t.log.Debugw("card played", "user_id", userID, "card", card.Definition.String(), "card_id", card.ID)
		if err := t.emit(EventCardPlayed, CardPlayed{UserID: userID, Card: card}); err != nil {
			return err
		}
		if primary.ChosenColor != nil {
			if err := t.emit(EventColorChosen, ColorChosen{UserID: userID, ChosenColor: *primary.ChosenColor}); err != nil {
				return err
			}
		}

		if err := e.resolveEffects(t, tr, seats, card); err != nil {
			return err
		}

		res = PlayResult{Success: true}
		hand, err := t.Hand(gameID, userID)
		if err != nil {
			return err
		}
		if err := t.emitHandCounts(seats); err != nil {
			return err
		}
		if len(hand) == 0 {
			winner := userID
			res.WinnerID = &winner
			return finish(t, &winner)
		}
		return t.emitTurn(tr)
	})
	return res, err
}

// resolveEffects appends the follow-up moves of an action card. tr already
// includes the primary move, so its current player is the one affected.
func (e *Engine) resolveEffects(t *txn, tr *uno.TurnTracker, seats []uno.Seat, card uno.Card) error {
	switch card.Value {
	case uno.ValueSkip:
		return skipNext(t, tr)
	case uno.ValueReverse:
		if err := t.emit(EventReverse, Reversed{NewDirection: tr.Turn().Direction}); err != nil {
			return err
		}
		if len(seats) == 2 && e.opts.TwoSeatReverseSkips {
			return skipNext(t, tr)
		}
		return nil
	case uno.ValueDrawTwo, uno.ValueWildDrawFour:
		n := card.DrawPenalty()
		victim := tr.Turn().CurrentPlayerID
		if _, err := e.drawWithRecycle(t, victim, n); err != nil {
			return err
		}
		if err := appendMove(t, tr, uno.Move{UserID: victim, PlayType: uno.PlayTypeDraw, DrawAmount: &n}); err != nil {
			return err
		}
		if err := t.emit(EventCardsDrawn, CardsDrawn{UserID: victim, Count: n}); err != nil {
			return err
		}
		return skipNext(t, tr)
	}
	return nil
}

// skipNext consumes the turn of the current player with a synthetic skip.
func skipNext(t *txn, tr *uno.TurnTracker) error {
	skipped := tr.Turn().CurrentPlayerID
	if err := appendMove(t, tr, uno.Move{UserID: skipped, PlayType: uno.PlayTypeSkip}); err != nil {
		return err
	}
	t.log.Debugw("turn skipped", "user_id", skipped)
	return t.emit(EventSkip, Skipped{SkippedPlayerID: skipped})
}

// drawWithRecycle moves n draw-pile cards to playerID, recycling the discard
// pile once first when the draw pile is short.
func (e *Engine) drawWithRecycle(t *txn, playerID int64, n int) ([]int64, error) {
	pool, err := t.PoolCount(t.gameID)
	if err != nil {
		return nil, err
	}
	if pool < n {
		moved, err := t.RecycleDiscard(t.gameID, e.rng)
		switch {
		case err == nil:
			t.log.Infow("discard pile recycled", "cards", moved, "requested", n)
		case errors.Is(err, ErrNothingToRecycle):
		default:
			return nil, err
		}
		if pool, err = t.PoolCount(t.gameID); err != nil {
			return nil, err
		}
		if pool < n {
			t.log.Errorw("deck exhausted", "requested", n, "available", pool)
			return nil, fmt.Errorf("%w: requested %d, %d left after recycling", ErrDeckExhausted, n, pool)
		}
	}
	return t.DrawCards(t.gameID, playerID, n)
}
