package game

import (
	"context"
	"fmt"

	"tinyuno/internal/uno"
)

// DrawResult lists the cards handed to the player.
type DrawResult struct {
	CardIDs []int64 `json:"cardIds"`
}

// DrawCards lets the current player draw count cards, one when count is
// zero. The draw is logged without handing over the turn; EndTurn does that.
func (e *Engine) DrawCards(ctx context.Context, gameID, userID int64, count int) (DrawResult, error) {
	if count == 0 {
		count = 1
	}
	if count < 0 || count > e.opts.MaxDraw {
		return DrawResult{}, fmt.Errorf("%w: draw count %d not in [1, %d]", ErrInvalidPlay, count, e.opts.MaxDraw)
	}
	var res DrawResult
	err := e.mutate(ctx, gameID, func(t *txn) error {
		_, tr, seats, err := requireTurn(t, userID)
		if err != nil {
			return err
		}
		ids, err := e.drawWithRecycle(t, userID, count)
		if err != nil {
			return err
		}
		n := count
		if err := appendMove(t, tr, uno.Move{UserID: userID, PlayType: uno.PlayTypeDraw, DrawAmount: &n}); err != nil {
			return err
		}
		t.log.Debugw("cards drawn", "user_id", userID, "count", count)
		if err := t.emit(EventCardsDrawn, CardsDrawn{UserID: userID, Count: count}); err != nil {
			return err
		}
		if err := t.emitHandCounts(seats); err != nil {
			return err
		}
		res = DrawResult{CardIDs: ids}
		return nil
	})
	return res, err
}

// EndTurn passes the turn of userID to the next seat.
func (e *Engine) EndTurn(ctx context.Context, gameID, userID int64) (uno.Turn, error) {
	var turn uno.Turn
	err := e.mutate(ctx, gameID, func(t *txn) error {
		_, tr, _, err := requireTurn(t, userID)
		if err != nil {
			return err
		}
		if err := appendMove(t, tr, uno.Move{UserID: userID, PlayType: uno.PlayTypeDraw}); err != nil {
			return err
		}
		turn = tr.Turn()
		t.log.Debugw("turn ended", "user_id", userID, "next_player_id", turn.CurrentPlayerID)
		return t.emitTurn(tr)
	})
	return turn, err
}
