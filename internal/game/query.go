package game

import (
	"context"
	"fmt"

	"tinyuno/internal/uno"
)

// CurrentTurn resolves whose turn it is by replaying the move log.
func (e *Engine) CurrentTurn(ctx context.Context, gameID int64) (uno.Turn, error) {
	var turn uno.Turn
	err := e.view(ctx, gameID, func(r Repository) error {
		g, err := r.Game(gameID)
		if err != nil {
			return err
		}
		if g.State == uno.StateLobby {
			return fmt.Errorf("%w: game has not started", ErrInvalidState)
		}
		tr, _, err := tracker(r, gameID)
		if err != nil {
			return err
		}
		turn = tr.Turn()
		return nil
	})
	return turn, err
}

// Snapshot is a consistent picture of a game as seen by one player.
type Snapshot struct {
	Game        uno.Game     `json:"game"`
	Seats       []uno.Seat   `json:"seats"`
	Hand        []uno.Card   `json:"hand"`
	HandCounts  HandCounts   `json:"handCounts"`
	TopCard     *uno.TopCard `json:"topCard,omitempty"`
	DrawPile    int          `json:"drawPile"`
	DiscardPile int          `json:"discardPile"`
	Turn        *uno.Turn    `json:"turn,omitempty"`
	LastMove    *uno.Move    `json:"lastMove,omitempty"`
	LastEventID int64        `json:"lastEventId"`
}

// State reads a snapshot of a game. viewerID selects whose hand is included;
// zero omits it.
func (e *Engine) State(ctx context.Context, gameID, viewerID int64) (Snapshot, error) {
	var snap Snapshot
	err := e.view(ctx, gameID, func(r Repository) error {
		g, err := r.Game(gameID)
		if err != nil {
			return err
		}
		snap.Game = g
		if snap.Seats, err = r.Seats(gameID); err != nil {
			return err
		}
		if viewerID != uno.PoolOwner {
			if !seated(snap.Seats, viewerID) {
				return ErrNotSeated
			}
			if snap.Hand, err = r.Hand(gameID, viewerID); err != nil {
				return err
			}
		}
		counts, err := r.HandCounts(gameID)
		if err != nil {
			return err
		}
		snap.HandCounts = make(HandCounts, len(snap.Seats))
		for _, s := range snap.Seats {
			snap.HandCounts[s.UserID] = counts[s.UserID]
		}
		if top, ok, err := r.TopCard(gameID); err != nil {
			return err
		} else if ok {
			snap.TopCard = &top
		}
		if snap.DrawPile, err = r.PoolCount(gameID); err != nil {
			return err
		}
		if snap.DiscardPile, err = r.DiscardCount(gameID); err != nil {
			return err
		}
		if last, ok, err := r.LastMove(gameID); err != nil {
			return err
		} else if ok {
			snap.LastMove = &last
		}
		if g.State != uno.StateLobby {
			tr, _, err := tracker(r, gameID)
			if err != nil {
				return err
			}
			turn := tr.Turn()
			snap.Turn = &turn
		}
		snap.LastEventID, err = r.LastEventID(gameID)
		return err
	})
	return snap, err
}

// EventsSince returns the persisted events of a game after afterID.
func (e *Engine) EventsSince(ctx context.Context, gameID, afterID int64) ([]Event, error) {
	var events []Event
	err := e.view(ctx, gameID, func(r Repository) error {
		var err error
		events, err = r.Events(gameID, afterID)
		return err
	})
	return events, err
}
