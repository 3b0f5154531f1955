package game

import (
	"context"
	"fmt"
	"time"

	"tinyuno/internal/logging"
	"tinyuno/internal/uno"
)

// CreateGame opens a lobby hosted by hostID. A zero capacity means
// DefaultCapacity.
func (e *Engine) CreateGame(ctx context.Context, hostID int64, capacity int) (uno.Game, error) {
	if hostID <= uno.PoolOwner {
		return uno.Game{}, ErrInvalidUser
	}
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if capacity < MinPlayers || capacity > MaxPlayers {
		return uno.Game{}, fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidCapacity, capacity, MinPlayers, MaxPlayers)
	}
	g, err := e.store.CreateGame(ctx, hostID, capacity)
	if err != nil {
		return uno.Game{}, err
	}
	logging.With("game_id", g.ID, "user_id", hostID).Infow("game created", "capacity", capacity)
	return g, nil
}

// JoinGame seats userID at the next free position of a lobby.
func (e *Engine) JoinGame(ctx context.Context, gameID, userID int64) (uno.Seat, error) {
	if userID <= uno.PoolOwner {
		return uno.Seat{}, ErrInvalidUser
	}
	var seat uno.Seat
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
		for _, s := range seats {
			if s.UserID == userID {
				return ErrAlreadySeated
			}
		}
		if len(seats) >= g.Capacity {
			return ErrGameFull
		}
		seat = uno.Seat{GameID: gameID, UserID: userID, Position: len(seats) + 1}
		if err := t.AddSeat(seat); err != nil {
			return err
		}
		t.log.Debugw("player joined", "user_id", userID, "position", seat.Position)
		return t.emit(EventPlayerJoined, PlayerJoined{UserID: userID, Position: seat.Position})
	})
	return seat, err
}

// SetReady flags a lobby seat as ready or not.
func (e *Engine) SetReady(ctx context.Context, gameID, userID int64, ready bool) error {
	return e.mutate(ctx, gameID, func(t *txn) error {
		g, err := t.Game(gameID)
		if err != nil {
			return err
		}
		if g.State != uno.StateLobby {
			return fmt.Errorf("%w: game already started", ErrInvalidState)
		}
		if err := t.SetReady(gameID, userID, ready); err != nil {
			return err
		}
		return t.emit(EventPlayerReady, PlayerReady{UserID: userID, Ready: ready})
	})
}

// EndGame force-ends a game. winnerID is optional and must be seated.
func (e *Engine) EndGame(ctx context.Context, gameID int64, winnerID *int64) (uno.Game, error) {
	var out uno.Game
	err := e.mutate(ctx, gameID, func(t *txn) error {
		g, err := t.Game(gameID)
		if err != nil {
			return err
		}
		if g.State == uno.StateEnded {
			return fmt.Errorf("%w: game already ended", ErrInvalidState)
		}
		if winnerID != nil {
			seats, err := t.Seats(gameID)
			if err != nil {
				return err
			}
			if !seated(seats, *winnerID) {
				return ErrNotSeated
			}
		}
		if err := finish(t, winnerID); err != nil {
			return err
		}
		out, err = t.Game(gameID)
		return err
	})
	return out, err
}

// finish moves the game to its terminal state.
func finish(t *txn, winnerID *int64) error {
	ended := uno.StateEnded
	now := time.Now().UTC()
	if err := t.UpdateGame(t.gameID, GameUpdate{State: &ended, WinnerID: winnerID, EndedAt: &now}); err != nil {
		return err
	}
	t.log.Infow("game ended", "winner_id", winnerID)
	return t.emit(EventGameEnded, GameEnded{WinnerID: winnerID})
}

func seated(seats []uno.Seat, userID int64) bool {
	for _, s := range seats {
		if s.UserID == userID {
			return true
		}
	}
	return false
}
