package game

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"tinyuno/internal/logging"
	"tinyuno/internal/uno"
)

// Options tune the rules of new games.
type Options struct {
	HandSize     int
	StarterFlips int
	// MaxDraw bounds a single voluntary draw request.
	MaxDraw int
	// TwoSeatReverseSkips makes a reverse with two seats hand the turn back
	// to the player of the reverse. Set it to false for the reverse to pass
	// the turn to the other player instead.
	TwoSeatReverseSkips bool
}

// DefaultOptions returns the standard rules.
func DefaultOptions() Options {
	return Options{HandSize: 7, StarterFlips: 20, MaxDraw: 10, TwoSeatReverseSkips: true}
}

const (
	DefaultCapacity = 4
	MinPlayers      = 2
	MaxPlayers      = 10
)

// Engine runs Uno games on top of a Store. Every mutation of a game holds the
// game's exclusive hub lock and runs inside one store transaction.
type Engine struct {
	store Store
	hub   *Hub
	rng   uno.RNG
	opts  Options
}

// NewEngine wires an engine.
func NewEngine(store Store, hub *Hub, rng uno.RNG, opts Options) *Engine {
	return &Engine{store: store, hub: hub, rng: rng, opts: opts}
}

// Hub exposes the hub used for locking and notifications.
func (e *Engine) Hub() *Hub { return e.hub }

// txn is a mutation in progress. Events recorded through emit are persisted
// with the mutation and published once it commits.
type txn struct {
	Repository
	gameID int64
	log    *zap.SugaredLogger
	events []Event
}

func (t *txn) emit(kind EventKind, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ev := Event{GameID: t.gameID, Kind: kind, Payload: data}
	if err := t.RecordEvent(&ev); err != nil {
		return fmt.Errorf("record %s: %w", kind, err)
	}
	t.events = append(t.events, ev)
	return nil
}

// mutate runs fn under the game's exclusive lock in one transaction and
// publishes the recorded events after commit.
func (e *Engine) mutate(ctx context.Context, gameID int64, fn func(*txn) error) error {
	unlock := e.hub.Lock(gameID)
	defer unlock()
	var events []Event
	err := e.store.Atomic(ctx, gameID, func(r Repository) error {
		t := &txn{Repository: r, gameID: gameID, log: logging.With("game_id", gameID)}
		if err := fn(t); err != nil {
			return err
		}
		events = t.events
		return nil
	})
	if err != nil {
		return err
	}
	e.hub.Publish(gameID, events...)
	return nil
}

// view runs fn under the game's shared lock.
func (e *Engine) view(ctx context.Context, gameID int64, fn func(Repository) error) error {
	unlock := e.hub.RLock(gameID)
	defer unlock()
	return e.store.View(ctx, gameID, fn)
}

// tracker replays the move log of a game.
func tracker(r Repository, gameID int64) (*uno.TurnTracker, []uno.Seat, error) {
	seats, err := r.Seats(gameID)
	if err != nil {
		return nil, nil, err
	}
	moves, err := r.Moves(gameID)
	if err != nil {
		return nil, nil, err
	}
	tr, err := uno.NewTurnTracker(seats)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrInsufficientPlayers, err)
	}
	for _, m := range moves {
		tr.Apply(m)
	}
	return tr, seats, nil
}

// appendMove logs m and folds it into tr.
func appendMove(t *txn, tr *uno.TurnTracker, m uno.Move) error {
	m.GameID = t.gameID
	if err := t.CreateMove(&m); err != nil {
		return fmt.Errorf("append %s move: %w", m.PlayType, err)
	}
	tr.Apply(m)
	return nil
}

func (t *txn) emitHandCounts(seats []uno.Seat) error {
	counts, err := t.HandCounts(t.gameID)
	if err != nil {
		return err
	}
	out := make(HandCounts, len(seats))
	for _, s := range seats {
		out[s.UserID] = counts[s.UserID]
	}
	return t.emit(EventHandCountsChanged, out)
}

func (t *txn) emitTurn(tr *uno.TurnTracker) error {
	turn := tr.Turn()
	return t.emit(EventTurnChanged, TurnChanged{
		CurrentPlayerID: turn.CurrentPlayerID,
		Direction:       turn.Direction,
		Position:        turn.Position,
	})
}

// requireTurn checks the game is running and userID holds the turn.
func requireTurn(t *txn, userID int64) (uno.Game, *uno.TurnTracker, []uno.Seat, error) {
	g, err := t.Game(t.gameID)
	if err != nil {
		return uno.Game{}, nil, nil, err
	}
	if g.State != uno.StateInProgress {
		return g, nil, nil, fmt.Errorf("%w: %s", ErrInvalidState, ReasonNotInProgress)
	}
	tr, seats, err := tracker(t, t.gameID)
	if err != nil {
		return g, nil, nil, err
	}
	if tr.Turn().CurrentPlayerID != userID {
		return g, nil, nil, ErrNotYourTurn
	}
	return g, tr, seats, nil
}
