package game

import (
	"context"
	"time"

	"tinyuno/internal/uno"
)

// Store is the persistence collaborator of the engine.
type Store interface {
	// CreateGame inserts a lobby game with the host seated at position 1.
	CreateGame(ctx context.Context, hostID int64, capacity int) (uno.Game, error)
	// Atomic runs fn in one transaction holding an exclusive row lock on the
	// game. Nothing fn wrote is visible if it returns an error.
	Atomic(ctx context.Context, gameID int64, fn func(Repository) error) error
	// View runs fn while holding a shared lock on the game, so every read
	// inside fn sees the same committed state.
	View(ctx context.Context, gameID int64, fn func(Repository) error) error
}

// Repository is the transaction-scoped view of one game's records.
type Repository interface {
	Game(gameID int64) (uno.Game, error)
	UpdateGame(gameID int64, upd GameUpdate) error
	Seats(gameID int64) ([]uno.Seat, error)
	AddSeat(seat uno.Seat) error
	SetSeatPosition(gameID, userID int64, position int) error
	SetReady(gameID, userID int64, ready bool) error

	CreateDeck(gameID int64, deck []uno.DeckEntry) error
	CardCount(gameID int64) (int64, error)
	DrawCards(gameID, playerID int64, count int) ([]int64, error)
	PlayCard(cardID, gameID, playerID int64) (bool, error)
	FlipCard(gameID int64) (uno.Card, error)
	BuryCard(gameID, cardID int64) error
	Card(gameID, cardID int64) (uno.Card, bool, error)
	Hand(gameID, playerID int64) ([]uno.Card, error)
	HandCounts(gameID int64) (map[int64]int, error)
	TopCard(gameID int64) (uno.TopCard, bool, error)
	PoolCount(gameID int64) (int, error)
	DiscardCount(gameID int64) (int, error)
	RecycleDiscard(gameID int64, rng uno.RNG) (int, error)

	CreateMove(m *uno.Move) error
	Moves(gameID int64) ([]uno.Move, error)
	LastMove(gameID int64) (uno.Move, bool, error)

	RecordEvent(e *Event) error
	LastEventID(gameID int64) (int64, error)
	Events(gameID, afterID int64) ([]Event, error)
}

// GameUpdate represents a partial update to a game row.
type GameUpdate struct {
	State         *uno.State
	WinnerID      *int64
	StarterCardID *int64
	EndedAt       *time.Time
}
