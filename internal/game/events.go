package game

import (
	"encoding/json"

	"tinyuno/internal/uno"
)

// EventKind names a notification produced by a committed mutation.
type EventKind string

const (
	EventPlayerJoined      EventKind = "player_joined"
	EventPlayerReady       EventKind = "player_ready"
	EventGameStarted       EventKind = "game_started"
	EventTurnChanged       EventKind = "turn_changed"
	EventCardPlayed        EventKind = "card_played"
	EventCardsDrawn        EventKind = "cards_drawn"
	EventSkip              EventKind = "skip"
	EventReverse           EventKind = "reverse"
	EventColorChosen       EventKind = "color_chosen"
	EventHandCountsChanged EventKind = "hand_counts_changed"
	EventGameEnded         EventKind = "game_ended"
)

// Event is a persisted notification. Payload holds one of the payload types
// below, JSON encoded.
type Event struct {
	ID      int64           `json:"id"`
	GameID  int64           `json:"gameId"`
	Kind    EventKind       `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

type PlayerJoined struct {
	UserID   int64 `json:"userId"`
	Position int   `json:"position"`
}

type PlayerReady struct {
	UserID int64 `json:"userId"`
	Ready  bool  `json:"ready"`
}

type GameStarted struct {
	FirstPlayerID int64    `json:"firstPlayerId"`
	StarterCard   uno.Card `json:"starterCard"`
	Order         []int64  `json:"order"`
}

type TurnChanged struct {
	CurrentPlayerID int64 `json:"currentPlayerId"`
	Direction       int   `json:"direction"`
	Position        int   `json:"position"`
}

type CardPlayed struct {
	UserID int64    `json:"userId"`
	Card   uno.Card `json:"card"`
}

type CardsDrawn struct {
	UserID int64 `json:"userId"`
	Count  int   `json:"count"`
}

type Skipped struct {
	SkippedPlayerID int64 `json:"skippedPlayerId"`
}

type Reversed struct {
	NewDirection int `json:"newDirection"`
}

type ColorChosen struct {
	UserID      int64     `json:"userId"`
	ChosenColor uno.Color `json:"chosenColor"`
}

// HandCounts maps user id to the number of cards held.
type HandCounts map[int64]int

type GameEnded struct {
	WinnerID *int64 `json:"winnerId"`
}
