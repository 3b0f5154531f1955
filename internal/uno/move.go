package uno

import "time"

// PlayType tags a move log entry.
type PlayType string

const (
	PlayTypePlay    PlayType = "play"
	PlayTypeDraw    PlayType = "draw"
	PlayTypeSkip    PlayType = "skip"
	PlayTypeReverse PlayType = "reverse"
)

// Move is one immutable entry of a game's move log. ID order is the replay order.
type Move struct {
	ID          int64     `json:"id"`
	GameID      int64     `json:"gameId"`
	UserID      int64     `json:"userId"`
	PlayType    PlayType  `json:"playType"`
	CardID      *int64    `json:"cardId,omitempty"`
	DrawAmount  *int      `json:"drawAmount,omitempty"`
	ChosenColor *Color    `json:"chosenColor,omitempty"`
	Reverse     bool      `json:"reverse"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AdvancesTurn reports whether the move hands the turn to another seat.
// Forced penalty draws carry a draw amount and do not count; an end-of-turn
// draw has none.
func (m Move) AdvancesTurn() bool {
	switch {
	case m.CardID != nil:
		return true
	case m.PlayType == PlayTypeSkip:
		return true
	case m.PlayType == PlayTypeDraw && m.DrawAmount == nil:
		return true
	}
	return false
}

// State is the lifecycle stage of a game.
type State string

const (
	StateLobby      State = "lobby"
	StateInProgress State = "in_progress"
	StateEnded      State = "ended"
)

// Game is the logical game record.
type Game struct {
	ID            int64      `json:"id"`
	HostID        int64      `json:"hostId"`
	State         State      `json:"state"`
	Capacity      int        `json:"capacity"`
	CreatedAt     time.Time  `json:"createdAt"`
	WinnerID      *int64     `json:"winnerId,omitempty"`
	StarterCardID *int64     `json:"starterCardId,omitempty"`
	EndedAt       *time.Time `json:"endedAt,omitempty"`
}

// Seat is a player's fixed slot in the turn order of one game.
type Seat struct {
	GameID   int64 `json:"gameId"`
	UserID   int64 `json:"userId"`
	Position int   `json:"position"`
	IsReady  bool  `json:"isReady"`
}
