package uno

import (
	"errors"
	"sort"
)

const (
	Clockwise        = 1
	CounterClockwise = -1
)

// ErrNoSeats is returned when a turn is resolved for a game without seats.
var ErrNoSeats = errors.New("no seats in game")

// Turn is the resolved turn state of a game.
type Turn struct {
	CurrentPlayerID int64 `json:"currentPlayerId"`
	Position        int   `json:"position"`
	Direction       int   `json:"direction"`
}

// TurnTracker folds moves into turn state one at a time. Applying the moves
// of a log in id order yields exactly what ResolveTurn computes for that log,
// so a tracker may be kept as an incremental cache.
type TurnTracker struct {
	seats     []Seat
	index     int
	direction int
	lastID    int64
}

// NewTurnTracker starts at the lowest seat position, moving clockwise.
func NewTurnTracker(seats []Seat) (*TurnTracker, error) {
	if len(seats) == 0 {
		return nil, ErrNoSeats
	}
	sorted := make([]Seat, len(seats))
	copy(sorted, seats)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Position < sorted[j].Position })
	return &TurnTracker{seats: sorted, direction: Clockwise}, nil
}

// Apply folds m into the tracker. Moves with an id at or below the last
// applied id are ignored.
func (t *TurnTracker) Apply(m Move) {
	if m.ID != 0 {
		if m.ID <= t.lastID {
			return
		}
		t.lastID = m.ID
	}
	if !m.AdvancesTurn() {
		return
	}
	if m.PlayType == PlayTypeReverse {
		t.direction = -t.direction
	}
	t.index = t.step(t.index, t.direction)
}

// LastMoveID is the id of the most recent move folded in.
func (t *TurnTracker) LastMoveID() int64 { return t.lastID }

// Turn returns the current turn state.
func (t *TurnTracker) Turn() Turn {
	s := t.seats[t.index]
	return Turn{CurrentPlayerID: s.UserID, Position: s.Position, Direction: t.direction}
}

// Next returns the seat that would play after the current one if the
// current player ended their turn without effects.
func (t *TurnTracker) Next() Seat {
	return t.seats[t.step(t.index, t.direction)]
}

func (t *TurnTracker) step(index, direction int) int {
	n := len(t.seats)
	return ((index+direction)%n + n) % n
}

// ResolveTurn replays the full move log against the seats.
func ResolveTurn(seats []Seat, moves []Move) (Turn, error) {
	t, err := NewTurnTracker(seats)
	if err != nil {
		return Turn{}, err
	}
	for _, m := range moves {
		t.Apply(m)
	}
	return t.Turn(), nil
}
