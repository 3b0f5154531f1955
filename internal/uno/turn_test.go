package uno

import (
	"errors"
	"testing"
)

func seats(ids ...int64) []Seat {
	out := make([]Seat, len(ids))
	for i, id := range ids {
		out[i] = Seat{GameID: 1, UserID: id, Position: i + 1}
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// log assigns sequential ids to the given moves.
func log(moves ...Move) []Move {
	for i := range moves {
		moves[i].ID = int64(i + 1)
		moves[i].GameID = 1
	}
	return moves
}

func play(user, card int64) Move {
	return Move{UserID: user, PlayType: PlayTypePlay, CardID: ptr(card)}
}

func reverse(user, card int64) Move {
	return Move{UserID: user, PlayType: PlayTypeReverse, CardID: ptr(card), Reverse: true}
}

func skip(user int64) Move { return Move{UserID: user, PlayType: PlayTypeSkip} }

func endTurn(user int64) Move { return Move{UserID: user, PlayType: PlayTypeDraw} }

func forcedDraw(user int64, n int) Move {
	return Move{UserID: user, PlayType: PlayTypeDraw, DrawAmount: ptr(n)}
}

func TestAdvancesTurn(t *testing.T) {
	tests := []struct {
		name string
		move Move
		want bool
	}{
		{"play", play(1, 5), true},
		{"reverse", reverse(1, 5), true},
		{"skip", skip(2), true},
		{"end turn draw", endTurn(1), true},
		{"voluntary draw", forcedDraw(1, 1), false},
		{"penalty draw", forcedDraw(2, 4), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.move.AdvancesTurn(); got != tt.want {
				t.Fatalf("AdvancesTurn = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestResolveTurn(t *testing.T) {
	tests := []struct {
		name      string
		seats     []Seat
		moves     []Move
		player    int64
		direction int
	}{
		{"empty log", seats(10, 20, 30), nil, 10, Clockwise},
		{"single play", seats(10, 20, 30), log(play(10, 1)), 20, Clockwise},
		{"wraps around", seats(10, 20, 30), log(play(10, 1), play(20, 2), play(30, 3)), 10, Clockwise},
		{"forced draw does not count", seats(10, 20, 30), log(play(10, 1), forcedDraw(20, 2)), 20, Clockwise},
		{"end turn counts", seats(10, 20, 30), log(forcedDraw(10, 1), endTurn(10)), 20, Clockwise},
		{"draw two then skip", seats(10, 20, 30), log(play(10, 1), forcedDraw(20, 2), skip(20)), 30, Clockwise},
		{"reverse three seats", seats(10, 20, 30), log(reverse(10, 1)), 30, CounterClockwise},
		{"reverse then play", seats(10, 20, 30), log(reverse(10, 1), play(30, 2)), 20, CounterClockwise},
		{"double reverse", seats(10, 20, 30, 40), log(reverse(10, 1), reverse(40, 2)), 10, Clockwise},
		{"reverse two seats", seats(10, 20), log(reverse(10, 1)), 20, CounterClockwise},
		{"reverse two seats with skip", seats(10, 20), log(reverse(10, 1), skip(20)), 10, CounterClockwise},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn, err := ResolveTurn(tt.seats, tt.moves)
			if err != nil {
				t.Fatalf("ResolveTurn: %v", err)
			}
			if turn.CurrentPlayerID != tt.player || turn.Direction != tt.direction {
				t.Fatalf("got player %d direction %d, want %d %d", turn.CurrentPlayerID, turn.Direction, tt.player, tt.direction)
			}
		})
	}
}

func TestResolveTurnSortsSeatsByPosition(t *testing.T) {
	s := []Seat{{UserID: 30, Position: 3}, {UserID: 10, Position: 1}, {UserID: 20, Position: 2}}
	turn, err := ResolveTurn(s, log(play(10, 1)))
	if err != nil {
		t.Fatalf("ResolveTurn: %v", err)
	}
	if turn.CurrentPlayerID != 20 || turn.Position != 2 {
		t.Fatalf("expected player 20 at position 2, got %+v", turn)
	}
}

func TestResolveTurnNoSeats(t *testing.T) {
	if _, err := ResolveTurn(nil, nil); !errors.Is(err, ErrNoSeats) {
		t.Fatalf("expected ErrNoSeats, got %v", err)
	}
}

// A skip lands two seats past the player of the triggering card, in the
// direction that was active before it.
func TestSkipAdvancesTwoSeats(t *testing.T) {
	s := seats(1, 2, 3, 4, 5)
	for start := 0; start < len(s); start++ {
		var prefix []Move
		// bring the turn to seat index start
		for i := 0; i < start; i++ {
			prefix = append(prefix, play(s[i].UserID, int64(i+1)))
		}
		before, _ := ResolveTurn(s, log(prefix...))
		actor := before.CurrentPlayerID
		skipped := s[(start+1)%len(s)].UserID
		moves := log(append(prefix, play(actor, 99), skip(skipped))...)
		after, _ := ResolveTurn(s, moves)
		want := s[(start+2)%len(s)].UserID
		if after.CurrentPlayerID != want || after.Direction != before.Direction {
			t.Fatalf("start %d: got %+v, want player %d", start, after, want)
		}
	}
}

func TestResolveTurnDeterministic(t *testing.T) {
	s := seats(1, 2, 3)
	moves := log(play(1, 1), reverse(2, 2), forcedDraw(1, 2), skip(1), endTurn(3), play(2, 3))
	first, _ := ResolveTurn(s, moves)
	for i := 0; i < 50; i++ {
		again, _ := ResolveTurn(s, moves)
		if again != first {
			t.Fatalf("replay %d diverged: %+v vs %+v", i, again, first)
		}
	}
}

func TestTrackerMatchesReplay(t *testing.T) {
	s := seats(1, 2, 3, 4)
	moves := log(
		play(1, 1), reverse(2, 2), play(1, 3), forcedDraw(4, 4), skip(4),
		endTurn(3), reverse(2, 5), skip(3), play(4, 6), forcedDraw(1, 1), endTurn(1),
	)
	tr, err := NewTurnTracker(s)
	if err != nil {
		t.Fatalf("NewTurnTracker: %v", err)
	}
	for i := range moves {
		tr.Apply(moves[i])
		want, _ := ResolveTurn(s, moves[:i+1])
		if tr.Turn() != want {
			t.Fatalf("prefix %d: tracker %+v, replay %+v", i+1, tr.Turn(), want)
		}
	}
	if tr.LastMoveID() != moves[len(moves)-1].ID {
		t.Fatalf("unexpected last move id %d", tr.LastMoveID())
	}
}

func TestTrackerIgnoresReplayedMoves(t *testing.T) {
	s := seats(1, 2, 3)
	moves := log(play(1, 1), play(2, 2))
	tr, _ := NewTurnTracker(s)
	for _, m := range moves {
		tr.Apply(m)
	}
	tr.Apply(moves[0])
	tr.Apply(moves[1])
	if tr.Turn().CurrentPlayerID != 3 {
		t.Fatalf("expected player 3, got %+v", tr.Turn())
	}
	if tr.Next().UserID != 1 {
		t.Fatalf("expected next seat 1, got %+v", tr.Next())
	}
}
