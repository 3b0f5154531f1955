package storage_test

import (
	"context"
	"errors"
	"testing"

	"tinyuno/internal/game"
	"tinyuno/internal/storage"
	"tinyuno/internal/storage/storagetest"
	"tinyuno/internal/uno"
)

func ptr[T any](v T) *T { return &v }

// newDealtGame creates a game with a full deck in the pool.
func newDealtGame(t *testing.T) (*storage.Store, int64) {
	t.Helper()
	s := storagetest.Open(t)
	g, err := s.CreateGame(context.Background(), 1, 4)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	err = s.Atomic(context.Background(), g.ID, func(r game.Repository) error {
		return r.CreateDeck(g.ID, uno.BuildDeck(uno.NewRNG(7)))
	})
	if err != nil {
		t.Fatalf("create deck: %v", err)
	}
	return s, g.ID
}

func atomic(t *testing.T, s *storage.Store, gameID int64, fn func(r game.Repository)) {
	t.Helper()
	err := s.Atomic(context.Background(), gameID, func(r game.Repository) error {
		fn(r)
		return nil
	})
	if err != nil {
		t.Fatalf("atomic: %v", err)
	}
}

func TestMigrateSeedsCatalogOnce(t *testing.T) {
	s := storagetest.Open(t)
	if err := storage.Migrate(s.DB()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
	var n int64
	if err := s.DB().Model(&storage.CardDefinition{}).Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 54 {
		t.Fatalf("expected 54 definitions, got %d", n)
	}
}

func TestCreateGameSeatsHost(t *testing.T) {
	s := storagetest.Open(t)
	g, err := s.CreateGame(context.Background(), 9, 3)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	if g.State != uno.StateLobby || g.HostID != 9 || g.Capacity != 3 {
		t.Fatalf("unexpected game %+v", g)
	}
	atomic(t, s, g.ID, func(r game.Repository) {
		seats, err := r.Seats(g.ID)
		if err != nil {
			t.Fatalf("seats: %v", err)
		}
		if len(seats) != 1 || seats[0].UserID != 9 || seats[0].Position != 1 {
			t.Fatalf("unexpected seats %+v", seats)
		}
		if err := r.AddSeat(uno.Seat{GameID: g.ID, UserID: 9, Position: 2}); !errors.Is(err, game.ErrAlreadySeated) {
			t.Fatalf("expected ErrAlreadySeated, got %v", err)
		}
		if err := r.SetReady(g.ID, 42, true); !errors.Is(err, game.ErrNotSeated) {
			t.Fatalf("expected ErrNotSeated, got %v", err)
		}
	})
}

func TestAtomicUnknownGame(t *testing.T) {
	s := storagetest.Open(t)
	err := s.Atomic(context.Background(), 404, func(game.Repository) error { return nil })
	if !errors.Is(err, game.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}
	err = s.View(context.Background(), 404, func(game.Repository) error { return nil })
	if !errors.Is(err, game.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound from View, got %v", err)
	}
}

func TestAtomicRollsBack(t *testing.T) {
	s := storagetest.Open(t)
	g, _ := s.CreateGame(context.Background(), 1, 4)
	boom := errors.New("boom")
	err := s.Atomic(context.Background(), g.ID, func(r game.Repository) error {
		if err := r.CreateDeck(g.ID, uno.BuildDeck(uno.NewRNG(1))); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	atomic(t, s, g.ID, func(r game.Repository) {
		if n, _ := r.CardCount(g.ID); n != 0 {
			t.Fatalf("expected rollback, found %d cards", n)
		}
	})
}

func TestCreateDeckOnce(t *testing.T) {
	s, id := newDealtGame(t)
	atomic(t, s, id, func(r game.Repository) {
		if n, _ := r.CardCount(id); n != uno.DeckSize {
			t.Fatalf("expected %d cards, got %d", uno.DeckSize, n)
		}
		if n, _ := r.PoolCount(id); n != uno.DeckSize {
			t.Fatalf("expected full pool, got %d", n)
		}
		if err := r.CreateDeck(id, uno.BuildDeck(uno.NewRNG(1))); !errors.Is(err, game.ErrAlreadyDealt) {
			t.Fatalf("expected ErrAlreadyDealt, got %v", err)
		}
	})
}

func TestDrawCardsTakesLowestLocations(t *testing.T) {
	s, id := newDealtGame(t)
	var want []int64
	s.DB().Model(&storage.Card{}).Where("game_id = ?", id).Order("location").Limit(3).Pluck("id", &want)
	atomic(t, s, id, func(r game.Repository) {
		got, err := r.DrawCards(id, 5, 3)
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		if len(got) != 3 {
			t.Fatalf("expected 3 cards, got %v", got)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Fatalf("drew %v, want %v", got, want)
			}
		}
		hand, _ := r.Hand(id, 5)
		if len(hand) != 3 {
			t.Fatalf("expected hand of 3, got %d", len(hand))
		}
		counts, _ := r.HandCounts(id)
		if counts[5] != 3 || len(counts) != 1 {
			t.Fatalf("unexpected hand counts %v", counts)
		}
		if n, _ := r.PoolCount(id); n != uno.DeckSize-3 {
			t.Fatalf("expected pool of %d, got %d", uno.DeckSize-3, n)
		}
	})
}

func TestDrawCardsInsufficient(t *testing.T) {
	s, id := newDealtGame(t)
	atomic(t, s, id, func(r game.Repository) {
		_, err := r.DrawCards(id, 5, uno.DeckSize+1)
		if !errors.Is(err, game.ErrInsufficientDrawPile) {
			t.Fatalf("expected ErrInsufficientDrawPile, got %v", err)
		}
		if n, _ := r.PoolCount(id); n != uno.DeckSize {
			t.Fatalf("pool changed to %d", n)
		}
	})
}

func TestPlayCardRequiresOwnership(t *testing.T) {
	s, id := newDealtGame(t)
	atomic(t, s, id, func(r game.Repository) {
		ids, _ := r.DrawCards(id, 5, 1)
		if ok, _ := r.PlayCard(ids[0], id, 6); ok {
			t.Fatalf("played a card owned by someone else")
		}
		if ok, _ := r.PlayCard(ids[0], id, uno.PoolOwner); ok {
			t.Fatalf("pool played a card")
		}
		ok, err := r.PlayCard(ids[0], id, 5)
		if err != nil || !ok {
			t.Fatalf("play: %v %v", ok, err)
		}
		c, found, _ := r.Card(id, ids[0])
		if !found || !c.InDiscardPile() {
			t.Fatalf("expected card in discard, got %+v", c)
		}
		if ok, _ := r.PlayCard(ids[0], id, 5); ok {
			t.Fatalf("played the same card twice")
		}
	})
}

func TestTopCardFollowsMoves(t *testing.T) {
	s, id := newDealtGame(t)
	atomic(t, s, id, func(r game.Repository) {
		if _, ok, _ := r.TopCard(id); ok {
			t.Fatalf("expected no top card before the starter")
		}
		starter, err := r.FlipCard(id)
		if err != nil {
			t.Fatalf("flip: %v", err)
		}
		if err := r.UpdateGame(id, game.GameUpdate{StarterCardID: &starter.ID}); err != nil {
			t.Fatalf("update: %v", err)
		}
		top, ok, _ := r.TopCard(id)
		if !ok || top.ID != starter.ID || top.EffectiveColor != starter.Color {
			t.Fatalf("expected starter on top, got %+v", top)
		}

		ids, _ := r.DrawCards(id, 5, 1)
		r.PlayCard(ids[0], id, 5)
		mv := uno.Move{GameID: id, UserID: 5, PlayType: uno.PlayTypePlay, CardID: &ids[0], ChosenColor: ptr(uno.ColorBlue)}
		if err := r.CreateMove(&mv); err != nil {
			t.Fatalf("create move: %v", err)
		}
		top, _, _ = r.TopCard(id)
		if top.ID != ids[0] || top.EffectiveColor != uno.ColorBlue {
			t.Fatalf("expected played card with chosen color, got %+v", top)
		}
		if n, _ := r.DiscardCount(id); n != 2 {
			t.Fatalf("expected 2 discards, got %d", n)
		}
	})
}

func TestBuryCard(t *testing.T) {
	s, id := newDealtGame(t)
	atomic(t, s, id, func(r game.Repository) {
		c, _ := r.FlipCard(id)
		if err := r.BuryCard(id, c.ID); err != nil {
			t.Fatalf("bury: %v", err)
		}
		got, _, _ := r.Card(id, c.ID)
		if got.Location != uno.DeckSize+1 {
			t.Fatalf("expected card at the bottom, got location %d", got.Location)
		}
		if err := r.BuryCard(id, c.ID); err == nil {
			t.Fatalf("expected burying a draw pile card to fail")
		}
	})
}

func TestRecycleDiscardKeepsTop(t *testing.T) {
	s, id := newDealtGame(t)
	atomic(t, s, id, func(r game.Repository) {
		if _, err := r.RecycleDiscard(id, uno.NewRNG(1)); !errors.Is(err, game.ErrNothingToRecycle) {
			t.Fatalf("expected ErrNothingToRecycle on empty discard, got %v", err)
		}
		ids, _ := r.DrawCards(id, 5, 4)
		var last int64
		for _, c := range ids {
			r.PlayCard(c, id, 5)
			cid := c
			mv := uno.Move{GameID: id, UserID: 5, PlayType: uno.PlayTypePlay, CardID: &cid}
			r.CreateMove(&mv)
			last = c
		}
		poolBefore, _ := r.PoolCount(id)
		n, err := r.RecycleDiscard(id, uno.NewRNG(1))
		if err != nil {
			t.Fatalf("recycle: %v", err)
		}
		if n != 3 {
			t.Fatalf("expected 3 recycled cards, got %d", n)
		}
		if pool, _ := r.PoolCount(id); pool != poolBefore+3 {
			t.Fatalf("expected pool %d, got %d", poolBefore+3, pool)
		}
		top, _, _ := r.TopCard(id)
		if top.ID != last || !top.InDiscardPile() {
			t.Fatalf("top card moved: %+v", top)
		}
		for _, c := range ids[:3] {
			card, _, _ := r.Card(id, c)
			if card.Location <= uno.DeckSize {
				t.Fatalf("recycled card %d at %d, want after the old bottom", c, card.Location)
			}
		}
		if _, err := r.RecycleDiscard(id, uno.NewRNG(1)); !errors.Is(err, game.ErrNothingToRecycle) {
			t.Fatalf("expected ErrNothingToRecycle with only the top card, got %v", err)
		}
		if total, _ := r.CardCount(id); total != uno.DeckSize {
			t.Fatalf("card count changed to %d", total)
		}
	})
}

func TestMovesAreOrdered(t *testing.T) {
	s, id := newDealtGame(t)
	atomic(t, s, id, func(r game.Repository) {
		if _, ok, _ := r.LastMove(id); ok {
			t.Fatalf("expected empty log")
		}
		moves := []uno.Move{
			{GameID: id, UserID: 1, PlayType: uno.PlayTypeDraw, DrawAmount: ptr(2)},
			{GameID: id, UserID: 1, PlayType: uno.PlayTypeSkip},
			{GameID: id, UserID: 2, PlayType: uno.PlayTypeReverse, CardID: ptr(int64(3)), Reverse: true},
		}
		for i := range moves {
			if err := r.CreateMove(&moves[i]); err != nil {
				t.Fatalf("create move: %v", err)
			}
		}
		got, _ := r.Moves(id)
		if len(got) != 3 {
			t.Fatalf("expected 3 moves, got %d", len(got))
		}
		for i := 1; i < len(got); i++ {
			if got[i].ID <= got[i-1].ID {
				t.Fatalf("ids not increasing: %v", got)
			}
		}
		if *got[0].DrawAmount != 2 || got[1].PlayType != uno.PlayTypeSkip || !got[2].Reverse {
			t.Fatalf("moves not stored faithfully: %+v", got)
		}
		last, ok, _ := r.LastMove(id)
		if !ok || last.ID != moves[2].ID {
			t.Fatalf("unexpected last move %+v", last)
		}
	})
}

func TestEventsAfter(t *testing.T) {
	s, id := newDealtGame(t)
	atomic(t, s, id, func(r game.Repository) {
		for _, kind := range []game.EventKind{game.EventCardPlayed, game.EventSkip, game.EventTurnChanged} {
			e := game.Event{GameID: id, Kind: kind, Payload: []byte(`{"x":1}`)}
			if err := r.RecordEvent(&e); err != nil {
				t.Fatalf("record: %v", err)
			}
		}
		all, _ := r.Events(id, 0)
		if len(all) != 3 {
			t.Fatalf("expected 3 events, got %d", len(all))
		}
		tail, _ := r.Events(id, all[0].ID)
		if len(tail) != 2 || tail[0].Kind != game.EventSkip || string(tail[1].Payload) != `{"x":1}` {
			t.Fatalf("unexpected tail %+v", tail)
		}
	})
}

func TestLastEventID(t *testing.T) {
	s, id := newDealtGame(t)
	other, err := s.CreateGame(context.Background(), 2, 4)
	if err != nil {
		t.Fatalf("create game: %v", err)
	}
	atomic(t, s, id, func(r game.Repository) {
		if last, err := r.LastEventID(id); err != nil || last != 0 {
			t.Fatalf("LastEventID() = %d, %v, want 0", last, err)
		}
		var want int64
		for _, kind := range []game.EventKind{game.EventCardPlayed, game.EventTurnChanged} {
			e := game.Event{GameID: id, Kind: kind, Payload: []byte(`{}`)}
			if err := r.RecordEvent(&e); err != nil {
				t.Fatalf("record: %v", err)
			}
			want = e.ID
		}
		e := game.Event{GameID: other.ID, Kind: game.EventSkip, Payload: []byte(`{}`)}
		if err := r.RecordEvent(&e); err != nil {
			t.Fatalf("record: %v", err)
		}
		if last, err := r.LastEventID(id); err != nil || last != want {
			t.Fatalf("LastEventID() = %d, %v, want %d", last, err, want)
		}
	})
}

func TestNilStore(t *testing.T) {
	s := storage.NewStore(nil)
	if s.DB() != nil {
		t.Fatalf("expected no database")
	}
	noop := func(game.Repository) error { return nil }
	if _, err := s.CreateGame(context.Background(), 1, 4); !errors.Is(err, storage.ErrNoDatabase) {
		t.Fatalf("CreateGame() error = %v, want ErrNoDatabase", err)
	}
	if err := s.Atomic(context.Background(), 1, noop); !errors.Is(err, storage.ErrNoDatabase) {
		t.Fatalf("Atomic() error = %v, want ErrNoDatabase", err)
	}
	if err := s.View(context.Background(), 1, noop); !errors.Is(err, storage.ErrNoDatabase) {
		t.Fatalf("View() error = %v, want ErrNoDatabase", err)
	}
}
