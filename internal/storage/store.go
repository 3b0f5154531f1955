package storage

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"tinyuno/internal/game"
	"tinyuno/internal/uno"
)

// ErrNoDatabase is returned by the methods of a nil Store.
var ErrNoDatabase = errors.New("storage: no database")

// Store wraps a gorm DB instance and implements game.Store. A nil Store
// fails every call with ErrNoDatabase.
type Store struct {
	db *gorm.DB
}

var _ game.Store = (*Store)(nil)

// NewStore creates a new store helper from a gorm DB.
func NewStore(db *gorm.DB) *Store {
	if db == nil {
		return nil
	}
	return &Store{db: db}
}

// DB exposes the underlying gorm DB instance.
func (s *Store) DB() *gorm.DB {
	if s == nil {
		return nil
	}
	return s.db
}

// CreateGame inserts a lobby game and seats the host at position 1.
func (s *Store) CreateGame(ctx context.Context, hostID int64, capacity int) (uno.Game, error) {
	if s == nil {
		return uno.Game{}, ErrNoDatabase
	}
	row := Game{HostID: hostID, State: string(uno.StateLobby), Capacity: capacity}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		return tx.Create(&Seat{GameID: row.ID, UserID: hostID, Position: 1}).Error
	})
	if err != nil {
		return uno.Game{}, err
	}
	return row.toGame(), nil
}

// Row lock strengths taken on the game row. Writers exclude each other and
// readers; readers only exclude writers.
const (
	writeLock = "UPDATE"
	readLock  = "SHARE"
)

// Atomic locks the game row for update and runs fn in the same transaction.
func (s *Store) Atomic(ctx context.Context, gameID int64, fn func(game.Repository) error) error {
	if s == nil {
		return ErrNoDatabase
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGame(tx, gameID, writeLock).Error; err != nil {
			return notFound(err)
		}
		return fn(&repo{db: tx})
	})
}

// View runs fn in a transaction holding a shared lock on the game row, so no
// writer can commit while fn reads.
func (s *Store) View(ctx context.Context, gameID int64, fn func(game.Repository) error) error {
	if s == nil {
		return ErrNoDatabase
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockGame(tx, gameID, readLock).Error; err != nil {
			return notFound(err)
		}
		return fn(&repo{db: tx})
	})
}

// lockGame selects the game row with a row lock of the given strength.
func lockGame(tx *gorm.DB, gameID int64, strength string) *gorm.DB {
	var row Game
	return tx.Clauses(clause.Locking{Strength: strength}).Select("id").First(&row, gameID)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return game.ErrGameNotFound
	}
	return err
}

// repo implements game.Repository on top of an open transaction.
type repo struct {
	db *gorm.DB
}

func (r *repo) Game(gameID int64) (uno.Game, error) {
	var row Game
	if err := r.db.First(&row, gameID).Error; err != nil {
		return uno.Game{}, notFound(err)
	}
	return row.toGame(), nil
}

func (r *repo) UpdateGame(gameID int64, upd game.GameUpdate) error {
	updates := make(map[string]any)
	if upd.State != nil {
		updates["state"] = string(*upd.State)
	}
	if upd.WinnerID != nil {
		updates["winner_id"] = *upd.WinnerID
	}
	if upd.StarterCardID != nil {
		updates["starter_card_id"] = *upd.StarterCardID
	}
	if upd.EndedAt != nil {
		updates["ended_at"] = *upd.EndedAt
	}
	if len(updates) == 0 {
		return nil
	}
	return r.db.Model(&Game{}).Where("id = ?", gameID).Updates(updates).Error
}

func (r *repo) Seats(gameID int64) ([]uno.Seat, error) {
	var rows []Seat
	if err := r.db.Where("game_id = ?", gameID).Order("position, user_id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]uno.Seat, len(rows))
	for i, s := range rows {
		out[i] = uno.Seat{GameID: s.GameID, UserID: s.UserID, Position: s.Position, IsReady: s.IsReady}
	}
	return out, nil
}

func (r *repo) AddSeat(seat uno.Seat) error {
	res := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&Seat{
		GameID:   seat.GameID,
		UserID:   seat.UserID,
		Position: seat.Position,
		IsReady:  seat.IsReady,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return game.ErrAlreadySeated
	}
	return nil
}

func (r *repo) SetSeatPosition(gameID, userID int64, position int) error {
	return r.updateSeat(gameID, userID, map[string]any{"position": position})
}

func (r *repo) SetReady(gameID, userID int64, ready bool) error {
	return r.updateSeat(gameID, userID, map[string]any{"is_ready": ready})
}

func (r *repo) updateSeat(gameID, userID int64, updates map[string]any) error {
	res := r.db.Model(&Seat{}).Where("game_id = ? AND user_id = ?", gameID, userID).Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return game.ErrNotSeated
	}
	return nil
}

// CreateDeck inserts every card of deck into the pool of the game.
func (r *repo) CreateDeck(gameID int64, deck []uno.DeckEntry) error {
	n, err := r.CardCount(gameID)
	if err != nil {
		return err
	}
	if n > 0 {
		return game.ErrAlreadyDealt
	}
	rows := make([]Card, len(deck))
	for i, e := range deck {
		rows[i] = Card{
			GameID:       gameID,
			DefinitionID: e.Definition.ID(),
			OwnerID:      uno.PoolOwner,
			Location:     e.Location,
		}
	}
	return r.db.Omit(clause.Associations).CreateInBatches(&rows, 54).Error
}

func (r *repo) CardCount(gameID int64) (int64, error) {
	var n int64
	err := r.db.Model(&Card{}).Where("game_id = ?", gameID).Count(&n).Error
	return n, err
}

// DrawCards hands the count lowest draw-pile cards to playerID.
func (r *repo) DrawCards(gameID, playerID int64, count int) ([]int64, error) {
	if count <= 0 {
		return nil, nil
	}
	var ids []int64
	err := r.drawPile(gameID).
		Order("location").
		Limit(count).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) < count {
		return nil, fmt.Errorf("need %d, have %d: %w", count, len(ids), game.ErrInsufficientDrawPile)
	}
	err = r.db.Model(&Card{}).Where("id IN ?", ids).Update("owner_id", playerID).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// PlayCard moves cardID from playerID's hand to the discard pile. It reports
// false when the player does not hold the card.
func (r *repo) PlayCard(cardID, gameID, playerID int64) (bool, error) {
	if playerID == uno.PoolOwner {
		return false, nil
	}
	res := r.db.Model(&Card{}).
		Where("id = ? AND game_id = ? AND owner_id = ?", cardID, gameID, playerID).
		Updates(map[string]any{"owner_id": uno.PoolOwner, "location": uno.DiscardLocation})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// FlipCard turns the top of the draw pile onto the discard pile.
func (r *repo) FlipCard(gameID int64) (uno.Card, error) {
	var row Card
	if err := r.drawPile(gameID).Order("location").First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uno.Card{}, game.ErrInsufficientDrawPile
		}
		return uno.Card{}, err
	}
	err := r.db.Model(&Card{}).Where("id = ?", row.ID).Update("location", uno.DiscardLocation).Error
	if err != nil {
		return uno.Card{}, err
	}
	row.Location = uno.DiscardLocation
	return row.toCard(), nil
}

// BuryCard puts a discarded card at the bottom of the draw pile.
func (r *repo) BuryCard(gameID, cardID int64) error {
	bottom, err := r.maxPoolLocation(gameID)
	if err != nil {
		return err
	}
	res := r.db.Model(&Card{}).
		Where("id = ? AND game_id = ? AND owner_id = ? AND location = ?", cardID, gameID, uno.PoolOwner, uno.DiscardLocation).
		Update("location", bottom+1)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("card %d is not in the discard pile", cardID)
	}
	return nil
}

func (r *repo) Card(gameID, cardID int64) (uno.Card, bool, error) {
	var row Card
	err := r.db.Where("id = ? AND game_id = ?", cardID, gameID).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uno.Card{}, false, nil
	}
	if err != nil {
		return uno.Card{}, false, err
	}
	return row.toCard(), true, nil
}

func (r *repo) Hand(gameID, playerID int64) ([]uno.Card, error) {
	var rows []Card
	err := r.db.Where("game_id = ? AND owner_id = ?", gameID, playerID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]uno.Card, len(rows))
	for i, c := range rows {
		out[i] = c.toCard()
	}
	return out, nil
}

func (r *repo) HandCounts(gameID int64) (map[int64]int, error) {
	var rows []struct {
		OwnerID int64
		N       int
	}
	err := r.db.Model(&Card{}).
		Select("owner_id, count(*) AS n").
		Where("game_id = ? AND owner_id <> ?", gameID, uno.PoolOwner).
		Group("owner_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[int64]int, len(rows))
	for _, row := range rows {
		out[row.OwnerID] = row.N
	}
	return out, nil
}

// TopCard returns the active discard: the card of the latest move that
// carried one, else the starter. The effective color is the chosen color of
// that move when present.
func (r *repo) TopCard(gameID int64) (uno.TopCard, bool, error) {
	var mv Move
	err := r.db.Where("game_id = ? AND card_id IS NOT NULL", gameID).Order("id DESC").First(&mv).Error
	var cardID int64
	var chosen *string
	switch {
	case err == nil:
		cardID = *mv.CardID
		chosen = mv.ChosenColor
	case errors.Is(err, gorm.ErrRecordNotFound):
		g, err := r.Game(gameID)
		if err != nil {
			return uno.TopCard{}, false, err
		}
		if g.StarterCardID == nil {
			return uno.TopCard{}, false, nil
		}
		cardID = *g.StarterCardID
	default:
		return uno.TopCard{}, false, err
	}
	c, ok, err := r.Card(gameID, cardID)
	if err != nil || !ok {
		return uno.TopCard{}, false, err
	}
	top := uno.TopCard{Card: c, EffectiveColor: c.Color}
	if chosen != nil {
		top.EffectiveColor = uno.Color(*chosen)
	}
	return top, true, nil
}

func (r *repo) PoolCount(gameID int64) (int, error) {
	var n int64
	err := r.drawPile(gameID).Count(&n).Error
	return int(n), err
}

func (r *repo) DiscardCount(gameID int64) (int, error) {
	var n int64
	err := r.db.Model(&Card{}).
		Where("game_id = ? AND owner_id = ? AND location = ?", gameID, uno.PoolOwner, uno.DiscardLocation).
		Count(&n).Error
	return int(n), err
}

// RecycleDiscard shuffles every discard except the top card back under the
// draw pile and returns how many cards moved.
func (r *repo) RecycleDiscard(gameID int64, rng uno.RNG) (int, error) {
	top, ok, err := r.TopCard(gameID)
	if err != nil {
		return 0, err
	}
	q := r.db.Model(&Card{}).
		Where("game_id = ? AND owner_id = ? AND location = ?", gameID, uno.PoolOwner, uno.DiscardLocation)
	if ok {
		q = q.Where("id <> ?", top.ID)
	}
	var ids []int64
	if err := q.Order("id").Pluck("id", &ids).Error; err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, game.ErrNothingToRecycle
	}
	bottom, err := r.maxPoolLocation(gameID)
	if err != nil {
		return 0, err
	}
	uno.Shuffle(rng, ids)
	for i, id := range ids {
		if err := r.db.Model(&Card{}).Where("id = ?", id).Update("location", bottom+i+1).Error; err != nil {
			return 0, err
		}
	}
	return len(ids), nil
}

func (r *repo) drawPile(gameID int64) *gorm.DB {
	return r.db.Model(&Card{}).Where("game_id = ? AND owner_id = ? AND location > 0", gameID, uno.PoolOwner)
}

func (r *repo) maxPoolLocation(gameID int64) (int, error) {
	var loc int
	err := r.drawPile(gameID).Select("COALESCE(MAX(location), 0)").Scan(&loc).Error
	return loc, err
}

func (r *repo) CreateMove(m *uno.Move) error {
	row := Move{
		GameID:     m.GameID,
		UserID:     m.UserID,
		PlayType:   string(m.PlayType),
		CardID:     m.CardID,
		DrawAmount: m.DrawAmount,
		Reverse:    m.Reverse,
	}
	if m.ChosenColor != nil {
		c := string(*m.ChosenColor)
		row.ChosenColor = &c
	}
	if err := r.db.Create(&row).Error; err != nil {
		return err
	}
	m.ID = row.ID
	m.CreatedAt = row.CreatedAt
	return nil
}

func (r *repo) Moves(gameID int64) ([]uno.Move, error) {
	var rows []Move
	if err := r.db.Where("game_id = ?", gameID).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]uno.Move, len(rows))
	for i, m := range rows {
		out[i] = m.toMove()
	}
	return out, nil
}

func (r *repo) LastMove(gameID int64) (uno.Move, bool, error) {
	var row Move
	err := r.db.Where("game_id = ?", gameID).Order("id DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return uno.Move{}, false, nil
	}
	if err != nil {
		return uno.Move{}, false, err
	}
	return row.toMove(), true, nil
}

func (r *repo) RecordEvent(e *game.Event) error {
	row := Event{GameID: e.GameID, Kind: string(e.Kind), Payload: datatypes.JSON(e.Payload)}
	if err := r.db.Create(&row).Error; err != nil {
		return err
	}
	e.ID = row.ID
	return nil
}

// LastEventID returns the id of the newest event of a game, zero if none.
func (r *repo) LastEventID(gameID int64) (int64, error) {
	var ids []int64
	err := r.db.Model(&Event{}).Where("game_id = ?", gameID).Order("id DESC").Limit(1).Pluck("id", &ids).Error
	if err != nil || len(ids) == 0 {
		return 0, err
	}
	return ids[0], nil
}

func (r *repo) Events(gameID, afterID int64) ([]game.Event, error) {
	var rows []Event
	err := r.db.Where("game_id = ? AND id > ?", gameID, afterID).Order("id").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]game.Event, len(rows))
	for i, e := range rows {
		out[i] = game.Event{ID: e.ID, GameID: e.GameID, Kind: game.EventKind(e.Kind), Payload: []byte(e.Payload)}
	}
	return out, nil
}

func (g Game) toGame() uno.Game {
	return uno.Game{
		ID:            g.ID,
		HostID:        g.HostID,
		State:         uno.State(g.State),
		Capacity:      g.Capacity,
		CreatedAt:     g.CreatedAt,
		WinnerID:      g.WinnerID,
		StarterCardID: g.StarterCardID,
		EndedAt:       g.EndedAt,
	}
}

func (c Card) toCard() uno.Card {
	def, _ := uno.DefinitionByID(c.DefinitionID)
	return uno.Card{ID: c.ID, GameID: c.GameID, Definition: def, OwnerID: c.OwnerID, Location: c.Location}
}

func (m Move) toMove() uno.Move {
	out := uno.Move{
		ID:         m.ID,
		GameID:     m.GameID,
		UserID:     m.UserID,
		PlayType:   uno.PlayType(m.PlayType),
		CardID:     m.CardID,
		DrawAmount: m.DrawAmount,
		Reverse:    m.Reverse,
		CreatedAt:  m.CreatedAt,
	}
	if m.ChosenColor != nil {
		c := uno.Color(*m.ChosenColor)
		out.ChosenColor = &c
	}
	return out
}
