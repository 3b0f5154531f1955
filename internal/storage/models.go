package storage

import (
	"time"

	"gorm.io/datatypes"
)

// Game represents an Uno game.
type Game struct {
	ID            int64  `gorm:"primaryKey"`
	HostID        int64  `gorm:"index"`
	State         string `gorm:"type:varchar(16);index"`
	Capacity      int
	WinnerID      *int64
	StarterCardID *int64
	EndedAt       *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	Seats         []Seat  `gorm:"constraint:OnDelete:CASCADE;"`
	Cards         []Card  `gorm:"constraint:OnDelete:CASCADE;"`
	Moves         []Move  `gorm:"constraint:OnDelete:CASCADE;"`
	Events        []Event `gorm:"constraint:OnDelete:CASCADE;"`
}

// Seat links a user to a game and fixes their turn order.
type Seat struct {
	ID        int64 `gorm:"primaryKey"`
	GameID    int64 `gorm:"uniqueIndex:idx_seat_game_user"`
	UserID    int64 `gorm:"uniqueIndex:idx_seat_game_user;index"`
	Position  int
	IsReady   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CardDefinition is one row of the shared card catalog. IDs match uno catalog ids.
type CardDefinition struct {
	ID    int    `gorm:"primaryKey;autoIncrement:false"`
	Color string `gorm:"type:varchar(16);uniqueIndex:idx_definition"`
	Value string `gorm:"type:varchar(16);uniqueIndex:idx_definition"`
}

// Card is one physical card of a game. OwnerID 0 is the pool.
type Card struct {
	ID           int64          `gorm:"primaryKey"`
	GameID       int64          `gorm:"index:idx_card_custody,priority:1"`
	DefinitionID int            `gorm:"not null"`
	Definition   CardDefinition `gorm:"constraint:OnDelete:RESTRICT;"`
	OwnerID      int64          `gorm:"index:idx_card_custody,priority:2"`
	Location     int            `gorm:"index:idx_card_custody,priority:3"`
}

// Move stores a single entry of a game's move log.
type Move struct {
	ID          int64  `gorm:"primaryKey"`
	GameID      int64  `gorm:"index"`
	UserID      int64  `gorm:"index"`
	PlayType    string `gorm:"type:varchar(16)"`
	CardID      *int64
	DrawAmount  *int
	ChosenColor *string `gorm:"type:varchar(16)"`
	Reverse     bool    `gorm:"column:reverse_flag"`
	CreatedAt   time.Time
}

// Event is a notification persisted with the mutation that produced it.
type Event struct {
	ID        int64  `gorm:"primaryKey"`
	GameID    int64  `gorm:"index"`
	Kind      string `gorm:"type:varchar(32)"`
	Payload   datatypes.JSON
	CreatedAt time.Time
}
