package storage

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"tinyuno/internal/uno"
)

// New initializes the database connection and performs migrations.
func New(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Migrate creates the schema and seeds the card catalog.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&CardDefinition{}, &Game{}, &Seat{}, &Card{}, &Move{}, &Event{}); err != nil {
		return err
	}
	defs := uno.Definitions()
	rows := make([]CardDefinition, len(defs))
	for i, d := range defs {
		rows[i] = CardDefinition{ID: d.ID(), Color: string(d.Color), Value: string(d.Value)}
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
}
