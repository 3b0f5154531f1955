package game

import "errors"

var (
	ErrInvalidState         = errors.New("invalid game state")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrCardNotInHand        = errors.New("card not in hand")
	ErrInvalidPlay          = errors.New("invalid play")
	ErrInsufficientPlayers  = errors.New("not enough players")
	ErrInsufficientDrawPile = errors.New("not enough cards in draw pile")
	ErrDeckExhausted        = errors.New("deck exhausted")
	ErrAlreadyDealt         = errors.New("deck already dealt")
	ErrNothingToRecycle     = errors.New("nothing to recycle")

	ErrGameNotFound    = errors.New("game not found")
	ErrGameFull        = errors.New("game is full")
	ErrAlreadySeated   = errors.New("already seated")
	ErrNotSeated       = errors.New("not seated in game")
	ErrInvalidCapacity = errors.New("invalid capacity")
	ErrInvalidUser     = errors.New("invalid user id")
)

// Rejection reasons reported by Validate and PlayCard.
const (
	ReasonNotInProgress = "game is not in progress"
	ReasonNotYourTurn   = "not your turn"
	ReasonCardNotInHand = "card not in hand"
	ReasonMustChoose    = "must choose a color"
	ReasonInvalidColor  = "invalid color choice"
	ReasonNoMatch       = "card does not match color or value"
)
