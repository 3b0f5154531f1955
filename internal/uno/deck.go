package uno

// PoolOwner is the owner id of every card not held in a hand. It sits outside
// the valid player-id space.
const PoolOwner int64 = 0

// DiscardLocation marks a pool card as being in the discard pile.
const DiscardLocation = -1

// Card is one physical card instance of a game.
type Card struct {
	ID     int64 `json:"id"`
	GameID int64 `json:"-"`
	Definition
	OwnerID  int64 `json:"-"`
	Location int   `json:"-"`
}

// InDrawPile reports whether the card waits in the draw pile.
func (c Card) InDrawPile() bool { return c.OwnerID == PoolOwner && c.Location > 0 }

// InDiscardPile reports whether the card has been played or flipped.
func (c Card) InDiscardPile() bool {
	return c.OwnerID == PoolOwner && c.Location == DiscardLocation
}

// DeckEntry is a card of a freshly built deck and its draw-pile location.
type DeckEntry struct {
	Definition Definition
	Location   int
}

// BuildDeck expands the catalog into DeckSize entries and assigns them a
// random permutation of locations 1..DeckSize.
func BuildDeck(rng RNG) []DeckEntry {
	entries := make([]DeckEntry, 0, DeckSize)
	for _, d := range catalog {
		for i := 0; i < d.Multiplicity(); i++ {
			entries = append(entries, DeckEntry{Definition: d})
		}
	}
	locations := Permutation(rng, len(entries))
	for i := range entries {
		entries[i].Location = locations[i]
	}
	return entries
}
