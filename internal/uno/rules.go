package uno

// TopCard is the active card of the discard pile together with the color
// that later plays must match.
type TopCard struct {
	Card
	EffectiveColor Color `json:"effectiveColor"`
}

// Matches reports whether d may be played on top. A wild top without a chosen
// color only occurs when the starter flips ran out, and accepts anything.
func Matches(d Definition, top TopCard) bool {
	if d.IsWild() || top.EffectiveColor == ColorWild {
		return true
	}
	return d.Color == top.EffectiveColor || d.Value == top.Value
}
