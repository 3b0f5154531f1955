package uno

import "fmt"

// Color is the color printed on a card. Wild cards carry ColorWild until played.
type Color string

const (
	ColorRed    Color = "red"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorYellow Color = "yellow"
	ColorWild   Color = "wild"
)

// Colors lists the colors a player may choose for a wild card.
var Colors = []Color{ColorRed, ColorBlue, ColorGreen, ColorYellow}

// Choosable reports whether c may be named as the chosen color of a wild card.
func (c Color) Choosable() bool {
	for _, k := range Colors {
		if c == k {
			return true
		}
	}
	return false
}

// Value is the face value of a card.
type Value string

const (
	ValueZero         Value = "0"
	ValueOne          Value = "1"
	ValueTwo          Value = "2"
	ValueThree        Value = "3"
	ValueFour         Value = "4"
	ValueFive         Value = "5"
	ValueSix          Value = "6"
	ValueSeven        Value = "7"
	ValueEight        Value = "8"
	ValueNine         Value = "9"
	ValueSkip         Value = "skip"
	ValueReverse      Value = "reverse"
	ValueDrawTwo      Value = "draw_two"
	ValueWild         Value = "wild"
	ValueWildDrawFour Value = "wild_draw_four"
)

var coloredValues = []Value{
	ValueZero, ValueOne, ValueTwo, ValueThree, ValueFour,
	ValueFive, ValueSix, ValueSeven, ValueEight, ValueNine,
	ValueSkip, ValueReverse, ValueDrawTwo,
}

// DeckSize is the number of card instances that exist for every game.
const DeckSize = 108

// Definition is an immutable (color, value) pair. Several card instances
// of one game may share a definition.
type Definition struct {
	Color Color `json:"color"`
	Value Value `json:"value"`
}

func (d Definition) String() string {
	return fmt.Sprintf("%s %s", d.Color, d.Value)
}

// IsWild reports whether the card needs a chosen color when played.
func (d Definition) IsWild() bool { return d.Color == ColorWild }

// IsAction reports whether the card triggers an effect beyond matching.
func (d Definition) IsAction() bool {
	switch d.Value {
	case ValueSkip, ValueReverse, ValueDrawTwo, ValueWild, ValueWildDrawFour:
		return true
	}
	return false
}

// DrawPenalty is the number of cards the next player is forced to draw.
func (d Definition) DrawPenalty() int {
	switch d.Value {
	case ValueDrawTwo:
		return 2
	case ValueWildDrawFour:
		return 4
	}
	return 0
}

// Multiplicity is the number of copies of d in a full deck.
func (d Definition) Multiplicity() int {
	switch {
	case d.IsWild():
		return 4
	case d.Value == ValueZero:
		return 1
	default:
		return 2
	}
}

// ID returns the stable catalog id of d, or 0 if d is not a real card.
func (d Definition) ID() int {
	return catalogIndex[d]
}

var (
	catalog      []Definition
	catalogIndex map[Definition]int
)

func init() {
	for _, c := range Colors {
		for _, v := range coloredValues {
			catalog = append(catalog, Definition{Color: c, Value: v})
		}
	}
	catalog = append(catalog,
		Definition{Color: ColorWild, Value: ValueWild},
		Definition{Color: ColorWild, Value: ValueWildDrawFour},
	)
	catalogIndex = make(map[Definition]int, len(catalog))
	for i, d := range catalog {
		catalogIndex[d] = i + 1
	}
}

// Definitions returns the canonical card definitions in catalog order.
// The catalog id of Definitions()[i] is i+1.
func Definitions() []Definition {
	out := make([]Definition, len(catalog))
	copy(out, catalog)
	return out
}

// DefinitionByID looks up a definition by catalog id.
func DefinitionByID(id int) (Definition, bool) {
	if id < 1 || id > len(catalog) {
		return Definition{}, false
	}
	return catalog[id-1], true
}

// ValidStarter reports whether d may be flipped as the first discard.
func ValidStarter(d Definition) bool {
	return !d.IsWild() && !d.IsAction()
}
