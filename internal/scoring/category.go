// internal/scoring/category.go
//
// Score categories of the standard 13-slot scorecard plus the Yahtzee bonus.
// Every iteration over categories goes through the fixed ordered lists below.

package scoring

import (
	"errors"
	"fmt"
)

// Category identifies a scorecard slot.
type Category int

const (
	Ones Category = iota
	Twos
	Threes
	Fours
	Fives
	Sixes
	ThreeOfAKind
	FourOfAKind
	FullHouse
	SmallStraight
	LargeStraight
	Yahtzee
	Chance

	// Bonus is the repeatable Yahtzee bonus. It is selectable like a
	// category but is not one of the 13 slots and never completes a game.
	Bonus
)

// NumCategories is the number of regular (non-bonus) categories.
const NumCategories = 13

// ErrUnknownCategory indicates a key that names no category.
var ErrUnknownCategory = errors.New("unknown score category")

var (
	// Categories lists the 13 regular categories in scorecard order.
	Categories = []Category{
		Ones, Twos, Threes, Fours, Fives, Sixes,
		ThreeOfAKind, FourOfAKind, FullHouse, SmallStraight, LargeStraight, Yahtzee, Chance,
	}

	// UpperCategories lists the upper section.
	UpperCategories = Categories[:6]

	// LowerCategories lists the lower section, without the bonus.
	LowerCategories = Categories[6:]
)

var categoryKeys = [...]string{
	Ones:          "ones",
	Twos:          "twos",
	Threes:        "threes",
	Fours:         "fours",
	Fives:         "fives",
	Sixes:         "sixes",
	ThreeOfAKind:  "threeOfAKind",
	FourOfAKind:   "fourOfAKind",
	FullHouse:     "fullHouse",
	SmallStraight: "smallStraight",
	LargeStraight: "largeStraight",
	Yahtzee:       "yahtzee",
	Chance:        "chance",
	Bonus:         "bonus",
}

var categoryTitles = [...]string{
	Ones:          "Ones",
	Twos:          "Twos",
	Threes:        "Threes",
	Fours:         "Fours",
	Fives:         "Fives",
	Sixes:         "Sixes",
	ThreeOfAKind:  "Three of a Kind",
	FourOfAKind:   "Four of a Kind",
	FullHouse:     "Full House",
	SmallStraight: "Small Straight",
	LargeStraight: "Large Straight",
	Yahtzee:       "Yahtzee",
	Chance:        "Chance",
	Bonus:         "Bonus",
}

// Valid reports whether c is one of the 13 categories or Bonus.
func (c Category) Valid() bool { return c >= Ones && c <= Bonus }

// Upper reports whether c belongs to the upper section.
func (c Category) Upper() bool { return c >= Ones && c <= Sixes }

// Key returns the wire key, e.g. "fullHouse".
func (c Category) Key() string {
	if !c.Valid() {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryKeys[c]
}

// String implements fmt.Stringer.
func (c Category) String() string { return c.Key() }

// Title returns the display name, e.g. "Full House".
func (c Category) Title() string {
	if !c.Valid() {
		return "Unknown"
	}
	return categoryTitles[c]
}

// ParseCategory resolves a wire key.
func ParseCategory(key string) (Category, error) {
	for c, k := range categoryKeys {
		if k == key {
			return Category(c), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCategory, key)
}

// MarshalText encodes c as its key; this also makes Category usable as a
// JSON object key.
func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return []byte(c.Key()), nil
}

// UnmarshalText decodes a key.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, err := ParseCategory(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
