// internal/dice/dice.go
//
// Die and hand primitives for the dice engine.
// Defines:
//   - Die: a single face value (1–6).
//   - Hand: the fixed five-die hand of a turn, ordered by position.
//   - Selection: the set of locked positions in a hand.
//   - RollOne/RollAll/CountByValue: the primitive operations over them.
//
// Notes:
//   - Hand and Selection are arrays, so assigning them copies; a State that
//     embeds them never shares storage with the value it was derived from.
//   - Randomness always comes from an explicit Source (see source.go).

package dice

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

const (
	// HandSize is the number of dice in a hand.
	HandSize = 5
	// Sides is the number of faces on a die.
	Sides = 6
)

// ErrInvalidHand indicates a hand with the wrong length or an out-of-range die.
var ErrInvalidHand = errors.New("hand must have exactly 5 dice valued 1-6")

// ErrInvalidPosition indicates a die position outside 0..HandSize-1.
var ErrInvalidPosition = errors.New("die position must be between 0 and 4")

// Die is a single die face value.
type Die int

// Valid reports whether d is a face of a six-sided die.
func (d Die) Valid() bool { return d >= 1 && d <= Sides }

// Hand is the ordered set of five dice for the current turn.
// Order only matters for selecting dice by position; scoring ignores it.
type Hand [HandSize]Die

// Sum returns the total of all five dice.
func (h Hand) Sum() int {
	total := 0
	for _, d := range h {
		total += int(d)
	}
	return total
}

// Valid reports whether every die in h is in range.
func (h Hand) Valid() bool {
	for _, d := range h {
		if !d.Valid() {
			return false
		}
	}
	return true
}

// ParseHand builds a Hand from plain ints, validating length and range.
func ParseHand(values []int) (Hand, error) {
	var h Hand
	if len(values) != HandSize {
		return h, fmt.Errorf("%w: got %d dice", ErrInvalidHand, len(values))
	}
	for i, v := range values {
		h[i] = Die(v)
		if !h[i].Valid() {
			return Hand{}, fmt.Errorf("%w: die %d is %d", ErrInvalidHand, i, v)
		}
	}
	return h, nil
}

// MustHand is ParseHand for literals in tests and tables; it panics on invalid input.
func MustHand(values ...int) Hand {
	h, err := ParseHand(values)
	if err != nil {
		panic(err)
	}
	return h
}

// ValidPosition reports whether pos addresses a die in a hand.
func ValidPosition(pos int) bool { return pos >= 0 && pos < HandSize }

// RollOne returns a uniformly random die value drawn from src.
func RollOne(src Source) Die {
	return Die(src.IntN(Sides) + 1)
}

// RollAll returns a fresh hand of independently rolled dice, drawn in
// position order 0..4.
func RollAll(src Source) Hand {
	var h Hand
	for i := range h {
		h[i] = RollOne(src)
	}
	return h
}

// CountByValue maps each value present in h to its number of occurrences.
// Values that do not appear have no entry.
func CountByValue(h Hand) map[Die]int {
	counts := make(map[Die]int, HandSize)
	for _, d := range h {
		counts[d]++
	}
	return counts
}

// Selection is the set of hand positions that are locked (kept) and will
// not be re-rolled.
type Selection [HandSize]bool

// Has reports whether pos is locked. Out-of-range positions are never locked.
func (s Selection) Has(pos int) bool {
	return ValidPosition(pos) && s[pos]
}

// With returns a copy of s with pos locked or unlocked.
// Setting a position to the state it already has is a no-op.
func (s Selection) With(pos int, locked bool) (Selection, error) {
	if !ValidPosition(pos) {
		return s, fmt.Errorf("%w: %d", ErrInvalidPosition, pos)
	}
	s[pos] = locked
	return s, nil
}

// Positions lists the locked positions in ascending order.
func (s Selection) Positions() []int {
	out := make([]int, 0, HandSize)
	for i, locked := range s {
		if locked {
			out = append(out, i)
		}
	}
	return out
}

// MarshalJSON encodes the selection as its list of locked positions.
func (s Selection) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Positions())
}

// UnmarshalJSON decodes a list of locked positions.
func (s *Selection) UnmarshalJSON(data []byte) error {
	var positions []int
	if err := json.Unmarshal(data, &positions); err != nil {
		return err
	}
	var out Selection
	for _, p := range positions {
		if !ValidPosition(p) {
			return fmt.Errorf("%w: %d", ErrInvalidPosition, p)
		}
		out[p] = true
	}
	*s = out
	return nil
}

// sortedDistinct returns the distinct values of h in ascending order.
func sortedDistinct(h Hand) []Die {
	seen := make(map[Die]bool, HandSize)
	out := make([]Die, 0, HandSize)
	for _, d := range h {
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// LongestRun returns the length of the longest run of consecutive distinct
// values in h, e.g. 4 for [1 2 3 4 6] and 1 for [2 2 2 2 2].
func LongestRun(h Hand) int {
	values := sortedDistinct(h)
	longest, run := 1, 1
	for i := 1; i < len(values); i++ {
		if values[i] == values[i-1]+1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}
