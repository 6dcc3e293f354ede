// internal/scoring/scorecard.go
//
// The scorecard: one optional score per category plus the accumulated
// Yahtzee bonus, and the resolver that lists what can still be chosen.
//
// A Scorecard is a plain value. Record returns a modified copy and leaves the
// receiver untouched, so older game states keep their own scorecards.

package scoring

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/robalobadob/yahtzee/apps/go-server/internal/dice"
)

var (
	// ErrSlotFilled indicates an attempt to overwrite a chosen category.
	ErrSlotFilled = errors.New("score category already filled")

	// ErrInvalidScore indicates a negative score.
	ErrInvalidScore = errors.New("score must be non-negative")
)

type slot struct {
	value int
	set   bool
}

// Scorecard records the chosen score of each category and the bonus.
// The zero value is an empty scorecard.
type Scorecard struct {
	slots [NumCategories]slot
	bonus int
}

// Get returns the stored score for c and whether it has been chosen.
// For Bonus it reports the accumulated bonus, set once it is nonzero.
func (s Scorecard) Get(c Category) (int, bool) {
	if c == Bonus {
		return s.bonus, s.bonus > 0
	}
	if c < Ones || c > Chance {
		return 0, false
	}
	return s.slots[c].value, s.slots[c].set
}

// Filled reports whether c already holds a score. Zero counts as filled.
func (s Scorecard) Filled(c Category) bool {
	_, ok := s.Get(c)
	return ok
}

// Bonus returns the accumulated Yahtzee bonus.
func (s Scorecard) Bonus() int { return s.bonus }

// Complete reports whether all 13 regular categories are filled.
func (s Scorecard) Complete() bool {
	for _, c := range Categories {
		if !s.slots[c].set {
			return false
		}
	}
	return true
}

// Record returns a copy of s with value stored in c.
// For Bonus, value replaces the accumulated bonus and must not be lower than
// it; for any other category the slot must still be empty.
func (s Scorecard) Record(c Category, value int) (Scorecard, error) {
	if value < 0 {
		return s, fmt.Errorf("%w: %d", ErrInvalidScore, value)
	}
	switch {
	case c == Bonus:
		if value < s.bonus {
			return s, fmt.Errorf("bonus cannot shrink from %d to %d", s.bonus, value)
		}
		s.bonus = value
	case c >= Ones && c <= Chance:
		if s.slots[c].set {
			return s, fmt.Errorf("%w: %s", ErrSlotFilled, c)
		}
		s.slots[c] = slot{value: value, set: true}
	default:
		return s, fmt.Errorf("%w: %d", ErrUnknownCategory, int(c))
	}
	return s, nil
}

// Equal reports whether two scorecards hold the same scores.
func (s Scorecard) Equal(o Scorecard) bool { return s == o }

// MarshalJSON encodes the filled categories as an object keyed by category
// key. Unfilled categories are omitted; bonus appears once it is nonzero.
func (s Scorecard) MarshalJSON() ([]byte, error) {
	out := make(map[Category]int, NumCategories+1)
	for _, c := range Categories {
		if v, ok := s.Get(c); ok {
			out[c] = v
		}
	}
	if s.bonus > 0 {
		out[Bonus] = s.bonus
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the object form produced by MarshalJSON.
func (s *Scorecard) UnmarshalJSON(data []byte) error {
	var in map[Category]int
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var out Scorecard
	for c, v := range in {
		next, err := out.Record(c, v)
		if err != nil {
			return err
		}
		out = next
	}
	*s = out
	return nil
}

// Options is the sparse table of categories that can be chosen right now,
// mapped to the score each would award.
type Options map[Category]int

// Has reports whether c can be chosen.
func (o Options) Has(c Category) bool {
	_, ok := o[c]
	return ok
}

// Possible lists the categories of card that can be chosen for h.
//
// Every unfilled regular category is present with its raw score, including
// zeros. Bonus is present only when the Yahtzee slot holds a nonzero score
// and h is itself a Yahtzee; it is then worth the current bonus plus
// YahtzeeBonus. A scratched (zero) Yahtzee never earns a bonus.
func Possible(card Scorecard, h dice.Hand) Options {
	raw := Evaluate(h)
	out := make(Options, NumCategories+1)
	for _, c := range Categories {
		if !card.Filled(c) {
			out[c] = raw[c]
		}
	}
	if y, ok := card.Get(Yahtzee); ok && y > 0 && raw[Yahtzee] > 0 {
		out[Bonus] = card.Bonus() + YahtzeeBonus
	}
	return out
}
