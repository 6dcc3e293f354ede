package scoring

import "github.com/robalobadob/yahtzee/apps/go-server/internal/dice"

// Fixed awards.
const (
	FullHouseScore     = 25
	SmallStraightScore = 30
	LargeStraightScore = 40
	YahtzeeScore       = 50

	// YahtzeeBonus is added to the bonus each time another Yahtzee is
	// rolled after the Yahtzee slot holds a nonzero score.
	YahtzeeBonus = 100

	UpperBonusThreshold = 63
	UpperBonusScore     = 35
)

// Table holds the raw score of every regular category for one hand.
type Table [NumCategories]int

// Get returns the raw score for c. Bonus has no raw score and reads as 0.
func (t Table) Get(c Category) int {
	if c < Ones || c >= Bonus {
		return 0
	}
	return t[c]
}

// Evaluate computes what each of the 13 categories would award for h,
// without reference to any scorecard.
//
// Three and four of a kind award the sum of all five dice once the
// threshold is met. Full house needs exactly a 3+2 split: five of a kind
// and 4+1 both score 0 there.
func Evaluate(h dice.Hand) Table {
	counts := dice.CountByValue(h)
	maxCount := 0
	for _, n := range counts {
		if n > maxCount {
			maxCount = n
		}
	}
	sum := h.Sum()
	run := dice.LongestRun(h)

	var t Table
	for _, c := range UpperCategories {
		face := dice.Die(c - Ones + 1)
		t[c] = counts[face] * int(face)
	}
	if maxCount >= 3 {
		t[ThreeOfAKind] = sum
	}
	if maxCount >= 4 {
		t[FourOfAKind] = sum
	}
	if isFullHouse(counts) {
		t[FullHouse] = FullHouseScore
	}
	if run >= 4 {
		t[SmallStraight] = SmallStraightScore
	}
	if run >= 5 {
		t[LargeStraight] = LargeStraightScore
	}
	if maxCount >= 5 {
		t[Yahtzee] = YahtzeeScore
	}
	t[Chance] = sum
	return t
}

// isFullHouse reports a true 3+2 split: two distinct values, counted 3 and 2.
func isFullHouse(counts map[dice.Die]int) bool {
	if len(counts) != 2 {
		return false
	}
	for _, n := range counts {
		if n != 2 && n != 3 {
			return false
		}
	}
	return true
}
