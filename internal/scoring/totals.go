package scoring

// Totals summarizes a scorecard.
type Totals struct {
	UpperSubtotal int `json:"upperSubtotal"`
	UpperBonus    int `json:"upperBonus,omitempty"` // UpperBonusScore once earned, else 0
	UpperTotal    int `json:"upperTotal"`
	LowerTotal    int `json:"lowerTotal"` // includes the Yahtzee bonus
	GrandTotal    int `json:"grandTotal"`
}

// ComputeTotals sums card. Unfilled categories count as 0.
func ComputeTotals(card Scorecard) Totals {
	var t Totals
	for _, c := range UpperCategories {
		v, _ := card.Get(c)
		t.UpperSubtotal += v
	}
	if t.UpperSubtotal >= UpperBonusThreshold {
		t.UpperBonus = UpperBonusScore
	}
	t.UpperTotal = t.UpperSubtotal + t.UpperBonus

	for _, c := range LowerCategories {
		v, _ := card.Get(c)
		t.LowerTotal += v
	}
	t.LowerTotal += card.Bonus()
	t.GrandTotal = t.UpperTotal + t.LowerTotal
	return t
}
