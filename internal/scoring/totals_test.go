package scoring

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestComputeTotals(t *testing.T) {
	tcs := []struct {
		name   string
		scores map[Category]int
		want   Totals
	}{
		{
			name: "empty",
		},
		{
			name:   "upper bonus earned at threshold",
			scores: map[Category]int{Ones: 3, Twos: 6, Threes: 9, Fours: 12, Fives: 15, Sixes: 18},
			want:   Totals{UpperSubtotal: 63, UpperBonus: 35, UpperTotal: 98, GrandTotal: 98},
		},
		{
			name:   "one short of upper bonus",
			scores: map[Category]int{Ones: 2, Twos: 6, Threes: 9, Fours: 12, Fives: 15, Sixes: 18},
			want:   Totals{UpperSubtotal: 62, UpperTotal: 62, GrandTotal: 62},
		},
		{
			name:   "lower section includes yahtzee bonus",
			scores: map[Category]int{FullHouse: 25, Yahtzee: 50, Bonus: 200, Chance: 22, Sixes: 24},
			want:   Totals{UpperSubtotal: 24, UpperTotal: 24, LowerTotal: 297, GrandTotal: 321},
		},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			got := ComputeTotals(card(t, tc.scores))
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Fatalf("ComputeTotals mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
