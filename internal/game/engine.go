// internal/game/engine.go
//
// Turn state machine for a single dice game.
// Responsibilities:
//   - Create games and deal the first hand (New, Start, Load).
//   - Lock and unlock dice between rolls (SetDieLock).
//   - Re-roll unlocked dice within the three-roll allowance (Roll).
//   - Commit a category, then deal the next turn or finish the game (Choose).
//
// Notes:
//   - Every operation is a pure transform: State in, new State out.
//   - The only non-determinism is the dice.Source and the clock, both injected.
//   - An Engine holds no game state and may be shared by any number of games.

package game

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/robalobadob/yahtzee/apps/go-server/internal/dice"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/scoring"
)

// Engine applies game operations using its dice source and clock.
type Engine struct {
	src dice.Source
	now func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for start and end times.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine returns an Engine rolling from src. A nil src uses dice.DefaultSource.
func NewEngine(src dice.Source, opts ...Option) *Engine {
	if src == nil {
		src = dice.DefaultSource
	}
	e := &Engine{src: src, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// New creates a game that has not started: no rolls taken, a random hand,
// an empty scorecard.
func (e *Engine) New() State {
	return State{
		ID:        uuid.NewString(),
		StartTime: e.now().UTC(),
		RollCount: 0,
		Hand:      dice.RollAll(e.src),
	}
}

// Start creates a brand-new game with its first hand already dealt.
// Callers replace whatever game they held with the result.
func (e *Engine) Start() State {
	s := e.New()
	s.RollCount = 1
	return s
}

// Load deals the first hand of a game that has not started. Started games
// are returned unchanged.
func (e *Engine) Load(s State) State {
	if s.Started() {
		return s
	}
	s.RollCount = 1
	s.Hand = dice.RollAll(e.src)
	return s
}

// SetDieLock locks or unlocks the die at pos. Repeating a call is a no-op.
func (e *Engine) SetDieLock(s State, pos int, locked bool) (State, error) {
	sel, err := s.Locked.With(pos, locked)
	if err != nil {
		return s, err
	}
	s.Locked = sel
	return s, nil
}

// Roll re-rolls every unlocked die and uses up one roll. Locked dice keep
// their values. It fails with ErrIllegalRoll after MaxRolls rolls or once
// the game is complete, leaving the state untouched.
func (e *Engine) Roll(s State) (State, error) {
	if !s.CanRoll() {
		return s, fmt.Errorf("%w: roll %d of %d", ErrIllegalRoll, s.RollCount, MaxRolls)
	}
	for i := range s.Hand {
		if !s.Locked.Has(i) {
			s.Hand[i] = dice.RollOne(e.src)
		}
	}
	s.RollCount++
	return s, nil
}

// Choose records the score offered for c on the current hand. Choosing
// Bonus raises the Yahtzee bonus instead of filling a category.
//
// Afterwards the next turn is dealt (one roll taken, fresh hand, no locks),
// or, when all 13 categories are filled, the game ends.
func (e *Engine) Choose(s State, c scoring.Category) (State, error) {
	possible := s.Possible()
	value, ok := possible[c]
	if !ok {
		return s, fmt.Errorf("%w: %s", ErrIllegalCategory, c)
	}
	card, err := s.Scorecard.Record(c, value)
	if err != nil {
		return s, fmt.Errorf("%w: %v", ErrIllegalCategory, err)
	}
	s.Scorecard = card

	if card.Complete() {
		end := e.now().UTC()
		s.EndTime = &end
		return s, nil
	}
	s.RollCount = 1
	s.Hand = dice.RollAll(e.src)
	s.Locked = dice.Selection{}
	return s, nil
}
