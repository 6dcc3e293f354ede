// internal/game/types.go
//
// Core type definitions for the dice game engine.
// Defines:
//   - State: an immutable snapshot of a single game.
//   - Phase: the derived lifecycle position of a State.
//   - Sentinel errors returned by engine operations.

package game

import (
	"errors"
	"time"

	"github.com/robalobadob/yahtzee/apps/go-server/internal/dice"
	"github.com/robalobadob/yahtzee/apps/go-server/internal/scoring"
)

// MaxRolls is the number of rolls allowed per turn, including the deal.
const MaxRolls = 3

var (
	// ErrIllegalRoll is returned by Roll once the turn's rolls are used up
	// or the game is over.
	ErrIllegalRoll = errors.New("a roll cannot be made at this time")

	// ErrIllegalCategory is returned by Choose for a category that is not
	// currently selectable.
	ErrIllegalCategory = errors.New("invalid score category selection")

	// ErrInvalidPosition is returned by SetDieLock for positions outside 0..4.
	ErrInvalidPosition = dice.ErrInvalidPosition
)

// Phase is derived from a State; it is never stored.
type Phase string

const (
	PhaseNotStarted Phase = "not_started"
	PhaseInTurn     Phase = "in_turn"
	PhaseComplete   Phase = "complete"
)

// State holds one game. Engine operations take a State and return a new
// one; they never modify the State they were given.
type State struct {
	ID        string            `json:"id"`
	StartTime time.Time         `json:"startTime"`
	EndTime   *time.Time        `json:"endTime,omitempty"` // set once every category is filled
	RollCount int               `json:"rollCount"`         // 0 before the first deal, then 1..MaxRolls
	Hand      dice.Hand         `json:"dice"`
	Locked    dice.Selection    `json:"locked"` // positions kept on the next roll
	Scorecard scoring.Scorecard `json:"scorecard"`
}

// Phase reports where the game is in its lifecycle.
func (s State) Phase() Phase {
	switch {
	case s.EndTime != nil:
		return PhaseComplete
	case s.RollCount == 0:
		return PhaseNotStarted
	default:
		return PhaseInTurn
	}
}

// Started reports whether the first hand has been dealt.
func (s State) Started() bool { return s.RollCount > 0 }

// Complete reports whether the game is over.
func (s State) Complete() bool { return s.EndTime != nil }

// CanRoll reports whether Roll would succeed.
func (s State) CanRoll() bool { return !s.Complete() && s.RollCount < MaxRolls }

// Possible lists the categories that can be chosen for the current hand.
// It is recomputed on every call. A complete game offers nothing, so its
// totals stay frozen.
func (s State) Possible() scoring.Options {
	if s.Complete() {
		return scoring.Options{}
	}
	return scoring.Possible(s.Scorecard, s.Hand)
}

// Totals sums the scorecard.
func (s State) Totals() scoring.Totals {
	return scoring.ComputeTotals(s.Scorecard)
}
