// Package engine declares the collaborators the search consumes: a rules
// engine that advances a position by one turn and a damage calculator that
// reports the distribution of damage a move can deal.
package engine

import (
	"fmt"

	"github.com/domino14/foresight/battle"
)

// Roll pins the random outcomes of one side's action for a turn.
type Roll struct {
	Miss bool
	Crit bool
	// Damage is the exact damage dealt, or -1 to let the engine decide.
	Damage    int
	Secondary bool
}

func (r *Roll) String() string {
	if r == nil {
		return "free"
	}
	if r.Miss {
		return "miss"
	}
	return fmt.Sprintf("hit(dmg=%d crit=%t sec=%t)", r.Damage, r.Crit, r.Secondary)
}

// Forced holds the pinned roll for each side, indexed by battle.Side. A nil
// entry means the engine rolls freely.
type Forced [2]*Roll

// RulesEngine applies one turn of simultaneous actions.
type RulesEngine interface {
	// Apply takes ownership of pos, may mutate it, and returns the
	// successor. It returns an error wrapping battle.ErrIllegalAction when
	// the actions cannot be applied to the position.
	Apply(pos *battle.Position, actions [2]battle.Action, forced Forced) (*battle.Position, error)
	// Clone returns a position the caller may hand to Apply while keeping
	// the original.
	Clone(pos *battle.Position) *battle.Position
}

// DamageMass is one damage value and its probability mass.
type DamageMass struct {
	Damage int
	Mass   float64
}

// Distribution is sorted by ascending damage with distinct values.
type Distribution []DamageMass

func (d Distribution) Min() int {
	if len(d) == 0 {
		return 0
	}
	return d[0].Damage
}

func (d Distribution) Max() int {
	if len(d) == 0 {
		return 0
	}
	return d[len(d)-1].Damage
}

func (d Distribution) Total() float64 {
	t := 0.0
	for _, dm := range d {
		t += dm.Mass
	}
	return t
}

// DamageCalculator reports the damage a move by the attacker's active
// creature would deal to the other side's active creature, given whether
// it crits. Unknown abilities and items are averaged over their candidate
// sets.
type DamageCalculator interface {
	Distribution(pos *battle.Position, attacker battle.Side, move string, crit bool) (Distribution, error)
}
