// Package reward scores a position without lookahead.
package reward

import "github.com/domino14/foresight/battle"

// unrevealedScore is what an opposing slot that has not been seen is worth:
// a healthy creature at full HP.
const unrevealedScore = 2

// StatusFactor scales a creature's score for a detrimental status.
func StatusFactor(st battle.Status) float64 {
	switch st {
	case battle.Paralysis:
		return 0.5
	case battle.Burn, battle.Poison:
		return 0.75
	case battle.Toxic:
		return 0.6
	case battle.Sleep:
		return 0.65
	case battle.Freeze:
		return 0.25
	}
	return 1
}

func creatureScore(c *battle.Creature) float64 {
	if !c.Revealed {
		return unrevealedScore
	}
	score := c.HPFraction()
	if !c.Fainted() {
		score++
	}
	return score * StatusFactor(c.Status)
}

// Score sums the roster scores of one side.
func Score(pos *battle.Position, s battle.Side) float64 {
	side := pos.Side(s)
	total := 0.0
	for i := 0; i < side.Size; i++ {
		total += creatureScore(&side.Team[i])
	}
	return total
}

// Evaluate is side's roster score minus the other side's. It reads the
// position only.
func Evaluate(pos *battle.Position, s battle.Side) float64 {
	return Score(pos, s) - Score(pos, s.Other())
}
