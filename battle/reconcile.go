package battle

import (
	"fmt"
	"math"
)

// The methods in this file let a log-replay component correct the belief
// state against what actually happened in a live match.

// RevealCreature records a newly seen roster member in a slot. A slot past
// the side's roster size grows the roster to include it.
func (p *Position) RevealCreature(s Side, slot int, c Creature) error {
	if slot < 0 || slot >= MaxTeam {
		return ErrBadSlot
	}
	side := &p.Sides[s]
	if slot >= side.Size {
		side.Size = slot + 1
	}
	c.Revealed = true
	side.Team[slot] = c
	return nil
}

// ObserveSwitch makes a roster slot the active creature.
func (p *Position) ObserveSwitch(s Side, slot int) error {
	c, err := p.Creature(s, slot)
	if err != nil {
		return err
	}
	if !c.Revealed {
		return fmt.Errorf("%w: slot %d has not been revealed", ErrBadSlot, slot)
	}
	side := &p.Sides[s]
	side.ActiveCreature().ClearVolatiles()
	side.Active = slot
	return nil
}

// RevealMove records an observed move. Observing a move that is already
// known is a no-op; a fifth distinct move is an error.
func (p *Position) RevealMove(s Side, slot int, move string, pp int) error {
	c, err := p.Creature(s, slot)
	if err != nil {
		return err
	}
	_, err = c.addMove(move, pp)
	if err != nil {
		return fmt.Errorf("revealing %s on %v slot %d: %w", move, s, slot, err)
	}
	return nil
}

// ConfirmAbility collapses the ability candidate set to a single value.
func (p *Position) ConfirmAbility(s Side, slot int, ability string) error {
	c, err := p.Creature(s, slot)
	if err != nil {
		return err
	}
	c.Ability = ability
	c.Abilities = nil
	return nil
}

// ConfirmItem collapses the item candidate set to a single value. An empty
// item means the creature is known to hold nothing.
func (p *Position) ConfirmItem(s Side, slot int, item string) error {
	c, err := p.Creature(s, slot)
	if err != nil {
		return err
	}
	c.Item = item
	c.ItemKnown = true
	c.Items = nil
	return nil
}

// SetCandidates replaces the candidate sets of an unconfirmed creature.
// Confirmed values are left alone.
func (p *Position) SetCandidates(s Side, slot int, abilities, items []string) error {
	c, err := p.Creature(s, slot)
	if err != nil {
		return err
	}
	if c.Ability == "" {
		c.Abilities = abilities
	}
	if !c.ItemKnown {
		c.Items = items
	}
	return nil
}

// ObserveHP forces a creature's HP to an observed absolute value.
func (p *Position) ObserveHP(s Side, slot int, hp int) error {
	c, err := p.Creature(s, slot)
	if err != nil {
		return err
	}
	c.HP = max(0, min(hp, c.Stats.HP))
	return nil
}

// ObserveHPFraction forces HP from an observed fraction of maximum, which is
// all a live match shows for opposing creatures.
func (p *Position) ObserveHPFraction(s Side, slot int, frac float64) error {
	c, err := p.Creature(s, slot)
	if err != nil {
		return err
	}
	return p.ObserveHP(s, slot, int(math.Round(frac*float64(c.Stats.HP))))
}

func (p *Position) ObserveStatus(s Side, slot int, status Status) error {
	c, err := p.Creature(s, slot)
	if err != nil {
		return err
	}
	c.Status = status
	c.StatusTurns = 0
	return nil
}

func (p *Position) ObserveBoost(s Side, slot int, stat Stat, stage int) error {
	c, err := p.Creature(s, slot)
	if err != nil {
		return err
	}
	if stat >= NumBoosts {
		return fmt.Errorf("unknown stat index %d", stat)
	}
	c.Boosts[stat] = 0
	c.Boosts.Add(stat, stage)
	return nil
}
