package dex

import (
	"fmt"

	"github.com/domino14/foresight/battle"
)

// Stats computes level-scaled stats from base stats, assuming perfect IVs,
// 84 EVs in every stat and a neutral nature.
func Stats(base BaseStats, level int) battle.Stats {
	other := func(b int) int {
		return (2*b+31+21)*level/100 + 5
	}
	return battle.Stats{
		HP:  (2*base.HP+31+21)*level/100 + level + 10,
		Atk: other(base.Atk),
		Def: other(base.Def),
		SpA: other(base.SpA),
		SpD: other(base.SpD),
		Spe: other(base.Spe),
	}
}

// BuildCreature creates a fully known creature at full HP. An empty ability
// picks the species' first native ability.
func BuildCreature(d Dex, species string, level int, ability, item string, moves []string) (battle.Creature, error) {
	sp, err := d.Species(species)
	if err != nil {
		return battle.Creature{}, err
	}
	if len(moves) > battle.MaxMoves {
		return battle.Creature{}, fmt.Errorf("%s: %d moves given, at most %d allowed", species, len(moves), battle.MaxMoves)
	}
	c := battle.Creature{
		Species:   sp.Name,
		Level:     level,
		Stats:     Stats(sp.Base, level),
		Ability:   ID(ability),
		Item:      ID(item),
		ItemKnown: true,
		Revealed:  true,
	}
	copy(c.Types[:], sp.Types)
	c.HP = c.Stats.HP
	if c.Ability == "" && len(sp.Abilities) > 0 {
		c.Ability = sp.Abilities[0]
	}
	for i, name := range moves {
		m, err := d.Move(name)
		if err != nil {
			return battle.Creature{}, err
		}
		c.Moves[i] = battle.MoveSlot{Name: m.Name, PP: m.PP, MaxPP: m.PP}
	}
	c.NumMoves = len(moves)
	return c, nil
}

// BuildOpponent creates a belief-state creature as first seen: species and
// level known, full HP, ability and item unconfirmed, no moves observed.
func BuildOpponent(d Dex, species string, level int) (battle.Creature, error) {
	sp, err := d.Species(species)
	if err != nil {
		return battle.Creature{}, err
	}
	c := battle.Creature{
		Species:  sp.Name,
		Level:    level,
		Stats:    Stats(sp.Base, level),
		Revealed: true,
	}
	copy(c.Types[:], sp.Types)
	c.HP = c.Stats.HP
	return c, nil
}
