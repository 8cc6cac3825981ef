// Package candidates infers what an opposing creature may be holding or
// which ability it may have, from its species and the moves seen so far.
package candidates

import (
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"github.com/domino14/foresight/battle"
	"github.com/domino14/foresight/dex"
)

// Enumerator derives candidate sets from the knowledge base.
type Enumerator struct {
	dex dex.Dex
}

func New(d dex.Dex) *Enumerator {
	return &Enumerator{dex: d}
}

// Abilities returns the possible abilities of a creature. A confirmed
// ability is returned as a singleton.
func (e *Enumerator) Abilities(c *battle.Creature) ([]string, error) {
	if c.Ability != "" {
		return []string{c.Ability}, nil
	}
	sp, err := e.dex.Species(c.Species)
	if err != nil {
		return nil, err
	}
	if len(sp.Abilities) == 0 {
		return []string{""}, nil
	}
	return lo.Uniq(sp.Abilities), nil
}

// Items returns the possible held items of a creature, "" meaning no item.
// A confirmed item is returned as a singleton.
func (e *Enumerator) Items(c *battle.Creature) ([]string, error) {
	if c.ItemKnown {
		return []string{c.Item}, nil
	}
	sp, err := e.dex.Species(c.Species)
	if err != nil {
		return nil, err
	}
	moves := c.KnownMoves()
	has := func(names ...string) bool {
		return lo.Some(moves, names)
	}

	var items []string
	if sp.Item != "" {
		items = append(items, sp.Item)
	}
	if has("trick", "switcheroo") {
		items = append(items, "choicescarf", "choicespecs")
	}
	if has("rest") && !has("sleeptalk") {
		items = append(items, "chestoberry")
	}
	if has("bellydrum") {
		items = append(items, "sitrusberry")
	}
	if has("acrobatics") {
		items = append(items, "")
	}

	abilities := c.AbilityCandidates()
	if len(abilities) == 0 {
		abilities = sp.Abilities
	}
	if lo.Contains(abilities, "poisonheal") {
		items = append(items, "toxicorb")
	}
	if lo.Some(abilities, []string{"guts", "quickfeet"}) {
		items = append(items, "flameorb")
	}
	if lo.Contains(abilities, "magicguard") {
		items = append(items, "lifeorb")
	}
	if has("substitute", "protect") {
		items = append(items, "leftovers")
	}

	if len(moves) == battle.MaxMoves {
		physical, special, attacking := 0, 0, 0
		for _, name := range moves {
			m, err := e.dex.Move(name)
			if err != nil {
				return nil, err
			}
			switch {
			case m.Category == dex.Physical && m.Damaging():
				physical++
				attacking++
			case m.Category == dex.Special && m.Damaging():
				special++
				attacking++
			}
		}
		if attacking == battle.MaxMoves {
			if physical >= special {
				items = append(items, "choiceband")
			} else {
				items = append(items, "choicespecs")
			}
			items = append(items, "lifeorb")
		}
	}

	if len(items) == 0 {
		return []string{"", "leftovers"}, nil
	}
	return lo.Uniq(items), nil
}

// NeedsFill reports whether a creature carries an unconfirmed ability or
// item with no candidate set yet.
func NeedsFill(c *battle.Creature) bool {
	if !c.Revealed {
		return false
	}
	return (c.Ability == "" && len(c.Abilities) == 0) || (!c.ItemKnown && len(c.Items) == 0)
}

// Fill writes candidate sets into every revealed creature of a side that
// has an unconfirmed ability or item. Existing candidate sets are
// recomputed, since new moves may have been seen since they were made.
func (e *Enumerator) Fill(pos *battle.Position, s battle.Side) error {
	side := pos.Side(s)
	for slot := 0; slot < side.Size; slot++ {
		c := &side.Team[slot]
		if !c.Revealed || (c.Ability != "" && c.ItemKnown) {
			continue
		}
		abilities, err := e.Abilities(c)
		if err != nil {
			return err
		}
		items, err := e.Items(c)
		if err != nil {
			return err
		}
		if c.Ability != "" {
			abilities = nil
		}
		if c.ItemKnown {
			items = nil
		}
		if err := pos.SetCandidates(s, slot, abilities, items); err != nil {
			return err
		}
		log.Trace().Str("species", c.Species).Strs("abilities", abilities).
			Strs("items", items).Msg("candidates-filled")
	}
	return nil
}
