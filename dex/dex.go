// Package dex is the read-only species and move knowledge base. It answers
// base stats, types, native ability pools, likely movepools and move
// metadata (accuracy, category, secondary effect, crit ratio, priority).
package dex

import (
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/domino14/foresight/battle"
)

// ErrUnknownEntity means a species, move or type is missing from the
// knowledge base. It indicates a data problem, never a game-state
// ambiguity, so callers must not substitute a default.
var ErrUnknownEntity = errors.New("unknown entity")

type Category uint8

const (
	Physical Category = iota
	Special
	StatusMove
)

func (c Category) String() string {
	switch c {
	case Physical:
		return "physical"
	case Special:
		return "special"
	case StatusMove:
		return "status"
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

type Target uint8

const (
	TargetFoe Target = iota
	TargetSelf
)

// Secondary is a chance-based extra effect of a move.
type Secondary struct {
	// Chance is a percentage in (0, 100].
	Chance int
	Status battle.Status
	Boosts map[battle.Stat]int
	// Self applies Boosts to the user instead of the target.
	Self bool
}

type Move struct {
	Name     string
	Type     string
	Category Category
	Power    int
	// Accuracy is a percentage; 0 means the move never misses.
	Accuracy int
	PP       int
	Priority int
	// CritRatio is the crit stage: 0 when unknown (no crit branch), 1 for
	// ordinary moves, 2 and up for high-crit moves.
	CritRatio int
	// FixedDamage is "level" for moves that deal the user's level in damage.
	FixedDamage string
	Target      Target

	// Primary effects of status moves.
	Status     battle.Status
	SelfStatus battle.Status
	Boosts     map[battle.Stat]int
	Heal       int
	Hazard     string

	Secondary *Secondary
}

func (m *Move) Damaging() bool {
	return m.Category != StatusMove && (m.Power > 0 || m.FixedDamage != "")
}

func (m *Move) NeverMisses() bool {
	return m.Accuracy <= 0
}

type BaseStats = battle.Stats

type Species struct {
	Name      string
	Types     []string
	Base      BaseStats
	Abilities []string
	// Item is a held item exclusive to or strongly implied by the species.
	Item string
	// Movepool lists plausible moves, most likely first.
	Movepool []string
}

// Dex is the lookup surface the search needs.
type Dex interface {
	Species(name string) (*Species, error)
	Move(name string) (*Move, error)
	Effectiveness(moveType string, defender []string) (float64, error)
}

// ID normalises a display name ("Stealth Rock") to a lookup key
// ("stealthrock").
func ID(name string) string {
	var sb strings.Builder
	sb.Grow(len(name))
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			sb.WriteRune(unicode.ToLower(r))
		}
	}
	return sb.String()
}

// Pokedex is an in-memory Dex.
type Pokedex struct {
	species map[string]*Species
	moves   map[string]*Move
	types   map[string]map[string]float64
}

func (d *Pokedex) Species(name string) (*Species, error) {
	s, ok := d.species[ID(name)]
	if !ok {
		return nil, fmt.Errorf("%w: species %q", ErrUnknownEntity, name)
	}
	return s, nil
}

func (d *Pokedex) Move(name string) (*Move, error) {
	m, ok := d.moves[ID(name)]
	if !ok {
		return nil, fmt.Errorf("%w: move %q", ErrUnknownEntity, name)
	}
	return m, nil
}

// Effectiveness multiplies the chart entries of an attacking type against
// each defending type. Pairs absent from the chart are neutral.
func (d *Pokedex) Effectiveness(moveType string, defender []string) (float64, error) {
	row, ok := d.types[moveType]
	if !ok {
		return 0, fmt.Errorf("%w: type %q", ErrUnknownEntity, moveType)
	}
	eff := 1.0
	for _, t := range defender {
		if t == "" {
			continue
		}
		if _, ok := d.types[t]; !ok {
			return 0, fmt.Errorf("%w: type %q", ErrUnknownEntity, t)
		}
		if m, ok := row[t]; ok {
			eff *= m
		}
	}
	return eff, nil
}

func (d *Pokedex) NumSpecies() int {
	return len(d.species)
}

func (d *Pokedex) NumMoves() int {
	return len(d.moves)
}

// HitChance is the probability of hitting given the user's accuracy stage
// minus the target's evasion stage.
func (m *Move) HitChance(stage int) float64 {
	if m.NeverMisses() || m.Target == TargetSelf {
		return 1
	}
	return min(1, float64(m.Accuracy)/100*battle.AccuracyMultiplier(stage))
}

// CritChance maps the crit stage to a probability. Stage 0 carries no crit
// information and never crits.
func (m *Move) CritChance() float64 {
	if !m.Damaging() || m.FixedDamage != "" {
		return 0
	}
	switch {
	case m.CritRatio <= 0:
		return 0
	case m.CritRatio == 1:
		return 1.0 / 24
	case m.CritRatio == 2:
		return 1.0 / 8
	case m.CritRatio == 3:
		return 0.5
	}
	return 1
}
