package sim

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat/combin"

	"github.com/domino14/foresight/battle"
	"github.com/domino14/foresight/dex"
	"github.com/domino14/foresight/engine"
)

const (
	minRoll  = 85
	numRolls = 16
)

// matchup is one attacker/defender pairing with every hidden value pinned.
type matchup struct {
	att, def   *battle.Creature
	move       *dex.Move
	crit       bool
	weather    battle.Weather
	eff        float64
	attAbility string
	attItem    string
	defAbility string
	defItem    string
}

func orNone(xs []string) []string {
	if len(xs) == 0 {
		return []string{""}
	}
	return xs
}

// Distribution implements engine.DamageCalculator. Hidden abilities and
// items on either side are averaged uniformly over their candidates, and
// each combination spreads its mass evenly over the sixteen damage rolls.
func (e *Engine) Distribution(pos *battle.Position, attacker battle.Side, move string, crit bool) (engine.Distribution, error) {
	m, err := e.dex.Move(move)
	if err != nil {
		return nil, err
	}
	att := pos.Active(attacker)
	def := pos.Active(attacker.Other())
	if !m.Damaging() {
		return engine.Distribution{{Damage: 0, Mass: 1}}, nil
	}
	eff, err := e.dex.Effectiveness(m.Type, def.TypeList())
	if err != nil {
		return nil, err
	}

	// attacker abilities, attacker items, defender abilities, defender items
	hidden := [4][]string{
		orNone(att.AbilityCandidates()),
		att.ItemCandidates(),
		orNone(def.AbilityCandidates()),
		def.ItemCandidates(),
	}
	combos := combin.Cartesian([]int{len(hidden[0]), len(hidden[1]), len(hidden[2]), len(hidden[3])})
	perRoll := 1 / float64(len(combos)*numRolls)

	masses := make(map[int]float64)
	mu := matchup{att: att, def: def, move: m, crit: crit, weather: pos.Field.Weather, eff: eff}
	for _, c := range combos {
		mu.attAbility = hidden[0][c[0]]
		mu.attItem = hidden[1][c[1]]
		mu.defAbility = hidden[2][c[2]]
		mu.defItem = hidden[3][c[3]]
		for r := minRoll; r < minRoll+numRolls; r++ {
			masses[mu.damage(r)] += perRoll
		}
	}

	dist := make(engine.Distribution, 0, len(masses))
	for d, mass := range masses {
		dist = append(dist, engine.DamageMass{Damage: d, Mass: mass})
	}
	sort.Slice(dist, func(i, j int) bool { return dist[i].Damage < dist[j].Damage })
	return dist, nil
}

func (mu *matchup) immune() bool {
	if mu.eff == 0 {
		return true
	}
	return mu.move.Type == "ground" && mu.defAbility == "levitate"
}

func (mu *matchup) attackStat() float64 {
	physical := mu.move.Category == dex.Physical
	st, raw := battle.SpA, mu.att.Stats.SpA
	if physical {
		st, raw = battle.Atk, mu.att.Stats.Atk
	}
	stage := mu.att.Boosts[st]
	if mu.crit && stage < 0 {
		stage = 0
	}
	a := math.Floor(float64(raw) * battle.Multiplier(stage))
	switch {
	case physical && (mu.attAbility == "hugepower" || mu.attAbility == "purepower"):
		a *= 2
	case physical && mu.attAbility == "guts" && mu.att.Status != battle.StatusNone:
		a *= 1.5
	}
	switch {
	case physical && mu.attItem == "choiceband", !physical && mu.attItem == "choicespecs":
		a *= 1.5
	case mu.attItem == "lightball" && mu.att.Species == "pikachu":
		a *= 2
	case physical && mu.attItem == "thickclub" && mu.att.Species == "marowak":
		a *= 2
	}
	if mu.defAbility == "thickfat" && (mu.move.Type == "fire" || mu.move.Type == "ice") {
		a *= 0.5
	}
	return math.Floor(a)
}

func (mu *matchup) defenseStat() float64 {
	physical := mu.move.Category == dex.Physical
	st, raw := battle.SpD, mu.def.Stats.SpD
	if physical {
		st, raw = battle.Def, mu.def.Stats.Def
	}
	stage := mu.def.Boosts[st]
	if mu.crit && stage > 0 {
		stage = 0
	}
	d := math.Floor(float64(raw) * battle.Multiplier(stage))
	if !physical && mu.defItem == "assaultvest" {
		d = math.Floor(d * 1.5)
	}
	return max(1, d)
}

func (mu *matchup) weatherModifier() float64 {
	switch {
	case mu.weather == battle.Sun && mu.move.Type == "fire",
		mu.weather == battle.Rain && mu.move.Type == "water":
		return 1.5
	case mu.weather == battle.Sun && mu.move.Type == "water",
		mu.weather == battle.Rain && mu.move.Type == "fire":
		return 0.5
	}
	return 1
}

// damage computes the damage for one roll percentage in [85, 100].
func (mu *matchup) damage(roll int) int {
	if mu.immune() {
		return 0
	}
	if mu.move.FixedDamage == "level" {
		return mu.att.Level
	}
	level := float64(mu.att.Level)
	base := math.Floor(math.Floor(math.Floor(2*level/5+2)*float64(mu.move.Power)*mu.attackStat()/mu.defenseStat())/50) + 2
	d := math.Floor(base * mu.weatherModifier())
	if mu.crit {
		d = math.Floor(d * 1.5)
	}
	d = math.Floor(d * float64(roll) / 100)
	if mu.att.HasType(mu.move.Type) {
		if mu.attAbility == "adaptability" {
			d = math.Floor(d * 2)
		} else {
			d = math.Floor(d * 1.5)
		}
	}
	d = math.Floor(d * mu.eff)
	if mu.move.Category == dex.Physical && mu.att.Status == battle.Burn && mu.attAbility != "guts" {
		d = math.Floor(d / 2)
	}
	if mu.attItem == "lifeorb" {
		d = math.Floor(d * 1.3)
	}
	if mu.defAbility == "multiscale" && mu.def.HP == mu.def.MaxHP() {
		d = math.Floor(d / 2)
	}
	return max(1, int(d))
}
