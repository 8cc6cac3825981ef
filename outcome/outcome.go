// Package outcome expands a pair of committed actions into every
// probability-weighted successor position, using a rules engine that can be
// told which random outcome to realise.
package outcome

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/floats/scalar"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/domino14/foresight/battle"
	"github.com/domino14/foresight/candidates"
	"github.com/domino14/foresight/config"
	"github.com/domino14/foresight/dex"
	"github.com/domino14/foresight/engine"
)

// ErrNoBranches is returned when every successor of an action pair was
// rejected by the rules engine.
var ErrNoBranches = errors.New("no outcome branches")

// massTolerance bounds rounding drift in branch probabilities.
const massTolerance = 1e-6

// Branch is one successor with its probability. Action is the chooser's
// action and Reply the other side's action that produced it.
type Branch struct {
	Position *battle.Position
	Prob     float64
	Action   battle.Action
	Reply    battle.Action
}

type roll struct {
	r *engine.Roll
	p float64
}

type Enumerator struct {
	cfg        *config.Config
	dex        dex.Dex
	rules      engine.RulesEngine
	damage     engine.DamageCalculator
	candidates *candidates.Enumerator
}

func NewEnumerator(cfg *config.Config, d dex.Dex, rules engine.RulesEngine, damage engine.DamageCalculator) *Enumerator {
	return &Enumerator{
		cfg:        cfg,
		dex:        d,
		rules:      rules,
		damage:     damage,
		candidates: candidates.New(d),
	}
}

// prepare returns a private copy of pos with candidate sets filled in for
// every revealed creature whose ability or item is unconfirmed.
func (e *Enumerator) prepare(pos *battle.Position) (*battle.Position, error) {
	work := e.rules.Clone(pos)
	for _, s := range []battle.Side{battle.Own, battle.Opp} {
		side := work.Side(s)
		for i := 0; i < side.Size; i++ {
			if candidates.NeedsFill(&side.Team[i]) {
				if err := e.candidates.Fill(work, s); err != nil {
					return nil, err
				}
				break
			}
		}
	}
	return work, nil
}

// Enumerate realises every outcome of side playing action while the other
// side plays reply. Probabilities sum to one. Outcomes the rules engine
// rejects as illegal are dropped and the rest renormalised; if none
// survive, ErrNoBranches is returned.
func (e *Enumerator) Enumerate(pos *battle.Position, side battle.Side, action, reply battle.Action) ([]Branch, error) {
	work, err := e.prepare(pos)
	if err != nil {
		return nil, err
	}
	return e.enumerate(work, side, action, reply)
}

func (e *Enumerator) enumerate(work *battle.Position, side battle.Side, action, reply battle.Action) ([]Branch, error) {
	var err error
	var actions [2]battle.Action
	actions[side] = action
	actions[side.Other()] = reply

	var rolls [2][]roll
	for _, s := range []battle.Side{battle.Own, battle.Opp} {
		rolls[s], err = e.rolls(work, s, actions)
		if err != nil {
			return nil, err
		}
	}

	leaves := combin.Cartesian([]int{len(rolls[battle.Own]), len(rolls[battle.Opp])})
	branches := make([]Branch, 0, len(leaves))
	var lastErr error
	for _, leaf := range leaves {
		r0, r1 := rolls[battle.Own][leaf[0]], rolls[battle.Opp][leaf[1]]
		succ, err := e.rules.Apply(e.rules.Clone(work), actions, engine.Forced{r0.r, r1.r})
		if errors.Is(err, battle.ErrIllegalAction) {
			log.Debug().Err(err).Str("own", actions[battle.Own].String()).
				Str("opp", actions[battle.Opp].String()).Msg("branch-dropped")
			lastErr = err
			continue
		} else if err != nil {
			return nil, err
		}
		branches = append(branches, Branch{
			Position: succ,
			Prob:     r0.p * r1.p,
			Action:   action,
			Reply:    reply,
		})
	}
	if len(branches) == 0 {
		return nil, fmt.Errorf("%w: %v vs %v: %v", ErrNoBranches, action, reply, lastErr)
	}
	normalize(branches)
	return branches, nil
}

// normalize rescales branch probabilities to sum to one.
func normalize(branches []Branch) {
	probs := make([]float64, len(branches))
	for i := range branches {
		probs[i] = branches[i].Prob
	}
	total := floats.Sum(probs)
	if scalar.EqualWithinAbs(total, 1, massTolerance) || total <= 0 {
		return
	}
	floats.Scale(1/total, probs)
	for i := range branches {
		branches[i].Prob = probs[i]
	}
}

// TotalMass sums branch probabilities.
func TotalMass(branches []Branch) float64 {
	probs := make([]float64, len(branches))
	for i := range branches {
		probs[i] = branches[i].Prob
	}
	return floats.Sum(probs)
}

// target returns a view of pos in which s's target is the creature that
// will actually be on the field when s's move lands. Switches resolve
// before moves, so a switching opponent is hit on its way in.
func target(pos *battle.Position, s battle.Side, actions [2]battle.Action) *battle.Position {
	o := s.Other()
	if pos.Phase().Kind != battle.Normal || actions[o].Kind != battle.Switch {
		return pos
	}
	view := pos.Copy()
	view.Sides[o].Active = actions[o].Slot
	return view
}

// rolls lists the pinned outcomes of one side's action with their
// probabilities.
func (e *Enumerator) rolls(pos *battle.Position, s battle.Side, actions [2]battle.Action) ([]roll, error) {
	a := actions[s]
	if a.Kind != battle.UseMove || pos.Phase().Kind != battle.Normal {
		return []roll{{nil, 1}}, nil
	}
	name := pos.MoveName(s, a)
	m, err := e.dex.Move(name)
	if err != nil {
		return nil, err
	}
	view := target(pos, s, actions)
	att, def := view.Active(s), view.Active(s.Other())
	hitChance := m.HitChance(int(att.Boosts[battle.Accuracy]) - int(def.Boosts[battle.Evasion]))

	var hits []roll
	if !m.Damaging() {
		hits = []roll{{&engine.Roll{Damage: -1}, 1}}
	} else {
		c := m.CritChance()
		crits := []roll{{&engine.Roll{}, 1 - c}, {&engine.Roll{Crit: true}, c}}
		for _, cr := range crits {
			if cr.p <= 0 {
				continue
			}
			dist, err := e.damage.Distribution(view, s, m.Name, cr.r.Crit)
			if err != nil {
				return nil, err
			}
			for _, dm := range e.discretise(dist) {
				hits = append(hits, roll{&engine.Roll{Crit: cr.r.Crit, Damage: dm.Damage}, cr.p * dm.Mass})
			}
		}
	}

	if sec := m.Secondary; sec != nil {
		p := float64(sec.Chance) / 100
		split := make([]roll, 0, 2*len(hits))
		for _, h := range hits {
			on := *h.r
			on.Secondary = true
			split = append(split, roll{&on, h.p * p})
			if p < 1 {
				split = append(split, roll{h.r, h.p * (1 - p)})
			}
		}
		hits = split
	}

	out := make([]roll, 0, len(hits)+1)
	for _, h := range hits {
		out = append(out, roll{h.r, h.p * hitChance})
	}
	if hitChance < 1 {
		out = append(out, roll{&engine.Roll{Miss: true, Damage: -1}, 1 - hitChance})
	}
	log.Trace().Str("side", s.String()).Str("move", m.Name).Int("rolls", len(out)).Msg("rolls-enumerated")
	return out, nil
}

// discretise reduces a damage distribution to the configured branch set:
// its minimum and maximum at half mass each, or every value.
func (e *Enumerator) discretise(dist engine.Distribution) engine.Distribution {
	if len(dist) == 0 {
		return engine.Distribution{{Damage: 0, Mass: 1}}
	}
	if dist.Min() == dist.Max() {
		return engine.Distribution{{Damage: dist.Min(), Mass: 1}}
	}
	if e.cfg.DamageRolls == config.DamageRollsFull {
		total := dist.Total()
		out := make(engine.Distribution, len(dist))
		for i, dm := range dist {
			out[i] = engine.DamageMass{Damage: dm.Damage, Mass: dm.Mass / total}
		}
		return out
	}
	return engine.Distribution{
		{Damage: dist.Min(), Mass: 0.5},
		{Damage: dist.Max(), Mass: 0.5},
	}
}
