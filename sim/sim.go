// Package sim is a compact reference rules engine and damage calculator.
// It covers enough of the battle rules to drive the search end to end:
// turn order, damage, accuracy, crits, status, stat stages, hazards,
// residual damage and fainting. Random outcomes can be pinned per side.
package sim

import (
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"
	"lukechampine.com/frand"

	"github.com/domino14/foresight/battle"
	"github.com/domino14/foresight/dex"
	"github.com/domino14/foresight/engine"
)

// sleepTurns is how many turns sleep and freeze prevent moving.
const sleepTurns = 2

// Engine implements engine.RulesEngine and engine.DamageCalculator.
// It holds no per-position state and is safe for concurrent use.
type Engine struct {
	dex dex.Dex
}

func New(d dex.Dex) *Engine {
	return &Engine{dex: d}
}

func (e *Engine) Clone(pos *battle.Position) *battle.Position {
	return pos.Copy()
}

// Apply resolves one turn. During a forced-switch phase only the pending
// switch is performed.
func (e *Engine) Apply(pos *battle.Position, actions [2]battle.Action, forced engine.Forced) (*battle.Position, error) {
	for _, s := range []battle.Side{battle.Own, battle.Opp} {
		if err := pos.Validate(s, actions[s]); err != nil {
			return nil, err
		}
	}
	for _, s := range []battle.Side{battle.Own, battle.Opp} {
		if actions[s].Kind == battle.Forfeit {
			e.forfeit(pos, s)
			return pos, nil
		}
	}

	if ph := pos.Phase(); ph.Kind == battle.ForcedSwitch {
		pos.PopSwitch()
		if err := e.switchIn(pos, ph.Side, actions[ph.Side].Slot); err != nil {
			return nil, err
		}
		return pos, nil
	}

	order, err := e.order(pos, actions)
	if err != nil {
		return nil, err
	}
	for _, s := range order {
		a := actions[s]
		switch a.Kind {
		case battle.Switch:
			err = e.switchIn(pos, s, a.Slot)
		case battle.UseMove:
			err = e.useMove(pos, s, a, forced[s])
		}
		if err != nil {
			return nil, err
		}
	}
	e.endOfTurn(pos)
	pos.Turn++
	return pos, nil
}

func (e *Engine) forfeit(pos *battle.Position, s battle.Side) {
	side := pos.Side(s)
	for i := 0; i < side.Size; i++ {
		side.Team[i].Revealed = true
		side.Team[i].HP = 0
	}
	pos.NumPending = 0
}

// speed is the effective speed used for turn order.
func (e *Engine) speed(c *battle.Creature) float64 {
	spe := float64(c.Stats.Spe) * battle.Multiplier(c.Boosts[battle.Spe])
	if c.Status == battle.Paralysis {
		spe *= 0.5
	}
	if c.ItemKnown && c.Item == "choicescarf" {
		spe *= 1.5
	}
	return spe
}

// order returns the sides in the order they act: switches first, then
// moves by priority and speed. Ties go to Own.
func (e *Engine) order(pos *battle.Position, actions [2]battle.Action) ([]battle.Side, error) {
	type mover struct {
		side     battle.Side
		switches bool
		priority int
		speed    float64
	}
	movers := make([]mover, 0, 2)
	for _, s := range []battle.Side{battle.Own, battle.Opp} {
		a := actions[s]
		mv := mover{side: s, speed: e.speed(pos.Active(s))}
		switch a.Kind {
		case battle.Switch:
			mv.switches = true
		case battle.UseMove:
			m, err := e.dex.Move(pos.MoveName(s, a))
			if err != nil {
				return nil, err
			}
			mv.priority = m.Priority
		default:
			continue
		}
		movers = append(movers, mv)
	}
	sort.SliceStable(movers, func(i, j int) bool {
		a, b := movers[i], movers[j]
		if a.switches != b.switches {
			return a.switches
		}
		if a.switches {
			return false
		}
		if a.priority != b.priority {
			return a.priority > b.priority
		}
		return a.speed > b.speed
	})
	order := make([]battle.Side, len(movers))
	for i, mv := range movers {
		order[i] = mv.side
	}
	return order, nil
}

func grounded(c *battle.Creature) bool {
	return !c.HasType("flying") && c.Ability != "levitate"
}

func (e *Engine) switchIn(pos *battle.Position, s battle.Side, slot int) error {
	side := pos.Side(s)
	side.ActiveCreature().ClearVolatiles()
	side.Active = slot
	c := side.ActiveCreature()
	h := side.Hazards
	if c.Ability != "magicguard" {
		if h.StealthRock {
			eff, err := e.dex.Effectiveness("rock", c.TypeList())
			if err != nil {
				return err
			}
			c.HP -= int(float64(c.MaxHP()) * eff / 8)
		}
		if h.Spikes > 0 && grounded(c) {
			c.HP -= c.MaxHP() * []int{0, 2, 3, 4}[min(h.Spikes, 3)] / 16
		}
	}
	if h.ToxicSpikes > 0 && grounded(c) {
		if c.HasType("poison") {
			side.Hazards.ToxicSpikes = 0
		} else if h.ToxicSpikes == 1 {
			inflict(c, battle.Poison)
		} else {
			inflict(c, battle.Toxic)
		}
	}
	if h.StickyWeb && grounded(c) {
		c.Boosts.Add(battle.Spe, -1)
	}
	if c.HP <= 0 {
		c.HP = 0
		fainted(pos, s)
	}
	return nil
}

// fainted queues a replacement if the side has anything left to send out,
// seen or not.
func fainted(pos *battle.Position, s battle.Side) {
	if pos.Side(s).Remaining() > 0 {
		pos.QueueSwitch(s)
	}
	log.Trace().Str("side", s.String()).Str("species", pos.Active(s).Species).Msg("creature-fainted")
}

// inflict sets a major status if the creature can receive it.
func inflict(c *battle.Creature, st battle.Status) bool {
	if st == battle.StatusNone || c.Fainted() || c.Status != battle.StatusNone {
		return false
	}
	switch st {
	case battle.Burn:
		if c.HasType("fire") {
			return false
		}
	case battle.Paralysis:
		if c.HasType("electric") {
			return false
		}
	case battle.Poison, battle.Toxic:
		if c.HasType("poison") || c.HasType("steel") || c.Ability == "immunity" {
			return false
		}
	case battle.Freeze:
		if c.HasType("ice") {
			return false
		}
	}
	c.Status = st
	c.StatusTurns = 0
	if st == battle.Sleep || st == battle.Freeze {
		c.StatusTurns = sleepTurns
	}
	return true
}

func applyBoosts(c *battle.Creature, boosts map[battle.Stat]int) {
	for st, n := range boosts {
		c.Boosts.Add(st, n)
	}
}

func heal(c *battle.Creature, amount int) {
	c.HP = min(c.MaxHP(), c.HP+amount)
}

func (e *Engine) useMove(pos *battle.Position, s battle.Side, a battle.Action, roll *engine.Roll) error {
	att := pos.Active(s)
	if att.Fainted() {
		return nil
	}
	if att.Status == battle.Sleep || att.Status == battle.Freeze {
		if att.StatusTurns > 0 {
			att.StatusTurns--
			return nil
		}
		att.Status = battle.StatusNone
	}

	name := pos.MoveName(s, a)
	m, err := e.dex.Move(name)
	if err != nil {
		return err
	}
	slot := a.Slot
	if a.IsGuess() {
		if err := pos.RevealMove(s, pos.Side(s).Active, m.Name, m.PP); err != nil {
			return fmt.Errorf("%w: %v", battle.ErrIllegalAction, err)
		}
		slot = att.MoveIndex(m.Name)
	}
	if att.Moves[slot].PP <= 0 {
		return fmt.Errorf("%w: %s has no PP left", battle.ErrIllegalAction, m.Name)
	}
	att.Moves[slot].PP--

	if m.Target == dex.TargetSelf {
		e.selfEffects(att, m)
		return nil
	}
	o := s.Other()
	def := pos.Active(o)
	if def.Fainted() {
		return nil
	}

	hit, crit, secondary, err := e.resolve(pos, s, m, roll)
	if err != nil {
		return err
	}
	if !hit {
		log.Trace().Str("move", m.Name).Msg("move-missed")
		return nil
	}

	if m.Damaging() {
		dmg, err := e.rollDamage(pos, s, m, crit, roll)
		if err != nil {
			return err
		}
		if dmg == 0 {
			return nil
		}
		dealt := min(dmg, def.HP)
		def.HP -= dealt
		if att.ItemKnown && att.Item == "lifeorb" && att.Ability != "magicguard" {
			att.HP = max(0, att.HP-att.MaxHP()/10)
		}
	} else {
		eff, err := e.dex.Effectiveness(m.Type, def.TypeList())
		if err != nil {
			return err
		}
		if eff > 0 {
			inflict(def, m.Status)
			applyBoosts(def, m.Boosts)
		}
		e.layHazard(pos.Side(o), m.Hazard)
	}

	if secondary && m.Secondary != nil {
		sec := m.Secondary
		if sec.Self {
			applyBoosts(att, sec.Boosts)
		} else if !def.Fainted() {
			inflict(def, sec.Status)
			applyBoosts(def, sec.Boosts)
		}
	}

	if def.Fainted() {
		fainted(pos, o)
	}
	if att.Fainted() {
		fainted(pos, s)
	}
	return nil
}

func (e *Engine) selfEffects(c *battle.Creature, m *dex.Move) {
	if m.SelfStatus != battle.StatusNone {
		c.Status = m.SelfStatus
		c.StatusTurns = 0
		if m.SelfStatus == battle.Sleep {
			c.StatusTurns = sleepTurns
		}
	}
	if m.Heal > 0 {
		heal(c, c.MaxHP()*m.Heal/100)
	}
	applyBoosts(c, m.Boosts)
}

func (e *Engine) layHazard(side *battle.SideState, hazard string) {
	h := &side.Hazards
	switch hazard {
	case "stealthrock":
		h.StealthRock = true
	case "spikes":
		h.Spikes = min(h.Spikes+1, 3)
	case "toxicspikes":
		h.ToxicSpikes = min(h.ToxicSpikes+1, 2)
	case "stickyweb":
		h.StickyWeb = true
	}
}

// resolve decides hit, crit and secondary trigger, from the pinned roll if
// one is given.
func (e *Engine) resolve(pos *battle.Position, s battle.Side, m *dex.Move, roll *engine.Roll) (hit, crit, secondary bool, err error) {
	if roll != nil {
		return !roll.Miss, roll.Crit, roll.Secondary, nil
	}
	att, def := pos.Active(s), pos.Active(s.Other())
	stage := int(att.Boosts[battle.Accuracy]) - int(def.Boosts[battle.Evasion])
	if frand.Float64() >= m.HitChance(stage) {
		return false, false, false, nil
	}
	crit = frand.Float64() < m.CritChance()
	if m.Secondary != nil {
		secondary = frand.Intn(100) < m.Secondary.Chance
	}
	return true, crit, secondary, nil
}

func (e *Engine) rollDamage(pos *battle.Position, s battle.Side, m *dex.Move, crit bool, roll *engine.Roll) (int, error) {
	if roll != nil && roll.Damage >= 0 {
		return roll.Damage, nil
	}
	dist, err := e.Distribution(pos, s, m.Name, crit)
	if err != nil {
		return 0, err
	}
	x := frand.Float64() * dist.Total()
	for _, dm := range dist {
		x -= dm.Mass
		if x < 0 {
			return dm.Damage, nil
		}
	}
	return dist.Max(), nil
}

// endOfTurn applies residual damage and healing to both active creatures.
func (e *Engine) endOfTurn(pos *battle.Position) {
	for _, s := range []battle.Side{battle.Own, battle.Opp} {
		c := pos.Active(s)
		if c.Fainted() {
			continue
		}
		maxHP := c.MaxHP()
		if c.Ability != "magicguard" {
			switch {
			case (c.Status == battle.Poison || c.Status == battle.Toxic) && c.Ability == "poisonheal":
				heal(c, maxHP/8)
			case c.Status == battle.Burn:
				c.HP -= max(1, maxHP/16)
			case c.Status == battle.Poison:
				c.HP -= max(1, maxHP/8)
			case c.Status == battle.Toxic:
				c.StatusTurns++
				c.HP -= max(1, maxHP*c.StatusTurns/16)
			}
		}
		if c.ItemKnown && c.Item == "leftovers" && c.HP > 0 {
			heal(c, maxHP/16)
		}
		if c.HP <= 0 {
			c.HP = 0
			fainted(pos, s)
		}
	}
}
