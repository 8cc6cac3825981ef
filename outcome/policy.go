package outcome

import (
	"errors"

	"github.com/samber/lo"

	"github.com/domino14/foresight/battle"
)

// WeightedAction is an action with the probability the side plays it.
type WeightedAction struct {
	Action battle.Action
	Weight float64
}

// guesses hypothesises moves an opposing creature has not shown yet: the
// first few unseen entries of its species movepool.
func (e *Enumerator) guesses(pos *battle.Position, s battle.Side) ([]battle.Action, error) {
	if s != battle.Opp || e.cfg.OpponentMoveGuesses == 0 {
		return nil, nil
	}
	c := pos.Active(s)
	room := min(e.cfg.OpponentMoveGuesses, battle.MaxMoves-c.NumMoves)
	if c.Fainted() || room <= 0 {
		return nil, nil
	}
	sp, err := e.dex.Species(c.Species)
	if err != nil {
		return nil, err
	}
	var out []battle.Action
	for _, name := range sp.Movepool {
		if len(out) == room {
			break
		}
		if c.MoveIndex(name) < 0 {
			out = append(out, battle.GuessedMoveAction(name))
		}
	}
	return out, nil
}

// OpponentPolicy is the assumed distribution over the actions side s may
// take. Attacks share 1-SwitchPrior and switches share SwitchPrior, each
// uniformly; if either group is empty the other takes all the mass. A
// forced switch spreads evenly over the targets, and the waiting side
// passes. A side with nothing legal passes.
func (e *Enumerator) OpponentPolicy(pos *battle.Position, s battle.Side) ([]WeightedAction, error) {
	legal := pos.LegalActions(s)
	if ph := pos.Phase(); ph.Kind == battle.ForcedSwitch {
		if ph.Side != s || len(legal) == 0 {
			return []WeightedAction{{battle.PassAction, 1}}, nil
		}
		w := 1 / float64(len(legal))
		return lo.Map(legal, func(a battle.Action, _ int) WeightedAction {
			return WeightedAction{a, w}
		}), nil
	}

	moves := lo.Filter(legal, func(a battle.Action, _ int) bool { return a.Kind == battle.UseMove })
	switches := lo.Filter(legal, func(a battle.Action, _ int) bool { return a.Kind == battle.Switch })
	guessed, err := e.guesses(pos, s)
	if err != nil {
		return nil, err
	}
	moves = append(moves, guessed...)

	moveMass, switchMass := 1-e.cfg.SwitchPrior, e.cfg.SwitchPrior
	switch {
	case len(moves) == 0 && len(switches) == 0:
		return []WeightedAction{{battle.PassAction, 1}}, nil
	case len(switches) == 0:
		moveMass = 1
	case len(moves) == 0:
		switchMass = 1
	}
	policy := make([]WeightedAction, 0, len(moves)+len(switches))
	for _, a := range moves {
		policy = append(policy, WeightedAction{a, moveMass / float64(len(moves))})
	}
	for _, a := range switches {
		policy = append(policy, WeightedAction{a, switchMass / float64(len(switches))})
	}
	return lo.Filter(policy, func(w WeightedAction, _ int) bool { return w.Weight > 0 }), nil
}

// Expand enumerates every successor of side playing action, marginalised
// over the other side's policy. Replies whose branches are all rejected are
// dropped and the remaining mass renormalised.
func (e *Enumerator) Expand(pos *battle.Position, side battle.Side, action battle.Action) ([]Branch, error) {
	work, err := e.prepare(pos)
	if err != nil {
		return nil, err
	}
	policy, err := e.OpponentPolicy(work, side.Other())
	if err != nil {
		return nil, err
	}
	var branches []Branch
	var lastErr error
	for _, wa := range policy {
		bs, err := e.enumerate(work, side, action, wa.Action)
		if errors.Is(err, ErrNoBranches) {
			lastErr = err
			continue
		} else if err != nil {
			return nil, err
		}
		for i := range bs {
			bs[i].Prob *= wa.Weight
		}
		branches = append(branches, bs...)
	}
	if len(branches) == 0 {
		if lastErr == nil {
			lastErr = ErrNoBranches
		}
		return nil, lastErr
	}
	normalize(branches)
	return branches, nil
}
