package battle

import (
	"fmt"
	"strconv"

	"github.com/samber/lo"
)

type ActionKind uint8

const (
	Pass ActionKind = iota
	UseMove
	Switch
	Forfeit
)

// Action is one side's choice for a turn. A move is normally chosen by slot;
// a hypothesised opposing move that has not been observed yet carries its
// name and Slot -1.
type Action struct {
	Kind ActionKind
	Slot int
	Move string
}

var (
	PassAction    = Action{Kind: Pass, Slot: -1}
	ForfeitAction = Action{Kind: Forfeit, Slot: -1}
)

func MoveAction(slot int) Action {
	return Action{Kind: UseMove, Slot: slot}
}

func GuessedMoveAction(name string) Action {
	return Action{Kind: UseMove, Slot: -1, Move: name}
}

func SwitchAction(slot int) Action {
	return Action{Kind: Switch, Slot: slot}
}

func (a Action) IsGuess() bool {
	return a.Kind == UseMove && a.Slot < 0
}

func (a Action) String() string {
	switch a.Kind {
	case Pass:
		return "pass"
	case Forfeit:
		return "forfeit"
	case UseMove:
		if a.Slot < 0 {
			return "move:?" + a.Move
		}
		return "move:" + strconv.Itoa(a.Slot)
	case Switch:
		return "switch:" + strconv.Itoa(a.Slot)
	}
	return fmt.Sprintf("action(%d)", a.Kind)
}

// MoveName resolves the move an action uses for the given side, or "" if
// the action is not a move.
func (p *Position) MoveName(s Side, a Action) string {
	if a.Kind != UseMove {
		return ""
	}
	if a.Slot < 0 {
		return a.Move
	}
	c := p.Active(s)
	if a.Slot >= c.NumMoves {
		return ""
	}
	return c.Moves[a.Slot].Name
}

// Validate checks an action against the position's phase and roster.
func (p *Position) Validate(s Side, a Action) error {
	ph := p.Phase()
	if ph.Kind == ForcedSwitch {
		if ph.Side == s {
			if a.Kind != Switch {
				return fmt.Errorf("%w: %v must switch, got %v", ErrIllegalAction, s, a)
			}
		} else if a.Kind != Pass {
			return fmt.Errorf("%w: %v must wait for a forced switch, got %v", ErrIllegalAction, s, a)
		}
	}
	side := &p.Sides[s]
	switch a.Kind {
	case Pass, Forfeit:
		return nil
	case Switch:
		if a.Slot < 0 || a.Slot >= side.Size || a.Slot == side.Active {
			return fmt.Errorf("%w: %v cannot switch to slot %d", ErrIllegalAction, s, a.Slot)
		}
		c := &side.Team[a.Slot]
		if !c.Revealed || c.Fainted() {
			return fmt.Errorf("%w: %v slot %d is not available", ErrIllegalAction, s, a.Slot)
		}
		return nil
	case UseMove:
		c := side.ActiveCreature()
		if c.Fainted() {
			return fmt.Errorf("%w: %v active creature has fainted", ErrIllegalAction, s)
		}
		if a.Slot < 0 {
			if a.Move == "" {
				return fmt.Errorf("%w: %v guessed move has no name", ErrIllegalAction, s)
			}
			if c.MoveIndex(a.Move) < 0 && c.NumMoves >= MaxMoves {
				return fmt.Errorf("%w: %v cannot have a fifth move %s", ErrIllegalAction, s, a.Move)
			}
			return nil
		}
		if a.Slot >= c.NumMoves {
			return fmt.Errorf("%w: %v has no move in slot %d", ErrIllegalAction, s, a.Slot)
		}
		if c.Moves[a.Slot].PP <= 0 {
			return fmt.Errorf("%w: %v move %s has no PP left", ErrIllegalAction, s, c.Moves[a.Slot].Name)
		}
		return nil
	}
	return fmt.Errorf("%w: unknown action kind %d", ErrIllegalAction, a.Kind)
}

// LegalActions lists a side's legal actions from observed information only:
// known moves with PP left and available switch targets. A side that is
// waiting on the other side's forced switch can only pass.
func (p *Position) LegalActions(s Side) []Action {
	ph := p.Phase()
	side := &p.Sides[s]
	switches := lo.Map(side.SwitchTargets(), func(t int, _ int) Action {
		return SwitchAction(t)
	})
	if ph.Kind == ForcedSwitch {
		if ph.Side != s {
			return []Action{PassAction}
		}
		return switches
	}
	var actions []Action
	c := side.ActiveCreature()
	if !c.Fainted() {
		for i := 0; i < c.NumMoves; i++ {
			if c.Moves[i].PP > 0 {
				actions = append(actions, MoveAction(i))
			}
		}
	}
	return append(actions, switches...)
}
