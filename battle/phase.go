package battle

type PhaseKind uint8

const (
	Normal PhaseKind = iota
	ForcedSwitch
)

// Phase is the per-ply rule state: either both sides choose freely, or one
// side must first replace a fainted active creature.
type Phase struct {
	Kind PhaseKind
	Side Side
}

func (ph Phase) String() string {
	if ph.Kind == ForcedSwitch {
		return "forced-switch(" + ph.Side.String() + ")"
	}
	return "normal"
}

// Phase derives the rule state from the forced-switch queue. When both
// active creatures faint in the same turn the queue holds both sides and the
// position stays in ForcedSwitch until the second side has switched.
func (p *Position) Phase() Phase {
	if p.NumPending == 0 {
		return Phase{Kind: Normal}
	}
	return Phase{Kind: ForcedSwitch, Side: p.Pending[0]}
}

// AwaitingReveal reports whether the side that must switch has no known
// creature to send in, only roster slots that have not been seen yet. What
// comes in cannot be modelled until it is revealed.
func (p *Position) AwaitingReveal() bool {
	ph := p.Phase()
	return ph.Kind == ForcedSwitch && len(p.Sides[ph.Side].SwitchTargets()) == 0
}
