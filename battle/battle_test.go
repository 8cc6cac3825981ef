package battle

import (
	"bytes"
	"errors"
	"testing"

	"github.com/matryer/is"
)

func mon(species string, hp int, moves ...string) Creature {
	c := Creature{
		Species:   species,
		Level:     80,
		Types:     [2]string{"normal", ""},
		Stats:     Stats{HP: hp, Atk: 200, Def: 200, SpA: 200, SpD: 200, Spe: 200},
		HP:        hp,
		Ability:   "pressure",
		ItemKnown: true,
		Revealed:  true,
	}
	for _, m := range moves {
		c.addMove(m, 16)
	}
	return c
}

func testPosition() *Position {
	p := &Position{}
	p.Sides[Own].Size = 3
	p.Sides[Own].Team[0] = mon("garchomp", 300, "earthquake", "dragonclaw", "swordsdance", "stoneedge")
	p.Sides[Own].Team[1] = mon("toxapex", 250, "scald", "recover", "toxic", "haze")
	p.Sides[Own].Team[2] = mon("heatran", 280, "magmastorm", "earthpower", "taunt", "stealthrock")
	p.Sides[Opp].Size = 6
	opp := mon("ferrothorn", 260, "powerwhip")
	opp.Ability = ""
	opp.ItemKnown = false
	p.Sides[Opp].Team[0] = opp
	return p
}

func TestCopyIsIndependent(t *testing.T) {
	is := is.New(t)
	p := testPosition()
	cp := p.Copy()
	cp.Sides[Own].Team[0].HP = 1
	cp.Sides[Own].Team[0].Moves[0].PP = 0
	cp.Sides[Own].Team[0].Boosts.Add(Atk, 2)
	is.Equal(p.Sides[Own].Team[0].HP, 300)
	is.Equal(p.Sides[Own].Team[0].Moves[0].PP, 16)
	is.Equal(p.Sides[Own].Team[0].Boosts[Atk], int8(0))
	is.True(Equal(p, p.Copy(), EqualOptions{}))
}

func TestBoostsClamp(t *testing.T) {
	is := is.New(t)
	var b Boosts
	b.Add(Atk, 4)
	b.Add(Atk, 4)
	is.Equal(b[Atk], int8(6))
	b.Add(Spe, -9)
	is.Equal(b[Spe], int8(-6))
	is.Equal(Multiplier(2), 2.0)
	is.Equal(Multiplier(-2), 0.5)
	is.Equal(AccuracyMultiplier(-3), 0.5)
}

func TestPhaseDoubleFaint(t *testing.T) {
	is := is.New(t)
	p := testPosition()
	is.Equal(p.Phase(), Phase{Kind: Normal})

	p.QueueSwitch(Opp)
	p.QueueSwitch(Own)
	p.QueueSwitch(Opp)
	is.Equal(p.NumPending, 2)
	is.Equal(p.Phase(), Phase{Kind: ForcedSwitch, Side: Opp})

	p.PopSwitch()
	is.Equal(p.Phase(), Phase{Kind: ForcedSwitch, Side: Own})
	p.PopSwitch()
	is.Equal(p.Phase(), Phase{Kind: Normal})
}

func TestLegalActions(t *testing.T) {
	is := is.New(t)
	p := testPosition()
	p.Sides[Own].Team[0].Moves[3].PP = 0
	p.Sides[Own].Team[2].HP = 0

	actions := p.LegalActions(Own)
	is.Equal(actions, []Action{MoveAction(0), MoveAction(1), MoveAction(2), SwitchAction(1)})

	// Unrevealed opposing slots are never switch targets.
	is.Equal(p.LegalActions(Opp), []Action{MoveAction(0)})

	p.Sides[Own].Team[0].HP = 0
	p.QueueSwitch(Own)
	is.Equal(p.LegalActions(Own), []Action{SwitchAction(1)})
	is.Equal(p.LegalActions(Opp), []Action{PassAction})
}

func TestValidate(t *testing.T) {
	is := is.New(t)
	p := testPosition()
	is.NoErr(p.Validate(Own, MoveAction(0)))
	is.NoErr(p.Validate(Own, SwitchAction(2)))
	is.NoErr(p.Validate(Opp, GuessedMoveAction("leechseed")))

	p.Sides[Own].Team[0].Moves[1].PP = 0
	is.True(errors.Is(p.Validate(Own, MoveAction(1)), ErrIllegalAction))
	is.True(errors.Is(p.Validate(Own, SwitchAction(0)), ErrIllegalAction))
	is.True(errors.Is(p.Validate(Own, SwitchAction(4)), ErrIllegalAction))
	is.True(errors.Is(p.Validate(Opp, SwitchAction(1)), ErrIllegalAction))

	p.QueueSwitch(Opp)
	is.True(errors.Is(p.Validate(Own, MoveAction(0)), ErrIllegalAction))
	is.NoErr(p.Validate(Own, PassAction))
}

func TestActionStrings(t *testing.T) {
	is := is.New(t)
	is.Equal(MoveAction(2).String(), "move:2")
	is.Equal(GuessedMoveAction("knockoff").String(), "move:?knockoff")
	is.Equal(SwitchAction(4).String(), "switch:4")
	is.Equal(PassAction.String(), "pass")
	is.Equal(ForfeitAction.String(), "forfeit")
}

func TestRevealMoveCapsAtFour(t *testing.T) {
	is := is.New(t)
	p := testPosition()
	for _, m := range []string{"leechseed", "gyroball", "powerwhip", "spikes"} {
		is.NoErr(p.RevealMove(Opp, 0, m, 16))
	}
	is.Equal(p.Sides[Opp].Team[0].NumMoves, 4)
	err := p.RevealMove(Opp, 0, "knockoff", 32)
	is.True(errors.Is(err, ErrMoveLimit))
	is.Equal(p.Sides[Opp].Team[0].NumMoves, 4)
	is.True(errors.Is(p.Validate(Opp, GuessedMoveAction("knockoff")), ErrIllegalAction))
}

func TestConfirmCollapsesCandidates(t *testing.T) {
	is := is.New(t)
	p := testPosition()
	is.NoErr(p.SetCandidates(Opp, 0, []string{"ironbarbs", "anticipation"}, []string{"leftovers", "rockyhelmet"}))
	c := &p.Sides[Opp].Team[0]
	is.Equal(len(c.AbilityCandidates()), 2)
	is.Equal(len(c.ItemCandidates()), 2)

	shared := p.Copy()
	is.NoErr(p.ConfirmAbility(Opp, 0, "ironbarbs"))
	is.NoErr(p.ConfirmItem(Opp, 0, "leftovers"))
	is.Equal(c.AbilityCandidates(), []string{"ironbarbs"})
	is.Equal(c.ItemCandidates(), []string{"leftovers"})
	// The copy taken before confirmation keeps its own belief.
	is.Equal(len(shared.Sides[Opp].Team[0].AbilityCandidates()), 2)
}

func TestObserveHP(t *testing.T) {
	is := is.New(t)
	p := testPosition()
	is.NoErr(p.ObserveHPFraction(Opp, 0, 0.5))
	is.Equal(p.Sides[Opp].Team[0].HP, 130)
	is.NoErr(p.ObserveHP(Opp, 0, 9999))
	is.Equal(p.Sides[Opp].Team[0].HP, 260)
	is.True(errors.Is(p.ObserveHP(Opp, 0+MaxTeam, 1), ErrBadSlot))
	is.NoErr(p.ObserveStatus(Opp, 0, Burn))
	is.Equal(p.Sides[Opp].Team[0].Status, Burn)

	is.NoErr(p.ObserveBoost(Opp, 0, Atk, 2))
	is.NoErr(p.ObserveBoost(Opp, 0, Atk, 9))
	is.Equal(p.Sides[Opp].Team[0].Boosts[Atk], int8(MaxStage))
	is.True(p.ObserveBoost(Opp, 0, NumBoosts, 1) != nil)
}

func TestAwaitingReveal(t *testing.T) {
	is := is.New(t)
	p := testPosition()
	is.True(!p.AwaitingReveal())

	// Only unseen slots are left behind the fainted opposing active.
	p.Sides[Opp].Team[0].HP = 0
	p.QueueSwitch(Opp)
	is.Equal(p.Phase(), Phase{Kind: ForcedSwitch, Side: Opp})
	is.True(p.AwaitingReveal())
	is.True(!p.Over())
	is.Equal(len(p.LegalActions(Opp)), 0)
	is.Equal(p.LegalActions(Own), []Action{PassAction})

	// Once a reserve is seen it can be named.
	is.NoErr(p.RevealCreature(Opp, 1, mon("gengar", 200, "shadowball")))
	is.True(!p.AwaitingReveal())
	is.Equal(p.LegalActions(Opp), []Action{SwitchAction(1)})
}

func TestNewPositionAssumesFullOpposingRoster(t *testing.T) {
	is := is.New(t)
	p := NewPosition()
	is.NoErr(p.RevealCreature(Own, 0, mon("garchomp", 300, "earthquake")))
	is.NoErr(p.RevealCreature(Opp, 0, mon("heatran", 280, "magmastorm")))
	is.Equal(p.Sides[Own].Size, 1)
	is.Equal(p.Sides[Opp].Size, MaxTeam)
	is.Equal(p.Sides[Opp].Remaining(), MaxTeam)
	is.Equal(p.Sides[Opp].SwitchTargets(), []int(nil))
}

func TestEqualAndKeyAgree(t *testing.T) {
	is := is.New(t)
	a := testPosition()
	b := a.Copy()
	b.Sides[Own].Team[1].HP -= 10

	is.True(!Equal(a, b, EqualOptions{}))
	is.True(Equal(a, b, EqualOptions{IgnoreHP: true}))
	is.True(!bytes.Equal(a.AppendKey(nil, EqualOptions{}), b.AppendKey(nil, EqualOptions{})))
	is.True(bytes.Equal(a.AppendKey(nil, EqualOptions{IgnoreHP: true}), b.AppendKey(nil, EqualOptions{IgnoreHP: true})))

	// Unrevealed slots compare equal whatever they hold.
	c := a.Copy()
	c.Sides[Opp].Team[3].Species = "ghost"
	is.True(Equal(a, c, EqualOptions{}))

	// A fainted creature never matches a live one, even ignoring HP.
	d := a.Copy()
	d.Sides[Own].Team[1].HP = 0
	is.True(!Equal(a, d, EqualOptions{IgnoreHP: true}))
}

func TestOver(t *testing.T) {
	is := is.New(t)
	p := testPosition()
	is.True(!p.Over())
	for i := 0; i < 3; i++ {
		p.Sides[Own].Team[i].HP = 0
	}
	is.True(p.Defeated(Own))
	is.True(p.Over())
	// Five opposing slots are unrevealed, so the opponent is never defeated
	// by knocking out the one creature we have seen.
	p.Sides[Opp].Team[0].HP = 0
	is.True(!p.Defeated(Opp))
}
