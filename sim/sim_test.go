package sim

import (
	"errors"
	"os"
	"testing"

	"github.com/matryer/is"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/foresight/battle"
	"github.com/domino14/foresight/dex"
	"github.com/domino14/foresight/engine"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	os.Exit(m.Run())
}

var testDex = func() *dex.Pokedex {
	d, err := dex.Default()
	if err != nil {
		panic(err)
	}
	return d
}()

type spec struct {
	species string
	ability string
	item    string
	moves   []string
}

func build(t *testing.T, own, opp []spec) *battle.Position {
	t.Helper()
	p := &battle.Position{}
	for side, team := range [][]spec{own, opp} {
		for i, sp := range team {
			c, err := dex.BuildCreature(testDex, sp.species, 80, sp.ability, sp.item, sp.moves)
			if err != nil {
				t.Fatal(err)
			}
			if err := p.RevealCreature(battle.Side(side), i, c); err != nil {
				t.Fatal(err)
			}
		}
	}
	return p
}

func hit(dmg int) *engine.Roll {
	return &engine.Roll{Damage: dmg}
}

func TestDistributionBasics(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	p := build(t,
		[]spec{{species: "garchomp", moves: []string{"earthquake", "dragonclaw"}}},
		[]spec{{species: "heatran", moves: []string{"magmastorm"}}, {species: "dragonite", moves: []string{"roost"}}})

	dist, err := e.Distribution(p, battle.Own, "earthquake", false)
	is.NoErr(err)
	is.True(len(dist) > 1)
	is.True(len(dist) <= numRolls)
	assert.InDelta(t, 1.0, dist.Total(), 1e-9)
	is.True(dist.Min() < dist.Max())
	for i := 1; i < len(dist); i++ {
		is.True(dist[i-1].Damage < dist[i].Damage)
	}

	crit, err := e.Distribution(p, battle.Own, "earthquake", true)
	is.NoErr(err)
	is.True(crit.Min() > dist.Min())

	neutral, err := e.Distribution(p, battle.Own, "dragonclaw", false)
	is.NoErr(err)
	is.True(neutral.Max() < dist.Min())

	// Ground moves do nothing to a flying type.
	is.NoErr(p.ObserveSwitch(battle.Opp, 1))
	immune, err := e.Distribution(p, battle.Own, "earthquake", false)
	is.NoErr(err)
	is.Equal(immune, engine.Distribution{{Damage: 0, Mass: 1}})

	_, err = e.Distribution(p, battle.Own, "hyperbeamx", false)
	is.True(errors.Is(err, dex.ErrUnknownEntity))
}

func TestDistributionFixedDamage(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	p := build(t,
		[]spec{{species: "blissey", moves: []string{"seismictoss"}}},
		[]spec{{species: "garchomp", moves: []string{"earthquake"}}, {species: "gengar", moves: []string{"shadowball"}}})
	dist, err := e.Distribution(p, battle.Own, "seismictoss", false)
	is.NoErr(err)
	is.Equal(dist, engine.Distribution{{Damage: 80, Mass: 1}})

	is.NoErr(p.ObserveSwitch(battle.Opp, 1))
	dist, err = e.Distribution(p, battle.Own, "seismictoss", false)
	is.NoErr(err)
	is.Equal(dist, engine.Distribution{{Damage: 0, Mass: 1}})
}

func TestDistributionAveragesCandidates(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	p := build(t,
		[]spec{{species: "garchomp", moves: []string{"dragonclaw"}}},
		[]spec{{species: "snorlax", moves: []string{"bodyslam"}}})

	plain, err := e.Distribution(p, battle.Opp, "bodyslam", false)
	is.NoErr(err)

	opp := &p.Sides[battle.Opp].Team[0]
	opp.Item = ""
	opp.ItemKnown = false
	opp.Items = []string{"", "choiceband"}
	mixed, err := e.Distribution(p, battle.Opp, "bodyslam", false)
	is.NoErr(err)
	assert.InDelta(t, 1.0, mixed.Total(), 1e-9)
	is.Equal(mixed.Min(), plain.Min())
	is.True(mixed.Max() > plain.Max())

	// Every plain value keeps half its mass; the rest moves up.
	lowMass := 0.0
	for _, dm := range mixed {
		if dm.Damage <= plain.Max() {
			lowMass += dm.Mass
		}
	}
	is.True(lowMass >= 0.5-1e-9)
}

func TestApplyForcedDamage(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	p := build(t,
		[]spec{{species: "garchomp", moves: []string{"earthquake"}}},
		[]spec{{species: "toxapex", moves: []string{"recover"}}})
	startHP := p.Active(battle.Opp).HP

	next, err := e.Apply(e.Clone(p), [2]battle.Action{battle.MoveAction(0), battle.MoveAction(0)},
		engine.Forced{hit(50), nil})
	is.NoErr(err)
	// Recover goes after the hit and restores half max HP.
	is.Equal(next.Active(battle.Opp).HP, startHP)
	is.Equal(next.Active(battle.Own).Moves[0].PP, 15)
	is.Equal(next.Active(battle.Opp).Moves[0].PP, 15)
	is.Equal(next.Turn, 1)
	// The input position is untouched.
	is.Equal(p.Active(battle.Own).Moves[0].PP, 16)

	next, err = e.Apply(e.Clone(p), [2]battle.Action{battle.MoveAction(0), battle.PassAction},
		engine.Forced{hit(50), nil})
	is.NoErr(err)
	is.Equal(next.Active(battle.Opp).HP, startHP-50)

	next, err = e.Apply(e.Clone(p), [2]battle.Action{battle.MoveAction(0), battle.PassAction},
		engine.Forced{&engine.Roll{Miss: true, Damage: -1}, nil})
	is.NoErr(err)
	is.Equal(next.Active(battle.Opp).HP, startHP)
}

func TestApplyIllegal(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	p := build(t,
		[]spec{{species: "garchomp", moves: []string{"earthquake"}}},
		[]spec{{species: "toxapex", moves: []string{"recover"}}})
	p.Sides[battle.Own].Team[0].Moves[0].PP = 0
	_, err := e.Apply(e.Clone(p), [2]battle.Action{battle.MoveAction(0), battle.PassAction}, engine.Forced{})
	is.True(errors.Is(err, battle.ErrIllegalAction))

	_, err = e.Apply(e.Clone(p), [2]battle.Action{battle.SwitchAction(3), battle.PassAction}, engine.Forced{})
	is.True(errors.Is(err, battle.ErrIllegalAction))
}

func TestTurnOrder(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	// Garchomp outspeeds dragonite, but extreme speed has priority.
	p := build(t,
		[]spec{{species: "garchomp", moves: []string{"dragonclaw"}}},
		[]spec{{species: "dragonite", ability: "multiscale", moves: []string{"extremespeed", "roost"}}})
	p.Sides[battle.Own].Team[0].HP = 10
	p.Sides[battle.Opp].Team[0].HP = 10

	next, err := e.Apply(e.Clone(p), [2]battle.Action{battle.MoveAction(0), battle.MoveAction(0)},
		engine.Forced{hit(100), hit(100)})
	is.NoErr(err)
	is.True(next.Active(battle.Own).Fainted())
	is.Equal(next.Active(battle.Opp).HP, 10)

	next, err = e.Apply(e.Clone(p), [2]battle.Action{battle.MoveAction(0), battle.MoveAction(1)},
		engine.Forced{hit(100), nil})
	is.NoErr(err)
	is.True(next.Active(battle.Opp).Fainted())
	// Nothing left to send out on either side.
	is.Equal(next.Phase().Kind, battle.Normal)
	is.True(next.Over())
}

func TestDoubleFaintQueuesBothSides(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	p := build(t,
		[]spec{
			{species: "garchomp", item: "lifeorb", moves: []string{"earthquake"}},
			{species: "toxapex", moves: []string{"scald"}},
		},
		[]spec{
			{species: "heatran", moves: []string{"magmastorm"}},
			{species: "ferrothorn", moves: []string{"powerwhip"}},
		})
	p.Sides[battle.Own].Team[0].HP = 5
	p.Sides[battle.Opp].Team[0].HP = 5

	next, err := e.Apply(e.Clone(p), [2]battle.Action{battle.MoveAction(0), battle.MoveAction(0)},
		engine.Forced{hit(200), hit(200)})
	is.NoErr(err)
	is.True(next.Active(battle.Own).Fainted())
	is.True(next.Active(battle.Opp).Fainted())
	is.Equal(next.Phase(), battle.Phase{Kind: battle.ForcedSwitch, Side: battle.Opp})
	is.Equal(next.LegalActions(battle.Own), []battle.Action{battle.PassAction})

	next, err = e.Apply(next, [2]battle.Action{battle.PassAction, battle.SwitchAction(1)}, engine.Forced{})
	is.NoErr(err)
	is.Equal(next.Phase(), battle.Phase{Kind: battle.ForcedSwitch, Side: battle.Own})

	next, err = e.Apply(next, [2]battle.Action{battle.SwitchAction(1), battle.PassAction}, engine.Forced{})
	is.NoErr(err)
	is.Equal(next.Phase(), battle.Phase{Kind: battle.Normal})
	is.Equal(next.Sides[battle.Own].Active, 1)
	is.Equal(next.Sides[battle.Opp].Active, 1)
}

func TestKOWithOnlyUnseenReserves(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	p := build(t,
		[]spec{{species: "garchomp", moves: []string{"earthquake", "swordsdance"}}},
		[]spec{{species: "heatran", moves: []string{"magmastorm"}}})
	p.Sides[battle.Opp].Size = battle.MaxTeam
	p.Sides[battle.Opp].Team[0].HP = 5

	next, err := e.Apply(e.Clone(p), [2]battle.Action{battle.MoveAction(0), battle.MoveAction(0)},
		engine.Forced{hit(200), hit(200)})
	is.NoErr(err)
	is.True(next.Active(battle.Opp).Fainted())
	is.Equal(next.Phase(), battle.Phase{Kind: battle.ForcedSwitch, Side: battle.Opp})
	is.True(!next.Over())
	is.True(next.AwaitingReveal())
	is.Equal(len(next.LegalActions(battle.Opp)), 0)
	is.Equal(next.LegalActions(battle.Own), []battle.Action{battle.PassAction})

	// Play cannot resume against the fainted creature.
	_, err = e.Apply(e.Clone(next), [2]battle.Action{battle.MoveAction(1), battle.PassAction}, engine.Forced{})
	is.True(errors.Is(err, battle.ErrIllegalAction))
	_, err = e.Apply(e.Clone(next), [2]battle.Action{battle.PassAction, battle.PassAction}, engine.Forced{})
	is.True(errors.Is(err, battle.ErrIllegalAction))
}

func TestDoubleFaintWithOnlyUnseenOpposingReserves(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	p := build(t,
		[]spec{
			{species: "garchomp", item: "lifeorb", moves: []string{"earthquake"}},
			{species: "toxapex", moves: []string{"scald"}},
		},
		[]spec{{species: "heatran", moves: []string{"magmastorm"}}})
	p.Sides[battle.Opp].Size = battle.MaxTeam
	p.Sides[battle.Own].Team[0].HP = 5
	p.Sides[battle.Opp].Team[0].HP = 5

	next, err := e.Apply(e.Clone(p), [2]battle.Action{battle.MoveAction(0), battle.MoveAction(0)},
		engine.Forced{hit(200), hit(200)})
	is.NoErr(err)
	is.True(next.Active(battle.Own).Fainted())
	is.True(next.Active(battle.Opp).Fainted())
	is.Equal(next.NumPending, 2)
	is.Equal(next.Phase(), battle.Phase{Kind: battle.ForcedSwitch, Side: battle.Opp})
	is.True(next.AwaitingReveal())
	is.True(!next.Over())
	is.Equal(next.LegalActions(battle.Own), []battle.Action{battle.PassAction})
}

func TestHazardsAndStatus(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	p := build(t,
		[]spec{{species: "blissey", moves: []string{"stealthrock", "toxic", "thunderwave"}}},
		[]spec{
			{species: "garchomp", moves: []string{"swordsdance"}},
			{species: "dragonite", moves: []string{"roost"}},
			{species: "heatran", moves: []string{"magmastorm"}},
		})

	next, err := e.Apply(e.Clone(p), [2]battle.Action{battle.MoveAction(0), battle.MoveAction(0)},
		engine.Forced{hit(-1), nil})
	is.NoErr(err)
	is.True(next.Sides[battle.Opp].Hazards.StealthRock)
	is.Equal(next.Active(battle.Opp).Boosts[battle.Atk], int8(2))

	// Dragonite takes a quarter from rocks, heatran an eighth.
	dnite, err := e.Apply(e.Clone(next), [2]battle.Action{battle.MoveAction(1), battle.SwitchAction(1)},
		engine.Forced{&engine.Roll{Miss: true, Damage: -1}, nil})
	is.NoErr(err)
	c := dnite.Active(battle.Opp)
	is.Equal(c.HP, c.MaxHP()-c.MaxHP()/4)
	is.Equal(dnite.Sides[battle.Opp].Team[0].Boosts, battle.Boosts{})

	tran, err := e.Apply(e.Clone(next), [2]battle.Action{battle.MoveAction(1), battle.SwitchAction(2)},
		engine.Forced{hit(-1), nil})
	is.NoErr(err)
	c = tran.Active(battle.Opp)
	is.Equal(c.HP, c.MaxHP()-c.MaxHP()/8)
	// Steel types cannot be poisoned.
	is.Equal(c.Status, battle.StatusNone)

	// Toxic ramps up each turn.
	tox, err := e.Apply(e.Clone(next), [2]battle.Action{battle.MoveAction(1), battle.MoveAction(0)},
		engine.Forced{hit(-1), nil})
	is.NoErr(err)
	c = tox.Active(battle.Opp)
	is.Equal(c.Status, battle.Toxic)
	is.Equal(c.StatusTurns, 1)
	is.Equal(c.HP, c.MaxHP()-c.MaxHP()/16)

	// Electric moves cannot paralyse a ground type.
	para, err := e.Apply(e.Clone(next), [2]battle.Action{battle.MoveAction(2), battle.MoveAction(0)},
		engine.Forced{hit(-1), nil})
	is.NoErr(err)
	is.Equal(para.Active(battle.Opp).Status, battle.StatusNone)
}

func TestSleepSkipsTurns(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	p := build(t,
		[]spec{{species: "breloom", moves: []string{"spore"}}},
		[]spec{{species: "snorlax", moves: []string{"bodyslam"}}})
	ownHP := p.Active(battle.Own).HP
	acts := [2]battle.Action{battle.MoveAction(0), battle.MoveAction(0)}

	next, err := e.Apply(e.Clone(p), acts, engine.Forced{hit(-1), hit(30)})
	is.NoErr(err)
	// Breloom is faster, so snorlax falls asleep before it can move.
	is.Equal(next.Active(battle.Opp).Status, battle.Sleep)
	is.Equal(next.Active(battle.Own).HP, ownHP)

	acts[0] = battle.PassAction
	for i := 1; i < sleepTurns; i++ {
		next, err = e.Apply(next, acts, engine.Forced{nil, hit(30)})
		is.NoErr(err)
		is.Equal(next.Active(battle.Own).HP, ownHP)
	}
	next, err = e.Apply(next, acts, engine.Forced{nil, hit(30)})
	is.NoErr(err)
	is.Equal(next.Active(battle.Opp).Status, battle.StatusNone)
	is.Equal(next.Active(battle.Own).HP, ownHP-30)
}

func TestGuessedMoveIsRevealed(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	p := build(t,
		[]spec{{species: "garchomp", moves: []string{"earthquake"}}},
		[]spec{{species: "ferrothorn", moves: []string{"powerwhip"}}})

	next, err := e.Apply(e.Clone(p), [2]battle.Action{battle.PassAction, battle.GuessedMoveAction("spikes")},
		engine.Forced{nil, hit(-1)})
	is.NoErr(err)
	c := next.Active(battle.Opp)
	is.Equal(c.KnownMoves(), []string{"powerwhip", "spikes"})
	is.Equal(c.Moves[1].PP, c.Moves[1].MaxPP-1)
	is.Equal(next.Sides[battle.Own].Hazards.Spikes, int8(1))
	is.Equal(p.Active(battle.Opp).NumMoves, 1)
}

func TestUnforcedRollsStayInRange(t *testing.T) {
	is := is.New(t)
	e := New(testDex)
	p := build(t,
		[]spec{{species: "garchomp", moves: []string{"stoneedge"}}},
		[]spec{{species: "snorlax", moves: []string{"curse"}}})
	dist, err := e.Distribution(p, battle.Own, "stoneedge", true)
	is.NoErr(err)
	start := p.Active(battle.Opp).HP
	for i := 0; i < 50; i++ {
		next, err := e.Apply(e.Clone(p), [2]battle.Action{battle.MoveAction(0), battle.MoveAction(0)}, engine.Forced{})
		is.NoErr(err)
		lost := start - next.Active(battle.Opp).HP
		is.True(lost >= 0)
		is.True(lost <= dist.Max())
	}
}
