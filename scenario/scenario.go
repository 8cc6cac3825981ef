// Package scenario reads and writes positions as YAML documents, for test
// fixtures and for seeding a search from a known state.
package scenario

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/domino14/foresight/battle"
	"github.com/domino14/foresight/dex"
)

const defaultLevel = 100

// Move is a known move. In YAML it is either a bare name or a mapping with
// name, pp and max_pp.
type Move struct {
	Name  string `yaml:"name"`
	PP    *int   `yaml:"pp,omitempty"`
	MaxPP int    `yaml:"max_pp,omitempty"`
}

func (m *Move) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		m.Name = node.Value
		return nil
	}
	type plain Move
	return node.Decode((*plain)(m))
}

type Creature struct {
	Species     string         `yaml:"species,omitempty"`
	Unrevealed  bool           `yaml:"unrevealed,omitempty"`
	Level       int            `yaml:"level,omitempty"`
	Types       []string       `yaml:"types,omitempty"`
	Stats       *battle.Stats  `yaml:"stats,omitempty"`
	HP          *int           `yaml:"hp,omitempty"`
	Status      string         `yaml:"status,omitempty"`
	StatusTurns int            `yaml:"status_turns,omitempty"`
	Boosts      map[string]int `yaml:"boosts,omitempty"`
	// Ability is empty while unconfirmed; Abilities then lists candidates.
	Ability   string   `yaml:"ability,omitempty"`
	Abilities []string `yaml:"abilities,omitempty"`
	// Item is absent while unconfirmed, except on the own side where an
	// absent item means none unless ItemUnknown is set.
	Item        *string  `yaml:"item,omitempty"`
	ItemUnknown bool     `yaml:"item_unknown,omitempty"`
	Items       []string `yaml:"items,omitempty"`
	Moves       []Move   `yaml:"moves,omitempty"`
}

type Hazards struct {
	StealthRock bool `yaml:"stealthrock,omitempty"`
	Spikes      int  `yaml:"spikes,omitempty"`
	ToxicSpikes int  `yaml:"toxicspikes,omitempty"`
	StickyWeb   bool `yaml:"stickyweb,omitempty"`
}

type Side struct {
	// Size is the roster size. The own side defaults to the number of
	// listed creatures and the opposing side to a full roster. Slots past
	// the list are unrevealed.
	Size    int        `yaml:"size,omitempty"`
	Active  int        `yaml:"active,omitempty"`
	Hazards Hazards    `yaml:"hazards,omitempty"`
	Team    []Creature `yaml:"team"`
}

type Field struct {
	Weather      string `yaml:"weather,omitempty"`
	WeatherTurns int    `yaml:"weather_turns,omitempty"`
	Terrain      string `yaml:"terrain,omitempty"`
	TerrainTurns int    `yaml:"terrain_turns,omitempty"`
}

type Scenario struct {
	Turn    int      `yaml:"turn,omitempty"`
	Field   Field    `yaml:"field,omitempty"`
	Pending []string `yaml:"pending,omitempty"`
	Own     Side     `yaml:"own"`
	Opp     Side     `yaml:"opp"`
}

// ParseFile reads a scenario from disk. See Parse.
func ParseFile(path string, d dex.Dex) (*battle.Position, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data, d)
}

// Parse builds a position from a YAML scenario. With a knowledge base,
// missing types, stats and PP are filled from species and move data and
// own creatures without an ability get their species' first one. Without
// one, every value must be spelled out.
func Parse(data []byte, d dex.Dex) (*battle.Position, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	return sc.Position(d)
}

func (sc *Scenario) Position(d dex.Dex) (*battle.Position, error) {
	pos := &battle.Position{Turn: sc.Turn}
	var err error
	if pos.Field.Weather, err = battle.ParseWeather(sc.Field.Weather); err != nil {
		return nil, err
	}
	if pos.Field.Terrain, err = battle.ParseTerrain(sc.Field.Terrain); err != nil {
		return nil, err
	}
	pos.Field.WeatherTurns = sc.Field.WeatherTurns
	pos.Field.TerrainTurns = sc.Field.TerrainTurns

	for i, side := range []*Side{&sc.Own, &sc.Opp} {
		s := battle.Side(i)
		if err := side.fill(pos.Side(s), s, d); err != nil {
			return nil, fmt.Errorf("%v side: %w", s, err)
		}
	}

	if len(sc.Pending) > 2 {
		return nil, errors.New("at most two pending switches")
	}
	for _, name := range sc.Pending {
		s, err := battle.ParseSide(name)
		if err != nil {
			return nil, err
		}
		pos.QueueSwitch(s)
	}
	return pos, nil
}

func (side *Side) fill(out *battle.SideState, s battle.Side, d dex.Dex) error {
	size := side.Size
	if size == 0 {
		size = len(side.Team)
		if s == battle.Opp {
			size = battle.MaxTeam
		}
	}
	if size < len(side.Team) || size > battle.MaxTeam || size == 0 {
		return fmt.Errorf("bad roster size %d for %d listed creatures", size, len(side.Team))
	}
	if side.Active < 0 || side.Active >= len(side.Team) || side.Team[side.Active].Unrevealed {
		return fmt.Errorf("active slot %d is not a listed creature", side.Active)
	}
	out.Size = size
	out.Active = side.Active
	out.Hazards = battle.Hazards{
		StealthRock: side.Hazards.StealthRock,
		Spikes:      int8(side.Hazards.Spikes),
		ToxicSpikes: int8(side.Hazards.ToxicSpikes),
		StickyWeb:   side.Hazards.StickyWeb,
	}
	for i := range side.Team {
		c, err := side.Team[i].creature(s, d)
		if err != nil {
			return fmt.Errorf("slot %d: %w", i, err)
		}
		out.Team[i] = c
	}
	return nil
}

func (sc *Creature) creature(s battle.Side, d dex.Dex) (battle.Creature, error) {
	var c battle.Creature
	if sc.Unrevealed {
		return c, nil
	}
	if sc.Species == "" {
		return c, errors.New("species is required")
	}
	c.Species = dex.ID(sc.Species)
	c.Revealed = true
	c.Level = sc.Level
	if c.Level == 0 {
		c.Level = defaultLevel
	}

	var sp *dex.Species
	if d != nil {
		var err error
		if sp, err = d.Species(c.Species); err != nil {
			return c, err
		}
	}
	switch {
	case len(sc.Types) > 0:
		if len(sc.Types) > 2 {
			return c, fmt.Errorf("%s: at most two types", c.Species)
		}
		copy(c.Types[:], sc.Types)
	case sp != nil:
		copy(c.Types[:], sp.Types)
	default:
		return c, fmt.Errorf("%s: types are required without a dex", c.Species)
	}
	switch {
	case sc.Stats != nil:
		c.Stats = *sc.Stats
	case sp != nil:
		c.Stats = dex.Stats(sp.Base, c.Level)
	default:
		return c, fmt.Errorf("%s: stats are required without a dex", c.Species)
	}
	c.HP = c.Stats.HP
	if sc.HP != nil {
		c.HP = max(0, min(*sc.HP, c.Stats.HP))
	}

	var err error
	if c.Status, err = battle.ParseStatus(sc.Status); err != nil {
		return c, err
	}
	c.StatusTurns = sc.StatusTurns
	for name, n := range sc.Boosts {
		st, err := battle.ParseStat(name)
		if err != nil {
			return c, err
		}
		c.Boosts.Add(st, n)
	}

	c.Ability = sc.Ability
	if c.Ability == "" {
		if s == battle.Own && sp != nil && len(sp.Abilities) > 0 && len(sc.Abilities) == 0 {
			c.Ability = sp.Abilities[0]
		} else {
			c.Abilities = sc.Abilities
		}
	}
	switch {
	case sc.Item != nil:
		c.Item = dex.ID(*sc.Item)
		c.ItemKnown = true
	case s == battle.Own && !sc.ItemUnknown:
		c.ItemKnown = true
	default:
		c.Items = sc.Items
	}

	if len(sc.Moves) > battle.MaxMoves {
		return c, fmt.Errorf("%s: %w", c.Species, battle.ErrMoveLimit)
	}
	for i, m := range sc.Moves {
		slot := battle.MoveSlot{Name: dex.ID(m.Name), MaxPP: m.MaxPP}
		if d != nil {
			mv, err := d.Move(slot.Name)
			if err != nil {
				return c, err
			}
			if slot.MaxPP == 0 {
				slot.MaxPP = mv.PP
			}
		}
		if slot.MaxPP == 0 {
			return c, fmt.Errorf("%s: max_pp is required for %s without a dex", c.Species, slot.Name)
		}
		slot.PP = slot.MaxPP
		if m.PP != nil {
			slot.PP = *m.PP
		}
		c.Moves[i] = slot
	}
	c.NumMoves = len(sc.Moves)
	return c, nil
}

// FromPosition converts a position to its scenario form, spelling out every
// value so the result parses back without a knowledge base.
func FromPosition(pos *battle.Position) *Scenario {
	sc := &Scenario{
		Turn: pos.Turn,
		Field: Field{
			Weather:      pos.Field.Weather.String(),
			WeatherTurns: pos.Field.WeatherTurns,
			Terrain:      pos.Field.Terrain.String(),
			TerrainTurns: pos.Field.TerrainTurns,
		},
		Own: sideFrom(pos.Side(battle.Own), battle.Own),
		Opp: sideFrom(pos.Side(battle.Opp), battle.Opp),
	}
	for i := 0; i < pos.NumPending; i++ {
		sc.Pending = append(sc.Pending, pos.Pending[i].String())
	}
	return sc
}

func sideFrom(side *battle.SideState, s battle.Side) Side {
	out := Side{
		Size:   side.Size,
		Active: side.Active,
		Hazards: Hazards{
			StealthRock: side.Hazards.StealthRock,
			Spikes:      int(side.Hazards.Spikes),
			ToxicSpikes: int(side.Hazards.ToxicSpikes),
			StickyWeb:   side.Hazards.StickyWeb,
		},
	}
	last := -1
	for i := 0; i < side.Size; i++ {
		if side.Team[i].Revealed {
			last = i
		}
	}
	for i := 0; i <= last; i++ {
		out.Team = append(out.Team, creatureFrom(&side.Team[i], s))
	}
	return out
}

func creatureFrom(c *battle.Creature, s battle.Side) Creature {
	if !c.Revealed {
		return Creature{Unrevealed: true}
	}
	stats := c.Stats
	hp := c.HP
	out := Creature{
		Species:     c.Species,
		Level:       c.Level,
		Types:       c.TypeList(),
		Stats:       &stats,
		HP:          &hp,
		Status:      c.Status.String(),
		StatusTurns: c.StatusTurns,
		Ability:     c.Ability,
		Abilities:   c.Abilities,
		Items:       c.Items,
	}
	for st, n := range c.Boosts {
		if n != 0 {
			if out.Boosts == nil {
				out.Boosts = make(map[string]int)
			}
			out.Boosts[battle.Stat(st).String()] = int(n)
		}
	}
	if c.ItemKnown {
		item := c.Item
		out.Item = &item
	} else if s == battle.Own {
		out.ItemUnknown = true
	}
	for i := 0; i < c.NumMoves; i++ {
		pp := c.Moves[i].PP
		out.Moves = append(out.Moves, Move{Name: c.Moves[i].Name, PP: &pp, MaxPP: c.Moves[i].MaxPP})
	}
	return out
}

// Marshal encodes a position as a scenario document.
func Marshal(pos *battle.Position) ([]byte, error) {
	return yaml.Marshal(FromPosition(pos))
}
