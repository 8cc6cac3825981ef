package dex

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/domino14/foresight/battle"
	"github.com/domino14/foresight/cache"
	"github.com/domino14/foresight/config"
)

//go:embed data/dex.yaml
var embeddedDex []byte

const embeddedKey = "dex:embedded"

type rawSecondary struct {
	Chance int            `yaml:"chance"`
	Status string         `yaml:"status"`
	Boosts map[string]int `yaml:"boosts"`
	Self   bool           `yaml:"self"`
}

type rawMove struct {
	Type       string         `yaml:"type"`
	Category   string         `yaml:"category"`
	Power      int            `yaml:"power"`
	Accuracy   int            `yaml:"accuracy"`
	PP         int            `yaml:"pp"`
	Priority   int            `yaml:"priority"`
	Crit       int            `yaml:"crit"`
	Fixed      string         `yaml:"fixed"`
	Target     string         `yaml:"target"`
	Status     string         `yaml:"status"`
	SelfStatus string         `yaml:"self_status"`
	Boosts     map[string]int `yaml:"boosts"`
	Heal       int            `yaml:"heal"`
	Hazard     string         `yaml:"hazard"`
	Secondary  *rawSecondary  `yaml:"secondary"`
}

type rawSpecies struct {
	Types     []string     `yaml:"types"`
	Base      battle.Stats `yaml:"base"`
	Abilities []string     `yaml:"abilities"`
	Item      string       `yaml:"item"`
	Movepool  []string     `yaml:"movepool"`
}

type rawDex struct {
	Types   map[string]map[string]float64 `yaml:"types"`
	Species map[string]rawSpecies         `yaml:"species"`
	Moves   map[string]rawMove            `yaml:"moves"`
}

// Parse builds a Pokedex from YAML. Every move named in a movepool and
// every type named anywhere must be defined.
func Parse(data []byte) (*Pokedex, error) {
	var raw rawDex
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing dex: %w", err)
	}
	d := &Pokedex{
		species: make(map[string]*Species, len(raw.Species)),
		moves:   make(map[string]*Move, len(raw.Moves)),
		types:   make(map[string]map[string]float64, len(raw.Types)),
	}
	for t, row := range raw.Types {
		d.types[t] = row
	}
	for t, row := range raw.Types {
		for def := range row {
			if _, ok := d.types[def]; !ok {
				return nil, fmt.Errorf("%w: type %q in chart row %q", ErrUnknownEntity, def, t)
			}
		}
	}
	for name, rm := range raw.Moves {
		m, err := convertMove(ID(name), rm)
		if err != nil {
			return nil, err
		}
		if _, ok := d.types[m.Type]; !ok {
			return nil, fmt.Errorf("%w: type %q on move %q", ErrUnknownEntity, m.Type, name)
		}
		d.moves[m.Name] = m
	}
	for name, rs := range raw.Species {
		s := &Species{
			Name:      ID(name),
			Types:     rs.Types,
			Base:      rs.Base,
			Abilities: rs.Abilities,
			Item:      rs.Item,
			Movepool:  make([]string, len(rs.Movepool)),
		}
		if len(s.Types) == 0 || len(s.Types) > 2 {
			return nil, fmt.Errorf("species %q must have one or two types", name)
		}
		for _, t := range s.Types {
			if _, ok := d.types[t]; !ok {
				return nil, fmt.Errorf("%w: type %q on species %q", ErrUnknownEntity, t, name)
			}
		}
		for i, mv := range rs.Movepool {
			id := ID(mv)
			if _, ok := d.moves[id]; !ok {
				return nil, fmt.Errorf("%w: move %q in movepool of %q", ErrUnknownEntity, mv, name)
			}
			s.Movepool[i] = id
		}
		d.species[s.Name] = s
	}
	return d, nil
}

func convertMove(id string, rm rawMove) (*Move, error) {
	m := &Move{
		Name:        id,
		Type:        rm.Type,
		Power:       rm.Power,
		Accuracy:    rm.Accuracy,
		PP:          rm.PP,
		Priority:    rm.Priority,
		CritRatio:   rm.Crit,
		FixedDamage: rm.Fixed,
		Heal:        rm.Heal,
		Hazard:      rm.Hazard,
	}
	switch rm.Category {
	case "physical":
		m.Category = Physical
	case "special":
		m.Category = Special
	case "status":
		m.Category = StatusMove
	default:
		return nil, fmt.Errorf("move %q: unknown category %q", id, rm.Category)
	}
	switch rm.Target {
	case "", "foe":
		m.Target = TargetFoe
	case "self":
		m.Target = TargetSelf
	default:
		return nil, fmt.Errorf("move %q: unknown target %q", id, rm.Target)
	}
	var err error
	if m.Status, err = battle.ParseStatus(rm.Status); err != nil {
		return nil, fmt.Errorf("move %q: %w", id, err)
	}
	if m.SelfStatus, err = battle.ParseStatus(rm.SelfStatus); err != nil {
		return nil, fmt.Errorf("move %q: %w", id, err)
	}
	if m.Boosts, err = convertBoosts(rm.Boosts); err != nil {
		return nil, fmt.Errorf("move %q: %w", id, err)
	}
	if rm.Secondary != nil {
		sec := &Secondary{Chance: rm.Secondary.Chance, Self: rm.Secondary.Self}
		if sec.Chance <= 0 || sec.Chance > 100 {
			return nil, fmt.Errorf("move %q: secondary chance %d out of range", id, sec.Chance)
		}
		if sec.Status, err = battle.ParseStatus(rm.Secondary.Status); err != nil {
			return nil, fmt.Errorf("move %q: %w", id, err)
		}
		if sec.Boosts, err = convertBoosts(rm.Secondary.Boosts); err != nil {
			return nil, fmt.Errorf("move %q: %w", id, err)
		}
		m.Secondary = sec
	}
	return m, nil
}

func convertBoosts(raw map[string]int) (map[battle.Stat]int, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	boosts := make(map[battle.Stat]int, len(raw))
	for k, v := range raw {
		st, err := battle.ParseStat(k)
		if err != nil {
			return nil, err
		}
		boosts[st] = v
	}
	return boosts, nil
}

// LoadFile reads a knowledge base from disk.
func LoadFile(path string) (*Pokedex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Default parses the knowledge base bundled with the binary.
func Default() (*Pokedex, error) {
	return Parse(embeddedDex)
}

// Get returns the knowledge base the config points at, loading it through
// the global object cache so concurrent solvers share one copy.
func Get(cfg *config.Config) (*Pokedex, error) {
	key := embeddedKey
	if cfg.DexPath != "" {
		key = "dex:" + cfg.DexPath
	}
	obj, err := cache.Load(cfg, key, func(cfg *config.Config, key string) (any, error) {
		var d *Pokedex
		var err error
		if cfg.DexPath == "" {
			d, err = Default()
		} else {
			d, err = LoadFile(cfg.DexPath)
		}
		if err != nil {
			return nil, err
		}
		log.Info().Str("key", key).Int("species", d.NumSpecies()).Int("moves", d.NumMoves()).Msg("dex-loaded")
		return d, nil
	})
	if err != nil {
		return nil, err
	}
	return obj.(*Pokedex), nil
}
