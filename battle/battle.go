// Package battle holds the search's view of a battle: the Position (both
// rosters, field state and pending forced switches), the belief state kept
// for opposing creatures, and the actions a side may choose.
//
// A Position is a plain value. Copying it with = (or Copy) produces an
// independent snapshot; the few slices it contains (candidate sets) are
// never mutated in place, only replaced, so sharing them between copies is
// safe.
package battle

import (
	"errors"
	"fmt"
)

const (
	MaxTeam  = 6
	MaxMoves = 4
	MaxStage = 6
)

var (
	ErrIllegalAction = errors.New("illegal action")
	ErrBadSlot       = errors.New("no such roster slot")
	ErrMoveLimit     = errors.New("creature already has four known moves")
)

// Side identifies one half of the battle. It is threaded through every call
// that needs a perspective; there is no ambient "player" index.
type Side uint8

const (
	Own Side = iota
	Opp
)

func (s Side) Other() Side {
	return 1 - s
}

func (s Side) String() string {
	switch s {
	case Own:
		return "own"
	case Opp:
		return "opp"
	}
	return fmt.Sprintf("side(%d)", uint8(s))
}

// ParseSide is the inverse of Side.String.
func ParseSide(s string) (Side, error) {
	switch s {
	case "own":
		return Own, nil
	case "opp":
		return Opp, nil
	}
	return 0, fmt.Errorf("unknown side %q", s)
}

type Status uint8

const (
	StatusNone Status = iota
	Burn
	Freeze
	Paralysis
	Poison
	Toxic
	Sleep
)

var statusNames = [...]string{"", "brn", "frz", "par", "psn", "tox", "slp"}

func (s Status) String() string {
	if int(s) < len(statusNames) {
		return statusNames[s]
	}
	return fmt.Sprintf("status(%d)", uint8(s))
}

func ParseStatus(s string) (Status, error) {
	for i, n := range statusNames {
		if n == s {
			return Status(i), nil
		}
	}
	return StatusNone, fmt.Errorf("unknown status %q", s)
}

type Weather uint8

const (
	WeatherNone Weather = iota
	Sun
	Rain
	Sand
	Snow
)

var weatherNames = [...]string{"", "sun", "rain", "sand", "snow"}

func (w Weather) String() string {
	if int(w) < len(weatherNames) {
		return weatherNames[w]
	}
	return fmt.Sprintf("weather(%d)", uint8(w))
}

func ParseWeather(s string) (Weather, error) {
	for i, n := range weatherNames {
		if n == s {
			return Weather(i), nil
		}
	}
	return WeatherNone, fmt.Errorf("unknown weather %q", s)
}

type Terrain uint8

const (
	TerrainNone Terrain = iota
	ElectricTerrain
	GrassyTerrain
	MistyTerrain
	PsychicTerrain
)

var terrainNames = [...]string{"", "electric", "grassy", "misty", "psychic"}

func (t Terrain) String() string {
	if int(t) < len(terrainNames) {
		return terrainNames[t]
	}
	return fmt.Sprintf("terrain(%d)", uint8(t))
}

func ParseTerrain(s string) (Terrain, error) {
	for i, n := range terrainNames {
		if n == s {
			return Terrain(i), nil
		}
	}
	return TerrainNone, fmt.Errorf("unknown terrain %q", s)
}

// Stat indexes Boosts.
type Stat uint8

const (
	Atk Stat = iota
	Def
	SpA
	SpD
	Spe
	Accuracy
	Evasion
	NumBoosts
)

var statNames = [...]string{"atk", "def", "spa", "spd", "spe", "accuracy", "evasion"}

func (s Stat) String() string {
	if s < NumBoosts {
		return statNames[s]
	}
	return fmt.Sprintf("stat(%d)", uint8(s))
}

func ParseStat(s string) (Stat, error) {
	for i, n := range statNames {
		if n == s {
			return Stat(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stat %q", s)
}

type Boosts [NumBoosts]int8

// Add applies a stage change, clamping to [-6, 6].
func (b *Boosts) Add(s Stat, delta int) {
	v := int(b[s]) + delta
	if v > MaxStage {
		v = MaxStage
	} else if v < -MaxStage {
		v = -MaxStage
	}
	b[s] = int8(v)
}

// Multiplier returns the stat multiplier for a battle stat stage.
func Multiplier(stage int8) float64 {
	if stage >= 0 {
		return float64(2+int(stage)) / 2
	}
	return 2 / float64(2-int(stage))
}

// AccuracyMultiplier returns the hit-chance multiplier for the difference of
// the user's accuracy stage and the target's evasion stage.
func AccuracyMultiplier(stage int) float64 {
	if stage > MaxStage {
		stage = MaxStage
	} else if stage < -MaxStage {
		stage = -MaxStage
	}
	if stage >= 0 {
		return float64(3+stage) / 3
	}
	return 3 / float64(3-stage)
}
