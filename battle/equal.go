package battle

import (
	"encoding/binary"
)

// EqualOptions relaxes position equivalence.
type EqualOptions struct {
	// IgnoreHP compares branch shape only, not exact HP.
	IgnoreHP bool
}

// Equal reports whether two positions are action-equivalent: the same
// species, moves, remaining PP, status, stat stages, HP, ability and item
// knowledge for every own creature and every revealed opposing creature,
// the same hazards, field weather and terrain, and the same pending forced
// switches.
func Equal(a, b *Position, opts EqualOptions) bool {
	if a.Field.Weather != b.Field.Weather || a.Field.Terrain != b.Field.Terrain {
		return false
	}
	if a.NumPending != b.NumPending {
		return false
	}
	for i := 0; i < a.NumPending; i++ {
		if a.Pending[i] != b.Pending[i] {
			return false
		}
	}
	for s := range a.Sides {
		if !sidesEqual(&a.Sides[s], &b.Sides[s], opts) {
			return false
		}
	}
	return true
}

func sidesEqual(a, b *SideState, opts EqualOptions) bool {
	if a.Size != b.Size || a.Active != b.Active || a.Hazards != b.Hazards {
		return false
	}
	for i := 0; i < a.Size; i++ {
		if !creaturesEqual(&a.Team[i], &b.Team[i], opts) {
			return false
		}
	}
	return true
}

func creaturesEqual(a, b *Creature, opts EqualOptions) bool {
	if a.Revealed != b.Revealed {
		return false
	}
	if !a.Revealed {
		return true
	}
	if a.Species != b.Species || a.Status != b.Status || a.Boosts != b.Boosts {
		return false
	}
	if !opts.IgnoreHP && a.HP != b.HP {
		return false
	}
	if opts.IgnoreHP && a.Fainted() != b.Fainted() {
		return false
	}
	if a.Ability != b.Ability || a.ItemKnown != b.ItemKnown || a.Item != b.Item {
		return false
	}
	if a.NumMoves != b.NumMoves {
		return false
	}
	for i := 0; i < a.NumMoves; i++ {
		if a.Moves[i].Name != b.Moves[i].Name || a.Moves[i].PP != b.Moves[i].PP {
			return false
		}
	}
	return true
}

// AppendKey appends a canonical encoding of exactly the fields Equal
// compares, so equal positions always produce equal keys.
func (p *Position) AppendKey(buf []byte, opts EqualOptions) []byte {
	buf = append(buf, byte(p.Field.Weather), byte(p.Field.Terrain), byte(p.NumPending))
	for i := 0; i < p.NumPending; i++ {
		buf = append(buf, byte(p.Pending[i]))
	}
	for s := range p.Sides {
		side := &p.Sides[s]
		buf = append(buf, byte(side.Size), byte(side.Active),
			boolByte(side.Hazards.StealthRock), byte(side.Hazards.Spikes),
			byte(side.Hazards.ToxicSpikes), boolByte(side.Hazards.StickyWeb))
		for i := 0; i < side.Size; i++ {
			buf = appendCreatureKey(buf, &side.Team[i], opts)
		}
	}
	return buf
}

func appendCreatureKey(buf []byte, c *Creature, opts EqualOptions) []byte {
	if !c.Revealed {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	buf = appendString(buf, c.Species)
	buf = append(buf, byte(c.Status))
	for _, b := range c.Boosts {
		buf = append(buf, byte(b))
	}
	if opts.IgnoreHP {
		buf = append(buf, boolByte(c.Fainted()))
	} else {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(int32(c.HP)))
	}
	buf = appendString(buf, c.Ability)
	buf = append(buf, boolByte(c.ItemKnown))
	buf = appendString(buf, c.Item)
	buf = append(buf, byte(c.NumMoves))
	for i := 0; i < c.NumMoves; i++ {
		buf = appendString(buf, c.Moves[i].Name)
		buf = binary.LittleEndian.AppendUint16(buf, uint16(c.Moves[i].PP))
	}
	return buf
}

func appendString(buf []byte, s string) []byte {
	buf = binary.AppendUvarint(buf, uint64(len(s)))
	return append(buf, s...)
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
