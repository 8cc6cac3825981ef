package battle

type Hazards struct {
	StealthRock bool
	Spikes      int8
	ToxicSpikes int8
	StickyWeb   bool
}

type SideState struct {
	Team [MaxTeam]Creature
	// Size is the number of roster slots in use. For the opposing side this
	// is the assumed roster size; slots that have not been seen yet have
	// Revealed == false.
	Size    int
	Active  int
	Hazards Hazards
}

func (s *SideState) ActiveCreature() *Creature {
	return &s.Team[s.Active]
}

// Remaining counts roster slots that are either alive or not yet revealed.
func (s *SideState) Remaining() int {
	n := 0
	for i := 0; i < s.Size; i++ {
		c := &s.Team[i]
		if !c.Revealed || !c.Fainted() {
			n++
		}
	}
	return n
}

// SwitchTargets lists the slots the side could switch into: revealed,
// unfainted and not already active.
func (s *SideState) SwitchTargets() []int {
	var targets []int
	for i := 0; i < s.Size; i++ {
		c := &s.Team[i]
		if i == s.Active || !c.Revealed || c.Fainted() {
			continue
		}
		targets = append(targets, i)
	}
	return targets
}

type Field struct {
	Weather      Weather
	WeatherTurns int
	Terrain      Terrain
	TerrainTurns int
}

// Position is a full battle snapshot at one point in time.
type Position struct {
	Sides [2]SideState
	Field Field
	Turn  int

	// Pending holds the sides that must replace a fainted active creature
	// before normal choice resumes, in faint order.
	Pending    [2]Side
	NumPending int
}

// NewPosition returns an empty position whose opposing roster is assumed to
// be full until told otherwise. The own roster grows as creatures are
// revealed.
func NewPosition() *Position {
	p := &Position{}
	p.Sides[Opp].Size = MaxTeam
	return p
}

// Copy returns an independent snapshot of the position.
func (p *Position) Copy() *Position {
	cp := *p
	return &cp
}

func (p *Position) Side(s Side) *SideState {
	return &p.Sides[s]
}

func (p *Position) Active(s Side) *Creature {
	return p.Sides[s].ActiveCreature()
}

// Creature returns a roster slot, or ErrBadSlot.
func (p *Position) Creature(s Side, slot int) (*Creature, error) {
	if slot < 0 || slot >= MaxTeam || slot >= p.Sides[s].Size {
		return nil, ErrBadSlot
	}
	return &p.Sides[s].Team[slot], nil
}

// QueueSwitch records that a side must replace its active creature. A side
// is queued at most once.
func (p *Position) QueueSwitch(s Side) {
	for i := 0; i < p.NumPending; i++ {
		if p.Pending[i] == s {
			return
		}
	}
	p.Pending[p.NumPending] = s
	p.NumPending++
}

// PopSwitch removes the head of the forced-switch queue.
func (p *Position) PopSwitch() {
	if p.NumPending == 0 {
		return
	}
	p.Pending[0] = p.Pending[1]
	p.NumPending--
}

// Defeated reports whether every roster slot of a side is known to be
// fainted.
func (p *Position) Defeated(s Side) bool {
	return p.Sides[s].Remaining() == 0
}

// Over reports whether the battle has been decided.
func (p *Position) Over() bool {
	return p.Defeated(Own) || p.Defeated(Opp)
}
