package battle

type Stats struct {
	HP  int `yaml:"hp"`
	Atk int `yaml:"atk"`
	Def int `yaml:"def"`
	SpA int `yaml:"spa"`
	SpD int `yaml:"spd"`
	Spe int `yaml:"spe"`
}

// Get returns the raw stat matching a boostable stat index. Accuracy and
// evasion have no raw value and return 0.
func (s Stats) Get(st Stat) int {
	switch st {
	case Atk:
		return s.Atk
	case Def:
		return s.Def
	case SpA:
		return s.SpA
	case SpD:
		return s.SpD
	case Spe:
		return s.Spe
	}
	return 0
}

type MoveSlot struct {
	Name  string
	PP    int
	MaxPP int
}

// Creature is one roster member. Own creatures are fully known. Opposing
// creatures are partially known: Ability is empty until confirmed (Abilities
// then holds the candidates), ItemKnown is false until the item is confirmed
// (Items then holds the candidates, "" meaning no item), and Moves fills up
// as moves are observed.
type Creature struct {
	Species string
	Level   int
	Types   [2]string
	Stats   Stats
	HP      int
	Status  Status
	// StatusTurns counts down sleep and freeze, and counts up toxic.
	StatusTurns int
	Boosts      Boosts

	Ability   string
	Abilities []string
	Item      string
	ItemKnown bool
	Items     []string

	Moves    [MaxMoves]MoveSlot
	NumMoves int

	// Revealed is false for opposing roster slots not seen yet.
	Revealed bool
}

func (c *Creature) MaxHP() int {
	return c.Stats.HP
}

func (c *Creature) Fainted() bool {
	return c.HP <= 0
}

func (c *Creature) HPFraction() float64 {
	if c.Stats.HP <= 0 {
		return 0
	}
	return float64(c.HP) / float64(c.Stats.HP)
}

func (c *Creature) HasType(t string) bool {
	return t != "" && (c.Types[0] == t || c.Types[1] == t)
}

// TypeList returns the creature's types without the empty second slot.
func (c *Creature) TypeList() []string {
	if c.Types[1] == "" {
		return []string{c.Types[0]}
	}
	return []string{c.Types[0], c.Types[1]}
}

// AbilityCandidates returns the confirmed ability as a singleton, or the
// candidate set if the ability is unknown.
func (c *Creature) AbilityCandidates() []string {
	if c.Ability != "" {
		return []string{c.Ability}
	}
	return c.Abilities
}

// ItemCandidates returns the confirmed item as a singleton, or the candidate
// set if the item is unknown. An unknown item with no candidates is treated
// as holding nothing.
func (c *Creature) ItemCandidates() []string {
	if c.ItemKnown {
		return []string{c.Item}
	}
	if len(c.Items) == 0 {
		return []string{""}
	}
	return c.Items
}

// MoveIndex returns the slot holding the named move, or -1.
func (c *Creature) MoveIndex(name string) int {
	for i := 0; i < c.NumMoves; i++ {
		if c.Moves[i].Name == name {
			return i
		}
	}
	return -1
}

// KnownMoves lists the names of the known moves in slot order.
func (c *Creature) KnownMoves() []string {
	names := make([]string, c.NumMoves)
	for i := 0; i < c.NumMoves; i++ {
		names[i] = c.Moves[i].Name
	}
	return names
}

// addMove records a newly observed move. Once four moves are known no
// further moves can be added.
func (c *Creature) addMove(name string, pp int) (int, error) {
	if idx := c.MoveIndex(name); idx >= 0 {
		return idx, nil
	}
	if c.NumMoves >= MaxMoves {
		return -1, ErrMoveLimit
	}
	idx := c.NumMoves
	c.Moves[idx] = MoveSlot{Name: name, PP: pp, MaxPP: pp}
	c.NumMoves++
	return idx, nil
}

// ClearVolatiles resets what a creature loses on switching out.
func (c *Creature) ClearVolatiles() {
	c.Boosts = Boosts{}
	if c.Status == Toxic {
		c.StatusTurns = 0
	}
}
