package colors

// NoOwner is the colour for rows without an owner.
const NoOwner = "245"

// DefaultSlots are ANSI 256 colour codes handed out to owners.
var DefaultSlots = []string{"39", "208", "42", "170", "220", "33", "203", "114", "141", "45", "214"}

type ownerState struct {
	color    string
	lastUsed uint64
}

// Palette assigns each owner a colour from a bounded set of slots. When
// every slot is taken, the least recently used owner gives up its slot.
type Palette struct {
	slots  []string
	owners map[string]*ownerState
	clock  uint64
}

// NewPalette creates a palette over slots, or DefaultSlots when none are
// given.
func NewPalette(slots ...string) *Palette {
	if len(slots) == 0 {
		slots = DefaultSlots
	}
	return &Palette{
		slots:  slots,
		owners: make(map[string]*ownerState),
	}
}

// Color returns the colour for owner, assigning one on first use.
func (p *Palette) Color(owner string) string {
	if owner == "" {
		return NoOwner
	}
	p.clock++

	if state, ok := p.owners[owner]; ok {
		state.lastUsed = p.clock
		return state.color
	}
	return p.assign(owner)
}

// Len is the number of owners currently holding a slot.
func (p *Palette) Len() int {
	return len(p.owners)
}

func (p *Palette) assign(owner string) string {
	used := make(map[string]bool, len(p.owners))
	for _, s := range p.owners {
		used[s.color] = true
	}

	for _, c := range p.slots {
		if !used[c] {
			p.owners[owner] = &ownerState{color: c, lastUsed: p.clock}
			return c
		}
	}

	// Full: evict the least recently used owner.
	var oldest string
	var oldestUse uint64
	first := true
	for o, s := range p.owners {
		if first || s.lastUsed < oldestUse {
			oldest, oldestUse = o, s.lastUsed
			first = false
		}
	}

	recycled := p.owners[oldest].color
	delete(p.owners, oldest)
	p.owners[owner] = &ownerState{color: recycled, lastUsed: p.clock}
	return recycled
}
