package scorekeeping

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fortuna/dugout/internal/plays"
	"github.com/fortuna/dugout/internal/textutil"
)

// Registry resolves player mentions to stable identities. Entries are keyed
// by side and normalized name; registering a known person again only grows
// its jersey and position sets. There is no removal.
type Registry struct {
	byKey map[string]*Player
	ids   map[string]bool
	order []*Player
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey: make(map[string]*Player),
		ids:   make(map[string]bool),
	}
}

func registryKey(side plays.Side, normalized string) string {
	return string(side) + "|" + normalized
}

// Register returns the player for (side, name), creating it on first sight.
// Empty names register nothing.
func (r *Registry) Register(side plays.Side, name, jersey, position string) *Player {
	normalized := textutil.NormalizeName(name)
	if normalized == "" {
		return nil
	}
	jersey = strings.TrimLeft(textutil.Clean(jersey), "#")
	position = strings.ToUpper(textutil.Clean(position))

	key := registryKey(side, normalized)
	p, ok := r.byKey[key]
	if !ok {
		p = &Player{
			ID:             r.newID(side, jersey, name),
			Name:           textutil.FormatName(name),
			NormalizedName: normalized,
			Sides:          []plays.Side{},
			Jerseys:        []string{},
			Positions:      []string{},
		}
		r.byKey[key] = p
		r.order = append(r.order, p)
	}

	if side != "" && !slices.Contains(p.Sides, side) {
		p.Sides = append(p.Sides, side)
	}
	if jersey != "" && !slices.Contains(p.Jerseys, jersey) {
		p.Jerseys = append(p.Jerseys, jersey)
	}
	if position != "" && !slices.Contains(p.Positions, position) {
		p.Positions = append(p.Positions, position)
	}
	return p
}

// Lookup finds a registered player without creating one.
func (r *Registry) Lookup(side plays.Side, name string) (*Player, bool) {
	p, ok := r.byKey[registryKey(side, textutil.NormalizeName(name))]
	return p, ok
}

// Ref registers name and returns a reference to it, or nil for an empty
// name.
func (r *Registry) Ref(side plays.Side, name string) *PlayerRef {
	p := r.Register(side, name, "", "")
	if p == nil {
		return nil
	}
	return &PlayerRef{ID: p.ID, Name: p.Name}
}

// Players returns a copy of every entry in registration order.
func (r *Registry) Players() []Player {
	out := make([]Player, 0, len(r.order))
	for _, p := range r.order {
		cp := *p
		cp.Sides = slices.Clone(p.Sides)
		cp.Jerseys = slices.Clone(p.Jerseys)
		cp.Positions = slices.Clone(p.Positions)
		out = append(out, cp)
	}
	return out
}

// Len is the number of distinct players.
func (r *Registry) Len() int { return len(r.order) }

func (r *Registry) newID(side plays.Side, jersey, name string) string {
	if jersey == "" {
		jersey = "na"
	}
	s := string(side)
	if s == "" {
		s = "unknown"
	}
	base := fmt.Sprintf("%s:%s:%s", s, jersey, textutil.Slugify(textutil.FormatName(name)))

	id := base
	for n := 2; r.ids[id]; n++ {
		id = fmt.Sprintf("%s-%d", base, n)
	}
	r.ids[id] = true
	return id
}
