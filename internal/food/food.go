// Package food provides edible entities and the registry of live food.
package food

import (
	"fmt"

	"github.com/talgya/forage/internal/world"
)

// ID is a unique identifier for a food item. Zero means "no food".
type ID uint64

// None is the zero ID.
const None ID = 0

// Kind is the type of food.
type Kind uint8

const (
	KindMeat Kind = iota
	KindVegetation
)

// NumKinds is the number of food kinds.
const NumKinds = 2

func (k Kind) String() string {
	switch k {
	case KindMeat:
		return "meat"
	case KindVegetation:
		return "vegetation"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParseKind maps "meat" or "vegetation" to a Kind.
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "meat":
		return KindMeat, true
	case "vegetation", "veg":
		return KindVegetation, true
	}
	return 0, false
}

// Food is an edible item sitting on one grid node.
type Food struct {
	ID       ID          `json:"id"`
	Kind     Kind        `json:"kind"`
	Position world.Coord `json:"position"`
	Eaten    bool        `json:"eaten"`
}

// Occupant returns the grid occupant tag for this food.
func (f *Food) Occupant() world.Occupant {
	return world.FoodOccupant(uint64(f.ID))
}

// Registry is the set of live food, iterated in insertion order.
type Registry struct {
	items []*Food
	index map[ID]*Food
	at    map[world.Coord]*Food
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[ID]*Food),
		at:    make(map[world.Coord]*Food),
	}
}

// Add registers f. Fails if the id is taken or another live food already
// lies on the same node.
func (r *Registry) Add(f *Food) error {
	if _, ok := r.index[f.ID]; ok {
		return fmt.Errorf("add food %d: duplicate id", f.ID)
	}
	if other, ok := r.at[f.Position]; ok {
		return fmt.Errorf("add food %d: node %v already holds food %d", f.ID, f.Position, other.ID)
	}
	r.items = append(r.items, f)
	r.index[f.ID] = f
	r.at[f.Position] = f
	return nil
}

// Remove drops the food with the given id. Order of the remaining items is kept.
func (r *Registry) Remove(id ID) bool {
	f, ok := r.index[id]
	if !ok {
		return false
	}
	delete(r.index, id)
	delete(r.at, f.Position)
	for i, it := range r.items {
		if it.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the live food with the given id.
func (r *Registry) Get(id ID) (*Food, bool) {
	f, ok := r.index[id]
	return f, ok
}

// At returns the live food lying on c.
func (r *Registry) At(c world.Coord) (*Food, bool) {
	f, ok := r.at[c]
	return f, ok
}

// Live returns the live food in insertion order. The slice must not be modified.
func (r *Registry) Live() []*Food {
	return r.items
}

// Len returns the number of live food items.
func (r *Registry) Len() int {
	return len(r.items)
}

// CountKind returns the number of live food items of kind k.
func (r *Registry) CountKind(k Kind) int {
	n := 0
	for _, f := range r.items {
		if f.Kind == k {
			n++
		}
	}
	return n
}

// Occupant returns the occupant that c should show when no agent holds it:
// the food lying there, or Empty.
func (r *Registry) Occupant(c world.Coord) world.Occupant {
	if f, ok := r.at[c]; ok && !f.Eaten {
		return f.Occupant()
	}
	return world.Empty
}
