package food

import (
	"testing"

	"github.com/talgya/forage/internal/world"
)

func TestRegistryOrderAndRemove(t *testing.T) {
	r := NewRegistry()
	for i := 1; i <= 4; i++ {
		if err := r.Add(&Food{ID: ID(i), Position: world.Coord{X: i, Y: 0}}); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}

	if !r.Remove(2) {
		t.Fatal("Expected Remove(2) to succeed")
	}
	if r.Remove(2) {
		t.Error("Expected second Remove(2) to fail")
	}

	want := []ID{1, 3, 4}
	live := r.Live()
	if len(live) != len(want) {
		t.Fatalf("Expected %d live items, got %d", len(want), len(live))
	}
	for i, f := range live {
		if f.ID != want[i] {
			t.Errorf("position %d: expected id %d, got %d", i, want[i], f.ID)
		}
	}

	if _, ok := r.At(world.Coord{X: 2, Y: 0}); ok {
		t.Error("Expected no food at removed position")
	}
	if f, ok := r.At(world.Coord{X: 3, Y: 0}); !ok || f.ID != 3 {
		t.Error("Expected food 3 at (3,0)")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Add(&Food{ID: 1, Position: world.Coord{X: 0, Y: 0}}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := r.Add(&Food{ID: 1, Position: world.Coord{X: 1, Y: 0}}); err == nil {
		t.Error("Expected duplicate id to be rejected")
	}
	if err := r.Add(&Food{ID: 2, Position: world.Coord{X: 0, Y: 0}}); err == nil {
		t.Error("Expected second food on the same node to be rejected")
	}
}

func TestSpawnPlacesOccupant(t *testing.T) {
	g := world.NewGrid(3, 3)
	g.SetWall(world.Coord{X: 1, Y: 1})
	r := NewRegistry()
	s := NewSpawner(1)

	f, err := s.Spawn(g, r, KindMeat, world.Coord{X: 0, Y: 0})
	if err != nil {
		t.Fatalf("Spawn failed: %v", err)
	}
	if g.OccupantAt(f.Position) != f.Occupant() {
		t.Errorf("Expected node to hold %v, got %v", f.Occupant(), g.OccupantAt(f.Position))
	}
	if _, err := s.Spawn(g, r, KindMeat, world.Coord{X: 1, Y: 1}); err == nil {
		t.Error("Expected spawn on a wall to fail")
	}
	if _, err := s.Spawn(g, r, KindMeat, world.Coord{X: 0, Y: 0}); err == nil {
		t.Error("Expected spawn on an occupied node to fail")
	}
}

func TestScatterFillsFreeNodes(t *testing.T) {
	g := world.NewGrid(4, 4)
	r := NewRegistry()
	s := NewSpawner(9)

	got := s.Scatter(g, r, 100)
	if len(got) != 16 || r.Len() != 16 {
		t.Fatalf("Expected 16 food on a 4x4 grid, got %d (registry %d)", len(got), r.Len())
	}
	if r.CountKind(KindMeat)+r.CountKind(KindVegetation) != 16 {
		t.Error("Expected every food to be meat or vegetation")
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"meat", KindMeat, true},
		{"vegetation", KindVegetation, true},
		{"veg", KindVegetation, true},
		{"rock", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseKind(tt.in)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ParseKind(%q) = %v, %v; expected %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}
