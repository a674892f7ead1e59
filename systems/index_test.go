package systems

import (
	"math"
	"sort"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/steering"
)

func testBodies() []steering.Body {
	return []steering.Body{
		{ID: 1, Position: r2.Vec{X: 100, Y: 100}, Radius: 2, Tag: 1},
		{ID: 2, Position: r2.Vec{X: 110, Y: 100}, Radius: 2, Tag: 1},
		{ID: 3, Position: r2.Vec{X: 300, Y: 300}, Radius: 2, Tag: 1},
		{ID: 4, Position: r2.Vec{X: 160, Y: 100}, Radius: 40, Tag: 2}, // large obstacle
		{ID: 5, Position: r2.Vec{X: 0, Y: 0}, Radius: 1, Tag: 1},
	}
}

func broadphases() map[string]func() Broadphase {
	return map[string]func() Broadphase{
		"grid":  func() Broadphase { return NewSpatialGrid(400, 400, 16) },
		"rtree": func() Broadphase { return NewRTree() },
	}
}

func ids(bodies []*steering.Body) []int {
	out := make([]int, len(bodies))
	for i, b := range bodies {
		out[i] = int(b.ID)
	}
	sort.Ints(out)
	return out
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestIndexInRadius(t *testing.T) {
	tests := []struct {
		name   string
		center r2.Vec
		radius float64
		want   []int
	}{
		{"self and neighbor", r2.Vec{X: 100, Y: 100}, 15, []int{1, 2}},
		{"large body edge counts", r2.Vec{X: 100, Y: 100}, 25, []int{1, 2, 4}},
		{"isolated", r2.Vec{X: 300, Y: 300}, 5, []int{3}},
		{"empty region", r2.Vec{X: 250, Y: 20}, 5, nil},
		{"corner", r2.Vec{X: 0, Y: 0}, 3, []int{5}},
	}
	for name, mk := range broadphases() {
		ix := NewIndex(mk(), nil)
		ix.Rebuild(testBodies())
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				got := ids(ix.InRadius(nil, tt.center, tt.radius))
				if !equalInts(got, tt.want) {
					t.Errorf("got %v, want %v", got, tt.want)
				}
			})
		}
	}
}

// A dense crowd around the query point must not crowd out an obstacle in range.
func TestIndexInRadiusDenseCrowd(t *testing.T) {
	const rock steering.Tag = 4
	bodies := make([]steering.Body, 0, 201)
	bodies = append(bodies, steering.Body{ID: 1, Position: r2.Vec{X: 200, Y: 240}, Radius: 10, Tag: rock})
	for i := 0; i < 200; i++ {
		bodies = append(bodies, steering.Body{
			ID:       steering.ID(i + 2),
			Position: r2.Vec{X: 170 + float64(i%20), Y: 170 + float64(i/20)},
			Radius:   1,
			Tag:      1,
		})
	}

	for name, mk := range broadphases() {
		t.Run(name, func(t *testing.T) {
			ix := NewIndex(mk(), nil)
			ix.Rebuild(bodies)

			got := ix.InRadius(nil, r2.Vec{X: 200, Y: 200}, 60)
			if len(got) != len(bodies) {
				t.Errorf("got %d results, want %d", len(got), len(bodies))
			}
			found := false
			for _, b := range got {
				if b.ID == 1 {
					found = true
				}
			}
			if !found {
				t.Error("obstacle missing from crowded query")
			}
		})
	}
}

func TestIndexLookup(t *testing.T) {
	ix := NewIndex(NewSpatialGrid(400, 400, 16), nil)
	ix.Rebuild(testBodies())

	b, ok := ix.Lookup(3)
	if !ok || b.Position != (r2.Vec{X: 300, Y: 300}) {
		t.Errorf("Lookup(3) = %v, %v", b, ok)
	}
	if _, ok := ix.Lookup(99); ok {
		t.Error("Lookup(99) found a body")
	}
	if _, ok := ix.Lookup(steering.NoID); ok {
		t.Error("Lookup(NoID) found a body")
	}

	// rebuilding without a body makes its ID stale
	ix.Rebuild(testBodies()[:2])
	if _, ok := ix.Lookup(3); ok {
		t.Error("Lookup(3) after removal found a body")
	}
}

func casters() map[string]func() *Index {
	return map[string]func() *Index{
		"analytic/grid":  func() *Index { return NewIndex(NewSpatialGrid(400, 400, 16), nil) },
		"analytic/rtree": func() *Index { return NewIndex(NewRTree(), nil) },
		"box2d":          func() *Index { return NewIndex(NewSpatialGrid(400, 400, 16), NewBox2DCaster()) },
	}
}

func TestRayIntersect(t *testing.T) {
	for name, mk := range casters() {
		ix := mk()
		ix.Rebuild(testBodies())

		t.Run(name+"/hits large obstacle", func(t *testing.T) {
			// starts inside body 1, passes body 2, filter selects obstacles only
			hit := ix.RayIntersect(r2.Vec{X: 100, Y: 100}, r2.Vec{X: 1}, 200, 2)
			if !hit.Valid || hit.ID != 4 {
				t.Fatalf("got %+v, want hit on 4", hit)
			}
			if math.Abs(hit.Depth-20) > 1e-3 {
				t.Errorf("depth: got %f, want 20", hit.Depth)
			}
			if math.Abs(hit.Normal.X+1) > 1e-3 || math.Abs(hit.Normal.Y) > 1e-3 {
				t.Errorf("normal: got %v, want (-1,0)", hit.Normal)
			}
		})

		t.Run(name+"/nearest wins", func(t *testing.T) {
			hit := ix.RayIntersect(r2.Vec{X: 90, Y: 100}, r2.Vec{X: 1}, 200, 0)
			if !hit.Valid || hit.ID != 1 {
				t.Errorf("got %+v, want hit on 1", hit)
			}
		})

		t.Run(name+"/too short", func(t *testing.T) {
			if hit := ix.RayIntersect(r2.Vec{X: 200, Y: 200}, r2.Vec{X: 1}, 50, 0); hit.Valid {
				t.Errorf("got %+v, want miss", hit)
			}
		})
	}
}

func TestBox2DCasterSync(t *testing.T) {
	c := NewBox2DCaster()
	bodies := testBodies()
	c.Sync(bodies)
	if got := c.Len(); got != len(bodies) {
		t.Fatalf("mirrored %d bodies, want %d", got, len(bodies))
	}

	// move the obstacle out of the ray's way and drop two bodies
	bodies[3].Position = r2.Vec{X: 160, Y: 300}
	c.Sync(bodies[2:4])
	if got := c.Len(); got != 2 {
		t.Fatalf("mirrored %d bodies, want 2", got)
	}
	if hit := c.Cast(r2.Vec{X: 100, Y: 100}, r2.Vec{X: 1}, 200, 2); hit.Valid {
		t.Errorf("hit moved obstacle: %+v", hit)
	}
}
