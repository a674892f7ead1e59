package systems

import (
	"math"

	"github.com/dhconnelly/rtreego"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/shoal/steering"
)

// rtree branching factors.
const (
	rtreeMinChildren = 25
	rtreeMaxChildren = 50
)

// minExtent keeps zero-radius bodies from producing degenerate rectangles.
const minExtent = 1e-6

type rtreeItem struct {
	idx  int
	rect rtreego.Rect
}

func (it *rtreeItem) Bounds() rtreego.Rect { return it.rect }

// RTree is a Broadphase backed by a bulk-loaded R-tree of body bounding boxes.
// It suits worlds with a few large obstacles among many small agents, where a
// uniform grid has to be tuned to the largest body.
type RTree struct {
	tree     *rtreego.Rtree
	items    []rtreeItem
	spatials []rtreego.Spatial
}

// NewRTree creates an empty R-tree broad phase.
func NewRTree() *RTree {
	return &RTree{tree: rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren)}
}

// Rebuild bulk-loads the tree from the snapshot.
func (t *RTree) Rebuild(bodies []steering.Body) {
	t.items = t.items[:0]
	for i := range bodies {
		b := &bodies[i]
		t.items = append(t.items, rtreeItem{
			idx:  i,
			rect: rtreego.Point{b.Position.X, b.Position.Y}.ToRect(math.Max(b.Radius, minExtent)),
		})
	}
	t.spatials = t.spatials[:0]
	for i := range t.items {
		t.spatials = append(t.spatials, &t.items[i])
	}
	t.tree = rtreego.NewTree(2, rtreeMinChildren, rtreeMaxChildren, t.spatials...)
}

// Visit reports every body whose bounding box intersects the query square.
func (t *RTree) Visit(center r2.Vec, radius float64, fn func(i int) bool) {
	bb := rtreego.Point{center.X, center.Y}.ToRect(math.Max(radius, minExtent))
	for _, s := range t.tree.SearchIntersect(bb) {
		if !fn(s.(*rtreeItem).idx) {
			return
		}
	}
}

// Size returns the number of bodies in the tree.
func (t *RTree) Size() int { return t.tree.Size() }
