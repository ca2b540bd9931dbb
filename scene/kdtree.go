package scene

import (
	"math"
	"sort"

	"github.com/ajgappmark/RGK/types"
)

const (
	// Subtrees at or below this size become leaves.
	kdMaxLeafSize = 12

	// Extra depth allowed past the ceil(log2(N)) baseline. Straddling
	// triangles are duplicated into both children, so a little slack
	// keeps pathological fans from recursing forever.
	kdDepthSlack = 8

	kdStackDepth = 64
)

// A kd-tree node. Internal nodes split space at a plane perpendicular
// to one axis; leaves carry triangle indices. Nodes are stored in a
// flat slice and referenced by index.
type kdNode struct {
	min, max types.Vec3

	// 0, 1 or 2 for internal nodes; -1 for leaves.
	axis  int8
	split float32

	left, right int32

	tris []int32
}

// KdTree accelerates ray queries over a fixed triangle set. It is
// immutable after construction and safe for concurrent traversal.
type KdTree struct {
	nodes []kdNode
	tris  []Triangle

	// Per-triangle thin-glass flag, resolved at build time so that
	// traversal never has to touch the material list.
	thinglass []bool
}

type kdStackEntry struct {
	node       int32
	tmin, tmax float32
}

// newKdTree builds a tree over tris. thinglass marks, per triangle,
// whether it is a transmissive filter surface.
func newKdTree(tris []Triangle, thinglass []bool) *KdTree {
	t := &KdTree{tris: tris, thinglass: thinglass}
	if len(tris) == 0 {
		return t
	}

	items := make([]int32, len(tris))
	bmin := types.XYZ(float32(math.Inf(1)), float32(math.Inf(1)), float32(math.Inf(1)))
	bmax := bmin.Neg()
	for i := range tris {
		items[i] = int32(i)
		tmin, tmax := tris[i].BBox()
		bmin = types.MinVec3(bmin, tmin)
		bmax = types.MaxVec3(bmax, tmax)
	}

	maxDepth := int(math.Ceil(math.Log2(float64(len(tris))))) + kdDepthSlack
	t.build(items, bmin, bmax, 0, maxDepth)
	return t
}

func (t *KdTree) build(items []int32, bmin, bmax types.Vec3, depth, maxDepth int) int32 {
	nodeIndex := int32(len(t.nodes))
	t.nodes = append(t.nodes, kdNode{min: bmin, max: bmax, axis: -1})

	if len(items) <= kdMaxLeafSize || depth >= maxDepth {
		t.nodes[nodeIndex].tris = items
		return nodeIndex
	}

	// Split along the longest extent at the median triangle centroid.
	ext := bmax.Sub(bmin)
	axis := 0
	if ext[1] > ext[axis] {
		axis = 1
	}
	if ext[2] > ext[axis] {
		axis = 2
	}

	centers := make([]float32, len(items))
	for i, ti := range items {
		centers[i] = t.tris[ti].Center()[axis]
	}
	sort.Slice(centers, func(i, j int) bool { return centers[i] < centers[j] })
	split := centers[len(centers)/2]

	left := make([]int32, 0, len(items)/2+1)
	right := make([]int32, 0, len(items)/2+1)
	for _, ti := range items {
		tmin, tmax := t.tris[ti].BBox()
		if tmin[axis] < split {
			left = append(left, ti)
		}
		if tmax[axis] >= split {
			right = append(right, ti)
		}
	}

	// A split that fails to separate anything would recurse forever.
	if len(left) == len(items) && len(right) == len(items) ||
		len(left) == 0 || len(right) == 0 {
		t.nodes[nodeIndex].tris = items
		return nodeIndex
	}

	lmax := bmax
	lmax[axis] = split
	rmin := bmin
	rmin[axis] = split

	leftIndex := t.build(left, bmin, lmax, depth+1, maxDepth)
	rightIndex := t.build(right, rmin, bmax, depth+1, maxDepth)

	n := &t.nodes[nodeIndex]
	n.axis = int8(axis)
	n.split = split
	n.left = leftIndex
	n.right = rightIndex
	return nodeIndex
}

// clipToBounds intersects the ray parameter interval with the root
// bounding box. Returns false when the ray misses entirely.
func (t *KdTree) clipToBounds(r Ray) (float32, float32, bool) {
	tmin := r.Near
	tmax := r.Far
	root := &t.nodes[0]

	for axis := 0; axis < 3; axis++ {
		d := r.Dir[axis]
		o := r.Origin[axis]
		if d == 0 {
			if o < root.min[axis] || o > root.max[axis] {
				return 0, 0, false
			}
			continue
		}
		inv := 1.0 / d
		t0 := (root.min[axis] - o) * inv
		t1 := (root.max[axis] - o) * inv
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
		if tmin > tmax {
			return 0, 0, false
		}
	}
	return tmin, tmax, true
}

// FindClosest returns the closest hit along r. excluded (when >= 0) is
// a triangle index ignored entirely, used to keep secondary rays from
// re-hitting the surface they originate on. With collectThinglass set,
// thin-glass triangles never block the ray; instead every crossing in
// front of the final hit is recorded on the returned intersection.
func (t *KdTree) FindClosest(r Ray, excluded int, collectThinglass bool) Intersection {
	best := NoHit()
	best.T = r.Far
	if len(t.nodes) == 0 {
		return best
	}

	tmin, tmax, ok := t.clipToBounds(r)
	if !ok {
		return best
	}

	var tgList []ThinglassIsect

	var stack [kdStackDepth]kdStackEntry
	sp := 0
	stack[sp] = kdStackEntry{0, tmin, tmax}
	sp++

	for sp > 0 {
		sp--
		entry := stack[sp]
		if best.Hit() && best.T < entry.tmin {
			continue
		}

		node := entry.node
		tmin, tmax := entry.tmin, entry.tmax

		for t.nodes[node].axis >= 0 {
			n := &t.nodes[node]
			axis := int(n.axis)
			d := r.Dir[axis]
			o := r.Origin[axis]

			first, second := n.left, n.right
			if o > n.split || (o == n.split && d > 0) {
				first, second = n.right, n.left
			}

			if d == 0 {
				node = first
				continue
			}

			tsplit := (n.split - o) / d
			switch {
			case tsplit < 0 || tsplit >= tmax:
				node = first
			case tsplit <= tmin:
				node = second
			default:
				if sp < kdStackDepth {
					stack[sp] = kdStackEntry{second, tsplit, tmax}
					sp++
				}
				node = first
				tmax = tsplit
			}
		}

		for _, ti := range t.nodes[node].tris {
			if int(ti) == excluded {
				continue
			}
			if collectThinglass && t.thinglass[ti] {
				if ht, _, _, ok := t.tris[ti].Intersect(r); ok {
					tgList = append(tgList, ThinglassIsect{Triangle: int(ti), T: ht})
				}
				continue
			}
			clipped := r
			clipped.Far = best.T
			if ht, a, b, ok := t.tris[ti].Intersect(clipped); ok {
				best.Triangle = int(ti)
				best.T = ht
				best.A = a
				best.B = b
			}
		}
	}

	if collectThinglass && len(tgList) > 0 {
		if best.Hit() {
			// Drop filter crossings that lie beyond the surface we
			// actually hit; duplicated straddlers can report them.
			kept := tgList[:0]
			for _, tg := range tgList {
				if tg.T <= best.T {
					kept = append(kept, tg)
				}
			}
			tgList = kept
		}
		best.Thinglass = tgList
	}
	return best
}

// AnyHit returns the index of some triangle blocking r, or -1. With
// skipThinglass set, thin-glass triangles do not block; when tgOut is
// non-nil their crossings are appended to it.
func (t *KdTree) AnyHit(r Ray, skipThinglass bool, tgOut *[]ThinglassIsect) int {
	if len(t.nodes) == 0 {
		return -1
	}
	tmin, tmax, ok := t.clipToBounds(r)
	if !ok {
		return -1
	}

	var stack [kdStackDepth]kdStackEntry
	sp := 0
	stack[sp] = kdStackEntry{0, tmin, tmax}
	sp++

	for sp > 0 {
		sp--
		entry := stack[sp]
		node := entry.node
		tmin, tmax := entry.tmin, entry.tmax

		for t.nodes[node].axis >= 0 {
			n := &t.nodes[node]
			axis := int(n.axis)
			d := r.Dir[axis]
			o := r.Origin[axis]

			first, second := n.left, n.right
			if o > n.split || (o == n.split && d > 0) {
				first, second = n.right, n.left
			}

			if d == 0 {
				node = first
				continue
			}

			tsplit := (n.split - o) / d
			switch {
			case tsplit < 0 || tsplit >= tmax:
				node = first
			case tsplit <= tmin:
				node = second
			default:
				if sp < kdStackDepth {
					stack[sp] = kdStackEntry{second, tsplit, tmax}
					sp++
				}
				node = first
				tmax = tsplit
			}
		}

		for _, ti := range t.nodes[node].tris {
			if ht, _, _, ok := t.tris[ti].Intersect(r); ok {
				if skipThinglass && t.thinglass[ti] {
					if tgOut != nil {
						*tgOut = append(*tgOut, ThinglassIsect{Triangle: int(ti), T: ht})
					}
					continue
				}
				return int(ti)
			}
		}
	}
	return -1
}

// leafTriangles returns the union of triangle indices across all
// leaves. Exposed for the build invariant tests.
func (t *KdTree) leafTriangles() map[int32]bool {
	out := make(map[int32]bool)
	for i := range t.nodes {
		if t.nodes[i].axis < 0 {
			for _, ti := range t.nodes[i].tris {
				out[ti] = true
			}
		}
	}
	return out
}
