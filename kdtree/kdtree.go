// Package kdtree implements a local spatial index over rendezvous
// element centroids/bboxes: a balanced, median-split kD-tree with
// per-node axis-aligned bounding boxes, supporting
// FindContaining queries that descend every node whose bbox contains the
// query point and resolve point-in-element on each candidate leaf.
package kdtree

import (
	"sort"

	"github.com/notargets/meshxfer/bbox"
	"github.com/notargets/meshxfer/meshmodel"
)

// Element is one entry indexed by the tree: an element handle, its
// centroid (used for the median-split construction), and its bounding box
// (used for node-bbox pruning and for the leaf-level inclusion test via
// Locator).
type Element struct {
	Handle   meshmodel.Ordinal
	Centroid [3]float64
	Bounds   bbox.Box
}

// Locator tests whether a world-space point lies inside a specific element,
// given that element's handle. The kD-tree is agnostic to element
// topology; callers supply this closure (typically backed by
// cell.Registry.PointInAny over a rendezvous.Mesh) to perform the final
// reference-frame inclusion test.
type Locator func(handle meshmodel.Ordinal, p [3]float64) bool

// node is one kD-tree node: a median element along the node's split
// dimension, plus the bounding box enclosing every element in its subtree.
type node struct {
	elem        Element
	dim         int
	left, right *node
	bounds      bbox.Box
}

// Tree is a balanced, median-split kD-tree over element centroids.
type Tree struct {
	root *node
	dim  int // number of active spatial dimensions, 1..3
	n    int
}

// Build constructs a balanced kD-tree over elements, splitting across dim
// active dimensions (1, 2, or 3) in round-robin order.
func Build(elements []Element, dim int) *Tree {
	t := &Tree{dim: dim, n: len(elements)}
	items := append([]Element(nil), elements...)
	t.root = build(items, 0, dim)
	return t
}

// Len returns the number of elements indexed by the tree.
func (t *Tree) Len() int { return t.n }

func build(items []Element, depth, dim int) *node {
	if len(items) == 0 {
		return nil
	}
	axis := depth % dim
	sort.Slice(items, func(i, j int) bool {
		return items[i].Centroid[axis] < items[j].Centroid[axis]
	})
	mid := len(items) / 2
	n := &node{elem: items[mid], dim: axis}
	n.left = build(items[:mid], depth+1, dim)
	n.right = build(items[mid+1:], depth+1, dim)

	n.bounds = n.elem.Bounds
	if n.left != nil {
		n.bounds = bbox.Union(n.bounds, n.left.bounds)
	}
	if n.right != nil {
		n.bounds = bbox.Union(n.bounds, n.right.bounds)
	}
	return n
}

// sentinelHit is returned by FindContaining when no element contains the
// query point.
const sentinelHit = meshmodel.Sentinel

// FindContaining descends every subtree whose bounding box contains p and
// runs locate on each candidate element's handle, returning the hit with
// the smallest handle (sentinel if none). Among elements that legitimately
// share a point (shared faces/edges), the smallest handle wins, so the result is
// deterministic regardless of tree shape or traversal order.
func (t *Tree) FindContaining(p [3]float64, locate Locator) meshmodel.Ordinal {
	if t.root == nil {
		return sentinelHit
	}
	best := sentinelHit
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil || !n.bounds.Contains(p) {
			return
		}
		if n.elem.Bounds.Contains(p) && locate(n.elem.Handle, p) {
			if best == sentinelHit || n.elem.Handle < best {
				best = n.elem.Handle
			}
		}
		walk(n.left)
		walk(n.right)
	}
	walk(t.root)
	return best
}

// Nearest returns the handle of the element whose centroid is closest to
// p, using a simple branch-and-bound descent. Used when FindContaining
// misses but an approximate nearest element is still useful (e.g.
// diagnostics); the shared-domain map itself only relies on
// FindContaining.
func (t *Tree) Nearest(p [3]float64) (meshmodel.Ordinal, bool) {
	if t.root == nil {
		return sentinelHit, false
	}
	bestDist := -1.0
	best := sentinelHit
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		d := sqDist(n.elem.Centroid, p)
		if bestDist < 0 || d < bestDist {
			bestDist = d
			best = n.elem.Handle
		}
		diff := p[n.dim] - n.elem.Centroid[n.dim]
		near, far := n.left, n.right
		if diff > 0 {
			near, far = n.right, n.left
		}
		walk(near)
		if diff*diff < bestDist || bestDist < 0 {
			walk(far)
		}
	}
	walk(t.root)
	return best, best != sentinelHit
}

func sqDist(a, b [3]float64) float64 {
	var s float64
	for d := 0; d < 3; d++ {
		diff := a[d] - b[d]
		s += diff * diff
	}
	return s
}
