package rendezvous

import (
	"github.com/notargets/meshxfer/bbox"
	"github.com/notargets/meshxfer/cell"
	"github.com/notargets/meshxfer/comm"
	"github.com/notargets/meshxfer/meshmodel"
	"github.com/notargets/meshxfer/rcb"
	"github.com/notargets/meshxfer/xferr"
)

// Rendezvous orchestrates the five-stage build and exposes
// its two query operations, ProcsContainingPoints and
// ElementsContainingPoints, to the shared-domain map.
type Rendezvous struct {
	c         comm.Communicator
	dim       int
	box       bbox.Box
	partition *rcb.Partition
	mesh      *Mesh
}

// Box returns the intersecting "interesting region" this rendezvous was
// built over (the global source box intersected with the caller-supplied
// region of interest).
func (r *Rendezvous) Box() bbox.Box { return r.box }

// NumLocalElements returns the number of elements this rank holds after
// redistribution.
func (r *Rendezvous) NumLocalElements() int { return r.mesh.NumElements() }

// Build performs the five-stage rendezvous construction: box intersection,
// RCB over restricted source vertices, in-box element packing, forward
// redistribution via the distributor, and kD-tree indexing of the result.
// mgr may be nil or empty on any rank; those ranks still participate in
// every collective call.
func Build(c comm.Communicator, dim int, mgr *meshmodel.Manager, interestingBox bbox.Box, registry *cell.Registry) (*Rendezvous, error) {
	local := bbox.Empty()
	if !mgr.Empty() {
		local = mgr.LocalBounds()
	}
	globalSourceBox := bbox.GlobalReduce(c, local)

	box, ok := bbox.Intersect(globalSourceBox, interestingBox)
	if !ok {
		box = bbox.Empty()
	}

	points := restrictedVertices(mgr, box)
	partition, err := rcb.Build(c, dim, points)
	if err != nil {
		return nil, xferr.Communicationf("rendezvous: RCB build failed: %v", err)
	}

	destRanks, frags := packInBoxElements(mgr, c.Rank(), box, partition)

	plan, err := comm.CreateFromSends(c, destRanks)
	if err != nil {
		return nil, xferr.Communicationf("rendezvous: distributor plan failed: %v", err)
	}

	sendPayloads := make([][]byte, len(frags))
	for i, f := range frags {
		b, encErr := gobEncodeFragment(f)
		if encErr != nil {
			return nil, xferr.Communicationf("rendezvous: encoding element fragment: %v", encErr)
		}
		sendPayloads[i] = b
	}

	recvPayloads, err := plan.DoPostsAndWaits(sendPayloads)
	if err != nil {
		return nil, xferr.Communicationf("rendezvous: element exchange failed: %v", err)
	}

	incoming := make([]fragment, len(recvPayloads))
	for i, b := range recvPayloads {
		if decErr := gobDecodeFragment(b, &incoming[i]); decErr != nil {
			return nil, xferr.Communicationf("rendezvous: decoding element fragment: %v", decErr)
		}
	}

	mesh := buildMesh(dim, incoming, registry)

	return &Rendezvous{c: c, dim: dim, box: box, partition: partition, mesh: mesh}, nil
}

// restrictedVertices collects every local source vertex lying inside box,
// the RCB input set.
func restrictedVertices(mgr *meshmodel.Manager, box bbox.Box) []rcb.Point {
	if mgr == nil {
		return nil
	}
	var points []rcb.Point
	for _, blk := range mgr.Blocks {
		nv := blk.NumVertices()
		for i := 0; i < nv; i++ {
			p := blk.VertexCoord(i)
			if box.Contains(p) {
				points = append(points, rcb.NewPoint(blk.VertexHandles[i], p))
			}
		}
	}
	return points
}

// packInBoxElements finds every local element whose bounding box overlaps
// box and packs exactly one fragment per such element, addressed to
// exactly one rendezvous rank: the rank elementOwnerRank picks. An element
// straddling several rank boxes is still packed only once, so every source
// element whose bounds intersect box ends up on exactly one rendezvous
// rank, never duplicated and never dropped.
func packInBoxElements(mgr *meshmodel.Manager, sourceRank int, box bbox.Box, partition *rcb.Partition) ([]int, []fragment) {
	if mgr == nil {
		return nil, nil
	}
	var destRanks []int
	var frags []fragment
	for _, blk := range mgr.Blocks {
		ne := blk.NumElements()
		for e := 0; e < ne; e++ {
			eb := blk.ElementBounds(e)
			if _, overlaps := bbox.Intersect(eb, box); !overlaps {
				continue
			}
			destRanks = append(destRanks, elementOwnerRank(blk, e, partition))
			frags = append(frags, packFragment(blk, e, sourceRank))
		}
	}
	return destRanks, frags
}

// elementOwnerRank deterministically assigns exactly one rendezvous rank to
// an element: the rank RCB assigns to the element's smallest-handle
// vertex. Every rank computes this identically from the same RCB
// partition, so an element whose bounds overlap several rank boxes is
// still routed to exactly one of them.
func elementOwnerRank(blk *meshmodel.Block, elem int, partition *rcb.Partition) int {
	anchor := blk.ElementVertexIndex(elem, 0)
	anchorHandle := blk.VertexHandles[anchor]
	for local := 1; local < blk.VpE; local++ {
		vi := blk.ElementVertexIndex(elem, local)
		if h := blk.VertexHandles[vi]; h < anchorHandle {
			anchorHandle = h
			anchor = vi
		}
	}
	return partition.RankOf(blk.VertexCoord(anchor))
}

func packFragment(blk *meshmodel.Block, elem, sourceRank int) fragment {
	vpe := blk.VpE
	vertexHandles := make([]meshmodel.Ordinal, vpe)
	vertexCoords := make([][3]float64, vpe)
	for local := 0; local < vpe; local++ {
		vi := blk.ElementVertexIndex(elem, local)
		vertexHandles[local] = blk.VertexHandles[vi]
		vertexCoords[local] = blk.VertexCoord(vi)
	}
	return fragment{
		Handle:        blk.ElementHandles[elem],
		SourceRank:    sourceRank,
		Topology:      blk.Topology,
		Permutation:   append([]int(nil), blk.Permutation...),
		VertexHandles: vertexHandles,
		VertexCoords:  vertexCoords,
	}
}

// ProcsContainingPoints returns, for each query point, the rank the RCB
// partition assigns it to.
func (r *Rendezvous) ProcsContainingPoints(points [][3]float64) []int {
	out := make([]int, len(points))
	for i, p := range points {
		out[i] = r.partition.RankOf(p)
	}
	return out
}

// ElementsContainingPoints resolves each query point to a local element
// handle (or meshmodel.Sentinel if none contains it) and that element's
// original owning source rank.
func (r *Rendezvous) ElementsContainingPoints(points [][3]float64, tol float64) ([]meshmodel.Ordinal, []int) {
	handles := make([]meshmodel.Ordinal, len(points))
	sourceRanks := make([]int, len(points))
	for i, p := range points {
		h := r.mesh.FindElementContaining(p, tol)
		handles[i] = h
		if h == meshmodel.Sentinel {
			sourceRanks[i] = -1
			continue
		}
		sr, _ := r.mesh.SourceRankOf(h)
		sourceRanks[i] = sr
	}
	return handles, sourceRanks
}
