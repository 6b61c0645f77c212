// Package sharedmap implements the shared-domain map: the setup pipeline
// that resolves every target point to a
// (source element, source rank) pair and caches the distributed plumbing
// needed to move field values from source to target, and the apply step
// that actually moves them.
package sharedmap

import (
	"github.com/notargets/meshxfer/bbox"
	"github.com/notargets/meshxfer/cell"
	"github.com/notargets/meshxfer/comm"
	"github.com/notargets/meshxfer/config"
	"github.com/notargets/meshxfer/meshmodel"
	"github.com/notargets/meshxfer/rendezvous"
	"github.com/notargets/meshxfer/xferr"
)

// FieldEvaluator evaluates a source field at a set of (element, point)
// pairs, returning one value vector per point. Called only on ranks that
// hold the corresponding source elements.
type FieldEvaluator func(elements []meshmodel.Ordinal, coords [][3]float64) ([][]float64, error)

// cachedSourceItem is one surviving (target-ordinal, target-coords,
// element-handle) triple this rank will evaluate during Apply.
type cachedSourceItem struct {
	TargetOrdinal int64
	Coord         [3]float64
	Element       meshmodel.Ordinal
}

// Map is the shared-domain map's persistent setup state.
type Map struct {
	c   comm.Communicator
	dim int
	opts config.MapOptions

	box bbox.Box

	mMax int64 // max per-rank local target count, used to decode ordinal -> (rank, local index)

	sourceItems []cachedSourceItem
	exportPlan  *comm.Plan // reused by every Apply: source ranks -> owning target rank

	localTargetCount int
	missed           []int64 // local indices of target points this map could not place
}

// SourceElements returns the element handles Apply will evaluate against,
// in the same order TargetCoords returns their coordinates.
func (m *Map) SourceElements() []meshmodel.Ordinal {
	out := make([]meshmodel.Ordinal, len(m.sourceItems))
	for i, it := range m.sourceItems {
		out[i] = it.Element
	}
	return out
}

// TargetCoords returns the coordinates Apply will evaluate the source
// field at.
func (m *Map) TargetCoords() [][3]float64 {
	out := make([][3]float64, len(m.sourceItems))
	for i, it := range m.sourceItems {
		out[i] = it.Coord
	}
	return out
}

// MissedTargetPoints returns the local indices (positions in Setup's
// targetCoords) of target points this map could not resolve to a source
// element, populated only when
// config.MapOptions.TrackMissedPoints was set at Setup.
func (m *Map) MissedTargetPoints() []int64 {
	return append([]int64(nil), m.missed...)
}

// ExporterTopology returns the cached exporter plan's destination images
// and per-image item counts, exposed so callers (and tests asserting
// idempotent setup) can compare exporter shape across two Setup calls
// without reaching into unexported state.
func (m *Map) ExporterTopology() ([]int, []int) {
	return m.exportPlan.ImagesTo(), m.exportPlan.LengthsTo()
}

// Setup runs the nine-stage build pipeline. mgr is this
// rank's local source mesh (nil if this rank holds no source), and
// targetCoords is this rank's local target points (nil or empty if this
// rank holds no target points). Every rank in c must call Setup
// collectively, regardless of whether it holds source, target, both, or
// neither.
func Setup(c comm.Communicator, dim int, mgr *meshmodel.Manager, targetCoords [][3]float64, opts config.MapOptions, registry *cell.Registry) (*Map, error) {
	hasSource := !mgr.Empty()
	hasTarget := len(targetCoords) > 0

	srcIdx := comm.NewIndexer(c, hasSource)
	tgtIdx := comm.NewIndexer(c, hasTarget)

	m := &Map{c: c, dim: dim, opts: opts, localTargetCount: len(targetCoords)}

	if srcIdx.Size() == 0 || tgtIdx.Size() == 0 {
		// Stage 1 collapses to the trivially empty map: nothing on either
		// side to intersect.
		m.box = bbox.Empty()
		m.mMax = 0
		m.exportPlan, _ = comm.CreateFromSends(c, nil)
		if opts.TrackMissedPoints {
			for i := range targetCoords {
				m.missed = append(m.missed, int64(i))
			}
		}
		return m, nil
	}

	// Stage 1: box exchange. Realized as two full-communicator reductions
	// rather than a literal rank0-to-rank0 handshake; see DESIGN.md.
	localSourceBox := bbox.Empty()
	if hasSource {
		localSourceBox = mgr.LocalBounds()
	}
	localTargetBox := bbox.Empty()
	if hasTarget {
		for _, p := range targetCoords {
			localTargetBox = bbox.Union(localTargetBox, bbox.FromPoint(p))
		}
	}
	globalSourceBox := bbox.GlobalReduce(c, localSourceBox)
	globalTargetBox := bbox.GlobalReduce(c, localTargetBox)
	box, ok := bbox.Intersect(globalSourceBox, globalTargetBox)
	if !ok {
		box = bbox.Empty()
	}
	m.box = box

	// Stage 2: rendezvous build over the intersection box.
	rz, err := rendezvous.Build(c, dim, mgr, box, registry)
	if err != nil {
		return nil, xferr.Communicationf("sharedmap: rendezvous build failed: %v", err)
	}

	// Stage 3: target-ordinal assignment.
	localCounts := []int64{int64(len(targetCoords))}
	mMaxVec := c.AllReduceMaxInt64(localCounts)
	mMax := mMaxVec[0]
	if mMax == 0 {
		mMax = 1 // avoid a degenerate ordinal scheme when no rank has any target points
	}
	m.mMax = mMax

	rank := int64(c.Rank())
	globalOrdinal := func(localIndex int) int64 { return rank*mMax + int64(localIndex) }

	// Stage 4: prune out-of-box targets.
	type survivor struct {
		ordinal int64
		coord   [3]float64
	}
	var inBox []survivor
	for i, p := range targetCoords {
		ord := globalOrdinal(i)
		if box.ContainsTol(p, opts.Tolerance) {
			inBox = append(inBox, survivor{ordinal: ord, coord: p})
		} else if opts.TrackMissedPoints {
			m.missed = append(m.missed, int64(i))
		}
	}

	// Stage 5: forward distribute in-box targets to rendezvous ranks.
	var coordsToSend [][3]float64
	var ordinalsToSend []int64
	for _, s := range inBox {
		coordsToSend = append(coordsToSend, s.coord)
		ordinalsToSend = append(ordinalsToSend, s.ordinal)
	}
	procs := rz.ProcsContainingPoints(coordsToSend)

	forwardPlan, err := comm.CreateFromSends(c, procs)
	if err != nil {
		return nil, xferr.Communicationf("sharedmap: forward distribute plan failed: %v", err)
	}
	forwardPayloads := make([][]byte, len(coordsToSend))
	for i := range coordsToSend {
		forwardPayloads[i], err = encodeTargetPoint(ordinalsToSend[i], coordsToSend[i])
		if err != nil {
			return nil, xferr.Communicationf("sharedmap: encoding target point: %v", err)
		}
	}
	recvdPoints, err := forwardPlan.DoPostsAndWaits(forwardPayloads)
	if err != nil {
		return nil, xferr.Communicationf("sharedmap: forward distribute failed: %v", err)
	}

	// Stage 6: point-in-element on each rendezvous rank.
	recvdOrdinals := make([]int64, len(recvdPoints))
	recvdCoords := make([][3]float64, len(recvdPoints))
	for i, raw := range recvdPoints {
		ord, coord, decErr := decodeTargetPoint(raw)
		if decErr != nil {
			return nil, xferr.Communicationf("sharedmap: decoding target point: %v", decErr)
		}
		recvdOrdinals[i] = ord
		recvdCoords[i] = coord
	}
	recvdHandles, recvdSourceRanks := rz.ElementsContainingPoints(recvdCoords, opts.Tolerance)

	var hitOrdinals []int64
	var hitCoords [][3]float64
	var elementHandles []meshmodel.Ordinal
	var elementSourceRanks []int
	var missBack []int64 // ordinals with no hit, routed back to their target rank
	for i, h := range recvdHandles {
		if h == meshmodel.Sentinel {
			if opts.TrackMissedPoints {
				missBack = append(missBack, recvdOrdinals[i])
			}
			continue
		}
		hitOrdinals = append(hitOrdinals, recvdOrdinals[i])
		hitCoords = append(hitCoords, recvdCoords[i])
		elementHandles = append(elementHandles, h)
		elementSourceRanks = append(elementSourceRanks, recvdSourceRanks[i])
	}

	// Recompute, per received item, which origin rank it came from so a
	// miss can be reported back; DoPostsAndWaits groups by ImagesFrom in
	// ascending order, preserving per-source send order within each group.
	originRanks := expandOrigins(forwardPlan)
	if opts.TrackMissedPoints {
		reported, err := reportMissed(c, originRanks, recvdPoints, missBack)
		if err != nil {
			return nil, err
		}
		for _, ord := range reported {
			m.missed = append(m.missed, ord%mMax)
		}
	}

	// Stage 7: reverse distribute surviving triples to the source-owning
	// rank.
	reversePlan, err := comm.CreateFromSends(c, elementSourceRanks)
	if err != nil {
		return nil, xferr.Communicationf("sharedmap: reverse distribute plan failed: %v", err)
	}
	reversePayloads := make([][]byte, len(hitOrdinals))
	for i := range hitOrdinals {
		reversePayloads[i], err = encodeSourceItem(hitOrdinals[i], hitCoords[i], elementHandles[i])
		if err != nil {
			return nil, xferr.Communicationf("sharedmap: encoding source item: %v", err)
		}
	}
	recvdItems, err := reversePlan.DoPostsAndWaits(reversePayloads)
	if err != nil {
		return nil, xferr.Communicationf("sharedmap: reverse distribute failed: %v", err)
	}

	var sourceItems []cachedSourceItem
	for _, raw := range recvdItems {
		ord, coord, handle, decErr := decodeSourceItem(raw)
		if decErr != nil {
			return nil, xferr.Communicationf("sharedmap: decoding source item: %v", decErr)
		}
		sourceItems = append(sourceItems, cachedSourceItem{TargetOrdinal: ord, Coord: coord, Element: handle})
	}
	m.sourceItems = sourceItems

	// Stage 8: build the exporter. The destination rank for each cached
	// item is arithmetic (ordinal / mMax); target_map/source_map are the
	// implicit ordinal scheme itself, per DESIGN.md.
	destRanks := make([]int, len(sourceItems))
	for i, it := range sourceItems {
		destRanks[i] = int(it.TargetOrdinal / mMax)
	}
	m.exportPlan, err = comm.CreateFromSends(c, destRanks)
	if err != nil {
		return nil, xferr.Communicationf("sharedmap: exporter plan failed: %v", err)
	}

	// Stage 9: barrier.
	c.Barrier()

	return m, nil
}

// expandOrigins reconstructs, for each item DoPostsAndWaits returned, the
// origin rank that sent it, by walking Plan's public (ImagesFrom,
// LengthsFrom) in order.
func expandOrigins(p *comm.Plan) []int {
	var out []int
	images, lengths := p.ImagesFrom(), p.LengthsFrom()
	for i, rank := range images {
		for j := 0; j < lengths[i]; j++ {
			out = append(out, rank)
		}
	}
	return out
}

// reportMissed sends the ordinals in missBack back to their origin ranks,
// so Setup's caller can see them in MissedTargetPoints, and returns the
// ordinals this rank receives back for its own target points. It builds a
// comm.Plan, so every rank calls it collectively when TrackMissedPoints is
// set, including ranks with no misses of their own.
func reportMissed(c comm.Communicator, originRanks []int, recvdPoints [][]byte, missBack []int64) ([]int64, error) {
	missSet := make(map[int64]bool, len(missBack))
	for _, o := range missBack {
		missSet[o] = true
	}
	var destRanks []int
	var payloads [][]byte
	for i, raw := range recvdPoints {
		ord, _, err := decodeTargetPoint(raw)
		if err != nil {
			return nil, xferr.Communicationf("sharedmap: decoding missed-point report: %v", err)
		}
		if !missSet[ord] {
			continue
		}
		destRanks = append(destRanks, originRanks[i])
		b, encErr := encodeOrdinal(ord)
		if encErr != nil {
			return nil, xferr.Communicationf("sharedmap: encoding missed-point report: %v", encErr)
		}
		payloads = append(payloads, b)
	}
	plan, err := comm.CreateFromSends(c, destRanks)
	if err != nil {
		return nil, xferr.Communicationf("sharedmap: missed-point report plan failed: %v", err)
	}
	received, err := plan.DoPostsAndWaits(payloads)
	if err != nil {
		return nil, xferr.Communicationf("sharedmap: missed-point report failed: %v", err)
	}
	out := make([]int64, len(received))
	for i, raw := range received {
		ord, decErr := decodeOrdinal(raw)
		if decErr != nil {
			return nil, xferr.Communicationf("sharedmap: decoding received missed-point report: %v", decErr)
		}
		out[i] = ord
	}
	return out, nil
}
