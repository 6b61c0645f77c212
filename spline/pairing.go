package spline

// Pairing records, for each point in a query set, the indices into a
// GlobalCenters source set lying within the basis's support radius,
// sorted ascending by source index for determinism. A radius-neighbor
// search sparsifies the RBF operators below.
type Pairing struct {
	// Neighbors[i] holds the source indices paired with query point i.
	Neighbors [][]int
}

// BuildPairing scans queries against sources and records every source
// index within radius (inclusive) of each query point. A naive O(Nq*Ns)
// scan is adequate here because sources is already the module-wide
// replicated point set every rank holds identically; a production build
// would spatially index sources first (e.g. via the kdtree package).
func BuildPairing(sources *GlobalCenters, queries [][3]float64, radius float64) *Pairing {
	p := &Pairing{Neighbors: make([][]int, len(queries))}
	for qi, q := range queries {
		var nb []int
		for si, s := range sources.Coords {
			if dist(q, s) <= radius {
				nb = append(nb, si)
			}
		}
		p.Neighbors[qi] = nb
	}
	return p
}
