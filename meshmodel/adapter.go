package meshmodel

// MeshAdapter is the external mesh-trait contract: a runtime capability
// interface rather than a compile-time trait, so the core compiles once
// and pays one virtual call per element, negligible next to communication.
//
// A single adapter exposes exactly one topology's worth of elements; a
// mesh with multiple element-topology blocks is represented by multiple
// MeshAdapter values, one per block, collected into a Manager via
// BuildManager.
type MeshAdapter interface {
	VertexDim() int
	VerticesPerElement() int
	ElementTopology() Topology

	// NumVertices and NumElements give the block's Nv and Ne.
	NumVertices() int
	NumElements() int

	// VertexHandles returns the Nv vertex handles.
	VertexHandles() []Ordinal
	// Coordinates returns the Dim*Nv block-strided vertex coordinates.
	Coordinates() []float64
	// ElementHandles returns the Ne element handles.
	ElementHandles() []Ordinal
	// Connectivity returns the VpE*Ne block-strided connectivity.
	Connectivity() []Ordinal
	// Permutation returns the VpE-length canonical-ordering permutation.
	Permutation() []int
}

// BuildBlock materializes a Block by copying out of a MeshAdapter. The
// adapter is only read during this call; the resulting Block has no
// further dependency on it.
func BuildBlock(a MeshAdapter) *Block {
	return &Block{
		Dim:            a.VertexDim(),
		VertexCoords:   append([]float64(nil), a.Coordinates()...),
		VertexHandles:  append([]Ordinal(nil), a.VertexHandles()...),
		Topology:       a.ElementTopology(),
		VpE:            a.VerticesPerElement(),
		ElementHandles: append([]Ordinal(nil), a.ElementHandles()...),
		Connectivity:   append([]Ordinal(nil), a.Connectivity()...),
		Permutation:    append([]int(nil), a.Permutation()...),
	}
}

// BuildManager constructs a Manager from one MeshAdapter per topology
// block, all sharing dim.
func BuildManager(dim int, adapters []MeshAdapter) (*Manager, error) {
	blocks := make([]*Block, len(adapters))
	for i, a := range adapters {
		blocks[i] = BuildBlock(a)
	}
	return NewManager(dim, blocks)
}

// FieldAdapter is the external field-trait contract: a
// read-only or writable dense vector of Dim components per Nv mesh
// vertices (or, for target fields, per target point).
type FieldAdapter interface {
	Dim() int
	Size() int // total value count = Dim() * Nv
	Empty() bool
	Values() []float64
	// SetValues overwrites the field's backing storage. Writable target
	// field views implement this; read-only source field views may panic.
	SetValues([]float64)
}
