package meshmodel

import (
	"github.com/notargets/meshxfer/bbox"
	"github.com/notargets/meshxfer/xferr"
)

// Manager is a sequence of mesh blocks on one rank plus the rank's global
// dimension: a read-only,
// block-strided view over a user mesh adapter, potentially empty on some
// ranks.
type Manager struct {
	Dim    int
	Blocks []*Block
}

// NewManager constructs a Manager over blocks, all of which must share Dim.
func NewManager(dim int, blocks []*Block) (*Manager, error) {
	for _, b := range blocks {
		if b.Dim != dim {
			return nil, xferr.Preconditionf("meshmodel: manager dimension mismatch: block has dim %d, manager expects %d", b.Dim, dim)
		}
		if err := b.Validate(); err != nil {
			return nil, err
		}
	}
	return &Manager{Dim: dim, Blocks: blocks}, nil
}

// NumElements returns the total element count across all blocks.
func (m *Manager) NumElements() int {
	n := 0
	for _, b := range m.Blocks {
		n += b.NumElements()
	}
	return n
}

// Empty reports whether the manager carries no elements at all, the case
// for a rank with no local source mesh.
func (m *Manager) Empty() bool {
	return m == nil || m.NumElements() == 0
}

// LocalBounds returns the bounding box of every vertex across every block
// on this rank. Returns bbox.Empty() if the manager is empty.
func (m *Manager) LocalBounds() bbox.Box {
	out := bbox.Empty()
	if m == nil {
		return out
	}
	for _, b := range m.Blocks {
		out = bbox.Union(out, b.BoundsOf())
	}
	return out
}

// GlobalBounds performs the global reduction of LocalBounds across the
// given reducer (typically a comm.Communicator).
func (m *Manager) GlobalBounds(r bbox.Reducer) bbox.Box {
	return bbox.GlobalReduce(r, m.LocalBounds())
}

