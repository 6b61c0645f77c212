package spline

import (
	"bytes"
	"encoding/gob"
	"math"

	"github.com/notargets/meshxfer/comm"
)

// GlobalCenters is the flattened, rank-ordered view of a set of local
// point clouds gathered from every rank. Its ordering (rank ascending,
// then within-rank order preserved) is deterministic and reproduced
// identically by every rank, so a global index into it means the same
// point everywhere without needing a separate distributed map.
//
// Rather than a genuinely distributed ghost-region gather, every rank
// gathers the complete point set once via one AllGatherBytes and works
// from the shared copy, the same strategy rcb.Build uses for its point
// exchange. See DESIGN.md's spline section for the tradeoff this
// simplification makes against a truly distributed ghost exchange.
type GlobalCenters struct {
	Coords [][3]float64
	// Owner[i] is the rank that contributed Coords[i].
	Owner []int
}

// GatherGlobalCenters collects local (this rank's point cloud) from every
// rank into one GlobalCenters, identical on every rank.
func GatherGlobalCenters(c comm.Communicator, local [][3]float64) (*GlobalCenters, error) {
	buf, err := gobEncode(local)
	if err != nil {
		return nil, err
	}
	gathered := c.AllGatherBytes(buf)

	out := &GlobalCenters{}
	for rank, raw := range gathered {
		var pts [][3]float64
		if err := gobDecode(raw, &pts); err != nil {
			return nil, err
		}
		for _, p := range pts {
			out.Coords = append(out.Coords, p)
			out.Owner = append(out.Owner, rank)
		}
	}
	return out, nil
}

// Len returns the total number of gathered centers.
func (g *GlobalCenters) Len() int { return len(g.Coords) }

func dist(a, b [3]float64) float64 {
	dx, dy, dz := a[0]-b[0], a[1]-b[1], a[2]-b[2]
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

func gobEncode(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}
