package comm

import (
	"bytes"
	"encoding/gob"
	"sync/atomic"

	"github.com/notargets/meshxfer/xferr"
)

var planTagSeq int64

// nextPlanTag hands out a process-wide unique candidate message tag;
// CreateFromSends agrees on one of them per Plan across ranks so that
// concurrently live plans on the same Communicator never cross streams,
// even though ordering is only guaranteed within one plan.
func nextPlanTag() int {
	return int(atomic.AddInt64(&planTagSeq, 1))
}

// Plan is the reusable output of CreateFromSends: a distributor/importer
// primitive. Given a per-item destination-rank list, it
// precomputes (imagesTo, lengthsTo, imagesFrom, lengthsFrom) via one
// AllToAll of send counts; DoPostsAndWaits then moves arbitrary typed
// payloads along the same plan as many times as needed.
type Plan struct {
	c Communicator
	// itemDest[i] is the destination rank of send item i, in the
	// caller's original order.
	itemDest []int

	imagesTo, lengthsTo     []int
	imagesFrom, lengthsFrom []int

	tag int
}

// CreateFromSends computes a Plan for moving len(itemDestRanks) items, one
// per entry, to the ranks named in itemDestRanks.
func CreateFromSends(c Communicator, itemDestRanks []int) (*Plan, error) {
	size := c.Size()
	sendCounts := make([]int, size)
	for _, d := range itemDestRanks {
		if d < 0 || d >= size {
			return nil, xferr.Preconditionf("comm: destination rank %d out of range [0,%d)", d, size)
		}
		sendCounts[d]++
	}

	recvCounts := c.AllToAll(sendCounts)

	// Every rank draws a candidate from the shared counter and the plan
	// adopts the largest draw, so all ranks agree on one tag that no other
	// plan uses.
	tag := int(c.AllReduceMaxInt64([]int64{int64(nextPlanTag())})[0])

	var imagesTo, lengthsTo, imagesFrom, lengthsFrom []int
	for r := 0; r < size; r++ {
		if sendCounts[r] > 0 {
			imagesTo = append(imagesTo, r)
			lengthsTo = append(lengthsTo, sendCounts[r])
		}
		if recvCounts[r] > 0 {
			imagesFrom = append(imagesFrom, r)
			lengthsFrom = append(lengthsFrom, recvCounts[r])
		}
	}

	return &Plan{
		c:           c,
		itemDest:    append([]int(nil), itemDestRanks...),
		imagesTo:    imagesTo,
		lengthsTo:   lengthsTo,
		imagesFrom:  imagesFrom,
		lengthsFrom: lengthsFrom,
		tag:         tag,
	}, nil
}

// NumSendItems returns the number of items this rank contributes.
func (p *Plan) NumSendItems() int { return len(p.itemDest) }

// TotalRecvItems returns the number of items this rank will receive on any
// call to DoPostsAndWaits.
func (p *Plan) TotalRecvItems() int {
	n := 0
	for _, l := range p.lengthsFrom {
		n += l
	}
	return n
}

func (p *Plan) ImagesTo() []int    { return append([]int(nil), p.imagesTo...) }
func (p *Plan) LengthsTo() []int   { return append([]int(nil), p.lengthsTo...) }
func (p *Plan) ImagesFrom() []int  { return append([]int(nil), p.imagesFrom...) }
func (p *Plan) LengthsFrom() []int { return append([]int(nil), p.lengthsFrom...) }

// DoPostsAndWaits moves one opaque payload per send item to its
// destination rank, preserving the sender-side order of items within each
// (source rank, destination rank) pair, and returns the received payloads
// grouped by source rank in ascending rank order (matching ImagesFrom's
// order). items must have length NumSendItems(); the returned slice has
// length TotalRecvItems().
func (p *Plan) DoPostsAndWaits(items [][]byte) ([][]byte, error) {
	if len(items) != len(p.itemDest) {
		return nil, xferr.Preconditionf("comm: DoPostsAndWaits got %d items, plan expects %d", len(items), len(p.itemDest))
	}

	groups := make(map[int][][]byte, len(p.imagesTo))
	for i, dest := range p.itemDest {
		groups[dest] = append(groups[dest], items[i])
	}
	for _, dest := range p.imagesTo {
		buf, err := gobEncode(groups[dest])
		if err != nil {
			return nil, xferr.Communicationf("comm: encoding send group to rank %d: %v", dest, err)
		}
		p.c.Send(dest, p.tag, buf)
	}

	out := make([][]byte, 0, p.TotalRecvItems())
	for _, src := range p.imagesFrom {
		raw := p.c.Recv(src, p.tag)
		var group [][]byte
		if err := gobDecode(raw, &group); err != nil {
			return nil, xferr.Communicationf("comm: decoding recv group from rank %d: %v", src, err)
		}
		out = append(out, group...)
	}
	return out, nil
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
