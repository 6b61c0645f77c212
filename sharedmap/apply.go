package sharedmap

import (
	"github.com/notargets/meshxfer/xferr"
)

// Apply runs the five-step field transfer against this
// map's cached setup state: evaluate the source field at every cached
// (element, point) pair, move the results to their owning target rank
// along the cached exporter plan, and write them into target. Every rank
// that called Setup must call Apply collectively, whether or not it holds
// any source elements or target points.
func (m *Map) Apply(evaluator FieldEvaluator, target FieldWriter) error {
	// Step 1/2: evaluate the source field at this rank's cached points.
	var localValues [][]float64
	if len(m.sourceItems) > 0 {
		var err error
		localValues, err = evaluator(m.SourceElements(), m.TargetCoords())
		if err != nil {
			return xferr.Communicationf("sharedmap: field evaluation failed: %v", err)
		}
		if len(localValues) != len(m.sourceItems) {
			return xferr.Invariantf("sharedmap: evaluator returned %d values for %d points", len(localValues), len(m.sourceItems))
		}
	}

	localDim := int64(0)
	if len(localValues) > 0 {
		localDim = int64(len(localValues[0]))
	}
	fieldDim := int(m.c.AllReduceMaxInt64([]int64{localDim})[0])

	// Step 3: zero the target field so points this map never resolved a
	// source element for (a miss, or simply no local target points) read
	// back as a defined value.
	target.Zero(fieldDim)

	// Step 4: export evaluated values along the cached plan.
	payloads := make([][]byte, len(m.sourceItems))
	for i, it := range m.sourceItems {
		v := localValues[i]
		if len(v) != fieldDim {
			return xferr.Invariantf("sharedmap: evaluator returned %d components, want %d", len(v), fieldDim)
		}
		b, err := encodeFieldValue(it.TargetOrdinal, v)
		if err != nil {
			return xferr.Communicationf("sharedmap: encoding field value: %v", err)
		}
		payloads[i] = b
	}
	received, err := m.exportPlan.DoPostsAndWaits(payloads)
	if err != nil {
		return xferr.Communicationf("sharedmap: exporting field values failed: %v", err)
	}

	for _, raw := range received {
		ordinal, values, decErr := decodeFieldValue(raw)
		if decErr != nil {
			return xferr.Communicationf("sharedmap: decoding field value: %v", decErr)
		}
		localIndex := int(ordinal % m.mMax)
		target.SetPoint(localIndex, values)
	}

	// Step 5: barrier.
	m.c.Barrier()
	return nil
}

// FieldWriter is the target-side write contract Apply needs: a field
// sized to hold dim components per local target point, zeroable up front
// and writable one point at a time as export items arrive (arrival order
// is not the local point order).
type FieldWriter interface {
	Zero(dim int)
	SetPoint(localIndex int, values []float64)
}
