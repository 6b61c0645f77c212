package meshmodel

import "math"

// Ordinal is a 64-bit identifier globally unique across the communicator:
// a vertex handle, an element handle, or a target-point ordinal.
type Ordinal int64

// Sentinel encodes "not found". It must never be a legitimate handle; the
// maximum representable Ordinal is reserved for this purpose.
const Sentinel Ordinal = math.MaxInt64

// IsSentinel reports whether o is the sentinel "not found" value.
func (o Ordinal) IsSentinel() bool {
	return o == Sentinel
}
