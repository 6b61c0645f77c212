package sharedmap

import (
	"bytes"
	"encoding/gob"

	"github.com/notargets/meshxfer/meshmodel"
)

// wireTargetPoint is the gob-encoded payload carried through the forward
// distribute (setup stage 5): a target point's global ordinal and
// coordinates.
type wireTargetPoint struct {
	Ordinal int64
	Coord   [3]float64
}

func encodeTargetPoint(ordinal int64, coord [3]float64) ([]byte, error) {
	return gobEncode(wireTargetPoint{Ordinal: ordinal, Coord: coord})
}

func decodeTargetPoint(data []byte) (int64, [3]float64, error) {
	var w wireTargetPoint
	if err := gobDecode(data, &w); err != nil {
		return 0, [3]float64{}, err
	}
	return w.Ordinal, w.Coord, nil
}

// wireSourceItem is the gob-encoded payload carried through the reverse
// distribute (setup stage 7): a resolved target ordinal, its coordinates,
// and the source element handle it maps to.
type wireSourceItem struct {
	Ordinal int64
	Coord   [3]float64
	Element meshmodel.Ordinal
}

func encodeSourceItem(ordinal int64, coord [3]float64, element meshmodel.Ordinal) ([]byte, error) {
	return gobEncode(wireSourceItem{Ordinal: ordinal, Coord: coord, Element: element})
}

func decodeSourceItem(data []byte) (int64, [3]float64, meshmodel.Ordinal, error) {
	var w wireSourceItem
	if err := gobDecode(data, &w); err != nil {
		return 0, [3]float64{}, 0, err
	}
	return w.Ordinal, w.Coord, w.Element, nil
}

// wireFieldValue is the gob-encoded payload carried through Apply's export
// plan: a target ordinal and its evaluated field value vector.
type wireFieldValue struct {
	Ordinal int64
	Values  []float64
}

func encodeFieldValue(ordinal int64, values []float64) ([]byte, error) {
	return gobEncode(wireFieldValue{Ordinal: ordinal, Values: values})
}

func decodeFieldValue(data []byte) (int64, []float64, error) {
	var w wireFieldValue
	if err := gobDecode(data, &w); err != nil {
		return 0, nil, err
	}
	return w.Ordinal, w.Values, nil
}

func encodeOrdinal(ordinal int64) ([]byte, error) {
	return gobEncode(ordinal)
}

func decodeOrdinal(data []byte) (int64, error) {
	var ordinal int64
	if err := gobDecode(data, &ordinal); err != nil {
		return 0, err
	}
	return ordinal, nil
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
