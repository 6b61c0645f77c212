package rcb

import (
	"bytes"
	"encoding/gob"
)

func gobEncodePoints(pts []Point) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(pts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecodePoints(data []byte, out *[]Point) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(out)
}
