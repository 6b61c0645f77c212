package rendezvous

import (
	"bytes"
	"encoding/gob"
)

func gobEncodeFragment(f fragment) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecodeFragment(data []byte, out *fragment) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(out)
}
