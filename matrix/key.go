package matrix

import (
	"encoding/binary"
	"errors"
	"fmt"
)

var ErrInvalidKey = errors.New("matrix: invalid key")

// Key is the canonical encoding of a Matrix: one byte holding the dimension,
// followed by the entries in row-major order as big-endian int64. Equal
// matrices always produce equal keys, independent of platform.
type Key string

func (m Matrix) Key() Key {
	buf := make([]byte, 1, 1+8*len(m.data))
	buf[0] = byte(m.n)
	for _, v := range m.data {
		buf = binary.BigEndian.AppendUint64(buf, uint64(v))
	}
	return Key(buf)
}

// Decode is the inverse of Matrix.Key.
func Decode(k Key) (Matrix, error) {
	if len(k) == 0 {
		return Matrix{}, fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	n := int(k[0])
	if n == 0 || len(k) != 1+8*n*n {
		return Matrix{}, fmt.Errorf("%w: length %d for dimension %d", ErrInvalidKey, len(k), n)
	}
	b := []byte(k[1:])
	data := make([]int64, n*n)
	for i := range data {
		data[i] = int64(binary.BigEndian.Uint64(b[i*8:]))
	}
	return Matrix{n: n, data: data}, nil
}
