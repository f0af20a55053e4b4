// Package shortvec implements the compact length prefix used by the Solana
// wire format: little-endian groups of seven bits, at most three bytes long.
package shortvec

import (
	"io"
	"math"

	"github.com/pkg/errors"
)

// MaxLen is the longest encoding of a length.
const MaxLen = 3

var ErrTooLarge = errors.Errorf("length exceeds %d", math.MaxUint16)

// AppendLen appends the encoding of n to dst. dst is returned unchanged when
// n cannot be encoded.
func AppendLen(dst []byte, n int) ([]byte, error) {
	if n < 0 || n > math.MaxUint16 {
		return dst, ErrTooLarge
	}

	for n >= 0x80 {
		dst = append(dst, byte(n)|0x80)
		n >>= 7
	}
	return append(dst, byte(n)), nil
}

// ConsumeLen decodes a length from the front of b, returning the value and the
// number of bytes it occupied.
func ConsumeLen(b []byte) (n int, size int, err error) {
	for size < MaxLen {
		if size >= len(b) {
			return 0, 0, io.ErrUnexpectedEOF
		}

		v := b[size]
		n |= int(v&0x7f) << (7 * size)
		size++

		if v&0x80 == 0 {
			if n > math.MaxUint16 {
				return 0, 0, ErrTooLarge
			}
			return n, size, nil
		}
	}

	return 0, 0, errors.Errorf("length prefix longer than %d bytes", MaxLen)
}
