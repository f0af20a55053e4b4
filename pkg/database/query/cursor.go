package query

import (
	"encoding/binary"
)

const cursorSize = 8

// Cursor is an opaque position in a paginated result set, encoding the id of
// the last record seen
type Cursor []byte

var EmptyCursor = Cursor{}

func ToCursor(val uint64) Cursor {
	b := make([]byte, cursorSize)
	binary.BigEndian.PutUint64(b, val)
	return b
}

func (c Cursor) ToUint64() uint64 {
	return binary.BigEndian.Uint64(c)
}
