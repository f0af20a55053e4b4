package sync

import (
	"encoding/binary"
	"strconv"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/emirpasic/gods/utils"
	"github.com/spaolacci/murmur3"
)

// virtualNodes is the number of ring positions given to each stripe
const virtualNodes = 200

// ring is a consistent hash ring mapping keys to stripe indexes
type ring struct {
	positions *treemap.Map
	first     int
}

func newRing(stripes uint) *ring {
	positions := treemap.NewWith(utils.Int64Comparator)

	for stripe := 0; stripe < int(stripes); stripe++ {
		seed, _ := murmur3.Sum128([]byte("stripe" + strconv.Itoa(stripe)))

		var buf [12]byte
		binary.LittleEndian.PutUint64(buf[:8], seed)
		for node := uint32(0); node < virtualNodes; node++ {
			binary.LittleEndian.PutUint32(buf[8:], node)
			position, _ := murmur3.Sum128(buf[:])
			positions.Put(int64(position), stripe)
		}
	}

	r := &ring{positions: positions}
	if _, first := positions.Min(); first != nil {
		r.first = first.(int)
	}
	return r
}

// shard returns the stripe owning the first position at or after the key's
// hash, wrapping around to the start of the ring
func (r *ring) shard(key []byte) int {
	hash, _ := murmur3.Sum128(key)
	if _, stripe := r.positions.Ceiling(int64(hash)); stripe != nil {
		return stripe.(int)
	}
	return r.first
}
