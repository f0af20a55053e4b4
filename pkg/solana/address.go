package solana

import (
	"crypto/ed25519"
	"crypto/sha256"
	"math"

	"github.com/jdgcs/ed25519/edwards25519"
	"github.com/pkg/errors"
)

const (
	MaxSeeds      = 16
	MaxSeedLength = 32
)

var (
	ErrTooManySeeds     = errors.New("too many seeds")
	ErrSeedTooLong      = errors.New("seed too long")
	ErrInvalidPublicKey = errors.New("invalid public key")
	ErrNoViableBump     = errors.New("unable to find a viable program address bump seed")
)

const pdaMarker = "ProgramDerivedAddress"

// CreateProgramAddress hashes the seeds together with the program into an
// address. Program addresses must not lie on the ed25519 curve, so that no
// private key can sign for them; ErrInvalidPublicKey is returned when the hash
// happens to land on the curve.
//
// Reference: https://github.com/solana-labs/solana/blob/5548e599fe4920b71766e0ad1d121755ce9c63d5/sdk/program/src/pubkey.rs#L158
func CreateProgramAddress(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, error) {
	if len(seeds) > MaxSeeds {
		return nil, ErrTooManySeeds
	}

	h := sha256.New()
	for _, seed := range seeds {
		if len(seed) > MaxSeedLength {
			return nil, ErrSeedTooLong
		}
		h.Write(seed)
	}
	h.Write(program)
	h.Write([]byte(pdaMarker))

	address := ed25519.PublicKey(h.Sum(nil))
	if IsOnCurve(address) {
		return nil, ErrInvalidPublicKey
	}
	return address, nil
}

// FindProgramAddressAndBump searches bump seeds downward from 255 and returns
// the first off-curve address with the bump that produced it. One of the
// MaxSeeds slots is reserved for the bump.
func FindProgramAddressAndBump(program ed25519.PublicKey, seeds ...[]byte) (ed25519.PublicKey, uint8, error) {
	if len(seeds) >= MaxSeeds {
		return nil, 0, ErrTooManySeeds
	}

	withBump := append(make([][]byte, 0, len(seeds)+1), seeds...)
	withBump = append(withBump, nil)

	for bump := uint8(math.MaxUint8); bump > 0; bump-- {
		withBump[len(seeds)] = []byte{bump}

		address, err := CreateProgramAddress(program, withBump...)
		switch {
		case err == nil:
			return address, bump, nil
		case !errors.Is(err, ErrInvalidPublicKey):
			return nil, 0, err
		}
	}

	return nil, 0, ErrNoViableBump
}

// IsOnCurve reports whether the key decodes to a point on the ed25519 curve.
//
// The standard library keeps its point decoding internal, so the check goes
// through the edwards25519 package.
func IsOnCurve(key []byte) bool {
	if len(key) != ed25519.PublicKeySize {
		return false
	}

	var compressed [ed25519.PublicKeySize]byte
	copy(compressed[:], key)

	var point edwards25519.ExtendedGroupElement
	return point.FromBytes(&compressed)
}
