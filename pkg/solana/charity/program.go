package charity_program

import (
	"crypto/ed25519"
	"errors"

	"github.com/mr-tron/base58"
)

var (
	ErrInvalidProgram         = errors.New("invalid program id")
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
	ErrNotEnoughAccountKeys   = errors.New("not enough account keys")
)

var (
	PROGRAM_ADDRESS = mustBase58Decode("9MipEJLetsngpXJuyCLsSu3qTJrHQ6E6W1rZ1GrG68am")
	PROGRAM_ID      = ed25519.PublicKey(PROGRAM_ADDRESS)
)

var (
	SYSTEM_PROGRAM_ID = ed25519.PublicKey(mustBase58Decode("11111111111111111111111111111111"))
)

const (
	MaxCharityNameLength        = 32
	MaxCharityDescriptionLength = 100
)

func mustBase58Decode(value string) []byte {
	decoded, err := base58.Decode(value)
	if err != nil {
		panic(err)
	}
	return decoded
}
