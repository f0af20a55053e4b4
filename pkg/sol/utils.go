package sol

import (
	"math"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

var lamportsPerSol = decimal.New(1, Decimals)

// StrToLamports converts a string representation of SOL to
// the lamport value.
//
// An error is returned if the value string is invalid, negative, or
// it cannot be accurately represented as lamports. For example,
// a value smaller than a lamport, or a value that overflows a uint64.
func StrToLamports(val string) (uint64, error) {
	amount, err := decimal.NewFromString(val)
	if err != nil {
		return 0, errors.Wrap(err, "invalid sol value")
	}

	if amount.IsNegative() {
		return 0, errors.New("value cannot be negative")
	}

	if amount.Exponent() < -Decimals {
		trimmed := amount.Truncate(Decimals)
		if !trimmed.Equal(amount) {
			return 0, errors.New("value cannot be represented")
		}
	}

	lamports := amount.Mul(lamportsPerSol)
	if lamports.GreaterThan(decimal.NewFromUint64(math.MaxUint64)) {
		return 0, errors.New("value cannot be represented")
	}

	return lamports.BigInt().Uint64(), nil
}

// MustStrToLamports calls StrToLamports, panicking if there's an error.
//
// This should only be used if you know for sure this will not panic.
func MustStrToLamports(val string) uint64 {
	result, err := StrToLamports(val)
	if err != nil {
		panic(err)
	}

	return result
}

// StrFromLamports converts an amount of lamports to the
// string representation of SOL.
func StrFromLamports(amount uint64) string {
	return decimal.NewFromUint64(amount).Shift(-Decimals).StringFixed(Decimals)
}
