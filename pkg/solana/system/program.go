// Package system builds and decodes the subset of System Program instructions
// the ledger understands: plain lamport transfers between system accounts.
package system

import (
	"bytes"
	"crypto/ed25519"
	"encoding/binary"

	"github.com/pkg/errors"

	"github.com/code-payments/charity-server/pkg/solana"
)

// ProgramKey is the system program, 11111111111111111111111111111111.
var ProgramKey [ed25519.PublicKeySize]byte

// Transfer is the third entry of the system instruction enum, after
// CreateAccount and Assign.
//
// Reference: https://github.com/solana-labs/solana/blob/f02a78d8fff2dd7297dc6ce6eb5a68a3002f5359/sdk/src/system_instruction.rs#L75-L81
const transferDiscriminator uint32 = 2

const transferDataSize = 4 + 8

// TransferArgs is a decoded transfer instruction.
type TransferArgs struct {
	From     ed25519.PublicKey
	To       ed25519.PublicKey
	Lamports uint64
}

// Transfer moves lamports from a signing funder to the recipient. Both
// accounts are writable.
func Transfer(from, to ed25519.PublicKey, lamports uint64) solana.Instruction {
	data := binary.LittleEndian.AppendUint32(make([]byte, 0, transferDataSize), transferDiscriminator)
	data = binary.LittleEndian.AppendUint64(data, lamports)

	return solana.NewInstruction(
		ProgramKey[:],
		data,
		solana.NewAccountMeta(from, true),
		solana.NewAccountMeta(to, false),
	)
}

// DecodeTransfer decodes a decompiled transfer instruction.
func DecodeTransfer(ix solana.Instruction) (*TransferArgs, error) {
	if !bytes.Equal(ix.Program, ProgramKey[:]) {
		return nil, solana.ErrIncorrectProgram
	}
	if len(ix.Data) < 4 || binary.LittleEndian.Uint32(ix.Data) != transferDiscriminator {
		return nil, solana.ErrIncorrectInstruction
	}
	if len(ix.Data) != transferDataSize {
		return nil, errors.Errorf("invalid transfer data size: %d", len(ix.Data))
	}
	if len(ix.Accounts) != 2 {
		return nil, errors.Errorf("invalid transfer account count: %d", len(ix.Accounts))
	}

	return &TransferArgs{
		From:     ix.Accounts[0].PublicKey,
		To:       ix.Accounts[1].PublicKey,
		Lamports: binary.LittleEndian.Uint64(ix.Data[4:]),
	}, nil
}
