package charity

import (
	"github.com/code-payments/charity-server/pkg/solana"
	"github.com/code-payments/charity-server/pkg/solana/system"
)

// executeSystemTransfer applies a system program transfer. Only signing
// system accounts without data can be debited.
func (p *Processor) executeSystemTransfer(ws *workingSet, instruction solana.Instruction) error {
	transfer, err := system.DecodeTransfer(instruction)
	if err != nil {
		return err
	}

	if !isSigner(instruction, transfer.From) {
		return ErrMissingRequiredSignature
	}

	from, err := ws.get(transfer.From)
	if err != nil {
		return err
	}
	to, err := ws.get(transfer.To)
	if err != nil {
		return err
	}

	if !from.isSystemAccount() {
		return ErrExternalAccountLamportSpend
	}

	return transferLamports(from, to, transfer.Lamports)
}
