package charity_program

import (
	"crypto/ed25519"

	"github.com/code-payments/charity-server/pkg/solana"
	"github.com/code-payments/charity-server/pkg/solana/binary"
)

const (
	PauseDonationsInstructionArgsSize = 1 // paused

	PauseDonationsInstructionAccountsCount = 2
)

type PauseDonationsInstructionArgs struct {
	Paused bool
}

type PauseDonationsInstructionAccounts struct {
	Authority ed25519.PublicKey
	Charity   ed25519.PublicKey
}

func NewPauseDonationsInstruction(
	accounts *PauseDonationsInstructionAccounts,
	args *PauseDonationsInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(pauseDonationsInstructionDiscriminator)+
			PauseDonationsInstructionArgsSize)

	binary.PutDiscriminator(data, pauseDonationsInstructionDiscriminator, &offset)
	binary.PutBool(data, args.Paused, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Authority,
				IsWritable: true,
				IsSigner:   true,
			},
			{
				PublicKey:  accounts.Charity,
				IsWritable: true,
				IsSigner:   false,
			},
		},
	}
}

func PauseDonationsInstructionArgsFromBinary(data []byte) (*PauseDonationsInstructionArgs, error) {
	var offset int
	if err := checkDiscriminator(data, pauseDonationsInstructionDiscriminator, &offset); err != nil {
		return nil, err
	}

	var args PauseDonationsInstructionArgs
	if err := binary.GetBool(data, &args.Paused, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}

	return &args, nil
}

func DecompilePauseDonationsInstruction(i solana.Instruction) (*PauseDonationsInstructionArgs, *PauseDonationsInstructionAccounts, error) {
	if err := checkProgram(i, PauseDonationsInstructionAccountsCount); err != nil {
		return nil, nil, err
	}

	args, err := PauseDonationsInstructionArgsFromBinary(i.Data)
	if err != nil {
		return nil, nil, err
	}

	return args, &PauseDonationsInstructionAccounts{
		Authority: i.Accounts[0].PublicKey,
		Charity:   i.Accounts[1].PublicKey,
	}, nil
}
