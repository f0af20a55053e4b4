package charity_program

import (
	"crypto/ed25519"

	"github.com/code-payments/charity-server/pkg/solana"
	"github.com/code-payments/charity-server/pkg/solana/binary"
)

const (
	UpdateCharityInstructionAccountsCount = 2
)

type UpdateCharityInstructionArgs struct {
	Description string
}

type UpdateCharityInstructionAccounts struct {
	Authority ed25519.PublicKey
	Charity   ed25519.PublicKey
}

func NewUpdateCharityInstruction(
	accounts *UpdateCharityInstructionAccounts,
	args *UpdateCharityInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(updateCharityInstructionDiscriminator)+
			4+len(args.Description))

	binary.PutDiscriminator(data, updateCharityInstructionDiscriminator, &offset)
	binary.PutString(data, args.Description, &offset)

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

func UpdateCharityInstructionArgsFromBinary(data []byte) (*UpdateCharityInstructionArgs, error) {
	var offset int
	if err := checkDiscriminator(data, updateCharityInstructionDiscriminator, &offset); err != nil {
		return nil, err
	}

	var description []byte
	if err := binary.GetBytes(data, &description, solana.MaxTransactionSize, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}

	return &UpdateCharityInstructionArgs{
		Description: string(description),
	}, nil
}

func DecompileUpdateCharityInstruction(i solana.Instruction) (*UpdateCharityInstructionArgs, *UpdateCharityInstructionAccounts, error) {
	if err := checkProgram(i, UpdateCharityInstructionAccountsCount); err != nil {
		return nil, nil, err
	}

	args, err := UpdateCharityInstructionArgsFromBinary(i.Data)
	if err != nil {
		return nil, nil, err
	}

	return args, &UpdateCharityInstructionAccounts{
		Authority: i.Accounts[0].PublicKey,
		Charity:   i.Accounts[1].PublicKey,
	}, nil
}
