package charity_program

import (
	"crypto/ed25519"

	"github.com/code-payments/charity-server/pkg/solana"
	"github.com/code-payments/charity-server/pkg/solana/binary"
)

const (
	DeleteCharityInstructionAccountsCount = 5
)

type DeleteCharityInstructionAccounts struct {
	Authority ed25519.PublicKey
	Charity   ed25519.PublicKey
	Vault     ed25519.PublicKey
	Recipient ed25519.PublicKey
}

func NewDeleteCharityInstruction(
	accounts *DeleteCharityInstructionAccounts,
) solana.Instruction {
	var offset int

	data := make([]byte, len(deleteCharityInstructionDiscriminator))
	binary.PutDiscriminator(data, deleteCharityInstructionDiscriminator, &offset)

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
			{
				PublicKey:  accounts.Vault,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  accounts.Recipient,
				IsWritable: true,
				IsSigner:   false,
			},
			{
				PublicKey:  SYSTEM_PROGRAM_ID,
				IsWritable: false,
				IsSigner:   false,
			},
		},
	}
}

func DecompileDeleteCharityInstruction(i solana.Instruction) (*DeleteCharityInstructionAccounts, error) {
	if err := checkProgram(i, DeleteCharityInstructionAccountsCount); err != nil {
		return nil, err
	}

	var offset int
	if err := checkDiscriminator(i.Data, deleteCharityInstructionDiscriminator, &offset); err != nil {
		return nil, err
	}

	return &DeleteCharityInstructionAccounts{
		Authority: i.Accounts[0].PublicKey,
		Charity:   i.Accounts[1].PublicKey,
		Vault:     i.Accounts[2].PublicKey,
		Recipient: i.Accounts[3].PublicKey,
	}, nil
}
