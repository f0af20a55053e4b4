package charity_program

import (
	"crypto/ed25519"

	"github.com/code-payments/charity-server/pkg/solana"
	"github.com/code-payments/charity-server/pkg/solana/binary"
)

const (
	DonateSolInstructionArgsSize = 8 // amount

	DonateSolInstructionAccountsCount = 5
)

type DonateSolInstructionArgs struct {
	Amount uint64
}

type DonateSolInstructionAccounts struct {
	Donor    ed25519.PublicKey
	Charity  ed25519.PublicKey
	Vault    ed25519.PublicKey
	Donation ed25519.PublicKey
}

func NewDonateSolInstruction(
	accounts *DonateSolInstructionAccounts,
	args *DonateSolInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(donateSolInstructionDiscriminator)+
			DonateSolInstructionArgsSize)

	binary.PutDiscriminator(data, donateSolInstructionDiscriminator, &offset)
	binary.PutUint64(data, args.Amount, &offset)

	return solana.Instruction{
		Program: PROGRAM_ADDRESS,

		// Instruction args
		Data: data,

		// Instruction accounts
		Accounts: []solana.AccountMeta{
			{
				PublicKey:  accounts.Donor,
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
				PublicKey:  accounts.Donation,
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

func DonateSolInstructionArgsFromBinary(data []byte) (*DonateSolInstructionArgs, error) {
	var offset int
	if err := checkDiscriminator(data, donateSolInstructionDiscriminator, &offset); err != nil {
		return nil, err
	}

	var args DonateSolInstructionArgs
	if err := binary.GetUint64(data, &args.Amount, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}

	return &args, nil
}

func DecompileDonateSolInstruction(i solana.Instruction) (*DonateSolInstructionArgs, *DonateSolInstructionAccounts, error) {
	if err := checkProgram(i, DonateSolInstructionAccountsCount); err != nil {
		return nil, nil, err
	}

	args, err := DonateSolInstructionArgsFromBinary(i.Data)
	if err != nil {
		return nil, nil, err
	}

	return args, &DonateSolInstructionAccounts{
		Donor:    i.Accounts[0].PublicKey,
		Charity:  i.Accounts[1].PublicKey,
		Vault:    i.Accounts[2].PublicKey,
		Donation: i.Accounts[3].PublicKey,
	}, nil
}
