package charity_program

import (
	"crypto/ed25519"

	"github.com/code-payments/charity-server/pkg/solana"
	"github.com/code-payments/charity-server/pkg/solana/binary"
)

const (
	WithdrawDonationsInstructionArgsSize = 8 // amount

	WithdrawDonationsInstructionAccountsCount = 5
)

type WithdrawDonationsInstructionArgs struct {
	Amount uint64
}

type WithdrawDonationsInstructionAccounts struct {
	Authority ed25519.PublicKey
	Charity   ed25519.PublicKey
	Vault     ed25519.PublicKey
	Recipient ed25519.PublicKey
}

func NewWithdrawDonationsInstruction(
	accounts *WithdrawDonationsInstructionAccounts,
	args *WithdrawDonationsInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(withdrawDonationsInstructionDiscriminator)+
			WithdrawDonationsInstructionArgsSize)

	binary.PutDiscriminator(data, withdrawDonationsInstructionDiscriminator, &offset)
	binary.PutUint64(data, args.Amount, &offset)

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

func WithdrawDonationsInstructionArgsFromBinary(data []byte) (*WithdrawDonationsInstructionArgs, error) {
	var offset int
	if err := checkDiscriminator(data, withdrawDonationsInstructionDiscriminator, &offset); err != nil {
		return nil, err
	}

	var args WithdrawDonationsInstructionArgs
	if err := binary.GetUint64(data, &args.Amount, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}

	return &args, nil
}

func DecompileWithdrawDonationsInstruction(i solana.Instruction) (*WithdrawDonationsInstructionArgs, *WithdrawDonationsInstructionAccounts, error) {
	if err := checkProgram(i, WithdrawDonationsInstructionAccountsCount); err != nil {
		return nil, nil, err
	}

	args, err := WithdrawDonationsInstructionArgsFromBinary(i.Data)
	if err != nil {
		return nil, nil, err
	}

	return args, &WithdrawDonationsInstructionAccounts{
		Authority: i.Accounts[0].PublicKey,
		Charity:   i.Accounts[1].PublicKey,
		Vault:     i.Accounts[2].PublicKey,
		Recipient: i.Accounts[3].PublicKey,
	}, nil
}
