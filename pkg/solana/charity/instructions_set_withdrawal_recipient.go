package charity_program

import (
	"crypto/ed25519"

	"github.com/code-payments/charity-server/pkg/solana"
	"github.com/code-payments/charity-server/pkg/solana/binary"
)

const (
	SetWithdrawalRecipientInstructionAccountsCount = 2
)

type SetWithdrawalRecipientInstructionArgs struct {
	Recipient ed25519.PublicKey // optional
}

type SetWithdrawalRecipientInstructionAccounts struct {
	Authority ed25519.PublicKey
	Charity   ed25519.PublicKey
}

func NewSetWithdrawalRecipientInstruction(
	accounts *SetWithdrawalRecipientInstructionAccounts,
	args *SetWithdrawalRecipientInstructionArgs,
) solana.Instruction {
	var offset int

	size := binary.OptionSize
	if len(args.Recipient) > 0 {
		size += ed25519.PublicKeySize
	}

	// Serialize instruction arguments
	data := make([]byte, len(setWithdrawalRecipientInstructionDiscriminator)+size)

	binary.PutDiscriminator(data, setWithdrawalRecipientInstructionDiscriminator, &offset)
	binary.PutOptionalKey(data, args.Recipient, &offset)

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

func SetWithdrawalRecipientInstructionArgsFromBinary(data []byte) (*SetWithdrawalRecipientInstructionArgs, error) {
	var offset int
	if err := checkDiscriminator(data, setWithdrawalRecipientInstructionDiscriminator, &offset); err != nil {
		return nil, err
	}

	var args SetWithdrawalRecipientInstructionArgs
	if err := binary.GetOptionalKey(data, &args.Recipient, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}

	return &args, nil
}

func DecompileSetWithdrawalRecipientInstruction(i solana.Instruction) (*SetWithdrawalRecipientInstructionArgs, *SetWithdrawalRecipientInstructionAccounts, error) {
	if err := checkProgram(i, SetWithdrawalRecipientInstructionAccountsCount); err != nil {
		return nil, nil, err
	}

	args, err := SetWithdrawalRecipientInstructionArgsFromBinary(i.Data)
	if err != nil {
		return nil, nil, err
	}

	return args, &SetWithdrawalRecipientInstructionAccounts{
		Authority: i.Accounts[0].PublicKey,
		Charity:   i.Accounts[1].PublicKey,
	}, nil
}
