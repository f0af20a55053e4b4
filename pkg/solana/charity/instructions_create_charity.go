package charity_program

import (
	"crypto/ed25519"

	"github.com/code-payments/charity-server/pkg/solana"
	"github.com/code-payments/charity-server/pkg/solana/binary"
)

const (
	CreateCharityInstructionAccountsCount = 4
)

type CreateCharityInstructionArgs struct {
	Name        string
	Description string
}

type CreateCharityInstructionAccounts struct {
	Authority ed25519.PublicKey
	Charity   ed25519.PublicKey
	Vault     ed25519.PublicKey
}

func NewCreateCharityInstruction(
	accounts *CreateCharityInstructionAccounts,
	args *CreateCharityInstructionArgs,
) solana.Instruction {
	var offset int

	// Serialize instruction arguments
	data := make([]byte,
		len(createCharityInstructionDiscriminator)+
			4+len(args.Name)+
			4+len(args.Description))

	binary.PutDiscriminator(data, createCharityInstructionDiscriminator, &offset)
	binary.PutString(data, args.Name, &offset)
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
			{
				PublicKey:  accounts.Vault,
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

// CreateCharityInstructionArgsFromBinary decodes the arguments. Neither
// lengths nor encodings are checked here so the program can report them with
// a specific error.
func CreateCharityInstructionArgsFromBinary(data []byte) (*CreateCharityInstructionArgs, error) {
	var offset int
	if err := checkDiscriminator(data, createCharityInstructionDiscriminator, &offset); err != nil {
		return nil, err
	}

	var args CreateCharityInstructionArgs

	var name []byte
	if err := binary.GetBytes(data, &name, solana.MaxTransactionSize, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}
	args.Name = string(name)

	var description []byte
	if err := binary.GetBytes(data, &description, solana.MaxTransactionSize, &offset); err != nil {
		return nil, ErrInvalidInstructionData
	}
	args.Description = string(description)

	return &args, nil
}

func DecompileCreateCharityInstruction(i solana.Instruction) (*CreateCharityInstructionArgs, *CreateCharityInstructionAccounts, error) {
	if err := checkProgram(i, CreateCharityInstructionAccountsCount); err != nil {
		return nil, nil, err
	}

	args, err := CreateCharityInstructionArgsFromBinary(i.Data)
	if err != nil {
		return nil, nil, err
	}

	return args, &CreateCharityInstructionAccounts{
		Authority: i.Accounts[0].PublicKey,
		Charity:   i.Accounts[1].PublicKey,
		Vault:     i.Accounts[2].PublicKey,
	}, nil
}
