package charity_program

import (
	"bytes"

	"github.com/code-payments/charity-server/pkg/solana"
)

type InstructionType uint8

const (
	UnknownInstruction InstructionType = iota
	CreateCharityInstruction
	UpdateCharityInstruction
	PauseDonationsInstruction
	DonateSolInstruction
	SetWithdrawalRecipientInstruction
	WithdrawDonationsInstruction
	DeleteCharityInstruction
)

// Anchor instruction discriminators, sha256("global:<name>")[:8]
var (
	createCharityInstructionDiscriminator          = []byte{193, 30, 89, 168, 17, 72, 111, 51}
	updateCharityInstructionDiscriminator          = []byte{93, 190, 9, 196, 32, 84, 153, 139}
	pauseDonationsInstructionDiscriminator         = []byte{82, 229, 85, 242, 137, 10, 72, 40}
	donateSolInstructionDiscriminator              = []byte{168, 195, 198, 161, 226, 163, 222, 113}
	setWithdrawalRecipientInstructionDiscriminator = []byte{39, 143, 225, 235, 133, 146, 130, 89}
	withdrawDonationsInstructionDiscriminator      = []byte{1, 93, 87, 93, 93, 251, 195, 179}
	deleteCharityInstructionDiscriminator          = []byte{87, 196, 87, 43, 218, 72, 184, 188}
)

var instructionDiscriminators = map[InstructionType][]byte{
	CreateCharityInstruction:          createCharityInstructionDiscriminator,
	UpdateCharityInstruction:          updateCharityInstructionDiscriminator,
	PauseDonationsInstruction:         pauseDonationsInstructionDiscriminator,
	DonateSolInstruction:              donateSolInstructionDiscriminator,
	SetWithdrawalRecipientInstruction: setWithdrawalRecipientInstructionDiscriminator,
	WithdrawDonationsInstruction:      withdrawDonationsInstructionDiscriminator,
	DeleteCharityInstruction:          deleteCharityInstructionDiscriminator,
}

// GetInstructionType identifies a charity instruction from its data.
func GetInstructionType(data []byte) (InstructionType, error) {
	if len(data) < 8 {
		return UnknownInstruction, ErrInvalidInstructionData
	}

	for instructionType, discriminator := range instructionDiscriminators {
		if bytes.Equal(data[:8], discriminator) {
			return instructionType, nil
		}
	}

	return UnknownInstruction, ErrInvalidInstructionData
}

func (t InstructionType) String() string {
	switch t {
	case CreateCharityInstruction:
		return "create_charity"
	case UpdateCharityInstruction:
		return "update_charity"
	case PauseDonationsInstruction:
		return "pause_donations"
	case DonateSolInstruction:
		return "donate_sol"
	case SetWithdrawalRecipientInstruction:
		return "set_withdrawal_recipient"
	case WithdrawDonationsInstruction:
		return "withdraw_donations"
	case DeleteCharityInstruction:
		return "delete_charity"
	}
	return "unknown"
}

func checkDiscriminator(data []byte, expected []byte, offset *int) error {
	if len(data) < len(expected) || !bytes.Equal(data[:len(expected)], expected) {
		return ErrInvalidInstructionData
	}
	*offset += len(expected)
	return nil
}

func checkProgram(i solana.Instruction, accounts int) error {
	if !bytes.Equal(i.Program, PROGRAM_ID) {
		return ErrInvalidProgram
	}
	if len(i.Accounts) < accounts {
		return ErrNotEnoughAccountKeys
	}
	return nil
}
