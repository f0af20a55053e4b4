package charity_program

import "fmt"

// ProgramError is a custom program error. Codes follow the Anchor convention
// of starting user errors at 6000.
type ProgramError uint32

const (
	// Unauthorized access
	ErrUnauthorized ProgramError = iota + 0x1770

	// Math overflow occurred
	ErrOverflow

	// Insufficient funds for withdrawal
	ErrInsufficientFunds

	// Cannot withdraw below rent-exemption threshold
	ErrInsufficientFundsForRent

	// Invalid description
	ErrInvalidDescription

	// Invalid description length
	ErrInvalidDescriptionLength

	// Invalid name length
	ErrInvalidNameLength

	// Invalid vault account
	ErrInvalidVaultAccount

	// Donations for this charity are paused
	ErrDonationsPaused

	// Withdrawal recipient does not match the configured payout recipient
	ErrInvalidWithdrawalRecipient

	// Withdrawal recipient has already been set
	ErrRecipientAlreadySet
)

var programErrorNames = map[ProgramError]string{
	ErrUnauthorized:               "Unauthorized",
	ErrOverflow:                   "Overflow",
	ErrInsufficientFunds:          "InsufficientFunds",
	ErrInsufficientFundsForRent:   "InsufficientFundsForRent",
	ErrInvalidDescription:         "InvalidDescription",
	ErrInvalidDescriptionLength:   "InvalidDescriptionLength",
	ErrInvalidNameLength:          "InvalidNameLength",
	ErrInvalidVaultAccount:        "InvalidVaultAccount",
	ErrDonationsPaused:            "DonationsPaused",
	ErrInvalidWithdrawalRecipient: "InvalidWithdrawalRecipient",
	ErrRecipientAlreadySet:        "RecipientAlreadySet",
}

var programErrorMessages = map[ProgramError]string{
	ErrUnauthorized:               "unauthorized access",
	ErrOverflow:                   "math overflow occurred",
	ErrInsufficientFunds:          "insufficient funds for withdrawal",
	ErrInsufficientFundsForRent:   "cannot withdraw below rent-exemption threshold",
	ErrInvalidDescription:         "invalid description",
	ErrInvalidDescriptionLength:   "invalid description length",
	ErrInvalidNameLength:          "invalid name length",
	ErrInvalidVaultAccount:        "invalid vault account",
	ErrDonationsPaused:            "donations for this charity are paused",
	ErrInvalidWithdrawalRecipient: "invalid withdrawal recipient",
	ErrRecipientAlreadySet:        "withdrawal recipient already set",
}

func (e ProgramError) Error() string {
	if msg, ok := programErrorMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("unknown program error: %d", uint32(e))
}

// Code is the custom error code surfaced to callers.
func (e ProgramError) Code() uint32 {
	return uint32(e)
}

func (e ProgramError) String() string {
	if name, ok := programErrorNames[e]; ok {
		return name
	}
	return "Unknown"
}

// GetProgramError maps a custom error code back to its ProgramError.
func GetProgramError(code uint32) (ProgramError, bool) {
	err := ProgramError(code)
	_, ok := programErrorNames[err]
	return err, ok
}
