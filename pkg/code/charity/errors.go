package charity

import (
	"errors"
	"fmt"
)

// Errors raised by the runtime itself, as opposed to the program specific
// errors in charity_program.
var (
	ErrNoInstructions               = errors.New("transaction contains no instructions")
	ErrTooManyInstructions          = errors.New("transaction contains too many instructions")
	ErrTransactionTooLarge          = errors.New("transaction exceeds maximum size")
	ErrUnsupportedProgram           = errors.New("unsupported program id")
	ErrMissingRequiredSignature     = errors.New("missing required signature for instruction")
	ErrInsufficientFundsForFee      = errors.New("insufficient funds for fee")
	ErrInsufficientLamports         = errors.New("insufficient lamports")
	ErrAccountNotInitialized        = errors.New("account not initialized")
	ErrAccountOwnedByWrongProgram   = errors.New("account owned by wrong program")
	ErrAccountAlreadyInUse          = errors.New("account already in use")
	ErrInvalidSeeds                 = errors.New("provided seeds do not result in a valid address")
	ErrReadOnlyAccountModified      = errors.New("instruction modified a read-only account")
	ErrAccountNotRentExempt         = errors.New("account does not hold enough lamports to be rent exempt")
	ErrExternalAccountLamportSpend  = errors.New("instruction spent from the balance of an account it does not own")
	ErrExternalAccountDataModified  = errors.New("instruction modified data of an account it does not own")
	ErrCouldNotAcquireAccountLocks  = errors.New("could not acquire account locks")
	ErrAccountLocksLost             = errors.New("account locks lost before commit")
	ErrFeePayerNotInSignerSet       = errors.New("fee payer is not a signer")
	ErrArithmeticOverflowInTransfer = errors.New("arithmetic overflow in lamport transfer")
)

// InstructionError reports the failure of a single instruction. The whole
// transaction is rejected when any instruction fails.
type InstructionError struct {
	Index int
	Err   error
}

func (e *InstructionError) Error() string {
	return fmt.Sprintf("error processing instruction %d: %s", e.Index, e.Err)
}

func (e *InstructionError) Unwrap() error {
	return e.Err
}

// GetInstructionError returns the failed instruction index and its cause, if
// err was produced by a failed instruction.
func GetInstructionError(err error) (*InstructionError, bool) {
	var instructionErr *InstructionError
	if errors.As(err, &instructionErr) {
		return instructionErr, true
	}
	return nil, false
}
