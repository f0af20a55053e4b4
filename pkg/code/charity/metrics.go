package charity

import (
	"bytes"
	"context"

	"github.com/code-payments/charity-server/pkg/metrics"
	"github.com/code-payments/charity-server/pkg/solana"
	charity_program "github.com/code-payments/charity-server/pkg/solana/charity"
)

const (
	metricsStructName = "charity.processor"

	instructionEventName = "CharityInstruction"
)

func recordInstructionEvent(ctx context.Context, instruction solana.Instruction, err error) {
	name := "system_transfer"
	if bytes.Equal(instruction.Program, charity_program.PROGRAM_ID) {
		instructionType, _ := charity_program.GetInstructionType(instruction.Data)
		name = instructionType.String()
	}

	kvPairs := map[string]interface{}{
		"instruction": name,
		"success":     err == nil,
	}

	if err != nil {
		kvPairs["error"] = err.Error()
		if programErr, ok := asProgramError(err); ok {
			kvPairs["program_error"] = programErr.String()
			kvPairs["program_error_code"] = programErr.Code()
		}
	}

	metrics.RecordEvent(ctx, instructionEventName, kvPairs)
}

func asProgramError(err error) (charity_program.ProgramError, bool) {
	programErr, ok := err.(charity_program.ProgramError)
	return programErr, ok
}
