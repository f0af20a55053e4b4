package charity

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	code_data "github.com/code-payments/charity-server/pkg/code/data"
	"github.com/code-payments/charity-server/pkg/code/data/ledger"
	"github.com/code-payments/charity-server/pkg/code/event"
	"github.com/code-payments/charity-server/pkg/metrics"
	"github.com/code-payments/charity-server/pkg/retry"
	"github.com/code-payments/charity-server/pkg/retry/backoff"
	"github.com/code-payments/charity-server/pkg/solana"
	charity_program "github.com/code-payments/charity-server/pkg/solana/charity"
	"github.com/code-payments/charity-server/pkg/solana/system"
)

// Result describes a committed transaction
type Result struct {
	// Signature is the base58 encoded first signature, when the instructions
	// arrived as a signed transaction
	Signature string

	Fee uint64

	// Events holds one event per charity instruction, in instruction order
	Events []charity_program.Event

	// Accounts holds the committed state of every account the transaction
	// changed, in address order
	Accounts []*ledger.Record
}

// Processor applies charity program and system transfer instructions against
// the ledger. Every transaction is all or nothing, and transactions touching
// the same account are applied one at a time.
type Processor struct {
	log       *logrus.Entry
	conf      *conf
	data      code_data.Provider
	publisher event.Publisher
	locker    AccountLocker
	rent      RentCalculator
	clock     func() time.Time
	deriver   charity_program.AddressDeriver
}

// NewProcessor returns a Processor. A nil locker, rent calculator or clock
// falls back to a local striped locker, the default rent parameters and
// wall clock time respectively.
func NewProcessor(
	data code_data.Provider,
	publisher event.Publisher,
	locker AccountLocker,
	rent RentCalculator,
	clock func() time.Time,
	configProvider ConfigProvider,
) *Processor {
	if locker == nil {
		locker = NewLocalAccountLocker(defaultLockStripes)
	}
	if rent == nil {
		rent = NewDefaultRentCalculator()
	}
	if clock == nil {
		clock = time.Now
	}

	return &Processor{
		log:       logrus.StandardLogger().WithField("type", "charity/Processor"),
		conf:      configProvider(),
		data:      data,
		publisher: publisher,
		locker:    locker,
		rent:      rent,
		clock:     clock,
		deriver:   charity_program.NewAddressDeriver(charity_program.PROGRAM_ID),
	}
}

// SubmitTransaction verifies every required signature on a transaction and
// applies its instructions.
func (p *Processor) SubmitTransaction(ctx context.Context, txn solana.Transaction) (*Result, error) {
	if len(txn.Marshal()) > solana.MaxTransactionSize {
		return nil, ErrTransactionTooLarge
	}

	if err := txn.VerifySignatures(); err != nil {
		return nil, err
	}

	instructions, err := txn.Message.DecompileInstructions()
	if err != nil {
		return nil, errors.Wrap(err, "error decompiling instructions")
	}

	return p.process(ctx, base58.Encode(txn.Signature()), txn.FeePayer(), txn.Signers(), instructions)
}

// Process applies instructions on behalf of already authenticated signers.
// The fee payer must be one of the signers.
func (p *Processor) Process(ctx context.Context, feePayer ed25519.PublicKey, signers []ed25519.PublicKey, instructions ...solana.Instruction) (*Result, error) {
	return p.process(ctx, "", feePayer, signers, instructions)
}

func (p *Processor) process(ctx context.Context, signature string, feePayer ed25519.PublicKey, signers []ed25519.PublicKey, instructions []solana.Instruction) (*Result, error) {
	ctx, txn := metrics.StartTransaction(ctx, "charity/Processor/process")
	if txn != nil {
		defer txn.End()
	}

	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "process")
	defer tracer.End()

	log := p.log.WithFields(logrus.Fields{
		"method":       "process",
		"signature":    signature,
		"fee_payer":    base58.Encode(feePayer),
		"instructions": len(instructions),
	})

	if err := p.validate(ctx, feePayer, signers, instructions); err != nil {
		log.WithError(err).Debug("transaction rejected")
		tracer.OnError(err)
		return nil, err
	}

	keys := referencedAccounts(feePayer, instructions)

	lockedCtx, unlock, err := p.locker.Lock(ctx, p.conf.lockTimeout.Get(ctx), keys...)
	if err != nil {
		log.WithError(err).Warn("failure acquiring account locks")
		tracer.OnError(err)
		return nil, err
	}
	defer unlock()

	var result *Result
	_, err = retry.Retry(
		func() error {
			result, err = p.apply(lockedCtx, signature, feePayer, len(signers), instructions, keys)
			return err
		},
		retry.RetriableErrors(ledger.ErrStaleVersion),
		retry.Limit(uint(p.conf.maxCommitAttempts.Get(ctx))),
		retry.Backoff(backoff.Constant(p.conf.commitRetryBackoff.Get(ctx)), p.conf.commitRetryBackoff.Get(ctx)),
	)
	if err != nil {
		if _, ok := GetInstructionError(err); ok {
			log.WithError(err).Debug("transaction failed")
		} else {
			log.WithError(err).Warn("failure applying transaction")
		}
		tracer.OnError(err)
		return nil, err
	}

	// Publishing happens before locks are released so subscribers observe
	// updates to an account in commit order
	p.publish(ctx, result)

	log.WithField("events", len(result.Events)).Debug("transaction committed")
	return result, nil
}

func (p *Processor) validate(ctx context.Context, feePayer ed25519.PublicKey, signers []ed25519.PublicKey, instructions []solana.Instruction) error {
	if len(instructions) == 0 {
		return ErrNoInstructions
	}
	if uint64(len(instructions)) > p.conf.maxInstructions.Get(ctx) {
		return ErrTooManyInstructions
	}

	signed := make(map[string]struct{}, len(signers))
	for _, signer := range signers {
		signed[base58.Encode(signer)] = struct{}{}
	}

	if _, ok := signed[base58.Encode(feePayer)]; !ok {
		return ErrFeePayerNotInSignerSet
	}

	for i, instruction := range instructions {
		for _, meta := range instruction.Accounts {
			if !meta.IsSigner {
				continue
			}
			if _, ok := signed[base58.Encode(meta.PublicKey)]; !ok {
				return &InstructionError{Index: i, Err: ErrMissingRequiredSignature}
			}
		}
	}

	return nil
}

func (p *Processor) apply(ctx context.Context, signature string, feePayer ed25519.PublicKey, numSignatures int, instructions []solana.Instruction, keys []string) (*Result, error) {
	ws, err := loadWorkingSet(ctx, p.data, keys)
	if err != nil {
		return nil, err
	}
	initial := ws.snapshot()

	payer, err := ws.get(feePayer)
	if err != nil {
		return nil, err
	}

	fee := p.conf.lamportsPerSignature.Get(ctx) * uint64(numSignatures)
	if payer.lamports < fee {
		return nil, ErrInsufficientFundsForFee
	}
	payer.lamports -= fee

	// The fee payer can't be left holding a balance below the rent exempt
	// minimum
	if payer.lamports > 0 {
		minimum, err := p.rent.MinimumBalance(ctx, uint64(len(payer.data)))
		if err != nil {
			return nil, err
		}
		if payer.lamports < minimum {
			return nil, ErrInsufficientFundsForFee
		}
	}

	now := p.clock()

	var events []charity_program.Event
	for i, instruction := range instructions {
		before := ws.snapshot()

		emitted, err := p.execute(ctx, ws, instruction, now)
		if err == nil {
			err = p.checkModifications(ctx, ws, before, instruction)
		}

		recordInstructionEvent(ctx, instruction, err)
		if err != nil {
			return nil, &InstructionError{Index: i, Err: err}
		}

		if emitted != nil {
			events = append(events, emitted)
		}
	}

	// Nothing is written once exclusive access to the accounts is gone
	if ctx.Err() != nil {
		return nil, context.Cause(ctx)
	}

	changes := ws.changes(initial)
	if len(changes) > 0 {
		if err := p.data.CommitLedgerChanges(ctx, changes...); err != nil {
			return nil, errors.Wrap(err, "error committing ledger changes")
		}
	}

	records := make([]*ledger.Record, len(changes))
	for i, change := range changes {
		records[i] = change.Record
	}

	return &Result{
		Signature: signature,
		Fee:       fee,
		Events:    events,
		Accounts:  records,
	}, nil
}

func (p *Processor) execute(ctx context.Context, ws *workingSet, instruction solana.Instruction, now time.Time) (charity_program.Event, error) {
	switch {
	case bytes.Equal(instruction.Program, charity_program.PROGRAM_ID):
		return p.executeCharityInstruction(ctx, ws, instruction, now)
	case bytes.Equal(instruction.Program, system.ProgramKey[:]):
		return nil, p.executeSystemTransfer(ws, instruction)
	}
	return nil, ErrUnsupportedProgram
}

func (p *Processor) executeCharityInstruction(ctx context.Context, ws *workingSet, instruction solana.Instruction, now time.Time) (charity_program.Event, error) {
	instructionType, err := charity_program.GetInstructionType(instruction.Data)
	if err != nil {
		return nil, err
	}

	h := &handlerContext{
		ctx:         ctx,
		processor:   p,
		ws:          ws,
		instruction: instruction,
		now:         now.Unix(),
	}

	switch instructionType {
	case charity_program.CreateCharityInstruction:
		return h.createCharity()
	case charity_program.UpdateCharityInstruction:
		return h.updateCharity()
	case charity_program.PauseDonationsInstruction:
		return h.pauseDonations()
	case charity_program.DonateSolInstruction:
		return h.donateSol()
	case charity_program.SetWithdrawalRecipientInstruction:
		return h.setWithdrawalRecipient()
	case charity_program.WithdrawDonationsInstruction:
		return h.withdrawDonations()
	case charity_program.DeleteCharityInstruction:
		return h.deleteCharity()
	}
	return nil, charity_program.ErrInvalidInstructionData
}

// checkModifications enforces the rules every instruction is held to,
// regardless of program: only writable accounts change, and every changed
// account that survives stays rent exempt.
func (p *Processor) checkModifications(ctx context.Context, ws *workingSet, before map[string]accountState, instruction solana.Instruction) error {
	for _, modified := range ws.modifiedSince(before) {
		if !isWritable(instruction, modified.address) {
			return ErrReadOnlyAccountModified
		}

		// Data can only be changed by the owning program, or by a program
		// taking over an empty system account
		prior := before[modified.key]
		if !bytes.Equal(prior.data, modified.data) {
			ownedByCaller := bytes.Equal(prior.owner, instruction.Program)
			unallocated := bytes.Equal(prior.owner, charity_program.SYSTEM_PROGRAM_ID) && len(prior.data) == 0
			if !ownedByCaller && !unallocated {
				return ErrExternalAccountDataModified
			}
		}

		if modified.lamports == 0 {
			if len(modified.data) > 0 {
				return ErrAccountNotRentExempt
			}
			continue
		}

		minimum, err := p.rent.MinimumBalance(ctx, uint64(len(modified.data)))
		if err != nil {
			return err
		}
		if modified.lamports < minimum {
			return errors.Wrapf(ErrAccountNotRentExempt, "account %s", modified.key)
		}
	}
	return nil
}

func (p *Processor) publish(ctx context.Context, result *Result) {
	if p.publisher == nil {
		return
	}

	for _, record := range result.Accounts {
		update := &event.AccountUpdate{
			Address:  record.Address,
			Owner:    record.Owner,
			Lamports: record.Lamports,
			Data:     record.Data,

			AccountId: record.Id,
			Version:   record.Version,

			Closed: record.Lamports == 0,
		}
		if update.Closed {
			update.Data = nil
		}

		if err := p.publisher.PublishAccountUpdate(ctx, update); err != nil {
			p.log.WithError(err).WithField("account", record.Address).Warn("failure publishing account update")
		}
	}

	for i, emitted := range result.Events {
		programEvent := &event.ProgramEvent{
			Signature: result.Signature,
			Index:     i,
			Event:     emitted,
		}

		if err := p.publisher.PublishProgramEvent(ctx, programEvent); err != nil {
			p.log.WithError(err).WithField("event", emitted.Name()).Warn("failure publishing program event")
		}
	}
}

// referencedAccounts lists every account a transaction can read or write.
// Program ids are excluded since they are never loaded as data.
func referencedAccounts(feePayer ed25519.PublicKey, instructions []solana.Instruction) []string {
	keys := []string{base58.Encode(feePayer)}
	for _, instruction := range instructions {
		for _, meta := range instruction.Accounts {
			if isProgramId(meta.PublicKey) {
				continue
			}
			keys = append(keys, base58.Encode(meta.PublicKey))
		}
	}
	return uniqueSorted(keys)
}

func isProgramId(key ed25519.PublicKey) bool {
	return bytes.Equal(key, charity_program.PROGRAM_ID) || bytes.Equal(key, system.ProgramKey[:])
}

func isWritable(instruction solana.Instruction, key ed25519.PublicKey) bool {
	for _, meta := range instruction.Accounts {
		if meta.IsWritable && bytes.Equal(meta.PublicKey, key) {
			return true
		}
	}
	return false
}

func isSigner(instruction solana.Instruction, key ed25519.PublicKey) bool {
	for _, meta := range instruction.Accounts {
		if meta.IsSigner && bytes.Equal(meta.PublicKey, key) {
			return true
		}
	}
	return false
}
