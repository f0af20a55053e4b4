package charity

import (
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/charity-server/pkg/code/data/ledger"
	"github.com/code-payments/charity-server/pkg/solana"
	charity_program "github.com/code-payments/charity-server/pkg/solana/charity"
	"github.com/code-payments/charity-server/pkg/solana/system"
)

func TestProcess_AllOrNothing(t *testing.T) {
	env := setup(t)

	c := env.createTestCharity(t, "Alpha", "desc")
	donor := env.newWallet(t, testStartingBalance)
	authorityBalance := env.balance(t, c.authority.public)

	signers := []ed25519.PublicKey{donor.public, c.authority.public}

	// The donation succeeds, the withdrawal doesn't, so neither happens
	_, err := env.processor.Process(
		env.ctx,
		donor.public,
		signers,
		c.donateInstruction(t, donor.public, 0, 1_000_000_000),
		c.withdrawInstruction(c.authority.public, c.authority.public, 2_000_000_000),
	)
	require.Error(t, err)

	instructionErr, ok := GetInstructionError(err)
	require.True(t, ok)
	assert.Equal(t, 1, instructionErr.Index)
	assert.Equal(t, charity_program.ErrInsufficientFundsForRent, instructionErr.Err)

	assert.EqualValues(t, testStartingBalance, env.balance(t, donor.public))
	assert.Equal(t, authorityBalance, env.balance(t, c.authority.public))
	assert.Equal(t, vaultReserve, env.balance(t, c.vault))
	assert.EqualValues(t, 0, env.getCharity(t, c.address).DonationCount)
	assert.Empty(t, env.getProgramEvents()[1:])

	// Later instructions observe the effects of earlier ones
	result, err := env.processor.Process(
		env.ctx,
		donor.public,
		signers,
		c.donateInstruction(t, donor.public, 0, 1_000_000_000),
		c.withdrawInstruction(c.authority.public, c.authority.public, 250_000_000),
	)
	require.NoError(t, err)

	assert.EqualValues(t, 2*testLamportsPerSignature, result.Fee)
	require.Len(t, result.Events, 2)
	assert.IsType(t, &charity_program.MakeDonationEvent{}, result.Events[0])
	assert.IsType(t, &charity_program.WithdrawCharitySolEvent{}, result.Events[1])

	assert.Equal(t, authorityBalance+250_000_000, env.balance(t, c.authority.public))
	assert.EqualValues(t, 750_000_000, env.getCharity(t, c.address).TotalDonated)
}

func TestProcess_AccountLocksLost(t *testing.T) {
	env := setup(t)

	c := env.createTestCharity(t, "Alpha", "desc")
	donor := env.newWallet(t, testStartingBalance)
	published := len(env.getProgramEvents())

	env.processor.locker = &losingAccountLocker{AccountLocker: NewLocalAccountLocker(4)}

	_, err := env.submit(donor, c.donateInstruction(t, donor.public, 0, 1_000_000_000))
	assert.ErrorIs(t, err, ErrAccountLocksLost)

	assert.EqualValues(t, testStartingBalance, env.balance(t, donor.public))
	assert.Equal(t, vaultReserve, env.balance(t, c.vault))
	assert.EqualValues(t, 0, env.getCharity(t, c.address).DonationCount)
	assert.Len(t, env.getProgramEvents(), published)
}

// losingAccountLocker grants locks that are lost as soon as they're held
type losingAccountLocker struct {
	AccountLocker
}

func (l *losingAccountLocker) Lock(ctx context.Context, wait time.Duration, accounts ...string) (context.Context, func(), error) {
	heldCtx, unlock, err := l.AccountLocker.Lock(ctx, wait, accounts...)
	if err != nil {
		return nil, nil, err
	}

	lostCtx, cancel := context.WithCancelCause(heldCtx)
	cancel(ErrAccountLocksLost)
	return lostCtx, unlock, nil
}

func TestProcess_TransactionValidation(t *testing.T) {
	env := setup(t)

	c := env.createTestCharity(t, "Alpha", "desc")
	payer := env.newWallet(t, testStartingBalance)

	_, err := env.processor.Process(env.ctx, payer.public, []ed25519.PublicKey{payer.public})
	assert.Equal(t, ErrNoInstructions, err)

	var tooMany []solana.Instruction
	for i := 0; i < 9; i++ {
		tooMany = append(tooMany, c.pauseInstruction(c.authority.public, true))
	}
	_, err = env.processor.Process(env.ctx, c.authority.public, []ed25519.PublicKey{c.authority.public}, tooMany...)
	assert.Equal(t, ErrTooManyInstructions, err)

	_, err = env.processor.Process(env.ctx, payer.public, []ed25519.PublicKey{c.authority.public}, c.pauseInstruction(c.authority.public, true))
	assert.Equal(t, ErrFeePayerNotInSignerSet, err)

	unknownProgram := env.newWallet(t, 0).public
	_, err = env.submit(payer, solana.NewInstruction(unknownProgram, []byte("hello")))
	assert.ErrorIs(t, err, ErrUnsupportedProgram)

	_, err = env.submit(payer, solana.NewInstruction(charity_program.PROGRAM_ID, []byte{1, 2, 3}))
	assert.Error(t, err)
	_, ok := GetInstructionError(err)
	assert.True(t, ok)

	assert.EqualValues(t, testStartingBalance, env.balance(t, payer.public))
}

func TestSubmitTransaction_Signatures(t *testing.T) {
	env := setup(t)

	c := env.createTestCharity(t, "Alpha", "desc")
	imposter := env.newWallet(t, testStartingBalance)

	txn := solana.NewTransaction(c.authority.public, c.pauseInstruction(c.authority.public, true))
	_, err := env.processor.SubmitTransaction(env.ctx, txn)
	assert.ErrorIs(t, err, solana.ErrMissingSignature)

	require.NoError(t, txn.Sign(c.authority.private))
	txn.Message.RecentBlockhash[0] ^= 0xff
	_, err = env.processor.SubmitTransaction(env.ctx, txn)
	assert.ErrorIs(t, err, solana.ErrInvalidSignature)

	// Signing with the wrong key for a required signer
	forged := solana.NewTransaction(c.authority.public, c.pauseInstruction(c.authority.public, true))
	copy(forged.Signatures[0][:], ed25519.Sign(imposter.private, forged.Message.Marshal()))
	_, err = env.processor.SubmitTransaction(env.ctx, forged)
	assert.ErrorIs(t, err, solana.ErrInvalidSignature)

	assert.False(t, env.getCharity(t, c.address).Paused)

	valid := solana.NewTransaction(c.authority.public, c.pauseInstruction(c.authority.public, true))
	require.NoError(t, valid.Sign(c.authority.private))
	result, err := env.processor.SubmitTransaction(env.ctx, valid)
	require.NoError(t, err)
	assert.Equal(t, base58.Encode(valid.Signature()), result.Signature)
	assert.True(t, env.getCharity(t, c.address).Paused)
}

func TestProcess_Fees(t *testing.T) {
	env := setup(t)

	c := env.createTestCharity(t, "Alpha", "desc")

	broke := env.newWallet(t, testLamportsPerSignature-1)
	_, err := env.processor.Process(
		env.ctx,
		broke.public,
		[]ed25519.PublicKey{broke.public, c.authority.public},
		c.pauseInstruction(c.authority.public, true),
	)
	assert.Equal(t, ErrInsufficientFundsForFee, err)

	// Paying the fee can't leave a balance below the rent exempt minimum
	dusty := env.newWallet(t, 2*testLamportsPerSignature+1)
	_, err = env.processor.Process(
		env.ctx,
		dusty.public,
		[]ed25519.PublicKey{dusty.public, c.authority.public},
		c.pauseInstruction(c.authority.public, true),
	)
	assert.Equal(t, ErrInsufficientFundsForFee, err)
	assert.EqualValues(t, 2*testLamportsPerSignature+1, env.balance(t, dusty.public))

	// But it can drain the payer entirely, which closes its account
	exact := env.newWallet(t, 2*testLamportsPerSignature)
	result, err := env.processor.Process(
		env.ctx,
		exact.public,
		[]ed25519.PublicKey{exact.public, c.authority.public},
		c.pauseInstruction(c.authority.public, true),
	)
	require.NoError(t, err)
	assert.EqualValues(t, 2*testLamportsPerSignature, result.Fee)

	_, err = env.data.GetLedgerAccount(env.ctx, base58.Encode(exact.public))
	assert.Equal(t, ledger.ErrAccountNotFound, err)
	assert.True(t, env.getCharity(t, c.address).Paused)
}

func TestProcess_ReadOnlyAccountModified(t *testing.T) {
	env := setup(t)

	c := env.createTestCharity(t, "Alpha", "desc")
	donor := env.newWallet(t, testStartingBalance)

	instruction := c.donateInstruction(t, donor.public, 0, 100)
	instruction.Accounts[2].IsWritable = false

	_, err := env.processor.Process(env.ctx, donor.public, []ed25519.PublicKey{donor.public}, instruction)
	assert.ErrorIs(t, err, ErrReadOnlyAccountModified)
	assert.Equal(t, vaultReserve, env.balance(t, c.vault))
}

func TestSystemTransfer(t *testing.T) {
	env := setup(t)

	c := env.createTestCharity(t, "Alpha", "desc")
	sender := env.newWallet(t, testStartingBalance)
	receiver := env.newWallet(t, 0)

	_, err := env.submit(sender, system.Transfer(sender.public, receiver.public, 1_000_000_000))
	require.NoError(t, err)
	assert.EqualValues(t, testStartingBalance-testLamportsPerSignature-1_000_000_000, env.balance(t, sender.public))
	assert.EqualValues(t, 1_000_000_000, env.balance(t, receiver.public))

	_, err = env.submit(sender, system.Transfer(sender.public, receiver.public, testStartingBalance))
	assert.ErrorIs(t, err, ErrInsufficientLamports)

	// A fresh account needs at least the rent exempt minimum
	_, err = env.submit(sender, system.Transfer(sender.public, env.newWallet(t, 0).public, 1))
	assert.ErrorIs(t, err, ErrAccountNotRentExempt)

	// Program owned accounts can't be debited through the system program, even
	// when the caller claims their signature
	_, err = env.processor.Process(
		env.ctx,
		sender.public,
		[]ed25519.PublicKey{sender.public, c.vault},
		system.Transfer(c.vault, receiver.public, 1),
	)
	assert.ErrorIs(t, err, ErrExternalAccountLamportSpend)

	_, err = env.processor.Process(
		env.ctx,
		sender.public,
		[]ed25519.PublicKey{sender.public, c.address},
		system.Transfer(c.address, receiver.public, 1),
	)
	assert.ErrorIs(t, err, ErrExternalAccountLamportSpend)

	assert.Equal(t, vaultReserve, env.balance(t, c.vault))
	assert.Equal(t, charityReserve, env.balance(t, c.address))
}

func TestProcess_Publishing(t *testing.T) {
	env := setup(t)

	c := env.createTestCharity(t, "Alpha", "desc")
	donor := env.newWallet(t, testStartingBalance)
	recipient := env.newWallet(t, 0)

	env.donate(t, c, donor, 1_000_000_000)

	var published []string
	for _, programEvent := range env.getProgramEvents() {
		published = append(published, programEvent.Event.Name())
	}
	assert.Equal(t, []string{"CreateCharityEvent", "MakeDonationEvent"}, published)

	byAddress := make(map[string]int)
	for _, update := range env.getAccountUpdates() {
		byAddress[update.Address]++
	}
	assert.Equal(t, 2, byAddress[base58.Encode(c.address)])
	assert.Equal(t, 2, byAddress[base58.Encode(c.vault)])
	assert.Equal(t, 1, byAddress[base58.Encode(donor.public)])

	result, err := env.processor.Process(
		env.ctx,
		c.authority.public,
		[]ed25519.PublicKey{c.authority.public},
		c.pauseInstruction(c.authority.public, true),
		c.pauseInstruction(c.authority.public, false),
		c.deleteInstruction(c.authority.public, recipient.public),
	)
	require.NoError(t, err)
	require.Len(t, result.Events, 3)

	programEvents := env.getProgramEvents()
	require.Len(t, programEvents, 5)
	for i, programEvent := range programEvents[2:] {
		assert.Equal(t, i, programEvent.Index)
		assert.Equal(t, result.Events[i], programEvent.Event)
	}

	updates := env.getAccountUpdates()
	var closed []string
	for _, update := range updates[len(updates)-len(result.Accounts):] {
		if update.Closed {
			assert.Nil(t, update.Data)
			assert.Zero(t, update.Lamports)
			closed = append(closed, update.Address)
		}
	}
	assert.ElementsMatch(t, []string{base58.Encode(c.address), base58.Encode(c.vault)}, closed)
}
