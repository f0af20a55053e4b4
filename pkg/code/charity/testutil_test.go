package charity

import (
	"context"
	"crypto/ed25519"
	"sync"
	"testing"
	"time"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	code_data "github.com/code-payments/charity-server/pkg/code/data"
	"github.com/code-payments/charity-server/pkg/code/data/ledger"
	"github.com/code-payments/charity-server/pkg/code/event"
	"github.com/code-payments/charity-server/pkg/solana"
	charity_program "github.com/code-payments/charity-server/pkg/solana/charity"
	"github.com/code-payments/charity-server/pkg/testutil"
)

const (
	testLamportsPerSignature = 5000
	testStartingBalance      = 10_000_000_000
)

var (
	charityReserve  = MinimumBalanceForRentExemption(charity_program.CharityAccountSize)
	vaultReserve    = MinimumBalanceForRentExemption(0)
	donationReserve = MinimumBalanceForRentExemption(charity_program.DonationAccountSize)
)

type testWallet struct {
	public  ed25519.PublicKey
	private ed25519.PrivateKey
}

type testEnv struct {
	ctx       context.Context
	data      code_data.Provider
	bus       *event.Bus
	processor *Processor

	clockMu sync.Mutex
	now     time.Time

	eventsMu       sync.Mutex
	programEvents  []*event.ProgramEvent
	accountUpdates []*event.AccountUpdate
}

func setup(t *testing.T) *testEnv {
	env := &testEnv{
		ctx:  context.Background(),
		data: code_data.NewTestDataProvider(),
		bus:  event.NewBus(),
		now:  time.Unix(1_700_000_000, 0),
	}

	env.processor = NewProcessor(
		env.data,
		env.bus,
		NewLocalAccountLocker(64),
		NewDefaultRentCalculator(),
		env.clock,
		withManualTestOverrides(&testOverrides{
			lamportsPerSignature: testLamportsPerSignature,
			maxInstructions:      8,
		}),
	)

	require.NoError(t, env.bus.SubscribeProgramEvents(func(_ context.Context, e *event.ProgramEvent) {
		env.eventsMu.Lock()
		env.programEvents = append(env.programEvents, e)
		env.eventsMu.Unlock()
	}))
	require.NoError(t, env.bus.SubscribeAccountUpdates(func(_ context.Context, u *event.AccountUpdate) {
		env.eventsMu.Lock()
		env.accountUpdates = append(env.accountUpdates, u)
		env.eventsMu.Unlock()
	}))

	return env
}

func (e *testEnv) clock() time.Time {
	e.clockMu.Lock()
	defer e.clockMu.Unlock()
	return e.now
}

func (e *testEnv) advanceClock(d time.Duration) {
	e.clockMu.Lock()
	e.now = e.now.Add(d)
	e.clockMu.Unlock()
}

func (e *testEnv) newWallet(t *testing.T, lamports uint64) testWallet {
	wallet := testutil.NewFundedWallet(t, e.data, lamports)
	return testWallet{public: wallet.Public, private: wallet.Private}
}

func (e *testEnv) fund(t *testing.T, address ed25519.PublicKey, lamports uint64) {
	testutil.FundAccount(t, e.data, address, lamports)
}

func (e *testEnv) balance(t *testing.T, address ed25519.PublicKey) uint64 {
	return testutil.GetBalance(t, e.data, address)
}

func (e *testEnv) getCharity(t *testing.T, address ed25519.PublicKey) *charity_program.CharityAccount {
	record, err := e.data.GetLedgerAccount(e.ctx, base58.Encode(address))
	require.NoError(t, err)
	require.Equal(t, base58.Encode(charity_program.PROGRAM_ID), record.Owner)

	var state charity_program.CharityAccount
	require.NoError(t, state.Unmarshal(record.Data))
	return &state
}

func (e *testEnv) getDonation(t *testing.T, address ed25519.PublicKey) *charity_program.DonationAccount {
	record, err := e.data.GetLedgerAccount(e.ctx, base58.Encode(address))
	require.NoError(t, err)

	var state charity_program.DonationAccount
	require.NoError(t, state.Unmarshal(record.Data))
	return &state
}

// overwriteCharity replaces the stored charity state outside of the program
func (e *testEnv) overwriteCharity(t *testing.T, address ed25519.PublicKey, state *charity_program.CharityAccount) {
	record, err := e.data.GetLedgerAccount(e.ctx, base58.Encode(address))
	require.NoError(t, err)

	record.Data = state.Marshal()
	require.NoError(t, e.data.CommitLedgerChanges(e.ctx, ledger.NewUpdate(record)))
}

// submit signs and submits a transaction with the payer as the only signer
func (e *testEnv) submit(payer testWallet, instructions ...solana.Instruction) (*Result, error) {
	txn := solana.NewTransaction(payer.public, instructions...)
	txn.SetBlockhash(solana.Blockhash{1, 2, 3})
	if err := txn.Sign(payer.private); err != nil {
		return nil, err
	}
	return e.processor.SubmitTransaction(e.ctx, txn)
}

func (e *testEnv) getProgramEvents() []*event.ProgramEvent {
	e.eventsMu.Lock()
	defer e.eventsMu.Unlock()
	return append([]*event.ProgramEvent(nil), e.programEvents...)
}

func (e *testEnv) getAccountUpdates() []*event.AccountUpdate {
	e.eventsMu.Lock()
	defer e.eventsMu.Unlock()
	return append([]*event.AccountUpdate(nil), e.accountUpdates...)
}

type testCharity struct {
	authority testWallet
	name      string
	address   ed25519.PublicKey
	vault     ed25519.PublicKey
}

func deriveTestCharity(t *testing.T, authority testWallet, name string) *testCharity {
	address, _, err := charity_program.GetCharityAddress(&charity_program.GetCharityAddressArgs{
		Authority: authority.public,
		Name:      name,
	})
	require.NoError(t, err)

	vault, _, err := charity_program.GetVaultAddress(&charity_program.GetVaultAddressArgs{
		Charity: address,
	})
	require.NoError(t, err)

	return &testCharity{
		authority: authority,
		name:      name,
		address:   address,
		vault:     vault,
	}
}

func (c *testCharity) addressString() string {
	return base58.Encode(c.address)
}

func (c *testCharity) createInstruction(description string) solana.Instruction {
	return charity_program.NewCreateCharityInstruction(
		&charity_program.CreateCharityInstructionAccounts{
			Authority: c.authority.public,
			Charity:   c.address,
			Vault:     c.vault,
		},
		&charity_program.CreateCharityInstructionArgs{
			Name:        c.name,
			Description: description,
		},
	)
}

func (c *testCharity) updateInstruction(authority ed25519.PublicKey, description string) solana.Instruction {
	return charity_program.NewUpdateCharityInstruction(
		&charity_program.UpdateCharityInstructionAccounts{
			Authority: authority,
			Charity:   c.address,
		},
		&charity_program.UpdateCharityInstructionArgs{
			Description: description,
		},
	)
}

func (c *testCharity) pauseInstruction(authority ed25519.PublicKey, paused bool) solana.Instruction {
	return charity_program.NewPauseDonationsInstruction(
		&charity_program.PauseDonationsInstructionAccounts{
			Authority: authority,
			Charity:   c.address,
		},
		&charity_program.PauseDonationsInstructionArgs{
			Paused: paused,
		},
	)
}

func (c *testCharity) donateInstruction(t *testing.T, donor ed25519.PublicKey, ordinal, amount uint64) solana.Instruction {
	donation, _, err := charity_program.GetDonationAddress(&charity_program.GetDonationAddressArgs{
		Donor:         donor,
		Charity:       c.address,
		DonationCount: ordinal,
	})
	require.NoError(t, err)

	return charity_program.NewDonateSolInstruction(
		&charity_program.DonateSolInstructionAccounts{
			Donor:    donor,
			Charity:  c.address,
			Vault:    c.vault,
			Donation: donation,
		},
		&charity_program.DonateSolInstructionArgs{
			Amount: amount,
		},
	)
}

func (c *testCharity) setRecipientInstruction(authority, recipient ed25519.PublicKey) solana.Instruction {
	return charity_program.NewSetWithdrawalRecipientInstruction(
		&charity_program.SetWithdrawalRecipientInstructionAccounts{
			Authority: authority,
			Charity:   c.address,
		},
		&charity_program.SetWithdrawalRecipientInstructionArgs{
			Recipient: recipient,
		},
	)
}

func (c *testCharity) withdrawInstruction(authority, recipient ed25519.PublicKey, amount uint64) solana.Instruction {
	return charity_program.NewWithdrawDonationsInstruction(
		&charity_program.WithdrawDonationsInstructionAccounts{
			Authority: authority,
			Charity:   c.address,
			Vault:     c.vault,
			Recipient: recipient,
		},
		&charity_program.WithdrawDonationsInstructionArgs{
			Amount: amount,
		},
	)
}

func (c *testCharity) deleteInstruction(authority, recipient ed25519.PublicKey) solana.Instruction {
	return charity_program.NewDeleteCharityInstruction(
		&charity_program.DeleteCharityInstructionAccounts{
			Authority: authority,
			Charity:   c.address,
			Vault:     c.vault,
			Recipient: recipient,
		},
	)
}

func (e *testEnv) createTestCharity(t *testing.T, name, description string) *testCharity {
	c := deriveTestCharity(t, e.newWallet(t, testStartingBalance), name)
	_, err := e.submit(c.authority, c.createInstruction(description))
	require.NoError(t, err)
	return c
}

func (e *testEnv) donate(t *testing.T, c *testCharity, donor testWallet, amount uint64) {
	ordinal := e.getCharity(t, c.address).DonationCount
	_, err := e.submit(donor, c.donateInstruction(t, donor.public, ordinal, amount))
	require.NoError(t, err)
}
