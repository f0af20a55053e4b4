package charity

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"math"
	"unicode/utf8"

	"github.com/code-payments/charity-server/pkg/solana"
	charity_program "github.com/code-payments/charity-server/pkg/solana/charity"
)

type handlerContext struct {
	ctx         context.Context
	processor   *Processor
	ws          *workingSet
	instruction solana.Instruction
	now         int64
}

func (h *handlerContext) createCharity() (charity_program.Event, error) {
	args, accounts, err := charity_program.DecompileCreateCharityInstruction(h.instruction)
	if err != nil {
		return nil, err
	}

	if !isSigner(h.instruction, accounts.Authority) {
		return nil, ErrMissingRequiredSignature
	}

	// A name that isn't valid UTF-8 has no length in characters
	if len(args.Name) == 0 || len(args.Name) > charity_program.MaxCharityNameLength || !utf8.ValidString(args.Name) {
		return nil, charity_program.ErrInvalidNameLength
	}
	if !utf8.ValidString(args.Description) {
		return nil, charity_program.ErrInvalidDescription
	}
	if len(args.Description) > charity_program.MaxCharityDescriptionLength {
		return nil, charity_program.ErrInvalidDescriptionLength
	}

	charityAddress, _, err := h.processor.deriver.CharityAddress(accounts.Authority, args.Name)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(charityAddress, accounts.Charity) {
		return nil, ErrInvalidSeeds
	}

	vaultAddress, vaultBump, err := h.processor.deriver.VaultAddress(charityAddress)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(vaultAddress, accounts.Vault) {
		return nil, charity_program.ErrInvalidVaultAccount
	}

	authorityAccount, err := h.ws.get(accounts.Authority)
	if err != nil {
		return nil, err
	}
	charityAccount, err := h.ws.get(accounts.Charity)
	if err != nil {
		return nil, err
	}
	vaultAccount, err := h.ws.get(accounts.Vault)
	if err != nil {
		return nil, err
	}

	if err := h.allocate(authorityAccount, charityAccount, charity_program.CharityAccountSize); err != nil {
		return nil, err
	}
	if err := h.allocate(authorityAccount, vaultAccount, 0); err != nil {
		return nil, err
	}

	state := &charity_program.CharityAccount{
		Authority:       accounts.Authority,
		Name:            args.Name,
		Description:     args.Description,
		CreatedAt:       h.now,
		UpdatedAt:       h.now,
		PayoutRecipient: charity_program.UnsetPayoutRecipient(),
		VaultBump:       vaultBump,
	}
	charityAccount.data = state.Marshal()

	return &charity_program.CreateCharityEvent{
		CharityKey:  charityAddress,
		CharityName: state.Name,
		Description: state.Description,
		CreatedAt:   h.now,
	}, nil
}

func (h *handlerContext) updateCharity() (charity_program.Event, error) {
	args, accounts, err := charity_program.DecompileUpdateCharityInstruction(h.instruction)
	if err != nil {
		return nil, err
	}

	charityAccount, state, err := h.loadAuthorizedCharity(accounts.Authority, accounts.Charity)
	if err != nil {
		return nil, err
	}

	if !utf8.ValidString(args.Description) {
		return nil, charity_program.ErrInvalidDescription
	}
	if len(args.Description) > charity_program.MaxCharityDescriptionLength {
		return nil, charity_program.ErrInvalidDescriptionLength
	}

	state.Description = args.Description
	state.UpdatedAt = h.now
	charityAccount.data = state.Marshal()

	return &charity_program.UpdateCharityEvent{
		CharityKey:  charityAccount.address,
		CharityName: state.Name,
		Description: state.Description,
		UpdatedAt:   h.now,
	}, nil
}

func (h *handlerContext) pauseDonations() (charity_program.Event, error) {
	args, accounts, err := charity_program.DecompilePauseDonationsInstruction(h.instruction)
	if err != nil {
		return nil, err
	}

	charityAccount, state, err := h.loadAuthorizedCharity(accounts.Authority, accounts.Charity)
	if err != nil {
		return nil, err
	}

	state.Paused = args.Paused
	state.UpdatedAt = h.now
	charityAccount.data = state.Marshal()

	return &charity_program.PauseDonationsEvent{
		CharityKey:  charityAccount.address,
		CharityName: state.Name,
		Paused:      state.Paused,
		UpdatedAt:   h.now,
	}, nil
}

func (h *handlerContext) donateSol() (charity_program.Event, error) {
	args, accounts, err := charity_program.DecompileDonateSolInstruction(h.instruction)
	if err != nil {
		return nil, err
	}

	if !isSigner(h.instruction, accounts.Donor) {
		return nil, ErrMissingRequiredSignature
	}

	charityAccount, state, err := h.loadCharity(accounts.Charity)
	if err != nil {
		return nil, err
	}

	vaultAccount, err := h.loadVault(charityAccount, accounts.Vault)
	if err != nil {
		return nil, err
	}

	donationAddress, _, err := h.processor.deriver.DonationAddress(accounts.Donor, charityAccount.address, state.DonationCount)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(donationAddress, accounts.Donation) {
		return nil, ErrInvalidSeeds
	}

	if state.Paused {
		return nil, charity_program.ErrDonationsPaused
	}

	donorAccount, err := h.ws.get(accounts.Donor)
	if err != nil {
		return nil, err
	}
	donationAccount, err := h.ws.get(accounts.Donation)
	if err != nil {
		return nil, err
	}

	donationReserve, err := h.processor.rent.MinimumBalance(h.ctx, charity_program.DonationAccountSize)
	if err != nil {
		return nil, err
	}

	if args.Amount == 0 {
		return nil, charity_program.ErrInsufficientFunds
	}
	if args.Amount > math.MaxUint64-donationReserve || donorAccount.lamports < args.Amount+donationReserve {
		return nil, charity_program.ErrInsufficientFunds
	}

	if state.TotalDonated > math.MaxUint64-args.Amount {
		return nil, charity_program.ErrOverflow
	}
	if state.DonationCount == math.MaxUint64 {
		return nil, charity_program.ErrOverflow
	}

	if err := h.allocate(donorAccount, donationAccount, charity_program.DonationAccountSize); err != nil {
		return nil, err
	}
	if err := h.systemTransfer(donorAccount, vaultAccount, args.Amount); err != nil {
		return nil, err
	}

	donation := &charity_program.DonationAccount{
		Donor:            accounts.Donor,
		Charity:          charityAccount.address,
		CharityName:      state.Name,
		AmountInLamports: args.Amount,
		CreatedAt:        h.now,
	}
	donationAccount.data = donation.Marshal()

	state.TotalDonated += args.Amount
	state.DonationCount += 1
	charityAccount.data = state.Marshal()

	return &charity_program.MakeDonationEvent{
		DonorKey:    accounts.Donor,
		CharityKey:  charityAccount.address,
		CharityName: state.Name,
		Amount:      args.Amount,
		CreatedAt:   h.now,
	}, nil
}

func (h *handlerContext) setWithdrawalRecipient() (charity_program.Event, error) {
	args, accounts, err := charity_program.DecompileSetWithdrawalRecipientInstruction(h.instruction)
	if err != nil {
		return nil, err
	}

	charityAccount, state, err := h.loadAuthorizedCharity(accounts.Authority, accounts.Charity)
	if err != nil {
		return nil, err
	}

	// A vault can never pay into the charity's own accounts, so either as a
	// recipient would strand its funds
	vaultAddress, _, err := h.processor.deriver.VaultAddress(charityAccount.address)
	if err != nil {
		return nil, err
	}
	if bytes.Equal(args.Recipient, charityAccount.address) || bytes.Equal(args.Recipient, vaultAddress) {
		return nil, charity_program.ErrInvalidWithdrawalRecipient
	}

	next, err := state.PayoutRecipient.Assign(args.Recipient)
	if err != nil {
		return nil, err
	}

	state.PayoutRecipient = next
	state.UpdatedAt = h.now
	charityAccount.data = state.Marshal()

	return &charity_program.SetWithdrawalRecipientEvent{
		CharityKey:   charityAccount.address,
		CharityName:  state.Name,
		RecipientKey: next.Key(),
		UpdatedAt:    h.now,
	}, nil
}

func (h *handlerContext) withdrawDonations() (charity_program.Event, error) {
	args, accounts, err := charity_program.DecompileWithdrawDonationsInstruction(h.instruction)
	if err != nil {
		return nil, err
	}

	charityAccount, state, err := h.loadAuthorizedCharity(accounts.Authority, accounts.Charity)
	if err != nil {
		return nil, err
	}

	vaultAccount, err := h.loadVault(charityAccount, accounts.Vault)
	if err != nil {
		return nil, err
	}

	recipientAccount, err := h.resolveRecipient(state, charityAccount, vaultAccount, accounts.Recipient)
	if err != nil {
		return nil, err
	}

	if args.Amount == 0 {
		return nil, charity_program.ErrInsufficientFunds
	}

	vaultReserve, err := h.processor.rent.MinimumBalance(h.ctx, 0)
	if err != nil {
		return nil, err
	}
	if vaultAccount.lamports < args.Amount || vaultAccount.lamports-args.Amount < vaultReserve {
		return nil, charity_program.ErrInsufficientFundsForRent
	}

	if args.Amount > state.TotalDonated {
		return nil, charity_program.ErrInsufficientFunds
	}

	if err := transferLamports(vaultAccount, recipientAccount, args.Amount); err != nil {
		return nil, err
	}

	withdrawnAt := h.now
	state.TotalDonated -= args.Amount
	state.WithdrawnAt = &withdrawnAt
	charityAccount.data = state.Marshal()

	return &charity_program.WithdrawCharitySolEvent{
		CharityKey:    charityAccount.address,
		CharityName:   state.Name,
		TotalDonated:  state.TotalDonated,
		DonationCount: state.DonationCount,
		WithdrawnAt:   withdrawnAt,
	}, nil
}

func (h *handlerContext) deleteCharity() (charity_program.Event, error) {
	accounts, err := charity_program.DecompileDeleteCharityInstruction(h.instruction)
	if err != nil {
		return nil, err
	}

	charityAccount, state, err := h.loadAuthorizedCharity(accounts.Authority, accounts.Charity)
	if err != nil {
		return nil, err
	}

	vaultAccount, err := h.loadVault(charityAccount, accounts.Vault)
	if err != nil {
		return nil, err
	}

	recipientAccount, err := h.resolveRecipient(state, charityAccount, vaultAccount, accounts.Recipient)
	if err != nil {
		return nil, err
	}

	authorityAccount, err := h.ws.get(accounts.Authority)
	if err != nil {
		return nil, err
	}

	deletedAt := h.now
	state.DeletedAt = &deletedAt

	if err := transferLamports(vaultAccount, recipientAccount, vaultAccount.lamports); err != nil {
		return nil, err
	}
	vaultAccount.close()

	if err := transferLamports(charityAccount, authorityAccount, charityAccount.lamports); err != nil {
		return nil, err
	}
	charityAccount.close()

	return &charity_program.DeleteCharityEvent{
		CharityKey:           charityAccount.address,
		CharityName:          state.Name,
		DeletedAt:            deletedAt,
		WithdrawnToRecipient: !bytes.Equal(recipientAccount.address, accounts.Authority),
	}, nil
}

// loadCharity loads a charity account and checks it lives at the address
// derived from its own authority and name.
func (h *handlerContext) loadCharity(address ed25519.PublicKey) (*account, *charity_program.CharityAccount, error) {
	charityAccount, state, err := h.readCharity(address)
	if err != nil {
		return nil, nil, err
	}

	if err := h.checkCharitySeeds(charityAccount, state); err != nil {
		return nil, nil, err
	}
	return charityAccount, state, nil
}

// loadAuthorizedCharity is loadCharity on behalf of an authority that must
// have signed and must match the charity's stored authority.
func (h *handlerContext) loadAuthorizedCharity(authority, address ed25519.PublicKey) (*account, *charity_program.CharityAccount, error) {
	charityAccount, state, err := h.readCharity(address)
	if err != nil {
		return nil, nil, err
	}

	if !isSigner(h.instruction, authority) || !bytes.Equal(authority, state.Authority) {
		return nil, nil, charity_program.ErrUnauthorized
	}

	if err := h.checkCharitySeeds(charityAccount, state); err != nil {
		return nil, nil, err
	}
	return charityAccount, state, nil
}

func (h *handlerContext) readCharity(address ed25519.PublicKey) (*account, *charity_program.CharityAccount, error) {
	charityAccount, err := h.ws.get(address)
	if err != nil {
		return nil, nil, err
	}

	if !charityAccount.isInitialized() {
		return nil, nil, ErrAccountNotInitialized
	}
	if !charityAccount.isOwnedBy(charity_program.PROGRAM_ID) {
		return nil, nil, ErrAccountOwnedByWrongProgram
	}

	var state charity_program.CharityAccount
	if err := state.Unmarshal(charityAccount.data); err != nil {
		return nil, nil, err
	}
	return charityAccount, &state, nil
}

func (h *handlerContext) checkCharitySeeds(charityAccount *account, state *charity_program.CharityAccount) error {
	expected, _, err := h.processor.deriver.CharityAddress(state.Authority, state.Name)
	if err != nil {
		return err
	}
	if !bytes.Equal(expected, charityAccount.address) {
		return ErrInvalidSeeds
	}
	return nil
}

func (h *handlerContext) loadVault(charityAccount *account, address ed25519.PublicKey) (*account, error) {
	expected, _, err := h.processor.deriver.VaultAddress(charityAccount.address)
	if err != nil {
		return nil, err
	}
	if !bytes.Equal(expected, address) {
		return nil, charity_program.ErrInvalidVaultAccount
	}

	vaultAccount, err := h.ws.get(address)
	if err != nil {
		return nil, err
	}
	if !vaultAccount.isOwnedBy(charity_program.PROGRAM_ID) {
		return nil, charity_program.ErrInvalidVaultAccount
	}
	return vaultAccount, nil
}

// resolveRecipient validates the destination of funds leaving a vault. The
// charity's own accounts can never receive them.
func (h *handlerContext) resolveRecipient(state *charity_program.CharityAccount, charityAccount, vaultAccount *account, candidate ed25519.PublicKey) (*account, error) {
	if bytes.Equal(candidate, charityAccount.address) || bytes.Equal(candidate, vaultAccount.address) {
		return nil, charity_program.ErrInvalidWithdrawalRecipient
	}

	resolved, err := state.PayoutRecipient.Resolve(candidate)
	if err != nil {
		return nil, err
	}
	return h.ws.get(resolved)
}

// allocate creates a program owned account funded by payer with enough
// lamports to be rent exempt. A system account that was already sent
// lamports is topped up and taken over.
func (h *handlerContext) allocate(payer, target *account, size int) error {
	if target.isInitialized() && !target.isSystemAccount() {
		return ErrAccountAlreadyInUse
	}

	reserve, err := h.processor.rent.MinimumBalance(h.ctx, uint64(size))
	if err != nil {
		return err
	}

	if target.lamports < reserve {
		if err := h.systemTransfer(payer, target, reserve-target.lamports); err != nil {
			return err
		}
	}

	target.owner = charity_program.PROGRAM_ID
	target.data = make([]byte, size)
	return nil
}

// systemTransfer moves lamports out of a signing system account, the way a
// call into the system program would.
func (h *handlerContext) systemTransfer(from, to *account, amount uint64) error {
	if !isSigner(h.instruction, from.address) {
		return ErrMissingRequiredSignature
	}
	if !from.isSystemAccount() {
		return ErrExternalAccountLamportSpend
	}
	return transferLamports(from, to, amount)
}
