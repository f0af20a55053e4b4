package async_indexer

import (
	"context"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/code-payments/charity-server/pkg/code/data/charity"
	"github.com/code-payments/charity-server/pkg/code/data/donation"
	"github.com/code-payments/charity-server/pkg/code/event"
	"github.com/code-payments/charity-server/pkg/pointer"
	"github.com/code-payments/charity-server/pkg/retry"
	"github.com/code-payments/charity-server/pkg/retry/backoff"
	charity_program "github.com/code-payments/charity-server/pkg/solana/charity"
)

var programAddress = base58.Encode(charity_program.PROGRAM_ID)

func (s *service) handleWithRetry(ctx context.Context, update *event.AccountUpdate) error {
	_, err := retry.Retry(
		func() error {
			return s.handle(ctx, update)
		},
		retry.Context(ctx),
		retry.NonRetriableErrors(context.Canceled, charity_program.ErrInvalidAccountData),
		retry.Limit(uint(s.conf.maxStoreAttempts.Get(ctx))),
		retry.Backoff(backoff.BinaryExponential(50*time.Millisecond), time.Second),
	)
	return err
}

func (s *service) handle(ctx context.Context, update *event.AccountUpdate) error {
	if update.Closed {
		// Donations are never closed, so this can only remove a charity
		return s.data.DeleteCharity(ctx, update.Address)
	}

	if update.Owner != programAddress {
		return nil
	}

	_, err := s.indexAccount(ctx, update.Address, update.AccountId, update.Version, update.Data)
	return err
}

type accountKind uint8

const (
	accountKindOther accountKind = iota
	accountKindCharity
	accountKindDonation
)

// indexAccount writes the index record for a program owned account. Vaults
// and other data-less accounts are skipped.
func (s *service) indexAccount(ctx context.Context, address string, accountId, version uint64, data []byte) (accountKind, error) {
	switch {
	case charity_program.IsCharityAccount(data):
		var account charity_program.CharityAccount
		if err := account.Unmarshal(data); err != nil {
			return accountKindCharity, err
		}

		if account.DeletedAt != nil {
			return accountKindCharity, s.data.DeleteCharity(ctx, address)
		}

		record, err := toCharityRecord(address, accountId, version, &account)
		if err != nil {
			return accountKindCharity, err
		}
		return accountKindCharity, s.saveCharity(ctx, record)
	case charity_program.IsDonationAccount(data):
		var account charity_program.DonationAccount
		if err := account.Unmarshal(data); err != nil {
			return accountKindDonation, err
		}

		err := s.data.PutDonation(ctx, toDonationRecord(address, &account))
		if err == donation.ErrDonationExists {
			return accountKindDonation, nil
		}
		return accountKindDonation, err
	default:
		return accountKindOther, nil
	}
}

func (s *service) saveCharity(ctx context.Context, record *charity.Record) error {
	err := s.data.SaveCharity(ctx, record)
	if err != charity.ErrStaleVersion {
		return err
	}

	existing, err := s.data.GetCharityByAddress(ctx, record.Address)
	if err == charity.ErrCharityNotFound {
		return s.data.SaveCharity(ctx, record)
	} else if err != nil {
		return err
	}

	// Ledger ids only grow, so a larger indexed id means this update belongs to
	// an account that has since been closed
	if existing.AccountId >= record.AccountId {
		return nil
	}

	if err := s.data.DeleteCharity(ctx, record.Address); err != nil {
		return err
	}
	return s.data.SaveCharity(ctx, record)
}

func toCharityRecord(address string, accountId, version uint64, account *charity_program.CharityAccount) (*charity.Record, error) {
	charityKey, err := base58.Decode(address)
	if err != nil {
		return nil, errors.Wrap(err, "invalid charity address")
	}

	vault, _, err := charity_program.GetVaultAddress(&charity_program.GetVaultAddressArgs{
		Charity: charityKey,
	})
	if err != nil {
		return nil, errors.Wrap(err, "error deriving vault address")
	}

	record := &charity.Record{
		Address:   address,
		Vault:     base58.Encode(vault),
		Authority: base58.Encode(account.Authority),

		Name:        account.Name,
		Description: account.Description,

		TotalDonated:  account.TotalDonated,
		DonationCount: account.DonationCount,
		Paused:        account.Paused,

		AccountId: accountId,
		Version:   version,

		CreatedAt: time.Unix(account.CreatedAt, 0),
		UpdatedAt: time.Unix(account.UpdatedAt, 0),
	}

	if account.PayoutRecipient.IsSet() {
		record.PayoutRecipient = pointer.String(base58.Encode(account.PayoutRecipient.Key()))
	}

	if account.WithdrawnAt != nil {
		record.WithdrawnAt = pointer.Time(time.Unix(*account.WithdrawnAt, 0))
	}

	return record, nil
}

func toDonationRecord(address string, account *charity_program.DonationAccount) *donation.Record {
	return &donation.Record{
		Address:     address,
		Donor:       base58.Encode(account.Donor),
		Charity:     base58.Encode(account.Charity),
		CharityName: account.CharityName,
		Amount:      account.AmountInLamports,
		CreatedAt:   time.Unix(account.CreatedAt, 0),
	}
}
