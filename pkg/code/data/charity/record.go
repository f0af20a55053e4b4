package charity

import (
	"errors"
	"time"
)

// Record is the queryable view of a charity account
type Record struct {
	Id uint64

	Address   string
	Vault     string
	Authority string

	Name        string
	Description string

	TotalDonated  uint64
	DonationCount uint64
	Paused        bool

	PayoutRecipient *string

	// AccountId and Version identify the ledger account and version this
	// record was built from. AccountId changes when an address is closed and
	// allocated again, while Version restarts.
	AccountId uint64
	Version   uint64

	CreatedAt   time.Time
	UpdatedAt   time.Time
	WithdrawnAt *time.Time
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Vault) == 0 {
		return errors.New("vault is required")
	}

	if len(r.Authority) == 0 {
		return errors.New("authority is required")
	}

	if len(r.Name) == 0 {
		return errors.New("name is required")
	}

	if r.PayoutRecipient != nil && len(*r.PayoutRecipient) == 0 {
		return errors.New("payout recipient cannot be empty when set")
	}

	if r.AccountId == 0 {
		return errors.New("account id is required")
	}

	if r.Version == 0 {
		return errors.New("version is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	var payoutRecipient *string
	if r.PayoutRecipient != nil {
		v := *r.PayoutRecipient
		payoutRecipient = &v
	}

	var withdrawnAt *time.Time
	if r.WithdrawnAt != nil {
		v := *r.WithdrawnAt
		withdrawnAt = &v
	}

	return Record{
		Id: r.Id,

		Address:   r.Address,
		Vault:     r.Vault,
		Authority: r.Authority,

		Name:        r.Name,
		Description: r.Description,

		TotalDonated:  r.TotalDonated,
		DonationCount: r.DonationCount,
		Paused:        r.Paused,

		PayoutRecipient: payoutRecipient,

		AccountId: r.AccountId,
		Version:   r.Version,

		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
		WithdrawnAt: withdrawnAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	cloned := r.Clone()
	*dst = cloned
}
