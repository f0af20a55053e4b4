package donation

import (
	"errors"
	"time"
)

// Record is the queryable view of a donation account. Donations are never
// mutated once created.
type Record struct {
	Id uint64

	Address     string
	Donor       string
	Charity     string
	CharityName string
	Amount      uint64

	CreatedAt time.Time
}

func (r *Record) Validate() error {
	if len(r.Address) == 0 {
		return errors.New("address is required")
	}

	if len(r.Donor) == 0 {
		return errors.New("donor is required")
	}

	if len(r.Charity) == 0 {
		return errors.New("charity is required")
	}

	if r.Amount == 0 {
		return errors.New("amount is required")
	}

	return nil
}

func (r *Record) Clone() Record {
	return Record{
		Id: r.Id,

		Address:     r.Address,
		Donor:       r.Donor,
		Charity:     r.Charity,
		CharityName: r.CharityName,
		Amount:      r.Amount,

		CreatedAt: r.CreatedAt,
	}
}

func (r *Record) CopyTo(dst *Record) {
	dst.Id = r.Id

	dst.Address = r.Address
	dst.Donor = r.Donor
	dst.Charity = r.Charity
	dst.CharityName = r.CharityName
	dst.Amount = r.Amount

	dst.CreatedAt = r.CreatedAt
}
