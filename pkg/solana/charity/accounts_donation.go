package charity_program

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/charity-server/pkg/solana/binary"
)

const (
	DonationAccountSize = (8 + // discriminator
		32 + // donor
		32 + // charity
		4 + MaxCharityNameLength + // charity_name
		8 + // amount_in_lamports
		8) // created_at
)

var DonationAccountDiscriminator = []byte{189, 210, 54, 77, 216, 85, 7, 68}

type DonationAccount struct {
	Donor            ed25519.PublicKey
	Charity          ed25519.PublicKey
	CharityName      string
	AmountInLamports uint64
	CreatedAt        int64
}

// IsDonationAccount reports whether data carries the donation discriminator.
func IsDonationAccount(data []byte) bool {
	return len(data) >= 8 && bytes.Equal(data[:8], DonationAccountDiscriminator)
}

func (obj *DonationAccount) Marshal() []byte {
	data := make([]byte, DonationAccountSize)

	var offset int

	binary.PutDiscriminator(data, DonationAccountDiscriminator, &offset)
	binary.PutKey(data, obj.Donor, &offset)
	binary.PutKey(data, obj.Charity, &offset)
	binary.PutString(data, obj.CharityName, &offset)
	binary.PutUint64(data, obj.AmountInLamports, &offset)
	binary.PutInt64(data, obj.CreatedAt, &offset)

	return data
}

func (obj *DonationAccount) Unmarshal(data []byte) error {
	var offset int

	var discriminator []byte
	if err := binary.GetDiscriminator(data, &discriminator, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if !bytes.Equal(discriminator, DonationAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	if err := binary.GetKey(data, &obj.Donor, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetKey(data, &obj.Charity, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetString(data, &obj.CharityName, MaxCharityNameLength, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetUint64(data, &obj.AmountInLamports, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetInt64(data, &obj.CreatedAt, &offset); err != nil {
		return ErrInvalidAccountData
	}

	return nil
}

func (obj *DonationAccount) String() string {
	return fmt.Sprintf(
		"Donation{donor=%s,charity=%s,charity_name=%s,amount_in_lamports=%d,created_at=%d}",
		base58.Encode(obj.Donor),
		base58.Encode(obj.Charity),
		obj.CharityName,
		obj.AmountInLamports,
		obj.CreatedAt,
	)
}
