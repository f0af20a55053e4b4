package charity_program

import (
	"bytes"
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"

	"github.com/code-payments/charity-server/pkg/solana/binary"
)

const (
	CharityAccountSize = (8 + // discriminator
		32 + // authority
		4 + MaxCharityNameLength + // name
		4 + MaxCharityDescriptionLength + // description
		8 + // total_donated
		8 + // donation_count
		1 + // paused
		8 + // created_at
		8 + // updated_at
		1 + 8 + // deleted_at
		1 + 8 + // withdrawn_at
		1 + 32 + // payout_recipient
		1) // vault_bump
)

var CharityAccountDiscriminator = []byte{229, 164, 231, 12, 25, 172, 91, 111}

type CharityAccount struct {
	Authority       ed25519.PublicKey
	Name            string
	Description     string
	TotalDonated    uint64
	DonationCount   uint64
	Paused          bool
	CreatedAt       int64
	UpdatedAt       int64
	DeletedAt       *int64
	WithdrawnAt     *int64
	PayoutRecipient PayoutRecipient
	VaultBump       uint8
}

// IsCharityAccount reports whether data carries the charity discriminator.
func IsCharityAccount(data []byte) bool {
	return len(data) >= 8 && bytes.Equal(data[:8], CharityAccountDiscriminator)
}

// Marshal encodes the account into a buffer of the full allocated size. Unused
// tail bytes are zero.
func (obj *CharityAccount) Marshal() []byte {
	data := make([]byte, CharityAccountSize)

	var offset int

	binary.PutDiscriminator(data, CharityAccountDiscriminator, &offset)
	binary.PutKey(data, obj.Authority, &offset)
	binary.PutString(data, obj.Name, &offset)
	binary.PutString(data, obj.Description, &offset)
	binary.PutUint64(data, obj.TotalDonated, &offset)
	binary.PutUint64(data, obj.DonationCount, &offset)
	binary.PutBool(data, obj.Paused, &offset)
	binary.PutInt64(data, obj.CreatedAt, &offset)
	binary.PutInt64(data, obj.UpdatedAt, &offset)
	binary.PutOptionalInt64(data, obj.DeletedAt, &offset)
	binary.PutOptionalInt64(data, obj.WithdrawnAt, &offset)
	binary.PutOptionalKey(data, obj.PayoutRecipient.Key(), &offset)
	binary.PutUint8(data, obj.VaultBump, &offset)

	return data
}

func (obj *CharityAccount) Unmarshal(data []byte) error {
	var offset int

	var discriminator []byte
	if err := binary.GetDiscriminator(data, &discriminator, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if !bytes.Equal(discriminator, CharityAccountDiscriminator) {
		return ErrInvalidAccountData
	}

	if err := binary.GetKey(data, &obj.Authority, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetString(data, &obj.Name, MaxCharityNameLength, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetString(data, &obj.Description, MaxCharityDescriptionLength, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetUint64(data, &obj.TotalDonated, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetUint64(data, &obj.DonationCount, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetBool(data, &obj.Paused, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetInt64(data, &obj.CreatedAt, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetInt64(data, &obj.UpdatedAt, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetOptionalInt64(data, &obj.DeletedAt, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetOptionalInt64(data, &obj.WithdrawnAt, &offset); err != nil {
		return ErrInvalidAccountData
	}

	var payoutRecipient ed25519.PublicKey
	if err := binary.GetOptionalKey(data, &payoutRecipient, &offset); err != nil {
		return ErrInvalidAccountData
	}
	if err := binary.GetUint8(data, &obj.VaultBump, &offset); err != nil {
		return ErrInvalidAccountData
	}
	obj.PayoutRecipient = NewPayoutRecipient(payoutRecipient)

	return nil
}

// GetDonationCountFromData reads donation_count by walking the variable length
// prefix of a charity account, which is all an external reader needs to derive
// the next donation address.
func GetDonationCountFromData(data []byte) (uint64, error) {
	var account CharityAccount
	if err := account.Unmarshal(data); err != nil {
		return 0, err
	}
	return account.DonationCount, nil
}

func (obj *CharityAccount) Clone() *CharityAccount {
	cloned := *obj

	cloned.Authority = make(ed25519.PublicKey, len(obj.Authority))
	copy(cloned.Authority, obj.Authority)

	if obj.DeletedAt != nil {
		v := *obj.DeletedAt
		cloned.DeletedAt = &v
	}
	if obj.WithdrawnAt != nil {
		v := *obj.WithdrawnAt
		cloned.WithdrawnAt = &v
	}
	cloned.PayoutRecipient = NewPayoutRecipient(obj.PayoutRecipient.Key())

	return &cloned
}

func (obj *CharityAccount) String() string {
	return fmt.Sprintf(
		"Charity{authority=%s,name=%s,description=%s,total_donated=%d,donation_count=%d,paused=%v,created_at=%d,updated_at=%d,deleted_at=%s,withdrawn_at=%s,payout_recipient=%s,vault_bump=%d}",
		base58.Encode(obj.Authority),
		obj.Name,
		obj.Description,
		obj.TotalDonated,
		obj.DonationCount,
		obj.Paused,
		obj.CreatedAt,
		obj.UpdatedAt,
		optionalInt64String(obj.DeletedAt),
		optionalInt64String(obj.WithdrawnAt),
		obj.PayoutRecipient.String(),
		obj.VaultBump,
	)
}

func optionalInt64String(v *int64) string {
	if v == nil {
		return "none"
	}
	return fmt.Sprintf("%d", *v)
}
