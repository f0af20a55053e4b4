package charity_program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/code-payments/charity-server/pkg/solana/binary"
)

// Anchor event discriminators, sha256("event:<Name>")[:8]
var (
	CreateCharityEventDiscriminator          = []byte{213, 219, 93, 160, 91, 105, 70, 242}
	UpdateCharityEventDiscriminator          = []byte{29, 156, 125, 176, 95, 192, 196, 210}
	PauseDonationsEventDiscriminator         = []byte{142, 208, 44, 116, 46, 34, 13, 161}
	MakeDonationEventDiscriminator           = []byte{23, 55, 46, 211, 8, 225, 105, 21}
	SetWithdrawalRecipientEventDiscriminator = []byte{202, 62, 83, 159, 167, 70, 162, 169}
	WithdrawCharitySolEventDiscriminator     = []byte{253, 239, 91, 192, 52, 48, 47, 10}
	DeleteCharityEventDiscriminator          = []byte{241, 116, 32, 227, 200, 111, 252, 68}
)

// Event is a structured record emitted by a successful instruction.
type Event interface {
	Name() string
	Charity() ed25519.PublicKey
	Marshal() []byte
}

type CreateCharityEvent struct {
	CharityKey  ed25519.PublicKey
	CharityName string
	Description string
	CreatedAt   int64
}

func (e *CreateCharityEvent) Name() string               { return "CreateCharityEvent" }
func (e *CreateCharityEvent) Charity() ed25519.PublicKey { return e.CharityKey }

func (e *CreateCharityEvent) Marshal() []byte {
	data := make([]byte, 8+32+4+len(e.CharityName)+4+len(e.Description)+8)

	var offset int
	binary.PutDiscriminator(data, CreateCharityEventDiscriminator, &offset)
	binary.PutKey(data, e.CharityKey, &offset)
	binary.PutString(data, e.CharityName, &offset)
	binary.PutString(data, e.Description, &offset)
	binary.PutInt64(data, e.CreatedAt, &offset)
	return data
}

type UpdateCharityEvent struct {
	CharityKey  ed25519.PublicKey
	CharityName string
	Description string
	UpdatedAt   int64
}

func (e *UpdateCharityEvent) Name() string               { return "UpdateCharityEvent" }
func (e *UpdateCharityEvent) Charity() ed25519.PublicKey { return e.CharityKey }

func (e *UpdateCharityEvent) Marshal() []byte {
	data := make([]byte, 8+32+4+len(e.CharityName)+4+len(e.Description)+8)

	var offset int
	binary.PutDiscriminator(data, UpdateCharityEventDiscriminator, &offset)
	binary.PutKey(data, e.CharityKey, &offset)
	binary.PutString(data, e.CharityName, &offset)
	binary.PutString(data, e.Description, &offset)
	binary.PutInt64(data, e.UpdatedAt, &offset)
	return data
}

type PauseDonationsEvent struct {
	CharityKey  ed25519.PublicKey
	CharityName string
	Paused      bool
	UpdatedAt   int64
}

func (e *PauseDonationsEvent) Name() string               { return "PauseDonationsEvent" }
func (e *PauseDonationsEvent) Charity() ed25519.PublicKey { return e.CharityKey }

func (e *PauseDonationsEvent) Marshal() []byte {
	data := make([]byte, 8+32+4+len(e.CharityName)+1+8)

	var offset int
	binary.PutDiscriminator(data, PauseDonationsEventDiscriminator, &offset)
	binary.PutKey(data, e.CharityKey, &offset)
	binary.PutString(data, e.CharityName, &offset)
	binary.PutBool(data, e.Paused, &offset)
	binary.PutInt64(data, e.UpdatedAt, &offset)
	return data
}

type MakeDonationEvent struct {
	DonorKey    ed25519.PublicKey
	CharityKey  ed25519.PublicKey
	CharityName string
	Amount      uint64
	CreatedAt   int64
}

func (e *MakeDonationEvent) Name() string               { return "MakeDonationEvent" }
func (e *MakeDonationEvent) Charity() ed25519.PublicKey { return e.CharityKey }

func (e *MakeDonationEvent) Marshal() []byte {
	data := make([]byte, 8+32+32+4+len(e.CharityName)+8+8)

	var offset int
	binary.PutDiscriminator(data, MakeDonationEventDiscriminator, &offset)
	binary.PutKey(data, e.DonorKey, &offset)
	binary.PutKey(data, e.CharityKey, &offset)
	binary.PutString(data, e.CharityName, &offset)
	binary.PutUint64(data, e.Amount, &offset)
	binary.PutInt64(data, e.CreatedAt, &offset)
	return data
}

type SetWithdrawalRecipientEvent struct {
	CharityKey   ed25519.PublicKey
	CharityName  string
	RecipientKey ed25519.PublicKey // optional
	UpdatedAt    int64
}

func (e *SetWithdrawalRecipientEvent) Name() string               { return "SetWithdrawalRecipientEvent" }
func (e *SetWithdrawalRecipientEvent) Charity() ed25519.PublicKey { return e.CharityKey }

func (e *SetWithdrawalRecipientEvent) Marshal() []byte {
	size := 8 + 32 + 4 + len(e.CharityName) + binary.OptionSize + 8
	if len(e.RecipientKey) > 0 {
		size += ed25519.PublicKeySize
	}
	data := make([]byte, size)

	var offset int
	binary.PutDiscriminator(data, SetWithdrawalRecipientEventDiscriminator, &offset)
	binary.PutKey(data, e.CharityKey, &offset)
	binary.PutString(data, e.CharityName, &offset)
	binary.PutOptionalKey(data, e.RecipientKey, &offset)
	binary.PutInt64(data, e.UpdatedAt, &offset)
	return data
}

type WithdrawCharitySolEvent struct {
	CharityKey    ed25519.PublicKey
	CharityName   string
	TotalDonated  uint64
	DonationCount uint64
	WithdrawnAt   int64
}

func (e *WithdrawCharitySolEvent) Name() string               { return "WithdrawCharitySolEvent" }
func (e *WithdrawCharitySolEvent) Charity() ed25519.PublicKey { return e.CharityKey }

func (e *WithdrawCharitySolEvent) Marshal() []byte {
	data := make([]byte, 8+32+4+len(e.CharityName)+8+8+8)

	var offset int
	binary.PutDiscriminator(data, WithdrawCharitySolEventDiscriminator, &offset)
	binary.PutKey(data, e.CharityKey, &offset)
	binary.PutString(data, e.CharityName, &offset)
	binary.PutUint64(data, e.TotalDonated, &offset)
	binary.PutUint64(data, e.DonationCount, &offset)
	binary.PutInt64(data, e.WithdrawnAt, &offset)
	return data
}

type DeleteCharityEvent struct {
	CharityKey           ed25519.PublicKey
	CharityName          string
	DeletedAt            int64
	WithdrawnToRecipient bool
}

func (e *DeleteCharityEvent) Name() string               { return "DeleteCharityEvent" }
func (e *DeleteCharityEvent) Charity() ed25519.PublicKey { return e.CharityKey }

func (e *DeleteCharityEvent) Marshal() []byte {
	data := make([]byte, 8+32+4+len(e.CharityName)+8+1)

	var offset int
	binary.PutDiscriminator(data, DeleteCharityEventDiscriminator, &offset)
	binary.PutKey(data, e.CharityKey, &offset)
	binary.PutString(data, e.CharityName, &offset)
	binary.PutInt64(data, e.DeletedAt, &offset)
	binary.PutBool(data, e.WithdrawnToRecipient, &offset)
	return data
}

var eventDiscriminators = map[string][]byte{
	"CreateCharityEvent":          CreateCharityEventDiscriminator,
	"UpdateCharityEvent":          UpdateCharityEventDiscriminator,
	"PauseDonationsEvent":         PauseDonationsEventDiscriminator,
	"MakeDonationEvent":           MakeDonationEventDiscriminator,
	"SetWithdrawalRecipientEvent": SetWithdrawalRecipientEventDiscriminator,
	"WithdrawCharitySolEvent":     WithdrawCharitySolEventDiscriminator,
	"DeleteCharityEvent":          DeleteCharityEventDiscriminator,
}

// GetEventName identifies an encoded event from its discriminator.
func GetEventName(data []byte) (string, bool) {
	if len(data) < 8 {
		return "", false
	}
	for name, discriminator := range eventDiscriminators {
		if bytes.Equal(data[:8], discriminator) {
			return name, true
		}
	}
	return "", false
}
