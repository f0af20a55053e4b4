package charity_program

import (
	"bytes"
	"crypto/ed25519"

	"github.com/mr-tron/base58"
)

// PayoutRecipient is a set-once override for where withdrawals and the final
// delete-time sweep are sent. The zero value is Unset.
type PayoutRecipient struct {
	key ed25519.PublicKey
}

// UnsetPayoutRecipient returns a recipient with no override.
func UnsetPayoutRecipient() PayoutRecipient {
	return PayoutRecipient{}
}

// NewPayoutRecipient returns a recipient set to the provided key.
func NewPayoutRecipient(key ed25519.PublicKey) PayoutRecipient {
	if len(key) == 0 {
		return PayoutRecipient{}
	}

	cloned := make(ed25519.PublicKey, len(key))
	copy(cloned, key)
	return PayoutRecipient{key: cloned}
}

func (r PayoutRecipient) IsSet() bool {
	return len(r.key) > 0
}

// Key returns the override, or nil when Unset.
func (r PayoutRecipient) Key() ed25519.PublicKey {
	return r.key
}

// Assign transitions the recipient. Unset may move to Set or stay Unset, while
// a Set recipient rejects every transition.
func (r PayoutRecipient) Assign(next ed25519.PublicKey) (PayoutRecipient, error) {
	if r.IsSet() {
		return r, ErrRecipientAlreadySet
	}
	return NewPayoutRecipient(next), nil
}

// Resolve validates the destination of funds leaving the vault. Any candidate
// is accepted while Unset.
func (r PayoutRecipient) Resolve(candidate ed25519.PublicKey) (ed25519.PublicKey, error) {
	if !r.IsSet() {
		return candidate, nil
	}
	if !bytes.Equal(r.key, candidate) {
		return nil, ErrInvalidWithdrawalRecipient
	}
	return r.key, nil
}

func (r PayoutRecipient) Equals(other PayoutRecipient) bool {
	return bytes.Equal(r.key, other.key)
}

func (r PayoutRecipient) String() string {
	if !r.IsSet() {
		return "unset"
	}
	return base58.Encode(r.key)
}
