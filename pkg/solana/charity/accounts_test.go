package charity_program

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCharityAccount_RoundTrip(t *testing.T) {
	deletedAt := int64(1700000500)
	withdrawnAt := int64(1700000400)

	expected := CharityAccount{
		Authority:       testAuthority,
		Name:            "helping-hands",
		Description:     "Meals for the shelter on 5th",
		TotalDonated:    42_000_000,
		DonationCount:   7,
		Paused:          true,
		CreatedAt:       1700000000,
		UpdatedAt:       1700000300,
		DeletedAt:       &deletedAt,
		WithdrawnAt:     &withdrawnAt,
		PayoutRecipient: NewPayoutRecipient(testDonor),
		VaultBump:       253,
	}

	data := expected.Marshal()
	assert.Len(t, data, CharityAccountSize)
	assert.EqualValues(t, 265, CharityAccountSize)
	assert.True(t, IsCharityAccount(data))
	assert.False(t, IsDonationAccount(data))

	var actual CharityAccount
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, expected.String(), actual.String())
	assert.True(t, expected.PayoutRecipient.Equals(actual.PayoutRecipient))

	count, err := GetDonationCountFromData(data)
	require.NoError(t, err)
	assert.EqualValues(t, 7, count)
}

func TestCharityAccount_EmptyOptionals(t *testing.T) {
	expected := CharityAccount{
		Authority:   testAuthority,
		Name:        "a",
		Description: "",
		CreatedAt:   1,
		UpdatedAt:   1,
	}

	var actual CharityAccount
	require.NoError(t, actual.Unmarshal(expected.Marshal()))
	assert.Nil(t, actual.DeletedAt)
	assert.Nil(t, actual.WithdrawnAt)
	assert.False(t, actual.PayoutRecipient.IsSet())
	assert.Equal(t, "a", actual.Name)
	assert.Empty(t, actual.Description)
}

func TestCharityAccount_InvalidData(t *testing.T) {
	var actual CharityAccount
	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(nil))
	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(make([]byte, CharityAccountSize)))

	donation := DonationAccount{Donor: testDonor, Charity: testAuthority}
	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(donation.Marshal()))

	valid := (&CharityAccount{Authority: testAuthority, Name: "a"}).Marshal()
	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(valid[:60]))

	_, err := GetDonationCountFromData(valid[:60])
	assert.Equal(t, ErrInvalidAccountData, err)
}

func TestCharityAccount_Clone(t *testing.T) {
	withdrawnAt := int64(10)
	original := &CharityAccount{
		Authority:   testAuthority,
		Name:        "helping-hands",
		WithdrawnAt: &withdrawnAt,
	}

	cloned := original.Clone()
	cloned.Authority[0] ^= 0xff
	*cloned.WithdrawnAt = 20

	assert.NotEqual(t, original.Authority[0], cloned.Authority[0])
	assert.EqualValues(t, 10, *original.WithdrawnAt)
}

func TestDonationAccount_RoundTrip(t *testing.T) {
	expected := DonationAccount{
		Donor:            testDonor,
		Charity:          testAuthority,
		CharityName:      "helping-hands",
		AmountInLamports: 10_000_000,
		CreatedAt:        1700000000,
	}

	data := expected.Marshal()
	assert.Len(t, data, DonationAccountSize)
	assert.EqualValues(t, 124, DonationAccountSize)
	assert.True(t, IsDonationAccount(data))

	var actual DonationAccount
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, expected, actual)

	assert.Equal(t, ErrInvalidAccountData, actual.Unmarshal(data[:50]))
}

func TestPayoutRecipient(t *testing.T) {
	unset := UnsetPayoutRecipient()
	assert.False(t, unset.IsSet())
	assert.Equal(t, "unset", unset.String())

	// Unset -> Unset is an explicit no-op
	next, err := unset.Assign(nil)
	require.NoError(t, err)
	assert.False(t, next.IsSet())

	// Unset accepts any destination
	resolved, err := unset.Resolve(testDonor)
	require.NoError(t, err)
	assert.EqualValues(t, testDonor, resolved)

	// Unset -> Set
	set, err := unset.Assign(testDonor)
	require.NoError(t, err)
	assert.True(t, set.IsSet())
	assert.EqualValues(t, testDonor, set.Key())

	// Set is terminal
	_, err = set.Assign(testAuthority)
	assert.Equal(t, ErrRecipientAlreadySet, err)
	_, err = set.Assign(nil)
	assert.Equal(t, ErrRecipientAlreadySet, err)
	_, err = set.Assign(testDonor)
	assert.Equal(t, ErrRecipientAlreadySet, err)

	resolved, err = set.Resolve(testDonor)
	require.NoError(t, err)
	assert.EqualValues(t, testDonor, resolved)

	_, err = set.Resolve(testAuthority)
	assert.Equal(t, ErrInvalidWithdrawalRecipient, err)

	// The recipient holds its own copy of the key
	key := make(ed25519.PublicKey, ed25519.PublicKeySize)
	copy(key, testDonor)
	owned := NewPayoutRecipient(key)
	key[0] ^= 0xff
	assert.EqualValues(t, testDonor, owned.Key())
}

func TestProgramError(t *testing.T) {
	assert.EqualValues(t, 6000, ErrUnauthorized.Code())
	assert.EqualValues(t, 6010, ErrRecipientAlreadySet.Code())
	assert.Equal(t, "DonationsPaused", ErrDonationsPaused.String())
	assert.Equal(t, "donations for this charity are paused", ErrDonationsPaused.Error())

	for code := uint32(6000); code <= 6010; code++ {
		programErr, ok := GetProgramError(code)
		require.True(t, ok)
		assert.Equal(t, code, programErr.Code())
	}

	_, ok := GetProgramError(6011)
	assert.False(t, ok)
	assert.Equal(t, "Unknown", ProgramError(1).String())
}
