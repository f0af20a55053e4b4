package charity_program

import (
	"crypto/ed25519"
	"strings"
	"testing"

	"github.com/mr-tron/base58/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/charity-server/pkg/solana"
)

var (
	testAuthority = mustBase58Decode("4vJ9JU1bJJE96FWSJKvHsmmFADCg4gpZQff4P3bkLKi")
	testDonor     = mustBase58Decode("8qbHbw2BbbTHBW1sbeqakYXVKRQM8Ne7pLK7m6CVfeR")
)

func TestGetCharityAddress(t *testing.T) {
	address, bump, err := GetCharityAddress(&GetCharityAddressArgs{
		Authority: testAuthority,
		Name:      "helping-hands",
	})
	require.NoError(t, err)
	assert.Equal(t, "BVnvXpCEuk4PfmEP8PQF8kr6yc4f6Kv9VvPsZYdEvBXG", base58.Encode(address))
	assert.EqualValues(t, 254, bump)
}

func TestGetVaultAddress(t *testing.T) {
	address, bump, err := GetVaultAddress(&GetVaultAddressArgs{
		Charity: mustBase58Decode("BVnvXpCEuk4PfmEP8PQF8kr6yc4f6Kv9VvPsZYdEvBXG"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2464ZjoeEKDLd6v7P1H1JkyC9SeQbnxouz7LwRV5R9UR", base58.Encode(address))
	assert.EqualValues(t, 255, bump)
}

func TestGetDonationAddress(t *testing.T) {
	charity := mustBase58Decode("BVnvXpCEuk4PfmEP8PQF8kr6yc4f6Kv9VvPsZYdEvBXG")

	first, _, err := GetDonationAddress(&GetDonationAddressArgs{
		Donor:         testDonor,
		Charity:       charity,
		DonationCount: 0,
	})
	require.NoError(t, err)
	assert.Equal(t, "DLnDAX2v89QMgEpkamtdLfft5K8RY1zQqJaE3AThaxwN", base58.Encode(first))

	second, _, err := GetDonationAddress(&GetDonationAddressArgs{
		Donor:         testDonor,
		Charity:       charity,
		DonationCount: 1,
	})
	require.NoError(t, err)
	assert.Equal(t, "59dmQxWtbNwxDWjn8sMfHj3UEgji4oiJytfa2sqY933V", base58.Encode(second))
}

func TestAddressDeriver(t *testing.T) {
	var zero AddressDeriver
	bound := NewAddressDeriver(PROGRAM_ID)

	a, _, err := zero.CharityAddress(testAuthority, "helping-hands")
	require.NoError(t, err)
	b, _, err := bound.CharityAddress(testAuthority, "helping-hands")
	require.NoError(t, err)
	assert.EqualValues(t, a, b)

	// Different programs yield different addresses for the same seeds
	other := NewAddressDeriver(testDonor)
	c, _, err := other.CharityAddress(testAuthority, "helping-hands")
	require.NoError(t, err)
	assert.NotEqualValues(t, a, c)

	for _, address := range []ed25519.PublicKey{a, c} {
		assert.False(t, solana.IsOnCurve(address))
	}
}

func TestAddressDeriver_NameBounds(t *testing.T) {
	var deriver AddressDeriver

	_, _, err := deriver.CharityAddress(testAuthority, strings.Repeat("a", MaxCharityNameLength))
	assert.NoError(t, err)

	_, _, err = deriver.CharityAddress(testAuthority, strings.Repeat("a", MaxCharityNameLength+1))
	assert.Equal(t, solana.ErrSeedTooLong, err)
}
