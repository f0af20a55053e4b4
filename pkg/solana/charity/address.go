package charity_program

import (
	"crypto/ed25519"
	"encoding/binary"

	"github.com/code-payments/charity-server/pkg/solana"
)

var (
	CharityPrefix  = []byte("charity")
	VaultPrefix    = []byte("vault")
	DonationPrefix = []byte("donation")
)

// AddressDeriver locates charity, vault and donation accounts for a program
// without any directory lookups. The zero value derives against PROGRAM_ID.
type AddressDeriver struct {
	Program ed25519.PublicKey
}

// NewAddressDeriver returns an AddressDeriver bound to the provided program.
func NewAddressDeriver(program ed25519.PublicKey) AddressDeriver {
	return AddressDeriver{Program: program}
}

func (d AddressDeriver) program() ed25519.PublicKey {
	if len(d.Program) == 0 {
		return PROGRAM_ID
	}
	return d.Program
}

// CharityAddress derives the charity record for (authority, name). Names
// longer than a single seed fail with solana.ErrSeedTooLong.
func (d AddressDeriver) CharityAddress(authority ed25519.PublicKey, name string) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		d.program(),
		CharityPrefix,
		authority,
		[]byte(name),
	)
}

// VaultAddress derives the value-only custody account of a charity.
func (d AddressDeriver) VaultAddress(charity ed25519.PublicKey) (ed25519.PublicKey, uint8, error) {
	return solana.FindProgramAddressAndBump(
		d.program(),
		VaultPrefix,
		charity,
	)
}

// DonationAddress derives the donation record a donor creates when the
// charity's donation count equals ordinal.
func (d AddressDeriver) DonationAddress(donor, charity ed25519.PublicKey, ordinal uint64) (ed25519.PublicKey, uint8, error) {
	var ordinalBytes [8]byte
	binary.LittleEndian.PutUint64(ordinalBytes[:], ordinal)

	return solana.FindProgramAddressAndBump(
		d.program(),
		DonationPrefix,
		donor,
		charity,
		ordinalBytes[:],
	)
}

var defaultDeriver AddressDeriver

type GetCharityAddressArgs struct {
	Authority ed25519.PublicKey
	Name      string
}

func GetCharityAddress(args *GetCharityAddressArgs) (ed25519.PublicKey, uint8, error) {
	return defaultDeriver.CharityAddress(args.Authority, args.Name)
}

type GetVaultAddressArgs struct {
	Charity ed25519.PublicKey
}

func GetVaultAddress(args *GetVaultAddressArgs) (ed25519.PublicKey, uint8, error) {
	return defaultDeriver.VaultAddress(args.Charity)
}

type GetDonationAddressArgs struct {
	Donor         ed25519.PublicKey
	Charity       ed25519.PublicKey
	DonationCount uint64
}

func GetDonationAddress(args *GetDonationAddressArgs) (ed25519.PublicKey, uint8, error) {
	return defaultDeriver.DonationAddress(args.Donor, args.Charity, args.DonationCount)
}
