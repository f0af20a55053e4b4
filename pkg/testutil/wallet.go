package testutil

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/require"

	code_data "github.com/code-payments/charity-server/pkg/code/data"
	"github.com/code-payments/charity-server/pkg/code/data/ledger"
	"github.com/code-payments/charity-server/pkg/solana/system"
)

// Wallet is a system owned keypair
type Wallet struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

func (w Wallet) Address() string {
	return base58.Encode(w.Public)
}

func NewWallet(t *testing.T) Wallet {
	public, private, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return Wallet{Public: public, Private: private}
}

// NewFundedWallet returns a wallet with a ledger account holding lamports. No
// account is created when lamports is zero.
func NewFundedWallet(t *testing.T, data code_data.DatabaseData, lamports uint64) Wallet {
	wallet := NewWallet(t)
	if lamports > 0 {
		FundAccount(t, data, wallet.Public, lamports)
	}
	return wallet
}

// FundAccount creates a system owned ledger account
func FundAccount(t *testing.T, data code_data.DatabaseData, address ed25519.PublicKey, lamports uint64) {
	require.NoError(t, data.CommitLedgerChanges(context.Background(), ledger.NewCreate(&ledger.Record{
		Address:  base58.Encode(address),
		Owner:    base58.Encode(system.ProgramKey[:]),
		Lamports: lamports,
	})))
}

// GetBalance returns the lamports held by an account, or zero when it doesn't
// exist
func GetBalance(t *testing.T, data code_data.DatabaseData, address ed25519.PublicKey) uint64 {
	record, err := data.GetLedgerAccount(context.Background(), base58.Encode(address))
	if err == ledger.ErrAccountNotFound {
		return 0
	}
	require.NoError(t, err)
	return record.Lamports
}

func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		keys[i] = NewWallet(t).Public
	}
	return keys
}
