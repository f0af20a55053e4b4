package blink

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	code_data "github.com/code-payments/charity-server/pkg/code/data"
	"github.com/code-payments/charity-server/pkg/code/data/ledger"
	"github.com/code-payments/charity-server/pkg/solana"
)

var ErrAccountNotFound = errors.New("account not found")

// Account is the subset of account state needed to build requests
type Account struct {
	Owner    ed25519.PublicKey
	Lamports uint64
	Data     []byte
}

// AccountReader reads the state a request is built against
type AccountReader interface {
	// GetAccount returns ErrAccountNotFound when the account doesn't exist
	GetAccount(ctx context.Context, address ed25519.PublicKey) (*Account, error)

	GetLatestBlockhash(ctx context.Context) (solana.Blockhash, error)
}

type ledgerAccountReader struct {
	data code_data.DatabaseData
}

// NewLedgerAccountReader reads accounts from the in process ledger. The ledger
// doesn't track blocks, so blockhashes are random.
func NewLedgerAccountReader(data code_data.DatabaseData) AccountReader {
	return &ledgerAccountReader{
		data: data,
	}
}

func (r *ledgerAccountReader) GetAccount(ctx context.Context, address ed25519.PublicKey) (*Account, error) {
	record, err := r.data.GetLedgerAccount(ctx, base58.Encode(address))
	if err == ledger.ErrAccountNotFound {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting ledger account")
	}

	owner, err := base58.Decode(record.Owner)
	if err != nil {
		return nil, errors.Wrap(err, "invalid owner")
	}

	return &Account{
		Owner:    owner,
		Lamports: record.Lamports,
		Data:     record.Data,
	}, nil
}

func (r *ledgerAccountReader) GetLatestBlockhash(_ context.Context) (solana.Blockhash, error) {
	var seed [32]byte
	if _, err := rand.Read(seed[:]); err != nil {
		return solana.Blockhash{}, errors.Wrap(err, "error generating blockhash")
	}
	return solana.Blockhash(sha256.Sum256(seed[:])), nil
}

type rpcAccountReader struct {
	data       code_data.BlockchainData
	commitment solana.Commitment
}

// NewRPCAccountReader reads accounts from a Solana RPC node
func NewRPCAccountReader(data code_data.BlockchainData, commitment solana.Commitment) AccountReader {
	return &rpcAccountReader{
		data:       data,
		commitment: commitment,
	}
}

func (r *rpcAccountReader) GetAccount(ctx context.Context, address ed25519.PublicKey) (*Account, error) {
	info, err := r.data.GetBlockchainAccountInfo(ctx, base58.Encode(address), r.commitment)
	if err == solana.ErrNoAccountInfo {
		return nil, ErrAccountNotFound
	} else if err != nil {
		return nil, errors.Wrap(err, "error getting account info")
	}

	return &Account{
		Owner:    info.Owner,
		Lamports: info.Lamports,
		Data:     info.Data,
	}, nil
}

func (r *rpcAccountReader) GetLatestBlockhash(ctx context.Context) (solana.Blockhash, error) {
	blockhash, err := r.data.GetBlockchainLatestBlockhash(ctx)
	if err != nil {
		return solana.Blockhash{}, errors.Wrap(err, "error getting latest blockhash")
	}
	return blockhash, nil
}
