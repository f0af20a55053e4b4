package data

import (
	"context"

	"github.com/mr-tron/base58"

	"github.com/code-payments/charity-server/pkg/metrics"
	"github.com/code-payments/charity-server/pkg/solana"
)

const blockchainProviderMetricsName = "data.blockchain_provider"

// BlockchainData is the read-only view of the cluster the ledger needs: rent
// parameters, account lookups for the blink builder and recent blockhashes.
type BlockchainData interface {
	GetBlockchainAccountInfo(ctx context.Context, account string, commitment solana.Commitment) (*solana.AccountInfo, error)
	GetBlockchainMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error)
	GetBlockchainLatestBlockhash(ctx context.Context) (solana.Blockhash, error)
}

type BlockchainProvider struct {
	sc solana.Client
}

func NewBlockchainProvider(solanaEndpoint string) (BlockchainData, error) {
	return NewBlockchainProviderWithClient(solana.New(solanaEndpoint)), nil
}

func NewBlockchainProviderWithClient(sc solana.Client) BlockchainData {
	return &BlockchainProvider{sc: sc}
}

func (dp *BlockchainProvider) GetBlockchainAccountInfo(ctx context.Context, account string, commitment solana.Commitment) (*solana.AccountInfo, error) {
	return traceBlockchainCall(ctx, "GetBlockchainAccountInfo", func() (*solana.AccountInfo, error) {
		address, err := base58.Decode(account)
		if err != nil {
			return nil, err
		}

		info, err := dp.sc.GetAccountInfo(address, commitment)
		if err != nil {
			return nil, err
		}
		return &info, nil
	})
}

func (dp *BlockchainProvider) GetBlockchainMinimumBalanceForRentExemption(ctx context.Context, size uint64) (uint64, error) {
	return traceBlockchainCall(ctx, "GetBlockchainMinimumBalanceForRentExemption", func() (uint64, error) {
		return dp.sc.GetMinimumBalanceForRentExemption(size)
	})
}

func (dp *BlockchainProvider) GetBlockchainLatestBlockhash(ctx context.Context) (solana.Blockhash, error) {
	return traceBlockchainCall(ctx, "GetBlockchainLatestBlockhash", dp.sc.GetLatestBlockhash)
}

func traceBlockchainCall[T any](ctx context.Context, method string, call func() (T, error)) (T, error) {
	tracer := metrics.TraceMethodCall(ctx, blockchainProviderMetricsName, method)
	defer tracer.End()

	res, err := call()
	if err != nil {
		tracer.OnError(err)
	}
	return res, err
}
