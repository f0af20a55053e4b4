package charity

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"

	"github.com/code-payments/charity-server/pkg/cache"
	code_data "github.com/code-payments/charity-server/pkg/code/data"
)

const (
	// Bytes charged per account on top of its data, regardless of size
	accountStorageOverhead = 128

	defaultLamportsPerByteYear = 3480
	defaultExemptionThreshold  = 2

	rentCacheLifeWindow = time.Hour
)

// RentCalculator reports the minimum balance an account must hold to persist,
// given the size of its data.
type RentCalculator interface {
	MinimumBalance(ctx context.Context, dataSize uint64) (uint64, error)
}

type defaultRentCalculator struct{}

// NewDefaultRentCalculator returns a RentCalculator using the cluster default
// rent parameters.
func NewDefaultRentCalculator() RentCalculator {
	return &defaultRentCalculator{}
}

// MinimumBalance implements RentCalculator.MinimumBalance
func (c *defaultRentCalculator) MinimumBalance(_ context.Context, dataSize uint64) (uint64, error) {
	return MinimumBalanceForRentExemption(dataSize), nil
}

// MinimumBalanceForRentExemption computes the rent exempt minimum with the
// cluster default parameters.
func MinimumBalanceForRentExemption(dataSize uint64) uint64 {
	return (accountStorageOverhead + dataSize) * defaultLamportsPerByteYear * defaultExemptionThreshold
}

type rpcRentCalculator struct {
	data  code_data.BlockchainData
	cache *cache.Uint64Cache
}

// NewRPCRentCalculator returns a RentCalculator that asks the cluster for the
// minimum balance and caches the answer per data size.
func NewRPCRentCalculator(ctx context.Context, data code_data.BlockchainData) (RentCalculator, error) {
	c, err := cache.New(ctx, cache.Config{
		LifeWindow: rentCacheLifeWindow,
		MaxEntries: 64,
	})
	if err != nil {
		return nil, err
	}

	return &rpcRentCalculator{
		data:  data,
		cache: cache.NewUint64Cache(c),
	}, nil
}

// MinimumBalance implements RentCalculator.MinimumBalance
func (c *rpcRentCalculator) MinimumBalance(ctx context.Context, dataSize uint64) (uint64, error) {
	key := strconv.FormatUint(dataSize, 10)

	if cached, ok := c.cache.GetUint64(key); ok {
		return cached, nil
	}

	lamports, err := c.data.GetBlockchainMinimumBalanceForRentExemption(ctx, dataSize)
	if err != nil {
		return 0, errors.Wrap(err, "error getting minimum balance for rent exemption")
	}

	if err := c.cache.SetUint64(key, lamports); err != nil {
		return 0, errors.Wrap(err, "error caching minimum balance")
	}
	return lamports, nil
}
