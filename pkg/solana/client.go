package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"math/rand"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/ybbus/jsonrpc"

	"github.com/code-payments/charity-server/pkg/retry"
	"github.com/code-payments/charity-server/pkg/retry/backoff"
)

// rpcNodeUnhealthyCode is returned by nodes that are behind the cluster
const rpcNodeUnhealthyCode = -32005

// blockhashTTL is the base time a fetched blockhash is reused for
const blockhashTTL = 2 * time.Second

type Commitment struct {
	Commitment string `json:"commitment"`
}

var (
	CommitmentProcessed = Commitment{Commitment: "processed"}
	CommitmentConfirmed = Commitment{Commitment: "confirmed"}
	CommitmentFinalized = Commitment{Commitment: "finalized"}
)

var ErrNoAccountInfo = errors.New("no account info")

var (
	errRateLimited  = errors.New("rate limited")
	errServiceError = errors.New("service error")
)

// AccountInfo is the raw state of an account
type AccountInfo struct {
	Data       []byte
	Owner      ed25519.PublicKey
	Lamports   uint64
	Executable bool
}

// Client is the subset of the Solana JSON RPC API needed to build charity
// transactions against a live cluster
type Client interface {
	GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (AccountInfo, error)
	GetMinimumBalanceForRentExemption(size uint64) (uint64, error)
	GetLatestBlockhash() (Blockhash, error)
}

type client struct {
	log     *logrus.Entry
	rpc     jsonrpc.RPCClient
	retrier retry.Retrier

	blockhashMu sync.RWMutex
	blockhash   Blockhash
	fetchedAt   time.Time
}

func New(endpoint string) Client {
	return NewWithRPCOptions(endpoint, nil)
}

func NewWithRPCOptions(endpoint string, opts *jsonrpc.RPCClientOpts) Client {
	return &client{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type":     "solana/client",
			"endpoint": endpoint,
		}),
		rpc: jsonrpc.NewClientWithOpts(endpoint, opts),
		retrier: retry.NewRetrier(
			retry.RetriableErrors(errRateLimited, errServiceError),
			retry.Limit(3),
			retry.BackoffWithJitter(backoff.BinaryExponential(time.Second), 10*time.Second, 0.1),
		),
	}
}

// call retries rate limits and unhealthy nodes
func (c *client) call(out interface{}, method string, params ...interface{}) error {
	_, err := c.retrier.Retry(func() error {
		err := c.rpc.CallFor(out, method, params...)

		var rpcErr *jsonrpc.RPCError
		if !errors.As(err, &rpcErr) {
			return err
		}

		switch {
		case rpcErr.Code == 429:
			c.log.WithField("method", method).Warn("rate limited")
			return errRateLimited
		case rpcErr.Code >= 500, rpcErr.Code == rpcNodeUnhealthyCode:
			return errServiceError
		}
		return err
	})
	return errors.Wrapf(err, "%s failed", method)
}

func (c *client) GetAccountInfo(account ed25519.PublicKey, commitment Commitment) (AccountInfo, error) {
	var resp struct {
		Value *struct {
			Lamports   uint64   `json:"lamports"`
			Owner      string   `json:"owner"`
			Data       []string `json:"data"`
			Executable bool     `json:"executable"`
		} `json:"value"`
	}

	config := struct {
		Commitment
		Encoding string `json:"encoding"`
	}{
		Commitment: commitment,
		Encoding:   "base64",
	}

	if err := c.call(&resp, "getAccountInfo", base58.Encode(account), config); err != nil {
		return AccountInfo{}, err
	}
	if resp.Value == nil {
		return AccountInfo{}, ErrNoAccountInfo
	}
	if len(resp.Value.Data) == 0 {
		return AccountInfo{}, errors.New("missing account data in response")
	}

	owner, err := base58.Decode(resp.Value.Owner)
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "invalid owner in response")
	}
	data, err := base64.StdEncoding.DecodeString(resp.Value.Data[0])
	if err != nil {
		return AccountInfo{}, errors.Wrap(err, "invalid data in response")
	}

	return AccountInfo{
		Data:       data,
		Owner:      owner,
		Lamports:   resp.Value.Lamports,
		Executable: resp.Value.Executable,
	}, nil
}

func (c *client) GetMinimumBalanceForRentExemption(size uint64) (uint64, error) {
	var lamports uint64
	if err := c.call(&lamports, "getMinimumBalanceForRentExemption", size); err != nil {
		return 0, err
	}
	return lamports, nil
}

// GetLatestBlockhash reuses a fetched blockhash for a jittered window so that
// concurrent transaction builders share a single request
func (c *client) GetLatestBlockhash() (Blockhash, error) {
	ttl := time.Duration(float64(blockhashTTL) * (0.8 + 0.4*rand.Float64()))

	c.blockhashMu.RLock()
	cached, fetchedAt := c.blockhash, c.fetchedAt
	c.blockhashMu.RUnlock()

	if time.Since(fetchedAt) < ttl {
		return cached, nil
	}

	var resp struct {
		Value struct {
			Blockhash string `json:"blockhash"`
		} `json:"value"`
	}
	if err := c.call(&resp, "getLatestBlockhash"); err != nil {
		return Blockhash{}, err
	}

	decoded, err := base58.Decode(resp.Value.Blockhash)
	if err != nil || len(decoded) != len(Blockhash{}) {
		return Blockhash{}, errors.New("invalid blockhash in response")
	}

	var hash Blockhash
	copy(hash[:], decoded)

	c.blockhashMu.Lock()
	c.blockhash = hash
	c.fetchedAt = time.Now()
	c.blockhashMu.Unlock()

	return hash, nil
}
