package solana

import (
	"crypto/ed25519"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/mr-tron/base58"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcRequest struct {
	ID     int             `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
}

func newTestRPCServer(t *testing.T, handler func(req rpcRequest) (interface{}, *rpcError)) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		result, rpcErr := handler(req)
		resp := map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
		}
		if rpcErr != nil {
			resp["error"] = rpcErr
		} else {
			resp["result"] = result
		}
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	t.Cleanup(server.Close)
	return server
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func TestClient_GetAccountInfo(t *testing.T) {
	account, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	owner, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	server := newTestRPCServer(t, func(req rpcRequest) (interface{}, *rpcError) {
		assert.Equal(t, "getAccountInfo", req.Method)

		var params []json.RawMessage
		require.NoError(t, json.Unmarshal(req.Params, &params))
		require.Len(t, params, 2)
		assert.JSONEq(t, `{"commitment":"confirmed","encoding":"base64"}`, string(params[1]))

		var address string
		require.NoError(t, json.Unmarshal(params[0], &address))
		if address != base58.Encode(account) {
			return map[string]interface{}{"value": nil}, nil
		}

		return map[string]interface{}{
			"value": map[string]interface{}{
				"lamports":   1753920,
				"owner":      base58.Encode(owner),
				"data":       []string{base64.StdEncoding.EncodeToString([]byte{1, 2, 3}), "base64"},
				"executable": false,
			},
		}, nil
	})

	c := New(server.URL)

	info, err := c.GetAccountInfo(account, CommitmentConfirmed)
	require.NoError(t, err)
	assert.EqualValues(t, 1753920, info.Lamports)
	assert.Equal(t, owner, info.Owner)
	assert.Equal(t, []byte{1, 2, 3}, info.Data)

	_, err = c.GetAccountInfo(owner, CommitmentConfirmed)
	assert.Equal(t, ErrNoAccountInfo, err)
}

func TestClient_GetMinimumBalanceForRentExemption(t *testing.T) {
	server := newTestRPCServer(t, func(req rpcRequest) (interface{}, *rpcError) {
		assert.Equal(t, "getMinimumBalanceForRentExemption", req.Method)

		var params []uint64
		require.NoError(t, json.Unmarshal(req.Params, &params))
		require.Len(t, params, 1)
		return (128 + params[0]) * 6960, nil
	})

	lamports, err := New(server.URL).GetMinimumBalanceForRentExemption(265)
	require.NoError(t, err)
	assert.EqualValues(t, 2735280, lamports)
}

func TestClient_GetLatestBlockhash(t *testing.T) {
	var expected Blockhash
	expected[0] = 7

	var calls int32
	server := newTestRPCServer(t, func(req rpcRequest) (interface{}, *rpcError) {
		atomic.AddInt32(&calls, 1)
		return map[string]interface{}{
			"value": map[string]interface{}{
				"blockhash": base58.Encode(expected[:]),
			},
		}, nil
	})

	c := New(server.URL)
	for i := 0; i < 5; i++ {
		hash, err := c.GetLatestBlockhash()
		require.NoError(t, err)
		assert.Equal(t, expected, hash)
	}

	// Repeated calls within the cache window share a request
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}

func TestClient_NonRetriableError(t *testing.T) {
	var calls int32
	server := newTestRPCServer(t, func(req rpcRequest) (interface{}, *rpcError) {
		atomic.AddInt32(&calls, 1)
		return nil, &rpcError{Code: -32602, Message: "invalid params"}
	})

	_, err := New(server.URL).GetMinimumBalanceForRentExemption(0)
	assert.Error(t, err)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls))
}
