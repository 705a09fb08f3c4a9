package chainClient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/logger"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeBackend struct {
	mu             sync.Mutex
	chainId        uint64
	nonce          uint64
	receipt        *types.Receipt
	pendingPolls   int
	receiptErr     error
	receiptQueries int
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(f.chainId), nil
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(20_000_000_000), nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.receiptQueries++
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	if f.receiptQueries <= f.pendingPolls || f.receipt == nil {
		return nil, ethereum.NotFound
	}
	return f.receipt, nil
}

type fakeRpc struct {
	method string
	args   []interface{}
	hash   common.Hash
	err    error
}

func (f *fakeRpc) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	f.method = method
	f.args = args
	if f.err != nil {
		return f.err
	}
	*(result.(*common.Hash)) = f.hash
	return nil
}

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: true})
	require.NoError(t, err)
	return l
}

func Test_ChainClient(t *testing.T) {
	ctx := context.Background()
	txHash := common.HexToHash("0xabc")

	t.Run("sends the exact raw bytes", func(t *testing.T) {
		rpc := &fakeRpc{hash: txHash}
		c := NewChainClient(&fakeBackend{}, rpc, time.Millisecond, testLogger(t))

		raw := []byte{0xf8, 0x56, 0x07}
		hash, err := c.SendRawTransaction(ctx, raw)
		require.NoError(t, err)
		assert.Equal(t, txHash, hash)
		assert.Equal(t, "eth_sendRawTransaction", rpc.method)
		assert.Equal(t, []interface{}{"0xf85607"}, rpc.args)
	})

	t.Run("send errors are wrapped", func(t *testing.T) {
		cause := errors.New("nonce too low")
		c := NewChainClient(&fakeBackend{}, &fakeRpc{err: cause}, time.Millisecond, testLogger(t))
		_, err := c.SendRawTransaction(ctx, []byte{0x01})
		require.ErrorIs(t, err, cause)
	})

	t.Run("waits through pending polls", func(t *testing.T) {
		backend := &fakeBackend{
			pendingPolls: 3,
			receipt:      &types.Receipt{Status: types.ReceiptStatusSuccessful, TxHash: txHash, BlockNumber: big.NewInt(10)},
		}
		c := NewChainClient(backend, &fakeRpc{hash: txHash}, time.Millisecond, testLogger(t))

		receipt, err := c.SendAndWait(ctx, []byte{0x01})
		require.NoError(t, err)
		assert.Equal(t, txHash, receipt.TxHash)
		assert.Equal(t, 4, backend.receiptQueries)
	})

	t.Run("reverted transactions fail", func(t *testing.T) {
		backend := &fakeBackend{receipt: &types.Receipt{Status: types.ReceiptStatusFailed, TxHash: txHash}}
		c := NewChainClient(backend, &fakeRpc{}, time.Millisecond, testLogger(t))

		receipt, err := c.WaitForReceipt(ctx, txHash)
		require.ErrorIs(t, err, ErrTransactionFailed)
		require.NotNil(t, receipt)
	})

	t.Run("stops at the context deadline", func(t *testing.T) {
		backend := &fakeBackend{receiptErr: errors.New("connection refused")}
		c := NewChainClient(backend, &fakeRpc{}, time.Millisecond, testLogger(t))

		cctx, cancel := context.WithTimeout(ctx, 20*time.Millisecond)
		defer cancel()
		_, err := c.WaitForReceipt(cctx, txHash)
		require.ErrorIs(t, err, context.DeadlineExceeded)
	})

	t.Run("chain id and nonce", func(t *testing.T) {
		c := NewChainClient(&fakeBackend{chainId: 1315, nonce: 7}, &fakeRpc{}, 0, testLogger(t))
		assert.Equal(t, DefaultReceiptInterval, c.receiptInterval)

		require.NoError(t, c.EnsureChainId(ctx, 1315))
		require.ErrorIs(t, c.EnsureChainId(ctx, 1), ErrChainIdMismatch)

		nonce, err := c.PendingNonce(ctx, common.Address{})
		require.NoError(t, err)
		assert.Equal(t, uint64(7), nonce)

		price, err := c.SuggestGasPrice(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(20_000_000_000), price.Int64())
	})
}

func Test_ContractAddress(t *testing.T) {
	_, err := ContractAddress(nil)
	require.ErrorIs(t, err, ErrNoContractAddress)
	_, err = ContractAddress(&types.Receipt{})
	require.ErrorIs(t, err, ErrNoContractAddress)

	addr := common.HexToAddress("0x1000000000000000000000000000000000000001")
	got, err := ContractAddress(&types.Receipt{ContractAddress: addr})
	require.NoError(t, err)
	assert.Equal(t, addr, got)
}

type rpcRequest struct {
	Id     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params []interface{}   `json:"params"`
}

// Test_ChainClientOverHttp runs the real ethclient against a canned JSON-RPC server.
func Test_ChainClientOverHttp(t *testing.T) {
	var sent []interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		var req rpcRequest
		require.NoError(t, json.Unmarshal(body, &req))

		var result interface{}
		switch req.Method {
		case "eth_chainId":
			result = hexutil.EncodeUint64(1315)
		case "eth_getTransactionCount":
			assert.Equal(t, "pending", req.Params[1])
			result = hexutil.EncodeUint64(9)
		case "eth_sendRawTransaction":
			sent = req.Params
			result = common.HexToHash("0x1234").Hex()
		default:
			t.Errorf("unexpected method %s", req.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.Id, "result": result})
	}))
	defer server.Close()

	ctx := context.Background()
	c, err := NewChainClientFromUrl(ctx, &ChainClientConfig{RpcUrl: server.URL}, testLogger(t))
	require.NoError(t, err)

	chainId, err := c.ChainId(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1315), chainId)

	nonce, err := c.PendingNonce(ctx, common.HexToAddress("0x2b5ad5c4795c026514f8317c7a215e218dccd6cf"))
	require.NoError(t, err)
	assert.Equal(t, uint64(9), nonce)

	hash, err := c.SendRawTransaction(ctx, []byte{0xde, 0xad})
	require.NoError(t, err)
	assert.Equal(t, common.HexToHash("0x1234"), hash)
	assert.Equal(t, []interface{}{"0xdead"}, sent)
}
