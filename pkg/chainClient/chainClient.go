// Package chainClient is the small slice of JSON-RPC the bridge needs to get a
// signed transaction on chain: nonce lookup, raw broadcast and receipts.
package chainClient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const DefaultReceiptInterval = time.Second

var (
	ErrTransactionFailed = errors.New("transaction failed")
	ErrNoContractAddress = errors.New("receipt has no contract address")
	ErrChainIdMismatch   = errors.New("rpc chain id does not match configuration")
)

type IChainClient interface {
	ChainId(ctx context.Context) (uint64, error)
	PendingNonce(ctx context.Context, address common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error)
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
	WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// EthBackend is the subset of *ethclient.Client the chain client reads from.
type EthBackend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// RpcCaller sends raw JSON-RPC requests.
type RpcCaller interface {
	CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error
}

type ChainClientConfig struct {
	RpcUrl          string
	ReceiptInterval time.Duration
}

type ChainClient struct {
	backend         EthBackend
	rpc             RpcCaller
	logger          *zap.Logger
	receiptInterval time.Duration
}

// NewChainClientFromUrl dials the RPC endpoint.
func NewChainClientFromUrl(ctx context.Context, cfg *ChainClientConfig, logger *zap.Logger) (*ChainClient, error) {
	client, err := ethclient.DialContext(ctx, cfg.RpcUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rpc %s: %w", cfg.RpcUrl, err)
	}
	return NewChainClient(client, client.Client(), cfg.ReceiptInterval, logger), nil
}

func NewChainClient(backend EthBackend, rpc RpcCaller, receiptInterval time.Duration, logger *zap.Logger) *ChainClient {
	if receiptInterval <= 0 {
		receiptInterval = DefaultReceiptInterval
	}
	return &ChainClient{
		backend:         backend,
		rpc:             rpc,
		logger:          logger,
		receiptInterval: receiptInterval,
	}
}

func (c *ChainClient) ChainId(ctx context.Context) (uint64, error) {
	chainId, err := c.backend.ChainID(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get chain ID: %w", err)
	}
	return chainId.Uint64(), nil
}

// EnsureChainId fails when the endpoint serves a different chain than expected.
func (c *ChainClient) EnsureChainId(ctx context.Context, expected uint64) error {
	actual, err := c.ChainId(ctx)
	if err != nil {
		return err
	}
	if actual != expected {
		return fmt.Errorf("%w: rpc reports %d, configured %d", ErrChainIdMismatch, actual, expected)
	}
	return nil
}

// PendingNonce returns the next nonce including transactions still in the mempool.
func (c *ChainClient) PendingNonce(ctx context.Context, address common.Address) (uint64, error) {
	nonce, err := c.backend.PendingNonceAt(ctx, address)
	if err != nil {
		return 0, fmt.Errorf("failed to get nonce for %s: %w", address.Hex(), err)
	}
	return nonce, nil
}

func (c *ChainClient) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	price, err := c.backend.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get gas price: %w", err)
	}
	return price, nil
}

// SendRawTransaction broadcasts raw through eth_sendRawTransaction, byte for byte.
func (c *ChainClient) SendRawTransaction(ctx context.Context, raw []byte) (common.Hash, error) {
	var hash common.Hash
	if err := c.rpc.CallContext(ctx, &hash, "eth_sendRawTransaction", hexutil.Encode(raw)); err != nil {
		return common.Hash{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	c.logger.Info("Transaction sent", zap.String("txHash", hash.Hex()))
	return hash, nil
}

// TransactionReceipt returns ethereum.NotFound while the transaction is pending.
func (c *ChainClient) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return c.backend.TransactionReceipt(ctx, hash)
}

// WaitForReceipt polls until the transaction is mined or ctx is done. A mined
// transaction with a status other than 1 returns ErrTransactionFailed along
// with the receipt.
func (c *ChainClient) WaitForReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	ticker := time.NewTicker(c.receiptInterval)
	defer ticker.Stop()

	for {
		receipt, err := c.backend.TransactionReceipt(ctx, hash)
		if err == nil && receipt != nil {
			return checkReceipt(receipt, c.logger)
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			c.logger.Sugar().Debugw("Receipt retrieval failed", "txHash", hash.Hex(), "error", err)
		} else {
			c.logger.Sugar().Debugw("Transaction not yet mined", "txHash", hash.Hex())
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to wait for receipt of %s: %w", hash.Hex(), ctx.Err())
		case <-ticker.C:
		}
	}
}

// SendAndWait broadcasts raw and waits for a successful receipt.
func (c *ChainClient) SendAndWait(ctx context.Context, raw []byte) (*types.Receipt, error) {
	hash, err := c.SendRawTransaction(ctx, raw)
	if err != nil {
		return nil, err
	}
	return c.WaitForReceipt(ctx, hash)
}

// ContractAddress returns the address a deployment receipt reports.
func ContractAddress(receipt *types.Receipt) (common.Address, error) {
	if receipt == nil || receipt.ContractAddress == (common.Address{}) {
		return common.Address{}, ErrNoContractAddress
	}
	return receipt.ContractAddress, nil
}

func checkReceipt(receipt *types.Receipt, logger *zap.Logger) (*types.Receipt, error) {
	blockNumber := uint64(0)
	if receipt.BlockNumber != nil {
		blockNumber = receipt.BlockNumber.Uint64()
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		logger.Error("Transaction failed",
			zap.String("txHash", receipt.TxHash.Hex()),
			zap.Uint64("status", receipt.Status),
			zap.Uint64("gasUsed", receipt.GasUsed),
		)
		return receipt, fmt.Errorf("%w: %s status %d", ErrTransactionFailed, receipt.TxHash.Hex(), receipt.Status)
	}
	logger.Info("Transaction succeeded",
		zap.String("txHash", receipt.TxHash.Hex()),
		zap.Uint64("gasUsed", receipt.GasUsed),
		zap.Uint64("blockNumber", blockNumber),
	)
	return receipt, nil
}
