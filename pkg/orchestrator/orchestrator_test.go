package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/bridge"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/chainClient"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/contracts"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/logger"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/remoteSigner/localSigner"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	chainId           = uint64(1315)
	testPrivateKeyHex = "fad9c8855b740a0b7ed4c221dbad0f33a83a49cad6b3fe8d5817ac83d38b6a19"
	ownerAddress      = "0x1111111111111111111111111111111111111111"
	strangerAddress   = "0x2222222222222222222222222222222222222222"
)

var (
	ipAssetRegistry = common.HexToAddress("0x77319B4031e6eF1250907aa00018B8B1c67a244b")
	workflows       = common.HexToAddress("0xbe39E1C756e921BD25DF86e7AAa31106d1eb0424")
	spgNft          = common.HexToAddress("0xc32A8a0FF3beDDDa58393d022aF433e78739FAbc")
	testIpId        = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

type sentTx struct {
	tx   *ethTypes.Transaction
	from common.Address
}

// fakeNode serves both halves of the chain client: reads through EthBackend
// and raw broadcasts through RpcCaller. Every accepted transaction is mined
// immediately using receiptFor.
type fakeNode struct {
	mu         sync.Mutex
	nonces     map[common.Address]uint64
	gasPrice   *big.Int
	receipts   map[common.Hash]*ethTypes.Receipt
	sent       []sentTx
	sendErr    error
	receiptFor func(tx *ethTypes.Transaction, from common.Address) *ethTypes.Receipt
}

func newFakeNode() *fakeNode {
	return &fakeNode{
		nonces:   make(map[common.Address]uint64),
		gasPrice: big.NewInt(1_000_000_000),
		receipts: make(map[common.Hash]*ethTypes.Receipt),
	}
}

func (n *fakeNode) ChainID(ctx context.Context) (*big.Int, error) {
	return new(big.Int).SetUint64(chainId), nil
}

func (n *fakeNode) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.nonces[account], nil
}

func (n *fakeNode) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return n.gasPrice, nil
}

func (n *fakeNode) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethTypes.Receipt, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	receipt, ok := n.receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

func (n *fakeNode) CallContext(ctx context.Context, result interface{}, method string, args ...interface{}) error {
	if method != "eth_sendRawTransaction" {
		return fmt.Errorf("unexpected method %s", method)
	}
	if n.sendErr != nil {
		return n.sendErr
	}
	raw, err := hexutil.Decode(args[0].(string))
	if err != nil {
		return err
	}
	tx := new(ethTypes.Transaction)
	if err := tx.UnmarshalBinary(raw); err != nil {
		return err
	}
	from, err := ethTypes.Sender(ethTypes.NewEIP155Signer(new(big.Int).SetUint64(chainId)), tx)
	if err != nil {
		return err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if tx.Nonce() != n.nonces[from] {
		return fmt.Errorf("nonce too low: have %d, want %d", tx.Nonce(), n.nonces[from])
	}
	n.nonces[from]++
	n.sent = append(n.sent, sentTx{tx: tx, from: from})

	receipt := &ethTypes.Receipt{Status: ethTypes.ReceiptStatusSuccessful}
	if n.receiptFor != nil {
		receipt = n.receiptFor(tx, from)
	}
	receipt.TxHash = tx.Hash()
	receipt.BlockNumber = big.NewInt(int64(100 + len(n.sent)))
	n.receipts[tx.Hash()] = receipt

	*result.(*common.Hash) = tx.Hash()
	return nil
}

func (n *fakeNode) lastSent(t *testing.T) sentTx {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.sent)
	return n.sent[len(n.sent)-1]
}

// storyReceipts mines deployments, mints and registrations the way the
// Story contracts would report them.
func storyReceipts(t *testing.T) func(tx *ethTypes.Transaction, from common.Address) *ethTypes.Receipt {
	registryAbi, err := contracts.IPAssetRegistryMetaData.GetAbi()
	require.NoError(t, err)
	registered := registryAbi.Events["IPRegistered"]

	return func(tx *ethTypes.Transaction, from common.Address) *ethTypes.Receipt {
		receipt := &ethTypes.Receipt{Status: ethTypes.ReceiptStatusSuccessful}
		switch {
		case tx.To() == nil:
			receipt.ContractAddress = crypto.CreateAddress(from, tx.Nonce())
		case *tx.To() == ipAssetRegistry || *tx.To() == workflows:
			tokenContract := spgNft
			if *tx.To() == ipAssetRegistry {
				tokenContract = common.BytesToAddress(tx.Data()[4+32 : 4+64])
			}
			data, err := registered.Inputs.NonIndexed().Pack(testIpId, "nft", "ipfs://x", big.NewInt(1700000000))
			require.NoError(t, err)
			receipt.Logs = []*ethTypes.Log{{
				Address: ipAssetRegistry,
				Topics: []common.Hash{
					registered.ID,
					common.BigToHash(new(big.Int).SetUint64(chainId)),
					common.BytesToHash(tokenContract.Bytes()),
					common.BigToHash(big.NewInt(9)),
				},
				Data: data,
			}}
		default:
			receipt.Logs = []*ethTypes.Log{{
				Address: *tx.To(),
				Topics: []common.Hash{
					contracts.NFTMintedEventId(),
					common.BytesToHash(from.Bytes()),
					common.BigToHash(big.NewInt(42)),
				},
			}}
		}
		return receipt
	}
}

type capturingProofLogger struct {
	mu     sync.Mutex
	proofs []*ProofOfGeneration
	err    error
}

func (c *capturingProofLogger) LogProof(ctx context.Context, proof *ProofOfGeneration) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	c.proofs = append(c.proofs, proof)
	return fmt.Sprintf("proof-%d", len(c.proofs)), nil
}

type harness struct {
	orchestrator *Orchestrator
	node         *fakeNode
	store        *memory.MemoryPersistence
	bridge       *bridge.Bridge
	proofs       *capturingProofLogger
	address      common.Address
}

func testLogger(t *testing.T) *zap.Logger {
	t.Helper()
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.NoError(t, err)
	return l
}

func newBridge(t *testing.T, l *zap.Logger, id uint64) *bridge.Bridge {
	t.Helper()
	keys := localSigner.NewLocalKeyStore(l)
	require.NoError(t, keys.LoadPrivateKeyFromHex("bridge-key", testPrivateKeyHex, "bridge"))
	return bridge.NewBridge(keys.Signer("bridge-key"), id, nil, l)
}

func defaultConfig() *OrchestratorConfig {
	return &OrchestratorConfig{
		Owner: ownerAddress,
		Runtime: RuntimeConfig{
			GasPrice:              20_000_000_000,
			GasLimit:              3_000_000,
			IpAssetRegistry:       ipAssetRegistry,
			RegistrationWorkflows: workflows,
			SpgNftContract:        spgNft,
		},
	}
}

func setup(t *testing.T, cfg *OrchestratorConfig) *harness {
	t.Helper()
	l := testLogger(t)

	node := newFakeNode()
	node.receiptFor = storyReceipts(t)
	chain := chainClient.NewChainClient(node, node, time.Millisecond, l)

	b := newBridge(t, l, chainId)
	address, err := b.GetAddress(context.Background())
	require.NoError(t, err)

	store := memory.NewMemoryPersistence()
	proofs := &capturingProofLogger{}

	o, err := NewOrchestrator(cfg, b, chain, store, proofs, l)
	require.NoError(t, err)

	return &harness{orchestrator: o, node: node, store: store, bridge: b, proofs: proofs, address: address}
}

func Test_NewOrchestrator(t *testing.T) {
	t.Run("Should seed state from config on first run", func(t *testing.T) {
		h := setup(t, defaultConfig())

		state := h.orchestrator.State()
		assert.Equal(t, ownerAddress, state.Owner)
		assert.Equal(t, chainId, state.ChainId)
		assert.Empty(t, state.NftContract)
		assert.False(t, state.HasNonce)

		saved, err := h.store.LoadBridgeState()
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, ownerAddress, saved.Owner)
	})

	t.Run("Should restore persisted state over config", func(t *testing.T) {
		l := testLogger(t)
		store := memory.NewMemoryPersistence()
		require.NoError(t, store.SaveBridgeState(&persistence.BridgeState{
			Owner:       strangerAddress,
			NftContract: "0x1000000000000000000000000000000000000001",
			LastNonce:   12,
			HasNonce:    true,
			ChainId:     chainId,
		}))

		node := newFakeNode()
		o, err := NewOrchestrator(defaultConfig(), newBridge(t, l, chainId), chainClient.NewChainClient(node, node, time.Millisecond, l), store, nil, l)
		require.NoError(t, err)

		assert.Equal(t, strangerAddress, o.Owner())
		addr, ok := o.NftContract()
		assert.True(t, ok)
		assert.Equal(t, common.HexToAddress("0x1000000000000000000000000000000000000001"), addr)
		assert.Equal(t, uint64(12), o.State().LastNonce)
	})

	t.Run("Should refuse state from another chain", func(t *testing.T) {
		l := testLogger(t)
		store := memory.NewMemoryPersistence()
		require.NoError(t, store.SaveBridgeState(&persistence.BridgeState{ChainId: 1}))

		node := newFakeNode()
		_, err := NewOrchestrator(defaultConfig(), newBridge(t, l, chainId), chainClient.NewChainClient(node, node, time.Millisecond, l), store, nil, l)
		require.ErrorIs(t, err, ErrStateChainMismatch)
	})

	t.Run("Should reject a nil config", func(t *testing.T) {
		l := testLogger(t)
		node := newFakeNode()
		_, err := NewOrchestrator(nil, newBridge(t, l, chainId), chainClient.NewChainClient(node, node, time.Millisecond, l), memory.NewMemoryPersistence(), nil, l)
		require.Error(t, err)
	})
}

func Test_Ownership(t *testing.T) {
	t.Run("Should only let the owner change the owner", func(t *testing.T) {
		h := setup(t, defaultConfig())
		o := h.orchestrator

		err := o.SetOwner(strangerAddress, strangerAddress)
		require.ErrorIs(t, err, ErrUnauthorized)
		assert.Equal(t, ownerAddress, o.Owner())

		require.NoError(t, o.SetOwner("0x1111111111111111111111111111111111111111", strangerAddress))
		assert.Equal(t, strangerAddress, o.Owner())
		assert.True(t, o.IsOwner("0x2222222222222222222222222222222222222222"))
		assert.False(t, o.IsOwner(ownerAddress))

		saved, err := h.store.LoadBridgeState()
		require.NoError(t, err)
		assert.Equal(t, strangerAddress, saved.Owner)
	})

	t.Run("Should let anyone claim an unset owner", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Owner = ""
		h := setup(t, cfg)

		require.NoError(t, h.orchestrator.SetOwner(strangerAddress, strangerAddress))
		assert.Equal(t, strangerAddress, h.orchestrator.Owner())
		require.ErrorIs(t, h.orchestrator.SetOwner(ownerAddress, ownerAddress), ErrUnauthorized)
	})

	t.Run("Should reject an invalid new owner", func(t *testing.T) {
		h := setup(t, defaultConfig())
		require.Error(t, h.orchestrator.SetOwner(ownerAddress, "nope"))
	})

	t.Run("Should gate configuration updates", func(t *testing.T) {
		h := setup(t, defaultConfig())
		o := h.orchestrator

		updated := defaultConfig().Runtime
		updated.GasPrice = 0
		updated.GasLimit = 500_000

		require.ErrorIs(t, o.UpdateConfig(strangerAddress, updated), ErrUnauthorized)
		require.Error(t, o.UpdateConfig(ownerAddress, RuntimeConfig{}))
		require.NoError(t, o.UpdateConfig(ownerAddress, updated))
		assert.Equal(t, uint64(500_000), o.RuntimeConfig().GasLimit)
	})

	t.Run("Should gate setting the nft contract", func(t *testing.T) {
		h := setup(t, defaultConfig())
		o := h.orchestrator

		_, ok := o.NftContract()
		assert.False(t, ok)

		require.ErrorIs(t, o.SetNftContract(strangerAddress, spgNft.Hex()), ErrUnauthorized)
		require.Error(t, o.SetNftContract(ownerAddress, "0x1234"))
		require.NoError(t, o.SetNftContract(ownerAddress, spgNft.Hex()))

		addr, ok := o.NftContract()
		assert.True(t, ok)
		assert.Equal(t, spgNft, addr)
	})
}

func Test_DeployNFT(t *testing.T) {
	t.Run("Should deploy with the chain nonce and remember the address", func(t *testing.T) {
		h := setup(t, defaultConfig())
		h.node.nonces[h.address] = 5
		ctx := context.Background()

		result, err := h.orchestrator.DeployNFT(ctx, []byte{0x60, 0x80, 0x60, 0x40}, "Bridge", "BRG")
		require.NoError(t, err)

		sent := h.node.lastSent(t)
		assert.Nil(t, sent.tx.To())
		assert.Equal(t, h.address, sent.from)
		assert.Equal(t, uint64(5), sent.tx.Nonce())
		assert.Equal(t, uint64(20_000_000_000), sent.tx.GasPrice().Uint64())
		assert.Equal(t, uint64(3_000_000), sent.tx.Gas())
		assert.Equal(t, []byte{0x60, 0x80, 0x60, 0x40}, sent.tx.Data()[:4])

		expected := crypto.CreateAddress(h.address, 5)
		assert.Equal(t, expected, result.Address)
		assert.Equal(t, sent.tx.Hash(), result.TxHash)

		addr, ok := h.orchestrator.NftContract()
		assert.True(t, ok)
		assert.Equal(t, expected, addr)

		state := h.orchestrator.State()
		assert.True(t, state.HasNonce)
		assert.Equal(t, uint64(5), state.LastNonce)

		record, err := h.store.LoadTransaction(result.TxHash.Hex())
		require.NoError(t, err)
		require.NotNil(t, record)
		assert.Equal(t, persistence.TransactionKindDeployNft, record.Kind)
		assert.Equal(t, persistence.TransactionStatusConfirmed, record.Status)
		assert.Equal(t, strings.ToLower(expected.Hex()), record.ContractAddress)
		assert.Equal(t, uint64(101), record.BlockNumber)
	})

	t.Run("Should refuse to deploy twice", func(t *testing.T) {
		h := setup(t, defaultConfig())
		ctx := context.Background()

		_, err := h.orchestrator.DeployNFT(ctx, []byte{0x60}, "Bridge", "BRG")
		require.NoError(t, err)

		_, err = h.orchestrator.DeployNFT(ctx, []byte{0x60}, "Bridge", "BRG")
		require.ErrorIs(t, err, ErrNftAlreadyDeployed)
		assert.Len(t, h.node.sent, 1)
	})

	t.Run("Should reject empty bytecode before signing", func(t *testing.T) {
		h := setup(t, defaultConfig())
		_, err := h.orchestrator.DeployNFT(context.Background(), nil, "Bridge", "BRG")
		require.ErrorIs(t, err, contracts.ErrEmptyBytecode)
		assert.Empty(t, h.node.sent)
	})
}

func Test_MintNFT(t *testing.T) {
	t.Run("Should require an nft contract", func(t *testing.T) {
		h := setup(t, defaultConfig())
		_, err := h.orchestrator.MintNFT(context.Background(), "QmHash", "ipfs://meta")
		require.ErrorIs(t, err, ErrNftContractNotSet)
	})

	t.Run("Should mint to the bridge address and read the token id", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.NftContract = "0x1000000000000000000000000000000000000001"
		h := setup(t, cfg)

		result, err := h.orchestrator.MintNFT(context.Background(), "QmHash", "ipfs://meta")
		require.NoError(t, err)
		assert.Equal(t, int64(42), result.TokenId.Int64())

		sent := h.node.lastSent(t)
		require.NotNil(t, sent.tx.To())
		assert.Equal(t, common.HexToAddress(cfg.NftContract), *sent.tx.To())

		expectedData, err := contracts.EncodeMint(h.address, "QmHash", "ipfs://meta")
		require.NoError(t, err)
		assert.Equal(t, expectedData, sent.tx.Data())

		record, err := h.store.LoadTransaction(result.TxHash.Hex())
		require.NoError(t, err)
		assert.Equal(t, "42", record.TokenId)
	})

	t.Run("Should ask the node for gas price when none is configured", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Runtime.GasPrice = 0
		cfg.NftContract = "0x1000000000000000000000000000000000000001"
		h := setup(t, cfg)

		_, err := h.orchestrator.MintNFT(context.Background(), "QmHash", "ipfs://meta")
		require.NoError(t, err)
		assert.Equal(t, int64(1_000_000_000), h.node.lastSent(t).tx.GasPrice().Int64())
	})

	t.Run("Should use distinct nonces under concurrency", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.NftContract = "0x1000000000000000000000000000000000000001"
		h := setup(t, cfg)

		var wg sync.WaitGroup
		errs := make(chan error, 5)
		for i := 0; i < 5; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				_, err := h.orchestrator.MintNFT(context.Background(), fmt.Sprintf("Qm%d", n), "ipfs://meta")
				errs <- err
			}(i)
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			require.NoError(t, err)
		}

		records, err := h.orchestrator.Transactions()
		require.NoError(t, err)
		require.Len(t, records, 5)
		for i, record := range records {
			assert.Equal(t, uint64(i), record.Nonce)
		}
	})
}

func Test_RegisterIP(t *testing.T) {
	t.Run("Should register a token and log a proof", func(t *testing.T) {
		h := setup(t, defaultConfig())
		nft := common.HexToAddress("0x1000000000000000000000000000000000000001")

		result, err := h.orchestrator.RegisterIP(context.Background(), nft, big.NewInt(9))
		require.NoError(t, err)
		assert.Equal(t, testIpId, result.IpId)
		assert.Equal(t, nft, result.TokenContract)
		assert.Equal(t, "proof-1", result.ProofRef)

		sent := h.node.lastSent(t)
		assert.Equal(t, ipAssetRegistry, *sent.tx.To())
		expectedData, err := contracts.EncodeRegister(chainId, nft, big.NewInt(9))
		require.NoError(t, err)
		assert.Equal(t, expectedData, sent.tx.Data())

		require.Len(t, h.proofs.proofs, 1)
		proof := h.proofs.proofs[0]
		assert.Equal(t, strings.ToLower(testIpId.Hex()), proof.IpId)
		assert.Equal(t, "9", proof.TokenId)
		assert.Equal(t, strings.ToLower(h.address.Hex()), proof.GeneratorAddress)

		record, err := h.store.LoadTransaction(result.TxHash.Hex())
		require.NoError(t, err)
		assert.Equal(t, persistence.TransactionKindRegisterIp, record.Kind)
		assert.Equal(t, strings.ToLower(testIpId.Hex()), record.IpId)
	})

	t.Run("Should require the registry address", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.Runtime.IpAssetRegistry = common.Address{}
		h := setup(t, cfg)

		_, err := h.orchestrator.RegisterIP(context.Background(), spgNft, big.NewInt(1))
		require.ErrorIs(t, err, ErrContractNotConfigured)
	})

	t.Run("Should succeed when proof logging fails", func(t *testing.T) {
		h := setup(t, defaultConfig())
		h.proofs.err = errors.New("ledger offline")

		result, err := h.orchestrator.RegisterIP(context.Background(), spgNft, big.NewInt(1))
		require.NoError(t, err)
		assert.Empty(t, result.ProofRef)
		assert.Equal(t, testIpId, result.IpId)
	})

	t.Run("Should mint and register through the workflow contract", func(t *testing.T) {
		h := setup(t, defaultConfig())

		result, err := h.orchestrator.MintAndRegisterIp(context.Background(), "QmHash", "ipfs://meta")
		require.NoError(t, err)
		assert.Equal(t, testIpId, result.IpId)
		assert.Equal(t, spgNft, result.TokenContract)
		assert.Equal(t, int64(9), result.TokenId.Int64())

		sent := h.node.lastSent(t)
		assert.Equal(t, workflows, *sent.tx.To())
		expectedData, err := contracts.EncodeMintAndRegisterIp(spgNft, h.address, contracts.NewIPMetadata("ipfs://meta"))
		require.NoError(t, err)
		assert.Equal(t, expectedData, sent.tx.Data())

		require.Len(t, h.proofs.proofs, 1)
		assert.Equal(t, "QmHash", h.proofs.proofs[0].ContentHash)
	})
}

func Test_SubmitFailures(t *testing.T) {
	t.Run("Should journal a reverted transaction as failed", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.NftContract = "0x1000000000000000000000000000000000000001"
		h := setup(t, cfg)
		h.node.receiptFor = func(tx *ethTypes.Transaction, from common.Address) *ethTypes.Receipt {
			return &ethTypes.Receipt{Status: ethTypes.ReceiptStatusFailed}
		}

		_, err := h.orchestrator.MintNFT(context.Background(), "QmHash", "ipfs://meta")
		require.ErrorIs(t, err, ErrTransactionFailed)

		records, err := h.orchestrator.Transactions()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, persistence.TransactionStatusFailed, records[0].Status)
		assert.NotEmpty(t, records[0].Error)
		assert.Equal(t, uint64(101), records[0].BlockNumber)
	})

	t.Run("Should journal a rejected broadcast as failed", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.NftContract = "0x1000000000000000000000000000000000000001"
		h := setup(t, cfg)
		h.node.sendErr = errors.New("insufficient funds for gas * price + value")

		_, err := h.orchestrator.MintNFT(context.Background(), "QmHash", "ipfs://meta")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "insufficient funds")

		records, err := h.orchestrator.Transactions()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, persistence.TransactionStatusFailed, records[0].Status)
		assert.False(t, h.orchestrator.State().HasNonce)
	})

	t.Run("Should leave a transaction pending when the wait is cancelled", func(t *testing.T) {
		cfg := defaultConfig()
		cfg.NftContract = "0x1000000000000000000000000000000000000001"
		h := setup(t, cfg)

		hidden := &hidingNode{fakeNode: h.node}
		h.orchestrator.chain = chainClient.NewChainClient(hidden, hidden, time.Millisecond, testLogger(t))

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := h.orchestrator.MintNFT(ctx, "QmHash", "ipfs://meta")
		require.ErrorIs(t, err, context.DeadlineExceeded)

		records, err := h.orchestrator.Transactions()
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, persistence.TransactionStatusPending, records[0].Status)
		assert.True(t, h.orchestrator.State().HasNonce)
	})
}

// hidingNode never reports a receipt.
type hidingNode struct {
	*fakeNode
}

func (h *hidingNode) TransactionReceipt(ctx context.Context, hash common.Hash) (*ethTypes.Receipt, error) {
	return nil, ethereum.NotFound
}

func Test_ZapProofLogger(t *testing.T) {
	pl := NewZapProofLogger(testLogger(t))

	ref, err := pl.LogProof(context.Background(), &ProofOfGeneration{ContentHash: "QmHash"})
	require.NoError(t, err)
	assert.Contains(t, ref, "proof-")

	_, err = pl.LogProof(context.Background(), nil)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = pl.LogProof(ctx, &ProofOfGeneration{})
	require.ErrorIs(t, err, context.Canceled)

	ref, err = NoopProofLogger{}.LogProof(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ref)
}
