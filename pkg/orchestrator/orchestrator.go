// Package orchestrator runs the bridge's on-chain flows: deploying the NFT
// collection, minting into it and registering tokens as Story IP assets.
// Every flow reads the pending nonce from the chain, signs through the
// bridge, broadcasts, waits for the receipt and journals the outcome.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/bridge"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/chainClient"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/contracts"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/evmKey"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/txCodec"
	"github.com/ethereum/go-ethereum/common"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"go.uber.org/zap"
)

var (
	ErrUnauthorized          = errors.New("caller is not the owner")
	ErrNftAlreadyDeployed    = errors.New("nft contract already deployed")
	ErrNftContractNotSet     = errors.New("nft contract address not set")
	ErrContractNotConfigured = errors.New("contract address not configured")
	ErrStateChainMismatch    = errors.New("persisted state belongs to a different chain")
	ErrTransactionFailed     = chainClient.ErrTransactionFailed
)

// ITransactionSigner is the part of the bridge the orchestrator drives.
type ITransactionSigner interface {
	ChainId() uint64
	GetAddress(ctx context.Context) (common.Address, error)
	SignTransaction(ctx context.Context, fields *txCodec.TransactionFields) (*bridge.SignedTransaction, error)
}

// RuntimeConfig is the owner-adjustable part of the configuration.
type RuntimeConfig struct {
	// GasPrice in wei; zero asks the node for a suggestion on every send.
	GasPrice uint64
	GasLimit uint64

	IpAssetRegistry       common.Address
	RegistrationWorkflows common.Address
	SpgNftContract        common.Address
}

type OrchestratorConfig struct {
	Runtime RuntimeConfig
	// Owner seeds the owner when no state has been persisted yet.
	Owner string
	// NftContract seeds the NFT contract when no state has been persisted yet.
	NftContract string
}

type DeployResult struct {
	Address common.Address
	TxHash  common.Hash
}

type MintResult struct {
	NftContract common.Address
	TokenId     *big.Int
	TxHash      common.Hash
}

type RegisterResult struct {
	IpId          common.Address
	TokenContract common.Address
	TokenId       *big.Int
	TxHash        common.Hash
	ProofRef      string
}

type Orchestrator struct {
	logger      *zap.Logger
	signer      ITransactionSigner
	chain       chainClient.IChainClient
	store       persistence.IBridgePersistence
	proofLogger IProofLogger

	// submitMu serializes transaction submission so nonces are never reused.
	submitMu sync.Mutex

	mu      sync.RWMutex
	runtime RuntimeConfig
	state   persistence.BridgeState
}

// NewOrchestrator restores persisted state, or seeds it from cfg on first run.
func NewOrchestrator(
	cfg *OrchestratorConfig,
	signer ITransactionSigner,
	chain chainClient.IChainClient,
	store persistence.IBridgePersistence,
	proofLogger IProofLogger,
	logger *zap.Logger,
) (*Orchestrator, error) {
	if cfg == nil {
		return nil, fmt.Errorf("orchestrator config cannot be nil")
	}
	if proofLogger == nil {
		proofLogger = NoopProofLogger{}
	}

	o := &Orchestrator{
		logger:      logger,
		signer:      signer,
		chain:       chain,
		store:       store,
		proofLogger: proofLogger,
		runtime:     cfg.Runtime,
	}

	saved, err := store.LoadBridgeState()
	if err != nil {
		return nil, fmt.Errorf("failed to load bridge state: %w", err)
	}

	if saved == nil {
		o.state = persistence.BridgeState{
			Owner:       normalizeAddress(cfg.Owner),
			NftContract: normalizeAddress(cfg.NftContract),
			ChainId:     signer.ChainId(),
		}
		if err := o.persistState(); err != nil {
			return nil, err
		}
		logger.Sugar().Infow("Initialized bridge state", "chainId", o.state.ChainId, "owner", o.state.Owner)
		return o, nil
	}

	if saved.ChainId != signer.ChainId() {
		return nil, fmt.Errorf("%w: state has %d, signer has %d", ErrStateChainMismatch, saved.ChainId, signer.ChainId())
	}
	o.state = *saved
	logger.Sugar().Infow("Restored bridge state",
		"chainId", o.state.ChainId,
		"owner", o.state.Owner,
		"nftContract", o.state.NftContract,
		"lastNonce", o.state.LastNonce,
	)
	return o, nil
}

func normalizeAddress(addr string) string {
	if addr == "" {
		return ""
	}
	return evmKey.AddressString(common.HexToAddress(addr))
}

// persistState must be called with mu held for writing, or before o is shared.
func (o *Orchestrator) persistState() error {
	o.state.UpdatedAt = time.Now().Unix()
	snapshot := o.state
	if err := o.store.SaveBridgeState(&snapshot); err != nil {
		return fmt.Errorf("failed to save bridge state: %w", err)
	}
	return nil
}

// State returns a copy of the current bridge state.
func (o *Orchestrator) State() persistence.BridgeState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

func (o *Orchestrator) Owner() string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.Owner
}

// checkOwner must be called with mu held. An unset owner can be claimed by anyone.
func (o *Orchestrator) checkOwner(caller string) error {
	if o.state.Owner == "" {
		return nil
	}
	if normalizeAddress(caller) != o.state.Owner {
		return fmt.Errorf("%w: %s", ErrUnauthorized, caller)
	}
	return nil
}

// SetOwner transfers ownership. Only the current owner may call it.
func (o *Orchestrator) SetOwner(caller string, newOwner string) error {
	if !common.IsHexAddress(newOwner) {
		return fmt.Errorf("invalid owner address: %s", newOwner)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkOwner(caller); err != nil {
		return err
	}
	previous := o.state.Owner
	o.state.Owner = normalizeAddress(newOwner)
	if err := o.persistState(); err != nil {
		o.state.Owner = previous
		return err
	}
	o.logger.Sugar().Infow("Owner updated", "previous", previous, "owner", o.state.Owner)
	return nil
}

// UpdateConfig replaces the runtime configuration. Only the owner may call it.
func (o *Orchestrator) UpdateConfig(caller string, runtime RuntimeConfig) error {
	if runtime.GasLimit == 0 {
		return fmt.Errorf("gas limit must be greater than zero")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkOwner(caller); err != nil {
		return err
	}
	o.runtime = runtime
	o.logger.Sugar().Infow("Configuration updated by owner",
		"gasPrice", runtime.GasPrice,
		"gasLimit", runtime.GasLimit,
	)
	return nil
}

func (o *Orchestrator) RuntimeConfig() RuntimeConfig {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.runtime
}

// SetNftContract points the bridge at an existing collection. Only the owner may call it.
func (o *Orchestrator) SetNftContract(caller string, address string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("invalid nft contract address: %s", address)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err := o.checkOwner(caller); err != nil {
		return err
	}
	previous := o.state.NftContract
	o.state.NftContract = normalizeAddress(address)
	if err := o.persistState(); err != nil {
		o.state.NftContract = previous
		return err
	}
	return nil
}

// NftContract returns the collection address, or false when none is set.
func (o *Orchestrator) NftContract() (common.Address, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()
	if o.state.NftContract == "" {
		return common.Address{}, false
	}
	return common.HexToAddress(o.state.NftContract), true
}

// DeployNFT deploys the collection from its init code and remembers its address.
func (o *Orchestrator) DeployNFT(ctx context.Context, bytecode []byte, name string, symbol string) (*DeployResult, error) {
	o.submitMu.Lock()
	defer o.submitMu.Unlock()

	if existing, ok := o.NftContract(); ok {
		return nil, fmt.Errorf("%w at %s", ErrNftAlreadyDeployed, existing.Hex())
	}

	data, err := contracts.EncodeNFTDeployment(bytecode, name, symbol)
	if err != nil {
		return nil, err
	}

	receipt, record, err := o.submit(ctx, persistence.TransactionKindDeployNft, nil, data)
	if err != nil {
		return nil, err
	}

	address, err := chainClient.ContractAddress(receipt)
	if err != nil {
		return nil, err
	}

	record.ContractAddress = evmKey.AddressString(address)
	o.journal(record)

	o.mu.Lock()
	o.state.NftContract = evmKey.AddressString(address)
	err = o.persistState()
	o.mu.Unlock()
	if err != nil {
		return nil, err
	}

	o.logger.Sugar().Infow("NFT contract deployed", "address", address.Hex(), "txHash", receipt.TxHash.Hex())
	return &DeployResult{Address: address, TxHash: receipt.TxHash}, nil
}

// MintNFT mints a token to the bridge's own address and returns its id.
func (o *Orchestrator) MintNFT(ctx context.Context, contentHash string, metadataURI string) (*MintResult, error) {
	o.submitMu.Lock()
	defer o.submitMu.Unlock()

	nftContract, ok := o.NftContract()
	if !ok {
		return nil, ErrNftContractNotSet
	}

	from, err := o.signer.GetAddress(ctx)
	if err != nil {
		return nil, err
	}
	data, err := contracts.EncodeMint(from, contentHash, metadataURI)
	if err != nil {
		return nil, err
	}

	receipt, record, err := o.submit(ctx, persistence.TransactionKindMintNft, &nftContract, data)
	if err != nil {
		return nil, err
	}

	tokenId, err := contracts.TokenIdFromReceipt(receipt, nftContract)
	if err != nil {
		return nil, err
	}
	record.TokenId = tokenId.String()
	o.journal(record)

	o.logger.Sugar().Infow("NFT minted", "contract", nftContract.Hex(), "tokenId", tokenId.String(), "txHash", receipt.TxHash.Hex())
	return &MintResult{NftContract: nftContract, TokenId: tokenId, TxHash: receipt.TxHash}, nil
}

// RegisterIP registers an existing token as an IP asset.
func (o *Orchestrator) RegisterIP(ctx context.Context, nftContract common.Address, tokenId *big.Int) (*RegisterResult, error) {
	o.submitMu.Lock()
	defer o.submitMu.Unlock()

	registry := o.RuntimeConfig().IpAssetRegistry
	if registry == (common.Address{}) {
		return nil, fmt.Errorf("%w: IPAssetRegistry", ErrContractNotConfigured)
	}

	data, err := contracts.EncodeRegister(o.signer.ChainId(), nftContract, tokenId)
	if err != nil {
		return nil, err
	}

	receipt, record, err := o.submit(ctx, persistence.TransactionKindRegisterIp, &registry, data)
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{TokenContract: nftContract, TokenId: tokenId, TxHash: receipt.TxHash}
	o.completeRegistration(ctx, receipt, record, result, "", "")
	return result, nil
}

// MintAndRegisterIp mints into the SPG collection and registers the token in
// one RegistrationWorkflows call.
func (o *Orchestrator) MintAndRegisterIp(ctx context.Context, contentHash string, metadataURI string) (*RegisterResult, error) {
	o.submitMu.Lock()
	defer o.submitMu.Unlock()

	runtime := o.RuntimeConfig()
	if runtime.RegistrationWorkflows == (common.Address{}) {
		return nil, fmt.Errorf("%w: RegistrationWorkflows", ErrContractNotConfigured)
	}
	if runtime.SpgNftContract == (common.Address{}) {
		return nil, fmt.Errorf("%w: SPG NFT contract", ErrContractNotConfigured)
	}

	recipient, err := o.signer.GetAddress(ctx)
	if err != nil {
		return nil, err
	}
	data, err := contracts.EncodeMintAndRegisterIp(runtime.SpgNftContract, recipient, contracts.NewIPMetadata(metadataURI))
	if err != nil {
		return nil, err
	}

	receipt, record, err := o.submit(ctx, persistence.TransactionKindRegisterIp, &runtime.RegistrationWorkflows, data)
	if err != nil {
		return nil, err
	}

	result := &RegisterResult{TokenContract: runtime.SpgNftContract, TxHash: receipt.TxHash}
	o.completeRegistration(ctx, receipt, record, result, contentHash, metadataURI)
	return result, nil
}

// completeRegistration decodes the registration event, journals it and logs
// the proof. A missing event leaves IpId zero: the transaction itself succeeded.
func (o *Orchestrator) completeRegistration(
	ctx context.Context,
	receipt *ethTypes.Receipt,
	record *persistence.TransactionRecord,
	result *RegisterResult,
	contentHash string,
	metadataURI string,
) {
	registration, err := contracts.ParseIPRegistered(receipt)
	if err != nil {
		o.logger.Sugar().Warnw("Registration event not found in receipt", "txHash", receipt.TxHash.Hex(), "error", err)
	} else {
		result.IpId = registration.IpId
		result.TokenContract = registration.TokenContract
		result.TokenId = registration.TokenId
		record.IpId = evmKey.AddressString(registration.IpId)
		record.TokenId = registration.TokenId.String()
		o.journal(record)
	}

	proof := &ProofOfGeneration{
		ContentHash:      contentHash,
		MetadataURI:      metadataURI,
		Timestamp:        time.Now().Unix(),
		IpId:             evmKey.AddressString(result.IpId),
		NftContract:      evmKey.AddressString(result.TokenContract),
		TxHash:           receipt.TxHash.Hex(),
		GeneratorAddress: record.From,
	}
	if result.TokenId != nil {
		proof.TokenId = result.TokenId.String()
	}

	ref, err := o.proofLogger.LogProof(ctx, proof)
	if err != nil {
		o.logger.Sugar().Warnw("Proof logging failed (non-critical)", "txHash", receipt.TxHash.Hex(), "error", err)
		return
	}
	result.ProofRef = ref

	o.logger.Sugar().Infow("IP registered",
		"ipId", result.IpId.Hex(),
		"tokenContract", result.TokenContract.Hex(),
		"txHash", receipt.TxHash.Hex(),
	)
}

func (o *Orchestrator) gasPrice(ctx context.Context, configured uint64) (uint64, error) {
	if configured != 0 {
		return configured, nil
	}
	suggested, err := o.chain.SuggestGasPrice(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get gas price: %w", err)
	}
	if !suggested.IsUint64() {
		return 0, fmt.Errorf("suggested gas price %s does not fit in 64 bits", suggested)
	}
	return suggested.Uint64(), nil
}

// submit signs and broadcasts one transaction and waits for its receipt. The
// nonce always comes from the chain's pending count, never from the cached
// state. Must be called with submitMu held.
func (o *Orchestrator) submit(
	ctx context.Context,
	kind persistence.TransactionKind,
	to *common.Address,
	data []byte,
) (*ethTypes.Receipt, *persistence.TransactionRecord, error) {
	runtime := o.RuntimeConfig()

	from, err := o.signer.GetAddress(ctx)
	if err != nil {
		return nil, nil, err
	}
	nonce, err := o.chain.PendingNonce(ctx, from)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get nonce: %w", err)
	}
	gasPrice, err := o.gasPrice(ctx, runtime.GasPrice)
	if err != nil {
		return nil, nil, err
	}

	var fields *txCodec.TransactionFields
	if to == nil {
		fields = txCodec.NewCreationFields(nonce, gasPrice, runtime.GasLimit, 0, data)
	} else {
		fields = txCodec.NewCallFields(nonce, gasPrice, runtime.GasLimit, *to, 0, data)
	}

	signed, err := o.signer.SignTransaction(ctx, fields)
	if err != nil {
		return nil, nil, err
	}

	now := time.Now().Unix()
	record := &persistence.TransactionRecord{
		Hash:      signed.Hash.Hex(),
		Kind:      kind,
		Status:    persistence.TransactionStatusPending,
		Nonce:     nonce,
		From:      evmKey.AddressString(from),
		ChainId:   o.signer.ChainId(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if to != nil {
		record.To = evmKey.AddressString(*to)
	}
	o.journal(record)

	o.logger.Sugar().Infow("Broadcasting transaction",
		"kind", kind,
		"hash", record.Hash,
		"nonce", nonce,
		"gasPrice", gasPrice,
		"gasLimit", runtime.GasLimit,
	)

	hash, err := o.chain.SendRawTransaction(ctx, signed.Raw)
	if err != nil {
		o.fail(record, err)
		return nil, nil, fmt.Errorf("failed to broadcast transaction: %w", err)
	}
	if hash != signed.Hash {
		o.logger.Sugar().Warnw("Node returned unexpected transaction hash", "expected", signed.Hash.Hex(), "got", hash.Hex())
	}

	o.mu.Lock()
	o.state.LastNonce = nonce
	o.state.HasNonce = true
	if err := o.persistState(); err != nil {
		o.logger.Sugar().Warnw("Failed to persist nonce", "nonce", nonce, "error", err)
	}
	o.mu.Unlock()

	receipt, err := o.chain.WaitForReceipt(ctx, signed.Hash)
	if err != nil {
		if errors.Is(err, ErrTransactionFailed) {
			if receipt != nil {
				record.BlockNumber = blockNumber(receipt)
			}
			o.fail(record, err)
		}
		return nil, nil, err
	}

	record.Status = persistence.TransactionStatusConfirmed
	record.BlockNumber = blockNumber(receipt)
	o.journal(record)
	return receipt, record, nil
}

func blockNumber(receipt *ethTypes.Receipt) uint64 {
	if receipt.BlockNumber == nil || !receipt.BlockNumber.IsUint64() {
		return 0
	}
	return receipt.BlockNumber.Uint64()
}

func (o *Orchestrator) fail(record *persistence.TransactionRecord, cause error) {
	record.Status = persistence.TransactionStatusFailed
	record.Error = cause.Error()
	o.journal(record)
}

// journal records are best effort: a storage failure is logged, not returned.
func (o *Orchestrator) journal(record *persistence.TransactionRecord) {
	record.UpdatedAt = time.Now().Unix()
	if err := o.store.SaveTransaction(record); err != nil {
		o.logger.Sugar().Warnw("Failed to journal transaction", "hash", record.Hash, "error", err)
	}
}

// Transactions returns the journal ordered by nonce.
func (o *Orchestrator) Transactions() ([]*persistence.TransactionRecord, error) {
	return o.store.ListTransactions()
}

// IsOwner reports whether addr is the current owner.
func (o *Orchestrator) IsOwner(addr string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state.Owner != "" && strings.EqualFold(o.state.Owner, addr)
}
