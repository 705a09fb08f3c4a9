package main

import (
	"context"
	"fmt"

	internalAws "github.com/Layr-Labs/eigenx-evm-bridge/internal/aws"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/bridge"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/chainClient"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/config"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/logger"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/orchestrator"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence/badger"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence/redis"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/remoteSigner"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/remoteSigner/awsKmsSigner"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/remoteSigner/localSigner"
	"github.com/ethereum/go-ethereum/common"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const localKeyId = "bridge-local-key"

func parseBridgeConfig(c *cli.Context) (*config.BridgeConfig, error) {
	cfg := &config.BridgeConfig{
		ChainID:            config.ChainId(c.Uint64("chain-id")),
		RpcUrl:             c.String("rpc-url"),
		GasPrice:           c.Uint64("gas-price"),
		GasLimit:           c.Uint64("gas-limit"),
		SignerType:         config.SignerType(c.String("signer")),
		KeyId:              c.String("key-id"),
		AWSRegion:          c.String("aws-region"),
		LocalPrivateKey:    c.String("local-private-key"),
		Owner:              c.String("owner"),
		NftContractAddress: c.String("nft-contract"),
		Persistence: config.PersistenceConfig{
			Type:     config.PersistenceType(c.String("persistence")),
			DataPath: c.String("data-path"),
			Redis: config.RedisConfig{
				Address:   c.String("redis-address"),
				Password:  c.String("redis-password"),
				DB:        c.Int("redis-db"),
				KeyPrefix: c.String("redis-key-prefix"),
			},
		},
		Cost: config.CostPolicyConfig{
			Base:          c.Uint64("cost-base"),
			PerByte:       c.Uint64("cost-per-byte"),
			Nodes:         c.Uint64("cost-nodes"),
			RatePerSecond: c.Float64("cost-rate"),
			Burst:         c.Int("cost-burst"),
		},
		Debug: c.Bool("verbose"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: c.Bool("verbose")})
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return l, nil
}

// newRemoteSigner builds the configured signer and wraps it in the cost policy.
func newRemoteSigner(ctx context.Context, cfg *config.BridgeConfig, l *zap.Logger) (remoteSigner.IRemoteSigner, error) {
	var signer remoteSigner.IRemoteSigner

	switch cfg.SignerType {
	case config.SignerType_AWSKMS:
		awsCfg, err := internalAws.LoadAWSConfig(ctx, cfg.AWSRegion)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		signer = awsKmsSigner.NewAWSKMSSigner(awsCfg, cfg.KeyId, l)
	case config.SignerType_Local:
		keys := localSigner.NewLocalKeyStore(l)
		keyId := localKeyId
		if cfg.LocalPrivateKey == "" {
			generated, err := keys.GenerateKey("ephemeral")
			if err != nil {
				return nil, err
			}
			keyId = generated
			l.Sugar().Warnw("No local private key configured, using an ephemeral key", "keyId", keyId)
		} else if err := keys.LoadPrivateKeyFromHex(keyId, cfg.LocalPrivateKey, "bridge"); err != nil {
			return nil, err
		}
		signer = keys.Signer(keyId)
	default:
		return nil, fmt.Errorf("unsupported signer type: %s", cfg.SignerType)
	}

	var policy remoteSigner.ICostPolicy
	if cfg.Cost.Enabled() {
		policy = remoteSigner.NewLinearCostPolicy(cfg.Cost.Base, cfg.Cost.PerByte, cfg.Cost.Nodes, cfg.Cost.RatePerSecond, cfg.Cost.Burst)
	}
	return remoteSigner.NewMeteredSigner(signer, policy, l), nil
}

func newBridge(ctx context.Context, cfg *config.BridgeConfig, l *zap.Logger) (*bridge.Bridge, error) {
	signer, err := newRemoteSigner(ctx, cfg, l)
	if err != nil {
		return nil, err
	}
	return bridge.NewBridge(signer, uint64(cfg.ChainID), nil, l), nil
}

func newPersistence(cfg *config.PersistenceConfig, l *zap.Logger) (persistence.IBridgePersistence, error) {
	switch cfg.Type {
	case "", config.PersistenceType_Memory:
		return memory.NewMemoryPersistence(), nil
	case config.PersistenceType_Badger:
		return badger.NewBadgerPersistence(cfg.DataPath, l)
	case config.PersistenceType_Redis:
		return redis.NewRedisPersistence(&redis.RedisConfig{
			Address:   cfg.Redis.Address,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		}, l)
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s", cfg.Type)
	}
}

// newChainClient dials the RPC and refuses endpoints serving another chain.
func newChainClient(ctx context.Context, cfg *config.BridgeConfig, l *zap.Logger) (*chainClient.ChainClient, error) {
	client, err := chainClient.NewChainClientFromUrl(ctx, &chainClient.ChainClientConfig{
		RpcUrl:          cfg.RpcUrl,
		ReceiptInterval: chainClient.DefaultReceiptInterval,
	}, l)
	if err != nil {
		return nil, err
	}
	if err := client.EnsureChainId(ctx, uint64(cfg.ChainID)); err != nil {
		return nil, err
	}
	return client, nil
}

func runtimeConfig(cfg *config.BridgeConfig) orchestrator.RuntimeConfig {
	runtime := orchestrator.RuntimeConfig{
		GasPrice: cfg.GasPrice,
		GasLimit: cfg.GasLimit,
	}
	if cfg.StoryContracts != nil {
		runtime.IpAssetRegistry = common.HexToAddress(cfg.StoryContracts.IPAssetRegistry)
		runtime.RegistrationWorkflows = common.HexToAddress(cfg.StoryContracts.RegistrationWorkflows)
		runtime.SpgNftContract = common.HexToAddress(cfg.StoryContracts.SpgNftContract)
	}
	return runtime
}

// app bundles everything a command may need. Fields are built lazily by the
// with* helpers so offline commands never dial the RPC.
type app struct {
	cfg    *config.BridgeConfig
	logger *zap.Logger
	bridge *bridge.Bridge
}

func newApp(c *cli.Context) (*app, error) {
	l, err := newLogger(c)
	if err != nil {
		return nil, err
	}
	cfg, err := parseBridgeConfig(c)
	if err != nil {
		return nil, err
	}
	b, err := newBridge(c.Context, cfg, l)
	if err != nil {
		return nil, err
	}
	l.Sugar().Debugw("Using chain", "name", cfg.ChainName, "chain_id", cfg.ChainID, "signer", cfg.SignerType)
	return &app{cfg: cfg, logger: l, bridge: b}, nil
}

func (a *app) close() {
	_ = a.logger.Sync()
}

// withOrchestrator opens persistence and the chain client for the duration of fn.
func (a *app) withOrchestrator(ctx context.Context, fn func(o *orchestrator.Orchestrator) error) error {
	store, err := newPersistence(&a.cfg.Persistence, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open persistence: %w", err)
	}
	defer func() { _ = store.Close() }()

	chain, err := newChainClient(ctx, a.cfg, a.logger)
	if err != nil {
		return err
	}

	o, err := orchestrator.NewOrchestrator(&orchestrator.OrchestratorConfig{
		Runtime:     runtimeConfig(a.cfg),
		Owner:       a.cfg.Owner,
		NftContract: a.cfg.NftContractAddress,
	}, a.bridge, chain, store, orchestrator.NewZapProofLogger(a.logger), a.logger)
	if err != nil {
		return err
	}
	return fn(o)
}

// withStore opens only persistence, for commands that never touch the chain.
func (a *app) withStore(fn func(store persistence.IBridgePersistence) error) error {
	store, err := newPersistence(&a.cfg.Persistence, a.logger)
	if err != nil {
		return fmt.Errorf("failed to open persistence: %w", err)
	}
	defer func() { _ = store.Close() }()
	return fn(store)
}
