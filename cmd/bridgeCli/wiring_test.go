package main

import (
	"context"
	"flag"
	"testing"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/config"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/evmKey"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/logger"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence/badger"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence/memory"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/remoteSigner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

const testPrivateKeyHex = "4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func newTestContext(t *testing.T, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet("bridge-cli", flag.ContinueOnError)
	for _, f := range globalFlags() {
		require.NoError(t, f.Apply(set))
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(cli.NewApp(), set, nil)
}

func Test_ParseBridgeConfig(t *testing.T) {
	t.Run("Should apply defaults", func(t *testing.T) {
		cfg, err := parseBridgeConfig(newTestContext(t))
		require.NoError(t, err)

		assert.Equal(t, config.ChainId_StoryAeneid, cfg.ChainID)
		assert.Equal(t, config.DefaultRpcUrl, cfg.RpcUrl)
		assert.Equal(t, config.DefaultGasLimit, cfg.GasLimit)
		assert.Equal(t, config.SignerType_Local, cfg.SignerType)
		assert.Equal(t, config.PersistenceType_Badger, cfg.Persistence.Type)
		assert.False(t, cfg.Cost.Enabled())
		require.NotNil(t, cfg.StoryContracts)
	})

	t.Run("Should read flags", func(t *testing.T) {
		cfg, err := parseBridgeConfig(newTestContext(t,
			"--chain-id", "31337",
			"--signer", "aws-kms",
			"--key-id", "alias/bridge",
			"--persistence", "redis",
			"--redis-address", "localhost:6379",
			"--cost-base", "10",
			"--cost-rate", "5",
			"--cost-burst", "2",
		))
		require.NoError(t, err)

		assert.Equal(t, config.ChainName_EthereumAnvil, cfg.ChainName)
		assert.Equal(t, "alias/bridge", cfg.KeyId)
		assert.Equal(t, "localhost:6379", cfg.Persistence.Redis.Address)
		assert.True(t, cfg.Cost.Enabled())
		assert.Nil(t, cfg.StoryContracts)
	})

	t.Run("Should reject invalid combinations", func(t *testing.T) {
		_, err := parseBridgeConfig(newTestContext(t, "--signer", "aws-kms"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "keyId")
	})
}

func Test_NewRemoteSigner(t *testing.T) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.NoError(t, err)

	t.Run("Should load the configured local key", func(t *testing.T) {
		cfg := config.NewDefaultBridgeConfig()
		cfg.LocalPrivateKey = testPrivateKeyHex
		require.NoError(t, cfg.Validate())

		b, err := newBridge(context.Background(), cfg, l)
		require.NoError(t, err)

		address, err := b.GetAddress(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "0x2c7536e3605d9c16a7a3d7b1898e529396a65c23", evmKey.AddressString(address))
	})

	t.Run("Should fall back to an ephemeral key", func(t *testing.T) {
		cfg := config.NewDefaultBridgeConfig()
		signer, err := newRemoteSigner(context.Background(), cfg, l)
		require.NoError(t, err)

		pub, err := signer.GetPublicKey(context.Background())
		require.NoError(t, err)
		assert.Len(t, pub, 33)
	})

	t.Run("Should meter calls when a cost policy is set", func(t *testing.T) {
		cfg := config.NewDefaultBridgeConfig()
		cfg.LocalPrivateKey = testPrivateKeyHex
		cfg.Cost = config.CostPolicyConfig{Base: 5, Nodes: 1}

		signer, err := newRemoteSigner(context.Background(), cfg, l)
		require.NoError(t, err)
		_, err = signer.GetPublicKey(context.Background())
		require.NoError(t, err)

		metered, ok := signer.(*remoteSigner.MeteredSigner)
		require.True(t, ok)
		assert.Equal(t, uint64(5), metered.TotalCharged())
	})
}

func Test_NewPersistence(t *testing.T) {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: false})
	require.NoError(t, err)

	store, err := newPersistence(&config.PersistenceConfig{Type: config.PersistenceType_Memory}, l)
	require.NoError(t, err)
	assert.IsType(t, &memory.MemoryPersistence{}, store)
	require.NoError(t, store.Close())

	store, err = newPersistence(&config.PersistenceConfig{Type: config.PersistenceType_Badger, DataPath: t.TempDir()}, l)
	require.NoError(t, err)
	assert.IsType(t, &badger.BadgerPersistence{}, store)
	require.NoError(t, store.Close())

	_, err = newPersistence(&config.PersistenceConfig{Type: "sqlite"}, l)
	require.Error(t, err)
}

func Test_RuntimeConfig(t *testing.T) {
	cfg := config.NewDefaultBridgeConfig()
	require.NoError(t, cfg.Validate())

	runtime := runtimeConfig(cfg)
	assert.Equal(t, "0x77319B4031e6eF1250907aa00018B8B1c67a244b", runtime.IpAssetRegistry.Hex())
	assert.Equal(t, "0xbe39E1C756e921BD25DF86e7AAa31106d1eb0424", runtime.RegistrationWorkflows.Hex())
	assert.Equal(t, config.DefaultGasPrice, runtime.GasPrice)
}

func Test_EnsureHexPrefix(t *testing.T) {
	assert.Equal(t, "0xabcd", ensureHexPrefix("abcd"))
	assert.Equal(t, "0xabcd", ensureHexPrefix(" 0xabcd\n"))
	assert.Equal(t, "0Xabcd", ensureHexPrefix("0Xabcd"))
}
