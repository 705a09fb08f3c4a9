package main

import (
	"fmt"
	"log"
	"os"

	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/config"
	"github.com/urfave/cli/v2"
)

func main() {
	app := &cli.App{
		Name:  "bridge-cli",
		Usage: "EVM transaction bridge backed by a remote secp256k1 key",
		Description: `Signs and broadcasts legacy EVM transactions with a key that never leaves its platform.

This tool can:
- Derive the EVM address of the remote key
- Encode, sign and broadcast EIP-155 transactions
- Deploy an NFT collection, mint into it and register tokens as Story IP assets`,
		Version: "1.0.0",
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			{
				Name:   "address",
				Usage:  "Print the EVM address of the signing key",
				Action: addressCommand,
			},
			{
				Name:   "public-key",
				Usage:  "Print the signing key in compressed and uncompressed form",
				Action: publicKeyCommand,
			},
			{
				Name:   "key-info",
				Usage:  "Normalize a public key and derive its address",
				Action: keyInfoCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "public-key",
						Usage:    "SEC1 public key (hex, 33 or 65 bytes)",
						Required: true,
					},
				},
			},
			{
				Name:   "sign-digest",
				Usage:  "Sign a 32 byte digest and resolve its recovery id",
				Action: signDigestCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "digest",
						Usage:    "Digest to sign (hex, 32 bytes)",
						Required: true,
					},
				},
			},
			{
				Name:   "encode-tx",
				Usage:  "Encode a transaction, optionally signing it",
				Action: encodeTxCommand,
				Flags: append(txFlags(),
					&cli.Uint64Flag{
						Name:     "nonce",
						Usage:    "Transaction nonce",
						Required: true,
					},
					&cli.BoolFlag{
						Name:  "sign",
						Usage: "Sign the transaction and print the raw signed form",
					},
				),
			},
			{
				Name:   "send-tx",
				Usage:  "Sign and broadcast a transaction using the pending nonce",
				Action: sendTxCommand,
				Flags:  txFlags(),
			},
			{
				Name:   "deploy-nft",
				Usage:  "Deploy the NFT collection",
				Action: deployNftCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "bytecode",
						Usage:    "Path to the init code (hex or forge artifact JSON)",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Collection name",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "symbol",
						Usage:    "Collection symbol",
						Required: true,
					},
				},
			},
			{
				Name:   "mint",
				Usage:  "Mint a token to the bridge address",
				Action: mintCommand,
				Flags:  contentFlags(),
			},
			{
				Name:   "register-ip",
				Usage:  "Register a token as an IP asset",
				Action: registerIpCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "nft-address",
						Usage: "Token contract (defaults to the bridge's collection)",
					},
					&cli.StringFlag{
						Name:     "token-id",
						Usage:    "Token id (decimal)",
						Required: true,
					},
				},
			},
			{
				Name:   "mint-and-register",
				Usage:  "Mint into the SPG collection and register the token in one transaction",
				Action: mintAndRegisterCommand,
				Flags:  contentFlags(),
			},
			{
				Name:   "set-owner",
				Usage:  "Transfer bridge ownership",
				Action: setOwnerCommand,
				Flags: []cli.Flag{
					callerFlag(),
					&cli.StringFlag{
						Name:     "new-owner",
						Usage:    "Address of the new owner",
						Required: true,
					},
				},
			},
			{
				Name:   "set-nft-contract",
				Usage:  "Point the bridge at an existing NFT collection",
				Action: setNftContractCommand,
				Flags: []cli.Flag{
					callerFlag(),
					&cli.StringFlag{
						Name:     "address",
						Usage:    "Collection address",
						Required: true,
					},
				},
			},
			{
				Name:   "state",
				Usage:  "Print the persisted bridge state",
				Action: stateCommand,
			},
			{
				Name:   "transactions",
				Usage:  "List journaled transactions",
				Action: transactionsCommand,
			},
			{
				Name:   "aws-identity",
				Usage:  "Print the AWS identity the credentials resolve to",
				Action: awsIdentityCommand,
			},
			{
				Name:   "create-kms-key",
				Usage:  "Create a secp256k1 signing key in AWS KMS",
				Action: createKmsKeyCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Key name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "alias",
						Usage: "Alias to attach (without the alias/ prefix)",
					},
					&cli.StringFlag{
						Name:  "environment",
						Usage: "Environment tag",
						Value: "dev",
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Uint64Flag{
			Name:    "chain-id",
			Aliases: []string{"chain"},
			Usage:   fmt.Sprintf("EVM chain ID: %s", config.GetSupportedChainIDsString()),
			Value:   uint64(config.DefaultChainId),
			EnvVars: []string{config.EnvBridgeChainID},
		},
		&cli.StringFlag{
			Name:    "rpc-url",
			Aliases: []string{"rpc"},
			Usage:   "JSON-RPC endpoint URL",
			Value:   config.DefaultRpcUrl,
			EnvVars: []string{config.EnvBridgeRPCURL},
		},
		&cli.Uint64Flag{
			Name:    "gas-price",
			Usage:   "Gas price in wei (0 asks the node)",
			Value:   config.DefaultGasPrice,
			EnvVars: []string{config.EnvBridgeGasPrice},
		},
		&cli.Uint64Flag{
			Name:    "gas-limit",
			Usage:   "Gas limit",
			Value:   config.DefaultGasLimit,
			EnvVars: []string{config.EnvBridgeGasLimit},
		},
		&cli.StringFlag{
			Name:    "signer",
			Usage:   "Signer type: aws-kms or local",
			Value:   string(config.SignerType_Local),
			EnvVars: []string{config.EnvBridgeSignerType},
		},
		&cli.StringFlag{
			Name:    "key-id",
			Usage:   "Remote key id, ARN or alias",
			EnvVars: []string{config.EnvBridgeKeyID},
		},
		&cli.StringFlag{
			Name:    "aws-region",
			Usage:   "AWS region override",
			EnvVars: []string{config.EnvBridgeAWSRegion},
		},
		&cli.StringFlag{
			Name:    "local-private-key",
			Usage:   "Hex secp256k1 private key for the local signer (devnet only)",
			EnvVars: []string{config.EnvBridgeLocalPrivateKey},
		},
		&cli.StringFlag{
			Name:    "owner",
			Usage:   "Initial bridge owner",
			EnvVars: []string{config.EnvBridgeOwner},
		},
		&cli.StringFlag{
			Name:    "nft-contract",
			Usage:   "Initial NFT collection address",
			EnvVars: []string{config.EnvBridgeNftContract},
		},
		&cli.StringFlag{
			Name:    "persistence",
			Usage:   "Persistence backend: memory, badger or redis",
			Value:   string(config.PersistenceType_Badger),
			EnvVars: []string{config.EnvBridgePersistenceType},
		},
		&cli.StringFlag{
			Name:    "data-path",
			Usage:   "Badger data directory",
			Value:   "./bridge-data",
			EnvVars: []string{config.EnvBridgeDataPath},
		},
		&cli.StringFlag{
			Name:    "redis-address",
			Usage:   "Redis address (host:port)",
			EnvVars: []string{config.EnvBridgeRedisAddress},
		},
		&cli.StringFlag{
			Name:    "redis-password",
			Usage:   "Redis password",
			EnvVars: []string{config.EnvBridgeRedisPassword},
		},
		&cli.IntFlag{
			Name:    "redis-db",
			Usage:   "Redis database number",
			EnvVars: []string{config.EnvBridgeRedisDB},
		},
		&cli.StringFlag{
			Name:    "redis-key-prefix",
			Usage:   "Prefix for every Redis key",
			EnvVars: []string{config.EnvBridgeRedisKeyPrefix},
		},
		&cli.Uint64Flag{
			Name:    "cost-base",
			Usage:   "Fixed cost units charged per remote call",
			EnvVars: []string{config.EnvBridgeCostBase},
		},
		&cli.Uint64Flag{
			Name:    "cost-per-byte",
			Usage:   "Cost units charged per payload byte",
			EnvVars: []string{config.EnvBridgeCostPerByte},
		},
		&cli.Uint64Flag{
			Name:    "cost-nodes",
			Usage:   "Number of nodes that take part in each remote call",
			Value:   1,
			EnvVars: []string{config.EnvBridgeCostNodes},
		},
		&cli.Float64Flag{
			Name:    "cost-rate",
			Usage:   "Maximum remote calls per second (0 disables limiting)",
			EnvVars: []string{config.EnvBridgeCostRatePerSecond},
		},
		&cli.IntFlag{
			Name:    "cost-burst",
			Usage:   "Burst size for the remote call rate limit",
			Value:   1,
			EnvVars: []string{config.EnvBridgeCostBurst},
		},
		&cli.BoolFlag{
			Name:    "verbose",
			Usage:   "Enable verbose logging",
			EnvVars: []string{config.EnvBridgeVerbose},
		},
	}
}

func txFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:  "to",
			Usage: "Recipient address (omit for contract creation)",
		},
		&cli.Uint64Flag{
			Name:  "value",
			Usage: "Value in wei",
		},
		&cli.StringFlag{
			Name:  "data",
			Usage: "Calldata or init code (hex)",
		},
	}
}

func contentFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "content-hash",
			Usage:    "Hash of the content being minted",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "metadata-uri",
			Usage:    "Token metadata URI",
			Required: true,
		},
	}
}

func callerFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "caller",
		Usage:    "Address acting as the caller for owner checks",
		Required: true,
	}
}
