package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	internalAws "github.com/Layr-Labs/eigenx-evm-bridge/internal/aws"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/contracts"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/evmKey"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/orchestrator"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/persistence"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/remoteSigner/awsKmsSigner"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/signature"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/txCodec"
	"github.com/Layr-Labs/eigenx-evm-bridge/pkg/types"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/urfave/cli/v2"
)

func addressCommand(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	address, err := a.bridge.GetAddress(c.Context)
	if err != nil {
		return fmt.Errorf("failed to derive address: %w", err)
	}
	fmt.Println(evmKey.AddressString(address))
	return nil
}

func publicKeyCommand(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	pub, err := a.bridge.GetPublicKey(c.Context)
	if err != nil {
		return err
	}
	uncompressed, err := evmKey.Normalize(pub)
	if err != nil {
		return err
	}
	compressed, err := evmKey.Compress(pub)
	if err != nil {
		return err
	}

	fmt.Printf("🔑 Key: %s\n", a.bridge.KeyId())
	fmt.Printf("  compressed:   %s\n", hexutil.Encode(compressed))
	fmt.Printf("  uncompressed: %s\n", hexutil.Encode(uncompressed))
	return nil
}

// keyInfoCommand works offline: it normalizes a key both ways and checks they agree.
func keyInfoCommand(c *cli.Context) error {
	pub, err := hexutil.Decode(ensureHexPrefix(c.String("public-key")))
	if err != nil {
		return fmt.Errorf("invalid public key hex: %w", err)
	}

	normalized, err := evmKey.Normalize(pub)
	if err != nil {
		return err
	}
	byKernel, err := evmKey.DecompressWithKernel(pub)
	if err != nil {
		return err
	}
	if !bytes.Equal(normalized, byKernel) {
		return fmt.Errorf("normalizers disagree: %x != %x", normalized, byKernel)
	}

	address, err := evmKey.DeriveAddress(normalized)
	if err != nil {
		return err
	}
	compressed, err := evmKey.Compress(pub)
	if err != nil {
		return err
	}

	fmt.Printf("  compressed:   %s\n", hexutil.Encode(compressed))
	fmt.Printf("  uncompressed: %s\n", hexutil.Encode(normalized))
	fmt.Printf("  address:      %s\n", evmKey.AddressString(address))
	return nil
}

func signDigestCommand(c *cli.Context) error {
	digest, err := hexutil.Decode(ensureHexPrefix(c.String("digest")))
	if err != nil {
		return fmt.Errorf("invalid digest hex: %w", err)
	}
	if err := types.ValidateDigest(digest); err != nil {
		return err
	}

	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	sig, err := a.bridge.SignDigest(c.Context, digest)
	if err != nil {
		return err
	}
	pub, err := a.bridge.GetUncompressedPublicKey(c.Context)
	if err != nil {
		return err
	}
	recoveryId, err := signature.ResolveRecoveryId(digest, sig, pub)
	if err != nil {
		return err
	}
	valid, err := signature.Verify(digest, sig, pub)
	if err != nil {
		return err
	}

	fmt.Printf("✅ Signature:   %s\n", sig.Hex())
	fmt.Printf("  recovery id: %d\n", recoveryId)
	fmt.Printf("  verified:    %t\n", valid)
	return nil
}

// parseTxFields reads to, value and data; the nonce is supplied by the caller.
func parseTxFields(c *cli.Context, a *app, nonce uint64) (*txCodec.TransactionFields, error) {
	var data []byte
	if raw := c.String("data"); raw != "" {
		decoded, err := hexutil.Decode(ensureHexPrefix(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid data hex: %w", err)
		}
		data = decoded
	}

	if to := c.String("to"); to != "" {
		if !common.IsHexAddress(to) {
			return nil, fmt.Errorf("invalid recipient address: %s", to)
		}
		return txCodec.NewCallFields(nonce, a.cfg.GasPrice, a.cfg.GasLimit, common.HexToAddress(to), c.Uint64("value"), data), nil
	}
	return txCodec.NewCreationFields(nonce, a.cfg.GasPrice, a.cfg.GasLimit, c.Uint64("value"), data), nil
}

func encodeTxCommand(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	fields, err := parseTxFields(c, a, c.Uint64("nonce"))
	if err != nil {
		return err
	}

	unsigned, err := a.bridge.EncodeUnsigned(fields)
	if err != nil {
		return err
	}
	digest, err := txCodec.SigningDigest(fields, a.bridge.ChainId())
	if err != nil {
		return err
	}
	fmt.Printf("  unsigned: %s\n", hexutil.Encode(unsigned))
	fmt.Printf("  digest:   %s\n", digest.Hex())

	if !c.Bool("sign") {
		return nil
	}

	signed, err := a.bridge.SignTransaction(c.Context, fields)
	if err != nil {
		return err
	}
	fmt.Printf("  signed:   %s\n", hexutil.Encode(signed.Raw))
	fmt.Printf("  hash:     %s\n", signed.Hash.Hex())
	fmt.Printf("  from:     %s\n", evmKey.AddressString(signed.From))
	fmt.Printf("  v:        %s\n", signed.V.String())
	return nil
}

func sendTxCommand(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	chain, err := newChainClient(c.Context, a.cfg, a.logger)
	if err != nil {
		return err
	}
	from, err := a.bridge.GetAddress(c.Context)
	if err != nil {
		return err
	}
	nonce, err := chain.PendingNonce(c.Context, from)
	if err != nil {
		return err
	}
	fields, err := parseTxFields(c, a, nonce)
	if err != nil {
		return err
	}
	if fields.GasPrice == 0 {
		suggested, err := chain.SuggestGasPrice(c.Context)
		if err != nil {
			return err
		}
		fields.GasPrice = suggested.Uint64()
	}

	signed, err := a.bridge.SignTransaction(c.Context, fields)
	if err != nil {
		return err
	}
	fmt.Printf("📡 Broadcasting %s (nonce %d)\n", signed.Hash.Hex(), nonce)

	receipt, err := chain.SendAndWait(c.Context, signed.Raw)
	if err != nil {
		return err
	}
	fmt.Printf("✅ Mined in block %s\n", receipt.BlockNumber.String())
	if fields.IsContractCreation() {
		fmt.Printf("  contract: %s\n", receipt.ContractAddress.Hex())
	}
	return nil
}

func deployNftCommand(c *cli.Context) error {
	bytecode, err := contracts.LoadBytecode(c.String("bytecode"))
	if err != nil {
		return err
	}

	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	return a.withOrchestrator(c.Context, func(o *orchestrator.Orchestrator) error {
		result, err := o.DeployNFT(c.Context, bytecode, c.String("name"), c.String("symbol"))
		if err != nil {
			return err
		}
		fmt.Printf("✅ NFT contract deployed: %s\n", result.Address.Hex())
		fmt.Printf("  tx: %s\n", result.TxHash.Hex())
		return nil
	})
}

func mintCommand(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	return a.withOrchestrator(c.Context, func(o *orchestrator.Orchestrator) error {
		result, err := o.MintNFT(c.Context, c.String("content-hash"), c.String("metadata-uri"))
		if err != nil {
			return err
		}
		fmt.Printf("✅ Minted token %s on %s\n", result.TokenId.String(), result.NftContract.Hex())
		fmt.Printf("  tx: %s\n", result.TxHash.Hex())
		return nil
	})
}

func registerIpCommand(c *cli.Context) error {
	tokenId, ok := new(big.Int).SetString(c.String("token-id"), 10)
	if !ok {
		return fmt.Errorf("invalid token id: %s", c.String("token-id"))
	}

	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	return a.withOrchestrator(c.Context, func(o *orchestrator.Orchestrator) error {
		nftContract, ok := o.NftContract()
		if raw := c.String("nft-address"); raw != "" {
			if !common.IsHexAddress(raw) {
				return fmt.Errorf("invalid nft address: %s", raw)
			}
			nftContract, ok = common.HexToAddress(raw), true
		}
		if !ok {
			return orchestrator.ErrNftContractNotSet
		}

		result, err := o.RegisterIP(c.Context, nftContract, tokenId)
		if err != nil {
			return err
		}
		printRegistration(result)
		return nil
	})
}

func mintAndRegisterCommand(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	return a.withOrchestrator(c.Context, func(o *orchestrator.Orchestrator) error {
		result, err := o.MintAndRegisterIp(c.Context, c.String("content-hash"), c.String("metadata-uri"))
		if err != nil {
			return err
		}
		printRegistration(result)
		return nil
	})
}

func printRegistration(result *orchestrator.RegisterResult) {
	fmt.Printf("✅ IP registered: %s\n", result.IpId.Hex())
	fmt.Printf("  token contract: %s\n", result.TokenContract.Hex())
	if result.TokenId != nil {
		fmt.Printf("  token id:       %s\n", result.TokenId.String())
	}
	fmt.Printf("  tx:             %s\n", result.TxHash.Hex())
	if result.ProofRef != "" {
		fmt.Printf("  proof:          %s\n", result.ProofRef)
	}
}

func setOwnerCommand(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	return a.withOrchestrator(c.Context, func(o *orchestrator.Orchestrator) error {
		if err := o.SetOwner(c.String("caller"), c.String("new-owner")); err != nil {
			return err
		}
		fmt.Printf("✅ Owner: %s\n", o.Owner())
		return nil
	})
}

func setNftContractCommand(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	return a.withOrchestrator(c.Context, func(o *orchestrator.Orchestrator) error {
		if err := o.SetNftContract(c.String("caller"), c.String("address")); err != nil {
			return err
		}
		addr, _ := o.NftContract()
		fmt.Printf("✅ NFT contract: %s\n", addr.Hex())
		return nil
	})
}

func stateCommand(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	return a.withStore(func(store persistence.IBridgePersistence) error {
		state, err := store.LoadBridgeState()
		if err != nil {
			return err
		}
		if state == nil {
			fmt.Println("No bridge state persisted yet")
			return nil
		}
		return printJSON(state)
	})
}

func transactionsCommand(c *cli.Context) error {
	a, err := newApp(c)
	if err != nil {
		return err
	}
	defer a.close()

	return a.withStore(func(store persistence.IBridgePersistence) error {
		records, err := store.ListTransactions()
		if err != nil {
			return err
		}
		return printJSON(records)
	})
}

func awsIdentityCommand(c *cli.Context) error {
	cfg, err := internalAws.LoadAWSConfig(c.Context, c.String("aws-region"))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}
	identity, err := internalAws.GetCallerIdentity(c.Context, cfg)
	if err != nil {
		return fmt.Errorf("failed to get caller identity: %w", err)
	}
	fmt.Printf("  account: %s\n", identity.Account)
	fmt.Printf("  arn:     %s\n", identity.Arn)
	fmt.Printf("  user:    %s\n", identity.UserId)
	return nil
}

func createKmsKeyCommand(c *cli.Context) error {
	l, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	cfg, err := internalAws.LoadAWSConfig(c.Context, c.String("aws-region"))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	signer := awsKmsSigner.NewAWSKMSSigner(cfg, "", l)
	keyId, err := signer.CreateSigningKey(c.Context, c.String("name"), c.String("alias"), c.String("environment"))
	if err != nil {
		return err
	}
	fmt.Printf("✅ Created KMS key: %s\n", keyId)
	return nil
}

func printJSON(v interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func ensureHexPrefix(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	return "0x" + s
}
