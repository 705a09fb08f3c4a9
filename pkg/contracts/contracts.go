// Package contracts builds calldata for the handful of contract calls the
// bridge makes and pulls results back out of receipts. It is not a general
// ABI layer.
package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	ethTypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

var (
	ErrEventNotFound = errors.New("event not found in receipt")
	ErrEmptyBytecode = errors.New("contract bytecode is empty")
)

// IPMetadata mirrors WorkflowStructs.IPMetadata.
type IPMetadata struct {
	IpMetadataURI   string
	IpMetadataHash  [32]byte
	NftMetadataURI  string
	NftMetadataHash [32]byte
}

func mustAbi(name string, getAbi func() (*abi.ABI, error)) *abi.ABI {
	parsed, err := getAbi()
	if err != nil {
		panic(fmt.Sprintf("invalid %s abi: %v", name, err))
	}
	return parsed
}

var (
	simpleNFTAbi             = mustAbi("SimpleNFT", SimpleNFTMetaData.GetAbi)
	ipAssetRegistryAbi       = mustAbi("IPAssetRegistry", IPAssetRegistryMetaData.GetAbi)
	registrationWorkflowsAbi = mustAbi("RegistrationWorkflows", RegistrationWorkflowsMetaData.GetAbi)
)

// EncodeNFTDeployment appends the ABI encoded (name, symbol) constructor
// arguments to the SimpleNFT init code.
func EncodeNFTDeployment(bytecode []byte, name string, symbol string) ([]byte, error) {
	if len(bytecode) == 0 {
		return nil, ErrEmptyBytecode
	}
	args, err := simpleNFTAbi.Pack("", name, symbol)
	if err != nil {
		return nil, fmt.Errorf("failed to pack constructor arguments: %w", err)
	}
	out := make([]byte, 0, len(bytecode)+len(args))
	out = append(out, bytecode...)
	return append(out, args...), nil
}

// EncodeMint builds mint(address,string,string) calldata.
func EncodeMint(to common.Address, contentHash string, metadataURI string) ([]byte, error) {
	data, err := simpleNFTAbi.Pack("mint", to, contentHash, metadataURI)
	if err != nil {
		return nil, fmt.Errorf("failed to pack mint: %w", err)
	}
	return data, nil
}

// EncodeRegister builds IPAssetRegistry.register(uint256,address,uint256) calldata.
func EncodeRegister(chainId uint64, tokenContract common.Address, tokenId *big.Int) ([]byte, error) {
	if tokenId == nil || tokenId.Sign() < 0 {
		return nil, fmt.Errorf("invalid token id %v", tokenId)
	}
	data, err := ipAssetRegistryAbi.Pack("register", new(big.Int).SetUint64(chainId), tokenContract, tokenId)
	if err != nil {
		return nil, fmt.Errorf("failed to pack register: %w", err)
	}
	return data, nil
}

// NewIPMetadata uses the same URI and its keccak256 hash for both the IP and
// the NFT metadata.
func NewIPMetadata(metadataURI string) IPMetadata {
	hash := crypto.Keccak256Hash([]byte(metadataURI))
	return IPMetadata{
		IpMetadataURI:   metadataURI,
		IpMetadataHash:  hash,
		NftMetadataURI:  metadataURI,
		NftMetadataHash: hash,
	}
}

// EncodeMintAndRegisterIp builds RegistrationWorkflows.mintAndRegisterIp calldata.
func EncodeMintAndRegisterIp(spgNftContract common.Address, recipient common.Address, metadata IPMetadata) ([]byte, error) {
	data, err := registrationWorkflowsAbi.Pack("mintAndRegisterIp", spgNftContract, recipient, metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to pack mintAndRegisterIp: %w", err)
	}
	return data, nil
}

// NFTMintedEventId is topic0 of NFTMinted(address,uint256,string).
func NFTMintedEventId() common.Hash {
	return simpleNFTAbi.Events["NFTMinted"].ID
}

// TokenIdFromReceipt returns the token id of the first NFTMinted log emitted
// by nftContract. The id is the third topic.
func TokenIdFromReceipt(receipt *ethTypes.Receipt, nftContract common.Address) (*big.Int, error) {
	if receipt == nil {
		return nil, fmt.Errorf("receipt is nil")
	}
	eventId := NFTMintedEventId()
	for _, log := range receipt.Logs {
		if log.Address != nftContract || len(log.Topics) < 3 || log.Topics[0] != eventId {
			continue
		}
		return new(big.Int).SetBytes(log.Topics[2].Bytes()), nil
	}
	return nil, fmt.Errorf("%w: NFTMinted from %s", ErrEventNotFound, nftContract.Hex())
}

// IPRegistration is the decoded IPRegistered event.
type IPRegistration struct {
	IpId          common.Address
	ChainId       *big.Int
	TokenContract common.Address
	TokenId       *big.Int
}

// ParseIPRegistered decodes the first IPRegistered log in receipt. chainId,
// tokenContract and tokenId are indexed; ipId is the first data word.
func ParseIPRegistered(receipt *ethTypes.Receipt) (*IPRegistration, error) {
	if receipt == nil {
		return nil, fmt.Errorf("receipt is nil")
	}
	event := ipAssetRegistryAbi.Events["IPRegistered"]
	for _, log := range receipt.Logs {
		if len(log.Topics) < 4 || log.Topics[0] != event.ID {
			continue
		}
		values, err := event.Inputs.NonIndexed().Unpack(log.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to unpack IPRegistered: %w", err)
		}
		ipId, ok := values[0].(common.Address)
		if !ok {
			return nil, fmt.Errorf("unexpected ipId type %T", values[0])
		}
		return &IPRegistration{
			IpId:          ipId,
			ChainId:       new(big.Int).SetBytes(log.Topics[1].Bytes()),
			TokenContract: common.BytesToAddress(log.Topics[2].Bytes()),
			TokenId:       new(big.Int).SetBytes(log.Topics[3].Bytes()),
		}, nil
	}
	return nil, fmt.Errorf("%w: IPRegistered", ErrEventNotFound)
}

// IpIdFromReceipt returns the ipId of the first IPRegistered log in receipt.
func IpIdFromReceipt(receipt *ethTypes.Receipt) (common.Address, error) {
	registration, err := ParseIPRegistered(receipt)
	if err != nil {
		return common.Address{}, err
	}
	return registration.IpId, nil
}

type forgeArtifact struct {
	Bytecode struct {
		Object string `json:"object"`
	} `json:"bytecode"`
}

// ParseBytecode accepts either a hex string (with or without 0x) or a forge
// build artifact with bytecode.object.
func ParseBytecode(raw []byte) ([]byte, error) {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, "{") {
		var artifact forgeArtifact
		if err := json.Unmarshal([]byte(text), &artifact); err != nil {
			return nil, fmt.Errorf("failed to parse contract artifact: %w", err)
		}
		text = artifact.Bytecode.Object
	}
	if !strings.HasPrefix(text, "0x") {
		text = "0x" + text
	}
	code, err := hexutil.Decode(text)
	if err != nil {
		return nil, fmt.Errorf("failed to decode bytecode: %w", err)
	}
	if len(code) == 0 {
		return nil, ErrEmptyBytecode
	}
	return code, nil
}

// LoadBytecode reads init code from a hex file or forge artifact.
func LoadBytecode(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bytecode file %s: %w", path, err)
	}
	return ParseBytecode(raw)
}
