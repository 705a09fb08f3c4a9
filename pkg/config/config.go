package config

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"k8s.io/apimachinery/pkg/util/validation/field"
)

// Environment variable names for bridge configuration
const (
	EnvBridgeChainID         = "BRIDGE_CHAIN_ID"
	EnvBridgeRPCURL          = "BRIDGE_RPC_URL"
	EnvBridgeGasPrice        = "BRIDGE_GAS_PRICE"
	EnvBridgeGasLimit        = "BRIDGE_GAS_LIMIT"
	EnvBridgeSignerType      = "BRIDGE_SIGNER_TYPE"
	EnvBridgeKeyID           = "BRIDGE_KEY_ID"
	EnvBridgeAWSRegion       = "BRIDGE_AWS_REGION"
	EnvBridgeLocalPrivateKey = "BRIDGE_LOCAL_PRIVATE_KEY"
	EnvBridgeNftContract     = "BRIDGE_NFT_CONTRACT"
	EnvBridgeOwner           = "BRIDGE_OWNER"

	EnvBridgePersistenceType = "BRIDGE_PERSISTENCE_TYPE"
	EnvBridgeDataPath        = "BRIDGE_DATA_PATH"
	EnvBridgeRedisAddress    = "BRIDGE_REDIS_ADDRESS"
	EnvBridgeRedisPassword   = "BRIDGE_REDIS_PASSWORD"
	EnvBridgeRedisDB         = "BRIDGE_REDIS_DB"
	EnvBridgeRedisKeyPrefix  = "BRIDGE_REDIS_KEY_PREFIX"

	EnvBridgeCostBase          = "BRIDGE_COST_BASE"
	EnvBridgeCostPerByte       = "BRIDGE_COST_PER_BYTE"
	EnvBridgeCostNodes         = "BRIDGE_COST_NODES"
	EnvBridgeCostRatePerSecond = "BRIDGE_COST_RATE_PER_SECOND"
	EnvBridgeCostBurst         = "BRIDGE_COST_BURST"

	EnvBridgeVerbose = "BRIDGE_VERBOSE"
)

type ChainId uint64

const (
	ChainId_EthereumMainnet ChainId = 1
	ChainId_EthereumSepolia ChainId = 11155111
	ChainId_EthereumAnvil   ChainId = 31337
	ChainId_StoryAeneid     ChainId = 1315
)

type ChainName string

const (
	ChainName_EthereumMainnet ChainName = "mainnet"
	ChainName_EthereumSepolia ChainName = "sepolia"
	ChainName_EthereumAnvil   ChainName = "devnet"
	ChainName_StoryAeneid     ChainName = "aeneid"
)

var ChainIdToName = map[ChainId]ChainName{
	ChainId_EthereumMainnet: ChainName_EthereumMainnet,
	ChainId_EthereumSepolia: ChainName_EthereumSepolia,
	ChainId_EthereumAnvil:   ChainName_EthereumAnvil,
	ChainId_StoryAeneid:     ChainName_StoryAeneid,
}
var ChainNameToId = map[ChainName]ChainId{
	ChainName_EthereumMainnet: ChainId_EthereumMainnet,
	ChainName_EthereumSepolia: ChainId_EthereumSepolia,
	ChainName_EthereumAnvil:   ChainId_EthereumAnvil,
	ChainName_StoryAeneid:     ChainId_StoryAeneid,
}

// Defaults for the Story Aeneid testnet
const (
	DefaultChainId  = ChainId_StoryAeneid
	DefaultRpcUrl   = "https://aeneid.storyrpc.io"
	DefaultGasLimit = uint64(3_000_000)
	DefaultGasPrice = uint64(20_000_000_000) // 20 gwei
)

type SignerType string

const (
	SignerType_AWSKMS SignerType = "aws-kms"
	SignerType_Local  SignerType = "local"
)

type PersistenceType string

const (
	PersistenceType_Memory PersistenceType = "memory"
	PersistenceType_Badger PersistenceType = "badger"
	PersistenceType_Redis  PersistenceType = "redis"
)

// StoryContractAddresses are the Story protocol periphery deployments the
// bridge calls into.
type StoryContractAddresses struct {
	IPAssetRegistry       string
	RegistrationWorkflows string
	SpgNftContract        string
	LicensingModule       string
}

var StoryContracts = map[ChainId]*StoryContractAddresses{
	ChainId_StoryAeneid: {
		IPAssetRegistry:       "0x77319B4031e6eF1250907aa00018B8B1c67a244b",
		RegistrationWorkflows: "0xbe39E1C756e921BD25DF86e7AAa31106d1eb0424",
		SpgNftContract:        "0xc32A8a0FF3beDDDa58393d022aF433e78739FAbc",
		LicensingModule:       "0x04fbd8a2e56dd85CFD5500A4A4DfA955B9f1dE6f",
	},
}

func GetStoryContractsForChainId(chainId ChainId) (*StoryContractAddresses, error) {
	contracts, ok := StoryContracts[chainId]
	if !ok {
		return nil, fmt.Errorf("no Story contracts known for chain ID: %d", chainId)
	}
	return contracts, nil
}

type RedisConfig struct {
	Address   string `json:"address" yaml:"address"`
	Password  string `json:"password" yaml:"password"`
	DB        int    `json:"db" yaml:"db"`
	KeyPrefix string `json:"keyPrefix" yaml:"keyPrefix"`
}

type PersistenceConfig struct {
	Type     PersistenceType `json:"type" yaml:"type"`
	DataPath string          `json:"dataPath" yaml:"dataPath"`
	Redis    RedisConfig     `json:"redis" yaml:"redis"`
}

func (pc *PersistenceConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	switch pc.Type {
	case "", PersistenceType_Memory:
	case PersistenceType_Badger:
		if pc.DataPath == "" {
			allErrors = append(allErrors, field.Required(path.Child("dataPath"), "dataPath is required for badger persistence"))
		}
	case PersistenceType_Redis:
		if pc.Redis.Address == "" {
			allErrors = append(allErrors, field.Required(path.Child("redis", "address"), "address is required for redis persistence"))
		}
		if pc.Redis.DB < 0 || pc.Redis.DB > 15 {
			allErrors = append(allErrors, field.Invalid(path.Child("redis", "db"), pc.Redis.DB, "db must be between 0-15"))
		}
	default:
		allErrors = append(allErrors, field.NotSupported(path.Child("type"), pc.Type,
			[]string{string(PersistenceType_Memory), string(PersistenceType_Badger), string(PersistenceType_Redis)}))
	}
	return allErrors
}

// CostPolicyConfig parameterizes the per-call charge applied to remote signer calls.
type CostPolicyConfig struct {
	Base          uint64  `json:"base" yaml:"base"`
	PerByte       uint64  `json:"perByte" yaml:"perByte"`
	Nodes         uint64  `json:"nodes" yaml:"nodes"`
	RatePerSecond float64 `json:"ratePerSecond" yaml:"ratePerSecond"`
	Burst         int     `json:"burst" yaml:"burst"`
}

// Enabled reports whether any charge or rate limit is configured.
func (cc *CostPolicyConfig) Enabled() bool {
	return cc.Base != 0 || cc.PerByte != 0 || cc.RatePerSecond > 0
}

func (cc *CostPolicyConfig) validate(path *field.Path) field.ErrorList {
	var allErrors field.ErrorList
	if cc.RatePerSecond < 0 {
		allErrors = append(allErrors, field.Invalid(path.Child("ratePerSecond"), cc.RatePerSecond, "must not be negative"))
	}
	if cc.RatePerSecond > 0 && cc.Burst < 1 {
		allErrors = append(allErrors, field.Invalid(path.Child("burst"), cc.Burst, "must be at least 1 when a rate is set"))
	}
	return allErrors
}

// BridgeConfig is the complete configuration for the EVM bridge.
type BridgeConfig struct {
	ChainID   ChainId   `json:"chainId" yaml:"chainId"`
	ChainName ChainName `json:"chainName" yaml:"chainName"`
	RpcUrl    string    `json:"rpcUrl" yaml:"rpcUrl"`

	// GasPrice in wei. Zero means ask the node.
	GasPrice uint64 `json:"gasPrice" yaml:"gasPrice"`
	GasLimit uint64 `json:"gasLimit" yaml:"gasLimit"`

	SignerType SignerType `json:"signerType" yaml:"signerType"`
	// KeyId identifies the remote key: a KMS key id, ARN or alias.
	KeyId     string `json:"keyId" yaml:"keyId"`
	AWSRegion string `json:"awsRegion" yaml:"awsRegion"`
	// LocalPrivateKey is a hex secp256k1 key for the local signer. Devnet only.
	LocalPrivateKey string `json:"localPrivateKey" yaml:"localPrivateKey"`

	Owner              string `json:"owner" yaml:"owner"`
	NftContractAddress string `json:"nftContractAddress" yaml:"nftContractAddress"`

	Persistence PersistenceConfig `json:"persistence" yaml:"persistence"`
	Cost        CostPolicyConfig  `json:"cost" yaml:"cost"`

	Debug bool `json:"debug" yaml:"debug"`

	// Populated by Validate for chains with known deployments.
	StoryContracts *StoryContractAddresses `json:"storyContracts,omitempty" yaml:"storyContracts,omitempty"`
}

// NewDefaultBridgeConfig returns a config pointed at Story Aeneid with the local signer.
func NewDefaultBridgeConfig() *BridgeConfig {
	return &BridgeConfig{
		ChainID:    DefaultChainId,
		RpcUrl:     DefaultRpcUrl,
		GasPrice:   DefaultGasPrice,
		GasLimit:   DefaultGasLimit,
		SignerType: SignerType_Local,
		Persistence: PersistenceConfig{
			Type: PersistenceType_Memory,
		},
	}
}

// Validate checks the configuration and fills in ChainName and StoryContracts.
func (c *BridgeConfig) Validate() error {
	var allErrors field.ErrorList

	if c.ChainID == 0 {
		allErrors = append(allErrors, field.Required(field.NewPath("chainId"), "chainId is required"))
	}
	if c.GasLimit == 0 {
		allErrors = append(allErrors, field.Invalid(field.NewPath("gasLimit"), c.GasLimit, "gasLimit must be greater than zero"))
	}

	switch c.SignerType {
	case SignerType_AWSKMS:
		if c.KeyId == "" {
			allErrors = append(allErrors, field.Required(field.NewPath("keyId"), "keyId is required for the aws-kms signer"))
		}
	case SignerType_Local:
		if c.LocalPrivateKey != "" {
			key := strings.TrimPrefix(c.LocalPrivateKey, "0x")
			if len(key) != 64 {
				allErrors = append(allErrors, field.Invalid(field.NewPath("localPrivateKey"), "<redacted>",
					fmt.Sprintf("private key must be 32 bytes (64 hex chars), got %d chars", len(key))))
			}
		}
	default:
		allErrors = append(allErrors, field.NotSupported(field.NewPath("signerType"), c.SignerType,
			[]string{string(SignerType_AWSKMS), string(SignerType_Local)}))
	}

	if c.Owner != "" && !common.IsHexAddress(c.Owner) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("owner"), c.Owner, "invalid address format"))
	}
	if c.NftContractAddress != "" && !common.IsHexAddress(c.NftContractAddress) {
		allErrors = append(allErrors, field.Invalid(field.NewPath("nftContractAddress"), c.NftContractAddress, "invalid address format"))
	}

	allErrors = append(allErrors, c.Persistence.validate(field.NewPath("persistence"))...)
	allErrors = append(allErrors, c.Cost.validate(field.NewPath("cost"))...)

	if len(allErrors) > 0 {
		return allErrors.ToAggregate()
	}

	// Unknown chains are allowed; they simply have no name or contract table.
	if name, ok := ChainIdToName[c.ChainID]; ok {
		c.ChainName = name
	}
	if contracts, err := GetStoryContractsForChainId(c.ChainID); err == nil {
		c.StoryContracts = contracts
	}
	return nil
}

// GetSupportedChainIDs returns all chain IDs with a known name
func GetSupportedChainIDs() []ChainId {
	return []ChainId{
		ChainId_EthereumMainnet,
		ChainId_EthereumSepolia,
		ChainId_EthereumAnvil,
		ChainId_StoryAeneid,
	}
}

// GetSupportedChainIDsString returns supported chain IDs as strings for CLI help
func GetSupportedChainIDsString() string {
	return fmt.Sprintf("%d (mainnet), %d (sepolia), %d (anvil), %d (story aeneid)",
		ChainId_EthereumMainnet, ChainId_EthereumSepolia, ChainId_EthereumAnvil, ChainId_StoryAeneid)
}
